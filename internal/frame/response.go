package frame

import "fmt"

// Status is the outcome of a poll.
type Status string

const (
	StatusUpdated  Status = "updated"
	StatusNoChange Status = "no_change"
	StatusClear    Status = "clear"
)

// MinPollIntervalMS is the floor the spec places on server-advertised poll
// intervals.
const MinPollIntervalMS = 1000

// Response is what the content server returns from a poll.
type Response struct {
	Status         Status
	Content        *Content // present iff Status == StatusUpdated
	PollIntervalMS int
}

// Validate enforces the ContentResponse invariants: Content is present iff
// status is "updated", and the advertised poll interval respects the floor.
func (r *Response) Validate(limits Limits) error {
	switch r.Status {
	case StatusUpdated:
		if r.Content == nil {
			return fmt.Errorf("frame: status=updated requires content")
		}
		if err := r.Content.Validate(limits); err != nil {
			return err
		}
	case StatusNoChange, StatusClear:
		if r.Content != nil {
			return fmt.Errorf("frame: status=%s must not carry content", r.Status)
		}
	default:
		return fmt.Errorf("frame: unknown status %q", r.Status)
	}
	if r.PollIntervalMS < MinPollIntervalMS {
		return fmt.Errorf("frame: poll_interval_ms %d below floor of %d", r.PollIntervalMS, MinPollIntervalMS)
	}
	return nil
}

package pollclient

import (
	"github.com/flipdot/driver/internal/config"
	"github.com/flipdot/driver/internal/frame"
)

// errorMessageIntervalMS is the poll interval carried by the clear response
// the error_message fallback synthesizes. The driver loop acts only on that
// response's status; it does not feed this interval back to the Client, so
// the next poll is still timed by the Client's own interval and backoff.
const errorMessageIntervalMS = 10 * 1000

// defaultBlankIntervalMS is used by the blank fallback, which has no prior
// successful response to borrow an interval from.
const defaultBlankIntervalMS = 30 * 1000

// ApplyFallback decides what the driver loop should treat as this poll's
// outcome when Fetch returned nil, per spec.md section 4.3's ErrorFallback
// policy. lastGood is the most recent successful response, or nil if there
// has never been one.
func ApplyFallback(policy config.ErrorFallback, lastGood *frame.Response) *frame.Response {
	switch policy {
	case config.FallbackKeepLast:
		if lastGood == nil {
			return nil
		}
		return &frame.Response{Status: frame.StatusNoChange, PollIntervalMS: lastGood.PollIntervalMS}
	case config.FallbackBlank:
		return &frame.Response{Status: frame.StatusClear, PollIntervalMS: defaultBlankIntervalMS}
	case config.FallbackErrorMessage:
		return &frame.Response{Status: frame.StatusClear, PollIntervalMS: errorMessageIntervalMS}
	default:
		return nil
	}
}

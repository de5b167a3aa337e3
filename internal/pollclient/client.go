// Package pollclient implements the adaptive-interval HTTP poll loop
// against the remote content server, with exponential backoff on failure.
package pollclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/flipdot/driver/internal/buildinfo"
	"github.com/flipdot/driver/internal/config"
	"github.com/flipdot/driver/internal/frame"
	"github.com/flipdot/driver/internal/logging"
)

// failureClass tags a poll failure for log throttling, mirroring the
// reference client's timeout/http_error/decode_error taxonomy.
type failureClass string

const (
	classTimeout     failureClass = "timeout"
	classTransport   failureClass = "transport_error"
	classHTTPError   failureClass = "http_error"
	classDecodeError failureClass = "decode_error"
	classInvalid     failureClass = "invalid_response"
)

// failureClassTracker logs the first occurrence of a repeated failure class
// at WARNING and demotes repeats to DEBUG, so a sustained outage doesn't
// flood the log at WARNING every poll.
type failureClassTracker struct {
	last failureClass
}

func (t *failureClassTracker) log(log *logging.Logger, class failureClass, err error) {
	if class == t.last {
		log.Debug().Str("failure_class", string(class)).Err(err).Log("poll: failed (repeated)")
		return
	}
	t.last = class
	log.Warning().Str("failure_class", string(class)).Err(err).Log("poll: failed")
}

func (t *failureClassTracker) reset() {
	t.last = ""
}

// Client is a stateful poller: one HTTP GET per Fetch call, with the
// adaptive interval and consecutive-error count that drive
// EffectiveInterval's backoff.
type Client struct {
	endpoint   string
	auth       config.Auth
	httpClient *http.Client
	backoff    Backoff
	limits     frame.Limits
	log        *logging.Logger

	mu                sync.Mutex
	lastPollTime      time.Time
	currentIntervalMS int
	consecutiveErrors int
	failures          failureClassTracker
}

// New constructs a Client seeded with the config's initial poll interval.
func New(endpoint string, auth config.Auth, timeout time.Duration, seedIntervalMS int, limits frame.Limits, log *logging.Logger) *Client {
	return &Client{
		endpoint:          endpoint,
		auth:              auth,
		httpClient:        &http.Client{Timeout: timeout},
		backoff:           DefaultBackoff,
		limits:            limits,
		log:               log,
		currentIntervalMS: seedIntervalMS,
	}
}

// Fetch performs one poll. It returns the decoded, validated response on
// success, or nil on any failure (non-2xx, transport error, decode error,
// or a response that fails frame.Response.Validate). Failures are logged
// once per failure class and folded into consecutiveErrors, which backs
// EffectiveInterval.
func (c *Client) Fetch(ctx context.Context) *frame.Response {
	c.mu.Lock()
	c.lastPollTime = time.Now()
	c.mu.Unlock()

	resp, class, err := c.doFetch(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		c.consecutiveErrors++
		c.failures.log(c.log, class, err)
		return nil
	}

	c.currentIntervalMS = resp.PollIntervalMS
	c.consecutiveErrors = 0
	c.failures.reset()
	return resp
}

func (c *Client) doFetch(ctx context.Context) (*frame.Response, failureClass, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return nil, classTransport, fmt.Errorf("pollclient: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", buildinfo.UserAgent())
	applyAuthHeader(req, c.auth)

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil || isTimeout(err) {
			return nil, classTimeout, fmt.Errorf("pollclient: request timed out: %w", err)
		}
		return nil, classTransport, fmt.Errorf("pollclient: request failed: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(httpResp.Body, 4096))
		return nil, classHTTPError, fmt.Errorf("pollclient: status %d: %s", httpResp.StatusCode, string(body))
	}

	var resp frame.Response
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, classDecodeError, fmt.Errorf("pollclient: decoding response: %w", err)
	}

	if err := resp.Validate(c.limits); err != nil {
		return nil, classInvalid, fmt.Errorf("pollclient: invalid response: %w", err)
	}

	return &resp, "", nil
}

func isTimeout(err error) bool {
	type timeouter interface{ Timeout() bool }
	te, ok := err.(timeouter)
	return ok && te.Timeout()
}

func applyAuthHeader(req *http.Request, auth config.Auth) {
	switch auth.Type {
	case config.AuthBearer:
		req.Header.Set("Authorization", "Bearer "+auth.Token)
	case config.AuthAPIKey:
		req.Header.Set(auth.HeaderName, auth.Key)
	}
}

// EffectiveInterval returns the delay to wait before the next poll: the
// server-advertised interval when there have been no failures, or the
// larger of that interval and the backoff delay once there have.
func (c *Client) EffectiveInterval() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	current := time.Duration(c.currentIntervalMS) * time.Millisecond
	if c.consecutiveErrors == 0 {
		return current
	}
	backoff := c.backoff.Delay(c.consecutiveErrors)
	if backoff > current {
		return backoff
	}
	return current
}

// ShouldPoll reports whether enough time has elapsed since the last poll
// to justify another one.
func (c *Client) ShouldPoll() bool {
	c.mu.Lock()
	last := c.lastPollTime
	c.mu.Unlock()
	if last.IsZero() {
		return true
	}
	return time.Since(last) >= c.EffectiveInterval()
}

// NextDelayMS returns how long until ShouldPoll would next report true, for
// callers that want to sleep rather than busy-poll. A non-positive value
// means it's already due.
func (c *Client) NextDelayMS() int64 {
	c.mu.Lock()
	last := c.lastPollTime
	c.mu.Unlock()
	if last.IsZero() {
		return 0
	}
	remaining := c.EffectiveInterval() - time.Since(last)
	return remaining.Milliseconds()
}

// ResetPollTimer forces the next ShouldPoll call to report true, used by
// the push server to coalesce: once push has delivered fresh content, there
// is no reason to wait out the remainder of the current poll interval.
func (c *Client) ResetPollTimer() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastPollTime = time.Time{}
}

// ConsecutiveErrors reports the current failure streak, for callers that
// need to apply an ErrorFallback policy.
func (c *Client) ConsecutiveErrors() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.consecutiveErrors
}

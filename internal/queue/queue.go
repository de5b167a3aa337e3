package queue

import (
	"sync"

	"github.com/flipdot/driver/internal/frame"
	"github.com/flipdot/driver/internal/logging"
)

// Limits bounds the queue and interrupted stack sizes.
type Limits struct {
	MaxQueuedItems      int
	MaxInterruptedItems int
}

// DefaultLimits mirrors the reference implementation's defaults.
var DefaultLimits = Limits{
	MaxQueuedItems:      50,
	MaxInterruptedItems: 10,
}

// Queue is the process-wide playback queue: at most one current state, a
// priority-ordered waiting queue, and a LIFO stack of interrupted states to
// resume later.
//
// A single sync.Mutex guards all three collections. The reference
// implementation uses a reentrant lock because a push-notification handler
// can re-enter the queue while already holding it; this port instead locks
// only at each exported method's boundary and has every method call
// unexported, lock-free helpers internally, so no call ever needs to
// reacquire a lock it already holds - the idiomatic Go way to avoid
// needing a recursive mutex (see DESIGN.md).
type Queue struct {
	mu          sync.Mutex
	current     *State
	queue       []*State
	interrupted []*State
	limits      Limits
	log         *logging.Logger
}

// New constructs an empty Queue.
func New(limits Limits, log *logging.Logger) *Queue {
	return &Queue{limits: limits, log: log}
}

// AddContent admits c per the priority/interrupt rules: it becomes current
// if nothing is playing, interrupts current if higher priority and current
// is interruptible, or else is inserted into the waiting queue in priority
// order.
func (q *Queue) AddContent(c *frame.Content) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.addContentLocked(NewState(c))
}

func (q *Queue) addContentLocked(newState *State) {
	priority := newState.Priority()

	if q.current == nil {
		q.current = newState
		q.log.Info().Str("content_id", newState.Content.ContentID).Log("queue: started (was empty)")
		return
	}

	if priority > q.current.Priority() {
		if q.current.Content.Playback.Interruptible {
			q.log.Info().
				Str("interrupted_id", q.current.Content.ContentID).
				Str("new_id", newState.Content.ContentID).
				Log("queue: interrupting current content")
			q.current.Pause()
			q.interrupted = append(q.interrupted, q.current)
			if rest, dropped, ok := dropHead(q.interrupted, q.limits.MaxInterruptedItems); ok {
				q.interrupted = rest
				q.log.Warning().Str("content_id", dropped.Content.ContentID).Log("queue: interrupted stack overflow, dropped oldest")
			}
			q.current = newState
			return
		}
		q.log.Warning().Str("content_id", q.current.Content.ContentID).Log("queue: cannot interrupt, non-interruptible")
	}

	q.enqueueLocked(newState)
}

func (q *Queue) enqueueLocked(s *State) {
	q.queue = insertByPriority(q.queue, s, (*State).Priority)
	if rest, dropped, ok := dropTail(q.queue, q.limits.MaxQueuedItems); ok {
		q.queue = rest
		q.log.Warning().Str("content_id", dropped.Content.ContentID).Log("queue: overflow, dropped newest lowest-priority item")
	}
	q.log.Info().Str("content_id", s.Content.ContentID).Int("queue_len", len(q.queue)).Log("queue: enqueued")
}

// ReplaceIfSameID searches current, then queue, then interrupted, for
// content sharing c's ID, replacing the first hit with a fresh state. If
// the hit is current and c has enough frames, the existing frame index and
// timing are preserved so the update is seamless. Reports whether a
// replacement occurred.
func (q *Queue) ReplaceIfSameID(c *frame.Content) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.current != nil && q.current.Content.ContentID == c.ContentID {
		oldIndex := q.current.FrameIndex
		fresh := NewState(c)
		if oldIndex < len(c.Frames) {
			fresh.FrameIndex = oldIndex
			fresh.FrameStartTime = q.current.FrameStartTime
			fresh.TimePaused = q.current.TimePaused
			fresh.Paused = q.current.Paused
			fresh.PausedAt = q.current.PausedAt
			fresh.LoopCount = q.current.LoopCount
		}
		q.current = fresh
		q.log.Info().Str("content_id", c.ContentID).Log("queue: replaced current content")
		return true
	}

	for i, s := range q.queue {
		if s.Content.ContentID == c.ContentID {
			q.queue[i] = NewState(c)
			q.log.Info().Str("content_id", c.ContentID).Log("queue: replaced queued content")
			return true
		}
	}

	for i, s := range q.interrupted {
		if s.Content.ContentID == c.ContentID {
			q.interrupted[i] = NewState(c)
			q.log.Info().Str("content_id", c.ContentID).Log("queue: replaced interrupted content")
			return true
		}
	}

	return false
}

// Update advances the current content's frame timing, promotes the next
// state from interrupted/queue when current completes, and returns the
// frame that should now be displayed, or nil if nothing is playing.
func (q *Queue) Update() *frame.Frame {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.current == nil {
		return nil
	}

	if q.current.AdvanceFrame() {
		q.log.Debug().
			Str("content_id", q.current.Content.ContentID).
			Int("frame_index", q.current.FrameIndex).
			Log("queue: advanced frame")
	}

	if q.current.IsComplete() {
		q.log.Info().Str("content_id", q.current.Content.ContentID).Log("queue: content completed")

		switch {
		case len(q.interrupted) > 0:
			last := len(q.interrupted) - 1
			q.current = q.interrupted[last]
			q.interrupted = q.interrupted[:last]
			q.current.Resume()
			q.log.Info().Str("content_id", q.current.Content.ContentID).Log("queue: resumed interrupted content")
		case len(q.queue) > 0:
			q.current = q.queue[0]
			q.queue = q.queue[1:]
			q.log.Info().Str("content_id", q.current.Content.ContentID).Log("queue: started next queued content")
		default:
			q.current = nil
			q.log.Info().Log("queue: empty")
			return nil
		}
	}

	return q.current.CurrentFrame()
}

// Clear drops all content from current, queue, and interrupted.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.log.Info().Log("queue: cleared")
	q.current = nil
	q.queue = nil
	q.interrupted = nil
}

// HasContent reports whether anything is currently playing.
func (q *Queue) HasContent() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.current != nil
}

// CurrentID returns the ID of the currently playing content, or "" if none.
func (q *Queue) CurrentID() string {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.current == nil {
		return ""
	}
	return q.current.Content.ContentID
}

// SetPlaylist replaces the entire queue state with a FIFO playlist,
// preserving current's timing if the first item shares its ID - the
// zero-priority-FIFO simulation of the alternative playlist variant
// described in spec.md's Open Question. An empty list behaves like Clear.
func (q *Queue) SetPlaylist(contents []*frame.Content) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(contents) == 0 {
		q.current = nil
		q.queue = nil
		q.interrupted = nil
		q.log.Info().Log("queue: playlist cleared")
		return
	}

	q.interrupted = nil
	q.queue = nil

	first := contents[0]
	if q.current != nil && q.current.Content.ContentID == first.ContentID {
		oldIndex := q.current.FrameIndex
		fresh := NewState(first)
		if oldIndex < len(first.Frames) {
			fresh.FrameIndex = oldIndex
			fresh.FrameStartTime = q.current.FrameStartTime
			fresh.TimePaused = q.current.TimePaused
		}
		q.current = fresh
	} else {
		q.current = NewState(first)
	}

	for _, c := range contents[1:] {
		q.queue = append(q.queue, NewState(c))
	}
	q.log.Info().Int("items", len(contents)).Log("queue: playlist installed")
}

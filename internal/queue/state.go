// Package queue implements the priority-ordered playback queue: the single
// source of truth for what content is currently displayed, what is waiting,
// and what was interrupted and needs to resume.
package queue

import (
	"time"

	"github.com/flipdot/driver/internal/frame"
)

// State tracks the playback position and pause accounting for one piece of
// content while it is current, queued, or interrupted. Times are measured
// with the monotonic clock (time.Time values produced by time.Now, never
// serialized), per the spec's requirement that pause/resume accounting must
// not use wall-clock time.
type State struct {
	Content        *frame.Content
	FrameIndex     int
	LoopCount      int
	FrameStartTime time.Time
	Paused         bool
	PausedAt       time.Time
	TimePaused     time.Duration
}

// NewState starts a fresh playback state for content, with the clock
// starting now.
func NewState(c *frame.Content) *State {
	return &State{Content: c, FrameStartTime: time.Now()}
}

// CurrentFrame returns the frame currently being displayed.
func (s *State) CurrentFrame() *frame.Frame {
	return &s.Content.Frames[s.FrameIndex]
}

// Priority returns the content's configured priority.
func (s *State) Priority() int {
	return s.Content.Playback.Priority
}

// IsComplete reports whether this content has finished playing: it is on
// its last frame, that frame's duration has actually elapsed, and either
// the content doesn't loop or it has looped its configured number of
// times. A last frame with an absent or zero duration never completes —
// it displays indefinitely until externally replaced.
func (s *State) IsComplete() bool {
	if s.Paused {
		return false
	}
	playback := s.Content.Playback
	if s.FrameIndex < len(s.Content.Frames)-1 {
		return false
	}

	duration := s.CurrentFrame().DurationMS
	if duration <= 0 {
		return false
	}
	elapsed := time.Since(s.FrameStartTime) - s.TimePaused
	if elapsed < time.Duration(duration)*time.Millisecond {
		return false
	}

	if !playback.Loop {
		return true
	}
	if playback.LoopCount != nil && s.LoopCount >= *playback.LoopCount {
		return true
	}
	return false
}

// AdvanceFrame moves to the next frame if the current frame's duration has
// elapsed (accounting for any paused time), reporting whether it did so. A
// zero or absent duration never causes an advance. On the last frame of a
// non-looping content, or of a looping content that has already looped
// LoopCount times, it never advances (and never resets the frame timer)
// once the duration elapses — the frame holds in place so IsComplete can
// observe the elapsed duration and complete the content, rather than
// looping the timer forever on the same frame.
func (s *State) AdvanceFrame() bool {
	if s.Paused {
		return false
	}
	duration := s.CurrentFrame().DurationMS
	if duration <= 0 {
		return false
	}

	elapsed := time.Since(s.FrameStartTime) - s.TimePaused
	if elapsed < time.Duration(duration)*time.Millisecond {
		return false
	}

	next := s.FrameIndex + 1
	if next >= len(s.Content.Frames) {
		playback := s.Content.Playback
		if !playback.Loop {
			return false
		}
		if playback.LoopCount != nil && s.LoopCount >= *playback.LoopCount {
			return false
		}
		next = 0
		s.LoopCount++
	}

	s.FrameIndex = next
	s.FrameStartTime = time.Now()
	s.TimePaused = 0
	return true
}

// Pause marks the state as paused, for interruption. A no-op if already
// paused.
func (s *State) Pause() {
	if !s.Paused {
		s.Paused = true
		s.PausedAt = time.Now()
	}
}

// Resume credits the time spent paused against TimePaused, so the
// interrupted content's current frame still measures wall-clock display
// time rather than wall-clock age.
func (s *State) Resume() {
	if s.Paused && !s.PausedAt.IsZero() {
		s.TimePaused += time.Since(s.PausedAt)
		s.Paused = false
		s.PausedAt = time.Time{}
	}
}

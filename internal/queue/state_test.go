package queue

import (
	"testing"
	"time"

	"github.com/flipdot/driver/internal/frame"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contentWithFrames(durations ...int) *frame.Content {
	frames := make([]frame.Frame, len(durations))
	for i, d := range durations {
		frames[i] = frame.Frame{Data: []byte{0x00}, Width: 8, Height: 1, DurationMS: d}
	}
	return &frame.Content{ContentID: "x", Frames: frames, Playback: frame.PlaybackMode{Priority: 1}}
}

func TestStateAdvanceFrameRespectsDuration(t *testing.T) {
	s := NewState(contentWithFrames(50, 50))
	assert.False(t, s.AdvanceFrame())
	time.Sleep(60 * time.Millisecond)
	assert.True(t, s.AdvanceFrame())
	assert.Equal(t, 1, s.FrameIndex)
}

func TestStateAdvanceFrameNeverAdvancesWithZeroDuration(t *testing.T) {
	s := NewState(contentWithFrames(0, 0))
	time.Sleep(10 * time.Millisecond)
	assert.False(t, s.AdvanceFrame())
	assert.Equal(t, 0, s.FrameIndex)
}

func TestStateIsCompleteNonLooping(t *testing.T) {
	s := NewState(contentWithFrames(30))
	assert.False(t, s.IsComplete())
	time.Sleep(40 * time.Millisecond)
	assert.True(t, s.IsComplete())
}

func TestStateIsCompleteNeverWithZeroDurationLastFrame(t *testing.T) {
	s := NewState(contentWithFrames(0))
	time.Sleep(10 * time.Millisecond)
	assert.False(t, s.IsComplete())
}

func TestStateIsCompleteLoopingWithCount(t *testing.T) {
	c := contentWithFrames(30, 30)
	count := 2
	c.Playback.Loop = true
	c.Playback.LoopCount = &count
	s := NewState(c)

	s.FrameIndex = 1
	time.Sleep(40 * time.Millisecond)
	assert.False(t, s.IsComplete())
	s.LoopCount = 2
	assert.True(t, s.IsComplete())
}

func TestStatePauseResumeCreditsElapsedTime(t *testing.T) {
	s := NewState(contentWithFrames(100))
	s.Pause()
	time.Sleep(30 * time.Millisecond)
	s.Resume()
	require.False(t, s.Paused)
	assert.GreaterOrEqual(t, s.TimePaused, 25*time.Millisecond)
}

func TestStatePriority(t *testing.T) {
	c := contentWithFrames(0)
	c.Playback.Priority = 42
	s := NewState(c)
	assert.Equal(t, 42, s.Priority())
}

package queue

import (
	"io"
	"testing"
	"time"

	"github.com/flipdot/driver/internal/frame"
	"github.com/flipdot/driver/internal/logging"
	"github.com/joeycumines/logiface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logging.Logger {
	return logging.New(io.Discard, logiface.LevelDebug)
}

func makeContent(id string, priority int, interruptible bool, durationMS int) *frame.Content {
	return &frame.Content{
		ContentID: id,
		Frames: []frame.Frame{
			{Data: []byte{0x00}, Width: 8, Height: 1, DurationMS: durationMS},
		},
		Playback: frame.PlaybackMode{
			Priority:      priority,
			Interruptible: interruptible,
		},
	}
}

func TestQueueAddContentStartsEmpty(t *testing.T) {
	q := New(DefaultLimits, testLogger())
	require.False(t, q.HasContent())

	q.AddContent(makeContent("a", 5, true, 0))
	assert.True(t, q.HasContent())
	assert.Equal(t, "a", q.CurrentID())
}

func TestQueueAddContentEnqueuesLowerPriority(t *testing.T) {
	q := New(DefaultLimits, testLogger())
	q.AddContent(makeContent("a", 10, true, 0))
	q.AddContent(makeContent("b", 5, true, 0))

	assert.Equal(t, "a", q.CurrentID())
	require.Len(t, q.queue, 1)
	assert.Equal(t, "b", q.queue[0].Content.ContentID)
}

func TestQueueAddContentInterruptsHigherPriority(t *testing.T) {
	q := New(DefaultLimits, testLogger())
	q.AddContent(makeContent("a", 5, true, 0))
	q.AddContent(makeContent("b", 10, true, 0))

	assert.Equal(t, "b", q.CurrentID())
	require.Len(t, q.interrupted, 1)
	assert.Equal(t, "a", q.interrupted[0].Content.ContentID)
	assert.True(t, q.interrupted[0].Paused)
}

func TestQueueAddContentCannotInterruptNonInterruptible(t *testing.T) {
	q := New(DefaultLimits, testLogger())
	q.AddContent(makeContent("a", 5, false, 0))
	q.AddContent(makeContent("b", 10, true, 0))

	assert.Equal(t, "a", q.CurrentID())
	require.Len(t, q.queue, 1)
	assert.Equal(t, "b", q.queue[0].Content.ContentID)
}

func TestQueueEnqueueFIFOWithinSamePriority(t *testing.T) {
	q := New(DefaultLimits, testLogger())
	q.AddContent(makeContent("a", 10, true, 0))
	q.AddContent(makeContent("b", 5, true, 0))
	q.AddContent(makeContent("c", 5, true, 0))

	require.Len(t, q.queue, 2)
	assert.Equal(t, "b", q.queue[0].Content.ContentID)
	assert.Equal(t, "c", q.queue[1].Content.ContentID)
}

func TestQueueOverflowDropsTailOfQueue(t *testing.T) {
	limits := Limits{MaxQueuedItems: 2, MaxInterruptedItems: 10}
	q := New(limits, testLogger())
	q.AddContent(makeContent("current", 50, true, 0))
	q.AddContent(makeContent("q1", 10, true, 0))
	q.AddContent(makeContent("q2", 9, true, 0))
	q.AddContent(makeContent("q3", 8, true, 0))

	require.Len(t, q.queue, 2)
	assert.Equal(t, "q1", q.queue[0].Content.ContentID)
	assert.Equal(t, "q2", q.queue[1].Content.ContentID)
}

func TestQueueOverflowDropsHeadOfInterrupted(t *testing.T) {
	limits := Limits{MaxQueuedItems: 50, MaxInterruptedItems: 1}
	q := New(limits, testLogger())
	q.AddContent(makeContent("a", 1, true, 0))
	q.AddContent(makeContent("b", 2, true, 0))
	q.AddContent(makeContent("c", 3, true, 0))

	require.Len(t, q.interrupted, 1)
	assert.Equal(t, "b", q.interrupted[0].Content.ContentID)
	assert.Equal(t, "c", q.CurrentID())
}

func TestQueueUpdateAdvancesToNextOnCompletion(t *testing.T) {
	q := New(DefaultLimits, testLogger())
	q.AddContent(makeContent("a", 10, true, 30))
	q.AddContent(makeContent("b", 5, true, 0))

	// "a" has a single, non-looping frame with a non-zero duration: it
	// is already on its last frame, but only completes once that
	// duration has actually elapsed.
	f := q.Update()
	require.NotNil(t, f)
	assert.Equal(t, "a", q.CurrentID())

	time.Sleep(40 * time.Millisecond)
	f = q.Update()
	require.NotNil(t, f)
	assert.Equal(t, "b", q.CurrentID())
}

func TestQueueUpdateNeverCompletesZeroDurationLastFrame(t *testing.T) {
	q := New(DefaultLimits, testLogger())
	q.AddContent(makeContent("a", 10, true, 0))

	for i := 0; i < 3; i++ {
		f := q.Update()
		require.NotNil(t, f)
		assert.Equal(t, "a", q.CurrentID())
	}
}

func TestQueueUpdateResumesInterruptedBeforeQueue(t *testing.T) {
	q := New(DefaultLimits, testLogger())
	q.AddContent(makeContent("a", 5, true, 0))
	q.AddContent(makeContent("waiting", 1, true, 0))
	q.AddContent(makeContent("b", 10, true, 30))

	require.Equal(t, "b", q.CurrentID())
	require.Len(t, q.interrupted, 1)
	require.Len(t, q.queue, 1)

	time.Sleep(40 * time.Millisecond)
	q.Update()
	assert.Equal(t, "a", q.CurrentID())
	assert.Empty(t, q.interrupted)
	require.Len(t, q.queue, 1)
}

func TestQueueUpdateEmptyReturnsNil(t *testing.T) {
	q := New(DefaultLimits, testLogger())
	assert.Nil(t, q.Update())
}

func TestQueueClear(t *testing.T) {
	q := New(DefaultLimits, testLogger())
	q.AddContent(makeContent("a", 5, true, 0))
	q.AddContent(makeContent("b", 10, true, 0))
	q.AddContent(makeContent("c", 1, true, 0))

	q.Clear()
	assert.False(t, q.HasContent())
	assert.Equal(t, "", q.CurrentID())
	assert.Empty(t, q.queue)
	assert.Empty(t, q.interrupted)
}

func TestQueueReplaceIfSameIDCurrent(t *testing.T) {
	q := New(DefaultLimits, testLogger())
	original := makeContent("a", 5, true, 60000)
	q.AddContent(original)

	updated := makeContent("a", 5, true, 60000)
	updated.Frames = append(updated.Frames, frame.Frame{Data: []byte{0x00}, Width: 8, Height: 1, DurationMS: 1000})

	ok := q.ReplaceIfSameID(updated)
	require.True(t, ok)
	assert.Same(t, updated, q.current.Content)
}

func TestQueueReplaceIfSameIDQueued(t *testing.T) {
	q := New(DefaultLimits, testLogger())
	q.AddContent(makeContent("a", 10, true, 0))
	q.AddContent(makeContent("b", 5, true, 0))

	updated := makeContent("b", 5, true, 0)
	ok := q.ReplaceIfSameID(updated)
	require.True(t, ok)
	assert.Same(t, updated, q.queue[0].Content)
}

func TestQueueReplaceIfSameIDInterrupted(t *testing.T) {
	q := New(DefaultLimits, testLogger())
	q.AddContent(makeContent("a", 5, true, 0))
	q.AddContent(makeContent("b", 10, true, 0))

	updated := makeContent("a", 5, true, 0)
	ok := q.ReplaceIfSameID(updated)
	require.True(t, ok)
	assert.Same(t, updated, q.interrupted[0].Content)
}

func TestQueueReplaceIfSameIDNotFound(t *testing.T) {
	q := New(DefaultLimits, testLogger())
	q.AddContent(makeContent("a", 5, true, 0))

	ok := q.ReplaceIfSameID(makeContent("nonexistent", 5, true, 0))
	assert.False(t, ok)
}

func TestQueueSetPlaylist(t *testing.T) {
	q := New(DefaultLimits, testLogger())
	q.AddContent(makeContent("stale", 5, true, 0))

	playlist := []*frame.Content{
		makeContent("p1", 0, true, 0),
		makeContent("p2", 0, true, 0),
		makeContent("p3", 0, true, 0),
	}
	q.SetPlaylist(playlist)

	assert.Equal(t, "p1", q.CurrentID())
	require.Len(t, q.queue, 2)
	assert.Equal(t, "p2", q.queue[0].Content.ContentID)
	assert.Equal(t, "p3", q.queue[1].Content.ContentID)
	assert.Empty(t, q.interrupted)
}

func TestQueueSetPlaylistEmptyClears(t *testing.T) {
	q := New(DefaultLimits, testLogger())
	q.AddContent(makeContent("a", 5, true, 0))
	q.SetPlaylist(nil)
	assert.False(t, q.HasContent())
}

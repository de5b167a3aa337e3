package frame

import (
	"errors"
	"fmt"
)

// PlaybackMode controls how a Content's frames are shown and whether it can
// be interrupted by higher-priority content.
type PlaybackMode struct {
	Loop bool
	// LoopCount, if non-nil, must be positive, and requires Loop=true.
	LoopCount     *int
	Priority      int // 0..99, higher wins
	Interruptible bool
}

const (
	MinPriority = 0
	MaxPriority = 99
)

var (
	ErrLoopCountWithoutLoop  = errors.New("frame: loop_count requires loop=true")
	ErrLoopCountNonPositive  = errors.New("frame: loop_count must be positive")
	ErrPriorityOutOfRange    = fmt.Errorf("frame: priority must be in [%d, %d]", MinPriority, MaxPriority)
	ErrEmptyContentID        = errors.New("frame: content_id must be non-empty")
	ErrNoFrames              = errors.New("frame: content must have at least one frame")
	ErrTooManyFrames         = errors.New("frame: too many frames")
	ErrFrameDimensionMismatch = errors.New("frame: all frames in a content must share width and height")
	ErrContentTooLarge       = errors.New("frame: content exceeds total byte limit")
	ErrMetadataTooLarge      = errors.New("frame: metadata exceeds size limit")
)

func (p PlaybackMode) validate() error {
	if p.Priority < MinPriority || p.Priority > MaxPriority {
		return ErrPriorityOutOfRange
	}
	if p.LoopCount != nil {
		if !p.Loop {
			return ErrLoopCountWithoutLoop
		}
		if *p.LoopCount < 1 {
			return ErrLoopCountNonPositive
		}
	}
	return nil
}

// Content is a playable unit: an ordered, non-empty sequence of
// identically-sized frames plus playback rules.
type Content struct {
	ContentID string
	Frames    []Frame
	Playback  PlaybackMode
	Metadata  map[string]any
}

// Validate enforces every construction-time invariant from the data model:
// non-empty id, frame count and dimension consistency, size limits, and
// playback-mode consistency. It is the single gate content must pass through
// before entering the queue, whether it arrived via poll or push.
func (c *Content) Validate(limits Limits) error {
	if c.ContentID == "" {
		return ErrEmptyContentID
	}
	if len(c.Frames) == 0 {
		return ErrNoFrames
	}
	if len(c.Frames) > limits.MaxFrames {
		return fmt.Errorf("%w: %d exceeds limit of %d", ErrTooManyFrames, len(c.Frames), limits.MaxFrames)
	}
	if err := c.Playback.validate(); err != nil {
		return err
	}

	width, height := c.Frames[0].Width, c.Frames[0].Height
	var totalBytes int
	for i := range c.Frames {
		f := &c.Frames[i]
		if err := f.Validate(); err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
		if f.Width != width || f.Height != height {
			return fmt.Errorf("%w: frame %d is %dx%d, frame 0 is %dx%d",
				ErrFrameDimensionMismatch, i, f.Width, f.Height, width, height)
		}
		totalBytes += len(f.Data)
		if f.Metadata != nil {
			n, err := jsonSize(f.Metadata)
			if err != nil {
				return fmt.Errorf("frame %d metadata: %w", i, err)
			}
			if n > limits.MaxMetadataBytes {
				return fmt.Errorf("%w: frame %d metadata is %d bytes", ErrMetadataTooLarge, i, n)
			}
			totalBytes += n
		}
	}

	if c.Metadata != nil {
		n, err := jsonSize(c.Metadata)
		if err != nil {
			return fmt.Errorf("content metadata: %w", err)
		}
		if n > limits.MaxMetadataBytes {
			return fmt.Errorf("%w: content metadata is %d bytes", ErrMetadataTooLarge, n)
		}
		totalBytes += n
	}

	if totalBytes > limits.MaxTotalBytes {
		return fmt.Errorf("%w: %d exceeds limit of %d", ErrContentTooLarge, totalBytes, limits.MaxTotalBytes)
	}
	return nil
}

// Dimensions returns the shared width/height of every frame in c. Callers
// must only call this after Validate has succeeded.
func (c *Content) Dimensions() (width, height int) {
	return c.Frames[0].Width, c.Frames[0].Height
}

// ValidateDisplayDimensions checks that the content's frames match the
// physical panel it is destined for.
func (c *Content) ValidateDisplayDimensions(displayWidth, displayHeight int) error {
	w, h := c.Dimensions()
	if w != displayWidth || h != displayHeight {
		return fmt.Errorf("frame: content %q has frame dimensions %dx%d, but display is %dx%d",
			c.ContentID, w, h, displayWidth, displayHeight)
	}
	return nil
}

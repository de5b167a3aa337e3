package frame

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// jsonSize returns the size, in bytes, that v would occupy as a UTF-8 JSON
// document, used to enforce the metadata size limits the same way the
// original server-side validation does (by JSON-encoding and measuring).
func jsonSize(v map[string]any) (int, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return 0, err
	}
	return len(b), nil
}

// wire types mirror the JSON shapes of the Content API.
// Keeping them distinct from Frame/Content/PlaybackMode/Response lets the
// wire format evolve (e.g. new optional fields) independently of the
// in-process model, and keeps base64 handling in one place.

type wireFrame struct {
	DataB64    string         `json:"data_b64"`
	Width      int            `json:"width"`
	Height     int            `json:"height"`
	DurationMS *int           `json:"duration_ms"`
	Metadata   map[string]any `json:"metadata"`
}

type wirePlaybackMode struct {
	Loop          bool `json:"loop"`
	LoopCount     *int `json:"loop_count"`
	Priority      int  `json:"priority"`
	Interruptible bool `json:"interruptible"`
}

type wireContent struct {
	ContentID string           `json:"content_id"`
	Frames    []wireFrame      `json:"frames"`
	Playback  wirePlaybackMode `json:"playback"`
	Metadata  map[string]any   `json:"metadata"`
}

type wireResponse struct {
	Status         Status       `json:"status"`
	Content        *wireContent `json:"content"`
	PollIntervalMS int          `json:"poll_interval_ms"`
}

func toWireFrame(f *Frame) wireFrame {
	var dur *int
	if f.DurationMS != 0 {
		d := f.DurationMS
		dur = &d
	}
	return wireFrame{
		DataB64:    base64.StdEncoding.EncodeToString(f.Data),
		Width:      f.Width,
		Height:     f.Height,
		DurationMS: dur,
		Metadata:   f.Metadata,
	}
}

func fromWireFrame(w wireFrame) (Frame, error) {
	data, err := base64.StdEncoding.DecodeString(w.DataB64)
	if err != nil {
		return Frame{}, fmt.Errorf("frame: invalid base64 data: %w", err)
	}
	f := Frame{
		Data:     data,
		Width:    w.Width,
		Height:   w.Height,
		Metadata: w.Metadata,
	}
	if w.DurationMS != nil {
		f.DurationMS = *w.DurationMS
	}
	return f, nil
}

func toWireContent(c *Content) wireContent {
	frames := make([]wireFrame, len(c.Frames))
	for i := range c.Frames {
		frames[i] = toWireFrame(&c.Frames[i])
	}
	return wireContent{
		ContentID: c.ContentID,
		Frames:    frames,
		Playback: wirePlaybackMode{
			Loop:          c.Playback.Loop,
			LoopCount:     c.Playback.LoopCount,
			Priority:      c.Playback.Priority,
			Interruptible: c.Playback.Interruptible,
		},
		Metadata: c.Metadata,
	}
}

func fromWireContent(w wireContent) (Content, error) {
	frames := make([]Frame, len(w.Frames))
	for i, wf := range w.Frames {
		f, err := fromWireFrame(wf)
		if err != nil {
			return Content{}, fmt.Errorf("content %q: frame %d: %w", w.ContentID, i, err)
		}
		frames[i] = f
	}
	return Content{
		ContentID: w.ContentID,
		Frames:    frames,
		Playback: PlaybackMode{
			Loop:          w.Playback.Loop,
			LoopCount:     w.Playback.LoopCount,
			Priority:      w.Playback.Priority,
			Interruptible: w.Playback.Interruptible,
		},
		Metadata: w.Metadata,
	}, nil
}

// MarshalJSON implements json.Marshaler for Content, emitting the wire shape
// (base64 frame data, duration_ms written as null when zero).
func (c Content) MarshalJSON() ([]byte, error) {
	return json.Marshal(toWireContent(&c))
}

// UnmarshalJSON implements json.Unmarshaler for Content.
func (c *Content) UnmarshalJSON(data []byte) error {
	var w wireContent
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	parsed, err := fromWireContent(w)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// MarshalJSON implements json.Marshaler for Response.
func (r Response) MarshalJSON() ([]byte, error) {
	w := wireResponse{Status: r.Status, PollIntervalMS: r.PollIntervalMS}
	if r.Content != nil {
		wc := toWireContent(r.Content)
		w.Content = &wc
	}
	return json.Marshal(w)
}

// UnmarshalJSON implements json.Unmarshaler for Response.
func (r *Response) UnmarshalJSON(data []byte) error {
	var w wireResponse
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	resp := Response{Status: w.Status, PollIntervalMS: w.PollIntervalMS}
	if w.Content != nil {
		c, err := fromWireContent(*w.Content)
		if err != nil {
			return err
		}
		resp.Content = &c
	}
	*r = resp
	return nil
}

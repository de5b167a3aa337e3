// Package frame implements the content model the driver receives from the
// remote content server: frames, playable content, playback rules, and the
// poll response envelope. All validation the server's responses must satisfy
// before they are allowed to reach the playback queue lives here.
package frame

// Limits bounds the size of content the driver will accept, preventing a
// buggy or malicious server from exhausting memory on the edge device.
type Limits struct {
	// MaxFrames is the maximum number of frames a single Content may carry.
	MaxFrames int
	// MaxTotalBytes bounds the sum of frame data plus all metadata for a
	// single Content.
	MaxTotalBytes int
	// MaxMetadataBytes bounds any single metadata blob (per-frame or
	// per-content).
	MaxMetadataBytes int
}

// DefaultLimits mirrors the server-side defaults, so a driver talking to an
// unconfigured server behaves the same as the server's own validation.
var DefaultLimits = Limits{
	MaxFrames:        1000,
	MaxTotalBytes:    5 * 1024 * 1024,
	MaxMetadataBytes: 10 * 1024,
}

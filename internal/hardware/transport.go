package hardware

import "context"

// Transport writes a fully-packed wire command to the physical display (or
// somewhere standing in for it). Implementations are not required to be
// safe for concurrent use; the driver loop is the only caller.
type Transport interface {
	// Write sends data. A partial write must be reported as an error: the
	// caller may not assume any bytes reached the wire on failure.
	Write(ctx context.Context, data []byte) error
	// Close releases any underlying resources.
	Close() error
}

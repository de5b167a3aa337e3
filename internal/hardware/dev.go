package hardware

import (
	"context"
	"encoding/hex"

	"github.com/flipdot/driver/internal/logging"
)

// DevTransport stands in for real hardware during development: it logs what
// would have been written and drops the bytes, never touching a serial
// port.
type DevTransport struct {
	log *logging.Logger
}

// NewDevTransport constructs a DevTransport.
func NewDevTransport(log *logging.Logger) *DevTransport {
	return &DevTransport{log: log}
}

// Write implements Transport.
func (d *DevTransport) Write(ctx context.Context, data []byte) error {
	d.log.Debug().
		Int("bytes", len(data)).
		Str("hex", hex.EncodeToString(data)).
		Log("dev: would write to serial")
	return nil
}

// Close implements Transport.
func (d *DevTransport) Close() error { return nil }

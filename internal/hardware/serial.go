package hardware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/flipdot/driver/internal/logging"
	"go.bug.st/serial"
)

// connState is the SerialTransport's disconnected/connecting/connected
// state machine from the spec: writes move CONNECTED -> DISCONNECTED on any
// error, and reconnection is attempted lazily on the next write.
type connState int

const (
	stateDisconnected connState = iota
	stateConnecting
	stateConnected
)

// SerialBackoff configures reconnect backoff and failure-tolerance for
// SerialTransport.
type SerialBackoff struct {
	InitialMS           int
	MaxMS               int
	MaxConsecutiveFails int
}

// DefaultSerialBackoff mirrors the reference implementation's constants.
var DefaultSerialBackoff = SerialBackoff{
	InitialMS:           1000,
	MaxMS:               60000,
	MaxConsecutiveFails: 10,
}

// SerialTransport is a resilient writer over a real serial port: it
// reconnects with exponential backoff on failure, treats partial writes as
// errors, and never gives up permanently - after MaxConsecutiveFails it logs
// a single persistent warning but keeps retrying on every subsequent write.
type SerialTransport struct {
	device   string
	baudRate int
	backoff  SerialBackoff
	log      *logging.Logger

	mu                 sync.Mutex
	state              connState
	port               serial.Port
	reconnectBackoffMS int
	lastAttempt        time.Time
	consecutiveFails   int
	warnedPersistent   bool
}

// NewSerialTransport opens (or prepares to open) a serial device at the
// given baud rate. Opening is lazy on first Write if the initial open fails,
// so a disconnected cable at startup does not prevent the driver from
// running.
func NewSerialTransport(device string, baudRate int, backoff SerialBackoff, log *logging.Logger) *SerialTransport {
	t := &SerialTransport{
		device:             device,
		baudRate:           baudRate,
		backoff:            backoff,
		log:                log,
		reconnectBackoffMS: backoff.InitialMS,
	}
	t.tryConnect()
	return t
}

func (t *SerialTransport) tryConnect() bool {
	mode := &serial.Mode{BaudRate: t.baudRate}
	port, err := serial.Open(t.device, mode)
	if err != nil {
		t.log.Err().Err(err).Str("device", t.device).Log("serial: failed to open device")
		t.state = stateDisconnected
		t.port = nil
		return false
	}
	t.port = port
	t.state = stateConnected
	t.reconnectBackoffMS = t.backoff.InitialMS
	t.log.Info().Str("device", t.device).Log("serial: connected")
	return true
}

func (t *SerialTransport) shouldAttemptReconnect() bool {
	return time.Since(t.lastAttempt) >= time.Duration(t.reconnectBackoffMS)*time.Millisecond
}

func (t *SerialTransport) attemptReconnect() bool {
	if !t.shouldAttemptReconnect() {
		return false
	}
	t.lastAttempt = time.Now()
	t.state = stateConnecting
	ok := t.tryConnect()
	if !ok {
		t.reconnectBackoffMS *= 2
		if t.reconnectBackoffMS > t.backoff.MaxMS {
			t.reconnectBackoffMS = t.backoff.MaxMS
		}
		t.log.Warning().Int("backoff_ms", t.reconnectBackoffMS).Log("serial: reconnect failed, backing off")
	}
	return ok
}

// Write implements Transport. It is safe to call even while disconnected:
// it will attempt a backoff-gated reconnect first.
func (t *SerialTransport) Write(ctx context.Context, data []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != stateConnected {
		if !t.attemptReconnect() {
			t.countFailure()
			return fmt.Errorf("hardware: serial device %s unavailable", t.device)
		}
	}

	n, err := t.port.Write(data)
	if err != nil || n != len(data) {
		t.closeLocked()
		t.countFailure()
		if err == nil {
			err = fmt.Errorf("hardware: partial write: %d/%d bytes", n, len(data))
		}
		t.log.Err().Err(err).Log("serial: write failed")
		return err
	}

	if t.consecutiveFails > 0 {
		t.log.Info().Log("serial: communication recovered")
	}
	t.consecutiveFails = 0
	t.warnedPersistent = false
	return nil
}

func (t *SerialTransport) countFailure() {
	t.consecutiveFails++
	if t.consecutiveFails >= t.backoff.MaxConsecutiveFails && !t.warnedPersistent {
		t.warnedPersistent = true
		t.log.Warning().
			Int("consecutive_failures", t.consecutiveFails).
			Str("device", t.device).
			Log("serial: device unavailable after repeated failures, still retrying")
	}
}

func (t *SerialTransport) closeLocked() {
	if t.port != nil {
		_ = t.port.Close()
		t.port = nil
	}
	t.state = stateDisconnected
}

// Close implements Transport.
func (t *SerialTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.port == nil {
		return nil
	}
	err := t.port.Close()
	t.port = nil
	t.state = stateDisconnected
	return err
}

// Package logging wires the driver's structured logging onto
// github.com/joeycumines/logiface, backed by zerolog through
// github.com/joeycumines/izerolog - the same composition the teacher's own
// logiface-zerolog package demonstrates (izerolog.WithZerolog wrapping a
// configured zerolog.Logger).
package logging

import (
	"fmt"
	"io"
	"strings"

	"github.com/joeycumines/izerolog"
	"github.com/joeycumines/logiface"
	"github.com/rs/zerolog"
)

// Event and Logger alias the generic instantiation every component shares,
// so package signatures don't need to repeat the zerolog event type.
type (
	Event  = izerolog.Event
	Logger = logiface.Logger[*Event]
)

// ParseLevel maps the config file's log_level string onto a logiface.Level,
// defaulting to Informational for an empty string and erroring on anything
// unrecognized so a typo in config surfaces at startup, not silently.
func ParseLevel(s string) (logiface.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "INFO":
		return logiface.LevelInformational, nil
	case "DEBUG":
		return logiface.LevelDebug, nil
	case "WARNING", "WARN":
		return logiface.LevelWarning, nil
	case "ERROR":
		return logiface.LevelError, nil
	default:
		return logiface.LevelDisabled, fmt.Errorf("logging: unknown log_level %q", s)
	}
}

// New builds the root logger, writing NDJSON to w with the given minimum
// level, using a wall-clock timestamp on every event.
func New(w io.Writer, level logiface.Level) *Logger {
	zl := zerolog.New(w).With().Timestamp().Logger()
	return izerolog.L.New(
		izerolog.L.WithZerolog(zl),
		izerolog.L.WithLevel(level),
	)
}

// Component returns a child logger tagged with a "component" field, the
// convention every package in this driver uses to scope its log lines.
func Component(root *Logger, name string) *Logger {
	return root.Clone().Str("component", name).Logger()
}

// Package logging builds the project's zap.Logger so every event lands on
// disk as a single plain-text line, matching the documented format:
//
//	<ISO-8601 UTC> [LEVEL] <message>
//
// (§4.11, §6).
package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New opens (creating if needed) the log file at path and returns a logger
// that appends to it at DEBUG and above. When verbose is true, entries at
// INFO and above are also mirrored to stderr, for interactive CLI runs.
func New(path string, verbose bool) (*zap.Logger, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0640)
	if err != nil {
		return nil, fmt.Errorf("logging: open %s: %w", path, err)
	}

	enc := newPlainLineEncoder()
	fileCore := zapcore.NewCore(enc, zapcore.AddSync(f), zapcore.DebugLevel)

	core := zapcore.Core(fileCore)
	if verbose {
		stderrCore := zapcore.NewCore(enc, zapcore.AddSync(os.Stderr), zapcore.InfoLevel)
		core = zapcore.NewTee(fileCore, stderrCore)
	}

	return zap.New(core), nil
}

// Noop returns a logger that discards everything, for tests that don't
// care about log output.
func Noop() *zap.Logger {
	return zap.NewNop()
}

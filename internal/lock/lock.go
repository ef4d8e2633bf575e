// Package lock implements the named, non-blocking exclusive file locks
// that gate the monitor and rotate ticks (§4.2).
package lock

import (
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"
	"go.uber.org/zap"
)

// ErrHeld names the condition of a lock already held by another process.
// WithLock does not use or return it -- a held lock is logged at WARN and
// treated as a successful no-op tick (ConcurrentTick, §7), not an error.
var ErrHeld = fmt.Errorf("lock: already held")

// WithLock attempts a single non-blocking acquisition of "<dir>/<name>.lock"
// and runs fn while holding it. If the lock is already held elsewhere, fn is
// not run and WithLock returns nil after logging a warning -- an external
// timer firing while the previous tick is still executing must not queue
// (§4.2). The lock is released on every exit path, including panics
// recovered by the caller's own defer chain (flock.Unlock is called via
// defer here regardless of how fn returns).
func WithLock(log *zap.Logger, dir, name string, fn func() error) error {
	path := filepath.Join(dir, name+".lock")
	fl := flock.New(path)

	locked, err := fl.TryLock()
	if err != nil {
		return fmt.Errorf("lock: try-lock %s: %w", path, err)
	}
	if !locked {
		log.Warn("tick skipped: lock already held", zap.String("lock", name))
		return nil
	}
	defer fl.Unlock()

	return fn()
}

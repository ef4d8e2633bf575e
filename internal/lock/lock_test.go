package lock

import (
	"testing"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radin-mg/dnslb/internal/logging"
)

func TestWithLock_RunsFnWhenUnlocked(t *testing.T) {
	dir := t.TempDir()
	ran := false

	err := WithLock(logging.Noop(), dir, "monitor", func() error {
		ran = true
		return nil
	})

	require.NoError(t, err)
	assert.True(t, ran)
}

func TestWithLock_AlreadyHeldIsNotAnError(t *testing.T) {
	dir := t.TempDir()

	external := flock.New(dir + "/monitor.lock")
	locked, err := external.TryLock()
	require.NoError(t, err)
	require.True(t, locked)
	defer external.Unlock()

	ran := false
	err = WithLock(logging.Noop(), dir, "monitor", func() error {
		ran = true
		return nil
	})

	require.NoError(t, err, "a held lock must be treated as a successful no-op tick, not an error")
	assert.False(t, ran)
}

func TestWithLock_PropagatesFnError(t *testing.T) {
	dir := t.TempDir()
	err := WithLock(logging.Noop(), dir, "rotate", func() error {
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)
}

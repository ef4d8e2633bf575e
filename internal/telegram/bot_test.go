package telegram

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radin-mg/dnslb/internal/logging"
	"github.com/radin-mg/dnslb/internal/store"
)

func newTestBot(t *testing.T) *Bot {
	t.Helper()
	st, err := store.New(store.NewLayout(t.TempDir()))
	require.NoError(t, err)
	return &Bot{store: st, log: logging.Noop()}
}

func TestHandle_ActiveSessionContinues(t *testing.T) {
	b := newTestBot(t)
	require.NoError(t, b.store.SaveBotSession(store.BotSession{
		UserID:     1,
		Command:    "addconfig",
		Step:       "label",
		Values:     map[string]string{},
		LastActive: store.NowUTC(),
	}))

	reply, err := b.handle(context.Background(), 1, "my-label")
	require.NoError(t, err)
	assert.Contains(t, reply, "egress IP")
}

func TestHandle_ExpiredSessionIsClearedAndTreatedAsFreshCommand(t *testing.T) {
	b := newTestBot(t)
	stale := store.NowUTC().Add(-sessionTimeout - time.Minute)
	require.NoError(t, b.store.SaveBotSession(store.BotSession{
		UserID:     1,
		Command:    "addconfig",
		Step:       "label",
		Values:     map[string]string{},
		LastActive: stale,
	}))

	reply, err := b.handle(context.Background(), 1, "my-label")
	require.NoError(t, err)
	assert.Equal(t, "unrecognized command: my-label", reply)

	_, ok, err := b.store.LoadBotSession(1)
	require.NoError(t, err)
	assert.False(t, ok, "expired session must be cleared, not resumed")
}

func TestHandle_NoSessionDispatchesCommand(t *testing.T) {
	b := newTestBot(t)
	reply, err := b.handle(context.Background(), 1, "/list")
	require.NoError(t, err)
	assert.Equal(t, "no candidates configured", reply)
}

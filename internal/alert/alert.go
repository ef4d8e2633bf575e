// Package alert implements the Alerter (§4.7): cooldown-gated delivery of
// operator notifications.
package alert

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/radin-mg/dnslb/internal/store"
)

// Notifier delivers a single message to the operator's notification
// channel. The Telegram Bot component supplies the concrete
// implementation; Alerter itself is transport-agnostic.
type Notifier interface {
	Send(ctx context.Context, text string) error
}

// Alerter gates notification delivery behind a single global cooldown
// (§4.7, §9 Design Notes).
type Alerter struct {
	store    *store.Store
	notifier Notifier
	log      *zap.Logger
	cooldown time.Duration
}

// New builds an Alerter.
func New(st *store.Store, notifier Notifier, log *zap.Logger, cooldown time.Duration) *Alerter {
	return &Alerter{store: st, notifier: notifier, log: log, cooldown: cooldown}
}

// Alert delivers message if the cooldown window has elapsed since the
// last alert; otherwise drops it silently (logged at debug). now is the
// caller's tick timestamp. Delivery failure is swallowed: best-effort
// (§4.7).
func (a *Alerter) Alert(ctx context.Context, message string, now time.Time) error {
	lastEpoch, err := a.store.LoadLastAlertEpoch()
	if err != nil {
		return err
	}

	if lastEpoch != 0 {
		last := time.Unix(lastEpoch, 0).UTC()
		if now.Sub(last) < a.cooldown {
			a.log.Debug("alert suppressed by cooldown", zap.String("message", message))
			return nil
		}
	}

	if err := a.store.SaveLastAlertEpoch(now.Unix()); err != nil {
		return err
	}
	a.log.Warn("alert", zap.String("message", message))

	if a.notifier == nil {
		return nil
	}
	if err := a.notifier.Send(ctx, message); err != nil {
		a.log.Warn("alert delivery failed", zap.Error(err))
	}
	return nil
}

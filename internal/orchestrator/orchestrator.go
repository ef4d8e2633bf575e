// Package orchestrator wires the probe pipeline, health aggregation,
// selection, DNS reconciliation, and alerting into the two tick entry
// points and the administrative operations of the command surface (§4.8,
// §4.9). It performs the read-modify-write cycles for candidates, health,
// mode, the RR index, and tick timestamps. The DNS Reconciler persists the
// domains document and current-IP cache after a successful update, and the
// Alerter persists its own cooldown timestamp.
package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/radin-mg/dnslb/internal/alert"
	"github.com/radin-mg/dnslb/internal/dnsreconcile"
	"github.com/radin-mg/dnslb/internal/health"
	"github.com/radin-mg/dnslb/internal/lock"
	"github.com/radin-mg/dnslb/internal/probe"
	"github.com/radin-mg/dnslb/internal/selector"
	"github.com/radin-mg/dnslb/internal/store"
)

const (
	lockMonitor = "monitor"
	lockRotate  = "rotate"
)

// Intervals bundles the three interval guards of §4.8.
type Intervals struct {
	Monitor      time.Duration
	LB           time.Duration
	DNSMinUpdate time.Duration
}

// Orchestrator ties every component together.
type Orchestrator struct {
	Store      *store.Store
	Runner     *probe.Runner
	Reconciler *dnsreconcile.Reconciler
	Alerter    *alert.Alerter
	Log        *zap.Logger

	Thresholds health.Thresholds
	Intervals  Intervals
}

// MonitorOnce runs the monitor tick (§4.8): probe every enabled
// candidate, fold results into health, and -- in "best" mode -- reconcile
// every managed domain to the current best IP.
func (o *Orchestrator) MonitorOnce(ctx context.Context, now time.Time) error {
	last, err := o.Store.LoadLastMonitorEpoch()
	if err != nil {
		return err
	}
	if last != 0 && now.Sub(time.Unix(last, 0).UTC()) < o.Intervals.Monitor {
		o.Log.Debug("monitor tick skipped: within interval")
		return nil
	}

	return lock.WithLock(o.Log, o.Store.Layout.LockDir(), lockMonitor, func() error {
		return o.monitorOnceLocked(ctx, now)
	})
}

func (o *Orchestrator) monitorOnceLocked(ctx context.Context, now time.Time) error {
	candidates, err := o.Store.ListCandidates()
	if err != nil {
		return err
	}

	var enabled []store.CandidateConfig
	for _, c := range candidates {
		if c.Enabled {
			enabled = append(enabled, c)
		}
	}
	if len(enabled) == 0 {
		o.Log.Info("monitor tick: no enabled candidates")
		return o.Store.SaveLastMonitorEpoch(now.Unix())
	}

	results, err := o.probeAll(ctx, enabled)
	if err != nil {
		return err
	}

	current, err := o.Store.LoadHealth()
	if err != nil {
		return err
	}
	updated := health.Apply(current, results, now, o.Thresholds)
	if err := o.Store.SaveHealth(updated); err != nil {
		return err
	}

	mode, err := o.Store.LoadMode()
	if err != nil {
		return err
	}
	if mode != store.ModeBest {
		return o.Store.SaveLastMonitorEpoch(now.Unix())
	}

	best, ok := selector.Best(updated)
	if !ok {
		if err := o.Alerter.Alert(ctx, "best-IP unavailable: no healthy candidate with a latency sample", now); err != nil {
			o.Log.Warn("alert failed", zap.Error(err))
		}
		return o.Store.SaveLastMonitorEpoch(now.Unix())
	}

	if err := o.reconcileAllDomains(ctx, best, now); err != nil {
		o.Log.Warn("domain reconciliation error", zap.Error(err))
	}

	return o.Store.SaveLastMonitorEpoch(now.Unix())
}

// probeAll fans out probes across every enabled candidate, in parallel,
// bounded only by the candidate count (§4.8 step 2).
func (o *Orchestrator) probeAll(ctx context.Context, candidates []store.CandidateConfig) ([]probe.Result, error) {
	results := make([]probe.Result, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	for i, c := range candidates {
		i, c := i, c
		g.Go(func() error {
			results[i] = o.Runner.Probe(gctx, c)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// RotateOnce runs the rotate tick (§4.8): advance the round-robin cursor
// over healthy IPs and reconcile every managed domain.
func (o *Orchestrator) RotateOnce(ctx context.Context, now time.Time) error {
	last, err := o.Store.LoadLastRotateEpoch()
	if err != nil {
		return err
	}
	if last != 0 && now.Sub(time.Unix(last, 0).UTC()) < o.Intervals.LB {
		o.Log.Debug("rotate tick skipped: within interval")
		return nil
	}

	return lock.WithLock(o.Log, o.Store.Layout.LockDir(), lockRotate, func() error {
		return o.rotateOnceLocked(ctx, now)
	})
}

func (o *Orchestrator) rotateOnceLocked(ctx context.Context, now time.Time) error {
	h, err := o.Store.LoadHealth()
	if err != nil {
		return err
	}

	index, err := o.Store.LoadRRIndex()
	if err != nil {
		return err
	}

	ip, nextIndex, ok := selector.Rotate(h, index)
	if !ok {
		if err := o.Alerter.Alert(ctx, "no healthy IPs available for rotation", now); err != nil {
			o.Log.Warn("alert failed", zap.Error(err))
		}
		return o.Store.SaveLastRotateEpoch(now.Unix())
	}

	if err := o.Store.SaveRRIndex(nextIndex); err != nil {
		return err
	}

	if err := o.reconcileAllDomains(ctx, ip, now); err != nil {
		o.Log.Warn("domain reconciliation error", zap.Error(err))
	}

	return o.Store.SaveLastRotateEpoch(now.Unix())
}

// reconcileAllDomains applies ip to every managed domain via the DNS
// Reconciler. Per-domain errors are logged and do not stop processing of
// the remaining domains (§4.6).
func (o *Orchestrator) reconcileAllDomains(ctx context.Context, ip string, now time.Time) error {
	domains, err := o.Store.LoadDomains()
	if err != nil {
		return err
	}

	names := make([]string, 0, len(domains))
	for fqdn := range domains {
		names = append(names, fqdn)
	}
	sort.Strings(names)

	for _, fqdn := range names {
		outcome, err := o.Reconciler.UpdateRecord(ctx, domains, fqdn, ip, now)
		if err != nil {
			o.Log.Warn("dns reconcile failed", zap.String("domain", fqdn), zap.Error(err))
			continue
		}
		o.Log.Info("dns reconcile", zap.String("domain", fqdn), zap.String("outcome", string(outcome)), zap.String("ip", ip))
	}
	return nil
}

// --- Administrative operations (§4.9) --------------------------------

// AddConfig validates outboundJSON, assigns a new unique ID, and persists
// a new candidate config.
func (o *Orchestrator) AddConfig(label, ip string, outboundJSON json.RawMessage) (store.CandidateConfig, error) {
	if !json.Valid(outboundJSON) {
		return store.CandidateConfig{}, fmt.Errorf("orchestrator: outbound config is not valid JSON")
	}
	cfg := store.CandidateConfig{
		ID:         uuid.NewString(),
		Label:      label,
		IP:         ip,
		Enabled:    true,
		ConfigJSON: outboundJSON,
	}
	if err := o.Store.SaveCandidate(cfg); err != nil {
		return store.CandidateConfig{}, err
	}
	return cfg, nil
}

// RemoveConfig deletes a candidate config and its health record (§3
// invariant).
func (o *Orchestrator) RemoveConfig(id string) error {
	if err := o.Store.DeleteCandidate(id); err != nil {
		return err
	}
	return o.Store.DeleteHealthRecord(id)
}

// SetConfigEnabled toggles a candidate's enabled flag.
func (o *Orchestrator) SetConfigEnabled(id string, enabled bool) error {
	cfg, ok, err := o.Store.GetCandidate(id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("orchestrator: unknown candidate %s", id)
	}
	cfg.Enabled = enabled
	return o.Store.SaveCandidate(cfg)
}

// SetDomain finds the zone, ensures the A-record, and adds the domain to
// the managed set, idempotently (§4.9).
func (o *Orchestrator) SetDomain(ctx context.Context, fqdn string) error {
	domains, err := o.Store.LoadDomains()
	if err != nil {
		return err
	}
	if _, ok := domains[fqdn]; ok {
		return nil
	}

	zone, err := o.Reconciler.FindZone(ctx, fqdn)
	if err != nil {
		return err
	}
	recordID, err := o.Reconciler.EnsureRecord(ctx, zone, fqdn)
	if err != nil {
		return err
	}

	domains[fqdn] = store.DomainEntry{
		FQDN:     fqdn,
		ZoneID:   zone.ID,
		RecordID: recordID,
	}
	return o.Store.SaveDomains(domains)
}

// SetMode persists the process-wide selection policy.
func (o *Orchestrator) SetMode(mode store.Mode) error {
	if mode != store.ModeBest && mode != store.ModeRR {
		return fmt.Errorf("orchestrator: unknown mode %q", mode)
	}
	return o.Store.SaveMode(mode)
}

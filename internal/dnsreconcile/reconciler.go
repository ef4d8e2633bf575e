package dnsreconcile

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	cache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/radin-mg/dnslb/internal/store"
)

// zoneListTTL bounds how long a zone listing is trusted before FindZone
// re-queries the provider. Zones are created and renamed far less often
// than ticks run, so a short cache avoids a full zone listing on every
// monitor/rotate tick that touches a domain.
const zoneListTTL = 5 * time.Minute

// UpdateOutcome classifies the result of UpdateRecord (§4.6).
type UpdateOutcome string

const (
	OutcomeUpdated   UpdateOutcome = "updated"
	OutcomeUnchanged UpdateOutcome = "unchanged"
	OutcomeThrottled UpdateOutcome = "throttled"
)

// Reconciler is the DNS Reconciler component (§4.6). It owns no mutex of
// its own; the Orchestrator holds the relevant tick lock around calls that
// read-modify-write the domains document.
type Reconciler struct {
	client *Client
	store  *store.Store
	log    *zap.Logger
	zones  *cache.Cache

	minUpdateInterval time.Duration
	defaultTTL        int
}

const zoneListCacheKey = "zones"

// New builds a Reconciler.
func New(client *Client, st *store.Store, log *zap.Logger, minUpdateInterval time.Duration, defaultTTL int) *Reconciler {
	return &Reconciler{
		client:            client,
		store:             st,
		log:               log,
		zones:             cache.New(zoneListTTL, 2*zoneListTTL),
		minUpdateInterval: minUpdateInterval,
		defaultTTL:        defaultTTL,
	}
}

func (r *Reconciler) listZonesCached(ctx context.Context) ([]Zone, error) {
	if cached, ok := r.zones.Get(zoneListCacheKey); ok {
		return cached.([]Zone), nil
	}
	zones, err := r.client.listZones(ctx)
	if err != nil {
		return nil, err
	}
	r.zones.SetDefault(zoneListCacheKey, zones)
	return zones, nil
}

// FindZone chooses the zone whose name is the longest suffix of domain
// (§4.6). Ties -- equal-length suffixes -- are broken by lexical order of
// the zone name, resolving the Open Question in spec.md §9.
func (r *Reconciler) FindZone(ctx context.Context, domain string) (Zone, error) {
	zones, err := r.listZonesCached(ctx)
	if err != nil {
		return Zone{}, fmt.Errorf("dnsreconcile: find zone for %s: %w", domain, err)
	}

	var best Zone
	found := false
	for _, z := range zones {
		if !isSuffixZone(domain, z.Name) {
			continue
		}
		switch {
		case !found:
			best, found = z, true
		case len(z.Name) > len(best.Name):
			best = z
		case len(z.Name) == len(best.Name) && z.Name < best.Name:
			best = z
		}
	}
	if !found {
		return Zone{}, fmt.Errorf("dnsreconcile: no zone matches domain %s", domain)
	}
	return best, nil
}

func isSuffixZone(domain, zoneName string) bool {
	domain = strings.TrimSuffix(domain, ".")
	zoneName = strings.TrimSuffix(zoneName, ".")
	return domain == zoneName || strings.HasSuffix(domain, "."+zoneName)
}

// recordLeafName returns the record name relative to its zone, the way
// the provider's API expects it ("@" for the apex).
func recordLeafName(domain string, zone Zone) string {
	domain = strings.TrimSuffix(domain, ".")
	zoneName := strings.TrimSuffix(zone.Name, ".")
	if domain == zoneName {
		return "@"
	}
	return strings.TrimSuffix(strings.TrimSuffix(domain, zoneName), ".")
}

// EnsureRecord finds an existing A-record for domain under zone, or
// creates one with the placeholder value 0.0.0.0 and the configured TTL
// (§4.6). Returns the provider record ID.
func (r *Reconciler) EnsureRecord(ctx context.Context, zone Zone, domain string) (string, error) {
	leaf := recordLeafName(domain, zone)

	records, err := r.client.listRecords(ctx, zone.ID)
	if err != nil {
		return "", fmt.Errorf("dnsreconcile: ensure record for %s: %w", domain, err)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
	for _, rec := range records {
		if rec.Type == "A" && rec.Name == leaf {
			return rec.ID, nil
		}
	}

	created, err := r.client.createRecord(ctx, Record{
		ZoneID: zone.ID,
		Type:   "A",
		Name:   leaf,
		Value:  "0.0.0.0",
		TTL:    r.defaultTTL,
	})
	if err != nil {
		return "", fmt.Errorf("dnsreconcile: create record for %s: %w", domain, err)
	}
	r.log.Info("created placeholder A-record", zap.String("domain", domain), zap.String("record_id", created.ID))
	return created.ID, nil
}

// UpdateRecord applies ip to domain's A-record, subject to the throttle
// and change-suppression rules of §4.6. now is the caller's tick
// timestamp, so behavior is deterministic under test.
func (r *Reconciler) UpdateRecord(ctx context.Context, domains map[string]store.DomainEntry, domain, ip string, now time.Time) (UpdateOutcome, error) {
	entry, ok := domains[domain]
	if !ok {
		return "", fmt.Errorf("dnsreconcile: domain %s is not managed", domain)
	}

	if entry.LastUpdate != nil && now.Sub(*entry.LastUpdate) < r.minUpdateInterval {
		return OutcomeThrottled, nil
	}
	if entry.LastIP == ip {
		return OutcomeUnchanged, nil
	}

	if err := r.client.updateRecord(ctx, Record{
		ID:     entry.RecordID,
		ZoneID: entry.ZoneID,
		Type:   "A",
		Name:   domain,
		Value:  ip,
		TTL:    r.defaultTTL,
	}); err != nil {
		return "", fmt.Errorf("dnsreconcile: update record for %s: %w", domain, err)
	}

	entry.LastIP = ip
	t := now
	entry.LastUpdate = &t
	domains[domain] = entry

	if err := r.store.SaveDomains(domains); err != nil {
		return "", fmt.Errorf("dnsreconcile: persist domain %s after update: %w", domain, err)
	}
	if err := r.store.SaveCurrentIP(ip); err != nil {
		return "", fmt.Errorf("dnsreconcile: persist current IP cache: %w", err)
	}

	return OutcomeUpdated, nil
}

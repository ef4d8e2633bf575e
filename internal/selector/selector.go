// Package selector computes the target IP for a tick from a health
// snapshot, under the "best" or "rr" policy (§4.5). Both functions are
// pure over the snapshot they're given.
package selector

import (
	"sort"

	"github.com/radin-mg/dnslb/internal/store"
)

// orderedIDs returns health map keys in a stable, deterministic order --
// the map's natural iteration order is randomized by the Go runtime, so
// "insertion order" (§4.5's tie-break for Best) is approximated by sorting
// IDs, which is itself deterministic and documented here as the concrete
// tie-break.
func orderedIDs(health map[string]store.HealthRecord) []string {
	ids := make([]string, 0, len(health))
	for id := range health {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Best returns the IP of the healthy record with the minimum
// last_latency_ms. Ties are broken by the deterministic ID order from
// orderedIDs. Returns ok=false if no healthy record has a latency
// measurement (§4.5).
func Best(health map[string]store.HealthRecord) (ip string, ok bool) {
	bestLatency := -1
	for _, id := range orderedIDs(health) {
		rec := health[id]
		if !rec.Healthy || rec.LastLatencyMs == nil {
			continue
		}
		if bestLatency == -1 || *rec.LastLatencyMs < bestLatency {
			bestLatency = *rec.LastLatencyMs
			ip = rec.IP
			ok = true
		}
	}
	return ip, ok
}

// Rotate returns the sorted-unique list of healthy IPs, selects
// list[index mod len], and returns the next index. Returns ok=false if no
// healthy record exists (§4.5).
func Rotate(health map[string]store.HealthRecord, index int) (ip string, nextIndex int, ok bool) {
	ips := HealthyIPs(health)
	if len(ips) == 0 {
		return "", index, false
	}
	i := ((index % len(ips)) + len(ips)) % len(ips)
	return ips[i], (i + 1) % len(ips), true
}

// HealthyIPs returns the sorted, de-duplicated list of IPs belonging to
// healthy records.
func HealthyIPs(health map[string]store.HealthRecord) []string {
	seen := make(map[string]struct{})
	var ips []string
	for _, rec := range health {
		if !rec.Healthy || rec.IP == "" {
			continue
		}
		if _, ok := seen[rec.IP]; ok {
			continue
		}
		seen[rec.IP] = struct{}{}
		ips = append(ips, rec.IP)
	}
	sort.Strings(ips)
	return ips
}

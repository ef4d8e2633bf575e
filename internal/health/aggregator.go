// Package health implements the streak-based hysteresis state machine
// that folds probe results into persistent health records (§4.4).
package health

import (
	"time"

	"github.com/radin-mg/dnslb/internal/probe"
	"github.com/radin-mg/dnslb/internal/store"
)

// Thresholds controls the success/fail streak lengths required to flip
// the UP/DOWN state (§3, §4.4).
type Thresholds struct {
	Success int
	Fail    int
}

// Apply folds a batch of probe results, stamped with tickTime, into the
// current health map and returns the updated map. Skip results are
// ignored (disabled candidates never reach the Aggregator, §4.3 edge
// case). The input map is not mutated; Apply returns a new map containing
// every updated and every untouched record.
func Apply(current map[string]store.HealthRecord, results []probe.Result, tickTime time.Time, th Thresholds) map[string]store.HealthRecord {
	out := make(map[string]store.HealthRecord, len(current))
	for id, rec := range current {
		out[id] = rec
	}

	for _, res := range results {
		if res.Skip {
			continue
		}
		rec := out[res.ID] // zero value: DOWN, both streaks zero (§4.4)
		rec.Label = res.Label
		rec.IP = res.IP
		rec.LastChecked = tickTime

		if res.Success {
			rec.LastLatencyMs = res.LatencyMs
			t := tickTime
			rec.LastOK = &t
			rec.LastError = ""
			rec.FailStreak = 0
			rec.OKStreak++
			// Up-transition is sticky within the success path: once
			// healthy, it stays healthy as long as we're taking the
			// success branch at all, and also flips healthy on
			// reaching the success streak. Down can only be cleared
			// by the failure branch reaching the fail threshold
			// (Design Notes, §9 -- preserved verbatim, not "fixed").
			if rec.Healthy || rec.OKStreak >= th.Success {
				rec.Healthy = true
			}
		} else {
			rec.LastLatencyMs = nil
			rec.LastError = res.Error
			rec.OKStreak = 0
			rec.FailStreak++
			if rec.FailStreak >= th.Fail {
				rec.Healthy = false
			}
		}

		out[res.ID] = rec
	}

	return out
}

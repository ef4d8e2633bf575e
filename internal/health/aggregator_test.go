package health

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radin-mg/dnslb/internal/probe"
	"github.com/radin-mg/dnslb/internal/store"
)

func latency(ms int) *int { return &ms }

func TestApply_NewCandidateRequiresFullSuccessStreak(t *testing.T) {
	th := Thresholds{Success: 2, Fail: 3}
	now := time.Now().UTC()

	results := []probe.Result{{ID: "a", Label: "alpha", IP: "1.1.1.1", Success: true, LatencyMs: latency(50)}}
	h := Apply(map[string]store.HealthRecord{}, results, now, th)

	require.Contains(t, h, "a")
	assert.False(t, h["a"].Healthy, "first success alone must not mark healthy below the success threshold")
	assert.Equal(t, 1, h["a"].OKStreak)

	h = Apply(h, results, now.Add(time.Second), th)
	assert.True(t, h["a"].Healthy, "reaching the success streak threshold marks healthy")
	assert.Equal(t, 2, h["a"].OKStreak)
}

func TestApply_StickyUpTransitionWithinSuccessPath(t *testing.T) {
	// Once healthy, a lone success keeps it healthy even though the streak
	// was just reset by an intervening failure -- this is the documented,
	// intentional asymmetry of the hysteresis state machine.
	th := Thresholds{Success: 3, Fail: 2}
	now := time.Now().UTC()

	h := map[string]store.HealthRecord{
		"a": {Healthy: true, OKStreak: 0, FailStreak: 1},
	}
	results := []probe.Result{{ID: "a", Label: "alpha", IP: "1.1.1.1", Success: true, LatencyMs: latency(10)}}

	h = Apply(h, results, now, th)
	assert.True(t, h["a"].Healthy)
	assert.Equal(t, 1, h["a"].OKStreak)
	assert.Equal(t, 0, h["a"].FailStreak)
}

func TestApply_FailStreakFlipsDown(t *testing.T) {
	th := Thresholds{Success: 2, Fail: 2}
	now := time.Now().UTC()

	h := map[string]store.HealthRecord{
		"a": {Healthy: true, OKStreak: 5},
	}
	results := []probe.Result{{ID: "a", Label: "alpha", IP: "1.1.1.1", Success: false, Error: "timeout"}}

	h = Apply(h, results, now, th)
	assert.True(t, h["a"].Healthy, "one failure below the fail threshold must not flip down")
	assert.Equal(t, 1, h["a"].FailStreak)

	h = Apply(h, results, now.Add(time.Second), th)
	assert.False(t, h["a"].Healthy)
	assert.Equal(t, 2, h["a"].FailStreak)
	assert.Nil(t, h["a"].LastLatencyMs)
	assert.Equal(t, "timeout", h["a"].LastError)
}

func TestApply_SkipResultsAreIgnored(t *testing.T) {
	th := Thresholds{Success: 1, Fail: 1}
	now := time.Now().UTC()

	current := map[string]store.HealthRecord{"a": {Healthy: true}}
	results := []probe.Result{{ID: "a", Skip: true}}

	h := Apply(current, results, now, th)
	assert.Equal(t, current["a"], h["a"])
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	th := Thresholds{Success: 1, Fail: 1}
	now := time.Now().UTC()

	current := map[string]store.HealthRecord{"a": {Healthy: false}}
	results := []probe.Result{{ID: "a", Label: "alpha", IP: "1.1.1.1", Success: true, LatencyMs: latency(5)}}

	_ = Apply(current, results, now, th)
	assert.False(t, current["a"].Healthy, "Apply must not mutate its input map")
}

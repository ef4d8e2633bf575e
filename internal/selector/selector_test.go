package selector

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/radin-mg/dnslb/internal/store"
)

func ms(v int) *int { return &v }

func TestBest_PicksLowestLatency(t *testing.T) {
	h := map[string]store.HealthRecord{
		"a": {Healthy: true, IP: "1.1.1.1", LastLatencyMs: ms(120)},
		"b": {Healthy: true, IP: "2.2.2.2", LastLatencyMs: ms(40)},
		"c": {Healthy: false, IP: "3.3.3.3", LastLatencyMs: ms(1)},
	}
	ip, ok := Best(h)
	assert.True(t, ok)
	assert.Equal(t, "2.2.2.2", ip)
}

func TestBest_TieBrokenDeterministically(t *testing.T) {
	h := map[string]store.HealthRecord{
		"b": {Healthy: true, IP: "2.2.2.2", LastLatencyMs: ms(80)},
		"a": {Healthy: true, IP: "1.1.1.1", LastLatencyMs: ms(80)},
	}
	ip1, ok1 := Best(h)
	ip2, ok2 := Best(h)
	assert.True(t, ok1)
	assert.True(t, ok2)
	assert.Equal(t, ip1, ip2, "Best must be deterministic across repeated calls on the same snapshot")
}

func TestBest_NoHealthyReturnsFalse(t *testing.T) {
	h := map[string]store.HealthRecord{
		"a": {Healthy: false, IP: "1.1.1.1", LastLatencyMs: ms(10)},
	}
	_, ok := Best(h)
	assert.False(t, ok)
}

func TestBest_HealthyWithoutLatencySampleIsIgnored(t *testing.T) {
	h := map[string]store.HealthRecord{
		"a": {Healthy: true, IP: "1.1.1.1"},
	}
	_, ok := Best(h)
	assert.False(t, ok)
}

func TestRotate_AdvancesThroughSortedUniqueIPs(t *testing.T) {
	h := map[string]store.HealthRecord{
		"a": {Healthy: true, IP: "3.3.3.3"},
		"b": {Healthy: true, IP: "1.1.1.1"},
		"c": {Healthy: true, IP: "2.2.2.2"},
	}

	ip, next, ok := Rotate(h, 0)
	assert.True(t, ok)
	assert.Equal(t, "1.1.1.1", ip)
	assert.Equal(t, 1, next)

	ip, next, ok = Rotate(h, next)
	assert.True(t, ok)
	assert.Equal(t, "2.2.2.2", ip)
	assert.Equal(t, 2, next)

	ip, next, ok = Rotate(h, next)
	assert.True(t, ok)
	assert.Equal(t, "3.3.3.3", ip)
	assert.Equal(t, 0, next, "index wraps around after the last IP")
}

func TestRotate_DuplicateIPsCollapsed(t *testing.T) {
	h := map[string]store.HealthRecord{
		"a": {Healthy: true, IP: "1.1.1.1"},
		"b": {Healthy: true, IP: "1.1.1.1"},
	}
	assert.Len(t, HealthyIPs(h), 1)
}

func TestRotate_NoHealthyReturnsFalse(t *testing.T) {
	_, _, ok := Rotate(map[string]store.HealthRecord{}, 3)
	assert.False(t, ok)
}

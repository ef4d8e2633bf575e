package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(NewLayout(t.TempDir()))
	require.NoError(t, err)
	return s
}

func TestCandidateRoundTrip(t *testing.T) {
	s := newTestStore(t)

	cfg := CandidateConfig{ID: "c1", Label: "alpha", IP: "1.2.3.4", Enabled: true, ConfigJSON: []byte(`{"x":1}`)}
	require.NoError(t, s.SaveCandidate(cfg))

	got, ok, err := s.GetCandidate("c1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, cfg.Label, got.Label)
	assert.Equal(t, cfg.IP, got.IP)
	assert.JSONEq(t, `{"x":1}`, string(got.ConfigJSON))
}

func TestGetCandidate_MissingIsNotError(t *testing.T) {
	s := newTestStore(t)
	_, ok, err := s.GetCandidate("nope")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDeleteCandidate_IdempotentOnMissing(t *testing.T) {
	s := newTestStore(t)
	assert.NoError(t, s.DeleteCandidate("nope"))
}

func TestListCandidates_SortedByID(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.SaveCandidate(CandidateConfig{ID: "b", Label: "b"}))
	require.NoError(t, s.SaveCandidate(CandidateConfig{ID: "a", Label: "a"}))

	list, err := s.ListCandidates()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].ID)
	assert.Equal(t, "b", list[1].ID)
}

func TestDeleteHealthRecord_RemovesOnlyThatEntry(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.SaveHealth(map[string]HealthRecord{
		"a": {Healthy: true},
		"b": {Healthy: false},
	}))

	require.NoError(t, s.DeleteHealthRecord("a"))

	h, err := s.LoadHealth()
	require.NoError(t, err)
	_, stillThere := h["a"]
	assert.False(t, stillThere)
	_, untouched := h["b"]
	assert.True(t, untouched)
}

func TestLoadMode_DefaultsToBest(t *testing.T) {
	s := newTestStore(t)
	m, err := s.LoadMode()
	require.NoError(t, err)
	assert.Equal(t, ModeBest, m)
}

func TestLoadMode_RejectsCorruptValue(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, writeAtomicText(s.Layout.ModeFile(), "garbage"))

	m, err := s.LoadMode()
	require.NoError(t, err)
	assert.Equal(t, ModeBest, m)
}

func TestRRIndexRoundTrip(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.SaveRRIndex(7))

	v, err := s.LoadRRIndex()
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestLoadRRIndex_DefaultsToZero(t *testing.T) {
	s := newTestStore(t)
	v, err := s.LoadRRIndex()
	require.NoError(t, err)
	assert.Equal(t, 0, v)
}

func TestBotSessionRoundTripAndClear(t *testing.T) {
	s := newTestStore(t)
	sess := BotSession{UserID: 42, Command: "addconfig", Step: "label", Values: map[string]string{"k": "v"}, LastActive: time.Now().UTC()}
	require.NoError(t, s.SaveBotSession(sess))

	got, ok, err := s.LoadBotSession(42)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "label", got.Step)

	require.NoError(t, s.ClearBotSession(42))
	_, ok, err = s.LoadBotSession(42)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDomainsRoundTrip(t *testing.T) {
	s := newTestStore(t)
	entries := map[string]DomainEntry{
		"example.com": {FQDN: "example.com", ZoneID: "z1", RecordID: "r1"},
	}
	require.NoError(t, s.SaveDomains(entries))

	got, err := s.LoadDomains()
	require.NoError(t, err)
	assert.Equal(t, entries["example.com"].ZoneID, got["example.com"].ZoneID)
}

package dnsreconcile

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radin-mg/dnslb/internal/logging"
	"github.com/radin-mg/dnslb/internal/store"
)

func newTestReconciler(t *testing.T, handler http.HandlerFunc) (*Reconciler, *store.Store) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	st, err := store.New(store.NewLayout(t.TempDir()))
	require.NoError(t, err)

	client := NewClient(srv.URL, "test-token", 1, 5*time.Second, logging.Noop())
	return New(client, st, logging.Noop(), 10*time.Second, 60), st
}

func TestFindZone_LongestSuffixWins(t *testing.T) {
	r, _ := newTestReconciler(t, func(w http.ResponseWriter, req *http.Request) {
		require.Equal(t, "Bearer test-token", req.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(zonesResponse{Zones: []Zone{
			{ID: "1", Name: "com"},
			{ID: "2", Name: "example.com"},
		}})
	})

	z, err := r.FindZone(context.Background(), "www.example.com")
	require.NoError(t, err)
	assert.Equal(t, "example.com", z.Name)
}

func TestFindZone_DuplicateNameIsDeterministic(t *testing.T) {
	// The provider's pagination can list the same zone name twice; both
	// are equal-length suffixes of the queried domain, and the tie-break
	// by lexical name order can't distinguish them, so FindZone must still
	// settle on the same one every time rather than flip-flopping.
	r, _ := newTestReconciler(t, func(w http.ResponseWriter, req *http.Request) {
		json.NewEncoder(w).Encode(zonesResponse{Zones: []Zone{
			{ID: "1", Name: "example.com"},
			{ID: "2", Name: "example.com"},
		}})
	})

	first, err := r.FindZone(context.Background(), "example.com")
	require.NoError(t, err)
	second, err := r.FindZone(context.Background(), "example.com")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestClient_RequestIsBoundedByTotalTimeout(t *testing.T) {
	blocked := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		<-req.Context().Done()
		close(blocked)
	}))
	t.Cleanup(srv.Close)

	client := NewClient(srv.URL, "test-token", 0, 50*time.Millisecond, logging.Noop())

	start := time.Now()
	_, err := client.listZones(context.Background())
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second, "call must be bounded by DNSAPITimeout, not hang")

	select {
	case <-blocked:
	case <-time.After(2 * time.Second):
		t.Fatal("server never observed request cancellation")
	}
}

func TestFindZone_NoMatchIsError(t *testing.T) {
	r, _ := newTestReconciler(t, func(w http.ResponseWriter, req *http.Request) {
		json.NewEncoder(w).Encode(zonesResponse{Zones: []Zone{{ID: "1", Name: "other.com"}}})
	})

	_, err := r.FindZone(context.Background(), "example.com")
	assert.Error(t, err)
}

func TestEnsureRecord_CreatesPlaceholderWhenAbsent(t *testing.T) {
	var createdBody Record
	r, _ := newTestReconciler(t, func(w http.ResponseWriter, req *http.Request) {
		switch {
		case req.Method == http.MethodGet:
			json.NewEncoder(w).Encode(recordsResponse{})
		case req.Method == http.MethodPost:
			require.NoError(t, json.NewDecoder(req.Body).Decode(&createdBody))
			createdBody.ID = "new-record"
			json.NewEncoder(w).Encode(recordEnvelope{Record: createdBody})
		}
	})

	id, err := r.EnsureRecord(context.Background(), Zone{ID: "z1", Name: "example.com"}, "api.example.com")
	require.NoError(t, err)
	assert.Equal(t, "new-record", id)
	assert.Equal(t, "0.0.0.0", createdBody.Value)
	assert.Equal(t, 60, createdBody.TTL)
}

func TestEnsureRecord_ReturnsExistingID(t *testing.T) {
	r, _ := newTestReconciler(t, func(w http.ResponseWriter, req *http.Request) {
		if req.Method == http.MethodGet {
			json.NewEncoder(w).Encode(recordsResponse{Records: []Record{
				{ID: "existing", Type: "A", Name: "api"},
			}})
		}
	})

	id, err := r.EnsureRecord(context.Background(), Zone{ID: "z1", Name: "example.com"}, "api.example.com")
	require.NoError(t, err)
	assert.Equal(t, "existing", id)
}

func TestUpdateRecord_Throttled(t *testing.T) {
	r, _ := newTestReconciler(t, func(w http.ResponseWriter, req *http.Request) {
		t.Fatal("no HTTP call expected when throttled")
	})

	now := time.Now().UTC()
	last := now.Add(-1 * time.Second)
	domains := map[string]store.DomainEntry{
		"example.com": {FQDN: "example.com", LastIP: "9.9.9.9", LastUpdate: &last},
	}

	outcome, err := r.UpdateRecord(context.Background(), domains, "example.com", "1.1.1.1", now)
	require.NoError(t, err)
	assert.Equal(t, OutcomeThrottled, outcome)
}

func TestUpdateRecord_Unchanged(t *testing.T) {
	r, _ := newTestReconciler(t, func(w http.ResponseWriter, req *http.Request) {
		t.Fatal("no HTTP call expected when unchanged")
	})

	now := time.Now().UTC()
	domains := map[string]store.DomainEntry{
		"example.com": {FQDN: "example.com", LastIP: "1.1.1.1"},
	}

	outcome, err := r.UpdateRecord(context.Background(), domains, "example.com", "1.1.1.1", now)
	require.NoError(t, err)
	assert.Equal(t, OutcomeUnchanged, outcome)
}

func TestUpdateRecord_UpdatesAndPersists(t *testing.T) {
	var putCalled bool
	r, st := newTestReconciler(t, func(w http.ResponseWriter, req *http.Request) {
		putCalled = true
		assert.Equal(t, http.MethodPut, req.Method)
		w.WriteHeader(http.StatusOK)
	})

	now := time.Now().UTC()
	domains := map[string]store.DomainEntry{
		"example.com": {FQDN: "example.com", ZoneID: "z1", RecordID: "r1"},
	}

	outcome, err := r.UpdateRecord(context.Background(), domains, "example.com", "5.5.5.5", now)
	require.NoError(t, err)
	assert.Equal(t, OutcomeUpdated, outcome)
	assert.True(t, putCalled)

	persisted, err := st.LoadDomains()
	require.NoError(t, err)
	assert.Equal(t, "5.5.5.5", persisted["example.com"].LastIP)

	currentIP, err := st.LoadCurrentIP()
	require.NoError(t, err)
	assert.Equal(t, "5.5.5.5", currentIP)
}

func TestUpdateRecord_UnmanagedDomainIsError(t *testing.T) {
	r, _ := newTestReconciler(t, func(w http.ResponseWriter, req *http.Request) {
		t.Fatal("no HTTP call expected")
	})

	_, err := r.UpdateRecord(context.Background(), map[string]store.DomainEntry{}, "unmanaged.com", "1.1.1.1", time.Now())
	assert.Error(t, err)
}

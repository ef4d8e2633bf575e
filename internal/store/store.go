// Package store provides the durable JSON document layer for dnslb:
// one file per CandidateConfig, and single documents for health, domains,
// mode, RR index, alert cooldown, tick timestamps, and the current-IP
// cache. Every write is atomic (temp file + rename, §4.1); reads of a
// missing file yield the documented default rather than an error.
package store

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Store is the sole owner of on-disk state. Callers that need
// read-modify-write semantics (the Orchestrator) must hold the
// appropriate named lock (internal/lock) around the read and the write.
type Store struct {
	Layout Layout
}

// New creates a Store rooted at layout, ensuring its directories exist.
func New(layout Layout) (*Store, error) {
	if err := layout.EnsureDirs(); err != nil {
		return nil, fmt.Errorf("store: ensure dirs: %w", err)
	}
	return &Store{Layout: layout}, nil
}

// --- Candidate configs: one file per ID ---------------------------------

// ListCandidates returns every candidate config, sorted by ID for a
// deterministic iteration order.
func (s *Store) ListCandidates() ([]CandidateConfig, error) {
	entries, err := os.ReadDir(s.Layout.ConfigsDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("store: read configs dir: %w", err)
	}

	var out []CandidateConfig
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		id := strings.TrimSuffix(e.Name(), ".json")
		cfg, ok, err := s.GetCandidate(id)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, cfg)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// GetCandidate reads a single candidate config by ID.
func (s *Store) GetCandidate(id string) (CandidateConfig, bool, error) {
	var cfg CandidateConfig
	exists, err := readJSON(s.Layout.CandidateFile(id), &cfg)
	if err != nil {
		return CandidateConfig{}, false, err
	}
	return cfg, exists, nil
}

// SaveCandidate writes (or overwrites) one candidate config.
func (s *Store) SaveCandidate(cfg CandidateConfig) error {
	if cfg.ID == "" {
		return fmt.Errorf("store: candidate has no ID")
	}
	return writeAtomicJSON(s.Layout.CandidateFile(cfg.ID), cfg)
}

// DeleteCandidate removes a candidate config file. Missing files are not
// an error (idempotent removal).
func (s *Store) DeleteCandidate(id string) error {
	err := os.Remove(s.Layout.CandidateFile(id))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("store: delete candidate %s: %w", id, err)
	}
	return nil
}

// --- Health: single document, keyed by candidate ID ---------------------

// LoadHealth returns the full health map, or an empty map if absent.
func (s *Store) LoadHealth() (map[string]HealthRecord, error) {
	m := make(map[string]HealthRecord)
	if _, err := readJSON(s.Layout.HealthFile(), &m); err != nil {
		return nil, err
	}
	return m, nil
}

// SaveHealth persists the full health map.
func (s *Store) SaveHealth(h map[string]HealthRecord) error {
	return writeAtomicJSON(s.Layout.HealthFile(), h)
}

// DeleteHealthRecord removes one candidate's health entry, e.g. when its
// CandidateConfig is removed (§3 invariant).
func (s *Store) DeleteHealthRecord(id string) error {
	h, err := s.LoadHealth()
	if err != nil {
		return err
	}
	if _, ok := h[id]; !ok {
		return nil
	}
	delete(h, id)
	return s.SaveHealth(h)
}

// --- Domains: single document, keyed by FQDN -----------------------------

// LoadDomains returns every managed domain, or an empty map if absent.
func (s *Store) LoadDomains() (map[string]DomainEntry, error) {
	m := make(map[string]DomainEntry)
	if _, err := readJSON(s.Layout.DomainsFile(), &m); err != nil {
		return nil, err
	}
	return m, nil
}

// SaveDomains persists the full domains map.
func (s *Store) SaveDomains(d map[string]DomainEntry) error {
	return writeAtomicJSON(s.Layout.DomainsFile(), d)
}

// --- Scalars --------------------------------------------------------------

// LoadMode returns the persisted mode, defaulting to "best" when absent.
func (s *Store) LoadMode() (Mode, error) {
	text, err := readText(s.Layout.ModeFile(), string(ModeBest))
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text != string(ModeBest) && text != string(ModeRR) {
		text = string(ModeBest)
	}
	return Mode(text), nil
}

// SaveMode persists the process-wide selection policy.
func (s *Store) SaveMode(m Mode) error {
	return writeAtomicText(s.Layout.ModeFile(), string(m))
}

// LoadRRIndex returns the persisted round-robin index, defaulting to 0.
func (s *Store) LoadRRIndex() (int, error) {
	text, err := readText(s.Layout.RRIndexFile(), "0")
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0, nil
	}
	return v, nil
}

// SaveRRIndex persists the round-robin index.
func (s *Store) SaveRRIndex(v int) error {
	return writeAtomicText(s.Layout.RRIndexFile(), strconv.Itoa(v))
}

// LoadLastAlertEpoch returns the last alert epoch, defaulting to 0.
func (s *Store) LoadLastAlertEpoch() (int64, error) {
	return s.loadEpoch(s.Layout.LastAlertFile())
}

// SaveLastAlertEpoch persists the last alert epoch.
func (s *Store) SaveLastAlertEpoch(epoch int64) error {
	return s.saveEpoch(s.Layout.LastAlertFile(), epoch)
}

// LoadLastMonitorEpoch returns the last monitor-tick epoch, defaulting to 0.
func (s *Store) LoadLastMonitorEpoch() (int64, error) {
	return s.loadEpoch(s.Layout.LastMonitorFile())
}

// SaveLastMonitorEpoch persists the last monitor-tick epoch.
func (s *Store) SaveLastMonitorEpoch(epoch int64) error {
	return s.saveEpoch(s.Layout.LastMonitorFile(), epoch)
}

// LoadLastRotateEpoch returns the last rotate-tick epoch, defaulting to 0.
func (s *Store) LoadLastRotateEpoch() (int64, error) {
	return s.loadEpoch(s.Layout.LastRotateFile())
}

// SaveLastRotateEpoch persists the last rotate-tick epoch.
func (s *Store) SaveLastRotateEpoch(epoch int64) error {
	return s.saveEpoch(s.Layout.LastRotateFile(), epoch)
}

// LoadCurrentIP returns the cached current IP, or "" if never written.
func (s *Store) LoadCurrentIP() (string, error) {
	return readText(s.Layout.CurrentIPFile(), "")
}

// SaveCurrentIP persists the cached current IP.
func (s *Store) SaveCurrentIP(ip string) error {
	return writeAtomicText(s.Layout.CurrentIPFile(), ip)
}

// LoadBotOffset returns the last-processed Telegram update ID, or 0.
func (s *Store) LoadBotOffset() (int, error) {
	text, err := readText(s.Layout.BotOffsetFile(), "0")
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0, nil
	}
	return v, nil
}

// SaveBotOffset persists the last-processed Telegram update ID.
func (s *Store) SaveBotOffset(offset int) error {
	return writeAtomicText(s.Layout.BotOffsetFile(), strconv.Itoa(offset))
}

// LoadBotSession returns a user's in-progress conversation state, if any.
func (s *Store) LoadBotSession(userID int64) (BotSession, bool, error) {
	var sess BotSession
	exists, err := readJSON(s.Layout.BotSessionFile(userID), &sess)
	if err != nil {
		return BotSession{}, false, err
	}
	return sess, exists, nil
}

// SaveBotSession persists a user's in-progress conversation state.
func (s *Store) SaveBotSession(sess BotSession) error {
	return writeAtomicJSON(s.Layout.BotSessionFile(sess.UserID), sess)
}

// ClearBotSession removes a user's conversation state.
func (s *Store) ClearBotSession(userID int64) error {
	err := os.Remove(s.Layout.BotSessionFile(userID))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("store: clear bot session: %w", err)
	}
	return nil
}

func (s *Store) loadEpoch(path string) (int64, error) {
	text, err := readText(path, "0")
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil {
		return 0, nil
	}
	return v, nil
}

func (s *Store) saveEpoch(path string, epoch int64) error {
	return writeAtomicText(path, strconv.FormatInt(epoch, 10))
}

// NowUTC is the single clock entry point so tick timestamps are
// consistently UTC-stamped across every component (§3, §6).
func NowUTC() time.Time {
	return time.Now().UTC()
}

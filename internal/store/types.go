package store

import (
	"encoding/json"
	"time"
)

// CandidateConfig represents one proxy choice under probe (§3).
type CandidateConfig struct {
	ID          string          `json:"id"`
	Label       string          `json:"label"`
	IP          string          `json:"ip"`
	Enabled     bool            `json:"enabled"`
	ConfigJSON  json.RawMessage `json:"config_json"`
}

// HealthRecord is the per-candidate rolling health entry (§3).
type HealthRecord struct {
	Label         string     `json:"label"`
	IP            string     `json:"ip"`
	Healthy       bool       `json:"healthy"`
	LastLatencyMs *int       `json:"last_latency_ms,omitempty"`
	LastError     string     `json:"last_error,omitempty"`
	LastOK        *time.Time `json:"last_ok,omitempty"`
	LastChecked   time.Time  `json:"last_checked"`
	OKStreak      int        `json:"ok_streak"`
	FailStreak    int        `json:"fail_streak"`
}

// DomainEntry is one managed A-record (§3).
type DomainEntry struct {
	FQDN       string     `json:"fqdn"`
	ZoneID     string     `json:"zone_id"`
	RecordID   string     `json:"record_id"`
	LastIP     string     `json:"last_ip,omitempty"`
	LastUpdate *time.Time `json:"last_update,omitempty"`
}

// Mode is the process-wide selection policy (§3).
type Mode string

const (
	ModeBest Mode = "best"
	ModeRR   Mode = "rr"
)

// BotSession tracks an in-progress multi-step Telegram conversation.
type BotSession struct {
	UserID     int64             `json:"user_id"`
	Command    string            `json:"command"`
	Step       string            `json:"step"`
	Values     map[string]string `json:"values"`
	LastActive time.Time         `json:"last_active"`
}

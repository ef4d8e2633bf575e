package store

import (
	"os"
	"path/filepath"
	"strconv"
)

// Layout mirrors the filesystem layout documented in §6: a single
// operator-configurable base directory containing env, state/, configs/,
// templates/, and logs/.
type Layout struct {
	Base string
}

// NewLayout roots a Layout at base, defaulting to $DNSLB_HOME or ./dnslb-data
// when base is empty.
func NewLayout(base string) Layout {
	if base == "" {
		if env := os.Getenv("DNSLB_HOME"); env != "" {
			base = env
		} else {
			base = "./dnslb-data"
		}
	}
	return Layout{Base: base}
}

func (l Layout) EnvFile() string       { return filepath.Join(l.Base, "env") }
func (l Layout) StateDir() string      { return filepath.Join(l.Base, "state") }
func (l Layout) ConfigsDir() string    { return filepath.Join(l.Base, "configs") }
func (l Layout) TemplatesDir() string  { return filepath.Join(l.Base, "templates") }
func (l Layout) LogsDir() string       { return filepath.Join(l.Base, "logs") }
func (l Layout) LockDir() string       { return l.StateDir() }

func (l Layout) HealthFile() string       { return filepath.Join(l.StateDir(), "health.json") }
func (l Layout) DomainsFile() string      { return filepath.Join(l.StateDir(), "domains.json") }
func (l Layout) ModeFile() string         { return filepath.Join(l.StateDir(), "mode") }
func (l Layout) RRIndexFile() string      { return filepath.Join(l.StateDir(), "rr_index") }
func (l Layout) LastAlertFile() string    { return filepath.Join(l.StateDir(), "last_alert") }
func (l Layout) CurrentIPFile() string    { return filepath.Join(l.StateDir(), "current_ip") }
func (l Layout) LastMonitorFile() string  { return filepath.Join(l.StateDir(), "last_monitor") }
func (l Layout) LastRotateFile() string   { return filepath.Join(l.StateDir(), "last_rotate") }
func (l Layout) BotOffsetFile() string    { return filepath.Join(l.StateDir(), "bot_offset") }
func (l Layout) SocksTemplateFile() string {
	return filepath.Join(l.TemplatesDir(), "socks-template.json")
}

func (l Layout) BotSessionFile(userID int64) string {
	return filepath.Join(l.StateDir(), "bot_session_"+strconv.FormatInt(userID, 10))
}

func (l Layout) CandidateFile(id string) string {
	return filepath.Join(l.ConfigsDir(), id+".json")
}

func (l Layout) MainLogFile() string {
	return filepath.Join(l.LogsDir(), "dnslb.log")
}

// EnsureDirs creates every directory this layout references.
func (l Layout) EnsureDirs() error {
	for _, dir := range []string{l.StateDir(), l.ConfigsDir(), l.TemplatesDir(), l.LogsDir()} {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return err
		}
	}
	return nil
}

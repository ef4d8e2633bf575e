package envcfg

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// EnvFileName is the filename of the operator-supplied env document (§6).
const EnvFileName = "env"

// LoadFromBase reads "<baseDir>/env" into the process environment (if
// present) and then builds a Config from the resulting environment.
// A missing env file is not an error: the process environment and the
// documented defaults still apply.
func LoadFromBase(baseDir string) (*Config, error) {
	path := filepath.Join(baseDir, EnvFileName)
	if _, err := os.Stat(path); err == nil {
		if err := godotenv.Overload(path); err != nil {
			return nil, fmt.Errorf("envcfg: parse %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("envcfg: stat %s: %w", path, err)
	}

	return FromEnv(), nil
}

// FromEnv builds a Config by overlaying recognized environment variables
// (§6) onto the documented defaults. Unset or malformed numeric/duration
// variables fall back to their default rather than failing the load --
// only missing required credentials are a hard (ConfigurationMissing)
// failure, and only at the point a component actually needs them.
func FromEnv() *Config {
	c := Default()

	c.HetznerDNSAPIToken = os.Getenv("HETZNER_DNS_API_TOKEN")
	c.TelegramBotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	c.TelegramProxy = os.Getenv("TELEGRAM_PROXY")

	if v, err := strconv.ParseInt(os.Getenv("TELEGRAM_ALLOWED_USER_ID"), 10, 64); err == nil {
		c.TelegramAllowedUserID = v
	}

	setDuration(&c.MonitorInterval, "MONITOR_INTERVAL")
	setDuration(&c.LBInterval, "LB_INTERVAL")
	setDuration(&c.DNSMinUpdateInterval, "DNS_MIN_UPDATE_INTERVAL")
	setDuration(&c.CurlTimeout, "CURL_TIMEOUT")
	setDuration(&c.DNSAPITimeout, "DNS_API_TIMEOUT")
	setDuration(&c.AlertCooldown, "ALERT_COOLDOWN")

	setInt(&c.FailThreshold, "FAIL_THRESHOLD")
	setInt(&c.SuccessThreshold, "SUCCESS_THRESHOLD")
	setInt(&c.CurlRetries, "CURL_RETRIES")
	setInt(&c.DefaultTTL, "DEFAULT_TTL")

	c.ProbeBinary = os.Getenv("PROBE_BINARY")
	c.HetznerAPIURL = os.Getenv("HETZNER_API_URL")
	if raw := os.Getenv("LIVENESS_URLS"); raw != "" {
		var urls []string
		for _, u := range strings.Split(raw, ",") {
			u = strings.TrimSpace(u)
			if u != "" {
				urls = append(urls, u)
			}
		}
		c.LivenessURLs = urls
	}

	return c
}

// RequireHetznerToken returns a ConfigurationMissing-flavored error when no
// DNS provider token is configured. Callers that need to talk to the
// provider call this explicitly rather than failing the whole env load.
func (c *Config) RequireHetznerToken() error {
	if c.HetznerDNSAPIToken == "" {
		return fmt.Errorf("envcfg: HETZNER_DNS_API_TOKEN is not set")
	}
	return nil
}

func setDuration(dst *time.Duration, key string) {
	raw := os.Getenv(key)
	if raw == "" {
		return
	}
	// Bare env vars in this system are plain integer seconds, not Go
	// duration strings (e.g. MONITOR_INTERVAL=15), matching the
	// documented defaults' units.
	if secs, err := strconv.Atoi(raw); err == nil {
		*dst = time.Duration(secs) * time.Second
		return
	}
	if d, err := time.ParseDuration(raw); err == nil {
		*dst = d
	}
}

func setInt(dst *int, key string) {
	raw := os.Getenv(key)
	if raw == "" {
		return
	}
	if v, err := strconv.Atoi(raw); err == nil {
		*dst = v
	}
}

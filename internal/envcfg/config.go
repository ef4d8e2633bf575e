// Package envcfg loads dnslb's runtime configuration from the operator's
// env file and process environment.
package envcfg

import "time"

// Config holds every tunable documented in the external interfaces section:
// provider credentials, bot auth, tick intervals, health thresholds, and
// probe/DNS client timeouts.
type Config struct {
	HetznerDNSAPIToken string

	TelegramBotToken       string
	TelegramAllowedUserID  int64
	TelegramProxy          string

	MonitorInterval      time.Duration
	LBInterval           time.Duration
	DNSMinUpdateInterval time.Duration

	FailThreshold    int
	SuccessThreshold int

	CurlTimeout  time.Duration
	CurlRetries  int

	DNSAPITimeout time.Duration

	AlertCooldown time.Duration
	DefaultTTL    int

	ProbeBinary   string
	LivenessURLs  []string
	HetznerAPIURL string
}

// Default returns the documented defaults for every tunable (§6).
func Default() *Config {
	return &Config{
		MonitorInterval:      15 * time.Second,
		LBInterval:           60 * time.Second,
		DNSMinUpdateInterval: 10 * time.Second,
		FailThreshold:        3,
		SuccessThreshold:     2,
		CurlTimeout:          5 * time.Second,
		CurlRetries:          2,
		DNSAPITimeout:        15 * time.Second,
		AlertCooldown:        300 * time.Second,
		DefaultTTL:           60,
	}
}

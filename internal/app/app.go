// Package app wires the Store, Probe Runner, DNS Reconciler, Alerter, and
// Orchestrator into one assembled runtime, the way engine.New(cfg) wires
// dnstc's tunnel manager and gateway.
package app

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/radin-mg/dnslb/internal/alert"
	"github.com/radin-mg/dnslb/internal/dnsreconcile"
	"github.com/radin-mg/dnslb/internal/envcfg"
	"github.com/radin-mg/dnslb/internal/health"
	"github.com/radin-mg/dnslb/internal/logging"
	"github.com/radin-mg/dnslb/internal/orchestrator"
	"github.com/radin-mg/dnslb/internal/probe"
	"github.com/radin-mg/dnslb/internal/store"
	"github.com/radin-mg/dnslb/internal/telegram"
)

// App bundles every assembled component for a single process invocation.
type App struct {
	Cfg    *envcfg.Config
	Layout store.Layout
	Store  *store.Store
	Log    *zap.Logger
	Orch   *orchestrator.Orchestrator
	bot    *telegram.Bot
}

// New loads configuration and wires every component rooted at baseDir.
// verbose additionally tees logs to stderr (§4.11).
func New(baseDir string, verbose bool) (*App, error) {
	layout := store.NewLayout(baseDir)
	if err := layout.EnsureDirs(); err != nil {
		return nil, fmt.Errorf("app: ensure dirs: %w", err)
	}

	cfg, err := envcfg.LoadFromBase(layout.Base)
	if err != nil {
		return nil, fmt.Errorf("app: load config: %w", err)
	}

	log, err := logging.New(layout.MainLogFile(), verbose)
	if err != nil {
		return nil, fmt.Errorf("app: init logging: %w", err)
	}

	st, err := store.New(layout)
	if err != nil {
		return nil, fmt.Errorf("app: init store: %w", err)
	}

	runner := probe.New(probe.Config{
		Binary:         cfg.ProbeBinary,
		TemplatePath:   layout.SocksTemplateFile(),
		LivenessURLs:   cfg.LivenessURLs,
		Attempts:       cfg.CurlRetries,
		RequestTimeout: cfg.CurlTimeout,
		RunDir:         layout.StateDir(),
	}, log)

	var notifier alert.Notifier
	var bot *telegram.Bot
	if cfg.TelegramBotToken != "" {
		bot, err = telegram.New(cfg.TelegramBotToken, cfg.TelegramAllowedUserID, cfg.TelegramProxy, nil, st, log)
		if err != nil {
			log.Warn("telegram bot unavailable", zap.Error(err))
		} else {
			notifier = bot
		}
	}

	alerter := alert.New(st, notifier, log, cfg.AlertCooldown)

	var orch *orchestrator.Orchestrator
	if cfg.HetznerDNSAPIToken != "" {
		client := dnsreconcile.NewClient(cfg.HetznerAPIURL, cfg.HetznerDNSAPIToken, cfg.CurlRetries, cfg.DNSAPITimeout, log)
		reconciler := dnsreconcile.New(client, st, log, cfg.DNSMinUpdateInterval, cfg.DefaultTTL)
		orch = &orchestrator.Orchestrator{
			Store:      st,
			Runner:     runner,
			Reconciler: reconciler,
			Alerter:    alerter,
			Log:        log,
			Thresholds: health.Thresholds{Success: cfg.SuccessThreshold, Fail: cfg.FailThreshold},
			Intervals: orchestrator.Intervals{
				Monitor:      cfg.MonitorInterval,
				LB:           cfg.LBInterval,
				DNSMinUpdate: cfg.DNSMinUpdateInterval,
			},
		}
	}

	if bot != nil && orch != nil {
		bot.SetOrchestrator(orch)
	}

	return &App{Cfg: cfg, Layout: layout, Store: st, Log: log, Orch: orch, bot: bot}, nil
}

// RequireOrchestrator returns an error if the DNS provider token is
// missing, since every tick and most admin commands need a live
// Reconciler (§7 ConfigurationMissing).
func (a *App) RequireOrchestrator() (*orchestrator.Orchestrator, error) {
	if a.Orch == nil {
		return nil, fmt.Errorf("app: %w", a.Cfg.RequireHetznerToken())
	}
	return a.Orch, nil
}

// Bot returns the assembled Telegram bot shell, for the `bot` command
// (§4.9, §4.10).
func (a *App) Bot() (*telegram.Bot, error) {
	if a.bot == nil {
		return nil, fmt.Errorf("app: TELEGRAM_BOT_TOKEN is not set")
	}
	if _, err := a.RequireOrchestrator(); err != nil {
		return nil, err
	}
	return a.bot, nil
}

// Close flushes buffered log output. The log file handle itself is not
// closed; it stays open until the process exits.
func (a *App) Close() {
	_ = a.Log.Sync()
}

// Package probe implements the Probe Runner (§4.3): for one candidate,
// render a probe-proxy config, spawn it as a subprocess bound to an
// ephemeral local SOCKS5 port, issue HTTPS liveness checks through it, and
// tear everything down on every exit path.
package probe

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/proxy"

	"github.com/radin-mg/dnslb/internal/store"
)

// Result is the outcome of probing one candidate (§4.3).
type Result struct {
	ID         string
	Label      string
	IP         string
	Success    bool
	LatencyMs  *int
	Error      string
	Skip       bool // candidate was disabled at call time (§4.3 edge case)
}

// Config controls the Probe Runner's external dependencies.
type Config struct {
	Binary         string        // path to the probe-proxy executable
	TemplatePath   string        // operator-supplied template (§6)
	LivenessURLs   []string      // HTTPS 204 endpoints
	Attempts       int           // CURL_RETRIES-derived retry count, default 2
	RequestTimeout time.Duration // per-request timeout, default 5s
	WarmUp         time.Duration // fixed subprocess warm-up, default 1s
	RunDir         string        // scratch dir for rendered configs + logs
}

// Runner executes probes against candidates.
type Runner struct {
	cfg Config
	log *zap.Logger
}

// New creates a Runner. Missing optional Config fields get their
// documented defaults.
func New(cfg Config, log *zap.Logger) *Runner {
	if cfg.Attempts <= 0 {
		cfg.Attempts = 2
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 5 * time.Second
	}
	if cfg.WarmUp <= 0 {
		cfg.WarmUp = 1 * time.Second
	}
	return &Runner{cfg: cfg, log: log}
}

// Binary returns the configured probe-proxy executable path, for
// self-check (§4.9).
func (r *Runner) Binary() string { return r.cfg.Binary }

// TemplatePath returns the configured probe template path, for
// self-check (§4.9).
func (r *Runner) TemplatePath() string { return r.cfg.TemplatePath }

// Probe runs the full pipeline for one candidate (§4.3 steps 1-6).
func (r *Runner) Probe(ctx context.Context, c store.CandidateConfig) Result {
	res := Result{ID: c.ID, Label: c.Label, IP: c.IP}

	if _, err := os.Stat(r.cfg.Binary); err != nil {
		res.Error = "xray-not-found"
		return res
	}

	port, err := pickPort()
	if err != nil {
		res.Error = err.Error()
		return res
	}

	templateBytes, err := os.ReadFile(r.cfg.TemplatePath)
	if err != nil {
		res.Error = fmt.Sprintf("template unreadable: %v", err)
		return res
	}

	outbound := string(c.ConfigJSON)
	if outbound == "" {
		outbound = "{}"
	}
	rendered, err := renderTemplate(string(templateBytes), port, outbound)
	if err != nil {
		res.Error = err.Error()
		return res
	}

	cfgPath := filepath.Join(r.cfg.RunDir, fmt.Sprintf("probe-%s-%d.json", c.ID, port))
	logPath := filepath.Join(r.cfg.RunDir, fmt.Sprintf("probe-%s-%d.log", c.ID, port))
	if err := os.WriteFile(cfgPath, []byte(rendered), 0640); err != nil {
		res.Error = fmt.Sprintf("render config: %v", err)
		return res
	}
	defer os.Remove(cfgPath)
	defer os.Remove(logPath)

	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0640)
	if err != nil {
		res.Error = fmt.Sprintf("open probe log: %v", err)
		return res
	}
	defer logFile.Close()

	cmd := exec.CommandContext(ctx, r.cfg.Binary, "-config", cfgPath)
	cmd.Stdout = logFile
	cmd.Stderr = logFile

	if err := cmd.Start(); err != nil {
		res.Error = fmt.Sprintf("spawn: %v", err)
		r.log.Warn("probe subprocess failed to start", zap.String("candidate_id", c.ID), zap.Error(err))
		return res
	}
	defer r.teardown(cmd)

	time.Sleep(r.cfg.WarmUp)

	success, latency, lastErr := r.attemptLiveness(ctx, port)
	res.Success = success
	if success {
		ms := int(latency.Round(time.Millisecond).Milliseconds())
		res.LatencyMs = &ms
	} else if lastErr != nil {
		res.Error = lastErr.Error()
	} else {
		res.Error = "no successful probe"
	}
	return res
}

// attemptLiveness issues Attempts rounds of liveness checks against every
// configured URL and returns the minimum observed latency across all
// successful probes (§4.3 steps 4-5).
func (r *Runner) attemptLiveness(ctx context.Context, localPort int) (bool, time.Duration, error) {
	client := r.socksClient(localPort)

	var (
		success bool
		best    time.Duration
		lastErr error
	)

	for attempt := 0; attempt < r.cfg.Attempts; attempt++ {
		for _, url := range r.cfg.LivenessURLs {
			start := time.Now()
			err := doLivenessRequest(ctx, client, url, r.cfg.RequestTimeout)
			elapsed := time.Since(start)
			if err != nil {
				lastErr = err
				continue
			}
			if !success || elapsed < best {
				best = elapsed
			}
			success = true
		}
	}

	return success, best, lastErr
}

func doLivenessRequest(ctx context.Context, client *http.Client, url string, timeout time.Duration) error {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("transport: %w", err)
	}
	defer resp.Body.Close()

	// Any response counts as success -- the candidate's outbound is
	// reachable and returning traffic (§4.3 step 4).
	return nil
}

// socksClient builds an http.Client whose transport dials exclusively
// through the candidate's local SOCKS5 inbound.
func (r *Runner) socksClient(localPort int) *http.Client {
	addr := fmt.Sprintf("127.0.0.1:%d", localPort)
	// proxy.SOCKS5 only fails on auth misconfiguration, which we never
	// pass; if it does fail, every dial returns that error so the probe
	// fails cleanly instead of bypassing the candidate's inbound.
	dialer, err := proxy.SOCKS5("tcp", addr, nil, proxy.Direct)

	transport := &http.Transport{
		DialContext: func(ctx context.Context, network, address string) (net.Conn, error) {
			if err != nil {
				return nil, err
			}
			return dialer.Dial(network, address)
		},
	}
	return &http.Client{Transport: transport}
}

// teardown terminates the probe-proxy subprocess: SIGTERM then reap,
// regardless of the probe's outcome (§4.3 step 6).
func (r *Runner) teardown(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	_ = cmd.Process.Signal(syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		cmd.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		_ = cmd.Process.Kill()
		<-done
	}
}

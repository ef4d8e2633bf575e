// Package telegram implements the thin Telegram shell over the command
// surface (§4.10): same operations as the CLI, a second presentation
// layer rather than a separate business-logic path.
package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sort"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"golang.org/x/net/proxy"

	"github.com/radin-mg/dnslb/internal/orchestrator"
	"github.com/radin-mg/dnslb/internal/store"
)

// sessionTimeout is how long a BotSession may sit idle before handle
// discards it and treats the next message as a fresh command (§3, §4.10:
// "cleared on completion or timeout (10 minutes of inactivity)").
const sessionTimeout = 10 * time.Minute

// Bot is the long-polling Telegram shell.
type Bot struct {
	api           *tgbotapi.BotAPI
	allowedUserID int64
	orch          *orchestrator.Orchestrator
	store         *store.Store
	log           *zap.Logger
}

// SetOrchestrator attaches the Orchestrator after construction, so a Bot
// can be built early (as the Alerter's Notifier) and wired to the
// Orchestrator once it exists -- the two components otherwise form a
// construction cycle (Orchestrator needs an Alerter, Alerter needs a
// Notifier, the bot is that Notifier, and the bot needs the Orchestrator
// for every command it dispatches).
func (b *Bot) SetOrchestrator(orch *orchestrator.Orchestrator) {
	b.orch = orch
}

// New builds a Bot. orch may be nil if the Orchestrator isn't assembled
// yet; call SetOrchestrator once it is. When socksProxy is non-empty, the
// bot's HTTP client dials the Telegram API through it (§4.10, §6
// TELEGRAM_PROXY).
func New(token string, allowedUserID int64, socksProxy string, orch *orchestrator.Orchestrator, st *store.Store, log *zap.Logger) (*Bot, error) {
	client := http.DefaultClient
	if socksProxy != "" {
		dialer, err := proxy.SOCKS5("tcp", socksProxy, nil, proxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("telegram: build proxy dialer: %w", err)
		}
		client = &http.Client{
			Transport: &http.Transport{
				DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
					return dialer.Dial(network, addr)
				},
			},
		}
	}

	api, err := tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, client)
	if err != nil {
		return nil, fmt.Errorf("telegram: new bot api: %w", err)
	}

	return &Bot{
		api:           api,
		allowedUserID: allowedUserID,
		orch:          orch,
		store:         st,
		log:           log,
	}, nil
}

// Send implements alert.Notifier, delivering a message to the allowed
// operator chat.
func (b *Bot) Send(ctx context.Context, text string) error {
	msg := tgbotapi.NewMessage(b.allowedUserID, text)
	_, err := b.api.Send(msg)
	return err
}

// Run long-polls for updates until ctx is canceled, dispatching every
// message from the allowed user to the command handlers.
func (b *Bot) Run(ctx context.Context) error {
	offset, err := b.store.LoadBotOffset()
	if err != nil {
		return err
	}

	u := tgbotapi.NewUpdate(offset)
	u.Timeout = 30
	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			return nil
		case update := <-updates:
			if update.UpdateID >= offset {
				offset = update.UpdateID + 1
				if err := b.store.SaveBotOffset(offset); err != nil {
					b.log.Warn("telegram: persist offset failed", zap.Error(err))
				}
			}
			if update.Message == nil {
				continue
			}
			b.dispatch(ctx, update.Message)
		}
	}
}

func (b *Bot) dispatch(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil || msg.From.ID != b.allowedUserID {
		userID := int64(0)
		if msg.From != nil {
			userID = msg.From.ID
		}
		b.log.Warn("telegram: rejected update from unauthorized user", zap.Int64("user_id", userID))
		return
	}

	reply, err := b.handle(ctx, msg.From.ID, strings.TrimSpace(msg.Text))
	if err != nil {
		reply = fmt.Sprintf("error: %v", err)
	}
	if reply == "" {
		return
	}
	if _, err := b.api.Send(tgbotapi.NewMessage(msg.Chat.ID, reply)); err != nil {
		b.log.Warn("telegram: send reply failed", zap.Error(err))
	}
}

func (b *Bot) handle(ctx context.Context, userID int64, text string) (string, error) {
	if sess, ok, err := b.store.LoadBotSession(userID); err != nil {
		return "", err
	} else if ok {
		if store.NowUTC().Sub(sess.LastActive) > sessionTimeout {
			if err := b.store.ClearBotSession(userID); err != nil {
				return "", err
			}
			// Fall through to fresh-command dispatch below.
		} else {
			return b.continueSession(ctx, sess, text)
		}
	}

	fields := strings.Fields(text)
	if len(fields) == 0 {
		return "", nil
	}
	cmd := strings.ToLower(strings.TrimPrefix(fields[0], "/"))
	args := fields[1:]

	switch cmd {
	case "list":
		return b.cmdList()
	case "status":
		return b.cmdStatus()
	case "selfcheck":
		return b.cmdSelfCheck()
	case "setmode":
		if len(args) != 1 {
			return "usage: /setmode best|rr", nil
		}
		if err := b.orch.SetMode(store.Mode(args[0])); err != nil {
			return "", err
		}
		return "mode set to " + args[0], nil
	case "removeconfig":
		if len(args) != 1 {
			return "usage: /removeconfig <id>", nil
		}
		if err := b.orch.RemoveConfig(args[0]); err != nil {
			return "", err
		}
		return "removed " + args[0], nil
	case "enableconfig":
		return b.toggleConfig(args, true)
	case "disableconfig":
		return b.toggleConfig(args, false)
	case "setdomain":
		if len(args) != 1 {
			return "usage: /setdomain <fqdn>", nil
		}
		if err := b.orch.SetDomain(ctx, args[0]); err != nil {
			return "", err
		}
		return "domain managed: " + args[0], nil
	case "addconfig":
		return b.startAddConfig(userID)
	case "monitornow":
		if err := b.orch.MonitorOnce(ctx, store.NowUTC()); err != nil {
			return "", err
		}
		return "monitor tick complete", nil
	case "rotatenow":
		if err := b.orch.RotateOnce(ctx, store.NowUTC()); err != nil {
			return "", err
		}
		return "rotate tick complete", nil
	default:
		return "unrecognized command: " + cmd, nil
	}
}

func (b *Bot) toggleConfig(args []string, enabled bool) (string, error) {
	if len(args) != 1 {
		return "usage: /enableconfig|/disableconfig <id>", nil
	}
	if err := b.orch.SetConfigEnabled(args[0], enabled); err != nil {
		return "", err
	}
	if enabled {
		return "enabled " + args[0], nil
	}
	return "disabled " + args[0], nil
}

func (b *Bot) cmdList() (string, error) {
	candidates, err := b.store.ListCandidates()
	if err != nil {
		return "", err
	}
	health, err := b.store.LoadHealth()
	if err != nil {
		return "", err
	}
	if len(candidates) == 0 {
		return "no candidates configured", nil
	}

	var sb strings.Builder
	for _, c := range candidates {
		h := health[c.ID]
		fmt.Fprintf(&sb, "%s  %s  %s  enabled=%v  healthy=%v\n", c.ID, c.Label, c.IP, c.Enabled, h.Healthy)
	}
	return sb.String(), nil
}

func (b *Bot) cmdStatus() (string, error) {
	st, err := b.orch.Status()
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "mode: %s\ncurrent_ip: %s\n", st.Mode, st.CurrentIP)

	fqdns := make([]string, 0, len(st.Domains))
	for f := range st.Domains {
		fqdns = append(fqdns, f)
	}
	sort.Strings(fqdns)
	for _, f := range fqdns {
		d := st.Domains[f]
		lastUpdate := "never"
		if d.LastUpdate != nil {
			lastUpdate = d.LastUpdate.Format(time.RFC3339)
		}
		fmt.Fprintf(&sb, "domain %s: last_ip=%s last_update=%s\n", f, d.LastIP, lastUpdate)
	}
	fmt.Fprintf(&sb, "candidates: %d\n", len(st.Candidates))
	return sb.String(), nil
}

func (b *Bot) cmdSelfCheck() (string, error) {
	res := b.orch.SelfCheck(true)
	return fmt.Sprintf("probe binary ok=%v (%s)\ntemplate ok=%v (%s)",
		res.ProbeBinaryOK, res.ProbeBinaryPath, res.TemplateOK, res.TemplatePath), nil
}

// startAddConfig begins the multi-step /addconfig conversation (§4.10).
func (b *Bot) startAddConfig(userID int64) (string, error) {
	sess := store.BotSession{
		UserID:     userID,
		Command:    "addconfig",
		Step:       "label",
		Values:     map[string]string{},
		LastActive: store.NowUTC(),
	}
	if err := b.store.SaveBotSession(sess); err != nil {
		return "", err
	}
	return "adding a new config. send the label:", nil
}

func (b *Bot) continueSession(ctx context.Context, sess store.BotSession, text string) (string, error) {
	switch sess.Step {
	case "label":
		sess.Values["label"] = text
		sess.Step = "ip"
		sess.LastActive = store.NowUTC()
		if err := b.store.SaveBotSession(sess); err != nil {
			return "", err
		}
		return "send the egress IP:", nil

	case "ip":
		sess.Values["ip"] = text
		sess.Step = "outbound"
		sess.LastActive = store.NowUTC()
		if err := b.store.SaveBotSession(sess); err != nil {
			return "", err
		}
		return "send the outbound config JSON:", nil

	case "outbound":
		var raw json.RawMessage
		if err := json.Unmarshal([]byte(text), &raw); err != nil {
			return "invalid JSON, send the outbound config JSON again:", nil
		}
		cfg, err := b.orch.AddConfig(sess.Values["label"], sess.Values["ip"], raw)
		if err != nil {
			_ = b.store.ClearBotSession(sess.UserID)
			return "", err
		}
		if err := b.store.ClearBotSession(sess.UserID); err != nil {
			return "", err
		}
		return "added config " + cfg.ID, nil

	default:
		_ = b.store.ClearBotSession(sess.UserID)
		return "session reset, send the command again", nil
	}
}

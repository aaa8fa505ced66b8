// Package notify sends probe results to chat, mail, webhook and script channels.
package notify

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/url"
	"os"
	"strings"
	"time"

	ntfy "github.com/go-pkgz/notify"
)

const defaultTimeout = 10 * time.Second

// Params configures the channels, filled from the notify_* config keys.
type Params struct {
	Channels      []string
	OnError       bool // send when a probe fails
	OnComplete    bool // send when a probe passes
	TimeoutMs     int
	TelegramToken string
	TelegramChat  string
	SlackToken    string
	SlackChannel  string
	SMTPHost      string
	SMTPPort      int
	SMTPUsername  string
	SMTPPassword  string
	SMTPStartTLS  bool
	EmailFrom     string
	EmailTo       []string
	WebhookURLs   []string
	CustomScript  string
}

// Result is a probe run summary as sent to notification channels.
type Result struct {
	Status   string   `json:"status"` // "success" or "failure"
	Server   string   `json:"server"` // server url, token redacted
	Engine   string   `json:"engine"`
	Checks   int      `json:"checks"`
	Failed   int      `json:"failed"`
	Failures []string `json:"failures,omitempty"` // "check: error" per failed check
	Duration string   `json:"duration"`
	Error    string   `json:"error,omitempty"` // run level error, e.g. server never started
}

// Passed reports whether the probe succeeded.
func (r Result) Passed() bool { return r.Status == "success" }

type logger interface {
	Print(format string, args ...any)
}

// target is one destination of a go-pkgz notifier. dest gets the message subject,
// email puts it into the mailto url.
type target struct {
	notifier ntfy.Notifier
	dest     func(subject string) string
	escape   bool // telegram sends in HTML parse mode
}

// Service delivers results to the configured targets. a nil Service sends nothing.
type Service struct {
	targets   []target
	script    *customChannel
	onFailure bool
	onSuccess bool
	timeout   time.Duration
	host      string
	log       logger
}

// builders make the targets of channels that fail hard on bad config.
// telegram and custom are handled in New, telegram only warns when its api check fails.
var builders = map[string]func(Params) ([]target, error){
	"email":   emailTargets,
	"slack":   slackTargets,
	"webhook": webhookTargets,
}

// telegramBuilder is replaced in tests, the real notifier calls the bot api on creation.
var telegramBuilder = telegramTargets

// New makes a Service for p. returns nil, nil when no channel is configured, Send is nil-safe.
func New(p Params, log logger) (*Service, error) {
	if len(p.Channels) == 0 {
		return nil, nil //nolint:nilnil // no channels, callers rely on nil-safe Send
	}

	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	svc := &Service{onFailure: p.OnError, onSuccess: p.OnComplete, timeout: defaultTimeout, host: host, log: log}
	if p.TimeoutMs > 0 {
		svc.timeout = time.Duration(p.TimeoutMs) * time.Millisecond
	}

	for _, raw := range p.Channels {
		name := strings.ToLower(strings.TrimSpace(raw))
		switch name {
		case "telegram":
			if p.TelegramToken == "" || p.TelegramChat == "" {
				return nil, errors.New("telegram channel: notify_telegram_token and notify_telegram_chat are required")
			}
			tt, tErr := telegramBuilder(p)
			if tErr != nil {
				log.Print("[WARN] telegram channel disabled: %s", strings.ReplaceAll(tErr.Error(), p.TelegramToken, "[REDACTED]"))
				continue
			}
			svc.targets = append(svc.targets, tt...)
		case "custom":
			if p.CustomScript == "" {
				return nil, errors.New("custom channel: notify_custom_script is required")
			}
			svc.script = newCustomChannel(p.CustomScript)
		default:
			build, ok := builders[name]
			if !ok {
				return nil, fmt.Errorf("unknown notification channel: %q", raw)
			}
			tt, bErr := build(p)
			if bErr != nil {
				return nil, fmt.Errorf("%s channel: %w", name, bErr)
			}
			svc.targets = append(svc.targets, tt...)
		}
	}

	if len(svc.targets) == 0 && svc.script == nil {
		log.Print("[WARN] no notification channel left after initialization errors")
	}
	return svc, nil
}

// Send delivers r to every target when the on_error/on_complete settings ask for it.
// failures are logged, notifications never fail a probe.
func (s *Service) Send(ctx context.Context, r Result) {
	if s == nil || !s.wants(r) {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	subject, text := r.Subject(s.host), r.Text(s.host)
	for _, t := range s.targets {
		msg := text
		if t.escape {
			msg = html.EscapeString(text)
		}
		if err := t.notifier.Send(ctx, t.dest(subject), msg); err != nil {
			s.log.Print("[WARN] notification failed for %s: %v", t.notifier, err)
		}
	}
	if s.script != nil {
		if err := s.script.send(ctx, r); err != nil {
			s.log.Print("[WARN] custom notification failed: %v", err)
		}
	}
}

func (s *Service) wants(r Result) bool {
	if r.Passed() {
		return s.onSuccess
	}
	return s.onFailure
}

// Subject is the one line verdict, also used as email subject.
func (r Result) Subject(host string) string {
	verdict := "FAIL"
	if r.Passed() {
		verdict = "PASS"
	}
	return fmt.Sprintf("nbprobe %s on %s", verdict, host)
}

// Text renders the plain text message body.
func (r Result) Text(host string) string {
	var b strings.Builder
	b.WriteString(r.Subject(host) + "\n\n")

	line := func(label, val string) {
		if val != "" {
			fmt.Fprintf(&b, "%-9s %s\n", label+":", val)
		}
	}
	line("server", r.Server)
	line("engine", r.Engine)
	if r.Checks > 0 {
		line("checks", fmt.Sprintf("%d passed, %d failed", r.Checks-r.Failed, r.Failed))
	}
	line("duration", r.Duration)
	for _, f := range r.Failures {
		line("failed", f)
	}
	line("error", r.Error)
	return b.String()
}

func telegramTargets(p Params) ([]target, error) {
	tg, err := ntfy.NewTelegram(ntfy.TelegramParams{Token: p.TelegramToken})
	if err != nil {
		return nil, fmt.Errorf("create telegram notifier: %w", err)
	}
	dest := fmt.Sprintf("telegram:%s?parseMode=HTML", p.TelegramChat)
	return []target{{notifier: tg, dest: fixed(dest), escape: true}}, nil
}

func emailTargets(p Params) ([]target, error) {
	switch {
	case p.SMTPHost == "":
		return nil, errors.New("notify_smtp_host is required")
	case p.EmailFrom == "":
		return nil, errors.New("notify_email_from is required")
	case len(p.EmailTo) == 0:
		return nil, errors.New("notify_email_to is required")
	}

	em := ntfy.NewEmail(ntfy.SMTPParams{
		Host:     p.SMTPHost,
		Port:     p.SMTPPort,
		Username: p.SMTPUsername,
		Password: p.SMTPPassword,
		StartTLS: p.SMTPStartTLS,
	})
	to := strings.Join(p.EmailTo, ",")
	dest := func(subject string) string {
		return fmt.Sprintf("mailto:%s?from=%s&subject=%s", to, url.QueryEscape(p.EmailFrom), url.QueryEscape(subject))
	}
	return []target{{notifier: em, dest: dest}}, nil
}

func slackTargets(p Params) ([]target, error) {
	if p.SlackToken == "" {
		return nil, errors.New("notify_slack_token is required")
	}
	if p.SlackChannel == "" {
		return nil, errors.New("notify_slack_channel is required")
	}
	return []target{{notifier: ntfy.NewSlack(p.SlackToken), dest: fixed("slack:" + p.SlackChannel)}}, nil
}

// webhookTargets shares one notifier between all urls.
func webhookTargets(p Params) ([]target, error) {
	if len(p.WebhookURLs) == 0 {
		return nil, errors.New("notify_webhook_urls is required")
	}
	wh := ntfy.NewWebhook(ntfy.WebhookParams{})
	res := make([]target, 0, len(p.WebhookURLs))
	for _, u := range p.WebhookURLs {
		res = append(res, target{notifier: wh, dest: fixed(u)})
	}
	return res, nil
}

func fixed(dest string) func(string) string {
	return func(string) string { return dest }
}

package config

import (
	"fmt"
	"io/fs"
	"strings"

	"gopkg.in/ini.v1"

	"github.com/umputun/nbprobe/pkg/notify"
)

// Values holds scalar configuration values.
// Fields ending in *Set (e.g., HeadlessSet) track whether that field was explicitly
// set in config. This allows distinguishing explicit false/0 from "not set", enabling
// proper merge behavior where local config can override global config with zero values.
type Values struct {
	// discovery
	ServerWaitMs            int
	ServerWaitMsSet         bool // tracks if server_wait_ms was explicitly set
	ServerPollIntervalMs    int
	ServerPollIntervalMsSet bool // tracks if server_poll_interval_ms was explicitly set
	RuntimeDir              string
	ServerURL               string
	ServerToken             string
	ServerCmd               string // started before discovery and stopped at exit when set

	// browser session
	Kernel                  string
	Engine                  string
	Browser                 string
	Headless                bool
	HeadlessSet             bool // tracks if headless was explicitly set
	SessionTimeoutMs        int
	SessionTimeoutMsSet     bool // tracks if session_timeout_ms was explicitly set
	CellTimeoutMs           int
	CellTimeoutMsSet        bool // tracks if cell_timeout_ms was explicitly set
	DebugTimeoutMs          int
	DebugTimeoutMsSet       bool // tracks if debug_timeout_ms was explicitly set
	OutputPollIntervalMs    int
	OutputPollIntervalMsSet bool // tracks if output_poll_interval_ms was explicitly set

	// checks
	Parallel    int
	ParallelSet bool // tracks if parallel was explicitly set
	Checks      []string
	Fixture     string

	// notifications, set flags cover fields where zero is meaningful
	Notify              notify.Params
	NotifyOnErrorSet    bool
	NotifyOnCompleteSet bool
	NotifyTimeoutMsSet  bool
	NotifySMTPPortSet   bool
	NotifyStartTLSSet   bool
}

// valuesLoader merges Values over the config layers.
type valuesLoader struct {
	fsys fs.FS
}

func newValuesLoader(fsys fs.FS) *valuesLoader {
	return &valuesLoader{fsys: fsys}
}

// Load merges embedded defaults, the global and the local config file, local wins.
// both paths are files, empty or missing ones are skipped.
func (vl *valuesLoader) Load(localPath, globalPath string) (Values, error) {
	layers, err := readLayers(vl.fsys, localPath, globalPath)
	if err != nil {
		return Values{}, err
	}

	var res Values
	for _, l := range layers {
		sec, err := l.section()
		if err != nil {
			return Values{}, err
		}
		if sec == nil {
			continue
		}
		v, err := parseValues(sec)
		if err != nil {
			return Values{}, fmt.Errorf("%s: %w", l.name, err)
		}
		res.mergeFrom(&v)
	}
	return res, nil
}

// parseValues reads the known keys of section, keys not present stay zero and unset.
func parseValues(section *ini.Section) (Values, error) {
	var values Values

	strKeys := []struct {
		key   string
		field *string
	}{
		{"runtime_dir", &values.RuntimeDir},
		{"server_url", &values.ServerURL},
		{"server_token", &values.ServerToken},
		{"server_cmd", &values.ServerCmd},
		{"kernel", &values.Kernel},
		{"engine", &values.Engine},
		{"browser", &values.Browser},
		{"fixture", &values.Fixture},
		{"notify_telegram_token", &values.Notify.TelegramToken},
		{"notify_telegram_chat", &values.Notify.TelegramChat},
		{"notify_slack_token", &values.Notify.SlackToken},
		{"notify_slack_channel", &values.Notify.SlackChannel},
		{"notify_smtp_host", &values.Notify.SMTPHost},
		{"notify_smtp_username", &values.Notify.SMTPUsername},
		{"notify_smtp_password", &values.Notify.SMTPPassword},
		{"notify_email_from", &values.Notify.EmailFrom},
		{"notify_custom_script", &values.Notify.CustomScript},
	}
	for _, sk := range strKeys {
		if key, err := section.GetKey(sk.key); err == nil {
			*sk.field = strings.TrimSpace(key.String())
		}
	}

	intKeys := []struct {
		key   string
		field *int
		set   *bool
	}{
		{"server_wait_ms", &values.ServerWaitMs, &values.ServerWaitMsSet},
		{"server_poll_interval_ms", &values.ServerPollIntervalMs, &values.ServerPollIntervalMsSet},
		{"session_timeout_ms", &values.SessionTimeoutMs, &values.SessionTimeoutMsSet},
		{"cell_timeout_ms", &values.CellTimeoutMs, &values.CellTimeoutMsSet},
		{"debug_timeout_ms", &values.DebugTimeoutMs, &values.DebugTimeoutMsSet},
		{"output_poll_interval_ms", &values.OutputPollIntervalMs, &values.OutputPollIntervalMsSet},
		{"parallel", &values.Parallel, &values.ParallelSet},
		{"notify_timeout_ms", &values.Notify.TimeoutMs, &values.NotifyTimeoutMsSet},
		{"notify_smtp_port", &values.Notify.SMTPPort, &values.NotifySMTPPortSet},
	}
	for _, ik := range intKeys {
		key, err := section.GetKey(ik.key)
		if err != nil {
			continue
		}
		val, intErr := key.Int()
		if intErr != nil {
			return Values{}, fmt.Errorf("invalid %s: %w", ik.key, intErr)
		}
		if val < 0 {
			return Values{}, fmt.Errorf("invalid %s: must be non-negative, got %d", ik.key, val)
		}
		*ik.field = val
		*ik.set = true
	}

	boolKeys := []struct {
		key   string
		field *bool
		set   *bool
	}{
		{"headless", &values.Headless, &values.HeadlessSet},
		{"notify_on_error", &values.Notify.OnError, &values.NotifyOnErrorSet},
		{"notify_on_complete", &values.Notify.OnComplete, &values.NotifyOnCompleteSet},
		{"notify_smtp_starttls", &values.Notify.SMTPStartTLS, &values.NotifyStartTLSSet},
	}
	for _, bk := range boolKeys {
		key, err := section.GetKey(bk.key)
		if err != nil {
			continue
		}
		val, boolErr := key.Bool()
		if boolErr != nil {
			return Values{}, fmt.Errorf("invalid %s: %w", bk.key, boolErr)
		}
		*bk.field = val
		*bk.set = true
	}

	// comma-separated lists
	listKeys := []struct {
		key   string
		field *[]string
	}{
		{"checks", &values.Checks},
		{"notify_channels", &values.Notify.Channels},
		{"notify_email_to", &values.Notify.EmailTo},
		{"notify_webhook_urls", &values.Notify.WebhookURLs},
	}
	for _, lk := range listKeys {
		if key, err := section.GetKey(lk.key); err == nil {
			*lk.field = splitList(key.String())
		}
	}

	return values, nil
}

// splitList splits a comma-separated value, dropping empty items.
func splitList(val string) []string {
	var res []string
	for p := range strings.SplitSeq(strings.TrimSpace(val), ",") {
		if t := strings.TrimSpace(p); t != "" {
			res = append(res, t)
		}
	}
	return res
}

// mergeFrom merges non-empty values from src into dst.
func (dst *Values) mergeFrom(src *Values) {
	mergeStr := func(d *string, s string) {
		if s != "" {
			*d = s
		}
	}
	mergeInt := func(d *int, dSet *bool, s int, sSet bool) {
		if sSet {
			*d = s
			*dSet = true
		}
	}
	mergeBool := func(d, dSet *bool, s, sSet bool) {
		if sSet {
			*d = s
			*dSet = true
		}
	}
	mergeList := func(d *[]string, s []string) {
		if len(s) > 0 {
			*d = s
		}
	}

	mergeInt(&dst.ServerWaitMs, &dst.ServerWaitMsSet, src.ServerWaitMs, src.ServerWaitMsSet)
	mergeInt(&dst.ServerPollIntervalMs, &dst.ServerPollIntervalMsSet, src.ServerPollIntervalMs, src.ServerPollIntervalMsSet)
	mergeStr(&dst.RuntimeDir, src.RuntimeDir)
	mergeStr(&dst.ServerURL, src.ServerURL)
	mergeStr(&dst.ServerToken, src.ServerToken)
	mergeStr(&dst.ServerCmd, src.ServerCmd)

	mergeStr(&dst.Kernel, src.Kernel)
	mergeStr(&dst.Engine, src.Engine)
	mergeStr(&dst.Browser, src.Browser)
	mergeBool(&dst.Headless, &dst.HeadlessSet, src.Headless, src.HeadlessSet)
	mergeInt(&dst.SessionTimeoutMs, &dst.SessionTimeoutMsSet, src.SessionTimeoutMs, src.SessionTimeoutMsSet)
	mergeInt(&dst.CellTimeoutMs, &dst.CellTimeoutMsSet, src.CellTimeoutMs, src.CellTimeoutMsSet)
	mergeInt(&dst.DebugTimeoutMs, &dst.DebugTimeoutMsSet, src.DebugTimeoutMs, src.DebugTimeoutMsSet)
	mergeInt(&dst.OutputPollIntervalMs, &dst.OutputPollIntervalMsSet, src.OutputPollIntervalMs, src.OutputPollIntervalMsSet)

	mergeInt(&dst.Parallel, &dst.ParallelSet, src.Parallel, src.ParallelSet)
	mergeList(&dst.Checks, src.Checks)
	mergeStr(&dst.Fixture, src.Fixture)

	mergeList(&dst.Notify.Channels, src.Notify.Channels)
	mergeBool(&dst.Notify.OnError, &dst.NotifyOnErrorSet, src.Notify.OnError, src.NotifyOnErrorSet)
	mergeBool(&dst.Notify.OnComplete, &dst.NotifyOnCompleteSet, src.Notify.OnComplete, src.NotifyOnCompleteSet)
	mergeInt(&dst.Notify.TimeoutMs, &dst.NotifyTimeoutMsSet, src.Notify.TimeoutMs, src.NotifyTimeoutMsSet)
	mergeStr(&dst.Notify.TelegramToken, src.Notify.TelegramToken)
	mergeStr(&dst.Notify.TelegramChat, src.Notify.TelegramChat)
	mergeStr(&dst.Notify.SlackToken, src.Notify.SlackToken)
	mergeStr(&dst.Notify.SlackChannel, src.Notify.SlackChannel)
	mergeStr(&dst.Notify.SMTPHost, src.Notify.SMTPHost)
	mergeInt(&dst.Notify.SMTPPort, &dst.NotifySMTPPortSet, src.Notify.SMTPPort, src.NotifySMTPPortSet)
	mergeStr(&dst.Notify.SMTPUsername, src.Notify.SMTPUsername)
	mergeStr(&dst.Notify.SMTPPassword, src.Notify.SMTPPassword)
	mergeBool(&dst.Notify.SMTPStartTLS, &dst.NotifyStartTLSSet, src.Notify.SMTPStartTLS, src.NotifyStartTLSSet)
	mergeStr(&dst.Notify.EmailFrom, src.Notify.EmailFrom)
	mergeList(&dst.Notify.EmailTo, src.Notify.EmailTo)
	mergeList(&dst.Notify.WebhookURLs, src.Notify.WebhookURLs)
	mergeStr(&dst.Notify.CustomScript, src.Notify.CustomScript)
}

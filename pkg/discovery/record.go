// Package discovery finds running notebook servers and waits for one to become reachable.
package discovery

import (
	"net/url"
	"strings"
)

// ServerRecord describes a running notebook server as published in its runtime file.
// only URL and Token are required; the rest is informational.
type ServerRecord struct {
	URL         string `json:"url"`
	Token       string `json:"token"`
	PID         int    `json:"pid,omitempty"`
	Port        int    `json:"port,omitempty"`
	BaseURL     string `json:"base_url,omitempty"`
	Hostname    string `json:"hostname,omitempty"`
	NotebookDir string `json:"notebook_dir,omitempty"`
	Secure      bool   `json:"secure,omitempty"`
	Source      string `json:"-"` // runtime file or "static"
}

// Root returns the server URL with a guaranteed trailing slash.
func (r ServerRecord) Root() string {
	if strings.HasSuffix(r.URL, "/") {
		return r.URL
	}
	return r.URL + "/"
}

// SessionURL returns the URL a browser opens to authenticate with the server token.
func (r ServerRecord) SessionURL() string {
	if r.Token == "" {
		return r.Root()
	}
	return r.Root() + "?token=" + url.QueryEscape(r.Token)
}

// Redacted returns the server URL safe for logs and reports.
func (r ServerRecord) Redacted() string {
	if r.Token == "" {
		return r.Root()
	}
	return r.Root() + "?token=[REDACTED]"
}

// Package notebook drives a Jupyter notebook in a real browser: it opens a scratch notebook
// bound to a kernel, fills and executes cells, reads their rendered output and clicks
// through the notebook UI. Browser engines are hidden behind the Page interface.
package notebook

import (
	"context"
	"fmt"
	"strings"
	"time"
)

//go:generate moq -out mocks/page.go -pkg mocks -skip-ensure -fmt goimports . Page

// Page is a single browser tab. Eval evaluates a JavaScript expression which must produce
// a string, WaitVisible blocks until the first element matching a CSS selector is visible.
type Page interface {
	Navigate(ctx context.Context, url string) error
	Eval(ctx context.Context, expr string) (string, error)
	WaitVisible(ctx context.Context, selector string, timeout time.Duration) error
	Click(ctx context.Context, selector string) error
	Close() error
}

// Engine selects the browser automation library.
type Engine string

// supported engines
const (
	EnginePlaywright Engine = "playwright"
	EngineChromedp   Engine = "chromedp"
	EngineRod        Engine = "rod"
)

// LaunchOptions configures a browser launch.
type LaunchOptions struct {
	Engine   Engine
	Browser  string // playwright only: chromium, firefox or webkit
	Headless bool
	ExecPath string // chromedp and rod: browser binary, autodetected if empty
	Install  bool   // playwright only: install driver and browser before launch
}

// ParseEngine validates an engine name, empty means playwright.
func ParseEngine(name string) (Engine, error) {
	switch e := Engine(strings.ToLower(strings.TrimSpace(name))); e {
	case "":
		return EnginePlaywright, nil
	case EnginePlaywright, EngineChromedp, EngineRod:
		return e, nil
	default:
		return "", fmt.Errorf("unknown engine %q, expected playwright, chromedp or rod", name)
	}
}

// waitBudget caps timeout by the context deadline. never returns a non-positive duration,
// engines treat zero as no timeout at all.
func waitBudget(ctx context.Context, timeout time.Duration) (time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if deadline, ok := ctx.Deadline(); ok {
		left := time.Until(deadline)
		if left <= 0 {
			return 0, context.DeadlineExceeded
		}
		timeout = min(timeout, left)
	}
	return max(timeout, time.Millisecond), nil
}

// Launch starts a browser with the selected engine and returns its only page.
func Launch(ctx context.Context, opts LaunchOptions) (Page, error) {
	switch opts.Engine {
	case EnginePlaywright, "":
		return newPlaywrightPage(opts)
	case EngineChromedp:
		return newChromedpPage(ctx, opts)
	case EngineRod:
		return newRodPage(ctx, opts)
	default:
		return nil, fmt.Errorf("unknown engine %q", opts.Engine)
	}
}

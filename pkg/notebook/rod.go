package notebook

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

type rodPage struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
}

func newRodPage(ctx context.Context, opts LaunchOptions) (*rodPage, error) {
	l := launcher.New().Headless(opts.Headless)
	if opts.ExecPath != "" {
		l = l.Bin(opts.ExecPath)
	}
	controlURL, err := l.Context(ctx).Launch()
	if err != nil {
		return nil, fmt.Errorf("launch chrome: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("connect to chrome: %w", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = browser.Close()
		l.Kill()
		return nil, fmt.Errorf("create page: %w", err)
	}
	return &rodPage{launcher: l, browser: browser, page: page}, nil
}

// Navigate opens url and waits for the load event.
func (p *rodPage) Navigate(ctx context.Context, url string) error {
	page := p.page.Context(ctx)
	if err := page.Navigate(url); err != nil {
		return fmt.Errorf("navigate: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("wait load: %w", err)
	}
	return nil
}

// Eval evaluates expr, which must produce a string.
func (p *rodPage) Eval(ctx context.Context, expr string) (string, error) {
	res, err := p.page.Context(ctx).Evaluate(&rod.EvalOptions{
		JS:      "() => (" + expr + ")",
		ByValue: true,
	})
	if err != nil {
		return "", fmt.Errorf("evaluate: %w", err)
	}
	if res == nil || res.Value.Nil() {
		return "", errors.New("evaluate: empty result")
	}
	return res.Value.Str(), nil
}

// WaitVisible waits for the first element matching selector to become visible.
func (p *rodPage) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	timeout, err := waitBudget(ctx, timeout)
	if err != nil {
		return err
	}
	page := p.page.Context(ctx).Timeout(timeout)
	defer page.CancelTimeout()
	el, err := page.Element(selector)
	if err != nil {
		return fmt.Errorf("wait for %s: %w", selector, err)
	}
	if err := el.WaitVisible(); err != nil {
		return fmt.Errorf("wait for %s: %w", selector, err)
	}
	return nil
}

// Click clicks the first element matching selector.
func (p *rodPage) Click(ctx context.Context, selector string) error {
	el, err := p.page.Context(ctx).Element(selector)
	if err != nil {
		return fmt.Errorf("click %s: %w", selector, err)
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("click %s: %w", selector, err)
	}
	return nil
}

// Close closes the browser and kills the launched process.
func (p *rodPage) Close() error {
	err := p.browser.Close()
	p.launcher.Kill()
	p.launcher.Cleanup()
	if err != nil {
		return fmt.Errorf("close chrome: %w", err)
	}
	return nil
}

package notebook

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
)

type playwrightPage struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	page    playwright.Page
}

func newPlaywrightPage(opts LaunchOptions) (*playwrightPage, error) {
	name := opts.Browser
	if name == "" {
		name = "firefox"
	}

	if opts.Install {
		if err := playwright.Install(&playwright.RunOptions{Browsers: []string{name}}); err != nil {
			return nil, fmt.Errorf("install playwright: %w", err)
		}
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("run playwright: %w", err)
	}

	var bt playwright.BrowserType
	switch name {
	case "firefox":
		bt = pw.Firefox
	case "chromium", "chrome":
		bt = pw.Chromium
	case "webkit":
		bt = pw.WebKit
	default:
		_ = pw.Stop()
		return nil, fmt.Errorf("unknown playwright browser %q", name)
	}

	browser, err := bt.Launch(playwright.BrowserTypeLaunchOptions{Headless: playwright.Bool(opts.Headless)})
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("launch %s: %w", name, err)
	}

	page, err := browser.NewPage()
	if err != nil {
		_ = browser.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("create page: %w", err)
	}
	return &playwrightPage{pw: pw, browser: browser, page: page}, nil
}

// Navigate opens url and waits for the load event.
func (p *playwrightPage) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := p.page.Goto(url); err != nil {
		return fmt.Errorf("navigate: %w", err)
	}
	return nil
}

// Eval evaluates expr, which must produce a string.
func (p *playwrightPage) Eval(ctx context.Context, expr string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	res, err := p.page.Evaluate(expr)
	if err != nil {
		return "", fmt.Errorf("evaluate: %w", err)
	}
	s, ok := res.(string)
	if !ok {
		return "", fmt.Errorf("evaluate: unexpected result type %T", res)
	}
	return s, nil
}

// WaitVisible waits for the first element matching selector to become visible.
func (p *playwrightPage) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	timeout, err := waitBudget(ctx, timeout)
	if err != nil {
		return err
	}
	err = p.page.Locator(selector).First().WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(float64(timeout / time.Millisecond)),
	})
	if err != nil {
		return fmt.Errorf("wait for %s: %w", selector, err)
	}
	return nil
}

// Click clicks the first element matching selector.
func (p *playwrightPage) Click(ctx context.Context, selector string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := p.page.Locator(selector).First().Click(); err != nil {
		return fmt.Errorf("click %s: %w", selector, err)
	}
	return nil
}

// Close closes the page, the browser and the playwright driver.
func (p *playwrightPage) Close() error {
	var errs []error
	if err := p.page.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close page: %w", err))
	}
	if err := p.browser.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close browser: %w", err))
	}
	if err := p.pw.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("stop playwright: %w", err))
	}
	return errors.Join(errs...)
}

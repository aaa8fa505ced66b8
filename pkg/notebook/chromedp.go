package notebook

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

// chromedpPage keeps one browser context alive for the page lifetime, calls derive
// from it and are additionally canceled with the caller's ctx.
type chromedpPage struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
}

func newChromedpPage(ctx context.Context, opts LaunchOptions) (*chromedpPage, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
	)
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	browserCtx, cancel := chromedp.NewContext(allocCtx)

	p := &chromedpPage{ctx: browserCtx, cancel: cancel, allocCancel: allocCancel}
	// an empty run starts the browser
	if err := p.run(ctx); err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("start chrome: %w", err)
	}
	return p, nil
}

func (p *chromedpPage) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(p.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	if err := chromedp.Run(runCtx, actions...); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}

// Navigate opens url and waits for the load event.
func (p *chromedpPage) Navigate(ctx context.Context, url string) error {
	if err := p.run(ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigate: %w", err)
	}
	return nil
}

// Eval evaluates expr, which must produce a string.
func (p *chromedpPage) Eval(ctx context.Context, expr string) (string, error) {
	var res string
	if err := p.run(ctx, chromedp.Evaluate(expr, &res)); err != nil {
		return "", fmt.Errorf("evaluate: %w", err)
	}
	return res, nil
}

// WaitVisible waits for the first element matching selector to become visible.
func (p *chromedpPage) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	tctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := p.run(tctx, chromedp.WaitVisible(selector, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("wait for %s: %w", selector, err)
	}
	return nil
}

// Click clicks the first element matching selector.
func (p *chromedpPage) Click(ctx context.Context, selector string) error {
	if err := p.run(ctx, chromedp.Click(selector, chromedp.ByQuery, chromedp.NodeVisible)); err != nil {
		return fmt.Errorf("click %s: %w", selector, err)
	}
	return nil
}

// Close shuts the browser down.
func (p *chromedpPage) Close() error {
	err := chromedp.Cancel(p.ctx)
	p.cancel()
	p.allocCancel()
	if err != nil {
		return fmt.Errorf("close chrome: %w", err)
	}
	return nil
}

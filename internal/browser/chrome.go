package browser

import (
	"context"

	"github.com/chromedp/chromedp"
)

// NewChromedpContext builds a chromedp browser context from the resolved
// config: a remote allocator when CDPUrl attaches to a running browser,
// otherwise an exec allocator that launches Chrome. The returned cancel
// tears down the whole allocator chain.
func NewChromedpContext(ctx context.Context, cfg ResolvedConfig) (context.Context, context.CancelFunc) {
	if cfg.CDPUrl != "" {
		allocCtx, allocCancel := chromedp.NewRemoteAllocator(ctx, cfg.CDPUrl)
		browserCtx, browserCancel := chromedp.NewContext(allocCtx)
		return browserCtx, func() {
			browserCancel()
			allocCancel()
		}
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if cfg.NoSandbox {
		opts = append(opts, chromedp.Flag("no-sandbox", true))
	}
	if cfg.ExecutablePath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecutablePath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	return browserCtx, func() {
		browserCancel()
		allocCancel()
	}
}

// Navigate loads url in the browser context and waits for the document
// body, matching the driver's notion of "page is usable".
func Navigate(ctx context.Context, url string) error {
	return chromedp.Run(ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
	)
}

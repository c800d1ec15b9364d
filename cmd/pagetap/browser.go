package main

import (
	"context"
	"fmt"

	"github.com/pagetap/pagetap/internal/browser"
	"github.com/pagetap/pagetap/internal/config"
	"github.com/pagetap/pagetap/internal/recording"
)

// navigator is implemented by both page drivers; fn runs after every
// top-level navigation.
type navigator interface {
	OnNavigated(fn func())
}

// openPage connects to a browser per config, optionally navigates to
// url, and returns the page bridge plus a teardown func.
func openPage(ctx context.Context, cfg config.Config, url string) (recording.PageBridge, func(), error) {
	resolved := browser.ResolveConfig(cfg.Browser)

	switch resolved.Driver {
	case browser.DriverChromedp:
		browserCtx, cancel := browser.NewChromedpContext(ctx, resolved)
		if url != "" {
			if err := browser.Navigate(browserCtx, url); err != nil {
				cancel()
				return nil, nil, fmt.Errorf("navigate to %s: %w", url, err)
			}
		}
		return browser.NewCDPPage(browserCtx, cfg.Recording), cancel, nil

	case browser.DriverPlaywright:
		page, closeFn, err := browser.ConnectPlaywright(resolved)
		if err != nil {
			return nil, nil, err
		}
		if url != "" {
			if _, err := page.Goto(url); err != nil {
				closeFn()
				return nil, nil, fmt.Errorf("navigate to %s: %w", url, err)
			}
		}
		return browser.NewPlaywrightPage(page, cfg.Recording), closeFn, nil

	default:
		return nil, nil, fmt.Errorf("unknown browser driver %q", resolved.Driver)
	}
}

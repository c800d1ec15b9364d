package browser

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/playwright-community/playwright-go"

	"github.com/pagetap/pagetap/internal/bridge"
	"github.com/pagetap/pagetap/internal/recording"
)

// PlaywrightPage drives the recording bridge through a Playwright page.
// Playwright evaluates promises to completion on its own, so the same
// page scripts serve both drivers.
type PlaywrightPage struct {
	page  playwright.Page
	cfg   recording.Config
	audit *evalAuditLogger

	inject injectGuard
}

var _ recording.PageBridge = (*PlaywrightPage)(nil)

// NewPlaywrightPage wraps an open Playwright page.
func NewPlaywrightPage(page playwright.Page, cfg recording.Config) *PlaywrightPage {
	return &PlaywrightPage{
		page:  page,
		cfg:   cfg.Resolve(),
		audit: newEvalAuditLogger(DriverPlaywright),
	}
}

// ConnectPlaywright opens a page per the resolved config, attaching over
// CDP when CDPUrl is set and launching Chromium otherwise. The returned
// close func tears down the Playwright driver.
func ConnectPlaywright(cfg ResolvedConfig) (playwright.Page, func(), error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, nil, fmt.Errorf("start playwright: %w", err)
	}

	var browser playwright.Browser
	if cfg.CDPUrl != "" {
		browser, err = pw.Chromium.ConnectOverCDP(cfg.CDPUrl)
	} else {
		opts := playwright.BrowserTypeLaunchOptions{
			Headless: playwright.Bool(cfg.Headless),
		}
		if cfg.ExecutablePath != "" {
			opts.ExecutablePath = playwright.String(cfg.ExecutablePath)
		}
		if cfg.NoSandbox {
			opts.Args = append(opts.Args, "--no-sandbox")
		}
		browser, err = pw.Chromium.Launch(opts)
	}
	if err != nil {
		_ = pw.Stop()
		return nil, nil, fmt.Errorf("connect browser: %w", err)
	}

	page, err := browser.NewPage()
	if err != nil {
		_ = browser.Close()
		_ = pw.Stop()
		return nil, nil, fmt.Errorf("open page: %w", err)
	}

	closeFn := func() {
		_ = browser.Close()
		_ = pw.Stop()
	}
	return page, closeFn, nil
}

// InjectLoader installs the loader as an init script for future
// documents and runs it in the current one. Idempotent per page;
// concurrent callers serialize through the inject guard so the init
// script registers once.
func (p *PlaywrightPage) InjectLoader(ctx context.Context) error {
	return p.inject.do(func() error {
		loader := LoaderScript(p.cfg.CDNURL)
		err := p.page.Context().AddInitScript(playwright.Script{Content: playwright.String(loader)})
		if err == nil {
			_, err = p.page.Evaluate(loader)
		}
		p.audit.logOp("inject_loader", err)
		if err != nil {
			return fmt.Errorf("add loader script: %w", err)
		}
		return nil
	})
}

func (p *PlaywrightPage) AwaitReady(ctx context.Context) (bridge.ReadyResult, error) {
	value, err := p.page.Evaluate(waitReadyScript)
	p.audit.logOp("await_ready", err)
	if err != nil {
		return bridge.ReadyResult{}, fmt.Errorf("await readiness: %w", err)
	}
	var res bridge.ReadyResult
	if err := remarshal(value, &res); err != nil {
		return bridge.ReadyResult{}, err
	}
	return res, nil
}

func (p *PlaywrightPage) StartRecording(ctx context.Context) (bridge.Status, error) {
	return p.evalStatus("start_recording", startRecordingScript)
}

func (p *PlaywrightPage) ResumeRecording(ctx context.Context) (bridge.Status, error) {
	return p.evalStatus("resume_recording", resumeRecordingScript)
}

func (p *PlaywrightPage) StatusProbe(ctx context.Context) (bridge.Status, error) {
	return p.evalStatus("status_probe", statusProbeScript)
}

func (p *PlaywrightPage) evalStatus(op, script string) (bridge.Status, error) {
	value, err := p.page.Evaluate(script)
	p.audit.logOp(op, err)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	var res bridge.StartResult
	if err := remarshal(value, &res); err != nil {
		return "", err
	}
	if res.Status == "" {
		return "", fmt.Errorf("%s: empty status from page", op)
	}
	return res.Status, nil
}

func (p *PlaywrightPage) DrainEvents(ctx context.Context) ([]json.RawMessage, error) {
	return p.evalDump("flush_events", flushEventsScript)
}

func (p *PlaywrightPage) StopAndDump(ctx context.Context) ([]json.RawMessage, error) {
	return p.evalDump("stop_recording", stopRecordingScript)
}

func (p *PlaywrightPage) evalDump(op, script string) ([]json.RawMessage, error) {
	value, err := p.page.Evaluate(script)
	p.audit.logOp(op, err)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	raw, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("%s: page returned %T, want string", op, value)
	}
	return decodeDump(raw)
}

func (p *PlaywrightPage) SetShouldRecord(ctx context.Context, v bool) error {
	value, err := p.page.Evaluate(setShouldRecordScript(v))
	p.audit.logOp("set_should_record", err)
	if err != nil {
		return fmt.Errorf("set should-record flag: %w", err)
	}
	if ok, _ := value.(bool); !ok {
		return fmt.Errorf("page denied sessionStorage access")
	}
	return nil
}

// OnNavigated invokes fn after every main-frame navigation.
func (p *PlaywrightPage) OnNavigated(fn func()) {
	p.page.OnFrameNavigated(func(frame playwright.Frame) {
		if frame.ParentFrame() != nil {
			return
		}
		go fn()
	})
}

// remarshal converts a Playwright evaluation result (maps and
// primitives) into a typed struct.
func remarshal(value any, out any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode evaluation result: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode evaluation result: %w", err)
	}
	return nil
}

package browser

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"github.com/pagetap/pagetap/internal/bridge"
	"github.com/pagetap/pagetap/internal/recording"
)

// CDPPage drives the recording bridge over raw CDP through a chromedp
// context. Every PageBridge method is one Runtime.evaluate round trip;
// the loader is registered with Page.addScriptToEvaluateOnNewDocument so
// it runs on every new document, which is how recording survives
// navigation.
type CDPPage struct {
	ctx   context.Context
	cfg   recording.Config
	audit *evalAuditLogger

	inject   injectGuard
	scriptID page.ScriptIdentifier
}

var _ recording.PageBridge = (*CDPPage)(nil)

// NewCDPPage wraps an active chromedp context.
func NewCDPPage(ctx context.Context, cfg recording.Config) *CDPPage {
	return &CDPPage{
		ctx:   ctx,
		cfg:   cfg.Resolve(),
		audit: newEvalAuditLogger(DriverChromedp),
	}
}

// run executes chromedp actions, carrying over the caller's deadline.
func (c *CDPPage) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx := c.ctx
	if deadline, ok := ctx.Deadline(); ok {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithDeadline(runCtx, deadline)
		defer cancel()
	}
	return chromedp.Run(runCtx, actions...)
}

// InjectLoader registers the loader for all new documents and runs it
// immediately in the current one. Idempotent per CDPPage; concurrent
// callers serialize through the inject guard so the script registers
// once.
func (c *CDPPage) InjectLoader(ctx context.Context) error {
	return c.inject.do(func() error {
		var id page.ScriptIdentifier
		err := c.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			id, err = page.AddScriptToEvaluateOnNewDocument(LoaderScript(c.cfg.CDNURL)).
				WithRunImmediately(true).
				Do(ctx)
			return err
		}))
		c.audit.logOp("inject_loader", err)
		if err != nil {
			return fmt.Errorf("add loader script: %w", err)
		}
		c.scriptID = id
		return nil
	})
}

func awaitPromise(p *runtime.EvaluateParams) *runtime.EvaluateParams {
	return p.WithAwaitPromise(true)
}

func (c *CDPPage) AwaitReady(ctx context.Context) (bridge.ReadyResult, error) {
	var res bridge.ReadyResult
	err := c.run(ctx, chromedp.Evaluate(waitReadyScript, &res, awaitPromise))
	c.audit.logOp("await_ready", err)
	if err != nil {
		return bridge.ReadyResult{}, fmt.Errorf("await readiness: %w", err)
	}
	return res, nil
}

func (c *CDPPage) StartRecording(ctx context.Context) (bridge.Status, error) {
	return c.evalStatus(ctx, "start_recording", startRecordingScript)
}

func (c *CDPPage) ResumeRecording(ctx context.Context) (bridge.Status, error) {
	return c.evalStatus(ctx, "resume_recording", resumeRecordingScript)
}

func (c *CDPPage) StatusProbe(ctx context.Context) (bridge.Status, error) {
	return c.evalStatus(ctx, "status_probe", statusProbeScript)
}

func (c *CDPPage) evalStatus(ctx context.Context, op, script string) (bridge.Status, error) {
	var res bridge.StartResult
	err := c.run(ctx, chromedp.Evaluate(script, &res))
	c.audit.logOp(op, err)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if res.Status == "" {
		return "", fmt.Errorf("%s: empty status from page", op)
	}
	return res.Status, nil
}

func (c *CDPPage) DrainEvents(ctx context.Context) ([]json.RawMessage, error) {
	return c.evalDump(ctx, "flush_events", flushEventsScript)
}

func (c *CDPPage) StopAndDump(ctx context.Context) ([]json.RawMessage, error) {
	return c.evalDump(ctx, "stop_recording", stopRecordingScript)
}

// evalDump evaluates a script returning a JSON-encoded {events: [...]}
// string and decodes it without inspecting the payloads.
func (c *CDPPage) evalDump(ctx context.Context, op, script string) ([]json.RawMessage, error) {
	var raw string
	err := c.run(ctx, chromedp.Evaluate(script, &raw))
	c.audit.logOp(op, err)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return decodeDump(raw)
}

func (c *CDPPage) SetShouldRecord(ctx context.Context, v bool) error {
	var ok bool
	err := c.run(ctx, chromedp.Evaluate(setShouldRecordScript(v), &ok))
	c.audit.logOp("set_should_record", err)
	if err != nil {
		return fmt.Errorf("set should-record flag: %w", err)
	}
	if !ok {
		return fmt.Errorf("page denied sessionStorage access")
	}
	return nil
}

// OnNavigated invokes fn after every top-level frame navigation. The
// callback runs on its own goroutine; chromedp's event loop must not
// block on bridge calls.
func (c *CDPPage) OnNavigated(fn func()) {
	chromedp.ListenTarget(c.ctx, func(ev any) {
		nav, ok := ev.(*page.EventFrameNavigated)
		if !ok || nav.Frame == nil || nav.Frame.ParentID != "" {
			return
		}
		go fn()
	})
}

// decodeDump parses the serialized dump produced by the page scripts.
func decodeDump(raw string) ([]json.RawMessage, error) {
	if raw == "" {
		return nil, nil
	}
	var dump bridge.Dump
	if err := json.Unmarshal([]byte(raw), &dump); err != nil {
		return nil, fmt.Errorf("decode event dump: %w", err)
	}
	return dump.Events, nil
}

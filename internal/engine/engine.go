package engine

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/reqdeck/reqdeck/internal/collection"
	"github.com/reqdeck/reqdeck/internal/globals"
	"github.com/reqdeck/reqdeck/internal/history"
	"github.com/reqdeck/reqdeck/internal/httpclient"
	"github.com/reqdeck/reqdeck/internal/scripts"
	"github.com/reqdeck/reqdeck/internal/telemetry"
	"github.com/reqdeck/reqdeck/internal/vars"
)

// Phase is one state of a send cycle. Resolving and ScriptRunning belong to
// this engine; Sending is owned by the transport.
type Phase string

const (
	PhaseIdle            Phase = "idle"
	PhaseResolving       Phase = "resolving"
	PhaseSending         Phase = "sending"
	PhaseCompleted       Phase = "completed"
	PhaseTransportFailed Phase = "transport-failed"
	PhaseScriptRunning   Phase = "script-running"
	PhaseScriptCompleted Phase = "script-completed"
	PhaseScriptFailed    Phase = "script-failed"
)

// Transport is the external collaborator that performs the HTTP exchange.
type Transport interface {
	Execute(ctx context.Context, req collection.Request) (*httpclient.Response, error)
}

// ScopeSource lists one variable collection for snapshot building. The
// Environment source reflects the active environment, the Session source the
// active session including variables derived from prior responses.
type ScopeSource interface {
	List() ([]vars.Variable, error)
}

type Options struct {
	Bridge      *globals.Bridge
	Environment ScopeSource
	Session     ScopeSource
	Transport   Transport
	Sandbox     *scripts.Sandbox
	History     *history.Store
	Telemetry   telemetry.Instrumenter
	// OnPhase, when set, is notified of phase transitions. It stops firing
	// once the send's context is cancelled (the tab was closed), though
	// in-flight global writes still apply.
	OnPhase func(Phase)
}

type Engine struct {
	opts Options
}

// Outcome is the full result of one send cycle. Script carries the sandbox
// result only when a post-script ran.
type Outcome struct {
	Resolved collection.Request
	Response *httpclient.Response
	Script   *scripts.Result
}

func New(opts Options) *Engine {
	if opts.Sandbox == nil {
		opts.Sandbox = scripts.NewSandbox(0)
	}
	if opts.Telemetry == nil {
		opts.Telemetry = telemetry.Noop()
	}
	return &Engine{opts: opts}
}

// Send runs one request through the full cycle: snapshot, resolve, transport,
// optional post-script. A transport failure returns the error; a script
// failure does not, it lands in the outcome with the response intact.
func (e *Engine) Send(ctx context.Context, req collection.Request) (*Outcome, error) {
	ctx, span := e.opts.Telemetry.Start(ctx, telemetry.SendStart{
		RequestName: req.Name,
		Method:      req.Method,
		URL:         req.URL,
	})

	e.notify(ctx, PhaseResolving)
	resolveStart := time.Now()
	snapshot, err := e.buildSnapshot()
	if err != nil {
		span.End(telemetry.SendResult{Err: err})
		return nil, err
	}
	resolved := vars.ResolveRequest(req, snapshot)
	span.Phase("resolve", time.Since(resolveStart))

	outcome := &Outcome{Resolved: resolved}

	e.notify(ctx, PhaseSending)
	resp, err := e.opts.Transport.Execute(ctx, resolved)
	if err != nil {
		e.notify(ctx, PhaseTransportFailed)
		e.record(req, outcome, err)
		span.End(telemetry.SendResult{Err: err})
		// every cycle terminates at idle, failed or not
		e.notify(ctx, PhaseIdle)
		return outcome, err
	}
	outcome.Response = resp
	e.notify(ctx, PhaseCompleted)

	script := strings.TrimSpace(req.PostScript)
	scriptFailed := false
	if script != "" {
		e.notify(ctx, PhaseScriptRunning)
		scriptStart := time.Now()
		sctx := scripts.NewContext(resp.StatusCode, resp.Header, resp.Body, resp.Duration)
		result := e.opts.Sandbox.Run(ctx, script, sctx, e.opts.Bridge)
		span.Phase("script", time.Since(scriptStart))
		outcome.Script = &result
		if result.OK() {
			e.notify(ctx, PhaseScriptCompleted)
		} else {
			scriptFailed = true
			e.notify(ctx, PhaseScriptFailed)
		}
	}

	e.record(req, outcome, nil)
	e.notify(ctx, PhaseIdle)
	span.End(telemetry.SendResult{StatusCode: resp.StatusCode, ScriptFailed: scriptFailed})
	return outcome, nil
}

// buildSnapshot flattens Global, Environment and Session fresh for this send.
func (e *Engine) buildSnapshot() (vars.Snapshot, error) {
	var global, environment, session []vars.Variable
	var err error

	if e.opts.Bridge != nil {
		if global, err = e.opts.Bridge.List(); err != nil {
			return vars.Snapshot{}, err
		}
	}
	if e.opts.Environment != nil {
		if environment, err = e.opts.Environment.List(); err != nil {
			return vars.Snapshot{}, err
		}
	}
	if e.opts.Session != nil {
		if session, err = e.opts.Session.List(); err != nil {
			return vars.Snapshot{}, err
		}
	}
	return vars.BuildSnapshot(global, environment, session), nil
}

func (e *Engine) notify(ctx context.Context, phase Phase) {
	if e.opts.OnPhase == nil || ctx.Err() != nil {
		return
	}
	e.opts.OnPhase(phase)
}

func (e *Engine) record(req collection.Request, outcome *Outcome, sendErr error) {
	if e.opts.History == nil {
		return
	}

	entry := history.Entry{
		ID:          uuid.NewString(),
		ExecutedAt:  time.Now(),
		RequestName: req.Name,
		Method:      req.Method,
		URL:         outcome.Resolved.URL,
	}
	if sendErr != nil {
		entry.Error = sendErr.Error()
	}
	if resp := outcome.Response; resp != nil {
		entry.Status = resp.Status
		entry.StatusCode = resp.StatusCode
		entry.Duration = resp.Duration
	}
	if outcome.Script != nil {
		if outcome.Script.OK() {
			entry.ScriptOutcome = "ok"
		} else {
			entry.ScriptOutcome = string(outcome.Script.Failure.Kind) + ": " + outcome.Script.Failure.Message
		}
	}

	// best effort: a history write failure must not disturb the exchange
	_ = e.opts.History.Append(entry)
}

package scripts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/dop251/goja"

	"github.com/reqdeck/reqdeck/internal/globals"
)

const DefaultTimeout = 3 * time.Second

var errScriptTimeout = errors.New("script timeout")

// Sandbox executes one post-response script per completed exchange inside a
// restricted goja runtime. The script sees exactly the fixed binding set and
// nothing else: no module system, no filesystem, no network.
type Sandbox struct {
	timeout time.Duration
}

func NewSandbox(timeout time.Duration) *Sandbox {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Sandbox{timeout: timeout}
}

// Run executes the script against one response-bound context. It never
// returns an error: syntax failures, thrown exceptions and timeouts are all
// captured into the Result, and the already-completed exchange stays valid.
// Once the run ends, by completion or interrupt, the bridge stops accepting
// calls from this script instance.
func (s *Sandbox) Run(
	ctx context.Context,
	script string,
	sctx *Context,
	bridge *globals.Bridge,
) Result {
	vm := goja.New()
	guard := &bridgeGuard{bridge: bridge}
	capture := &consoleCapture{}

	result := Result{}
	fail := func(kind FailureKind, message string) Result {
		result.Logs = capture.lines
		result.Failure = &Failure{Kind: kind, Message: message}
		return result
	}

	if err := bindConsole(vm, capture); err != nil {
		return fail(FailureRuntime, "bind console api: "+err.Error())
	}
	if err := bindResponse(vm, sctx); err != nil {
		return fail(FailureRuntime, "bind response api: "+err.Error())
	}
	if err := bindGlobals(vm, guard); err != nil {
		return fail(FailureRuntime, "bind globals api: "+err.Error())
	}

	timer := time.AfterFunc(s.timeout, func() {
		guard.close()
		vm.Interrupt(errScriptTimeout)
	})
	defer timer.Stop()

	if ctx != nil {
		if done := ctx.Done(); done != nil {
			stop := make(chan struct{})
			defer close(stop)
			go func() {
				select {
				case <-done:
					guard.close()
					vm.Interrupt(ctx.Err())
				case <-stop:
				}
			}()
		}
	}

	_, err := vm.RunString(script)
	guard.close()
	if err != nil {
		return fail(classify(ctx, err))
	}

	result.Logs = capture.lines
	return result
}

func classify(ctx context.Context, err error) (FailureKind, string) {
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		if ctx != nil && ctx.Err() != nil {
			return FailureTimeout, ctx.Err().Error()
		}
		return FailureTimeout, errScriptTimeout.Error()
	}

	var syntax *goja.CompilerSyntaxError
	if errors.As(err, &syntax) {
		return FailureSyntax, strings.TrimSpace(syntax.Error())
	}

	var exception *goja.Exception
	if errors.As(err, &exception) {
		return FailureRuntime, exception.Error()
	}
	return FailureRuntime, err.Error()
}

// bridgeGuard fences the shared bridge off from a script instance once its
// run has been terminated. An interrupted script may keep executing inside
// the VM briefly; its bridge calls after close are dropped. A nil bridge
// behaves as permanently closed.
type bridgeGuard struct {
	bridge *globals.Bridge
	closed atomic.Bool
}

func (g *bridgeGuard) close() {
	g.closed.Store(true)
}

func (g *bridgeGuard) get(key string) (string, bool) {
	if g.bridge == nil || g.closed.Load() {
		return "", false
	}
	return g.bridge.Get(key)
}

func (g *bridgeGuard) set(key, value string, description *string) error {
	if g.bridge == nil || g.closed.Load() {
		return nil
	}
	return g.bridge.Set(key, value, description)
}

type consoleCapture struct {
	lines []string
}

func (c *consoleCapture) append(level string, call goja.FunctionCall) {
	parts := make([]string, len(call.Arguments))
	for i, arg := range call.Arguments {
		parts[i] = arg.String()
	}
	c.lines = append(c.lines, fmt.Sprintf("[%s] %s", level, strings.Join(parts, " ")))
}

// Diagnostic output is captured into the result, never surfaced as a failure.
func bindConsole(vm *goja.Runtime, capture *consoleCapture) error {
	console := map[string]func(goja.FunctionCall) goja.Value{
		"log": func(call goja.FunctionCall) goja.Value {
			capture.append("log", call)
			return goja.Undefined()
		},
		"warn": func(call goja.FunctionCall) goja.Value {
			capture.append("warn", call)
			return goja.Undefined()
		},
		"error": func(call goja.FunctionCall) goja.Value {
			capture.append("error", call)
			return goja.Undefined()
		},
	}
	return vm.Set("console", console)
}

func bindResponse(vm *goja.Runtime, sctx *Context) error {
	if err := vm.Set("getData", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) == 0 || goja.IsUndefined(call.Arguments[0]) {
			return vm.ToValue(sctx.Body())
		}
		value, ok := lookupPath(sctx.Body(), call.Arguments[0].String())
		if !ok {
			return goja.Undefined()
		}
		return vm.ToValue(value)
	}); err != nil {
		return err
	}

	if err := vm.Set("getStatus", func() int {
		return sctx.Status()
	}); err != nil {
		return err
	}

	if err := vm.Set("getHeaders", func() map[string]string {
		return sctx.Headers()
	}); err != nil {
		return err
	}

	return vm.Set("getDuration", func() float64 {
		return float64(sctx.Duration()) / float64(time.Millisecond)
	})
}

func bindGlobals(vm *goja.Runtime, guard *bridgeGuard) error {
	if err := vm.Set("setGlobalVariable", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 2 {
			return goja.Undefined()
		}
		key := call.Arguments[0].String()
		value := call.Arguments[1].String()

		var description *string
		if len(call.Arguments) >= 3 && !goja.IsUndefined(call.Arguments[2]) && !goja.IsNull(call.Arguments[2]) {
			desc := call.Arguments[2].String()
			description = &desc
		}

		if err := guard.set(key, value, description); err != nil {
			panic(vm.NewGoError(err))
		}
		return goja.Undefined()
	}); err != nil {
		return err
	}

	return vm.Set("getGlobalVariable", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) == 0 {
			return goja.Null()
		}
		value, ok := guard.get(call.Arguments[0].String())
		if !ok {
			return goja.Null()
		}
		return vm.ToValue(value)
	})
}

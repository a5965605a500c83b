// Package js executes the opaque script{} blocks of behavior scripts in
// pooled v8 isolates. Each run sees a constructed context: JSON snapshots of
// the firing entities, the built-in function table, and a restricted log.
// Nothing else from the surrounding process is reachable, and every run is
// bounded by a hard wall-clock timeout.
package js

import (
	"context"
	"fmt"
	"io"
	"log"
	"runtime"
	"time"

	"rogchap.com/v8go"

	bitrealm "github.com/virgilvox/bitrealm-sub000"
)

var (
	machines chan *machine
)

func init() {
	machines = make(chan *machine, runtime.NumCPU())
	for i := 0; i < runtime.NumCPU(); i++ {
		m, err := newMachine()
		if err != nil {
			log.Panic(err)
		}
		machines <- m
	}
}

type machine struct {
	iso                    *v8go.Isolate
	unableToGenerateString *v8go.Value
}

func newMachine() (*machine, error) {
	m := &machine{
		iso: v8go.NewIsolate(),
	}
	var err error
	if m.unableToGenerateString, err = v8go.NewValue(m.iso, "unable to generate exception"); err != nil {
		return nil, bitrealm.WithStack(err)
	}
	return m, nil
}

// Callbacks maps global function names to host implementations.
type Callbacks map[string]func(rc *RunContext, info *v8go.FunctionCallbackInfo) *v8go.Value

// Target is one embedded code block prepared for execution.
type Target struct {
	Source    string
	Origin    string
	Globals   map[string]string // name -> JSON snapshot
	Callbacks Callbacks
	Console   io.Writer
}

// RunContext is handed to every callback during one run.
type RunContext struct {
	m    *machine
	t    *Target
	vctx *v8go.Context
}

func (rc *RunContext) Context() *v8go.Context {
	return rc.vctx
}

func (rc *RunContext) log(format string, args ...any) {
	if rc.t.Console != nil {
		log.New(rc.t.Console, "", 0).Printf(format, args...)
	}
}

func (rc *RunContext) String(s string) *v8go.Value {
	if res, err := v8go.NewValue(rc.m.iso, s); err == nil {
		return res
	}
	return rc.m.unableToGenerateString
}

// Throw raises a JS exception inside the run.
func (rc *RunContext) Throw(format string, args ...any) *v8go.Value {
	return rc.m.iso.ThrowException(rc.String(fmt.Sprintf(format, args...)))
}

// NewValue builds a v8 value from a Go primitive.
func (rc *RunContext) NewValue(v any) (*v8go.Value, error) {
	return v8go.NewValue(rc.m.iso, v)
}

// Number converts a callback argument leniently, the way script values
// coerce: numbers pass through, numeric strings parse, booleans become 0/1.
func (rc *RunContext) Number(val *v8go.Value) float64 {
	switch {
	case val.IsNumber():
		return val.Number()
	case val.IsBoolean():
		if val.Boolean() {
			return 1
		}
		return 0
	default:
		var f float64
		if _, err := fmt.Sscanf(val.String(), "%g", &f); err == nil {
			return f
		}
		return 0
	}
}

func logFunc(w io.Writer) func(*RunContext, *v8go.FunctionCallbackInfo) *v8go.Value {
	return func(rc *RunContext, info *v8go.FunctionCallbackInfo) *v8go.Value {
		anyArgs := []any{}
		for _, arg := range info.Args() {
			stringArg := arg.String()
			if stringArg == "[object Object]" {
				jsonArg, err := v8go.JSONStringify(rc.Context(), arg)
				if err == nil {
					stringArg = jsonArg
				}
			}
			anyArgs = append(anyArgs, stringArg)
		}
		log.New(w, "", 0).Println(anyArgs...)
		return nil
	}
}

func (rc *RunContext) addCallback(
	name string,
	f func(*RunContext, *v8go.FunctionCallbackInfo) *v8go.Value,
) error {
	return bitrealm.WithStack(
		rc.vctx.Global().Set(
			name,
			v8go.NewFunctionTemplate(
				rc.m.iso,
				func(info *v8go.FunctionCallbackInfo) *v8go.Value {
					return f(rc, info)
				},
			).GetFunction(rc.vctx),
		),
	)
}

func (rc *RunContext) prepareContext(timeout *time.Duration) error {
	for name, fun := range rc.t.Callbacks {
		if err := rc.addCallback(name, fun); err != nil {
			return bitrealm.WithStack(err)
		}
	}
	if rc.t.Console != nil {
		if err := rc.addCallback("log", logFunc(rc.t.Console)); err != nil {
			return bitrealm.WithStack(err)
		}
	}
	for name, snapshot := range rc.t.Globals {
		startTime := time.Now()
		value, err := v8go.JSONParse(rc.vctx, snapshot)
		*timeout -= time.Since(startTime)
		if err != nil {
			return bitrealm.WithStack(err)
		}
		if err := rc.vctx.Global().Set(name, value); err != nil {
			return bitrealm.WithStack(err)
		}
	}
	return nil
}

var (
	ErrTimeout = fmt.Errorf("Timeout")
)

type result struct {
	value *v8go.Value
	err   error
}

func (rc *RunContext) withTimeout(_ context.Context, f func() (*v8go.Value, error), timeout *time.Duration) (*v8go.Value, error) {
	results := make(chan result, 1)
	go func() {
		t := time.Now()
		val, err := f()
		*timeout -= time.Since(t)
		results <- result{value: val, err: err}
	}()

	select {
	case res := <-results:
		if res.err != nil {
			rc.log("-- error in %q --\n%v\n", rc.t.Origin, res.err)
		}
		return res.value, bitrealm.WithStack(res.err)
	case <-time.After(*timeout):
		rc.m.iso.TerminateExecution()
		return nil, bitrealm.WithStack(ErrTimeout)
	}
}

// Run executes the target's source once. Every run gets a fresh v8 context,
// so nothing defined by one embedded block leaks into the next.
func (t Target) Run(ctx context.Context, timeout time.Duration) (string, error) {
	m := <-machines
	defer func() { machines <- m }()

	vctx := v8go.NewContext(m.iso)
	defer vctx.Close()

	rc := &RunContext{
		m:    m,
		t:    &t,
		vctx: vctx,
	}

	if err := rc.prepareContext(&timeout); err != nil {
		return "", bitrealm.WithStack(err)
	}

	val, err := rc.withTimeout(ctx, func() (*v8go.Value, error) {
		return vctx.RunScript(t.Source, t.Origin)
	}, &timeout)
	if err != nil {
		return "", bitrealm.WithStack(err)
	}

	if val == nil || val.IsNull() || val.IsUndefined() {
		return "", nil
	}
	resultJSON, err := v8go.JSONStringify(vctx, val)
	if err != nil {
		return "", bitrealm.WithStack(err)
	}
	return resultJSON, nil
}

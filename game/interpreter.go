package game

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"time"

	cache "github.com/go-pkgz/expirable-cache/v3"
	goccy "github.com/goccy/go-json"
	"github.com/pkg/errors"

	bitrealm "github.com/virgilvox/bitrealm-sub000"
	"github.com/virgilvox/bitrealm-sub000/script"
)

// EvaluationError is a runtime failure inside one handler. It names the
// script and event so map authors can find the offending block; it never
// aborts the caller or sibling handlers.
type EvaluationError struct {
	ScriptId string
	Event    string
	Err      error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("script %q, event %q: %v", e.ScriptId, e.Event, e.Err)
}

func (e *EvaluationError) Unwrap() error {
	return e.Err
}

func (e *EvaluationError) MarshalJSON() ([]byte, error) {
	return goccy.Marshal(map[string]string{
		"scriptId": e.ScriptId,
		"event":    e.Event,
		"error":    e.Err.Error(),
	})
}

// handler is one loaded event block, tagged with its owning script.
type handler struct {
	scriptID   string
	event      string
	statements []script.Stmt
}

// Interpreter dispatches events against the loaded scripts of one room. It
// is single-threaded by contract: every entry point runs on the room's
// simulation tick thread, so no method takes a lock.
type Interpreter struct {
	room     *Room
	cfg      Config
	handlers map[string][]*handler
	vars     map[string]any
	builtins map[string]BuiltinFunc
	timers   *Timers
	stats    *Stats
	consoles *Switchboard
	compiled cache.Cache[string, *script.Script]
	errLog   *log.Logger

	// current is the handler being executed, for error attribution in
	// nested fires and embedded runs. Valid because dispatch is
	// single-threaded.
	current *handler
}

func New(room *Room, cfg Config) *Interpreter {
	in := &Interpreter{
		room:     room,
		cfg:      cfg,
		handlers: map[string][]*handler{},
		vars:     map[string]any{},
		timers:   NewTimers(),
		stats:    NewStats(),
		consoles: NewSwitchboard(),
		compiled: cache.NewCache[string, *script.Script]().
			WithMaxKeys(cfg.CompileCacheSize).
			WithTTL(cfg.CompileCacheTTL),
		errLog: cfg.errorLogger(),
	}
	in.builtins = in.builtinTable()
	return in
}

func (in *Interpreter) Room() *Room {
	return in.room
}

func (in *Interpreter) Stats() *Stats {
	return in.stats
}

func (in *Interpreter) Consoles() *Switchboard {
	return in.consoles
}

// LoadSource parses and loads one script. A parse failure leaves the
// previously loaded version of the script untouched. Re-saves of unchanged
// source skip the parser via a hash-keyed cache.
func (in *Interpreter) LoadSource(scriptID string, source string) error {
	sum := sha256.Sum256([]byte(source))
	key := hex.EncodeToString(sum[:])
	parsed, found := in.compiled.Get(key)
	if !found {
		var err error
		if parsed, err = script.Parse(source); err != nil {
			return bitrealm.WithStack(err)
		}
		in.compiled.Set(key, parsed, 0)
	}
	in.LoadScript(scriptID, parsed)
	return nil
}

// LoadScript replaces the handlers of scriptID with the blocks of s. The
// replacement drops the old handlers from their slots and appends the new
// ones at the end of each event's dispatch order.
func (in *Interpreter) LoadScript(scriptID string, s *script.Script) {
	in.removeHandlers(scriptID)
	for _, block := range s.Blocks {
		in.handlers[block.Event] = append(in.handlers[block.Event], &handler{
			scriptID:   scriptID,
			event:      block.Event,
			statements: block.Statements,
		})
	}
}

// RemoveScript unloads a script and forgets its stats.
func (in *Interpreter) RemoveScript(scriptID string) {
	in.removeHandlers(scriptID)
	in.stats.Forget(scriptID)
}

func (in *Interpreter) removeHandlers(scriptID string) {
	for event, hs := range in.handlers {
		kept := hs[:0]
		for _, h := range hs {
			if h.scriptID != scriptID {
				kept = append(kept, h)
			}
		}
		if len(kept) == 0 {
			delete(in.handlers, event)
		} else {
			in.handlers[event] = kept
		}
	}
}

// FireEvent runs every handler registered for the named event, in load
// order. A handler failure is recorded and reported but never stops the
// remaining handlers. Firing an event nobody handles is a no-op.
func (in *Interpreter) FireEvent(event string, ctx *Context) {
	if ctx == nil {
		ctx = &Context{}
	}
	if ctx.Room == nil {
		ctx.Room = in.room
	}
	if ctx.Player != nil {
		if ctx.Extra == nil {
			ctx.Extra = map[string]any{}
		}
		if _, found := ctx.Extra["playerName"]; !found {
			ctx.Extra["playerName"] = ctx.Player.Name
		}
	}
	for _, h := range in.handlers[event] {
		started := time.Now()
		err := in.runHandler(h, ctx)
		in.stats.Record(h.scriptID, event, time.Since(started), err)
		if err != nil {
			in.report(&EvaluationError{ScriptId: h.scriptID, Event: event, Err: err})
		}
	}
}

func (in *Interpreter) runHandler(h *handler, ctx *Context) (err error) {
	prev := in.current
	in.current = h
	defer func() {
		in.current = prev
		if p := recover(); p != nil {
			err = errors.Errorf("handler panic: %v", p)
		}
	}()
	return in.execAll(ctx, h.statements)
}

func (in *Interpreter) report(evalErr *EvaluationError) {
	in.errLog.Printf("%v", evalErr)
	if encoded, err := goccy.Marshal(evalErr); err == nil {
		fmt.Fprintf(in.consoles.Console(evalErr.ScriptId), "%s\n", encoded)
	}
}

// Advance pumps the deferred-action queue. The room driver calls it once
// per tick, on the same thread that fires events.
func (in *Interpreter) Advance(now time.Time) int {
	return in.timers.Advance(now)
}

// Var reads the flat variable store. All scripts in the room share it.
func (in *Interpreter) Var(name string) (any, bool) {
	val, found := in.vars[name]
	return val, found
}

// SetVar writes the flat variable store.
func (in *Interpreter) SetVar(name string, val any) {
	in.vars[name] = val
}

// Call invokes a builtin by name. Embedded code and room drivers share this
// entry point with the statement executor.
func (in *Interpreter) Call(name string, ctx *Context, args []any) (any, error) {
	if ctx == nil {
		ctx = &Context{Room: in.room}
	}
	fn, found := in.builtins[name]
	if !found {
		return nil, errors.Errorf("unknown function %q", name)
	}
	return fn(ctx, args)
}

func (in *Interpreter) execAll(ctx *Context, stmts []script.Stmt) error {
	for _, stmt := range stmts {
		if err := in.exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (in *Interpreter) exec(ctx *Context, stmt script.Stmt) error {
	switch s := stmt.(type) {
	case *script.Assign:
		val, err := in.eval(ctx, s.Value)
		if err != nil {
			return err
		}
		in.vars[s.Name] = val
		return nil
	case *script.If:
		left, err := in.eval(ctx, s.Cond.Left)
		if err != nil {
			return err
		}
		right, err := in.eval(ctx, s.Cond.Right)
		if err != nil {
			return err
		}
		if looseCompare(left, right, s.Cond.Op) {
			return in.execAll(ctx, s.Then)
		}
		return in.execAll(ctx, s.Else)
	case *script.Give:
		return in.callStmt(ctx, "giveItem", s.Target, s.Item, s.Qty)
	case *script.Warp:
		return in.callStmt(ctx, "warp", s.Target, s.Map, s.X, s.Y)
	case *script.Emit:
		return in.callStmt(ctx, "emit", s.Channel, s.Message)
	case *script.Wait:
		return in.callStmt(ctx, "wait", s.Duration)
	case *script.Embedded:
		return in.runEmbedded(ctx, s.Source)
	}
	return errors.Errorf("unknown statement %T", stmt)
}

// callStmt evaluates the operand expressions and hands them to a builtin.
func (in *Interpreter) callStmt(ctx *Context, name string, exprs ...script.Expr) error {
	args := make([]any, 0, len(exprs))
	for _, e := range exprs {
		val, err := in.eval(ctx, e)
		if err != nil {
			return err
		}
		args = append(args, val)
	}
	_, err := in.Call(name, ctx, args)
	return err
}

// eval resolves an expression against the variable store and the firing
// context. Unknown variables and unresolvable paths yield nil, not errors.
func (in *Interpreter) eval(ctx *Context, expr script.Expr) (any, error) {
	switch e := expr.(type) {
	case *script.StringLit:
		return e.Value, nil
	case *script.NumberLit:
		return e.Value, nil
	case *script.BoolLit:
		return e.Value, nil
	case *script.VarRef:
		val, _ := in.vars[e.Name]
		return val, nil
	case *script.PathRef:
		val, _ := ctx.Resolve(e.Parts)
		return val, nil
	}
	return nil, errors.Errorf("unknown expression %T", expr)
}

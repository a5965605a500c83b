package game

import (
	"context"
	"fmt"

	goccy "github.com/goccy/go-json"
	"rogchap.com/v8go"

	bitrealm "github.com/virgilvox/bitrealm-sub000"
	"github.com/virgilvox/bitrealm-sub000/js"
)

// Embedded code sees the firing context as read-only JSON snapshots and
// mutates the world only through the builtin callbacks. Writing to the
// player global inside a block changes the snapshot, not the player.

type clientSnapshot struct {
	Id string `json:"id"`
}

func snapshotJSON(v any) string {
	if v == nil {
		return "null"
	}
	encoded, err := goccy.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(encoded)
}

func (in *Interpreter) embeddedGlobals(ctx *Context) map[string]string {
	globals := map[string]string{
		"player": "null",
		"npc":    "null",
		"item":   "null",
		"client": "null",
		"room":   "null",
	}
	if ctx.Player != nil {
		globals["player"] = snapshotJSON(ctx.Player)
	}
	if ctx.NPC != nil {
		globals["npc"] = snapshotJSON(ctx.NPC)
	}
	if ctx.Item != nil {
		globals["item"] = snapshotJSON(ctx.Item)
	}
	if ctx.Client != nil {
		globals["client"] = snapshotJSON(clientSnapshot{Id: ctx.Client.Id})
	}
	if ctx.Room != nil {
		globals["room"] = snapshotJSON(ctx.Room.snapshot())
	}
	return globals
}

// goValue converts one callback argument to the interpreter's value space.
// Objects and arrays round-trip through JSON.
func goValue(rc *js.RunContext, val *v8go.Value) any {
	switch {
	case val == nil || val.IsNull() || val.IsUndefined():
		return nil
	case val.IsNumber():
		return val.Number()
	case val.IsBoolean():
		return val.Boolean()
	case val.IsString():
		return val.String()
	}
	encoded, err := v8go.JSONStringify(rc.Context(), val)
	if err != nil {
		return nil
	}
	var decoded any
	if err := goccy.Unmarshal([]byte(encoded), &decoded); err != nil {
		return nil
	}
	return decoded
}

// jsResult converts a builtin's return value back into the run. Unhandled
// shapes come back as undefined rather than failing the block.
func jsResult(rc *js.RunContext, val any) *v8go.Value {
	switch v := val.(type) {
	case nil:
		return nil
	case float64:
		if res, err := rc.NewValue(v); err == nil {
			return res
		}
	case bool:
		if res, err := rc.NewValue(v); err == nil {
			return res
		}
	case string:
		return rc.String(v)
	default:
		encoded, err := goccy.Marshal(v)
		if err != nil {
			return nil
		}
		if res, err := v8go.JSONParse(rc.Context(), string(encoded)); err == nil {
			return res
		}
	}
	return nil
}

func (in *Interpreter) embeddedCallbacks(ctx *Context) js.Callbacks {
	callbacks := js.Callbacks{}
	for name := range in.builtins {
		name := name
		callbacks[name] = func(rc *js.RunContext, info *v8go.FunctionCallbackInfo) *v8go.Value {
			args := make([]any, 0, len(info.Args()))
			for _, arg := range info.Args() {
				args = append(args, goValue(rc, arg))
			}
			res, err := in.Call(name, ctx, args)
			if err != nil {
				return rc.Throw("%s: %v", name, err)
			}
			return jsResult(rc, res)
		}
	}
	return callbacks
}

func (in *Interpreter) runEmbedded(ctx *Context, source string) error {
	origin := "embedded"
	console := in.consoles.Console("")
	if in.current != nil {
		origin = fmt.Sprintf("%s#%s", in.current.scriptID, in.current.event)
		console = in.consoles.Console(in.current.scriptID)
	}
	target := js.Target{
		Source:    source,
		Origin:    origin,
		Globals:   in.embeddedGlobals(ctx),
		Callbacks: in.embeddedCallbacks(ctx),
		Console:   console,
	}
	_, err := target.Run(context.Background(), in.cfg.EmbeddedTimeout)
	return bitrealm.WithStack(err)
}

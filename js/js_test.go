package js

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"rogchap.com/v8go"
)

func TestRunWithGlobalsAndCallbacks(t *testing.T) {
	ctx := context.Background()
	healed := 0.0
	target := Target{
		Source: `
if (player.health < player.maxHealth) {
  heal(player, player.maxHealth - player.health);
}
`,
		Origin: "TestRunWithGlobalsAndCallbacks",
		Globals: map[string]string{
			"player": `{"health": 40, "maxHealth": 100}`,
		},
		Callbacks: Callbacks{
			"heal": func(rc *RunContext, info *v8go.FunctionCallbackInfo) *v8go.Value {
				args := info.Args()
				if len(args) != 2 {
					return rc.Throw("heal takes [entity, amount] arguments")
				}
				healed = rc.Number(args[1])
				return nil
			},
		},
	}
	if _, err := target.Run(ctx, time.Second); err != nil {
		t.Fatal(err)
	}
	if healed != 60 {
		t.Errorf("got %v, want 60", healed)
	}
}

func TestRunResult(t *testing.T) {
	target := Target{
		Source: `({gold: 5 + 5})`,
		Origin: "TestRunResult",
	}
	res, err := target.Run(context.Background(), time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if res != `{"gold":10}` {
		t.Errorf("got %q, want %q", res, `{"gold":10}`)
	}
}

func TestRunIsolation(t *testing.T) {
	ctx := context.Background()
	first := Target{
		Source: `leak = 42;`,
		Origin: "TestRunIsolation1",
	}
	if _, err := first.Run(ctx, time.Second); err != nil {
		t.Fatal(err)
	}
	second := Target{
		Source: `typeof leak`,
		Origin: "TestRunIsolation2",
	}
	res, err := second.Run(ctx, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if res != `"undefined"` {
		t.Errorf("got %s, want globals from earlier runs to be unreachable", res)
	}
}

func TestRunTimeout(t *testing.T) {
	target := Target{
		Source: `for (;;) {}`,
		Origin: "TestRunTimeout",
	}
	start := time.Now()
	_, err := target.Run(context.Background(), 50*time.Millisecond)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("got %v, want ErrTimeout", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("termination took %v", elapsed)
	}
}

func TestRunJSError(t *testing.T) {
	console := &bytes.Buffer{}
	target := Target{
		Source:  `nonexistentFunction();`,
		Origin:  "TestRunJSError",
		Console: console,
	}
	_, err := target.Run(context.Background(), time.Second)
	if err == nil {
		t.Fatal("expected error")
	}
	jserr := &v8go.JSError{}
	if !errors.As(err, &jserr) {
		t.Fatalf("got %T, want *v8go.JSError", err)
	}
	if !strings.Contains(console.String(), "TestRunJSError") {
		t.Errorf("console %q should mention the origin", console.String())
	}
}

func TestRunConsoleLog(t *testing.T) {
	console := &bytes.Buffer{}
	target := Target{
		Source:  `log("picked up", {item: "gem"});`,
		Origin:  "TestRunConsoleLog",
		Console: console,
	}
	if _, err := target.Run(context.Background(), time.Second); err != nil {
		t.Fatal(err)
	}
	got := console.String()
	if !strings.Contains(got, "picked up") || !strings.Contains(got, `{"item":"gem"}`) {
		t.Errorf("got console %q", got)
	}
}

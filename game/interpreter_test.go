package game

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/virgilvox/bitrealm-sub000/structs"
)

func newTestWorld(t *testing.T) (*Interpreter, *structs.Player, *bytes.Buffer) {
	t.Helper()
	room := NewRoom("meadow")
	in := New(room, DefaultConfig())
	player, err := structs.MakePlayer("Ann")
	if err != nil {
		t.Fatal(err)
	}
	room.AddPlayer(player)
	conn := &bytes.Buffer{}
	room.AddClient(&structs.Client{Id: player.Id, Conn: conn})
	return in, player, conn
}

func mustLoad(t *testing.T, in *Interpreter, scriptID string, source string) {
	t.Helper()
	if err := in.LoadSource(scriptID, source); err != nil {
		t.Fatalf("LoadSource(%q): %v", scriptID, err)
	}
}

func TestFireEventNoHandlers(t *testing.T) {
	in, player, conn := newTestWorld(t)
	in.FireEvent("playerJoin", &Context{Player: player})
	if conn.Len() != 0 {
		t.Errorf("unhandled event produced output: %q", conn.String())
	}
}

func TestWelcomeScript(t *testing.T) {
	src := `
on playerJoin {
  if (player.level == 1) {
    give player "starter_sword" 1;
    emit "chat", "Welcome!";
  }
}
`
	t.Run("level 1 gets the sword", func(t *testing.T) {
		in, player, conn := newTestWorld(t)
		mustLoad(t, in, "welcome", src)
		client := &structs.Client{Id: player.Id, Conn: conn}
		in.FireEvent("playerJoin", &Context{Player: player, Client: client})
		if len(player.Inventory) != 1 || player.Inventory[0].ItemId != "starter_sword" || player.Inventory[0].Qty != 1 {
			t.Errorf("inventory = %+v, want one starter_sword", player.Inventory)
		}
		if !strings.Contains(conn.String(), `{"channel":"chat","message":"Welcome!"}`) {
			t.Errorf("missing chat broadcast, got %q", conn.String())
		}
	})
	t.Run("level 2 gets nothing", func(t *testing.T) {
		in, player, conn := newTestWorld(t)
		mustLoad(t, in, "welcome", src)
		player.Level = 2
		in.FireEvent("playerJoin", &Context{Player: player})
		if len(player.Inventory) != 0 {
			t.Errorf("inventory = %+v, want empty", player.Inventory)
		}
		if strings.Contains(conn.String(), "Welcome!") {
			t.Errorf("unexpected broadcast: %q", conn.String())
		}
	})
}

func TestChatSubstitution(t *testing.T) {
	in, player, conn := newTestWorld(t)
	mustLoad(t, in, "greeter", `
on playerJoin {
  emit "chat", "Hi $playerName";
}
`)
	in.FireEvent("playerJoin", &Context{Player: player})
	if !strings.Contains(conn.String(), `"message":"Hi Ann"`) {
		t.Errorf("substitution failed, got %q", conn.String())
	}
}

func TestChatSubstitutionUnknownToken(t *testing.T) {
	in, player, conn := newTestWorld(t)
	mustLoad(t, in, "greeter", `
on playerJoin {
  emit "chat", "Hi $nobody";
}
`)
	in.FireEvent("playerJoin", &Context{Player: player})
	if !strings.Contains(conn.String(), `"message":"Hi $nobody"`) {
		t.Errorf("unknown token should stay verbatim, got %q", conn.String())
	}
}

func TestWaitDoesNotSuspend(t *testing.T) {
	in, player, _ := newTestWorld(t)
	mustLoad(t, in, "delayed", `
on tick {
  wait 2;
  give player "gem" 1;
}
`)
	in.FireEvent("tick", &Context{Player: player})
	if len(player.Inventory) != 1 || player.Inventory[0].ItemId != "gem" {
		t.Errorf("statement after wait should run immediately, inventory = %+v", player.Inventory)
	}
	if in.timers.Len() != 1 {
		t.Errorf("timers = %d, want 1 scheduled entry", in.timers.Len())
	}
	if fired := in.Advance(time.Now().Add(3 * time.Second)); fired != 1 {
		t.Errorf("Advance fired %d entries, want 1", fired)
	}
}

func TestFiringOrderFollowsLoadOrder(t *testing.T) {
	in, player, _ := newTestWorld(t)
	mustLoad(t, in, "a", `
on tick {
  order = "first";
}
`)
	mustLoad(t, in, "b", `
on tick {
  order = "second";
}
`)
	in.FireEvent("tick", &Context{Player: player})
	if val, _ := in.Var("order"); val != "second" {
		t.Errorf("order = %v, want the later-loaded handler to run last", val)
	}
}

func TestVariableStoreSharedAcrossScripts(t *testing.T) {
	in, player, _ := newTestWorld(t)
	mustLoad(t, in, "writer", `
on tick {
  shared = 42;
}
`)
	mustLoad(t, in, "reader", `
on tick {
  if ($shared == 42) {
    seen = true;
  }
}
`)
	in.FireEvent("tick", &Context{Player: player})
	if val, found := in.Var("seen"); !found || val != true {
		t.Errorf("seen = %v (found %v), want true", val, found)
	}
}

func TestDollarAssignmentVisibleToDollarRead(t *testing.T) {
	in, player, _ := newTestWorld(t)
	mustLoad(t, in, "counter", `
on tick {
  $counter = 1;
  if ($counter == 1) {
    seen = true;
  }
}
`)
	in.FireEvent("tick", &Context{Player: player})
	if val, _ := in.Var("seen"); val != true {
		t.Errorf("seen = %v, want a $counter assignment to be visible to a $counter read", val)
	}
	if val, found := in.Var("counter"); !found || val != float64(1) {
		t.Errorf("counter = %v (found %v), want both spellings to share one key", val, found)
	}
}

func TestReloadReplacesHandlers(t *testing.T) {
	in, player, _ := newTestWorld(t)
	mustLoad(t, in, "greeter", `
on tick {
  version = 1;
}
`)
	mustLoad(t, in, "greeter", `
on tick {
  version = 2;
}
`)
	in.FireEvent("tick", &Context{Player: player})
	if val, _ := in.Var("version"); val != float64(2) {
		t.Errorf("version = %v, want 2 (old handlers replaced)", val)
	}
	if len(in.handlers["tick"]) != 1 {
		t.Errorf("got %d tick handlers, want 1", len(in.handlers["tick"]))
	}
}

func TestLoadSourceRejectsAtomically(t *testing.T) {
	in, player, _ := newTestWorld(t)
	mustLoad(t, in, "greeter", `
on tick {
  version = 1;
}
`)
	if err := in.LoadSource("greeter", `on tick { version = ; }`); err == nil {
		t.Fatal("broken source should fail to load")
	}
	in.FireEvent("tick", &Context{Player: player})
	if val, _ := in.Var("version"); val != float64(1) {
		t.Errorf("version = %v, want the previous script to stay loaded", val)
	}
}

func TestHandlerErrorDoesNotStopOthers(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ErrorLogPath = t.TempDir() + "/errors.log"
	in := New(NewRoom("meadow"), cfg)
	mustLoad(t, in, "broken", `
on tick {
  give hero "gem" 1;
}
`)
	mustLoad(t, in, "healthy", `
on tick {
  survived = true;
}
`)
	console := &bytes.Buffer{}
	in.Consoles().Attach("broken", console)
	in.FireEvent("tick", &Context{})
	if val, _ := in.Var("survived"); val != true {
		t.Errorf("survived = %v, want later handlers to run after a failure", val)
	}
	if !strings.Contains(console.String(), `"scriptId":"broken"`) {
		t.Errorf("console missing error report, got %q", console.String())
	}
	snap := in.Stats().Snapshot()
	if snap["broken"].Errors != 1 {
		t.Errorf("broken errors = %d, want 1", snap["broken"].Errors)
	}
	if snap["healthy"].Errors != 0 {
		t.Errorf("healthy errors = %d, want 0", snap["healthy"].Errors)
	}
}

func TestRemoveScript(t *testing.T) {
	in, player, _ := newTestWorld(t)
	mustLoad(t, in, "greeter", `
on tick {
  ran = true;
}
`)
	in.FireEvent("tick", &Context{Player: player})
	in.RemoveScript("greeter")
	in.SetVar("ran", false)
	in.FireEvent("tick", &Context{Player: player})
	if val, _ := in.Var("ran"); val != false {
		t.Errorf("ran = %v, want removed script to stay silent", val)
	}
	if _, found := in.Stats().Snapshot()["greeter"]; found {
		t.Error("stats should be forgotten on remove")
	}
}

func TestWarpStatement(t *testing.T) {
	in, player, conn := newTestWorld(t)
	mustLoad(t, in, "portal", `
on itemUse {
  warp player "dungeon" 4 8;
}
`)
	client := &structs.Client{Id: player.Id, Conn: conn}
	in.FireEvent("itemUse", &Context{Player: player, Client: client})
	if player.MapId != "dungeon" || player.X != 4 || player.Y != 8 {
		t.Errorf("player at %s (%v,%v), want dungeon (4,8)", player.MapId, player.X, player.Y)
	}
	if !strings.Contains(conn.String(), `"channel":"warp"`) {
		t.Errorf("missing warp envelope, got %q", conn.String())
	}
}

func TestPathResolutionMissingIsNil(t *testing.T) {
	in, player, _ := newTestWorld(t)
	mustLoad(t, in, "prober", `
on tick {
  if (npc.name == "Guard") {
    matched = true;
  } else {
    matched = false;
  }
}
`)
	in.FireEvent("tick", &Context{Player: player})
	if val, _ := in.Var("matched"); val != false {
		t.Errorf("matched = %v, missing path should compare unequal to a string", val)
	}
}

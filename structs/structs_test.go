package structs

import (
	"bytes"
	"testing"

	"github.com/bxcodec/faker/v4"
	"github.com/bxcodec/faker/v4/pkg/options"
)

func TestNextEntityID(t *testing.T) {
	seen := map[string]bool{}
	for range 1000 {
		id, err := NextEntityID()
		if err != nil {
			t.Fatal(err)
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}

func TestPlayerProperties(t *testing.T) {
	player := &Player{}
	if err := faker.FakeData(player, options.WithRandomMapAndSliceMaxSize(5)); err != nil {
		t.Fatal(err)
	}
	for name, want := range map[string]any{
		"id":         player.Id,
		"name":       player.Name,
		"x":          player.X,
		"health":     player.Health,
		"maxHealth":  player.MaxHealth,
		"experience": player.Experience,
		"level":      player.Level,
		"gold":       player.Gold,
	} {
		got, found := player.Property(name)
		if !found {
			t.Errorf("Property(%q): not found", name)
			continue
		}
		if got != want {
			t.Errorf("Property(%q): got %v, want %v", name, got, want)
		}
	}
	if _, found := player.Property("password"); found {
		t.Error("Property(\"password\"): unknown names must not resolve")
	}
}

func TestAddItemMergesStacks(t *testing.T) {
	player := &Player{}
	player.AddItem("gem", 2)
	player.AddItem("sword", 1)
	player.AddItem("gem", 3)
	if len(player.Inventory) != 2 {
		t.Fatalf("got %d stacks, want 2", len(player.Inventory))
	}
	if player.Inventory[0].Qty != 5 {
		t.Errorf("got qty %v, want 5", player.Inventory[0].Qty)
	}
}

func TestQuestLifecycle(t *testing.T) {
	player := &Player{}
	if !player.StartQuest("slimes") {
		t.Error("starting a fresh quest should succeed")
	}
	if player.StartQuest("slimes") {
		t.Error("starting an active quest should fail")
	}
	if player.CompleteQuest("dragons") {
		t.Error("completing an inactive quest should fail")
	}
	if !player.CompleteQuest("slimes") {
		t.Error("completing an active quest should succeed")
	}
	if player.StartQuest("slimes") {
		t.Error("restarting a completed quest should fail")
	}
	if len(player.ActiveQuests) != 0 || len(player.CompletedQuests) != 1 {
		t.Errorf("got %v/%v active/completed", player.ActiveQuests, player.CompletedQuests)
	}
}

func TestClientSend(t *testing.T) {
	buf := &bytes.Buffer{}
	client := &Client{Id: "c1", Conn: buf}
	if err := client.Send("chat", "Welcome!", nil); err != nil {
		t.Fatal(err)
	}
	want := `{"channel":"chat","message":"Welcome!"}` + "\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestClientSendNil(t *testing.T) {
	var client *Client
	if err := client.Send("chat", "dropped", nil); err != nil {
		t.Error(err)
	}
}

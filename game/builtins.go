package game

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/pkg/errors"

	"github.com/virgilvox/bitrealm-sub000/structs"
	"github.com/virgilvox/bitrealm-sub000/text"
)

// BuiltinFunc is one host-exposed operation. Statements resolve their
// operands and call these; embedded code reaches the same table by name.
type BuiltinFunc func(ctx *Context, args []any) (any, error)

func argAt(args []any, i int) any {
	if i < len(args) {
		return args[i]
	}
	return nil
}

func argNumber(args []any, i int, def float64) float64 {
	if f, ok := numberOf(argAt(args, i)); ok {
		return f
	}
	return def
}

func argString(args []any, i int) string {
	return displayString(argAt(args, i))
}

// playerArg picks the target player: an explicit *structs.Player argument,
// or the context player. Embedded code passes JS snapshots; those also fall
// through to the context player.
func playerArg(ctx *Context, args []any, i int) (*structs.Player, error) {
	if p, ok := argAt(args, i).(*structs.Player); ok {
		return p, nil
	}
	if ctx.Player != nil {
		return ctx.Player, nil
	}
	return nil, errors.Errorf("no player in context")
}

func coordOf(v any) (float64, float64, bool) {
	switch e := v.(type) {
	case structs.Properties:
		x, foundX := e.Property("x")
		y, foundY := e.Property("y")
		if !foundX || !foundY {
			return 0, 0, false
		}
		xf, okX := numberOf(x)
		yf, okY := numberOf(y)
		return xf, yf, okX && okY
	case map[string]any:
		xf, okX := numberOf(e["x"])
		yf, okY := numberOf(e["y"])
		return xf, yf, okX && okY
	}
	return 0, 0, false
}

// expToNext is the experience needed to leave the given level.
func expToNext(level float64) float64 {
	return level * 100
}

func (in *Interpreter) builtinTable() map[string]BuiltinFunc {
	return map[string]BuiltinFunc{
		"giveItem":      in.builtinGiveItem,
		"listItems":     in.builtinListItems,
		"warp":          in.builtinWarp,
		"heal":          in.builtinHeal,
		"damage":        in.builtinDamage,
		"giveExp":       in.builtinGiveExp,
		"giveGold":      in.builtinGiveGold,
		"emit":          in.builtinEmit,
		"whisper":       in.builtinWhisper,
		"spawnNPC":      in.builtinSpawnNPC,
		"spawnItem":     in.builtinSpawnItem,
		"removeNPC":     in.builtinRemoveNPC,
		"startQuest":    in.builtinStartQuest,
		"completeQuest": in.builtinCompleteQuest,
		"wait":          in.builtinWait,
		"random":        in.builtinRandom,
		"distance":      in.builtinDistance,
	}
}

func (in *Interpreter) builtinGiveItem(ctx *Context, args []any) (any, error) {
	player, err := playerArg(ctx, args, 0)
	if err != nil {
		return nil, err
	}
	itemID := argString(args, 1)
	if itemID == "" {
		return nil, errors.Errorf("giveItem needs an item id")
	}
	qty := argNumber(args, 2, 1)
	player.AddItem(itemID, qty)
	if ctx.Client != nil {
		return nil, ctx.Client.Send("whisper", fmt.Sprintf("You receive %s.", text.Quantify(qty, itemID)), nil)
	}
	return nil, nil
}

// builtinListItems whispers the player's inventory as prose, in stack
// order.
func (in *Interpreter) builtinListItems(ctx *Context, args []any) (any, error) {
	player, err := playerArg(ctx, args, 0)
	if err != nil {
		return nil, err
	}
	if ctx.Client == nil {
		return nil, errors.Errorf("no client in context")
	}
	if len(player.Inventory) == 0 {
		return nil, ctx.Client.Send("whisper", "You are carrying nothing.", nil)
	}
	stacks := make([]string, 0, len(player.Inventory))
	for _, stack := range player.Inventory {
		stacks = append(stacks, text.Quantify(stack.Qty, stack.ItemId))
	}
	return nil, ctx.Client.Send("whisper", fmt.Sprintf("You are carrying %s.", text.Enumerator{}.Do(stacks...)), nil)
}

func (in *Interpreter) builtinWarp(ctx *Context, args []any) (any, error) {
	player, err := playerArg(ctx, args, 0)
	if err != nil {
		return nil, err
	}
	player.MapId = argString(args, 1)
	player.X = argNumber(args, 2, player.X)
	player.Y = argNumber(args, 3, player.Y)
	if ctx.Client != nil {
		return nil, ctx.Client.Send("warp", player.MapId, map[string]any{
			"mapId": player.MapId,
			"x":     player.X,
			"y":     player.Y,
		})
	}
	return nil, nil
}

func (in *Interpreter) builtinHeal(ctx *Context, args []any) (any, error) {
	player, err := playerArg(ctx, args, 0)
	if err != nil {
		return nil, err
	}
	player.Health = math.Min(player.Health+argNumber(args, 1, 0), player.MaxHealth)
	return player.Health, nil
}

func (in *Interpreter) builtinDamage(ctx *Context, args []any) (any, error) {
	player, err := playerArg(ctx, args, 0)
	if err != nil {
		return nil, err
	}
	player.Health = math.Max(player.Health-argNumber(args, 1, 0), 0)
	return player.Health, nil
}

// builtinGiveExp grants experience and walks the level thresholds. Every
// level gained re-fires a levelUp event before the grant returns.
func (in *Interpreter) builtinGiveExp(ctx *Context, args []any) (any, error) {
	player, err := playerArg(ctx, args, 0)
	if err != nil {
		return nil, err
	}
	player.Experience += argNumber(args, 1, 0)
	for player.Experience >= expToNext(player.Level) {
		player.Experience -= expToNext(player.Level)
		player.Level++
		in.FireEvent("levelUp", ctx)
	}
	return player.Level, nil
}

func (in *Interpreter) builtinGiveGold(ctx *Context, args []any) (any, error) {
	player, err := playerArg(ctx, args, 0)
	if err != nil {
		return nil, err
	}
	player.Gold += argNumber(args, 1, 0)
	return player.Gold, nil
}

// builtinEmit broadcasts to the room. The "chat" channel substitutes $name
// tokens from the firing context before it goes out; any other channel is a
// generic broadcast carrying the optional data argument.
func (in *Interpreter) builtinEmit(ctx *Context, args []any) (any, error) {
	if ctx.Room == nil {
		return nil, errors.Errorf("no room in context")
	}
	channel := argString(args, 0)
	message := argString(args, 1)
	if channel == "chat" {
		message = text.Substitute(message, ctx.lookupString)
	}
	return nil, ctx.Room.Broadcast(channel, message, argAt(args, 2))
}

func (in *Interpreter) builtinWhisper(ctx *Context, args []any) (any, error) {
	if ctx.Client == nil {
		return nil, errors.Errorf("no client in context")
	}
	return nil, ctx.Client.Send("whisper", argString(args, 1), nil)
}

func (in *Interpreter) builtinSpawnNPC(ctx *Context, args []any) (any, error) {
	if ctx.Room == nil {
		return nil, errors.Errorf("no room in context")
	}
	npc, err := ctx.Room.SpawnNPC(argString(args, 0), argString(args, 1), argNumber(args, 2, 0), argNumber(args, 3, 0))
	if err != nil {
		return nil, err
	}
	return npc.Id, nil
}

func (in *Interpreter) builtinSpawnItem(ctx *Context, args []any) (any, error) {
	if ctx.Room == nil {
		return nil, errors.Errorf("no room in context")
	}
	item, err := ctx.Room.SpawnItem(argString(args, 0), argNumber(args, 1, 0), argNumber(args, 2, 0), argNumber(args, 3, 1))
	if err != nil {
		return nil, err
	}
	return item.Id, nil
}

func (in *Interpreter) builtinRemoveNPC(ctx *Context, args []any) (any, error) {
	if ctx.Room == nil {
		return nil, errors.Errorf("no room in context")
	}
	return ctx.Room.RemoveNPC(argString(args, 0)), nil
}

func (in *Interpreter) builtinStartQuest(ctx *Context, args []any) (any, error) {
	player, err := playerArg(ctx, args, 0)
	if err != nil {
		return nil, err
	}
	return player.StartQuest(argString(args, 1)), nil
}

// builtinCompleteQuest completes an active quest and re-fires a
// questComplete event on success.
func (in *Interpreter) builtinCompleteQuest(ctx *Context, args []any) (any, error) {
	player, err := playerArg(ctx, args, 0)
	if err != nil {
		return nil, err
	}
	questID := argString(args, 1)
	if !player.CompleteQuest(questID) {
		return false, nil
	}
	in.FireEvent("questComplete", ctx)
	return true, nil
}

// builtinWait schedules a deferred entry. It does not suspend anything: the
// caller's next statement runs immediately.
func (in *Interpreter) builtinWait(ctx *Context, args []any) (any, error) {
	seconds := argNumber(args, 0, 0)
	in.timers.Schedule(time.Now().Add(time.Duration(seconds*float64(time.Second))), nil)
	return nil, nil
}

func (in *Interpreter) builtinRandom(ctx *Context, args []any) (any, error) {
	min := argNumber(args, 0, 0)
	max := argNumber(args, 1, 1)
	if max < min {
		min, max = max, min
	}
	return min + rand.Float64()*(max-min), nil
}

func (in *Interpreter) builtinDistance(ctx *Context, args []any) (any, error) {
	ax, ay, okA := coordOf(argAt(args, 0))
	bx, by, okB := coordOf(argAt(args, 1))
	if !okA || !okB {
		return nil, errors.Errorf("distance needs two positioned entities")
	}
	return math.Hypot(ax-bx, ay-by), nil
}

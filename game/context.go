package game

import (
	"strconv"

	"github.com/virgilvox/bitrealm-sub000/structs"
)

// Context is the set of live entities passed into a firing event. Player is
// usually present; the rest depend on the event (npcInteract carries an NPC,
// itemUse an item, and so on). Extra holds event-specific values reachable
// by bare identifiers, like the playerName used by chat substitution.
type Context struct {
	Player *structs.Player
	NPC    *structs.NPC
	Item   *structs.Item
	Client *structs.Client
	Room   *Room
	Extra  map[string]any
}

func (c *Context) root(name string) (any, bool) {
	switch name {
	case "player":
		if c.Player != nil {
			return c.Player, true
		}
		return nil, false
	case "npc":
		if c.NPC != nil {
			return c.NPC, true
		}
		return nil, false
	case "item":
		if c.Item != nil {
			return c.Item, true
		}
		return nil, false
	case "client":
		if c.Client != nil {
			return c.Client, true
		}
		return nil, false
	case "room":
		if c.Room != nil {
			return c.Room, true
		}
		return nil, false
	}
	if c.Extra != nil {
		val, found := c.Extra[name]
		return val, found
	}
	return nil, false
}

// Resolve walks a dotted path by successive property lookups. Missing names
// resolve to (nil, false); they are not errors.
func (c *Context) Resolve(parts []string) (any, bool) {
	if len(parts) == 0 {
		return nil, false
	}
	cur, found := c.root(parts[0])
	if !found {
		return nil, false
	}
	for _, name := range parts[1:] {
		switch v := cur.(type) {
		case structs.Properties:
			cur, found = v.Property(name)
		case map[string]any:
			cur, found = v[name]
		default:
			return nil, false
		}
		if !found {
			return nil, false
		}
	}
	return cur, true
}

// lookupString resolves a substitution token: context values first, then
// player properties, so both $playerName and $gold work in chat messages.
func (c *Context) lookupString(name string) (string, bool) {
	if val, found := c.root(name); found {
		return displayString(val), true
	}
	if c.Player != nil {
		if val, found := c.Player.Property(name); found {
			return displayString(val), true
		}
	}
	return "", false
}

// displayString renders a script value for players: numbers drop trailing
// zeroes, absent values render empty.
func displayString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

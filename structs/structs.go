package structs

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/binary"
	"io"

	goccy "github.com/goccy/go-json"

	bitrealm "github.com/virgilvox/bitrealm-sub000"
)

var (
	lastEntityCounter uint64 = 0
	encoding                 = base64.StdEncoding.WithPadding(base64.NoPadding)
)

const (
	entityIDLen = 16
)

// NextEntityID returns a sortable, collision-resistant entity id: a
// monotonic nanosecond timestamp followed by random bytes.
func NextEntityID() (string, error) {
	entityCounter := bitrealm.Increment(&lastEntityCounter)
	timeSize := binary.Size(entityCounter)
	result := make([]byte, entityIDLen)
	binary.BigEndian.PutUint64(result, entityCounter)
	if _, err := rand.Read(result[timeSize:]); err != nil {
		return "", bitrealm.WithStack(err)
	}
	return encoding.EncodeToString(result), nil
}

// Properties is implemented by everything the evaluator can reach through a
// dotted path. Missing names resolve to (nil, false) rather than an error.
type Properties interface {
	Property(name string) (any, bool)
}

// InventoryItem is one stack in a player inventory.
type InventoryItem struct {
	ItemId string  `json:"itemId"`
	Qty    float64 `json:"qty"`
}

// Player is the mutable player entity handed to firing events.
type Player struct {
	Id              string          `json:"id"`
	Name            string          `json:"name"`
	MapId           string          `json:"mapId"`
	X               float64         `json:"x"`
	Y               float64         `json:"y"`
	Health          float64         `json:"health"`
	MaxHealth       float64         `json:"maxHealth"`
	Experience      float64         `json:"experience"`
	Level           float64         `json:"level"`
	Gold            float64         `json:"gold"`
	Inventory       []InventoryItem `json:"inventory"`
	ActiveQuests    []string        `json:"activeQuests"`
	CompletedQuests []string        `json:"completedQuests"`
}

func MakePlayer(name string) (*Player, error) {
	id, err := NextEntityID()
	if err != nil {
		return nil, bitrealm.WithStack(err)
	}
	return &Player{
		Id:        id,
		Name:      name,
		Health:    100,
		MaxHealth: 100,
		Level:     1,
	}, nil
}

func (p *Player) Property(name string) (any, bool) {
	switch name {
	case "id":
		return p.Id, true
	case "name":
		return p.Name, true
	case "mapId":
		return p.MapId, true
	case "x":
		return p.X, true
	case "y":
		return p.Y, true
	case "health":
		return p.Health, true
	case "maxHealth":
		return p.MaxHealth, true
	case "experience":
		return p.Experience, true
	case "level":
		return p.Level, true
	case "gold":
		return p.Gold, true
	case "inventory":
		return p.Inventory, true
	case "activeQuests":
		return p.ActiveQuests, true
	case "completedQuests":
		return p.CompletedQuests, true
	}
	return nil, false
}

// AddItem merges qty into an existing stack or appends a new one.
func (p *Player) AddItem(itemID string, qty float64) {
	for i := range p.Inventory {
		if p.Inventory[i].ItemId == itemID {
			p.Inventory[i].Qty += qty
			return
		}
	}
	p.Inventory = append(p.Inventory, InventoryItem{ItemId: itemID, Qty: qty})
}

// StartQuest adds questID to the active set. Returns false if the quest is
// already active or completed.
func (p *Player) StartQuest(questID string) bool {
	for _, id := range p.ActiveQuests {
		if id == questID {
			return false
		}
	}
	for _, id := range p.CompletedQuests {
		if id == questID {
			return false
		}
	}
	p.ActiveQuests = append(p.ActiveQuests, questID)
	return true
}

// CompleteQuest moves questID from active to completed. Returns false if the
// quest was not active.
func (p *Player) CompleteQuest(questID string) bool {
	for i, id := range p.ActiveQuests {
		if id == questID {
			p.ActiveQuests = append(p.ActiveQuests[:i], p.ActiveQuests[i+1:]...)
			p.CompletedQuests = append(p.CompletedQuests, questID)
			return true
		}
	}
	return false
}

// NPC is a non-player entity.
type NPC struct {
	Id        string  `json:"id"`
	Name      string  `json:"name"`
	Sprite    string  `json:"sprite"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Health    float64 `json:"health"`
	MaxHealth float64 `json:"maxHealth"`
}

func (n *NPC) Property(name string) (any, bool) {
	switch name {
	case "id":
		return n.Id, true
	case "name":
		return n.Name, true
	case "sprite":
		return n.Sprite, true
	case "x":
		return n.X, true
	case "y":
		return n.Y, true
	case "health":
		return n.Health, true
	case "maxHealth":
		return n.MaxHealth, true
	}
	return nil, false
}

// Item is a world item (on the ground or referenced by an itemUse event).
type Item struct {
	Id   string  `json:"id"`
	Name string  `json:"name"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Qty  float64 `json:"qty"`
}

func (i *Item) Property(name string) (any, bool) {
	switch name {
	case "id":
		return i.Id, true
	case "name":
		return i.Name, true
	case "x":
		return i.X, true
	case "y":
		return i.Y, true
	case "qty":
		return i.Qty, true
	}
	return nil, false
}

// Envelope is the wire format of every message sent to clients.
type Envelope struct {
	Channel string `json:"channel"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Client is a handle usable for single-recipient messaging. The transport
// behind Conn is owned by the room layer.
type Client struct {
	Id   string
	Conn io.Writer
}

// Send writes one JSON-encoded envelope line to the client.
func (c *Client) Send(channel string, message string, data any) error {
	if c == nil || c.Conn == nil {
		return nil
	}
	b, err := goccy.Marshal(Envelope{Channel: channel, Message: message, Data: data})
	if err != nil {
		return bitrealm.WithStack(err)
	}
	if _, err := c.Conn.Write(append(b, '\n')); err != nil {
		return bitrealm.WithStack(err)
	}
	return nil
}

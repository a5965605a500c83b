package game

import (
	bitrealm "github.com/virgilvox/bitrealm-sub000"
	"github.com/virgilvox/bitrealm-sub000/structs"
)

// Room is the slice of world state one interpreter instance serves: entity
// maps and the broadcast primitive. All mutation happens on the simulation
// tick thread.
type Room struct {
	Id      string
	Players map[string]*structs.Player
	NPCs    map[string]*structs.NPC
	Items   map[string]*structs.Item
	clients *Fanout
}

func NewRoom(id string) *Room {
	return &Room{
		Id:      id,
		Players: map[string]*structs.Player{},
		NPCs:    map[string]*structs.NPC{},
		Items:   map[string]*structs.Item{},
	}
}

func (r *Room) AddClient(c *structs.Client) {
	r.clients = r.clients.Push(c)
}

func (r *Room) RemoveClient(c *structs.Client) {
	r.clients = r.clients.Drop(c)
}

// Broadcast sends one envelope to every connected client.
func (r *Room) Broadcast(channel string, message string, data any) error {
	return bitrealm.WithStack(r.clients.Send(channel, message, data))
}

func (r *Room) AddPlayer(p *structs.Player) {
	r.Players[p.Id] = p
}

func (r *Room) RemovePlayer(id string) {
	delete(r.Players, id)
}

func (r *Room) SpawnNPC(name string, sprite string, x, y float64) (*structs.NPC, error) {
	id, err := structs.NextEntityID()
	if err != nil {
		return nil, bitrealm.WithStack(err)
	}
	npc := &structs.NPC{
		Id:        id,
		Name:      name,
		Sprite:    sprite,
		X:         x,
		Y:         y,
		Health:    100,
		MaxHealth: 100,
	}
	r.NPCs[id] = npc
	return npc, nil
}

func (r *Room) SpawnItem(name string, x, y, qty float64) (*structs.Item, error) {
	id, err := structs.NextEntityID()
	if err != nil {
		return nil, bitrealm.WithStack(err)
	}
	item := &structs.Item{
		Id:   id,
		Name: name,
		X:    x,
		Y:    y,
		Qty:  qty,
	}
	r.Items[id] = item
	return item, nil
}

func (r *Room) RemoveNPC(id string) bool {
	if _, found := r.NPCs[id]; !found {
		return false
	}
	delete(r.NPCs, id)
	return true
}

// Property lets scripts read room facts through dotted paths (room.id,
// room.playerCount).
func (r *Room) Property(name string) (any, bool) {
	switch name {
	case "id":
		return r.Id, true
	case "playerCount":
		return float64(len(r.Players)), true
	case "npcCount":
		return float64(len(r.NPCs)), true
	case "itemCount":
		return float64(len(r.Items)), true
	case "clientCount":
		return float64(r.clients.Len()), true
	}
	return nil, false
}

// snapshot is the bounded view of the room handed to embedded code.
type roomSnapshot struct {
	Id          string  `json:"id"`
	PlayerCount float64 `json:"playerCount"`
	NPCCount    float64 `json:"npcCount"`
	ItemCount   float64 `json:"itemCount"`
}

func (r *Room) snapshot() roomSnapshot {
	return roomSnapshot{
		Id:          r.Id,
		PlayerCount: float64(len(r.Players)),
		NPCCount:    float64(len(r.NPCs)),
		ItemCount:   float64(len(r.Items)),
	}
}

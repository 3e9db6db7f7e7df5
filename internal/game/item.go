package game

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pixil98/go-errors"
	"golang.org/x/text/cases"
)

// ItemID identifies an item in the durable store.
type ItemID int64

// OwnerKind tags who currently owns an item.
type OwnerKind int

const (
	// OwnerNone is the invalid orphan state. No committed item may be in it.
	OwnerNone OwnerKind = iota
	OwnerRoom
	OwnerPlayer
)

// Owner is the disjoint ownership tag of an item: either a room or a player, never both.
type Owner struct {
	kind   OwnerKind
	room   RoomID
	player PlayerID
}

// InRoom returns an owner tag placing an item in room r.
func InRoom(r RoomID) Owner {
	return Owner{kind: OwnerRoom, room: r}
}

// HeldBy returns an owner tag placing an item in the inventory of player p.
func HeldBy(p PlayerID) Owner {
	return Owner{kind: OwnerPlayer, player: p}
}

func (o Owner) Kind() OwnerKind {
	return o.kind
}

// Room returns the owning room, if the item is in a room.
func (o Owner) Room() (RoomID, bool) {
	return o.room, o.kind == OwnerRoom
}

// Player returns the holding player, if the item is held.
func (o Owner) Player() (PlayerID, bool) {
	return o.player, o.kind == OwnerPlayer
}

// Valid reports whether the tag names exactly one owner.
func (o Owner) Valid() bool {
	switch o.kind {
	case OwnerRoom:
		return o.room != ""
	case OwnerPlayer:
		return o.player != 0
	default:
		return false
	}
}

func (o Owner) String() string {
	switch o.kind {
	case OwnerRoom:
		return fmt.Sprintf("room %s", o.room)
	case OwnerPlayer:
		return fmt.Sprintf("player %d", o.player)
	default:
		return "nobody"
	}
}

// Stats are the additive combat attributes shared by players and item bonuses.
type Stats struct {
	Strength int `json:"strength"`
	Defense  int `json:"defense"`
	Agility  int `json:"agility"`
}

// Add returns the sum of s and o.
func (s Stats) Add(o Stats) Stats {
	return Stats{
		Strength: s.Strength + o.Strength,
		Defense:  s.Defense + o.Defense,
		Agility:  s.Agility + o.Agility,
	}
}

// IsZero reports whether every stat is zero.
func (s Stats) IsZero() bool {
	return s == Stats{}
}

const (
	EffectNone = ""
	EffectHeal = "heal"
)

// UseEffect is what happens when an item is used.
type UseEffect struct {
	Kind   string `json:"kind,omitempty"`
	Amount int    `json:"amount,omitempty"`
}

// Item is an object in the world. Its Owner is authoritative only in the durable store.
type Item struct {
	Id                  ItemID    `json:"id"`
	Name                string    `json:"name"`
	Description         string    `json:"description,omitempty"`
	DetailedDescription string    `json:"detailed_description,omitempty"`
	Bonus               Stats     `json:"bonus"`
	Effect              UseEffect `json:"effect"`
	Owner               Owner     `json:"-"`
}

// MatchName reports whether name refers to this item, ignoring case.
func (i *Item) MatchName(name string) bool {
	return SameName(i.Name, name)
}

// SameName compares two in-world names under Unicode case folding.
func SameName(a, b string) bool {
	fold := cases.Fold()
	return fold.String(strings.TrimSpace(a)) == fold.String(strings.TrimSpace(b))
}

// Part is a named, examinable piece of an item (the blade of a sword).
type Part struct {
	Item        Item
	Name        string
	Description string
}

// MarshalJSON includes the ownership tag as room_id/holder_id, at most one of which is set.
func (i Item) MarshalJSON() ([]byte, error) {
	type alias Item
	out := struct {
		alias
		RoomId   RoomID   `json:"room_id,omitempty"`
		HolderId PlayerID `json:"holder_id,omitempty"`
	}{alias: alias(i)}
	if r, ok := i.Owner.Room(); ok {
		out.RoomId = r
	}
	if p, ok := i.Owner.Player(); ok {
		out.HolderId = p
	}
	return json.Marshal(out)
}

// Validate satisfies storage.ValidatingSpec.
func (i *Item) Validate() error {
	el := errors.NewErrorList()

	if i.Name == "" {
		el.Add(fmt.Errorf("item name is required"))
	}
	switch i.Effect.Kind {
	case EffectNone:
	case EffectHeal:
		if i.Effect.Amount <= 0 {
			el.Add(fmt.Errorf("heal effect amount must be positive"))
		}
	default:
		el.Add(fmt.Errorf("unknown use effect %q", i.Effect.Kind))
	}

	return el.Err()
}

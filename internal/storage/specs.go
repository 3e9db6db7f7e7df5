package storage

import (
	"fmt"
	"strconv"

	"github.com/pixil98/go-errors"
	"github.com/pixil98/mudsync/internal/game"
)

// ItemSpec is the authored form of an item, including where it starts.
type ItemSpec struct {
	Name                string            `json:"name"`
	Description         string            `json:"description,omitempty"`
	DetailedDescription string            `json:"detailed_description,omitempty"`
	Bonus               game.Stats        `json:"bonus"`
	Effect              game.UseEffect    `json:"effect"`
	RoomId              game.RoomID       `json:"room_id,omitempty"`
	HolderId            game.PlayerID     `json:"holder_id,omitempty"`
	Parts               map[string]string `json:"parts,omitempty"`
}

// Validate satisfies ValidatingSpec. An item must start in exactly one place.
func (s *ItemSpec) Validate() error {
	el := errors.NewErrorList()

	item := s.item(0)
	el.Add(item.Validate())

	if s.RoomId == "" && s.HolderId == 0 {
		el.Add(fmt.Errorf("item must have a room_id or a holder_id"))
	}
	if s.RoomId != "" && s.HolderId != 0 {
		el.Add(fmt.Errorf("item cannot have both a room_id and a holder_id"))
	}

	return el.Err()
}

// Item converts the spec to a game item with the given id.
func (s *ItemSpec) Item(id Identifier) (game.Item, error) {
	n, err := strconv.ParseInt(string(id), 10, 64)
	if err != nil || n <= 0 {
		return game.Item{}, fmt.Errorf("item id %q must be a positive integer", id)
	}
	return s.item(game.ItemID(n)), nil
}

func (s *ItemSpec) item(id game.ItemID) game.Item {
	item := game.Item{
		Id:                  id,
		Name:                s.Name,
		Description:         s.Description,
		DetailedDescription: s.DetailedDescription,
		Bonus:               s.Bonus,
		Effect:              s.Effect,
	}
	if s.RoomId != "" {
		item.Owner = game.InRoom(s.RoomId)
	} else if s.HolderId != 0 {
		item.Owner = game.HeldBy(s.HolderId)
	}
	return item
}

// PlayerSpec is the authored form of a player account.
type PlayerSpec struct {
	Username     string      `json:"username"`
	PasswordHash string      `json:"password_hash"`
	Health       int         `json:"health"`
	Level        int         `json:"level"`
	Stats        game.Stats  `json:"stats"`
	RoomId       game.RoomID `json:"current_room_id"`
}

// Validate satisfies ValidatingSpec.
func (s *PlayerSpec) Validate() error {
	el := errors.NewErrorList()

	p := s.player(0)
	el.Add(p.Validate())
	if s.PasswordHash == "" {
		el.Add(fmt.Errorf("password_hash is required"))
	}

	return el.Err()
}

// Player converts the spec to a game player with the given id.
func (s *PlayerSpec) Player(id Identifier) (game.Player, error) {
	pid, err := game.ParsePlayerID(string(id))
	if err != nil {
		return game.Player{}, err
	}
	return s.player(pid), nil
}

func (s *PlayerSpec) player(id game.PlayerID) game.Player {
	return game.Player{
		Id:       id,
		Username: s.Username,
		Health:   s.Health,
		Level:    s.Level,
		Stats:    s.Stats,
		RoomId:   s.RoomId,
	}
}

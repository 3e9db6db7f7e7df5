package game

import (
	"fmt"
	"strconv"

	"github.com/pixil98/go-errors"
)

// MaxHealth caps health restored by use effects.
const MaxHealth = 100

// PlayerID identifies a player in the durable store.
type PlayerID int64

func (id PlayerID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// ParsePlayerID parses a decimal player id.
func ParsePlayerID(s string) (PlayerID, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid player id %q", s)
	}
	return PlayerID(n), nil
}

// Player is the durable record of a player. The durable store is authoritative.
type Player struct {
	Id       PlayerID `json:"id"`
	Username string   `json:"username"`
	Health   int      `json:"health"`
	Level    int      `json:"level"`
	Stats
	RoomId RoomID `json:"current_room_id"`
}

// Validate satisfies storage.ValidatingSpec.
func (p *Player) Validate() error {
	el := errors.NewErrorList()

	if p.Username == "" {
		el.Add(fmt.Errorf("username is required"))
	}
	if p.RoomId == "" {
		el.Add(fmt.Errorf("current_room_id is required"))
	}
	if p.Health < 0 || p.Health > MaxHealth {
		el.Add(fmt.Errorf("health must be between 0 and %d", MaxHealth))
	}

	return el.Err()
}

package game

import (
	"fmt"
	"strings"

	"github.com/pixil98/go-errors"
)

// RoomID is the structured coordinate-like key of a room (e.g. "+0000+0000+0000+0001").
type RoomID string

func (id RoomID) String() string {
	return string(id)
}

// Direction is one of the four compass exits a room can have.
type Direction string

const (
	North Direction = "north"
	South Direction = "south"
	East  Direction = "east"
	West  Direction = "west"
)

// Valid reports whether d is one of the four canonical directions.
func (d Direction) Valid() bool {
	switch d {
	case North, South, East, West:
		return true
	}
	return false
}

// Directions lists exits in canonical display order.
var Directions = []Direction{North, South, East, West}

// ParseDirection accepts a full direction name or its first letter.
func ParseDirection(s string) (Direction, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "north", "n":
		return North, true
	case "south", "s":
		return South, true
	case "east", "e":
		return East, true
	case "west", "w":
		return West, true
	default:
		return "", false
	}
}

// Room is a location in the room graph. Rooms are immutable once authored.
type Room struct {
	Id                  RoomID               `json:"id"`
	Description         string               `json:"description"`
	DetailedDescription string               `json:"detailed_description,omitempty"`
	Exits               map[Direction]RoomID `json:"exits,omitempty"`
}

// Exit returns the destination of the exit in direction d. An absent exit is not an error.
func (r *Room) Exit(d Direction) (RoomID, bool) {
	id, ok := r.Exits[d]
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

// ExitDirections returns the available exits in canonical order.
func (r *Room) ExitDirections() []Direction {
	var dirs []Direction
	for _, d := range Directions {
		if _, ok := r.Exit(d); ok {
			dirs = append(dirs, d)
		}
	}
	return dirs
}

// Validate satisfies storage.ValidatingSpec.
func (r *Room) Validate() error {
	el := errors.NewErrorList()

	if r.Description == "" {
		el.Add(fmt.Errorf("room description is required"))
	}

	for dir, dest := range r.Exits {
		if !dir.Valid() {
			el.Add(fmt.Errorf("exit %q: unknown direction", dir))
		}
		if dest == "" {
			el.Add(fmt.Errorf("exit %s: room id is required", dir))
		}
		if dest == r.Id && r.Id != "" {
			el.Add(fmt.Errorf("exit %s: room cannot lead to itself", dir))
		}
	}

	return el.Err()
}

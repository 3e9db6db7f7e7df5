package storage

import (
	"context"
	"fmt"

	"github.com/pixil98/go-errors"
	"github.com/pixil98/mudsync/internal/game"
)

// Seeder is the write surface a durable store exposes for world authoring.
type Seeder interface {
	UpsertRoom(ctx context.Context, r game.Room) error
	UpsertPlayer(ctx context.Context, p game.Player, passwordHash string) error
	UpsertItem(ctx context.Context, i game.Item, parts map[string]string) error
}

// World is a full set of authored assets.
type World struct {
	Rooms   Storer[*game.Room]
	Items   Storer[*ItemSpec]
	Players Storer[*PlayerSpec]
}

// LoadWorld reads rooms, items and players from their asset directories.
func LoadWorld(roomsPath, itemsPath, playersPath string) (*World, error) {
	rooms, err := NewFileStore[*game.Room](roomsPath)
	if err != nil {
		return nil, fmt.Errorf("loading rooms: %w", err)
	}
	items, err := NewFileStore[*ItemSpec](itemsPath)
	if err != nil {
		return nil, fmt.Errorf("loading items: %w", err)
	}
	players, err := NewFileStore[*PlayerSpec](playersPath)
	if err != nil {
		return nil, fmt.Errorf("loading players: %w", err)
	}
	return &World{Rooms: rooms, Items: items, Players: players}, nil
}

// Validate checks references between assets. Every exit, start room and holder must exist.
func (w *World) Validate() error {
	el := errors.NewErrorList()

	rooms := w.Rooms.GetAll()
	players := w.Players.GetAll()

	for id, r := range rooms {
		for dir, dest := range r.Exits {
			if _, ok := rooms[Identifier(dest)]; !ok {
				el.Add(fmt.Errorf("room %s: exit %s leads to unknown room %s", id, dir, dest))
			}
		}
	}

	for id, p := range players {
		if _, ok := rooms[Identifier(p.RoomId)]; !ok {
			el.Add(fmt.Errorf("player %s: unknown room %s", id, p.RoomId))
		}
	}

	for id, i := range w.Items.GetAll() {
		if i.RoomId != "" {
			if _, ok := rooms[Identifier(i.RoomId)]; !ok {
				el.Add(fmt.Errorf("item %s: unknown room %s", id, i.RoomId))
			}
		}
		if i.HolderId != 0 {
			if _, ok := players[Identifier(i.HolderId.String())]; !ok {
				el.Add(fmt.Errorf("item %s: unknown holder %d", id, i.HolderId))
			}
		}
	}

	return el.Err()
}

// Seed writes every asset into dst. Rooms go first, then players, then items.
func (w *World) Seed(ctx context.Context, dst Seeder) error {
	if err := w.Validate(); err != nil {
		return fmt.Errorf("validating world: %w", err)
	}

	for id, r := range w.Rooms.GetAll() {
		room := *r
		room.Id = game.RoomID(id)
		if err := dst.UpsertRoom(ctx, room); err != nil {
			return fmt.Errorf("seeding room %s: %w", id, err)
		}
	}

	for id, spec := range w.Players.GetAll() {
		p, err := spec.Player(id)
		if err != nil {
			return fmt.Errorf("seeding player %s: %w", id, err)
		}
		if err := dst.UpsertPlayer(ctx, p, spec.PasswordHash); err != nil {
			return fmt.Errorf("seeding player %s: %w", id, err)
		}
	}

	for id, spec := range w.Items.GetAll() {
		item, err := spec.Item(id)
		if err != nil {
			return fmt.Errorf("seeding item %s: %w", id, err)
		}
		if err := dst.UpsertItem(ctx, item, spec.Parts); err != nil {
			return fmt.Errorf("seeding item %s: %w", id, err)
		}
	}

	return nil
}

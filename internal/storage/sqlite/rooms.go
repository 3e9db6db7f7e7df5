package sqlite

import (
	"context"

	"github.com/pixil98/mudsync/internal/game"
)

// GetRoom loads one room by id.
func (s *Store) GetRoom(ctx context.Context, id game.RoomID) (game.Room, error) {
	var (
		r                        game.Room
		north, south, east, west string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, description, detailed_description, north_room_id, south_room_id, east_room_id, west_room_id
		 FROM rooms WHERE id = ?`, string(id),
	).Scan(&r.Id, &r.Description, &r.DetailedDescription, &north, &south, &east, &west)
	if err != nil {
		return game.Room{}, classify("get room "+id.String(), err)
	}

	r.Exits = map[game.Direction]game.RoomID{}
	for dir, dest := range map[game.Direction]string{game.North: north, game.South: south, game.East: east, game.West: west} {
		if dest != "" {
			r.Exits[dir] = game.RoomID(dest)
		}
	}
	return r, nil
}

// UpsertRoom writes an authored room.
func (s *Store) UpsertRoom(ctx context.Context, r game.Room) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO rooms (id, description, detailed_description, north_room_id, south_room_id, east_room_id, west_room_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   description = excluded.description,
		   detailed_description = excluded.detailed_description,
		   north_room_id = excluded.north_room_id,
		   south_room_id = excluded.south_room_id,
		   east_room_id = excluded.east_room_id,
		   west_room_id = excluded.west_room_id`,
		string(r.Id), r.Description, r.DetailedDescription,
		string(r.Exits[game.North]), string(r.Exits[game.South]),
		string(r.Exits[game.East]), string(r.Exits[game.West]),
	)
	return classify("upsert room "+r.Id.String(), err)
}

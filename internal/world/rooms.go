package world

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pixil98/mudsync/internal/cache"
	"github.com/pixil98/mudsync/internal/game"
	"github.com/pixil98/mudsync/internal/metrics"
)

const (
	fieldDescription         = "description"
	fieldDetailedDescription = "detailed_description"
)

func exitField(d game.Direction) string {
	return string(d) + "_room_id"
}

// RoomGraph resolves rooms cache-aside: a miss reads the durable store and populates the cache.
//
// Entries are written once and never invalidated or expired. This is only correct while rooms are
// immutable after authoring; live room editing would need invalidation or versioned keys.
type RoomGraph struct {
	cache   cache.FieldStore
	store   RoomSource
	metrics *metrics.Metrics
}

// RoomSource is the durable read path for rooms.
type RoomSource interface {
	GetRoom(ctx context.Context, id game.RoomID) (game.Room, error)
}

func NewRoomGraph(c cache.FieldStore, s RoomSource, m *metrics.Metrics) *RoomGraph {
	return &RoomGraph{cache: c, store: s, metrics: m}
}

// ResolveRoom returns the room with id. It fails with game.ErrNotFound when the room is in neither store.
func (g *RoomGraph) ResolveRoom(ctx context.Context, id game.RoomID) (game.Room, error) {
	key := cache.RoomKey(id)

	fields, err := g.cache.HGetAll(ctx, key)
	switch {
	case err != nil:
		g.metrics.CacheLookup("room", metrics.Error)
		slog.WarnContext(ctx, "room cache read failed, using durable store", "roomId", id, "error", err)
	case len(fields) > 0:
		if _, ok := fields[fieldDescription]; ok {
			g.metrics.CacheLookup("room", metrics.Hit)
			return decodeRoom(id, fields), nil
		}
		fallthrough
	default:
		g.metrics.CacheLookup("room", metrics.Miss)
	}

	room, err := g.store.GetRoom(ctx, id)
	if err != nil {
		return game.Room{}, fmt.Errorf("resolving room %s: %w", id, err)
	}

	// Population is one HSET of every field, so concurrent fills converge on the same entry.
	if err := g.cache.HSet(ctx, key, encodeRoom(room)); err != nil {
		slog.WarnContext(ctx, "room cache populate failed", "roomId", id, "error", err)
	}
	return room, nil
}

// ResolveExit returns the destination of the exit in direction d. An absent exit is not an error.
func (g *RoomGraph) ResolveExit(ctx context.Context, id game.RoomID, d game.Direction) (game.RoomID, bool, error) {
	room, err := g.ResolveRoom(ctx, id)
	if err != nil {
		return "", false, err
	}
	dest, ok := room.Exit(d)
	return dest, ok, nil
}

// ResolveDestination follows an exit and resolves the room it leads to. A dangling exit is
// game.ErrBrokenGraph.
func (g *RoomGraph) ResolveDestination(ctx context.Context, id game.RoomID, d game.Direction) (game.Room, error) {
	dest, ok, err := g.ResolveExit(ctx, id, d)
	if err != nil {
		return game.Room{}, err
	}
	if !ok {
		return game.Room{}, game.ErrNoExit
	}

	room, err := g.ResolveRoom(ctx, dest)
	if errors.Is(err, game.ErrNotFound) {
		slog.ErrorContext(ctx, "exit leads to missing room", "roomId", id, "direction", d, "destination", dest)
		return game.Room{}, fmt.Errorf("room %s %s exit to %s: %w", id, d, dest, game.ErrBrokenGraph)
	}
	return room, err
}

func encodeRoom(r game.Room) map[string]string {
	fields := map[string]string{
		fieldDescription:         r.Description,
		fieldDetailedDescription: r.DetailedDescription,
	}
	for _, d := range game.Directions {
		dest, _ := r.Exit(d)
		fields[exitField(d)] = string(dest)
	}
	return fields
}

func decodeRoom(id game.RoomID, fields map[string]string) game.Room {
	r := game.Room{
		Id:                  id,
		Description:         fields[fieldDescription],
		DetailedDescription: fields[fieldDetailedDescription],
		Exits:               map[game.Direction]game.RoomID{},
	}
	for _, d := range game.Directions {
		if dest := fields[exitField(d)]; dest != "" {
			r.Exits[d] = game.RoomID(dest)
		}
	}
	return r
}

package world

import (
	"context"
	"log/slog"

	"github.com/pixil98/mudsync/internal/game"
)

// MoveResult is a completed move.
type MoveResult struct {
	From game.RoomID
	View
}

// Mover moves players along room exits.
type Mover struct {
	graph    *RoomGraph
	sessions *SessionStore
	renderer *Renderer
}

func NewMover(g *RoomGraph, s *SessionStore, r *Renderer) *Mover {
	return &Mover{graph: g, sessions: s, renderer: r}
}

// Move walks player id through the exit in direction d.
//
// It fails with game.ErrSessionMissing when the player has no session, game.ErrNoExit when the room
// has no such exit and game.ErrBrokenGraph when the exit leads nowhere. On any failure the session
// is unchanged.
func (m *Mover) Move(ctx context.Context, id game.PlayerID, d game.Direction) (MoveResult, error) {
	var (
		from game.RoomID
		dest game.Room
	)

	_, err := m.sessions.Update(ctx, id, func(s *game.Session) error {
		room, err := m.graph.ResolveDestination(ctx, s.RoomId, d)
		if err != nil {
			return err
		}
		from, dest = s.RoomId, room
		s.RoomId = room.Id
		return nil
	})
	if err != nil {
		return MoveResult{}, err
	}

	// The move is committed, so a render failure degrades to the bare description.
	view, err := m.renderer.Render(ctx, dest.Id, id)
	if err != nil {
		slog.WarnContext(ctx, "rendering destination failed", "playerId", id, "roomId", dest.Id, "error", err)
		view = View{RoomId: dest.Id, Description: dest.Description}
	}
	return MoveResult{From: from, View: view}, nil
}

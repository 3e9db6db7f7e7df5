package world

import (
	"context"
	"errors"
	"log/slog"

	"github.com/pixil98/mudsync/internal/game"
)

// Roster lists the players that currently hold a live session.
type Roster interface {
	Players() []game.PlayerID
}

// Checkpointer periodically copies live sessions back to the durable store so a crash loses at
// most one interval of progress.
type Checkpointer struct {
	sessions *SessionStore
	roster   Roster
}

func NewCheckpointer(sessions *SessionStore, roster Roster) *Checkpointer {
	return &Checkpointer{sessions: sessions, roster: roster}
}

// Tick checkpoints every rostered player. Failures for one player are logged and do not stop the
// others; only cancellation is returned.
func (c *Checkpointer) Tick(ctx context.Context) error {
	saved := 0
	for _, id := range c.roster.Players() {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := c.sessions.Checkpoint(ctx, id)
		switch {
		case err == nil:
			saved++
		case errors.Is(err, game.ErrSessionMissing):
			// logged out since the roster was read
		default:
			slog.WarnContext(ctx, "checkpoint failed", "player", id, "error", err)
		}
	}
	if saved > 0 {
		slog.DebugContext(ctx, "checkpointed sessions", "count", saved)
	}
	return nil
}

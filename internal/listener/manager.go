package listener

import (
	"context"
	"io"
	"log/slog"

	"github.com/pixil98/mudsync/internal/player"
)

// ConnectionManager hands accepted text connections to the player session manager.
type ConnectionManager struct {
	pm *player.Manager
}

func NewConnectionManager(pm *player.Manager) *ConnectionManager {
	return &ConnectionManager{
		pm: pm,
	}
}

// AcceptConnection runs a text session on conn until it ends. The session closes conn when it is
// taken over, so listeners must tolerate closing it a second time.
func (m *ConnectionManager) AcceptConnection(ctx context.Context, conn io.ReadWriteCloser) {
	if err := m.pm.ServeText(ctx, conn); err != nil {
		slog.WarnContext(ctx, "player session", "error", err)
	}
}

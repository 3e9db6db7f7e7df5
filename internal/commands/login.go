package commands

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/pixil98/mudsync/internal/game"
	"github.com/pixil98/mudsync/internal/registry"
)

const (
	msgInvalidLogin = "Invalid username or password"
	msgTakenOver    = "Another connection has taken over your session."
)

// login authenticates a connection and binds it to the player. A connection already bound to the
// player elsewhere is taken over: its session is flushed and the old connection is closed.
func (h *Handler) login(ctx context.Context, cc *Context) error {
	username := strings.TrimSpace(cc.Command.Username)
	if username == "" || cc.Command.Password == "" {
		return NewUserError(msgInvalidLogin)
	}

	p, hash, err := h.Accounts.GetPlayerByUsername(ctx, username)
	if isNotFound(err) {
		return NewUserError(msgInvalidLogin)
	}
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(cc.Command.Password)); err != nil {
		if !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			slog.WarnContext(ctx, "unusable password hash", "playerId", p.Id, "error", err)
		}
		return NewUserError(msgInvalidLogin)
	}

	// A connection that is already logged in is flushed first so hydrating does not lose its state.
	if cc.Binding.Conn != nil {
		h.Disconnect(ctx, cc.Conn)
	}

	unlock := h.players.Lock(p.Id)
	defer unlock()
	if prev, ok := h.Registry.LookupPlayer(p.Id); ok && prev.Conn.Id() != cc.Conn.Id() {
		h.takeover(ctx, prev)
	}

	s, err := h.Sessions.Hydrate(ctx, p.Id)
	if err != nil {
		return err
	}
	h.Registry.Bind(cc.Conn, s)
	if err := h.Router.Enter(ctx, cc.Conn); err != nil {
		slog.ErrorContext(ctx, "subscribing to room channel", "connId", cc.Conn.Id(), "roomId", s.RoomId, "error", err)
	}

	ev := game.Event{Type: game.EventLoginSuccess, Player: &p, RoomId: s.RoomId}
	if view, err := h.Renderer.Render(ctx, s.RoomId, p.Id); err != nil {
		slog.WarnContext(ctx, "rendering login room failed", "playerId", p.Id, "roomId", s.RoomId, "error", err)
	} else {
		ev.Description, ev.RoomItems = view.Description, view.Items
	}
	if ev.Inventory, err = h.Store.ItemsHeldBy(ctx, p.Id); err != nil {
		slog.WarnContext(ctx, "listing inventory on login failed", "playerId", p.Id, "error", err)
	}
	cc.Conn.Send(ev)

	slog.InfoContext(ctx, "player logged in", "connId", cc.Conn.Id(), "playerId", p.Id, "roomId", s.RoomId)
	return nil
}

// takeover must be called with the player's lock held.
func (h *Handler) takeover(ctx context.Context, prev registry.Binding) {
	if err := h.Sessions.Flush(ctx, prev.Player); err != nil {
		slog.ErrorContext(ctx, "flushing session on takeover", "connId", prev.Conn.Id(), "playerId", prev.Player, "error", err)
	}
	if b, ok := h.Registry.Unbind(prev.Conn.Id()); ok {
		h.Router.Leave(ctx, b)
	}

	prev.Conn.Send(game.TextEvent(game.EventError, msgTakenOver))
	if err := prev.Conn.Close(); err != nil {
		slog.WarnContext(ctx, "closing taken over connection", "connId", prev.Conn.Id(), "error", err)
	}
	slog.InfoContext(ctx, "session taken over", "connId", prev.Conn.Id(), "playerId", prev.Player)
}

// joinGame re-announces a logged-in player to its room.
func (h *Handler) joinGame(ctx context.Context, cc *Context) error {
	if cc.Command.PlayerId != 0 && cc.Command.PlayerId != cc.Binding.Player {
		return NewUserError("Player not found")
	}

	p, err := h.Accounts.GetPlayer(ctx, cc.Binding.Player)
	if isNotFound(err) {
		return NewUserError("Player not found")
	}
	if err != nil {
		return err
	}

	cc.Conn.Send(game.Event{Type: game.EventJoined, Player: &p, RoomId: cc.Binding.Room})
	h.Router.Broadcast(ctx, cc.Binding.Room, game.Event{
		Type:     game.EventPlayerJoined,
		PlayerId: p.Id,
		Username: p.Username,
		RoomId:   cc.Binding.Room,
	}, cc.Conn.Id())
	return nil
}

package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pixil98/mudsync/internal/game"
	"github.com/pixil98/mudsync/internal/keylock"
	"github.com/pixil98/mudsync/internal/metrics"
	"github.com/pixil98/mudsync/internal/presence"
	"github.com/pixil98/mudsync/internal/registry"
	"github.com/pixil98/mudsync/internal/world"
)

// Accounts looks up player accounts.
type Accounts interface {
	GetPlayer(ctx context.Context, id game.PlayerID) (game.Player, error)
	GetPlayerByUsername(ctx context.Context, username string) (game.Player, string, error)
}

// Deps are the engines commands run against.
type Deps struct {
	Accounts  Accounts
	Store     world.DurableStore
	Graph     *world.RoomGraph
	Sessions  *world.SessionStore
	Renderer  *world.Renderer
	Mover     *world.Mover
	Inventory *world.Inventory
	Registry  *registry.Registry
	Router    *presence.Router
	Metrics   *metrics.Metrics
}

// Context is what a CommandFunc runs with.
type Context struct {
	Conn    registry.Conn
	Command Command
	// Binding is the connection's player binding. It is zero for commands run before login.
	Binding registry.Binding
}

// CommandFunc runs one command. Returned errors are turned into a failure event for the sender.
type CommandFunc func(ctx context.Context, cc *Context) error

type registered struct {
	fn        CommandFunc
	needsBind bool
}

// Handler dispatches inbound commands. Each connection must call Exec for one command at a time.
//
// Commands of one player, its disconnect and any login of that player run under the player's lock,
// so a takeover never interleaves with a command still running on the old connection.
type Handler struct {
	Deps
	commands map[Kind]registered

	players keylock.Map[game.PlayerID]
}

func NewHandler(d Deps) *Handler {
	h := &Handler{
		Deps:     d,
		commands: map[Kind]registered{},
	}

	_ = h.Register(KindLogin, false, h.login)
	_ = h.Register(KindDisconnect, false, h.disconnect)
	_ = h.Register(KindJoinGame, true, h.joinGame)
	_ = h.Register(KindMove, true, h.move)
	_ = h.Register(KindLook, true, h.look)
	_ = h.Register(KindExamine, true, h.examine)
	_ = h.Register(KindInventory, true, h.inventory)
	_ = h.Register(KindPickup, true, h.pickup)
	_ = h.Register(KindDrop, true, h.drop)
	_ = h.Register(KindEquipItem, true, h.equip)
	_ = h.Register(KindUseItem, true, h.use)
	_ = h.Register(KindChat, true, h.chat)
	return h
}

// Register adds a command. When needsBind is set the command only runs for logged-in connections.
func (h *Handler) Register(kind Kind, needsBind bool, fn CommandFunc) error {
	if kind == "" {
		return fmt.Errorf("command kind cannot be empty")
	}
	if fn == nil {
		return fmt.Errorf("command func cannot be nil")
	}
	if _, exists := h.commands[kind]; exists {
		return fmt.Errorf("command %q already registered", kind)
	}
	h.commands[kind] = registered{fn: fn, needsBind: needsBind}
	return nil
}

// Exec runs cmd for conn. Every failure is reported to conn as an event and never returned; the only
// error Exec returns is ErrQuit.
func (h *Handler) Exec(ctx context.Context, conn registry.Conn, cmd Command) error {
	if cmd.Kind == "" {
		return nil
	}

	start := time.Now()
	outcome := "ok"
	defer func() { h.Metrics.Command(string(cmd.Kind), outcome, time.Since(start)) }()

	reg, ok := h.commands[cmd.Kind]
	if !ok {
		outcome = "unknown"
		conn.Send(game.TextEvent(game.EventCommand, fmt.Sprintf("Sorry, what is: %q ?", cmd.Message)))
		return nil
	}

	cc := &Context{Conn: conn, Command: cmd}
	b, bound := h.Registry.Lookup(conn.Id())
	if bound && reg.needsBind {
		unlock := h.players.Lock(b.Player)
		defer unlock()
		// conn may have been taken over while waiting.
		b, bound = h.Registry.Lookup(conn.Id())
	}
	if bound {
		cc.Binding = b
	} else if reg.needsBind {
		outcome = "user_error"
		conn.Send(game.TextEvent(failureEvent(cmd.Kind), "You must log in first."))
		return nil
	}

	err := reg.fn(ctx, cc)
	if errors.Is(err, ErrQuit) {
		return err
	}
	if err != nil {
		outcome = h.fail(ctx, cc, err)
	}
	return nil
}

// fail reports err to the sender in in-world terms and returns the metrics outcome.
func (h *Handler) fail(ctx context.Context, cc *Context, err error) string {
	evType := failureEvent(cc.Command.Kind)

	var userErr *UserError
	switch {
	case errors.As(err, &userErr):
		cc.Conn.Send(game.TextEvent(evType, userErr.Message))
		return "user_error"
	case errors.Is(err, game.ErrSessionMissing):
		cc.Conn.Send(game.TextEvent(evType, "Your session has expired. Please log in again."))
		return "user_error"
	case errors.Is(err, game.ErrNoExit):
		cc.Conn.Send(game.TextEvent(evType, "There is no exit in that direction."))
		return "user_error"
	case errors.Is(err, game.ErrItemNotInRoom):
		cc.Conn.Send(game.TextEvent(evType, "That isn't here."))
		return "user_error"
	case errors.Is(err, game.ErrItemNotHeld):
		cc.Conn.Send(game.TextEvent(evType, "You are not carrying that."))
		return "user_error"
	case errors.Is(err, game.ErrNoEffect):
		cc.Conn.Send(game.TextEvent(evType, "Nothing happens."))
		return "user_error"
	case errors.Is(err, game.ErrNotFound):
		cc.Conn.Send(game.TextEvent(evType, "You don't see that here."))
		return "user_error"
	case errors.Is(err, game.ErrBrokenGraph):
		slog.ErrorContext(ctx, "room graph fault", "connId", cc.Conn.Id(), "command", cc.Command.Kind, "error", err)
		cc.Conn.Send(game.TextEvent(evType, "Something blocks your way."))
		return "error"
	default:
		slog.WarnContext(ctx, "command failed", "connId", cc.Conn.Id(), "command", cc.Command.Kind, "error", err)
		cc.Conn.Send(game.TextEvent(game.EventError, "Something went wrong. Please try again later."))
		return "error"
	}
}

func failureEvent(kind Kind) game.EventType {
	switch kind {
	case KindMove:
		return game.EventMoveFailure
	case KindLogin:
		return game.EventLoginFailure
	case KindUseItem, KindEquipItem:
		return game.EventItemActionFailed
	case KindJoinGame:
		return game.EventError
	default:
		return game.EventCommand
	}
}

// Disconnect flushes and unbinds conn's player and tells the room it left. It is a no-op when
// conn is not bound, for example after another connection took its session over.
func (h *Handler) Disconnect(ctx context.Context, conn registry.Conn) {
	b, ok := h.Registry.Lookup(conn.Id())
	if !ok {
		return
	}
	unlock := h.players.Lock(b.Player)
	defer unlock()
	if b, ok = h.Registry.Lookup(conn.Id()); !ok {
		return
	}

	if err := h.Sessions.Flush(ctx, b.Player); err != nil {
		slog.ErrorContext(ctx, "flushing session on disconnect", "connId", conn.Id(), "playerId", b.Player, "error", err)
	}

	b, ok = h.Registry.Unbind(conn.Id())
	if !ok {
		return
	}
	h.Router.Leave(ctx, b)
	slog.InfoContext(ctx, "player disconnected", "connId", conn.Id(), "playerId", b.Player)
}

func (h *Handler) disconnect(ctx context.Context, cc *Context) error {
	return ErrQuit
}

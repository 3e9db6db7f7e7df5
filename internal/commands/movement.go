package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pixil98/mudsync/internal/game"
	"github.com/pixil98/mudsync/internal/world"
)

func (h *Handler) move(ctx context.Context, cc *Context) error {
	if !cc.Command.Direction.Valid() {
		return NewUserError("Which way?")
	}

	ctx = world.ActingAs(ctx, cc.Conn.Id())
	id := cc.Binding.Player
	res, err := h.Mover.Move(ctx, id, cc.Command.Direction)
	if err != nil {
		return err
	}

	if err := h.Router.Move(ctx, cc.Conn, res); err != nil {
		// The channel room did not change, so the session goes back to match it.
		_, rerr := h.Sessions.Update(ctx, id, func(s *game.Session) error {
			if s.RoomId == res.RoomId {
				s.RoomId = res.From
			}
			return nil
		})
		if rerr != nil {
			slog.ErrorContext(ctx, "rolling back move failed", "playerId", id, "roomId", res.From, "error", rerr)
		}
		return err
	}
	return nil
}

func (h *Handler) look(ctx context.Context, cc *Context) error {
	s, err := h.Sessions.Get(ctx, cc.Binding.Player)
	if err != nil {
		return err
	}
	room, err := h.Graph.ResolveRoom(ctx, s.RoomId)
	if err != nil {
		return err
	}

	if room.DetailedDescription == "" {
		cc.Conn.Send(game.TextEvent(game.EventCommand, "You look around but don't notice anything unusual."))
		return nil
	}
	cc.Conn.Send(game.TextEvent(game.EventCommand, fmt.Sprintf("You look around: %s", room.DetailedDescription)))
	return nil
}

// examine looks first for a part of something the player carries, then for an item in the room.
func (h *Handler) examine(ctx context.Context, cc *Context) error {
	name := strings.ToLower(strings.TrimSpace(cc.Command.ItemName))
	if name == "" {
		return NewUserError("Examine what?")
	}

	s, err := h.Sessions.Get(ctx, cc.Binding.Player)
	if err != nil {
		return err
	}

	part, err := h.Store.FindPart(ctx, s.PlayerId, name)
	switch {
	case err == nil:
		cc.Conn.Send(game.TextEvent(game.EventCommand,
			fmt.Sprintf("You look at the %s of the %s: %s", name, part.Item.Name, part.Description)))
		return nil
	case !isNotFound(err):
		return err
	}

	item, err := h.Store.FindItemInRoom(ctx, s.RoomId, name)
	switch {
	case err == nil:
		text := item.DetailedDescription
		if text == "" {
			text = item.Description
		}
		cc.Conn.Send(game.TextEvent(game.EventCommand, text))
		return nil
	case isNotFound(err):
		return NewUserError(fmt.Sprintf("You don't see anything with a %s to examine.", name))
	default:
		return err
	}
}

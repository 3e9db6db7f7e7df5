package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pixil98/mudsync/internal/game"
	"github.com/pixil98/mudsync/internal/world"
)

func isNotFound(err error) bool {
	return errors.Is(err, game.ErrNotFound)
}

func (h *Handler) inventory(ctx context.Context, cc *Context) error {
	items, err := h.Store.ItemsHeldBy(ctx, cc.Binding.Player)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		cc.Conn.Send(game.TextEvent(game.EventCommand, "Your inventory is empty."))
		return nil
	}

	names := make([]string, len(items))
	for i, item := range items {
		names[i] = item.Name
	}
	cc.Conn.Send(game.Event{
		Type:      game.EventCommand,
		Text:      fmt.Sprintf("You are carrying: %s", strings.Join(names, ", ")),
		Inventory: items,
	})
	return nil
}

func (h *Handler) pickup(ctx context.Context, cc *Context) error {
	ctx = world.ActingAs(ctx, cc.Conn.Id())
	name := strings.TrimSpace(cc.Command.ItemName)
	missing := NewUserError("That isn't here.")
	if name != "" {
		missing = NewUserError(fmt.Sprintf("There is no %s here.", name))
	}

	id := cc.Command.ItemId
	if id == 0 && name == "" {
		return NewUserError("Pick up what?")
	}
	if id == 0 {
		s, err := h.Sessions.Get(ctx, cc.Binding.Player)
		if err != nil {
			return err
		}
		item, err := h.Store.FindItemInRoom(ctx, s.RoomId, name)
		if isNotFound(err) {
			return missing
		}
		if err != nil {
			return err
		}
		id = item.Id
	}

	item, room, err := h.Inventory.PickUp(ctx, cc.Binding.Player, id)
	if errors.Is(err, game.ErrItemNotInRoom) || isNotFound(err) {
		return missing
	}
	if err != nil {
		return err
	}

	cc.Conn.Send(game.Event{Type: game.EventItemPickedUp, Text: fmt.Sprintf("You pick up: %s", item.Name), Item: &item})
	h.Router.Broadcast(ctx, room, game.Event{
		Type:     game.EventItemRemoved,
		ItemId:   item.Id,
		PlayerId: cc.Binding.Player,
		Username: cc.Binding.Session.Username,
	}, cc.Conn.Id())
	h.updateRoom(ctx, room, cc.Binding.Player)
	return nil
}

func (h *Handler) drop(ctx context.Context, cc *Context) error {
	ctx = world.ActingAs(ctx, cc.Conn.Id())
	name := strings.TrimSpace(cc.Command.ItemName)
	notHeld := NewUserError("You are not carrying that.")
	if name != "" {
		notHeld = NewUserError(fmt.Sprintf("You are not carrying %s.", name))
	}

	id := cc.Command.ItemId
	if id == 0 && name == "" {
		return NewUserError("Drop what?")
	}
	if id == 0 {
		item, err := h.Store.FindItemHeld(ctx, cc.Binding.Player, name)
		if isNotFound(err) {
			return notHeld
		}
		if err != nil {
			return err
		}
		id = item.Id
	}

	item, room, err := h.Inventory.Drop(ctx, cc.Binding.Player, id)
	if errors.Is(err, game.ErrItemNotHeld) || isNotFound(err) {
		return notHeld
	}
	if err != nil {
		return err
	}

	cc.Conn.Send(game.Event{Type: game.EventItemDropped, Text: fmt.Sprintf("You drop: %s", item.Name), Item: &item})
	h.Router.Broadcast(ctx, room, game.Event{
		Type:     game.EventItemAdded,
		Item:     &item,
		PlayerId: cc.Binding.Player,
		Username: cc.Binding.Session.Username,
	}, cc.Conn.Id())
	h.updateRoom(ctx, room, cc.Binding.Player)
	return nil
}

func (h *Handler) equip(ctx context.Context, cc *Context) error {
	ctx = world.ActingAs(ctx, cc.Conn.Id())
	id, err := h.heldItem(ctx, cc)
	if err != nil {
		return err
	}

	item, err := h.Inventory.Equip(ctx, cc.Binding.Player, id)
	if err != nil {
		return h.itemFailure(err)
	}
	cc.Conn.Send(game.Event{Type: game.EventItemEquipped, Text: fmt.Sprintf("You equipped the %s.", item.Name), Item: &item})
	return nil
}

func (h *Handler) use(ctx context.Context, cc *Context) error {
	ctx = world.ActingAs(ctx, cc.Conn.Id())
	id, err := h.heldItem(ctx, cc)
	if err != nil {
		return err
	}

	res, err := h.Inventory.Use(ctx, cc.Binding.Player, id)
	if errors.Is(err, game.ErrNoEffect) {
		return NewUserError(fmt.Sprintf("Nothing happens when you use the %s.", res.Item.Name))
	}
	if err != nil {
		return h.itemFailure(err)
	}
	cc.Conn.Send(game.Event{
		Type: game.EventItemUsed,
		Text: fmt.Sprintf("You used a %s and restored %d health.", res.Item.Name, res.Restored),
		Item: &res.Item,
	})
	return nil
}

// heldItem resolves the item a command names to an id, by id or by the name of something held.
func (h *Handler) heldItem(ctx context.Context, cc *Context) (game.ItemID, error) {
	if cc.Command.ItemId != 0 {
		return cc.Command.ItemId, nil
	}

	name := strings.TrimSpace(cc.Command.ItemName)
	if name == "" {
		return 0, NewUserError("Which item?")
	}
	item, err := h.Store.FindItemHeld(ctx, cc.Binding.Player, name)
	if isNotFound(err) {
		return 0, NewUserError(fmt.Sprintf("You are not carrying %s.", name))
	}
	return item.Id, err
}

func (h *Handler) itemFailure(err error) error {
	if errors.Is(err, game.ErrItemNotHeld) || isNotFound(err) {
		return NewUserError("Invalid player or item")
	}
	return err
}

// updateRoom renders room once from the actor's point of view and sends it to everyone in it.
func (h *Handler) updateRoom(ctx context.Context, room game.RoomID, actor game.PlayerID) {
	view, err := h.Renderer.Render(ctx, room, actor)
	if err != nil {
		slog.WarnContext(ctx, "rendering room update failed", "roomId", room, "error", err)
		return
	}
	h.Router.UpdateRoom(ctx, view)
}

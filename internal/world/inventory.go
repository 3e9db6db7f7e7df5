package world

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pixil98/mudsync/internal/game"
)

// Inventory moves items between rooms and players and applies their effects.
type Inventory struct {
	store    DurableStore
	sessions *SessionStore
}

func NewInventory(store DurableStore, sessions *SessionStore) *Inventory {
	return &Inventory{store: store, sessions: sessions}
}

// PickUp moves an item from the player's current room into their inventory.
// It fails with game.ErrItemNotInRoom when the item is anywhere else.
func (inv *Inventory) PickUp(ctx context.Context, player game.PlayerID, id game.ItemID) (game.Item, game.RoomID, error) {
	var (
		item game.Item
		room game.RoomID
	)
	_, err := inv.sessions.Update(ctx, player, func(s *game.Session) error {
		var err error
		item, err = inv.store.TransferItem(ctx, id, game.InRoom(s.RoomId), game.HeldBy(player))
		if err != nil {
			return err
		}
		room = s.RoomId
		s.AddItem(item.Id)
		return nil
	})
	return item, room, err
}

// Drop moves an item from the player's inventory into their current room.
// It fails with game.ErrItemNotHeld when the player does not hold it.
func (inv *Inventory) Drop(ctx context.Context, player game.PlayerID, id game.ItemID) (game.Item, game.RoomID, error) {
	var (
		item game.Item
		room game.RoomID
	)
	_, err := inv.sessions.Update(ctx, player, func(s *game.Session) error {
		var err error
		item, err = inv.store.TransferItem(ctx, id, game.HeldBy(player), game.InRoom(s.RoomId))
		if err != nil {
			return err
		}
		room = s.RoomId
		s.RemoveItem(item.Id)
		return nil
	})
	return item, room, err
}

// Equip adds a held item's stat bonus to the player's durable stats.
//
// Nothing records that the item is equipped, so equipping the same item again adds its bonus again.
// TODO: track equipped items so a second equip is rejected instead of stacking.
func (inv *Inventory) Equip(ctx context.Context, player game.PlayerID, id game.ItemID) (game.Item, error) {
	var item game.Item
	err := inv.sessions.WithSession(ctx, player, func(game.Session) error {
		var err error
		item, err = inv.held(ctx, player, id)
		if err != nil {
			return err
		}
		return inv.store.AddPlayerStats(ctx, player, item.Bonus)
	})
	return item, err
}

// UseResult is the outcome of using an item.
type UseResult struct {
	Item     game.Item
	Restored int
	Health   int
}

// Use applies a held item's use effect. Healing is capped at game.MaxHealth and written through to the
// durable store right after the session. If the durable write fails the session is rolled back, so
// a later flush never disagrees with what the player was told.
func (inv *Inventory) Use(ctx context.Context, player game.PlayerID, id game.ItemID) (UseResult, error) {
	var (
		res    UseResult
		before int
	)
	_, err := inv.sessions.Update(ctx, player, func(s *game.Session) error {
		item, err := inv.held(ctx, player, id)
		if err != nil {
			return err
		}
		res.Item = item

		switch item.Effect.Kind {
		case game.EffectHeal:
			before = s.Health
			res.Restored, res.Health = item.Effect.Amount, min(s.Health+item.Effect.Amount, game.MaxHealth)
			s.Health = res.Health
			return nil
		default:
			return fmt.Errorf("using %s: %w", item.Name, game.ErrNoEffect)
		}
	})
	if err != nil {
		return res, err
	}

	if err := inv.store.UpdatePlayerHealth(ctx, player, res.Health); err != nil {
		_, rerr := inv.sessions.Update(ctx, player, func(s *game.Session) error {
			if s.Health == res.Health {
				s.Health = before
			}
			return nil
		})
		if rerr != nil {
			slog.WarnContext(ctx, "rolling back session health failed", "playerId", player, "error", rerr)
		}
		return res, err
	}
	return res, nil
}

func (inv *Inventory) held(ctx context.Context, player game.PlayerID, id game.ItemID) (game.Item, error) {
	item, err := inv.store.GetItem(ctx, id)
	if err != nil {
		return game.Item{}, err
	}
	if holder, ok := item.Owner.Player(); !ok || holder != player {
		return game.Item{}, fmt.Errorf("item %d: %w", id, game.ErrItemNotHeld)
	}
	return item, nil
}

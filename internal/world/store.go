// Package world holds the engines that read and mutate shared world state: the room graph cache,
// the session store, movement, item ownership and room rendering.
package world

import (
	"context"

	"github.com/pixil98/mudsync/internal/game"
)

// DurableStore is the store of record the engines read through to and write back into.
type DurableStore interface {
	GetRoom(ctx context.Context, id game.RoomID) (game.Room, error)

	GetPlayer(ctx context.Context, id game.PlayerID) (game.Player, error)
	SavePlayerState(ctx context.Context, id game.PlayerID, room game.RoomID, health, level int, inventory []game.ItemID) error
	UpdatePlayerHealth(ctx context.Context, id game.PlayerID, health int) error
	AddPlayerStats(ctx context.Context, id game.PlayerID, bonus game.Stats) error
	InventoryOf(ctx context.Context, id game.PlayerID) ([]game.ItemID, error)

	GetItem(ctx context.Context, id game.ItemID) (game.Item, error)
	ItemsInRoom(ctx context.Context, room game.RoomID) ([]game.Item, error)
	ItemsHeldBy(ctx context.Context, player game.PlayerID) ([]game.Item, error)
	FindItemInRoom(ctx context.Context, room game.RoomID, name string) (game.Item, error)
	FindItemHeld(ctx context.Context, player game.PlayerID, name string) (game.Item, error)
	FindPart(ctx context.Context, player game.PlayerID, name string) (game.Part, error)
	TransferItem(ctx context.Context, id game.ItemID, from, to game.Owner) (game.Item, error)
}

// Package cache is the fast, crash-volatile field-map store that fronts the durable store.
package cache

import (
	"context"

	"github.com/pixil98/mudsync/internal/game"
)

// FieldStore is a key-value store of per-key field maps with no expiry.
type FieldStore interface {
	// HGet returns one field of key. The bool is false when the key or field is absent.
	HGet(ctx context.Context, key, field string) (string, bool, error)
	// HSet writes all fields of key at once; readers never observe a partial write.
	HSet(ctx context.Context, key string, fields map[string]string) error
	// HGetAll returns every field of key, or an empty map when key is absent.
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Del(ctx context.Context, key string) error
}

func RoomKey(id game.RoomID) string {
	return "room:" + string(id)
}

func SessionKey(id game.PlayerID) string {
	return "session:" + id.String()
}

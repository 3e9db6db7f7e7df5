package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/pixil98/go-testutil"
	"github.com/pixil98/mudsync/internal/game"
	"github.com/redis/go-redis/v9"
)

func newMiniRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	r := NewRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = r.Close() })
	return r, mr
}

func TestFieldStores(t *testing.T) {
	stores := map[string]func(t *testing.T) FieldStore{
		"memory": func(t *testing.T) FieldStore { return NewMemory() },
		"redis": func(t *testing.T) FieldStore {
			r, _ := newMiniRedis(t)
			return r
		},
	}

	for name, newStore := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t)
			key := RoomKey("+0000+0000+0000+0001")

			all, err := s.HGetAll(ctx, key)
			if err != nil {
				t.Fatalf("hgetall on miss: %v", err)
			}
			testutil.AssertEqual(t, "miss is empty", len(all), 0)

			_, ok, err := s.HGet(ctx, key, "description")
			if err != nil {
				t.Fatalf("hget on miss: %v", err)
			}
			testutil.AssertEqual(t, "miss found", ok, false)

			err = s.HSet(ctx, key, map[string]string{"description": "A hall.", "north_room_id": ""})
			if err != nil {
				t.Fatalf("hset: %v", err)
			}
			err = s.HSet(ctx, key, map[string]string{"south_room_id": "x"})
			if err != nil {
				t.Fatalf("hset merge: %v", err)
			}

			v, ok, err := s.HGet(ctx, key, "description")
			if err != nil {
				t.Fatalf("hget: %v", err)
			}
			testutil.AssertEqual(t, "found", ok, true)
			testutil.AssertEqual(t, "description", v, "A hall.")

			all, err = s.HGetAll(ctx, key)
			if err != nil {
				t.Fatalf("hgetall: %v", err)
			}
			testutil.AssertEqual(t, "field count", len(all), 3)
			testutil.AssertEqual(t, "empty exit kept", all["north_room_id"], "")
			testutil.AssertEqual(t, "merged field", all["south_room_id"], "x")

			if err := s.Del(ctx, key); err != nil {
				t.Fatalf("del: %v", err)
			}
			all, err = s.HGetAll(ctx, key)
			if err != nil {
				t.Fatalf("hgetall after del: %v", err)
			}
			testutil.AssertEqual(t, "deleted", len(all), 0)
		})
	}
}

func TestRedis_Unavailable(t *testing.T) {
	r, mr := newMiniRedis(t)
	mr.Close()

	_, err := r.HGetAll(context.Background(), SessionKey(1))
	testutil.AssertEqual(t, "store unavailable", errors.Is(err, game.ErrStoreUnavailable), true)
}

func TestKeys(t *testing.T) {
	testutil.AssertEqual(t, "room key", RoomKey("+0000+0000+0000+0001"), "room:+0000+0000+0000+0001")
	testutil.AssertEqual(t, "session key", SessionKey(42), "session:42")
}

package world

import (
	"context"
	"testing"

	"github.com/pixil98/go-testutil"
	"github.com/pixil98/mudsync/internal/cache"
	"github.com/pixil98/mudsync/internal/game"
)

type staticRoster []game.PlayerID

func (r staticRoster) Players() []game.PlayerID { return r }

func TestCheckpointer_Tick(t *testing.T) {
	w := newTestWorld(t, cache.NewMemory())
	ctx := context.Background()
	w.login(t, alice)

	_, err := w.sessions.Update(ctx, alice, func(s *game.Session) error {
		s.Health = 12
		return nil
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	// bob never logged in, so his checkpoint is skipped
	cp := NewCheckpointer(w.sessions, staticRoster{alice, bob})
	err = cp.Tick(ctx)
	testutil.AssertEqual(t, "err", err, nil)

	p, err := w.store.GetPlayer(ctx, alice)
	if err != nil {
		t.Fatalf("get player: %v", err)
	}
	testutil.AssertEqual(t, "durable health", p.Health, 12)

	fields, _ := w.cache.HGetAll(ctx, cache.SessionKey(alice))
	testutil.AssertEqual(t, "still cached", fields["health"], "12")
}

func TestCheckpointer_TickCancelled(t *testing.T) {
	w := newTestWorld(t, cache.NewMemory())
	w.login(t, alice)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewCheckpointer(w.sessions, staticRoster{alice}).Tick(ctx)
	testutil.AssertErrorContains(t, err, "context canceled")
}

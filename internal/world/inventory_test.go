package world

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/pixil98/go-testutil"
	"github.com/pixil98/mudsync/internal/cache"
	"github.com/pixil98/mudsync/internal/game"
)

func TestInventory_PickUpAndDrop(t *testing.T) {
	tests := map[string]struct {
		op       string
		item     game.ItemID
		expErr   error
		expOwner game.Owner
		expHeld  bool
	}{
		"pick up torch":          {op: "pickup", item: torch, expOwner: game.HeldBy(alice), expHeld: true},
		"pick up from elsewhere": {op: "pickup", item: rock, expErr: game.ErrItemNotInRoom, expOwner: game.InRoom(closet)},
		"pick up held item":      {op: "pickup", item: sword, expErr: game.ErrItemNotInRoom, expOwner: game.HeldBy(alice), expHeld: true},
		"drop sword":             {op: "drop", item: sword, expOwner: game.InRoom(hall)},
		"drop unheld item":       {op: "drop", item: torch, expErr: game.ErrItemNotHeld, expOwner: game.InRoom(hall)},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			w := newTestWorld(t, cache.NewMemory())
			ctx := context.Background()
			w.login(t, alice)

			var err error
			switch tt.op {
			case "pickup":
				_, _, err = w.inv.PickUp(ctx, alice, tt.item)
			case "drop":
				_, _, err = w.inv.Drop(ctx, alice, tt.item)
			}
			if tt.expErr != nil {
				testutil.AssertEqual(t, "error kind", errors.Is(err, tt.expErr), true)
				testutil.AssertEqual(t, "precondition", errors.Is(err, game.ErrPreconditionFailed), true)
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			item, err := w.store.GetItem(ctx, tt.item)
			if err != nil {
				t.Fatalf("get item: %v", err)
			}
			testutil.AssertEqual(t, "owner", item.Owner, tt.expOwner)
			testutil.AssertEqual(t, "owner valid", item.Owner.Valid(), true)

			s, err := w.sessions.Get(ctx, alice)
			if err != nil {
				t.Fatalf("get session: %v", err)
			}
			testutil.AssertEqual(t, "in session inventory", s.Holds(tt.item), tt.expHeld)
		})
	}
}

func TestInventory_PickUpThenDropRestoresRoom(t *testing.T) {
	w := newTestWorld(t, cache.NewMemory())
	ctx := context.Background()
	w.login(t, alice)

	if _, _, err := w.inv.PickUp(ctx, alice, torch); err != nil {
		t.Fatalf("pick up: %v", err)
	}

	view, err := w.renderer.Render(ctx, hall, alice)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	testutil.AssertEqual(t, "torch not rendered", strings.Contains(view.Description, "torch"), false)

	_, room, err := w.inv.Drop(ctx, alice, torch)
	if err != nil {
		t.Fatalf("drop: %v", err)
	}
	testutil.AssertEqual(t, "dropped in", room, hall)

	item, err := w.store.GetItem(ctx, torch)
	if err != nil {
		t.Fatalf("get item: %v", err)
	}
	testutil.AssertEqual(t, "owner", item.Owner, game.InRoom(hall))
}

func TestInventory_EquipStacks(t *testing.T) {
	w := newTestWorld(t, cache.NewMemory())
	ctx := context.Background()
	w.login(t, alice)

	for range 2 {
		if _, err := w.inv.Equip(ctx, alice, sword); err != nil {
			t.Fatalf("equip: %v", err)
		}
	}

	p, err := w.store.GetPlayer(ctx, alice)
	if err != nil {
		t.Fatalf("get player: %v", err)
	}
	testutil.AssertEqual(t, "strength stacked", p.Strength, 4)

	_, err = w.inv.Equip(ctx, alice, torch)
	testutil.AssertEqual(t, "not held", errors.Is(err, game.ErrItemNotHeld), true)
}

func TestInventory_Use(t *testing.T) {
	tests := map[string]struct {
		health    int
		item      game.ItemID
		expErr    error
		expHealth int
	}{
		"heal":        {health: 50, item: potion, expHealth: 80},
		"heal capped": {health: 80, item: potion, expHealth: game.MaxHealth},
		"no effect":   {health: 50, item: sword, expErr: game.ErrNoEffect, expHealth: 50},
		"not held":    {health: 50, item: torch, expErr: game.ErrItemNotHeld, expHealth: 50},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			w := newTestWorld(t, cache.NewMemory())
			ctx := context.Background()
			w.login(t, alice)
			_, err := w.sessions.Update(ctx, alice, func(s *game.Session) error {
				s.Health = tt.health
				return nil
			})
			if err != nil {
				t.Fatalf("set health: %v", err)
			}

			res, err := w.inv.Use(ctx, alice, tt.item)
			if tt.expErr != nil {
				testutil.AssertEqual(t, "error kind", errors.Is(err, tt.expErr), true)
			} else {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				testutil.AssertEqual(t, "restored", res.Restored, 30)
				testutil.AssertEqual(t, "health", res.Health, tt.expHealth)

				p, err := w.store.GetPlayer(ctx, alice)
				if err != nil {
					t.Fatalf("get player: %v", err)
				}
				testutil.AssertEqual(t, "durable health", p.Health, tt.expHealth)
			}

			s, err := w.sessions.Get(ctx, alice)
			if err != nil {
				t.Fatalf("get session: %v", err)
			}
			testutil.AssertEqual(t, "session health", s.Health, tt.expHealth)
		})
	}
}

func TestInventory_UseCacheWriteFails(t *testing.T) {
	c := &readOnlyCache{FieldStore: cache.NewMemory()}
	w := newTestWorld(t, c)
	ctx := context.Background()
	w.login(t, alice)
	c.failWrites.Store(true)

	_, err := w.inv.Use(ctx, alice, potion)
	testutil.AssertEqual(t, "use error", errors.Is(err, errDown), true)

	p, err := w.store.GetPlayer(ctx, alice)
	if err != nil {
		t.Fatalf("get player: %v", err)
	}
	testutil.AssertEqual(t, "durable health after use", p.Health, 80)

	if err := w.sessions.Flush(ctx, alice); err != nil {
		t.Fatalf("flush: %v", err)
	}
	p, err = w.store.GetPlayer(ctx, alice)
	if err != nil {
		t.Fatalf("get player: %v", err)
	}
	testutil.AssertEqual(t, "durable health after flush", p.Health, 80)
}

// healthDown fails durable health writes.
type healthDown struct {
	DurableStore
}

func (healthDown) UpdatePlayerHealth(context.Context, game.PlayerID, int) error {
	return errDown
}

func TestInventory_UseDurableWriteFails(t *testing.T) {
	w := newTestWorld(t, cache.NewMemory())
	ctx := context.Background()
	w.login(t, alice)
	inv := NewInventory(healthDown{DurableStore: w.store}, w.sessions)

	_, err := inv.Use(ctx, alice, potion)
	testutil.AssertEqual(t, "use error", errors.Is(err, errDown), true)

	s, err := w.sessions.Get(ctx, alice)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	testutil.AssertEqual(t, "session health", s.Health, 80)

	if err := w.sessions.Flush(ctx, alice); err != nil {
		t.Fatalf("flush: %v", err)
	}
	p, err := w.store.GetPlayer(ctx, alice)
	if err != nil {
		t.Fatalf("get player: %v", err)
	}
	testutil.AssertEqual(t, "durable health after flush", p.Health, 80)
}

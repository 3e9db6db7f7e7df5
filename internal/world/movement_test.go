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

func TestMover_Move(t *testing.T) {
	tests := map[string]struct {
		dir       game.Direction
		login     bool
		expErr    error
		expRoom   game.RoomID
		expSuffix string
	}{
		"north into a dead end": {
			dir:       game.North,
			login:     true,
			expRoom:   closet,
			expSuffix: "There are no obvious exits.",
		},
		"no south exit": {
			dir:     game.South,
			login:   true,
			expErr:  game.ErrNoExit,
			expRoom: hall,
		},
		"exit into missing room": {
			dir:     game.East,
			login:   true,
			expErr:  game.ErrBrokenGraph,
			expRoom: hall,
		},
		"not logged in": {
			dir:    game.North,
			expErr: game.ErrSessionMissing,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			w := newTestWorld(t, cache.NewMemory())
			ctx := context.Background()
			if tt.login {
				w.login(t, alice)
			}

			res, err := w.mover.Move(ctx, alice, tt.dir)
			if tt.expErr != nil {
				testutil.AssertEqual(t, "error kind", errors.Is(err, tt.expErr), true)
			} else {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				testutil.AssertEqual(t, "from", res.From, hall)
				testutil.AssertEqual(t, "to", res.RoomId, tt.expRoom)
				testutil.AssertEqual(t, "suffix", strings.HasSuffix(res.Description, tt.expSuffix), true)
			}

			if !tt.login {
				return
			}
			s, err := w.sessions.Get(ctx, alice)
			if err != nil {
				t.Fatalf("get session: %v", err)
			}
			testutil.AssertEqual(t, "session room", s.RoomId, tt.expRoom)
		})
	}
}

func TestMover_MoveRendersDestinationItems(t *testing.T) {
	w := newTestWorld(t, cache.NewMemory())
	w.login(t, alice)

	res, err := w.mover.Move(context.Background(), alice, game.North)
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	testutil.AssertEqual(t, "description", res.Description,
		"A cramped closet. You see: rock. You are alone here. There are no obvious exits.")
	testutil.AssertEqual(t, "item count", len(res.Items), 1)
	testutil.AssertEqual(t, "item", res.Items[0].Id, rock)
}

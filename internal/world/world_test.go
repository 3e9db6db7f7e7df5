package world

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/pixil98/mudsync/internal/cache"
	"github.com/pixil98/mudsync/internal/game"
	"github.com/pixil98/mudsync/internal/storage/sqlite"
)

const (
	hall    game.RoomID = "+0000+0000+0000+0001"
	closet  game.RoomID = "+0000+0001+0000+0001"
	nowhere game.RoomID = "+0000+0000+0001+0001"
)

const (
	alice game.PlayerID = 1
	bob   game.PlayerID = 2
)

const (
	torch  game.ItemID = 1
	sword  game.ItemID = 2
	potion game.ItemID = 3
	rock   game.ItemID = 4
)

// fakeMirror stands in for the connection registry.
type fakeMirror struct {
	mu       sync.Mutex
	sessions map[game.PlayerID]game.Session
	conns    map[game.PlayerID]string
	rooms    map[game.RoomID][]string
}

func newFakeMirror() *fakeMirror {
	return &fakeMirror{
		sessions: map[game.PlayerID]game.Session{},
		conns:    map[game.PlayerID]string{},
		rooms:    map[game.RoomID][]string{},
	}
}

func (m *fakeMirror) BoundConn(id game.PlayerID) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.conns[id]
	return c, ok
}

func (m *fakeMirror) Mirrored(id game.PlayerID) (game.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

func (m *fakeMirror) Remember(s game.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[s.PlayerId]; ok {
		m.sessions[s.PlayerId] = s.Clone()
	}
}

// bind binds the session's player to connection "conn-<id>".
func (m *fakeMirror) bind(s game.Session) {
	m.rebind(s, fmt.Sprintf("conn-%d", s.PlayerId))
}

func (m *fakeMirror) rebind(s game.Session, connId string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.PlayerId] = s.Clone()
	m.conns[s.PlayerId] = connId
}

func (m *fakeMirror) PlayersIn(room game.RoomID, _ game.PlayerID) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rooms[room]
}

// countingRooms counts durable room reads.
type countingRooms struct {
	RoomSource
	mu    sync.Mutex
	reads int
}

func (c *countingRooms) GetRoom(ctx context.Context, id game.RoomID) (game.Room, error) {
	c.mu.Lock()
	c.reads++
	c.mu.Unlock()
	return c.RoomSource.GetRoom(ctx, id)
}

// brokenCache fails every call like an unreachable cache server.
type brokenCache struct{}

var errDown = game.Unavailable("cache", errors.New("connection refused"))

func (brokenCache) HGet(context.Context, string, string) (string, bool, error) {
	return "", false, errDown
}
func (brokenCache) HSet(context.Context, string, map[string]string) error { return errDown }
func (brokenCache) HGetAll(context.Context, string) (map[string]string, error) {
	return nil, errDown
}
func (brokenCache) Del(context.Context, string) error { return errDown }

// readOnlyCache rejects HSet while failWrites is set.
type readOnlyCache struct {
	cache.FieldStore
	failWrites atomic.Bool
}

func (c *readOnlyCache) HSet(ctx context.Context, key string, fields map[string]string) error {
	if c.failWrites.Load() {
		return errDown
	}
	return c.FieldStore.HSet(ctx, key, fields)
}

type testWorld struct {
	store    *sqlite.Store
	cache    cache.FieldStore
	rooms    *countingRooms
	mirror   *fakeMirror
	graph    *RoomGraph
	sessions *SessionStore
	renderer *Renderer
	mover    *Mover
	inv      *Inventory
}

func newTestWorld(t *testing.T, c cache.FieldStore) *testWorld {
	t.Helper()
	ctx := context.Background()

	store, err := sqlite.Open(ctx, filepath.Join(t.TempDir(), "world.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	rooms := []game.Room{
		{Id: hall, Description: "A dusty hall.", DetailedDescription: "Cobwebs hang from the beams.",
			Exits: map[game.Direction]game.RoomID{game.North: closet, game.East: nowhere}},
		{Id: closet, Description: "A cramped closet."},
	}
	for _, r := range rooms {
		if err := store.UpsertRoom(ctx, r); err != nil {
			t.Fatalf("upsert room: %v", err)
		}
	}
	players := []game.Player{
		{Id: alice, Username: "alice", Health: 80, Level: 1, RoomId: hall},
		{Id: bob, Username: "bob", Health: 100, Level: 1, RoomId: hall},
	}
	for _, p := range players {
		if err := store.UpsertPlayer(ctx, p, "x"); err != nil {
			t.Fatalf("upsert player: %v", err)
		}
	}
	items := []game.Item{
		{Id: torch, Name: "torch", Owner: game.InRoom(hall)},
		{Id: sword, Name: "sword", Bonus: game.Stats{Strength: 2}, Owner: game.HeldBy(alice)},
		{Id: potion, Name: "potion", Effect: game.UseEffect{Kind: game.EffectHeal, Amount: 30}, Owner: game.HeldBy(alice)},
		{Id: rock, Name: "rock", Owner: game.InRoom(closet)},
	}
	for _, i := range items {
		if err := store.UpsertItem(ctx, i, nil); err != nil {
			t.Fatalf("upsert item: %v", err)
		}
	}

	w := &testWorld{store: store, cache: c, rooms: &countingRooms{RoomSource: store}, mirror: newFakeMirror()}
	w.graph = NewRoomGraph(c, w.rooms, nil)
	w.sessions = NewSessionStore(c, store, w.mirror, nil)
	w.renderer = NewRenderer(w.graph, store, w.mirror)
	w.mover = NewMover(w.graph, w.sessions, w.renderer)
	w.inv = NewInventory(store, w.sessions)
	return w
}

func (w *testWorld) login(t *testing.T, id game.PlayerID) game.Session {
	t.Helper()
	s, err := w.sessions.Hydrate(context.Background(), id)
	if err != nil {
		t.Fatalf("hydrate: %v", err)
	}
	w.mirror.bind(s)
	return s
}

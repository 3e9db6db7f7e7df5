package commands

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/pixil98/go-testutil"
	"golang.org/x/crypto/bcrypt"

	"github.com/pixil98/mudsync/internal/cache"
	"github.com/pixil98/mudsync/internal/game"
	"github.com/pixil98/mudsync/internal/messaging"
	"github.com/pixil98/mudsync/internal/presence"
	"github.com/pixil98/mudsync/internal/registry"
	"github.com/pixil98/mudsync/internal/storage/sqlite"
	"github.com/pixil98/mudsync/internal/world"
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

const password = "secret"

type fakeConn struct {
	id     string
	mu     sync.Mutex
	events []game.Event
	closed bool
}

func (c *fakeConn) Id() string { return c.id }

func (c *fakeConn) Send(ev game.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) last() game.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.events) == 0 {
		return game.Event{}
	}
	return c.events[len(c.events)-1]
}

func (c *fakeConn) find(t game.EventType) (game.Event, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ev := range c.events {
		if ev.Type == t {
			return ev, true
		}
	}
	return game.Event{}, false
}

func (c *fakeConn) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = nil
}

type harness struct {
	h     *Handler
	store *sqlite.Store
	reg   *registry.Registry
}

func newHarness(t *testing.T) *harness {
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
		{Id: closet, Description: "A cramped closet.", Exits: map[game.Direction]game.RoomID{game.South: hall}},
	}
	for _, r := range rooms {
		if err := store.UpsertRoom(ctx, r); err != nil {
			t.Fatalf("upsert room: %v", err)
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	players := []game.Player{
		{Id: alice, Username: "alice", Health: 80, Level: 1, RoomId: hall},
		{Id: bob, Username: "bob", Health: 100, Level: 1, RoomId: hall},
	}
	for _, p := range players {
		if err := store.UpsertPlayer(ctx, p, string(hash)); err != nil {
			t.Fatalf("upsert player: %v", err)
		}
	}

	items := []struct {
		item  game.Item
		parts map[string]string
	}{
		{item: game.Item{Id: 1, Name: "torch", DetailedDescription: "A stick wrapped in oily rags.", Owner: game.InRoom(hall)}},
		{item: game.Item{Id: 2, Name: "sword", Bonus: game.Stats{Strength: 2}, Owner: game.HeldBy(alice)},
			parts: map[string]string{"blade": "Notched but sharp."}},
		{item: game.Item{Id: 3, Name: "potion", Effect: game.UseEffect{Kind: game.EffectHeal, Amount: 30}, Owner: game.HeldBy(alice)}},
		{item: game.Item{Id: 4, Name: "rock", Owner: game.InRoom(closet)}},
	}
	for _, i := range items {
		if err := store.UpsertItem(ctx, i.item, i.parts); err != nil {
			t.Fatalf("upsert item: %v", err)
		}
	}

	c := cache.NewMemory()
	reg := registry.New()
	graph := world.NewRoomGraph(c, store, nil)
	sessions := world.NewSessionStore(c, store, reg, nil)
	renderer := world.NewRenderer(graph, store, reg)

	h := NewHandler(Deps{
		Accounts:  store,
		Store:     store,
		Graph:     graph,
		Sessions:  sessions,
		Renderer:  renderer,
		Mover:     world.NewMover(graph, sessions, renderer),
		Inventory: world.NewInventory(store, sessions),
		Registry:  reg,
		Router:    presence.NewRouter(reg, messaging.NewRoomPublisher(messaging.NewLocalBus())),
	})
	return &harness{h: h, store: store, reg: reg}
}

func (hs *harness) exec(t *testing.T, conn *fakeConn, line string) {
	t.Helper()
	if err := hs.h.Exec(context.Background(), conn, Parse(line)); err != nil {
		t.Fatalf("exec %q: %v", line, err)
	}
}

func (hs *harness) login(t *testing.T, name string) *fakeConn {
	t.Helper()
	conn := &fakeConn{id: name + "-conn"}
	hs.exec(t, conn, "login "+name+" "+password)
	if ev := conn.last(); ev.Type != game.EventLoginSuccess {
		t.Fatalf("login %s: got %s %q", name, ev.Type, ev.Text)
	}
	conn.reset()
	return conn
}

func assertLast(t *testing.T, conn *fakeConn, typ game.EventType, text string) {
	t.Helper()
	ev := conn.last()
	testutil.AssertEqual(t, "event type", ev.Type, typ)
	testutil.AssertEqual(t, "event text", ev.Text, text)
}

func TestHandler_Register(t *testing.T) {
	h := NewHandler(Deps{})
	noop := func(context.Context, *Context) error { return nil }

	tests := map[string]struct {
		kind   Kind
		fn     CommandFunc
		expErr string
	}{
		"new kind":  {kind: "dance", fn: noop},
		"duplicate": {kind: KindLook, fn: noop, expErr: "already registered"},
		"empty":     {kind: "", fn: noop, expErr: "cannot be empty"},
		"nil func":  {kind: "sing", expErr: "cannot be nil"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			err := h.Register(tc.kind, true, tc.fn)
			if tc.expErr != "" {
				testutil.AssertErrorContains(t, err, tc.expErr)
				return
			}
			testutil.AssertEqual(t, "err", err, nil)
		})
	}
}

func TestHandler_RequiresLogin(t *testing.T) {
	hs := newHarness(t)
	conn := &fakeConn{id: "anon"}

	hs.exec(t, conn, "look")
	assertLast(t, conn, game.EventCommand, "You must log in first.")

	conn.reset()
	hs.exec(t, conn, "dance")
	assertLast(t, conn, game.EventCommand, `Sorry, what is: "dance" ?`)
}

func TestHandler_Login(t *testing.T) {
	tests := map[string]struct {
		line    string
		expType game.EventType
		expText string
	}{
		"unknown user":   {line: "login carol secret", expType: game.EventLoginFailure, expText: msgInvalidLogin},
		"wrong password": {line: "login alice hunter2", expType: game.EventLoginFailure, expText: msgInvalidLogin},
		"success":        {line: "login Alice secret", expType: game.EventLoginSuccess},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			hs := newHarness(t)
			conn := &fakeConn{id: "c1"}
			hs.exec(t, conn, tc.line)

			ev := conn.last()
			testutil.AssertEqual(t, "type", ev.Type, tc.expType)
			testutil.AssertEqual(t, "text", ev.Text, tc.expText)
			_, bound := hs.reg.Lookup("c1")
			testutil.AssertEqual(t, "bound", bound, tc.expType == game.EventLoginSuccess)
		})
	}
}

func TestHandler_LoginPayload(t *testing.T) {
	hs := newHarness(t)
	hs.login(t, "bob")

	conn := &fakeConn{id: "c1"}
	hs.exec(t, conn, "login alice secret")
	ev := conn.last()

	testutil.AssertEqual(t, "player", ev.Player.Id, alice)
	testutil.AssertEqual(t, "room", ev.RoomId, hall)
	testutil.AssertEqual(t, "description", ev.Description,
		"A dusty hall. You see: torch. You notice: bob. Obvious exits are: north, east.")
	testutil.AssertEqual(t, "room items", len(ev.RoomItems), 1)
	testutil.AssertEqual(t, "inventory", len(ev.Inventory), 2)
}

func TestHandler_LoginAnnouncesArrival(t *testing.T) {
	hs := newHarness(t)
	bobConn := hs.login(t, "bob")
	hs.login(t, "alice")

	ev, ok := bobConn.find(game.EventPlayerJoined)
	testutil.AssertEqual(t, "joined seen", ok, true)
	testutil.AssertEqual(t, "player", ev.PlayerId, alice)
}

func TestHandler_LoginTakeover(t *testing.T) {
	hs := newHarness(t)
	first := hs.login(t, "alice")
	hs.exec(t, first, "north")

	second := &fakeConn{id: "alice-2"}
	hs.exec(t, second, "login alice secret")

	testutil.AssertEqual(t, "first closed", first.closed, true)
	assertLast(t, first, game.EventError, msgTakenOver)
	testutil.AssertEqual(t, "second room", second.last().RoomId, closet)

	b, ok := hs.reg.LookupPlayer(alice)
	testutil.AssertEqual(t, "bound", ok, true)
	testutil.AssertEqual(t, "conn", b.Conn.Id(), "alice-2")
	testutil.AssertEqual(t, "bindings", hs.reg.Count(), 1)

	// The old connection's loop ends with a disconnect; it must not unbind the new one.
	hs.h.Disconnect(context.Background(), first)
	testutil.AssertEqual(t, "bindings after", hs.reg.Count(), 1)
}

func TestHandler_StaleBindingAfterTakeover(t *testing.T) {
	hs := newHarness(t)
	ctx := context.Background()
	first := hs.login(t, "alice")
	stale, _ := hs.reg.Lookup(first.Id())

	second := &fakeConn{id: "alice-2"}
	hs.exec(t, second, "login alice secret")

	err := hs.h.move(ctx, &Context{Conn: first, Binding: stale, Command: Parse("north")})
	testutil.AssertEqual(t, "session missing", errors.Is(err, game.ErrSessionMissing), true)

	s, err := hs.h.Sessions.Get(ctx, alice)
	testutil.AssertEqual(t, "err", err, nil)
	testutil.AssertEqual(t, "session room", s.RoomId, hall)
	b, _ := hs.reg.Lookup(second.Id())
	testutil.AssertEqual(t, "channel room", b.Room, hall)

	first.reset()
	hs.exec(t, first, "north")
	assertLast(t, first, game.EventMoveFailure, "You must log in first.")
}

// closedBus refuses subscriptions to one subject.
type closedBus struct {
	messaging.Bus
	closed string
}

func (b closedBus) Subscribe(subject string, handler func(data []byte)) (func(), error) {
	if subject == b.closed {
		return nil, errors.New("subscriptions closed")
	}
	return b.Bus.Subscribe(subject, handler)
}

func TestHandler_MoveRollsBackWhenChannelFails(t *testing.T) {
	hs := newHarness(t)
	ctx := context.Background()
	conn := hs.login(t, "alice")
	bus := closedBus{Bus: messaging.NewLocalBus(), closed: messaging.RoomSubject(closet)}
	hs.h.Router = presence.NewRouter(hs.reg, messaging.NewRoomPublisher(bus))

	hs.exec(t, conn, "north")
	testutil.AssertEqual(t, "type", conn.last().Type, game.EventError)

	s, err := hs.h.Sessions.Get(ctx, alice)
	testutil.AssertEqual(t, "err", err, nil)
	testutil.AssertEqual(t, "session room", s.RoomId, hall)
	b, _ := hs.reg.Lookup(conn.Id())
	testutil.AssertEqual(t, "channel room", b.Room, hall)
}

func TestHandler_Move(t *testing.T) {
	tests := map[string]struct {
		line    string
		expType game.EventType
		expText string
		expRoom game.RoomID
	}{
		"through exit":  {line: "north", expType: game.EventMoveSuccess, expRoom: closet},
		"no exit":       {line: "south", expType: game.EventMoveFailure, expText: "There is no exit in that direction.", expRoom: hall},
		"dangling exit": {line: "east", expType: game.EventMoveFailure, expText: "Something blocks your way.", expRoom: hall},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			hs := newHarness(t)
			conn := hs.login(t, "alice")
			hs.exec(t, conn, tc.line)

			ev := conn.last()
			testutil.AssertEqual(t, "type", ev.Type, tc.expType)
			testutil.AssertEqual(t, "text", ev.Text, tc.expText)
			b, _ := hs.reg.Lookup(conn.Id())
			testutil.AssertEqual(t, "room", b.Room, tc.expRoom)
		})
	}
}

func TestHandler_MoveNotifiesRooms(t *testing.T) {
	hs := newHarness(t)
	bobConn := hs.login(t, "bob")
	aliceConn := hs.login(t, "alice")
	bobConn.reset()

	hs.exec(t, aliceConn, "n")
	ev, ok := bobConn.find(game.EventPlayerLeft)
	testutil.AssertEqual(t, "left seen", ok, true)
	testutil.AssertEqual(t, "player", ev.PlayerId, alice)

	moved := aliceConn.last()
	testutil.AssertEqual(t, "description", moved.Description,
		"A cramped closet. You see: rock. You are alone here. Obvious exits are: south.")

	bobConn.reset()
	hs.exec(t, aliceConn, "s")
	_, ok = bobConn.find(game.EventPlayerJoined)
	testutil.AssertEqual(t, "joined seen", ok, true)
}

func TestHandler_Look(t *testing.T) {
	hs := newHarness(t)
	conn := hs.login(t, "alice")

	hs.exec(t, conn, "look")
	testutil.AssertEqual(t, "hall", conn.last().Text, "You look around: Cobwebs hang from the beams.")

	hs.exec(t, conn, "north")
	hs.exec(t, conn, "look")
	testutil.AssertEqual(t, "closet", conn.last().Text, "You look around but don't notice anything unusual.")
}

func TestHandler_Examine(t *testing.T) {
	tests := map[string]struct {
		line    string
		expText string
	}{
		"held part":   {line: "examine blade", expText: "You look at the blade of the sword: Notched but sharp."},
		"room item":   {line: "look at Torch", expText: "A stick wrapped in oily rags."},
		"nothing":     {line: "x ghost", expText: "You don't see anything with a ghost to examine."},
		"other room":  {line: "x rock", expText: "You don't see anything with a rock to examine."},
		"part casing": {line: "x BLADE", expText: "You look at the blade of the sword: Notched but sharp."},
	}

	hs := newHarness(t)
	conn := hs.login(t, "alice")
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			hs.exec(t, conn, tc.line)
			testutil.AssertEqual(t, "text", conn.last().Text, tc.expText)
		})
	}
}

func TestHandler_Inventory(t *testing.T) {
	hs := newHarness(t)
	aliceConn := hs.login(t, "alice")
	bobConn := hs.login(t, "bob")

	hs.exec(t, aliceConn, "inventory")
	testutil.AssertEqual(t, "alice", aliceConn.last().Text, "You are carrying: sword, potion")

	hs.exec(t, bobConn, "i")
	testutil.AssertEqual(t, "bob", bobConn.last().Text, "Your inventory is empty.")
}

func TestHandler_Pickup(t *testing.T) {
	hs := newHarness(t)
	bobConn := hs.login(t, "bob")
	aliceConn := hs.login(t, "alice")
	bobConn.reset()

	hs.exec(t, aliceConn, "get torch")
	ev, ok := aliceConn.find(game.EventItemPickedUp)
	testutil.AssertEqual(t, "picked up", ok, true)
	testutil.AssertEqual(t, "text", ev.Text, "You pick up: torch")

	removed, ok := bobConn.find(game.EventItemRemoved)
	testutil.AssertEqual(t, "removed seen", ok, true)
	testutil.AssertEqual(t, "item", removed.ItemId, game.ItemID(1))

	update, ok := bobConn.find(game.EventUpdateRoomDescription)
	testutil.AssertEqual(t, "update seen", ok, true)
	testutil.AssertEqual(t, "update", update.Text, "A dusty hall. You notice: bob. Obvious exits are: north, east.")
	_, ok = aliceConn.find(game.EventUpdateRoomDescription)
	testutil.AssertEqual(t, "actor update", ok, true)

	item, err := hs.store.GetItem(context.Background(), 1)
	testutil.AssertEqual(t, "err", err, nil)
	holder, _ := item.Owner.Player()
	testutil.AssertEqual(t, "holder", holder, alice)

	s, err := hs.h.Sessions.Get(context.Background(), alice)
	testutil.AssertEqual(t, "err", err, nil)
	testutil.AssertEqual(t, "session inventory", slices.Equal(s.Inventory, []game.ItemID{2, 3, 1}), true)

	aliceConn.reset()
	hs.exec(t, aliceConn, "get torch")
	assertLast(t, aliceConn, game.EventCommand, "There is no torch here.")
	hs.exec(t, aliceConn, "get rock")
	testutil.AssertEqual(t, "elsewhere", aliceConn.last().Text, "There is no rock here.")
}

func TestHandler_Drop(t *testing.T) {
	hs := newHarness(t)
	bobConn := hs.login(t, "bob")
	aliceConn := hs.login(t, "alice")
	bobConn.reset()

	hs.exec(t, aliceConn, "drop sword")
	ev, ok := aliceConn.find(game.EventItemDropped)
	testutil.AssertEqual(t, "dropped", ok, true)
	testutil.AssertEqual(t, "text", ev.Text, "You drop: sword")

	added, ok := bobConn.find(game.EventItemAdded)
	testutil.AssertEqual(t, "added seen", ok, true)
	testutil.AssertEqual(t, "item", added.Item.Name, "sword")

	room, err := hs.store.ItemsInRoom(context.Background(), hall)
	testutil.AssertEqual(t, "err", err, nil)
	testutil.AssertEqual(t, "room items", len(room), 2)

	hs.exec(t, aliceConn, "drop torch")
	testutil.AssertEqual(t, "not held", aliceConn.last().Text, "You are not carrying torch.")
}

func TestHandler_PickupAndDropById(t *testing.T) {
	tests := map[string]struct {
		cmd     Command
		expType game.EventType
		expText string
	}{
		"pickup elsewhere": {cmd: Command{Kind: KindPickup, ItemId: 4}, expType: game.EventCommand, expText: "That isn't here."},
		"pickup nothing":   {cmd: Command{Kind: KindPickup}, expType: game.EventCommand, expText: "Pick up what?"},
		"drop not held":    {cmd: Command{Kind: KindDrop, ItemId: 1}, expType: game.EventCommand, expText: "You are not carrying that."},
		"drop nothing":     {cmd: Command{Kind: KindDrop}, expType: game.EventCommand, expText: "Drop what?"},
		"pickup here":      {cmd: Command{Kind: KindPickup, ItemId: 1}, expType: game.EventItemPickedUp, expText: "You pick up: torch"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			hs := newHarness(t)
			conn := hs.login(t, "alice")
			if err := hs.h.Exec(context.Background(), conn, tc.cmd); err != nil {
				t.Fatalf("exec: %v", err)
			}
			ev, ok := conn.find(tc.expType)
			testutil.AssertEqual(t, "found", ok, true)
			testutil.AssertEqual(t, "text", ev.Text, tc.expText)
		})
	}
}

func TestHandler_Use(t *testing.T) {
	hs := newHarness(t)
	conn := hs.login(t, "alice")
	ctx := context.Background()

	hs.exec(t, conn, "use potion")
	ev := conn.last()
	testutil.AssertEqual(t, "type", ev.Type, game.EventItemUsed)
	testutil.AssertEqual(t, "text", ev.Text, "You used a potion and restored 30 health.")

	p, err := hs.store.GetPlayer(ctx, alice)
	testutil.AssertEqual(t, "err", err, nil)
	testutil.AssertEqual(t, "durable health", p.Health, game.MaxHealth)
	s, err := hs.h.Sessions.Get(ctx, alice)
	testutil.AssertEqual(t, "err", err, nil)
	testutil.AssertEqual(t, "session health", s.Health, game.MaxHealth)

	hs.exec(t, conn, "use #2")
	testutil.AssertEqual(t, "no effect type", conn.last().Type, game.EventItemActionFailed)
	testutil.AssertEqual(t, "no effect", conn.last().Text, "Nothing happens when you use the sword.")

	hs.exec(t, conn, "use #1")
	assertLast(t, conn, game.EventItemActionFailed, "Invalid player or item")
}

func TestHandler_Equip(t *testing.T) {
	hs := newHarness(t)
	conn := hs.login(t, "alice")
	ctx := context.Background()

	hs.exec(t, conn, "wield sword")
	testutil.AssertEqual(t, "event", conn.last().Text, "You equipped the sword.")
	p, err := hs.store.GetPlayer(ctx, alice)
	testutil.AssertEqual(t, "err", err, nil)
	testutil.AssertEqual(t, "strength", p.Strength, 2)

	// Equipping again stacks the bonus.
	hs.exec(t, conn, "equip sword")
	p, err = hs.store.GetPlayer(ctx, alice)
	testutil.AssertEqual(t, "err", err, nil)
	testutil.AssertEqual(t, "restacked", p.Strength, 4)

	hs.exec(t, conn, "equip torch")
	assertLast(t, conn, game.EventItemActionFailed, "You are not carrying torch.")
}

func TestHandler_Chat(t *testing.T) {
	tests := map[string]struct {
		line string
		exp  string
	}{
		"say":    {line: "'hello", exp: `alice says: "hello"`},
		"action": {line: ":waves.", exp: "alice waves."},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			hs := newHarness(t)
			bobConn := hs.login(t, "bob")
			aliceConn := hs.login(t, "alice")
			bobConn.reset()

			hs.exec(t, aliceConn, tc.line)
			testutil.AssertEqual(t, "speaker", aliceConn.last().Text, tc.exp)
			testutil.AssertEqual(t, "listener", bobConn.last().Text, tc.exp)
			testutil.AssertEqual(t, "type", bobConn.last().Type, game.EventChat)
		})
	}
}

func TestHandler_ChatStaysInRoom(t *testing.T) {
	hs := newHarness(t)
	bobConn := hs.login(t, "bob")
	aliceConn := hs.login(t, "alice")
	hs.exec(t, aliceConn, "north")
	bobConn.reset()

	hs.exec(t, aliceConn, "say anyone?")
	_, heard := bobConn.find(game.EventChat)
	testutil.AssertEqual(t, "heard", heard, false)
}

func TestHandler_JoinGame(t *testing.T) {
	hs := newHarness(t)
	conn := hs.login(t, "alice")

	hs.exec(t, conn, "join 1")
	ev := conn.last()
	testutil.AssertEqual(t, "type", ev.Type, game.EventJoined)
	testutil.AssertEqual(t, "room", ev.RoomId, hall)

	hs.exec(t, conn, "join 2")
	assertLast(t, conn, game.EventError, "Player not found")
}

func TestHandler_Disconnect(t *testing.T) {
	hs := newHarness(t)
	ctx := context.Background()
	bobConn := hs.login(t, "bob")
	aliceConn := hs.login(t, "alice")

	hs.exec(t, aliceConn, "get torch")
	err := hs.h.Exec(ctx, aliceConn, Parse("quit"))
	testutil.AssertEqual(t, "quit", errors.Is(err, ErrQuit), true)

	bobConn.reset()
	hs.h.Disconnect(ctx, aliceConn)

	_, ok := bobConn.find(game.EventPlayerLeft)
	testutil.AssertEqual(t, "left seen", ok, true)
	testutil.AssertEqual(t, "bindings", hs.reg.Count(), 1)

	inv, err := hs.store.InventoryOf(ctx, alice)
	testutil.AssertEqual(t, "err", err, nil)
	testutil.AssertEqual(t, "inventory", slices.Equal(inv, []game.ItemID{2, 3, 1}), true)

	_, err = hs.h.Sessions.Get(ctx, alice)
	testutil.AssertEqual(t, "session gone", errors.Is(err, game.ErrSessionMissing), true)

	hs.exec(t, aliceConn, "look")
	testutil.AssertEqual(t, "after", strings.Contains(aliceConn.last().Text, "log in"), true)
}

// Package presence keeps each bound connection subscribed to its room's channel and fans events out.
package presence

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/pixil98/mudsync/internal/game"
	"github.com/pixil98/mudsync/internal/messaging"
	"github.com/pixil98/mudsync/internal/metrics"
	"github.com/pixil98/mudsync/internal/registry"
	"github.com/pixil98/mudsync/internal/world"
)

// Router maps rooms to subscribed connections through the registry and a room channel bus.
type Router struct {
	registry *registry.Registry
	rooms    *messaging.RoomPublisher
	metrics  *metrics.Metrics

	mu   sync.Mutex
	subs map[string]func()
}

type RouterOpt func(*Router)

// WithMetrics counts broadcasts in m.
func WithMetrics(m *metrics.Metrics) RouterOpt {
	return func(r *Router) {
		r.metrics = m
	}
}

func NewRouter(reg *registry.Registry, rooms *messaging.RoomPublisher, opts ...RouterOpt) *Router {
	r := &Router{
		registry: reg,
		rooms:    rooms,
		subs:     map[string]func(){},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Enter subscribes a bound connection to its room's channel and tells the room it arrived.
func (r *Router) Enter(ctx context.Context, conn registry.Conn) error {
	b, ok := r.registry.Lookup(conn.Id())
	if !ok {
		return registry.ErrPlayerNotBound
	}
	if err := r.subscribe(conn, b.Room); err != nil {
		return err
	}

	r.Broadcast(ctx, b.Room, game.Event{
		Type:     game.EventPlayerJoined,
		PlayerId: b.Player,
		Username: b.Session.Username,
		RoomId:   b.Room,
	}, conn.Id())
	return nil
}

// Leave unsubscribes a connection that has been unbound and tells its last room it left.
func (r *Router) Leave(ctx context.Context, b registry.Binding) {
	r.unsubscribe(b.Conn.Id())

	r.Broadcast(ctx, b.Room, game.Event{
		Type:     game.EventPlayerLeft,
		PlayerId: b.Player,
		Username: b.Session.Username,
	}, b.Conn.Id())
}

// Move switches a connection from the old room's channel to the new one, announces the departure
// and arrival, then sends moveSuccess to the mover alone. On error the registry room is unchanged.
func (r *Router) Move(ctx context.Context, conn registry.Conn, res world.MoveResult) error {
	b, ok := r.registry.Lookup(conn.Id())
	if !ok {
		return registry.ErrPlayerNotBound
	}

	// The registry only moves once the new channel is live, so the two never disagree.
	if err := r.subscribe(conn, res.RoomId); err != nil {
		return err
	}
	from, err := r.registry.SetRoom(conn.Id(), res.RoomId)
	if err != nil {
		if rerr := r.subscribe(conn, b.Room); rerr != nil {
			slog.WarnContext(ctx, "restoring room subscription failed", "connId", conn.Id(), "roomId", b.Room, "error", rerr)
		}
		return err
	}

	r.Broadcast(ctx, from, game.Event{
		Type:     game.EventPlayerLeft,
		PlayerId: b.Player,
		Username: b.Session.Username,
	}, conn.Id())
	r.Broadcast(ctx, res.RoomId, game.Event{
		Type:     game.EventPlayerJoined,
		PlayerId: b.Player,
		Username: b.Session.Username,
		RoomId:   res.RoomId,
	}, conn.Id())

	conn.Send(game.Event{
		Type:        game.EventMoveSuccess,
		RoomId:      res.RoomId,
		Description: res.Description,
		RoomItems:   res.Items,
	})
	return nil
}

// Broadcast publishes ev to everyone in room except the connection named by except. Delivery
// failures are logged; they never fail the command that caused them.
func (r *Router) Broadcast(ctx context.Context, room game.RoomID, ev game.Event, except string) {
	r.metrics.Broadcast(string(ev.Type))
	if err := r.rooms.Publish(room, ev, except); err != nil {
		slog.ErrorContext(ctx, "room broadcast failed", "roomId", room, "event", ev.Type, "error", err)
	}
}

// UpdateRoom sends a freshly rendered room description to the whole room.
func (r *Router) UpdateRoom(ctx context.Context, view world.View) {
	r.Broadcast(ctx, view.RoomId, game.Event{
		Type:        game.EventUpdateRoomDescription,
		RoomId:      view.RoomId,
		Text:        view.Description,
		Description: view.Description,
		RoomItems:   view.Items,
	}, "")
}

func (r *Router) subscribe(conn registry.Conn, room game.RoomID) error {
	unsub, err := r.rooms.Subscribe(room, conn.Id(), conn.Send)
	if err != nil {
		return fmt.Errorf("subscribing %s to room %s: %w", conn.Id(), room, err)
	}

	r.mu.Lock()
	old := r.subs[conn.Id()]
	r.subs[conn.Id()] = unsub
	r.mu.Unlock()

	if old != nil {
		old()
	}
	return nil
}

func (r *Router) unsubscribe(connId string) {
	r.mu.Lock()
	unsub := r.subs[connId]
	delete(r.subs, connId)
	r.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}

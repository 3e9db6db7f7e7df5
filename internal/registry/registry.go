// Package registry tracks live connections bound to players and which room channel each is in.
package registry

import (
	"errors"
	"sort"
	"sync"

	"github.com/pixil98/mudsync/internal/game"
	"github.com/pixil98/mudsync/internal/metrics"
)

// ErrPlayerNotBound means a connection has no player bound to it.
var ErrPlayerNotBound = errors.New("player not bound")

// Conn is a live client connection.
type Conn interface {
	Id() string
	// Send queues ev for delivery. It must not block.
	Send(ev game.Event)
	Close() error
}

// Binding is a snapshot of one connection's ephemeral state.
type Binding struct {
	Conn    Conn
	Player  game.PlayerID
	Room    game.RoomID
	Session game.Session
}

type binding struct {
	conn    Conn
	room    game.RoomID
	session game.Session
}

func (b *binding) snapshot() Binding {
	return Binding{Conn: b.conn, Player: b.session.PlayerId, Room: b.room, Session: b.session.Clone()}
}

// Registry owns every connection binding. At most one connection is bound per player.
//
// All maps are guarded by mu: lookups and broadcasts take the read lock, bind, unbind and room
// changes take the write lock. No method calls out to a Conn while holding mu.
type Registry struct {
	mu       sync.RWMutex
	byConn   map[string]*binding
	byPlayer map[game.PlayerID]*binding
	rooms    map[game.RoomID]map[string]*binding

	metrics *metrics.Metrics
}

type RegistryOpt func(*Registry)

// WithMetrics records bound session counts in m.
func WithMetrics(m *metrics.Metrics) RegistryOpt {
	return func(r *Registry) {
		r.metrics = m
	}
}

func New(opts ...RegistryOpt) *Registry {
	r := &Registry{
		byConn:   map[string]*binding{},
		byPlayer: map[game.PlayerID]*binding{},
		rooms:    map[game.RoomID]map[string]*binding{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Bind binds conn to the session's player and places it in the session's room. If another
// connection was bound to the player it is unbound and returned so the caller can close it.
func (r *Registry) Bind(conn Conn, s game.Session) (Binding, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var (
		prev    Binding
		evicted bool
	)
	if old, ok := r.byPlayer[s.PlayerId]; ok {
		prev, evicted = old.snapshot(), old.conn.Id() != conn.Id()
		r.remove(old)
	}
	if old, ok := r.byConn[conn.Id()]; ok {
		r.remove(old)
	}

	b := &binding{conn: conn, room: s.RoomId, session: s.Clone()}
	r.byConn[conn.Id()] = b
	r.byPlayer[s.PlayerId] = b
	r.join(b)
	r.metrics.SessionBound(1)

	return prev, evicted
}

// Unbind removes the binding of connId and returns it.
func (r *Registry) Unbind(connId string) (Binding, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.byConn[connId]
	if !ok {
		return Binding{}, false
	}
	r.remove(b)
	return b.snapshot(), true
}

func (r *Registry) remove(b *binding) {
	delete(r.byConn, b.conn.Id())
	if cur, ok := r.byPlayer[b.session.PlayerId]; ok && cur == b {
		delete(r.byPlayer, b.session.PlayerId)
	}
	r.leave(b)
	r.metrics.SessionBound(-1)
}

func (r *Registry) join(b *binding) {
	members, ok := r.rooms[b.room]
	if !ok {
		members = map[string]*binding{}
		r.rooms[b.room] = members
	}
	members[b.conn.Id()] = b
}

func (r *Registry) leave(b *binding) {
	members := r.rooms[b.room]
	delete(members, b.conn.Id())
	if len(members) == 0 {
		delete(r.rooms, b.room)
	}
}

// Lookup returns the binding of connId.
func (r *Registry) Lookup(connId string) (Binding, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.byConn[connId]
	if !ok {
		return Binding{}, false
	}
	return b.snapshot(), true
}

// LookupPlayer returns the binding of a player.
func (r *Registry) LookupPlayer(id game.PlayerID) (Binding, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.byPlayer[id]
	if !ok {
		return Binding{}, false
	}
	return b.snapshot(), true
}

// SetRoom moves connId's channel membership to room and returns the room it left.
func (r *Registry) SetRoom(connId string, room game.RoomID) (game.RoomID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.byConn[connId]
	if !ok {
		return "", ErrPlayerNotBound
	}
	from := b.room
	r.leave(b)
	b.room = room
	r.join(b)
	return from, nil
}

// Members returns the connections in room's channel.
func (r *Registry) Members(room game.RoomID) []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := make([]Conn, 0, len(r.rooms[room]))
	for _, b := range r.rooms[room] {
		conns = append(conns, b.conn)
	}
	return conns
}

// PlayersIn returns the sorted usernames of players in room other than except.
func (r *Registry) PlayersIn(room game.RoomID, except game.PlayerID) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var names []string
	for _, b := range r.rooms[room] {
		if b.session.PlayerId != except {
			names = append(names, b.session.Username)
		}
	}
	sort.Strings(names)
	return names
}

// Mirrored returns the session last recorded for a bound player.
func (r *Registry) Mirrored(id game.PlayerID) (game.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.byPlayer[id]
	if !ok {
		return game.Session{}, false
	}
	return b.session.Clone(), true
}

// BoundConn returns the id of the connection bound to player id.
func (r *Registry) BoundConn(id game.PlayerID) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.byPlayer[id]
	if !ok {
		return "", false
	}
	return b.conn.Id(), true
}

// Remember records s as the mirrored session of its player. Channel membership is not changed.
func (r *Registry) Remember(s game.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if b, ok := r.byPlayer[s.PlayerId]; ok {
		b.session = s.Clone()
	}
}

// Players returns the ids of every bound player in ascending order.
func (r *Registry) Players() []game.PlayerID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]game.PlayerID, 0, len(r.byPlayer))
	for id := range r.byPlayer {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Count returns the number of bound connections.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.byConn)
}

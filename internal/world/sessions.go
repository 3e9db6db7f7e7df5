package world

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/pixil98/mudsync/internal/cache"
	"github.com/pixil98/mudsync/internal/game"
	"github.com/pixil98/mudsync/internal/keylock"
	"github.com/pixil98/mudsync/internal/metrics"
)

const (
	fieldPlayerId  = "player_id"
	fieldUsername  = "username"
	fieldRoomId    = "room_id"
	fieldHealth    = "health"
	fieldLevel     = "level"
	fieldInventory = "inventory"
)

// Mirror is the in-process copy of sessions kept by bound connections.
type Mirror interface {
	// Mirrored returns the last session recorded for a bound player.
	Mirrored(id game.PlayerID) (game.Session, bool)
	// Remember records s for its player if the player is bound. Unbound players are ignored.
	Remember(s game.Session)
	// BoundConn returns the id of the connection the player is bound to.
	BoundConn(id game.PlayerID) (string, bool)
}

type actorKey struct{}

// ActingAs marks ctx as running a command for connection connId. Session writes made with it fail
// with game.ErrSessionMissing unless the player is still bound to that connection.
func ActingAs(ctx context.Context, connId string) context.Context {
	return context.WithValue(ctx, actorKey{}, connId)
}

// SessionStore keeps per-player sessions in the fast cache.
//
// All read-modify-write sequences for one player id run under that player's lock, so handlers for
// the same player never interleave. Different players never contend.
type SessionStore struct {
	cache   cache.FieldStore
	store   SessionSource
	mirror  Mirror
	metrics *metrics.Metrics
	locks   keylock.Map[game.PlayerID]
}

// SessionSource is the durable side of the session lifecycle.
type SessionSource interface {
	GetPlayer(ctx context.Context, id game.PlayerID) (game.Player, error)
	InventoryOf(ctx context.Context, id game.PlayerID) ([]game.ItemID, error)
	SavePlayerState(ctx context.Context, id game.PlayerID, room game.RoomID, health, level int, inventory []game.ItemID) error
}

func NewSessionStore(c cache.FieldStore, s SessionSource, mirror Mirror, m *metrics.Metrics) *SessionStore {
	return &SessionStore{cache: c, store: s, mirror: mirror, metrics: m}
}

// Hydrate loads a player's session from the durable store and writes a fresh cache entry.
// A failed cache write is logged; the session is still returned and served from the mirror.
func (s *SessionStore) Hydrate(ctx context.Context, id game.PlayerID) (game.Session, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	p, err := s.store.GetPlayer(ctx, id)
	if err != nil {
		return game.Session{}, fmt.Errorf("hydrating session %d: %w", id, err)
	}
	inv, err := s.store.InventoryOf(ctx, id)
	if err != nil {
		return game.Session{}, fmt.Errorf("hydrating session %d: %w", id, err)
	}

	sess := game.NewSession(p, inv)
	key := cache.SessionKey(id)
	if err := s.cache.Del(ctx, key); err != nil {
		slog.WarnContext(ctx, "clearing stale session failed", "playerId", id, "error", err)
	}
	if err := s.cache.HSet(ctx, key, encodeSession(sess)); err != nil {
		slog.WarnContext(ctx, "session cache write failed", "playerId", id, "error", err)
	}
	return sess, nil
}

// Get returns the current session of a player. It fails with game.ErrSessionMissing when neither the
// cache nor a bound connection has one; it never falls back to the durable store.
func (s *SessionStore) Get(ctx context.Context, id game.PlayerID) (game.Session, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	sess, _, err := s.load(ctx, id)
	return sess, err
}

// WithSession runs fn with the player's session while holding the player's lock.
func (s *SessionStore) WithSession(ctx context.Context, id game.PlayerID, fn func(game.Session) error) error {
	unlock := s.locks.Lock(id)
	defer unlock()

	if err := s.checkActor(ctx, id); err != nil {
		return err
	}
	sess, _, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	return fn(sess)
}

// Update applies fn to the player's session and merge-writes the changed fields to the cache.
// Nothing is written to the durable store. If fn returns an error the session is left untouched.
func (s *SessionStore) Update(ctx context.Context, id game.PlayerID, fn func(*game.Session) error) (game.Session, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	if err := s.checkActor(ctx, id); err != nil {
		return game.Session{}, err
	}
	cur, cached, err := s.load(ctx, id)
	if err != nil {
		return game.Session{}, err
	}

	next := cur.Clone()
	if err := fn(&next); err != nil {
		return cur, err
	}
	next.PlayerId = id

	fields := encodeSession(next)
	if cached {
		old := encodeSession(cur)
		for f, v := range fields {
			if old[f] == v {
				delete(fields, f)
			}
		}
	}
	if err := s.cache.HSet(ctx, cache.SessionKey(id), fields); err != nil {
		return cur, fmt.Errorf("updating session %d: %w", id, err)
	}

	if s.mirror != nil {
		s.mirror.Remember(next)
	}
	return next, nil
}

// Flush writes the session snapshot and inventory relation to the durable store, then drops the cache entry.
// It is the only path that persists session drift and must run on disconnect.
func (s *SessionStore) Flush(ctx context.Context, id game.PlayerID) error {
	unlock := s.locks.Lock(id)
	defer unlock()

	if err := s.save(ctx, id); err != nil {
		return fmt.Errorf("flushing session %d: %w", id, err)
	}

	if err := s.cache.Del(ctx, cache.SessionKey(id)); err != nil {
		return fmt.Errorf("dropping cached session %d: %w", id, err)
	}
	return nil
}

// Checkpoint writes the live session back to the durable store and leaves it cached.
func (s *SessionStore) Checkpoint(ctx context.Context, id game.PlayerID) error {
	unlock := s.locks.Lock(id)
	defer unlock()

	if err := s.save(ctx, id); err != nil {
		return fmt.Errorf("checkpointing session %d: %w", id, err)
	}
	return nil
}

// save must be called with the player's lock held.
func (s *SessionStore) save(ctx context.Context, id game.PlayerID) error {
	sess, _, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	return s.store.SavePlayerState(ctx, id, sess.RoomId, sess.Health, sess.Level, sess.Inventory)
}

// checkActor must be called with the player's lock held.
func (s *SessionStore) checkActor(ctx context.Context, id game.PlayerID) error {
	connId, ok := ctx.Value(actorKey{}).(string)
	if !ok || s.mirror == nil {
		return nil
	}
	if bound, ok := s.mirror.BoundConn(id); !ok || bound != connId {
		return fmt.Errorf("connection %s does not hold player %d: %w", connId, id, game.ErrSessionMissing)
	}
	return nil
}

// load reads the session from the cache, falling back to the mirror. The bool reports a cache hit.
func (s *SessionStore) load(ctx context.Context, id game.PlayerID) (game.Session, bool, error) {
	fields, err := s.cache.HGetAll(ctx, cache.SessionKey(id))
	if err == nil && len(fields) > 0 {
		sess, derr := decodeSession(fields)
		if derr == nil {
			s.metrics.CacheLookup("session", metrics.Hit)
			return sess, true, nil
		}
		err = game.Unavailable(fmt.Sprintf("decoding session %d", id), derr)
	}

	if err != nil {
		s.metrics.CacheLookup("session", metrics.Error)
	} else {
		s.metrics.CacheLookup("session", metrics.Miss)
	}

	if s.mirror != nil {
		if sess, ok := s.mirror.Mirrored(id); ok {
			if err != nil {
				slog.WarnContext(ctx, "session cache unavailable, using connection mirror", "playerId", id, "error", err)
			}
			return sess.Clone(), false, nil
		}
	}

	if err != nil {
		return game.Session{}, false, err
	}
	return game.Session{}, false, fmt.Errorf("session %d: %w", id, game.ErrSessionMissing)
}

func encodeSession(s game.Session) map[string]string {
	inv, _ := json.Marshal(nonNil(s.Inventory))
	return map[string]string{
		fieldPlayerId:  s.PlayerId.String(),
		fieldUsername:  s.Username,
		fieldRoomId:    string(s.RoomId),
		fieldHealth:    strconv.Itoa(s.Health),
		fieldLevel:     strconv.Itoa(s.Level),
		fieldInventory: string(inv),
	}
}

func decodeSession(fields map[string]string) (game.Session, error) {
	var (
		s    game.Session
		errs []error
	)

	id, err := game.ParsePlayerID(fields[fieldPlayerId])
	errs = append(errs, err)
	s.PlayerId = id
	s.Username = fields[fieldUsername]
	s.RoomId = game.RoomID(fields[fieldRoomId])
	if s.RoomId == "" {
		errs = append(errs, fmt.Errorf("room_id is empty"))
	}

	s.Health, err = strconv.Atoi(fields[fieldHealth])
	errs = append(errs, err)
	s.Level, err = strconv.Atoi(fields[fieldLevel])
	errs = append(errs, err)
	errs = append(errs, json.Unmarshal([]byte(fields[fieldInventory]), &s.Inventory))

	return s, errors.Join(errs...)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

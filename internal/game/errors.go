package game

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means the entity is absent from both the cache and the durable store.
	ErrNotFound = errors.New("not found")

	// ErrSessionMissing means no active session exists for a player; the caller must log in again.
	ErrSessionMissing = errors.New("session missing")

	// ErrBrokenGraph means a non-empty room exit points at a room that does not exist.
	ErrBrokenGraph = errors.New("broken room graph")

	// ErrPreconditionFailed means an item is not in the ownership state an operation requires.
	ErrPreconditionFailed = errors.New("precondition failed")

	// ErrStoreUnavailable wraps transport failures of the cache or the durable store.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrNoExit means the current room has no exit in the requested direction.
	ErrNoExit = errors.New("no exit")

	// ErrNoEffect means an item was used that has no use effect.
	ErrNoEffect = errors.New("item has no use effect")
)

var (
	ErrItemNotInRoom = fmt.Errorf("item not in room: %w", ErrPreconditionFailed)
	ErrItemNotHeld   = fmt.Errorf("item not held: %w", ErrPreconditionFailed)
)

// Unavailable wraps err as a store transport failure.
func Unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}

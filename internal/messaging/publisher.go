package messaging

import (
	"encoding/json"
	"fmt"

	"github.com/pixil98/mudsync/internal/game"
)

// RoomSubject is the channel subject of a room.
func RoomSubject(id game.RoomID) string {
	return "room." + string(id)
}

// Envelope carries an event over a room channel. Except names a connection that must not receive it.
type Envelope struct {
	Except string     `json:"except,omitempty"`
	Event  game.Event `json:"event"`
}

// RoomPublisher sends events to room channels over a Bus.
type RoomPublisher struct {
	bus Bus
}

// NewRoomPublisher wraps a Bus for room channel delivery.
func NewRoomPublisher(bus Bus) *RoomPublisher {
	return &RoomPublisher{bus: bus}
}

// Publish sends ev to every connection subscribed to room, other than except.
func (p *RoomPublisher) Publish(room game.RoomID, ev game.Event, except string) error {
	data, err := json.Marshal(Envelope{Except: except, Event: ev})
	if err != nil {
		return fmt.Errorf("marshalling %s event: %w", ev.Type, err)
	}
	return p.bus.Publish(RoomSubject(room), data)
}

// Subscribe calls deliver for each event published to room that is not excluded for connId.
func (p *RoomPublisher) Subscribe(room game.RoomID, connId string, deliver func(game.Event)) (func(), error) {
	return p.bus.Subscribe(RoomSubject(room), func(data []byte) {
		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			return
		}
		if env.Except != "" && env.Except == connId {
			return
		}
		deliver(env.Event)
	})
}

package game

// EventType names an outbound event delivered to a connection.
type EventType string

const (
	EventCommand               EventType = "command"
	EventChat                  EventType = "chat"
	EventLoginSuccess          EventType = "loginSuccess"
	EventLoginFailure          EventType = "loginFailure"
	EventJoined                EventType = "joined"
	EventPlayerJoined          EventType = "playerJoined"
	EventPlayerLeft            EventType = "playerLeft"
	EventMoveSuccess           EventType = "moveSuccess"
	EventMoveFailure           EventType = "moveFailure"
	EventUpdateRoomDescription EventType = "updateRoomDescription"
	EventItemPickedUp          EventType = "itemPickedUp"
	EventItemRemoved           EventType = "itemRemoved"
	EventItemAdded             EventType = "itemAdded"
	EventItemDropped           EventType = "itemDropped"
	EventItemEquipped          EventType = "itemEquipped"
	EventItemUsed              EventType = "itemUsed"
	EventItemActionFailed      EventType = "itemActionFailed"
	EventError                 EventType = "error"
)

// Event is the outbound event surface. Fields not relevant to a type are left empty.
type Event struct {
	Type        EventType `json:"type"`
	Text        string    `json:"text,omitempty"`
	Player      *Player   `json:"player,omitempty"`
	PlayerId    PlayerID  `json:"playerId,omitempty"`
	Username    string    `json:"username,omitempty"`
	RoomId      RoomID    `json:"roomId,omitempty"`
	Description string    `json:"description,omitempty"`
	RoomItems   []Item    `json:"roomItems,omitempty"`
	Inventory   []Item    `json:"inventory,omitempty"`
	Item        *Item     `json:"item,omitempty"`
	ItemId      ItemID    `json:"itemId,omitempty"`
}

// TextEvent builds an event that only carries a message.
func TextEvent(t EventType, text string) Event {
	return Event{Type: t, Text: text}
}

package game

import "slices"

// Session is the ephemeral per-player state kept in the fast cache while a player is connected.
type Session struct {
	PlayerId  PlayerID `json:"playerId"`
	Username  string   `json:"username"`
	RoomId    RoomID   `json:"roomId"`
	Health    int      `json:"health"`
	Level     int      `json:"level"`
	Inventory []ItemID `json:"inventory"`
}

// NewSession builds a session from a durable player record and its inventory relation.
func NewSession(p Player, inventory []ItemID) Session {
	return Session{
		PlayerId:  p.Id,
		Username:  p.Username,
		RoomId:    p.RoomId,
		Health:    p.Health,
		Level:     p.Level,
		Inventory: slices.Clone(inventory),
	}
}

// Holds reports whether the session inventory contains item id.
func (s *Session) Holds(id ItemID) bool {
	return slices.Contains(s.Inventory, id)
}

// AddItem appends id to the inventory unless it is already present.
func (s *Session) AddItem(id ItemID) {
	if !s.Holds(id) {
		s.Inventory = append(s.Inventory, id)
	}
}

// RemoveItem removes id from the inventory, preserving order.
func (s *Session) RemoveItem(id ItemID) {
	s.Inventory = slices.DeleteFunc(s.Inventory, func(i ItemID) bool { return i == id })
}

// Clone returns a deep copy of s.
func (s Session) Clone() Session {
	s.Inventory = slices.Clone(s.Inventory)
	return s
}

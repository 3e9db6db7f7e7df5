package display

import (
	"fmt"

	"github.com/pixil98/mudsync/internal/game"
)

// Format renders an event as the text a line-oriented client sees.
func Format(ev game.Event) string {
	switch ev.Type {
	case game.EventLoginSuccess:
		name := ""
		if ev.Player != nil {
			name = ev.Player.Username
		}
		return fmt.Sprintf("Welcome, %s.\n\n%s", Capitalize(name), ev.Description)
	case game.EventJoined:
		return "You have joined the game."
	case game.EventMoveSuccess:
		return ev.Description
	case game.EventUpdateRoomDescription:
		if ev.Text != "" {
			return ev.Text
		}
		return ev.Description
	case game.EventPlayerJoined:
		return fmt.Sprintf("%s has arrived.", who(ev))
	case game.EventPlayerLeft:
		return fmt.Sprintf("%s has left.", who(ev))
	case game.EventItemRemoved:
		return fmt.Sprintf("%s picks something up.", who(ev))
	case game.EventItemAdded:
		if ev.Item != nil {
			return fmt.Sprintf("%s drops %s.", who(ev), ev.Item.Name)
		}
		return fmt.Sprintf("%s drops something.", who(ev))
	default:
		return ev.Text
	}
}

func who(ev game.Event) string {
	if ev.Username != "" {
		return Capitalize(ev.Username)
	}
	if ev.PlayerId != 0 {
		return fmt.Sprintf("Player %d", ev.PlayerId)
	}
	return "Someone"
}

package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/pixil98/mudsync/internal/game"
)

// chat sends a say or an action to everyone in the speaker's room, the speaker included.
func (h *Handler) chat(ctx context.Context, cc *Context) error {
	msg := strings.TrimSpace(cc.Command.Message)
	if msg == "" {
		return NewUserError("Say what?")
	}

	name := cc.Binding.Session.Username
	if name == "" {
		name = fmt.Sprintf("Player %d", cc.Binding.Player)
	}

	var text string
	switch cc.Command.Mode {
	case ChatAction:
		text = fmt.Sprintf("%s %s", name, msg)
	default:
		text = fmt.Sprintf(`%s says: "%s"`, name, msg)
	}

	h.Router.Broadcast(ctx, cc.Binding.Room, game.Event{
		Type:     game.EventChat,
		Text:     text,
		PlayerId: cc.Binding.Player,
		Username: cc.Binding.Session.Username,
	}, "")
	return nil
}

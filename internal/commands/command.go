package commands

import (
	"strconv"
	"strings"

	"github.com/pixil98/mudsync/internal/game"
)

// Kind names an inbound command.
type Kind string

const (
	KindMove       Kind = "move"
	KindExamine    Kind = "examine"
	KindLook       Kind = "look"
	KindInventory  Kind = "inventory"
	KindPickup     Kind = "pickup"
	KindDrop       Kind = "drop"
	KindChat       Kind = "chat"
	KindLogin      Kind = "login"
	KindJoinGame   Kind = "joinGame"
	KindUseItem    Kind = "useItem"
	KindEquipItem  Kind = "equipItem"
	KindDisconnect Kind = "disconnect"
	KindUnknown    Kind = "error"
)

// ChatMode distinguishes speech from freeform actions.
type ChatMode string

const (
	ChatSay    ChatMode = "say"
	ChatAction ChatMode = "action"
)

// Command is one inbound command. Only the fields its Kind uses are set.
type Command struct {
	Kind      Kind           `json:"type"`
	Direction game.Direction `json:"direction,omitempty"`
	ItemName  string         `json:"itemName,omitempty"`
	ItemId    game.ItemID    `json:"itemId,omitempty"`
	Mode      ChatMode       `json:"mode,omitempty"`
	Message   string         `json:"message,omitempty"`
	Username  string         `json:"username,omitempty"`
	Password  string         `json:"password,omitempty"`
	PlayerId  game.PlayerID  `json:"playerId,omitempty"`
}

// Parse turns a line typed on a text transport into a Command. Input it cannot place becomes
// KindUnknown carrying the original text in Message.
func Parse(line string) Command {
	line = strings.TrimSpace(line)
	if line == "" {
		return Command{}
	}

	switch line[0] {
	case '\'', '"':
		return Command{Kind: KindChat, Mode: ChatSay, Message: strings.TrimSpace(line[1:])}
	case ':':
		return Command{Kind: KindChat, Mode: ChatAction, Message: strings.TrimSpace(line[1:])}
	}

	verb, rest, _ := strings.Cut(line, " ")
	verb = strings.ToLower(verb)
	rest = strings.TrimSpace(rest)

	if d, ok := game.ParseDirection(verb); ok && rest == "" {
		return Command{Kind: KindMove, Direction: d}
	}

	switch verb {
	case "go", "move", "walk":
		if d, ok := game.ParseDirection(rest); ok {
			return Command{Kind: KindMove, Direction: d}
		}
	case "l", "look":
		if rest == "" {
			return Command{Kind: KindLook}
		}
		return Command{Kind: KindExamine, ItemName: strings.TrimPrefix(rest, "at ")}
	case "x", "exa", "examine":
		if rest != "" {
			return Command{Kind: KindExamine, ItemName: rest}
		}
	case "i", "inv", "inventory":
		return Command{Kind: KindInventory}
	case "get", "take", "pickup":
		if rest != "" {
			return Command{Kind: KindPickup, ItemName: rest}
		}
	case "pick":
		if name, ok := strings.CutPrefix(rest, "up "); ok {
			return Command{Kind: KindPickup, ItemName: strings.TrimSpace(name)}
		}
	case "drop":
		if rest != "" {
			return Command{Kind: KindDrop, ItemName: rest}
		}
	case "say":
		return Command{Kind: KindChat, Mode: ChatSay, Message: rest}
	case "emote", "me":
		return Command{Kind: KindChat, Mode: ChatAction, Message: rest}
	case "use", "quaff", "drink":
		if rest != "" {
			return itemCommand(KindUseItem, rest)
		}
	case "equip", "wield", "wear":
		if rest != "" {
			return itemCommand(KindEquipItem, rest)
		}
	case "login":
		user, pass, ok := strings.Cut(rest, " ")
		if ok {
			return Command{Kind: KindLogin, Username: user, Password: strings.TrimSpace(pass)}
		}
	case "join":
		if id, err := game.ParsePlayerID(rest); err == nil {
			return Command{Kind: KindJoinGame, PlayerId: id}
		}
	case "quit", "exit", "logout":
		return Command{Kind: KindDisconnect}
	}

	return Command{Kind: KindUnknown, Message: line}
}

// itemCommand accepts either "#<id>" or an item name.
func itemCommand(kind Kind, arg string) Command {
	if idStr, ok := strings.CutPrefix(arg, "#"); ok {
		if id, err := strconv.ParseInt(idStr, 10, 64); err == nil && id > 0 {
			return Command{Kind: kind, ItemId: game.ItemID(id)}
		}
	}
	return Command{Kind: kind, ItemName: arg}
}

package world

import (
	"bytes"
	"context"
	"fmt"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/pixil98/mudsync/internal/game"
)

const roomTemplate = `{{ .Description }}
{{- with .Items }} You see: {{ join ", " . }}.{{ end }}
{{- with .Players }} You notice: {{ join ", " . }}.{{ else }} You are alone here.{{ end }}
{{- with .Exits }} Obvious exits are: {{ join ", " . }}.{{ else }} There are no obvious exits.{{ end }}`

// Occupants reports who is currently in a room.
type Occupants interface {
	// PlayersIn returns the usernames of players in room, other than except.
	PlayersIn(room game.RoomID, except game.PlayerID) []string
}

// RoomItems lists the items a room owns.
type RoomItems interface {
	ItemsInRoom(ctx context.Context, room game.RoomID) ([]game.Item, error)
}

// View is a room as one player sees it.
type View struct {
	RoomId      game.RoomID
	Description string
	Items       []game.Item
}

// Renderer produces the player-facing text of a room. Every component that shows a room uses it.
type Renderer struct {
	graph     *RoomGraph
	items     RoomItems
	occupants Occupants
	tmpl      *template.Template
}

func NewRenderer(g *RoomGraph, items RoomItems, occupants Occupants) *Renderer {
	return &Renderer{
		graph:     g,
		items:     items,
		occupants: occupants,
		tmpl:      template.Must(template.New("room").Funcs(sprig.TxtFuncMap()).Parse(roomTemplate)),
	}
}

// Render describes room id for viewer: the base description, the items the room owns, the other
// players present and the exits in north, south, east, west order.
func (r *Renderer) Render(ctx context.Context, id game.RoomID, viewer game.PlayerID) (View, error) {
	room, err := r.graph.ResolveRoom(ctx, id)
	if err != nil {
		return View{}, err
	}
	items, err := r.items.ItemsInRoom(ctx, id)
	if err != nil {
		return View{}, fmt.Errorf("listing items in %s: %w", id, err)
	}

	data := struct {
		Description string
		Items       []string
		Players     []string
		Exits       []string
	}{Description: room.Description}
	for _, i := range items {
		data.Items = append(data.Items, i.Name)
	}
	if r.occupants != nil {
		data.Players = r.occupants.PlayersIn(id, viewer)
	}
	for _, d := range room.ExitDirections() {
		data.Exits = append(data.Exits, string(d))
	}

	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, data); err != nil {
		return View{}, fmt.Errorf("rendering room %s: %w", id, err)
	}

	return View{RoomId: id, Description: buf.String(), Items: items}, nil
}

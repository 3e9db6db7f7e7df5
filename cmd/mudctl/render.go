package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pixil98/mudsync/internal/cache"
	"github.com/pixil98/mudsync/internal/display"
	"github.com/pixil98/mudsync/internal/game"
	"github.com/pixil98/mudsync/internal/storage/sqlite"
	"github.com/pixil98/mudsync/internal/world"
)

func renderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "render <roomId>",
		Short: "Print a room as an empty-handed visitor would see it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			db, _ := cmd.Flags().GetString("db")
			store, err := sqlite.Open(ctx, db)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			graph := world.NewRoomGraph(cache.NewMemory(), store, nil)
			view, err := world.NewRenderer(graph, store, nil).Render(ctx, game.RoomID(args[0]), 0)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), display.Wrap(view.Description))
			return nil
		},
	}
}

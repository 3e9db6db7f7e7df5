package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pixil98/mudsync/internal/storage"
	"github.com/pixil98/mudsync/internal/storage/sqlite"
)

func seedCmd() *cobra.Command {
	var rooms, items, players string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load room, item and player assets into the durable store",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			w, err := storage.LoadWorld(rooms, items, players)
			if err != nil {
				return err
			}

			db, _ := cmd.Flags().GetString("db")
			store, err := sqlite.Open(ctx, db)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := w.Seed(ctx, store); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d rooms, %d items and %d players into %s\n",
				len(w.Rooms.GetAll()), len(w.Items.GetAll()), len(w.Players.GetAll()), db)
			return nil
		},
	}

	cmd.Flags().StringVar(&rooms, "rooms", "assets/rooms", "room asset directory")
	cmd.Flags().StringVar(&items, "items", "assets/items", "item asset directory")
	cmd.Flags().StringVar(&players, "players", "assets/players", "player asset directory")

	return cmd
}

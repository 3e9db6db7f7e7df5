package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/pixil98/mudsync/internal/game"
)

const itemColumns = `id, name, description, detailed_description, strength_bonus, defense_bonus, agility_bonus,
effect_kind, effect_value, room_id, holder_id`

func scanItem(row rowScanner) (game.Item, error) {
	var (
		i      game.Item
		room   sql.NullString
		holder sql.NullInt64
	)
	err := row.Scan(&i.Id, &i.Name, &i.Description, &i.DetailedDescription,
		&i.Bonus.Strength, &i.Bonus.Defense, &i.Bonus.Agility,
		&i.Effect.Kind, &i.Effect.Amount, &room, &holder)
	if err != nil {
		return game.Item{}, err
	}

	switch {
	case room.Valid:
		i.Owner = game.InRoom(game.RoomID(room.String))
	case holder.Valid:
		i.Owner = game.HeldBy(game.PlayerID(holder.Int64))
	}
	return i, nil
}

func (s *Store) queryItems(ctx context.Context, op, query string, args ...any) ([]game.Item, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(op, err)
	}
	defer func() { _ = rows.Close() }()

	var items []game.Item
	for rows.Next() {
		i, err := scanItem(rows)
		if err != nil {
			return nil, classify(op, err)
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(op, err)
	}
	return items, nil
}

// GetItem loads one item with its ownership tag.
func (s *Store) GetItem(ctx context.Context, id game.ItemID) (game.Item, error) {
	i, err := scanItem(s.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items WHERE id = ?`, int64(id)))
	if err != nil {
		return game.Item{}, classify(fmt.Sprintf("get item %d", id), err)
	}
	return i, nil
}

// ItemsInRoom lists the items a room owns, ordered by id.
func (s *Store) ItemsInRoom(ctx context.Context, room game.RoomID) ([]game.Item, error) {
	return s.queryItems(ctx, "list items in room "+room.String(),
		`SELECT `+itemColumns+` FROM items WHERE room_id = ? ORDER BY id`, string(room))
}

// ItemsHeldBy lists the items a player holds in inventory order.
func (s *Store) ItemsHeldBy(ctx context.Context, player game.PlayerID) ([]game.Item, error) {
	return s.queryItems(ctx, fmt.Sprintf("list items held by player %d", player),
		`SELECT `+qualified("i", itemColumns)+`
		 FROM items i
		 LEFT JOIN player_inventory pi ON pi.item_id = i.id AND pi.player_id = i.holder_id
		 WHERE i.holder_id = ?
		 ORDER BY pi.position IS NULL, pi.position, i.id`, int64(player))
}

// InventoryOf returns the ids of the items a player holds in inventory order.
func (s *Store) InventoryOf(ctx context.Context, player game.PlayerID) ([]game.ItemID, error) {
	items, err := s.ItemsHeldBy(ctx, player)
	if err != nil {
		return nil, err
	}
	ids := make([]game.ItemID, 0, len(items))
	for _, i := range items {
		ids = append(ids, i.Id)
	}
	return ids, nil
}

// FindItemInRoom finds an item by name among those a room owns.
func (s *Store) FindItemInRoom(ctx context.Context, room game.RoomID, name string) (game.Item, error) {
	items, err := s.ItemsInRoom(ctx, room)
	if err != nil {
		return game.Item{}, err
	}
	return findByName(items, name, "room "+room.String())
}

// FindItemHeld finds an item by name among those a player holds.
func (s *Store) FindItemHeld(ctx context.Context, player game.PlayerID, name string) (game.Item, error) {
	items, err := s.ItemsHeldBy(ctx, player)
	if err != nil {
		return game.Item{}, err
	}
	return findByName(items, name, fmt.Sprintf("player %d", player))
}

func findByName(items []game.Item, name, where string) (game.Item, error) {
	for _, i := range items {
		if i.MatchName(name) {
			return i, nil
		}
	}
	return game.Item{}, fmt.Errorf("item %q in %s: %w", name, where, game.ErrNotFound)
}

// FindPart finds a named part of any item a player holds.
func (s *Store) FindPart(ctx context.Context, player game.PlayerID, partName string) (game.Part, error) {
	op := fmt.Sprintf("find part %q held by player %d", partName, player)

	rows, err := s.db.QueryContext(ctx,
		`SELECT ip.item_id, ip.name, ip.description
		 FROM item_parts ip JOIN items i ON i.id = ip.item_id
		 WHERE i.holder_id = ?
		 ORDER BY ip.item_id, ip.name`, int64(player))
	if err != nil {
		return game.Part{}, classify(op, err)
	}
	defer func() { _ = rows.Close() }()

	var (
		found  bool
		itemID game.ItemID
		part   game.Part
	)
	for rows.Next() {
		var p game.Part
		var id game.ItemID
		if err := rows.Scan(&id, &p.Name, &p.Description); err != nil {
			return game.Part{}, classify(op, err)
		}
		if game.SameName(p.Name, partName) {
			found, itemID, part = true, id, p
			break
		}
	}
	if err := rows.Err(); err != nil {
		return game.Part{}, classify(op, err)
	}
	_ = rows.Close()

	if !found {
		return game.Part{}, fmt.Errorf("%s: %w", op, game.ErrNotFound)
	}

	part.Item, err = s.GetItem(ctx, itemID)
	if err != nil {
		return game.Part{}, err
	}
	return part, nil
}

// UpsertItem writes an authored item and replaces its parts.
func (s *Store) UpsertItem(ctx context.Context, i game.Item, parts map[string]string) error {
	op := fmt.Sprintf("upsert item %d", i.Id)
	if !i.Owner.Valid() {
		return fmt.Errorf("%s: item must be owned by a room or a player", op)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return classify(op, err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO items (id, name, description, detailed_description, strength_bonus, defense_bonus, agility_bonus,
		   effect_kind, effect_value, room_id, holder_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   name = excluded.name,
		   description = excluded.description,
		   detailed_description = excluded.detailed_description,
		   strength_bonus = excluded.strength_bonus,
		   defense_bonus = excluded.defense_bonus,
		   agility_bonus = excluded.agility_bonus,
		   effect_kind = excluded.effect_kind,
		   effect_value = excluded.effect_value,
		   room_id = excluded.room_id,
		   holder_id = excluded.holder_id`,
		int64(i.Id), i.Name, i.Description, i.DetailedDescription,
		i.Bonus.Strength, i.Bonus.Defense, i.Bonus.Agility,
		i.Effect.Kind, i.Effect.Amount, nullRoom(i.Owner), nullHolder(i.Owner),
	)
	if err != nil {
		return classify(op, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM player_inventory WHERE item_id = ?`, int64(i.Id)); err != nil {
		return classify(op, err)
	}
	if p, ok := i.Owner.Player(); ok {
		if err := appendInventory(ctx, tx, p, i.Id); err != nil {
			return classify(op, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM item_parts WHERE item_id = ?`, int64(i.Id)); err != nil {
		return classify(op, err)
	}
	for name, desc := range parts {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO item_parts (item_id, name, description) VALUES (?, ?, ?)`, int64(i.Id), name, desc)
		if err != nil {
			return classify(op, err)
		}
	}

	return classify(op, tx.Commit())
}

// TransferItem flips an item's ownership tag from one owner to another as a single compare-and-set.
// The inventory relation is kept in step inside the same transaction.
func (s *Store) TransferItem(ctx context.Context, id game.ItemID, from, to game.Owner) (game.Item, error) {
	op := fmt.Sprintf("transfer item %d from %s to %s", id, from, to)
	if !from.Valid() || !to.Valid() {
		return game.Item{}, fmt.Errorf("%s: invalid owner", op)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return game.Item{}, classify(op, err)
	}
	defer func() { _ = tx.Rollback() }()

	var res sql.Result
	if r, ok := from.Room(); ok {
		res, err = tx.ExecContext(ctx,
			`UPDATE items SET room_id = ?, holder_id = ? WHERE id = ? AND room_id = ?`,
			nullRoom(to), nullHolder(to), int64(id), string(r))
	} else {
		p, _ := from.Player()
		res, err = tx.ExecContext(ctx,
			`UPDATE items SET room_id = ?, holder_id = ? WHERE id = ? AND holder_id = ?`,
			nullRoom(to), nullHolder(to), int64(id), int64(p))
	}
	if err != nil {
		return game.Item{}, classify(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return game.Item{}, classify(op, err)
	}
	if n == 0 {
		return game.Item{}, transferFailure(ctx, tx, op, id, from)
	}

	if p, ok := from.Player(); ok {
		_, err := tx.ExecContext(ctx, `DELETE FROM player_inventory WHERE player_id = ? AND item_id = ?`, int64(p), int64(id))
		if err != nil {
			return game.Item{}, classify(op, err)
		}
	}
	if p, ok := to.Player(); ok {
		if err := appendInventory(ctx, tx, p, id); err != nil {
			return game.Item{}, classify(op, err)
		}
	}

	item, err := scanItem(tx.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items WHERE id = ?`, int64(id)))
	if err != nil {
		return game.Item{}, classify(op, err)
	}
	if err := tx.Commit(); err != nil {
		return game.Item{}, classify(op, err)
	}
	return item, nil
}

// transferFailure explains why a compare-and-set matched no row.
func transferFailure(ctx context.Context, tx *sql.Tx, op string, id game.ItemID, from game.Owner) error {
	var one int
	err := tx.QueryRowContext(ctx, `SELECT 1 FROM items WHERE id = ?`, int64(id)).Scan(&one)
	if err != nil {
		return classify(op, err)
	}
	if from.Kind() == game.OwnerRoom {
		return fmt.Errorf("%s: %w", op, game.ErrItemNotInRoom)
	}
	return fmt.Errorf("%s: %w", op, game.ErrItemNotHeld)
}

func appendInventory(ctx context.Context, tx *sql.Tx, player game.PlayerID, item game.ItemID) error {
	_, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO player_inventory (player_id, item_id, position)
		 SELECT ?, ?, COALESCE(MAX(position), -1) + 1 FROM player_inventory WHERE player_id = ?`,
		int64(player), int64(item), int64(player))
	return err
}

func qualified(alias, columns string) string {
	cols := strings.Split(columns, ",")
	for i, c := range cols {
		cols[i] = alias + "." + strings.TrimSpace(c)
	}
	return strings.Join(cols, ", ")
}

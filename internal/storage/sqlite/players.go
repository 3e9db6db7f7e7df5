package sqlite

import (
	"context"
	"fmt"

	"github.com/pixil98/mudsync/internal/game"
)

const playerColumns = `id, username, health, level, strength, defense, agility, current_room_id`

func scanPlayer(row rowScanner, extra ...any) (game.Player, error) {
	var p game.Player
	dest := append([]any{&p.Id, &p.Username, &p.Health, &p.Level, &p.Strength, &p.Defense, &p.Agility, &p.RoomId}, extra...)
	err := row.Scan(dest...)
	return p, err
}

// GetPlayer loads the durable record of a player.
func (s *Store) GetPlayer(ctx context.Context, id game.PlayerID) (game.Player, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+playerColumns+` FROM players WHERE id = ?`, int64(id))
	p, err := scanPlayer(row)
	if err != nil {
		return game.Player{}, classify(fmt.Sprintf("get player %d", id), err)
	}
	return p, nil
}

// GetPlayerByUsername loads a player and its password hash. Usernames compare case-insensitively.
func (s *Store) GetPlayerByUsername(ctx context.Context, username string) (game.Player, string, error) {
	var hash string
	row := s.db.QueryRowContext(ctx, `SELECT `+playerColumns+`, password_hash FROM players WHERE username = ?`, username)
	p, err := scanPlayer(row, &hash)
	if err != nil {
		return game.Player{}, "", classify("get player "+username, err)
	}
	return p, hash, nil
}

// UpsertPlayer writes an authored player account.
func (s *Store) UpsertPlayer(ctx context.Context, p game.Player, passwordHash string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO players (id, username, password_hash, health, level, strength, defense, agility, current_room_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   username = excluded.username,
		   password_hash = excluded.password_hash,
		   health = excluded.health,
		   level = excluded.level,
		   strength = excluded.strength,
		   defense = excluded.defense,
		   agility = excluded.agility,
		   current_room_id = excluded.current_room_id`,
		int64(p.Id), p.Username, passwordHash, p.Health, p.Level,
		p.Strength, p.Defense, p.Agility, string(p.RoomId),
	)
	return classify(fmt.Sprintf("upsert player %d", p.Id), err)
}

// SavePlayerState writes a session snapshot and replaces the player's inventory relation in one
// transaction. Only items the player actually holds are recorded; inventory gives their order.
func (s *Store) SavePlayerState(ctx context.Context, id game.PlayerID, room game.RoomID, health, level int, inventory []game.ItemID) error {
	op := fmt.Sprintf("save player %d", id)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return classify(op, err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`UPDATE players SET current_room_id = ?, health = ?, level = ? WHERE id = ?`,
		string(room), health, level, int64(id))
	if err != nil {
		return classify(op, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return classify(op, err)
	} else if n == 0 {
		return fmt.Errorf("%s: %w", op, game.ErrNotFound)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM player_inventory WHERE player_id = ?`, int64(id)); err != nil {
		return classify(op, err)
	}
	for pos, item := range inventory {
		_, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO player_inventory (player_id, item_id, position)
			 SELECT ?, id, ? FROM items WHERE id = ? AND holder_id = ?`,
			int64(id), pos, int64(item), int64(id))
		if err != nil {
			return classify(op, err)
		}
	}

	return classify(op, tx.Commit())
}

// UpdatePlayerHealth writes a player's health.
func (s *Store) UpdatePlayerHealth(ctx context.Context, id game.PlayerID, health int) error {
	op := fmt.Sprintf("update health of player %d", id)
	res, err := s.db.ExecContext(ctx, `UPDATE players SET health = ? WHERE id = ?`, health, int64(id))
	return affectedOne(op, res, err)
}

// AddPlayerStats adds bonus to a player's stats in place.
func (s *Store) AddPlayerStats(ctx context.Context, id game.PlayerID, bonus game.Stats) error {
	op := fmt.Sprintf("add stats to player %d", id)
	res, err := s.db.ExecContext(ctx,
		`UPDATE players SET strength = strength + ?, defense = defense + ?, agility = agility + ? WHERE id = ?`,
		bonus.Strength, bonus.Defense, bonus.Agility, int64(id))
	return affectedOne(op, res, err)
}

type rowsAffecter interface {
	RowsAffected() (int64, error)
}

func affectedOne(op string, res rowsAffecter, err error) error {
	if err != nil {
		return classify(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return classify(op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, game.ErrNotFound)
	}
	return nil
}

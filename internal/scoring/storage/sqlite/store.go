// Package sqlite provides SQLite-backed persistence for the score ledger.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	apperrors "github.com/arphillips06/ti4-ledger/internal/platform/errors"
	sqlitemigrate "github.com/arphillips06/ti4-ledger/internal/platform/storage/sqlitemigrate"
	"github.com/arphillips06/ti4-ledger/internal/scoring/projection"
	"github.com/arphillips06/ti4-ledger/internal/scoring/storage"
	"github.com/arphillips06/ti4-ledger/internal/scoring/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// Store provides SQLite-backed persistence for games and the event journal.
type Store struct {
	sqlDB *sql.DB
}

// Open opens and migrates a ledger SQLite store.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, apperrors.Wrap(apperrors.CodeStorageUnavailable, "ping sqlite db", err)
	}

	store := &Store{sqlDB: sqlDB}
	if err := store.runMigrations(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return store, nil
}

// Close releases the underlying SQLite connection.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// PutGame stores or replaces a game and its roster.
func (s *Store) PutGame(ctx context.Context, game projection.Game) error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(game.ID) == "" {
		return fmt.Errorf("game id is required")
	}
	if game.CreatedAt.IsZero() {
		game.CreatedAt = time.Now().UTC()
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO games (id, winning_points, created_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   winning_points = excluded.winning_points`,
		game.ID,
		game.WinningPoints,
		timeToUnixMillis(game.CreatedAt),
	); err != nil {
		return fmt.Errorf("put game: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM players WHERE game_id = ?`, game.ID); err != nil {
		return fmt.Errorf("clear players: %w", err)
	}
	for i, player := range game.Players {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO players (game_id, id, name, color, faction_key, position)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			game.ID, player.ID, player.Name, player.Color, player.FactionKey, i,
		); err != nil {
			return fmt.Errorf("put player: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// GetGame retrieves a game and its roster by id.
func (s *Store) GetGame(ctx context.Context, id string) (projection.Game, error) {
	if s == nil || s.sqlDB == nil {
		return projection.Game{}, fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(id) == "" {
		return projection.Game{}, fmt.Errorf("game id is required")
	}

	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT id, winning_points, created_at FROM games WHERE id = ?`, id)

	var game projection.Game
	var createdAt int64
	if err := row.Scan(&game.ID, &game.WinningPoints, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return projection.Game{}, storage.ErrNotFound
		}
		return projection.Game{}, fmt.Errorf("get game: %w", err)
	}
	game.CreatedAt = unixMillisToTime(createdAt)

	players, err := s.listPlayers(ctx, game.ID)
	if err != nil {
		return projection.Game{}, err
	}
	game.Players = players
	return game, nil
}

// ListGames returns all games ordered by creation time.
func (s *Store) ListGames(ctx context.Context) ([]projection.Game, error) {
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT id, winning_points, created_at FROM games ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	defer rows.Close()

	games := make([]projection.Game, 0)
	for rows.Next() {
		var game projection.Game
		var createdAt int64
		if err := rows.Scan(&game.ID, &game.WinningPoints, &createdAt); err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		game.CreatedAt = unixMillisToTime(createdAt)
		games = append(games, game)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate games: %w", err)
	}

	for i := range games {
		players, err := s.listPlayers(ctx, games[i].ID)
		if err != nil {
			return nil, err
		}
		games[i].Players = players
	}
	return games, nil
}

func (s *Store) listPlayers(ctx context.Context, gameID string) ([]projection.Player, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT id, name, color, faction_key FROM players WHERE game_id = ? ORDER BY position`, gameID)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	defer rows.Close()

	players := make([]projection.Player, 0)
	for rows.Next() {
		var player projection.Player
		if err := rows.Scan(&player.ID, &player.Name, &player.Color, &player.FactionKey); err != nil {
			return nil, fmt.Errorf("scan player: %w", err)
		}
		players = append(players, player)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate players: %w", err)
	}
	return players, nil
}

// runMigrations applies embedded SQL migrations in filename order.
func (s *Store) runMigrations() error {
	return sqlitemigrate.ApplyMigrations(s.sqlDB, migrations.FS, "")
}

func timeToUnixMillis(value time.Time) int64 {
	if value.IsZero() {
		return 0
	}
	return value.UTC().UnixMilli()
}

func unixMillisToTime(value int64) time.Time {
	if value <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(value).UTC()
}

var _ storage.Store = (*Store)(nil)

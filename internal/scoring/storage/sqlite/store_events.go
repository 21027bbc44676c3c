package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/arphillips06/ti4-ledger/internal/scoring/event"
	"github.com/arphillips06/ti4-ledger/internal/scoring/storage"
	sqlitelib "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// EventStore methods (append-only score journal)

const eventColumns = `e.game_id, e.seq, e.id, e.player_id, e.round, e.created_at,
	 e.kind, e.objective_id, e.agenda_title, e.relic_title, e.points, e.extra_json`

// AppendEvent atomically appends an event and returns it with sequence and
// creation timestamp set. The per-game sequence counter is advanced in the
// same transaction as the insert, so numbers are contiguous and gap-free.
func (s *Store) AppendEvent(ctx context.Context, evt event.Event) (event.Event, error) {
	if err := ctx.Err(); err != nil {
		return event.Event{}, err
	}
	if s == nil || s.sqlDB == nil {
		return event.Event{}, fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(evt.GameID) == "" {
		return event.Event{}, fmt.Errorf("game id is required")
	}
	if strings.TrimSpace(evt.ID) == "" {
		return event.Event{}, fmt.Errorf("event id is required")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return event.Event{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM games WHERE id = ?`, evt.GameID).Scan(&exists); err != nil {
		return event.Event{}, fmt.Errorf("check game: %w", err)
	}
	if exists == 0 {
		return event.Event{}, storage.ErrNotFound
	}

	if evt.CreatedAt.IsZero() {
		evt.CreatedAt = time.Now().UTC()
	}
	evt.CreatedAt = evt.CreatedAt.UTC().Truncate(time.Millisecond)

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO event_seq (game_id, next_seq) VALUES (?, 1)
		 ON CONFLICT(game_id) DO NOTHING`, evt.GameID); err != nil {
		return event.Event{}, fmt.Errorf("init event seq: %w", err)
	}

	var seq int64
	if err := tx.QueryRowContext(ctx,
		`SELECT next_seq FROM event_seq WHERE game_id = ?`, evt.GameID).Scan(&seq); err != nil {
		return event.Event{}, fmt.Errorf("get event seq: %w", err)
	}
	evt.Seq = uint64(seq)

	if _, err := tx.ExecContext(ctx,
		`UPDATE event_seq SET next_seq = next_seq + 1 WHERE game_id = ?`, evt.GameID); err != nil {
		return event.Event{}, fmt.Errorf("increment event seq: %w", err)
	}

	extraJSON, err := marshalExtra(evt.Extra)
	if err != nil {
		return event.Event{}, err
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO events (
		    game_id, seq, id, player_id, round, created_at,
		    kind, objective_id, agenda_title, relic_title, points, extra_json
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		evt.GameID,
		int64(evt.Seq),
		evt.ID,
		evt.PlayerID,
		evt.Round,
		timeToUnixMillis(evt.CreatedAt),
		string(evt.Kind),
		evt.ObjectiveID,
		evt.AgendaTitle,
		evt.RelicTitle,
		evt.Points,
		extraJSON,
	); err != nil {
		return event.Event{}, fmt.Errorf("append event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return event.Event{}, fmt.Errorf("commit: %w", err)
	}
	return evt, nil
}

// ListEvents returns the effective history for a game ordered by sequence
// ascending. Retracted events are excluded from replay.
func (s *Store) ListEvents(ctx context.Context, gameID string) ([]event.Event, error) {
	return s.listEvents(ctx, gameID, false)
}

// ListAllEvents returns the full journal including retracted events.
func (s *Store) ListAllEvents(ctx context.Context, gameID string) ([]event.Event, error) {
	return s.listEvents(ctx, gameID, true)
}

func (s *Store) listEvents(ctx context.Context, gameID string, includeRetracted bool) ([]event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(gameID) == "" {
		return nil, fmt.Errorf("game id is required")
	}

	query := `SELECT ` + eventColumns + `
		 FROM events e
		 LEFT JOIN retractions r ON r.event_id = e.id
		 WHERE e.game_id = ?`
	if !includeRetracted {
		query += ` AND r.event_id IS NULL`
	}
	query += ` ORDER BY e.seq`

	rows, err := s.sqlDB.QueryContext(ctx, query, gameID)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	events := make([]event.Event, 0)
	for rows.Next() {
		evt, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, evt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

// GetEvent retrieves an event by id.
func (s *Store) GetEvent(ctx context.Context, gameID, eventID string) (event.Event, error) {
	if err := ctx.Err(); err != nil {
		return event.Event{}, err
	}
	if s == nil || s.sqlDB == nil {
		return event.Event{}, fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(eventID) == "" {
		return event.Event{}, fmt.Errorf("event id is required")
	}

	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM events e WHERE e.game_id = ? AND e.id = ?`,
		gameID, eventID)

	evt, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return event.Event{}, storage.ErrNotFound
		}
		return event.Event{}, err
	}
	return evt, nil
}

// RetractEvent records a retraction. The event row is untouched; replay
// excludes it through the retractions table.
func (s *Store) RetractEvent(ctx context.Context, retraction storage.Retraction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(retraction.EventID) == "" {
		return fmt.Errorf("event id is required")
	}

	if _, err := s.GetEvent(ctx, retraction.GameID, retraction.EventID); err != nil {
		return err
	}

	if retraction.CreatedAt.IsZero() {
		retraction.CreatedAt = time.Now().UTC()
	}

	if _, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO retractions (event_id, game_id, reason, created_at)
		 VALUES (?, ?, ?, ?)`,
		retraction.EventID,
		retraction.GameID,
		retraction.Reason,
		timeToUnixMillis(retraction.CreatedAt),
	); err != nil {
		if isConstraintError(err) {
			return storage.ErrEventRetracted
		}
		return fmt.Errorf("retract event: %w", err)
	}
	return nil
}

// ListRetractions returns the audit log for a game, oldest first.
func (s *Store) ListRetractions(ctx context.Context, gameID string) ([]storage.Retraction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT event_id, game_id, reason, created_at
		 FROM retractions WHERE game_id = ? ORDER BY created_at, event_id`, gameID)
	if err != nil {
		return nil, fmt.Errorf("list retractions: %w", err)
	}
	defer rows.Close()

	retractions := make([]storage.Retraction, 0)
	for rows.Next() {
		var retraction storage.Retraction
		var createdAt int64
		if err := rows.Scan(&retraction.EventID, &retraction.GameID, &retraction.Reason, &createdAt); err != nil {
			return nil, fmt.Errorf("scan retraction: %w", err)
		}
		retraction.CreatedAt = unixMillisToTime(createdAt)
		retractions = append(retractions, retraction)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate retractions: %w", err)
	}
	return retractions, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (event.Event, error) {
	var evt event.Event
	var seq int64
	var createdAt int64
	var kind string
	var points int
	var extraJSON []byte

	if err := row.Scan(
		&evt.GameID,
		&seq,
		&evt.ID,
		&evt.PlayerID,
		&evt.Round,
		&createdAt,
		&kind,
		&evt.ObjectiveID,
		&evt.AgendaTitle,
		&evt.RelicTitle,
		&points,
		&extraJSON,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return event.Event{}, sql.ErrNoRows
		}
		return event.Event{}, fmt.Errorf("scan event: %w", err)
	}

	evt.Seq = uint64(seq)
	evt.CreatedAt = unixMillisToTime(createdAt)
	evt.Kind = event.Kind(kind)
	evt = evt.WithPoints(points)

	extra, err := unmarshalExtra(extraJSON)
	if err != nil {
		return event.Event{}, err
	}
	evt.Extra = extra
	return evt, nil
}

func marshalExtra(extra map[string]json.RawMessage) ([]byte, error) {
	if len(extra) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(extra)
	if err != nil {
		return nil, fmt.Errorf("marshal extra fields: %w", err)
	}
	return data, nil
}

func unmarshalExtra(data []byte) (map[string]json.RawMessage, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var extra map[string]json.RawMessage
	if err := json.Unmarshal(data, &extra); err != nil {
		return nil, fmt.Errorf("unmarshal extra fields: %w", err)
	}
	return extra, nil
}

func isConstraintError(err error) bool {
	var sqliteErr *sqlitelib.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	code := sqliteErr.Code()
	return code == sqlite3.SQLITE_CONSTRAINT || code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}

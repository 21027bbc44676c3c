// Package storage defines the persistence contracts for the score ledger.
//
// The event journal is the source of truth: derived state is always
// recomputed from it and has no persisted identity of its own.
package storage

import (
	"context"
	"time"

	apperrors "github.com/arphillips06/ti4-ledger/internal/platform/errors"
	"github.com/arphillips06/ti4-ledger/internal/scoring/event"
	"github.com/arphillips06/ti4-ledger/internal/scoring/projection"
)

// ErrNotFound indicates a requested persistence record is missing.
// Callers use this to differentiate between legitimate "no such entity"
// states and transport or data corruption failures.
var ErrNotFound = apperrors.New(apperrors.CodeNotFound, "record not found")

// ErrEventRetracted indicates a retraction targeted an event that is
// already retracted.
var ErrEventRetracted = apperrors.New(apperrors.CodeEventAlreadyRetracted, "event is already retracted")

// Retraction is the audit record of an event removed from replay. The
// original event row is never deleted; replay simply excludes it.
type Retraction struct {
	EventID   string
	GameID    string
	Reason    string
	CreatedAt time.Time
}

// EventStore owns the append-only score journal and its retraction audit log.
type EventStore interface {
	// AppendEvent atomically appends an event and returns it with its
	// sequence number and creation timestamp set.
	AppendEvent(ctx context.Context, evt event.Event) (event.Event, error)
	// ListEvents returns the effective history for a game ordered by
	// sequence ascending: retracted events are excluded.
	ListEvents(ctx context.Context, gameID string) ([]event.Event, error)
	// ListAllEvents returns the full journal including retracted events,
	// for audit and history review.
	ListAllEvents(ctx context.Context, gameID string) ([]event.Event, error)
	// GetEvent retrieves an event by id.
	GetEvent(ctx context.Context, gameID, eventID string) (event.Event, error)
	// RetractEvent records a retraction. Returns ErrNotFound when the
	// target does not exist and ErrEventRetracted when already retracted.
	RetractEvent(ctx context.Context, retraction Retraction) error
	// ListRetractions returns the audit log for a game, oldest first.
	ListRetractions(ctx context.Context, gameID string) ([]Retraction, error)
}

// GameStore owns the registry facts the guard needs: roster, player count,
// and the winning threshold. Full setup-wizard semantics live elsewhere.
type GameStore interface {
	PutGame(ctx context.Context, game projection.Game) error
	GetGame(ctx context.Context, id string) (projection.Game, error)
	ListGames(ctx context.Context) ([]projection.Game, error)
}

// Store is the composite persistence interface the service wires at startup.
type Store interface {
	EventStore
	GameStore
	Close() error
}

// Package ledger serializes writes to each game's score journal.
//
// Every append follows the same path: load the game, replay the effective
// history into derived state, check the candidate against the eligibility
// rules, then hand it to storage for sequence assignment. The per-game lock
// makes the check-then-append pair atomic, so no two conflicting events can
// both observe the same prior state.
package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	apperrors "github.com/arphillips06/ti4-ledger/internal/platform/errors"
	"github.com/arphillips06/ti4-ledger/internal/platform/id"
	"github.com/arphillips06/ti4-ledger/internal/scoring/catalog"
	"github.com/arphillips06/ti4-ledger/internal/scoring/event"
	"github.com/arphillips06/ti4-ledger/internal/scoring/guard"
	"github.com/arphillips06/ti4-ledger/internal/scoring/projection"
	"github.com/arphillips06/ti4-ledger/internal/scoring/storage"
)

// Ledger owns the append path for score events.
type Ledger struct {
	store   storage.Store
	catalog catalog.Catalog
	guard   guard.Guard

	mu    sync.Mutex
	locks map[string]*sync.Mutex

	now   func() time.Time
	newID func() (string, error)
}

// New returns a ledger over the given store and objective catalog.
func New(store storage.Store, cat catalog.Catalog) *Ledger {
	return &Ledger{
		store:   store,
		catalog: cat,
		guard:   guard.Guard{Catalog: cat},
		locks:   make(map[string]*sync.Mutex),
		now:     func() time.Time { return time.Now().UTC() },
		newID:   id.NewID,
	}
}

// gameLock returns the mutex serializing writes for one game.
func (l *Ledger) gameLock(gameID string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	lock, ok := l.locks[gameID]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[gameID] = lock
	}
	return lock
}

// Append checks a normalized candidate against current state and appends it.
// Returns the stored event and the state after it applied. A guard rejection
// surfaces as a coded domain error and leaves the journal untouched.
func (l *Ledger) Append(ctx context.Context, gameID string, candidate event.Event) (event.Event, *projection.State, error) {
	if err := ctx.Err(); err != nil {
		return event.Event{}, nil, err
	}

	lock := l.gameLock(gameID)
	lock.Lock()
	defer lock.Unlock()

	game, state, err := l.project(ctx, gameID)
	if err != nil {
		return event.Event{}, nil, err
	}

	candidate.GameID = game.ID
	candidate, err = l.resolvePoints(candidate)
	if err != nil {
		return event.Event{}, nil, err
	}

	decision := l.guard.Check(state, candidate)
	if !decision.Accepted() {
		return event.Event{}, nil, decision.Rejections[0].Err()
	}

	eventID, err := l.newID()
	if err != nil {
		return event.Event{}, nil, fmt.Errorf("generate event id: %w", err)
	}
	candidate.ID = eventID
	candidate.Round = state.CurrentRound
	candidate.CreatedAt = l.now()

	stored, err := l.store.AppendEvent(ctx, candidate)
	if err != nil {
		return event.Event{}, nil, err
	}

	if err := state.Apply(stored); err != nil {
		return event.Event{}, nil, fmt.Errorf("apply appended event: %w", err)
	}
	return stored, state, nil
}

// AppendAll appends a group of events as one atomic resolution. Every
// candidate is checked against the state before the group, so a single-use
// agenda touching several players is judged once, not once per entry. Either
// all candidates pass or none are appended.
func (l *Ledger) AppendAll(ctx context.Context, gameID string, candidates []event.Event) ([]event.Event, *projection.State, error) {
	return l.AppendDerived(ctx, gameID, func(*projection.State) ([]event.Event, error) {
		return candidates, nil
	})
}

// AppendDerived projects the game under its lock, asks derive to build the
// candidate group from that state, and appends the group atomically. Callers
// whose candidates depend on current state (a relic transfer's compensating
// entry, an agenda rewarding the score leaders) must derive here: reading
// state before taking the lock lets two concurrent resolutions observe the
// same prior holder or leader.
func (l *Ledger) AppendDerived(ctx context.Context, gameID string, derive func(*projection.State) ([]event.Event, error)) ([]event.Event, *projection.State, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	lock := l.gameLock(gameID)
	lock.Lock()
	defer lock.Unlock()

	game, state, err := l.project(ctx, gameID)
	if err != nil {
		return nil, nil, err
	}

	candidates, err := derive(state)
	if err != nil {
		return nil, nil, err
	}
	if len(candidates) == 0 {
		return nil, nil, fmt.Errorf("at least one event is required")
	}

	resolved := make([]event.Event, len(candidates))
	for i, candidate := range candidates {
		candidate.GameID = game.ID
		candidate, err = l.resolvePoints(candidate)
		if err != nil {
			return nil, nil, err
		}

		decision := l.guard.Check(state, candidate)
		if !decision.Accepted() {
			return nil, nil, decision.Rejections[0].Err()
		}
		resolved[i] = candidate
	}

	stored := make([]event.Event, len(resolved))
	for i, candidate := range resolved {
		eventID, err := l.newID()
		if err != nil {
			return nil, nil, fmt.Errorf("generate event id: %w", err)
		}
		candidate.ID = eventID
		candidate.Round = state.CurrentRound
		candidate.CreatedAt = l.now()

		appended, err := l.store.AppendEvent(ctx, candidate)
		if err != nil {
			return nil, nil, err
		}
		if err := state.Apply(appended); err != nil {
			return nil, nil, fmt.Errorf("apply appended event: %w", err)
		}
		stored[i] = appended
	}
	return stored, state, nil
}

// AdvanceRound appends a round boundary marker. Victory is evaluated as the
// marker folds into state, never mid-round.
func (l *Ledger) AdvanceRound(ctx context.Context, gameID string) (event.Event, *projection.State, error) {
	return l.Append(ctx, gameID, event.Event{Kind: event.KindRoundAdvanced})
}

// State replays the effective history into derived state.
func (l *Ledger) State(ctx context.Context, gameID string) (*projection.State, error) {
	_, state, err := l.project(ctx, gameID)
	return state, err
}

// Events returns the effective history, retracted events excluded.
func (l *Ledger) Events(ctx context.Context, gameID string) ([]event.Event, error) {
	return l.store.ListEvents(ctx, gameID)
}

// AllEvents returns the full journal including retracted events.
func (l *Ledger) AllEvents(ctx context.Context, gameID string) ([]event.Event, error) {
	return l.store.ListAllEvents(ctx, gameID)
}

// Retractions returns the audit log for a game.
func (l *Ledger) Retractions(ctx context.Context, gameID string) ([]storage.Retraction, error) {
	return l.store.ListRetractions(ctx, gameID)
}

// Retract removes an event from replay and records the audit entry. The
// journal row stays in place; only the derived state forgets it. Returns the
// state replayed without the retracted event.
func (l *Ledger) Retract(ctx context.Context, gameID, eventID, reason string) (*projection.State, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lock := l.gameLock(gameID)
	lock.Lock()
	defer lock.Unlock()

	if err := l.store.RetractEvent(ctx, storage.Retraction{
		EventID:   eventID,
		GameID:    gameID,
		Reason:    reason,
		CreatedAt: l.now(),
	}); err != nil {
		return nil, err
	}

	_, state, err := l.project(ctx, gameID)
	return state, err
}

func (l *Ledger) project(ctx context.Context, gameID string) (projection.Game, *projection.State, error) {
	game, err := l.store.GetGame(ctx, gameID)
	if err != nil {
		return projection.Game{}, nil, err
	}

	events, err := l.store.ListEvents(ctx, gameID)
	if err != nil {
		return projection.Game{}, nil, err
	}

	state, err := projection.Project(game, events)
	if err != nil {
		return projection.Game{}, nil, fmt.Errorf("replay game %s: %w", gameID, err)
	}
	return game, state, nil
}

// resolvePoints fills in the point value when the client omitted one.
// Objective and secret defaults come from the catalog; everything else is
// implied by the kind and title.
func (l *Ledger) resolvePoints(candidate event.Event) (event.Event, error) {
	if candidate.PointsProvided() {
		return candidate, nil
	}

	switch candidate.Kind {
	case event.KindObjective, event.KindSecret:
		obj, ok := l.catalog.Objective(candidate.ObjectiveID)
		if !ok {
			return event.Event{}, apperrors.New(apperrors.CodeUnknownPlayerOrObjective,
				fmt.Sprintf("objective %s is not in the catalog", candidate.ObjectiveID))
		}
		return candidate.WithPoints(obj.Points), nil
	}

	points, ok := candidate.DefaultPoints()
	if !ok {
		return event.Event{}, apperrors.New(apperrors.CodeMalformedEvent,
			fmt.Sprintf("no default point value for %s event", candidate.Kind))
	}
	return candidate.WithPoints(points), nil
}

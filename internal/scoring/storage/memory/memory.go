// Package memory provides an in-memory Store for tests and local development.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/arphillips06/ti4-ledger/internal/scoring/event"
	"github.com/arphillips06/ti4-ledger/internal/scoring/projection"
	"github.com/arphillips06/ti4-ledger/internal/scoring/storage"
)

// Store keeps games, events, and retractions in process memory. Sequence
// numbers are assigned per game under the store lock, mirroring the SQLite
// implementation's transactional append.
type Store struct {
	mu          sync.RWMutex
	games       map[string]projection.Game
	events      map[string][]event.Event
	retracted   map[string]storage.Retraction
	retractions map[string][]storage.Retraction
	seq         map[string]uint64
}

// New returns an empty in-memory store.
func New() *Store {
	return &Store{
		games:       make(map[string]projection.Game),
		events:      make(map[string][]event.Event),
		retracted:   make(map[string]storage.Retraction),
		retractions: make(map[string][]storage.Retraction),
		seq:         make(map[string]uint64),
	}
}

// Close implements storage.Store. No resources to release.
func (s *Store) Close() error { return nil }

// AppendEvent assigns the next per-game sequence number and stores the event.
func (s *Store) AppendEvent(ctx context.Context, evt event.Event) (event.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.games[evt.GameID]; !ok {
		return event.Event{}, storage.ErrNotFound
	}

	s.seq[evt.GameID]++
	evt.Seq = s.seq[evt.GameID]
	if evt.CreatedAt.IsZero() {
		evt.CreatedAt = time.Now().UTC()
	}
	s.events[evt.GameID] = append(s.events[evt.GameID], evt)
	return evt, nil
}

// ListEvents returns the effective history: retracted events excluded.
func (s *Store) ListEvents(ctx context.Context, gameID string) ([]event.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.events[gameID]
	out := make([]event.Event, 0, len(all))
	for _, evt := range all {
		if _, gone := s.retracted[evt.ID]; gone {
			continue
		}
		out = append(out, evt)
	}
	return out, nil
}

// ListAllEvents returns the full journal including retracted events.
func (s *Store) ListAllEvents(ctx context.Context, gameID string) ([]event.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]event.Event, len(s.events[gameID]))
	copy(out, s.events[gameID])
	return out, nil
}

// GetEvent retrieves an event by id.
func (s *Store) GetEvent(ctx context.Context, gameID, eventID string) (event.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, evt := range s.events[gameID] {
		if evt.ID == eventID {
			return evt, nil
		}
	}
	return event.Event{}, storage.ErrNotFound
}

// RetractEvent records a retraction for an existing, not yet retracted event.
func (s *Store) RetractEvent(ctx context.Context, retraction storage.Retraction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	found := false
	for _, evt := range s.events[retraction.GameID] {
		if evt.ID == retraction.EventID {
			found = true
			break
		}
	}
	if !found {
		return storage.ErrNotFound
	}
	if _, gone := s.retracted[retraction.EventID]; gone {
		return storage.ErrEventRetracted
	}

	if retraction.CreatedAt.IsZero() {
		retraction.CreatedAt = time.Now().UTC()
	}
	s.retracted[retraction.EventID] = retraction
	s.retractions[retraction.GameID] = append(s.retractions[retraction.GameID], retraction)
	return nil
}

// ListRetractions returns the audit log for a game, oldest first.
func (s *Store) ListRetractions(ctx context.Context, gameID string) ([]storage.Retraction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]storage.Retraction, len(s.retractions[gameID]))
	copy(out, s.retractions[gameID])
	return out, nil
}

// PutGame stores or replaces a game record.
func (s *Store) PutGame(ctx context.Context, game projection.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.games[game.ID] = game
	return nil
}

// GetGame retrieves a game by id.
func (s *Store) GetGame(ctx context.Context, id string) (projection.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	game, ok := s.games[id]
	if !ok {
		return projection.Game{}, storage.ErrNotFound
	}
	return game, nil
}

// ListGames returns all games ordered by creation time, then id.
func (s *Store) ListGames(ctx context.Context) ([]projection.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]projection.Game, 0, len(s.games))
	for _, game := range s.games {
		out = append(out, game)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

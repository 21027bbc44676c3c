// Package projection derives read state from the score ledger.
//
// Derivation is a pure left fold over the accepted event sequence. The state
// is recomputed from the ledger on demand and holds nothing that cannot be
// reproduced by replaying the full history, which is what keeps incremental
// and one-shot projections equivalent.
package projection

import (
	"sort"
	"time"

	"github.com/arphillips06/ti4-ledger/internal/scoring/event"
)

// Player identifies a seat at the table.
type Player struct {
	ID         string
	Name       string
	Color      string
	FactionKey string
}

// Game carries the registry facts the projector and guard need.
type Game struct {
	ID            string
	WinningPoints int
	Players       []Player
	CreatedAt     time.Time
}

// PlayerCount returns the number of seats.
func (g Game) PlayerCount() int {
	return len(g.Players)
}

// HasPlayer reports whether a player id belongs to this game.
func (g Game) HasPlayer(id string) bool {
	for _, p := range g.Players {
		if p.ID == id {
			return true
		}
	}
	return false
}

// SupportCap returns the per-player Support for the Throne ceiling.
func (g Game) SupportCap() int {
	return g.PlayerCount() - 1
}

const baseSecretCapacity = 3

// State is the derived read model. All maps are keyed by player id unless
// noted otherwise.
type State struct {
	Game Game

	// PointsByPlayer is the signed sum of every accepted event's points.
	PointsByPlayer map[string]int
	// PointsByCategory breaks totals down per kind for victory-path reporting.
	PointsByCategory map[string]map[event.Kind]int

	// OccupiedSecrets holds each player's occupied secret slots, excluding
	// objectives revealed by Classified Document Leaks.
	OccupiedSecrets map[string]map[string]struct{}
	// RevealedSecretObjectiveIDs are secrets made public by Classified
	// Document Leaks. They keep their points but no longer hold a slot.
	RevealedSecretObjectiveIDs map[string]struct{}

	// HolderByRelicTitle maps relic title to current holder, last claim wins.
	HolderByRelicTitle map[string]string
	// CustodiansHolder is the player who took the custodians bonus.
	CustodiansHolder string

	// AgendaUsed marks single-use agenda titles already resolved.
	AgendaUsed map[string]bool
	// AgendaHolder maps assignable agenda titles to their current holder.
	AgendaHolder map[string]string

	// SupportPointsByPlayer is the signed Support for the Throne total.
	SupportPointsByPlayer map[string]int

	// CurrentRound counts applied round boundaries, starting at 1.
	CurrentRound int
	// Winner and FinishedAt are terminal once set.
	Winner     string
	FinishedAt *time.Time

	// LastSeq is the sequence of the newest applied event.
	LastSeq uint64

	// scoredAt records the sequence each (player, objective) pair scored at.
	scoredAt map[string]map[string]uint64
	// crossedAt records the sequence at which each player first reached the
	// winning threshold; cleared again if their total drops back below it.
	crossedAt map[string]uint64
}

// New returns an empty state for a game. Round numbering starts at 1.
func New(game Game) *State {
	s := &State{
		Game:                       game,
		PointsByPlayer:             make(map[string]int),
		PointsByCategory:           make(map[string]map[event.Kind]int),
		OccupiedSecrets:            make(map[string]map[string]struct{}),
		RevealedSecretObjectiveIDs: make(map[string]struct{}),
		HolderByRelicTitle:         make(map[string]string),
		AgendaUsed:                 make(map[string]bool),
		AgendaHolder:               make(map[string]string),
		SupportPointsByPlayer:      make(map[string]int),
		CurrentRound:               1,
		scoredAt:                   make(map[string]map[string]uint64),
		crossedAt:                  make(map[string]uint64),
	}
	for _, p := range game.Players {
		s.PointsByPlayer[p.ID] = 0
	}
	return s
}

// Finished reports whether the game has a terminal winner.
func (s *State) Finished() bool {
	return s.FinishedAt != nil
}

// SecretCapacity returns a player's secret slot capacity. The Obsidian bonus
// is re-derived from the current holder on every call, never snapshotted.
func (s *State) SecretCapacity(playerID string) int {
	capacity := baseSecretCapacity
	if s.HolderByRelicTitle[event.RelicObsidian] == playerID {
		capacity++
	}
	return capacity
}

// OccupiedSecretCount returns how many secret slots a player currently holds.
func (s *State) OccupiedSecretCount(playerID string) int {
	return len(s.OccupiedSecrets[playerID])
}

// HasScored reports whether a (player, objective) pair is already recorded.
func (s *State) HasScored(playerID, objectiveID string) bool {
	_, ok := s.scoredAt[playerID][objectiveID]
	return ok
}

// HasHiddenSecret reports whether the objective currently occupies one of the
// player's secret slots. Public objectives and already-revealed secrets never
// do.
func (s *State) HasHiddenSecret(playerID, objectiveID string) bool {
	_, ok := s.OccupiedSecrets[playerID][objectiveID]
	return ok
}

// HiddenSecrets lists a player's occupied secret objective ids in stable
// order. Revealed secrets are excluded: opponents never see them here.
func (s *State) HiddenSecrets(playerID string) []string {
	occupied := s.OccupiedSecrets[playerID]
	out := make([]string, 0, len(occupied))
	for id := range occupied {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// TotalPoints returns the signed sum of all player totals.
func (s *State) TotalPoints() int {
	total := 0
	for _, points := range s.PointsByPlayer {
		total += points
	}
	return total
}

package projection

import (
	"fmt"

	"github.com/arphillips06/ti4-ledger/internal/scoring/event"
)

// Project folds an ordered event sequence into derived state.
//
// The fold has exactly one accumulation rule per event kind: point totals
// always add, relic and custodians holders always overwrite with the newest
// event's player, and occupied secret slots are insert-only except for the
// explicit Classified Document Leaks reveal. Any state reachable through
// incremental applies equals the one-shot fold over the same history.
func Project(game Game, events []event.Event) (*State, error) {
	state := New(game)
	for _, evt := range events {
		if err := state.Apply(evt); err != nil {
			return nil, err
		}
	}
	return state, nil
}

// Apply folds one event into the state.
func (s *State) Apply(evt event.Event) error {
	if evt.Seq > 0 && evt.Seq <= s.LastSeq {
		return fmt.Errorf("event %s out of order: seq %d after %d", evt.ID, evt.Seq, s.LastSeq)
	}

	switch evt.Kind {
	case event.KindObjective:
		s.addPoints(evt)
		s.markScored(evt)
	case event.KindSecret:
		s.addPoints(evt)
		s.markScored(evt)
		s.occupySecret(evt)
	case event.KindCustodians:
		s.addPoints(evt)
		s.CustodiansHolder = evt.PlayerID
	case event.KindImperial:
		s.addPoints(evt)
	case event.KindSupport:
		s.addPoints(evt)
		s.SupportPointsByPlayer[evt.PlayerID] += evt.Points
	case event.KindRelic:
		s.addPoints(evt)
		s.applyRelic(evt)
	case event.KindAgenda:
		s.addPoints(evt)
		s.applyAgenda(evt)
	case event.KindRoundAdvanced:
		s.CurrentRound++
		s.evaluateVictory(evt)
	default:
		return fmt.Errorf("event %s has unknown kind %q", evt.ID, evt.Kind)
	}

	if evt.Seq > 0 {
		s.LastSeq = evt.Seq
	}
	return nil
}

// addPoints accumulates the event's signed points and tracks the sequence at
// which a player first crossed the winning threshold. Crossings only matter
// at round boundaries; they are recorded here so the victory tie-break can
// use submission order.
func (s *State) addPoints(evt event.Event) {
	if evt.PlayerID == "" {
		return
	}
	s.PointsByPlayer[evt.PlayerID] += evt.Points

	byKind := s.PointsByCategory[evt.PlayerID]
	if byKind == nil {
		byKind = make(map[event.Kind]int)
		s.PointsByCategory[evt.PlayerID] = byKind
	}
	byKind[evt.Kind] += evt.Points

	total := s.PointsByPlayer[evt.PlayerID]
	if total >= s.Game.WinningPoints {
		if _, crossed := s.crossedAt[evt.PlayerID]; !crossed {
			s.crossedAt[evt.PlayerID] = evt.Seq
		}
	} else {
		delete(s.crossedAt, evt.PlayerID)
	}
}

func (s *State) markScored(evt event.Event) {
	byObjective := s.scoredAt[evt.PlayerID]
	if byObjective == nil {
		byObjective = make(map[string]uint64)
		s.scoredAt[evt.PlayerID] = byObjective
	}
	byObjective[evt.ObjectiveID] = evt.Seq
}

func (s *State) occupySecret(evt event.Event) {
	if _, revealed := s.RevealedSecretObjectiveIDs[evt.ObjectiveID]; revealed {
		return
	}
	occupied := s.OccupiedSecrets[evt.PlayerID]
	if occupied == nil {
		occupied = make(map[string]struct{})
		s.OccupiedSecrets[evt.PlayerID] = occupied
	}
	occupied[evt.ObjectiveID] = struct{}{}
}

// applyRelic moves the relic to the event's player. Transfer deductions (the
// compensating negative entry written when Shard of the Throne changes hands)
// adjust points only and never move the relic.
func (s *State) applyRelic(evt event.Event) {
	if evt.RelicTitle == "" || evt.Points < 0 {
		return
	}
	s.HolderByRelicTitle[evt.RelicTitle] = evt.PlayerID
}

func (s *State) applyAgenda(evt event.Event) {
	title := evt.AgendaTitle
	if event.SingleUseAgenda(title) {
		s.AgendaUsed[title] = true
	}

	switch title {
	case event.AgendaCDL:
		s.reveal(evt)
	case event.AgendaPoliticalCensure:
		if evt.Points > 0 {
			s.AgendaHolder[title] = evt.PlayerID
		} else if s.AgendaHolder[title] == evt.PlayerID {
			delete(s.AgendaHolder, title)
		}
	}
}

// reveal implements the Classified Document Leaks rule: the secret becomes
// public knowledge, its slot frees up, and its points stay on the board.
// This is the only way slot occupancy decreases inside the fold.
func (s *State) reveal(evt event.Event) {
	if evt.ObjectiveID == "" {
		return
	}
	s.RevealedSecretObjectiveIDs[evt.ObjectiveID] = struct{}{}
	if occupied, ok := s.OccupiedSecrets[evt.PlayerID]; ok {
		delete(occupied, evt.ObjectiveID)
	}
}

// evaluateVictory runs once per round boundary. Winner and FinishedAt are
// terminal: after the first detection no later event changes them.
func (s *State) evaluateVictory(evt event.Event) {
	if s.Finished() || s.Game.WinningPoints <= 0 {
		return
	}

	winner := ""
	var winnerSeq uint64
	for playerID, seq := range s.crossedAt {
		if s.PointsByPlayer[playerID] < s.Game.WinningPoints {
			continue
		}
		if winner == "" || seq < winnerSeq {
			winner = playerID
			winnerSeq = seq
		}
	}
	if winner == "" {
		return
	}

	s.Winner = winner
	finishedAt := evt.CreatedAt
	s.FinishedAt = &finishedAt
}

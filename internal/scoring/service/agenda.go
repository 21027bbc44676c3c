package service

import (
	"context"
	"fmt"

	apperrors "github.com/arphillips06/ti4-ledger/internal/platform/errors"
	"github.com/arphillips06/ti4-ledger/internal/scoring/event"
	"github.com/arphillips06/ti4-ledger/internal/scoring/projection"
)

// Directional agenda outcomes.
const (
	OutcomeFor     = "for"
	OutcomeAgainst = "against"
)

// ResolveMutiny applies the Mutiny directive: when it passes, every player
// who voted "for" gains a point; when it fails, each for-voter with a point
// to lose loses one. A voter at zero stays at zero. The whole resolution
// lands as one atomic group of ledger entries; when nobody gains or loses, a
// zero-point usage marker still burns the agenda.
func (s *Service) ResolveMutiny(ctx context.Context, gameID, outcome string, forPlayerIDs []string) (*projection.State, error) {
	ctx, span := s.startSpan(ctx, "service.ResolveMutiny", gameID)
	var err error
	defer func() { s.finishSpan(span, err) }()

	points := 0
	switch outcome {
	case OutcomeFor:
		points = 1
	case OutcomeAgainst:
		points = -1
	default:
		err = apperrors.New(apperrors.CodeMalformedEvent,
			fmt.Sprintf("mutiny outcome must be %q or %q", OutcomeFor, OutcomeAgainst))
		return nil, err
	}

	var state *projection.State
	_, state, err = s.ledger.AppendDerived(ctx, gameID, func(state *projection.State) ([]event.Event, error) {
		candidates := make([]event.Event, 0, len(forPlayerIDs))
		for _, playerID := range forPlayerIDs {
			if points < 0 && state.PointsByPlayer[playerID] <= 0 {
				continue
			}
			candidates = append(candidates, event.Event{
				Kind:        event.KindAgenda,
				PlayerID:    playerID,
				AgendaTitle: event.AgendaMutiny,
			}.WithPoints(points))
		}
		if len(candidates) == 0 {
			candidates = append(candidates, event.Event{
				Kind:        event.KindAgenda,
				AgendaTitle: event.AgendaMutiny,
			}.WithPoints(0))
		}
		return candidates, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Printf("agenda resolved game=%s title=%s outcome=%s", gameID, event.AgendaMutiny, outcome)
	s.notify(gameID, state)
	return state, nil
}

// SeedOfEmpireMode selects which end of the score table Seed of an Empire
// rewards.
type SeedOfEmpireMode string

const (
	SeedHighest SeedOfEmpireMode = "highest"
	SeedLowest  SeedOfEmpireMode = "lowest"
)

// ResolveSeedOfEmpire grants a point to every player tied for the highest or
// lowest total, depending on how the agenda resolved.
func (s *Service) ResolveSeedOfEmpire(ctx context.Context, gameID string, mode SeedOfEmpireMode) (*projection.State, error) {
	ctx, span := s.startSpan(ctx, "service.ResolveSeedOfEmpire", gameID)
	var err error
	defer func() { s.finishSpan(span, err) }()

	if mode != SeedHighest && mode != SeedLowest {
		err = apperrors.New(apperrors.CodeMalformedEvent,
			fmt.Sprintf("seed of an empire mode must be %q or %q", SeedHighest, SeedLowest))
		return nil, err
	}

	var state *projection.State
	_, state, err = s.ledger.AppendDerived(ctx, gameID, func(state *projection.State) ([]event.Event, error) {
		recipients := seedRecipients(state, mode)
		if len(recipients) == 0 {
			return nil, apperrors.New(apperrors.CodeMalformedEvent, "game has no players to award")
		}

		candidates := make([]event.Event, len(recipients))
		for i, playerID := range recipients {
			candidates[i] = event.Event{
				Kind:        event.KindAgenda,
				PlayerID:    playerID,
				AgendaTitle: event.AgendaSeedOfEmpire,
			}.WithPoints(1)
		}
		return candidates, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Printf("agenda resolved game=%s title=%s mode=%s", gameID, event.AgendaSeedOfEmpire, mode)
	s.notify(gameID, state)
	return state, nil
}

func seedRecipients(state *projection.State, mode SeedOfEmpireMode) []string {
	recipients := make([]string, 0, len(state.Game.Players))
	target := 0
	first := true
	for _, player := range state.Game.Players {
		total := state.PointsByPlayer[player.ID]
		switch {
		case first:
			target = total
			recipients = append(recipients, player.ID)
			first = false
		case total == target:
			recipients = append(recipients, player.ID)
		case mode == SeedHighest && total > target,
			mode == SeedLowest && total < target:
			target = total
			recipients = recipients[:0]
			recipients = append(recipients, player.ID)
		}
	}
	return recipients
}

// ApplyPoliticalCensure assigns the law's point to a player, or takes it away
// again when the law leaves play. Unlike the directives, Political Censure can
// recur: only the current holder loses the point on removal.
func (s *Service) ApplyPoliticalCensure(ctx context.Context, gameID, playerID string, gained bool) (*projection.State, error) {
	ctx, span := s.startSpan(ctx, "service.ApplyPoliticalCensure", gameID)
	var err error
	defer func() { s.finishSpan(span, err) }()

	points := 1
	if !gained {
		points = -1
	}

	var state *projection.State
	_, state, err = s.ledger.AppendDerived(ctx, gameID, func(state *projection.State) ([]event.Event, error) {
		if !gained && state.AgendaHolder[event.AgendaPoliticalCensure] != playerID {
			return nil, apperrors.New(apperrors.CodeUnknownPlayerOrObjective,
				fmt.Sprintf("player %s does not hold political censure", playerID))
		}
		return []event.Event{event.Event{
			Kind:        event.KindAgenda,
			PlayerID:    playerID,
			AgendaTitle: event.AgendaPoliticalCensure,
		}.WithPoints(points)}, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Printf("political censure game=%s player=%s points=%+d", gameID, playerID, points)
	s.notify(gameID, state)
	return state, nil
}

// ResolveClassifiedDocumentLeaks turns one of a player's scored secrets into
// a public objective. The points stay on the board and the secret slot frees
// up; the zero-point ledger entry records which objective was revealed.
func (s *Service) ResolveClassifiedDocumentLeaks(ctx context.Context, gameID, playerID, objectiveID string) (*projection.State, error) {
	ctx, span := s.startSpan(ctx, "service.ResolveClassifiedDocumentLeaks", gameID)
	var err error
	defer func() { s.finishSpan(span, err) }()

	candidate := event.Event{
		Kind:        event.KindAgenda,
		PlayerID:    playerID,
		AgendaTitle: event.AgendaCDL,
		ObjectiveID: objectiveID,
	}.WithPoints(0)

	_, state, err := s.ledger.Append(ctx, gameID, candidate)
	if err != nil {
		return nil, err
	}

	s.logger.Printf("classified document leaks game=%s player=%s objective=%s", gameID, playerID, objectiveID)
	s.notify(gameID, state)
	return state, nil
}

// ResolveIncentiveProgram records the directive's resolution as a table-wide
// marker. The objective it reveals enters play on the board; the ledger only
// remembers that the agenda has been used.
func (s *Service) ResolveIncentiveProgram(ctx context.Context, gameID, outcome string) (*projection.State, error) {
	ctx, span := s.startSpan(ctx, "service.ResolveIncentiveProgram", gameID)
	var err error
	defer func() { s.finishSpan(span, err) }()

	if outcome != OutcomeFor && outcome != OutcomeAgainst {
		err = apperrors.New(apperrors.CodeMalformedEvent,
			fmt.Sprintf("incentive program outcome must be %q or %q", OutcomeFor, OutcomeAgainst))
		return nil, err
	}

	candidate := event.Event{
		Kind:        event.KindAgenda,
		AgendaTitle: event.AgendaIncentiveProgram,
	}.WithPoints(0)

	_, state, err := s.ledger.Append(ctx, gameID, candidate)
	if err != nil {
		return nil, err
	}

	s.logger.Printf("incentive program game=%s outcome=%s", gameID, outcome)
	s.notify(gameID, state)
	return state, nil
}

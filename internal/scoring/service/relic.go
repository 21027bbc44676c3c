package service

import (
	"context"
	"fmt"

	apperrors "github.com/arphillips06/ti4-ledger/internal/platform/errors"
	"github.com/arphillips06/ti4-ledger/internal/scoring/event"
	"github.com/arphillips06/ti4-ledger/internal/scoring/projection"
)

// ScoreRelic records a relic claim for a player. Point values follow the
// relic: The Crown of Emphidia and Shard of the Throne are worth one point,
// The Obsidian grants an extra secret slot instead.
func (s *Service) ScoreRelic(ctx context.Context, gameID, playerID, relicTitle string) (*projection.State, error) {
	ctx, span := s.startSpan(ctx, "service.ScoreRelic", gameID)
	var err error
	defer func() { s.finishSpan(span, err) }()

	if relicTitle == "" {
		err = apperrors.New(apperrors.CodeMalformedEvent, "relic events require a title")
		return nil, err
	}

	candidate := event.Event{
		Kind:       event.KindRelic,
		PlayerID:   playerID,
		RelicTitle: relicTitle,
	}

	_, state, err := s.ledger.Append(ctx, gameID, candidate)
	if err != nil {
		return nil, err
	}

	s.logger.Printf("relic scored game=%s player=%s relic=%q", gameID, playerID, relicTitle)
	s.notify(gameID, state)
	return state, nil
}

// TransferShard moves Shard of the Throne to a new holder. The previous
// holder's point is taken back with a compensating entry in the same atomic
// group as the new claim, so totals never double-count the relic.
func (s *Service) TransferShard(ctx context.Context, gameID, toPlayerID string) (*projection.State, error) {
	ctx, span := s.startSpan(ctx, "service.TransferShard", gameID)
	var err error
	defer func() { s.finishSpan(span, err) }()

	// The current holder must be read under the game lock: deriving the
	// compensating entry from stale state would let two concurrent transfers
	// both deduct from the same previous holder.
	var fromPlayerID string
	_, state, err := s.ledger.AppendDerived(ctx, gameID, func(state *projection.State) ([]event.Event, error) {
		holder := state.HolderByRelicTitle[event.RelicShardOfThrone]
		if holder == toPlayerID {
			return nil, apperrors.New(apperrors.CodeDuplicateScore,
				fmt.Sprintf("player %s already holds shard of the throne", toPlayerID))
		}
		fromPlayerID = holder

		claim := event.Event{
			Kind:       event.KindRelic,
			PlayerID:   toPlayerID,
			RelicTitle: event.RelicShardOfThrone,
		}.WithPoints(1)

		if holder == "" {
			return []event.Event{claim}, nil
		}
		compensation := event.Event{
			Kind:       event.KindRelic,
			PlayerID:   holder,
			RelicTitle: event.RelicShardOfThrone,
		}.WithPoints(-1)
		return []event.Event{compensation, claim}, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Printf("shard transferred game=%s from=%s to=%s", gameID, fromPlayerID, toPlayerID)
	s.notify(gameID, state)
	return state, nil
}

// AssignObsidian gives a player The Obsidian, raising their secret slot
// capacity by one. The relic carries no points of its own.
func (s *Service) AssignObsidian(ctx context.Context, gameID, playerID string) (*projection.State, error) {
	return s.ScoreRelic(ctx, gameID, playerID, event.RelicObsidian)
}

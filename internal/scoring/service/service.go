// Package service exposes the scoring operations the transport layer calls.
//
// Each operation opens a span, delegates to the ledger, and pushes the
// resulting state to the notifier so connected clients see changes live.
package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	apperrors "github.com/arphillips06/ti4-ledger/internal/platform/errors"
	"github.com/arphillips06/ti4-ledger/internal/platform/id"
	"github.com/arphillips06/ti4-ledger/internal/scoring/catalog"
	"github.com/arphillips06/ti4-ledger/internal/scoring/event"
	"github.com/arphillips06/ti4-ledger/internal/scoring/ledger"
	"github.com/arphillips06/ti4-ledger/internal/scoring/projection"
	"github.com/arphillips06/ti4-ledger/internal/scoring/storage"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	minPlayers = 2
	maxPlayers = 8

	minWinningPoints = 1
	maxWinningPoints = 20
	// defaultWinningPoints matches the standard game; 14 is the long variant.
	defaultWinningPoints = 10
)

// Notifier receives derived state after every accepted write. Implementations
// must not block; the websocket hub fans out on its own goroutines.
type Notifier interface {
	GameStateChanged(gameID string, state *projection.State)
}

// Service wires the ledger, catalog, and store behind the public operations.
type Service struct {
	store    storage.Store
	catalog  catalog.Catalog
	ledger   *ledger.Ledger
	logger   *log.Logger
	tracer   trace.Tracer
	notifier Notifier
}

// Option configures optional service collaborators.
type Option func(*Service)

// WithLogger overrides the default logger.
func WithLogger(logger *log.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithNotifier registers a state change notifier.
func WithNotifier(notifier Notifier) Option {
	return func(s *Service) { s.notifier = notifier }
}

// New returns a service over the given store and catalog.
func New(store storage.Store, cat catalog.Catalog, opts ...Option) *Service {
	s := &Service{
		store:   store,
		catalog: cat,
		ledger:  ledger.New(store, cat),
		logger:  log.Default(),
		tracer:  otel.Tracer("github.com/arphillips06/ti4-ledger/internal/scoring/service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) startSpan(ctx context.Context, name, gameID string) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, name, trace.WithAttributes(attribute.String("game.id", gameID)))
}

func (s *Service) finishSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (s *Service) notify(gameID string, state *projection.State) {
	if s.notifier == nil || state == nil {
		return
	}
	s.notifier.GameStateChanged(gameID, state)
}

// PlayerInput describes one seat when creating a game.
type PlayerInput struct {
	Name       string
	Color      string
	FactionKey string
}

// CreateGameInput carries the setup facts for a new game.
type CreateGameInput struct {
	WinningPoints int
	Players       []PlayerInput
}

// CreateGame validates the setup and registers a new game.
func (s *Service) CreateGame(ctx context.Context, input CreateGameInput) (projection.Game, error) {
	ctx, span := s.startSpan(ctx, "service.CreateGame", "")
	var err error
	defer func() { s.finishSpan(span, err) }()

	if len(input.Players) < minPlayers || len(input.Players) > maxPlayers {
		err = apperrors.New(apperrors.CodeGamePlayerCount,
			fmt.Sprintf("games require between %d and %d players", minPlayers, maxPlayers))
		return projection.Game{}, err
	}

	winningPoints := input.WinningPoints
	if winningPoints == 0 {
		winningPoints = defaultWinningPoints
	}
	if winningPoints < minWinningPoints || winningPoints > maxWinningPoints {
		err = apperrors.New(apperrors.CodeGameWinningPoints,
			fmt.Sprintf("winning points must be between %d and %d", minWinningPoints, maxWinningPoints))
		return projection.Game{}, err
	}

	players := make([]projection.Player, len(input.Players))
	for i, player := range input.Players {
		name := strings.TrimSpace(player.Name)
		if name == "" {
			err = apperrors.New(apperrors.CodePlayerNameEmpty, "player names must not be empty")
			return projection.Game{}, err
		}
		playerID, idErr := id.NewID()
		if idErr != nil {
			err = fmt.Errorf("generate player id: %w", idErr)
			return projection.Game{}, err
		}
		players[i] = projection.Player{
			ID:         playerID,
			Name:       name,
			Color:      strings.TrimSpace(player.Color),
			FactionKey: strings.TrimSpace(player.FactionKey),
		}
	}

	gameID, idErr := id.NewID()
	if idErr != nil {
		err = fmt.Errorf("generate game id: %w", idErr)
		return projection.Game{}, err
	}

	game := projection.Game{
		ID:            gameID,
		WinningPoints: winningPoints,
		Players:       players,
		CreatedAt:     time.Now().UTC(),
	}
	if err = s.store.PutGame(ctx, game); err != nil {
		return projection.Game{}, err
	}

	s.logger.Printf("game created id=%s players=%d winning_points=%d", game.ID, len(players), winningPoints)
	return game, nil
}

// GetGame retrieves a game's setup facts.
func (s *Service) GetGame(ctx context.Context, gameID string) (projection.Game, error) {
	return s.store.GetGame(ctx, gameID)
}

// ListGames returns all registered games.
func (s *Service) ListGames(ctx context.Context) ([]projection.Game, error) {
	return s.store.ListGames(ctx)
}

// Objectives lists the objective catalog.
func (s *Service) Objectives() []catalog.Objective {
	return s.catalog.List()
}

// Submit normalizes a raw score payload and appends it to the game's ledger.
func (s *Service) Submit(ctx context.Context, gameID string, raw []byte) (event.Event, *projection.State, error) {
	ctx, span := s.startSpan(ctx, "service.Submit", gameID)
	var err error
	defer func() { s.finishSpan(span, err) }()

	candidate, err := event.Normalize(raw)
	if err != nil {
		return event.Event{}, nil, err
	}
	span.SetAttributes(attribute.String("event.kind", string(candidate.Kind)))

	stored, state, err := s.ledger.Append(ctx, gameID, candidate)
	if err != nil {
		if code := apperrors.CodeOf(err); code.IsRejection() {
			s.logger.Printf("score rejected game=%s kind=%s code=%s", gameID, candidate.Kind, code)
		}
		return event.Event{}, nil, err
	}

	s.logger.Printf("score accepted game=%s event=%s kind=%s points=%d", gameID, stored.ID, stored.Kind, stored.Points)
	s.notify(gameID, state)
	return stored, state, nil
}

// GetState replays the effective history into derived state.
func (s *Service) GetState(ctx context.Context, gameID string) (*projection.State, error) {
	ctx, span := s.startSpan(ctx, "service.GetState", gameID)
	state, err := s.ledger.State(ctx, gameID)
	s.finishSpan(span, err)
	return state, err
}

// ListEvents returns the game's journal. With includeRetracted the full audit
// history is returned, retracted entries included.
func (s *Service) ListEvents(ctx context.Context, gameID string, includeRetracted bool) ([]event.Event, error) {
	if includeRetracted {
		return s.ledger.AllEvents(ctx, gameID)
	}
	return s.ledger.Events(ctx, gameID)
}

// ListRetractions returns the retraction audit log for a game.
func (s *Service) ListRetractions(ctx context.Context, gameID string) ([]storage.Retraction, error) {
	return s.ledger.Retractions(ctx, gameID)
}

// Retract removes an event from replay, keeping it in the audit history.
func (s *Service) Retract(ctx context.Context, gameID, eventID, reason string) (*projection.State, error) {
	ctx, span := s.startSpan(ctx, "service.Retract", gameID)
	var err error
	defer func() { s.finishSpan(span, err) }()

	state, err := s.ledger.Retract(ctx, gameID, eventID, reason)
	if err != nil {
		return nil, err
	}

	s.logger.Printf("event retracted game=%s event=%s", gameID, eventID)
	s.notify(gameID, state)
	return state, nil
}

// AdvanceRound appends a round boundary. Victory is evaluated here and only
// here, so a lead mid-round never ends the game early.
func (s *Service) AdvanceRound(ctx context.Context, gameID string) (*projection.State, error) {
	ctx, span := s.startSpan(ctx, "service.AdvanceRound", gameID)
	var err error
	defer func() { s.finishSpan(span, err) }()

	_, state, err := s.ledger.AdvanceRound(ctx, gameID)
	if err != nil {
		return nil, err
	}

	if state.Finished() {
		s.logger.Printf("game finished game=%s winner=%s round=%d", gameID, state.Winner, state.CurrentRound)
	} else {
		s.logger.Printf("round advanced game=%s round=%d", gameID, state.CurrentRound)
	}
	s.notify(gameID, state)
	return state, nil
}

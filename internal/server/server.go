// Package server exposes the scoring service over HTTP and websockets.
package server

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	apperrors "github.com/arphillips06/ti4-ledger/internal/platform/errors"
	"github.com/arphillips06/ti4-ledger/internal/scoring/service"
	"github.com/gorilla/mux"
)

// maxBodyBytes bounds score payloads; events are small JSON documents.
const maxBodyBytes = 1 << 20

// Server routes HTTP requests to the scoring service.
type Server struct {
	svc    *service.Service
	hub    *Hub
	logger *log.Logger
	router *mux.Router
}

// New builds the HTTP server around the service and websocket hub.
func New(svc *service.Service, hub *Hub, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{svc: svc, hub: hub, logger: logger}
	s.router = s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/objectives", s.handleListObjectives).Methods(http.MethodGet)

	api.HandleFunc("/games", s.handleCreateGame).Methods(http.MethodPost)
	api.HandleFunc("/games", s.handleListGames).Methods(http.MethodGet)
	api.HandleFunc("/games/{id}", s.handleGetGame).Methods(http.MethodGet)
	api.HandleFunc("/games/{id}/state", s.handleGetState).Methods(http.MethodGet)
	api.HandleFunc("/games/{id}/events", s.handleListEvents).Methods(http.MethodGet)
	api.HandleFunc("/games/{id}/scores", s.handleSubmitScore).Methods(http.MethodPost)
	api.HandleFunc("/games/{id}/rounds", s.handleAdvanceRound).Methods(http.MethodPost)
	api.HandleFunc("/games/{id}/retractions", s.handleRetract).Methods(http.MethodPost)
	api.HandleFunc("/games/{id}/retractions", s.handleListRetractions).Methods(http.MethodGet)

	api.HandleFunc("/games/{id}/agendas/mutiny", s.handleMutiny).Methods(http.MethodPost)
	api.HandleFunc("/games/{id}/agendas/seed-of-empire", s.handleSeedOfEmpire).Methods(http.MethodPost)
	api.HandleFunc("/games/{id}/agendas/political-censure", s.handlePoliticalCensure).Methods(http.MethodPost)
	api.HandleFunc("/games/{id}/agendas/classified-document-leaks", s.handleClassifiedDocumentLeaks).Methods(http.MethodPost)
	api.HandleFunc("/games/{id}/agendas/incentive-program", s.handleIncentiveProgram).Methods(http.MethodPost)

	api.HandleFunc("/games/{id}/relics", s.handleScoreRelic).Methods(http.MethodPost)
	api.HandleFunc("/games/{id}/relics/shard-of-the-throne", s.handleTransferShard).Methods(http.MethodPost)
	api.HandleFunc("/games/{id}/relics/the-obsidian", s.handleAssignObsidian).Methods(http.MethodPost)

	r.HandleFunc("/ws/games/{id}", s.handleWatchGame).Methods(http.MethodGet)
	return r
}

func (s *Server) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	var body struct {
		WinningPoints int `json:"winning_points"`
		Players       []struct {
			Name       string `json:"name"`
			Color      string `json:"color"`
			FactionKey string `json:"faction_key"`
		} `json:"players"`
	}
	if !s.decode(w, r, &body) {
		return
	}

	input := service.CreateGameInput{WinningPoints: body.WinningPoints}
	for _, p := range body.Players {
		input.Players = append(input.Players, service.PlayerInput{
			Name:       p.Name,
			Color:      p.Color,
			FactionKey: p.FactionKey,
		})
	}

	game, err := s.svc.CreateGame(r.Context(), input)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, newGameView(game))
}

func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	games, err := s.svc.ListGames(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	views := make([]gameView, len(games))
	for i, game := range games {
		views[i] = newGameView(game)
	}
	s.writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	game, err := s.svc.GetGame(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newGameView(game))
}

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	state, err := s.svc.GetState(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newStateView(state))
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	includeRetracted := r.URL.Query().Get("include_retracted") == "true"
	events, err := s.svc.ListEvents(r.Context(), mux.Vars(r)["id"], includeRetracted)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newEventViews(events))
}

// handleSubmitScore passes the raw body straight to the normalizer; the
// server does not care which of the historical client shapes it is.
func (s *Server) handleSubmitScore(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.writeError(w, apperrors.New(apperrors.CodeMalformedEvent, "could not read request body"))
		return
	}

	stored, state, err := s.svc.Submit(r.Context(), mux.Vars(r)["id"], raw)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, struct {
		Event eventView `json:"event"`
		State stateView `json:"state"`
	}{newEventView(stored), newStateView(state)})
}

func (s *Server) handleAdvanceRound(w http.ResponseWriter, r *http.Request) {
	state, err := s.svc.AdvanceRound(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newStateView(state))
}

func (s *Server) handleRetract(w http.ResponseWriter, r *http.Request) {
	var body struct {
		EventID string `json:"event_id"`
		Reason  string `json:"reason"`
	}
	if !s.decode(w, r, &body) {
		return
	}

	state, err := s.svc.Retract(r.Context(), mux.Vars(r)["id"], body.EventID, body.Reason)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newStateView(state))
}

func (s *Server) handleListRetractions(w http.ResponseWriter, r *http.Request) {
	retractions, err := s.svc.ListRetractions(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newRetractionViews(retractions))
}

func (s *Server) handleMutiny(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Outcome      string   `json:"outcome"`
		ForPlayerIDs []string `json:"for_player_ids"`
	}
	if !s.decode(w, r, &body) {
		return
	}

	state, err := s.svc.ResolveMutiny(r.Context(), mux.Vars(r)["id"], body.Outcome, body.ForPlayerIDs)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newStateView(state))
}

func (s *Server) handleSeedOfEmpire(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Mode string `json:"mode"`
	}
	if !s.decode(w, r, &body) {
		return
	}

	state, err := s.svc.ResolveSeedOfEmpire(r.Context(), mux.Vars(r)["id"], service.SeedOfEmpireMode(body.Mode))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newStateView(state))
}

func (s *Server) handlePoliticalCensure(w http.ResponseWriter, r *http.Request) {
	var body struct {
		PlayerID string `json:"player_id"`
		Gained   bool   `json:"gained"`
	}
	if !s.decode(w, r, &body) {
		return
	}

	state, err := s.svc.ApplyPoliticalCensure(r.Context(), mux.Vars(r)["id"], body.PlayerID, body.Gained)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newStateView(state))
}

func (s *Server) handleClassifiedDocumentLeaks(w http.ResponseWriter, r *http.Request) {
	var body struct {
		PlayerID    string `json:"player_id"`
		ObjectiveID string `json:"objective_id"`
	}
	if !s.decode(w, r, &body) {
		return
	}

	state, err := s.svc.ResolveClassifiedDocumentLeaks(r.Context(), mux.Vars(r)["id"], body.PlayerID, body.ObjectiveID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newStateView(state))
}

func (s *Server) handleIncentiveProgram(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Outcome string `json:"outcome"`
	}
	if !s.decode(w, r, &body) {
		return
	}

	state, err := s.svc.ResolveIncentiveProgram(r.Context(), mux.Vars(r)["id"], body.Outcome)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newStateView(state))
}

func (s *Server) handleScoreRelic(w http.ResponseWriter, r *http.Request) {
	var body struct {
		PlayerID   string `json:"player_id"`
		RelicTitle string `json:"relic_title"`
	}
	if !s.decode(w, r, &body) {
		return
	}

	state, err := s.svc.ScoreRelic(r.Context(), mux.Vars(r)["id"], body.PlayerID, body.RelicTitle)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newStateView(state))
}

func (s *Server) handleTransferShard(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ToPlayerID string `json:"to_player_id"`
	}
	if !s.decode(w, r, &body) {
		return
	}

	state, err := s.svc.TransferShard(r.Context(), mux.Vars(r)["id"], body.ToPlayerID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newStateView(state))
}

func (s *Server) handleAssignObsidian(w http.ResponseWriter, r *http.Request) {
	var body struct {
		PlayerID string `json:"player_id"`
	}
	if !s.decode(w, r, &body) {
		return
	}

	state, err := s.svc.AssignObsidian(r.Context(), mux.Vars(r)["id"], body.PlayerID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newStateView(state))
}

func (s *Server) handleListObjectives(w http.ResponseWriter, r *http.Request) {
	objectives := s.svc.Objectives()
	type objectiveView struct {
		ID     string `json:"id"`
		Name   string `json:"name"`
		Stage  string `json:"stage"`
		Phase  string `json:"phase"`
		Points int    `json:"points"`
	}
	views := make([]objectiveView, len(objectives))
	for i, obj := range objectives {
		views[i] = objectiveView{
			ID:     obj.ID,
			Name:   obj.Name,
			Stage:  string(obj.Stage),
			Phase:  obj.Phase,
			Points: obj.Points,
		}
	}
	s.writeJSON(w, http.StatusOK, views)
}

// handleWatchGame attaches a websocket client to a game's state stream.
func (s *Server) handleWatchGame(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["id"]
	state, err := s.svc.GetState(r.Context(), gameID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.hub.Serve(w, r, gameID, state)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		s.writeError(w, apperrors.New(apperrors.CodeMalformedEvent, "request body is not valid JSON"))
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Printf("write response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := apperrors.CodeOf(err)

	message := "internal error"
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		message = appErr.Message
	}
	if code == apperrors.CodeUnknown {
		s.logger.Printf("internal error: %v", err)
	}

	s.writeJSON(w, code.HTTPStatus(), struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}{Error: struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}{Code: string(code), Message: message}})
}

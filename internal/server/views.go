package server

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/arphillips06/ti4-ledger/internal/scoring/event"
	"github.com/arphillips06/ti4-ledger/internal/scoring/projection"
	"github.com/arphillips06/ti4-ledger/internal/scoring/storage"
)

// Wire views. The projection's internal shapes stay private to the domain;
// these are the only structures clients see.

type gameView struct {
	ID            string       `json:"id"`
	WinningPoints int          `json:"winning_points"`
	Players       []playerView `json:"players"`
	CreatedAt     time.Time    `json:"created_at"`
}

type playerView struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Color      string `json:"color,omitempty"`
	FactionKey string `json:"faction_key,omitempty"`
}

type stateView struct {
	GameID        string            `json:"game_id"`
	WinningPoints int               `json:"winning_points"`
	CurrentRound  int               `json:"current_round"`
	Winner        string            `json:"winner,omitempty"`
	FinishedAt    *time.Time        `json:"finished_at,omitempty"`
	Players       []playerStateView `json:"players"`
	Custodians    string            `json:"custodians_holder,omitempty"`
	Relics        map[string]string `json:"relic_holders,omitempty"`
	AgendasUsed   []string          `json:"agendas_used,omitempty"`
	Revealed      []string          `json:"revealed_secrets,omitempty"`
}

type playerStateView struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Total          int            `json:"total"`
	Breakdown      map[string]int `json:"breakdown,omitempty"`
	SupportPoints  int            `json:"support_points"`
	SecretsScored  []string       `json:"secrets_scored,omitempty"`
	SecretCapacity int            `json:"secret_capacity"`
}

func newGameView(game projection.Game) gameView {
	players := make([]playerView, len(game.Players))
	for i, p := range game.Players {
		players[i] = playerView{ID: p.ID, Name: p.Name, Color: p.Color, FactionKey: p.FactionKey}
	}
	return gameView{
		ID:            game.ID,
		WinningPoints: game.WinningPoints,
		Players:       players,
		CreatedAt:     game.CreatedAt,
	}
}

func newStateView(state *projection.State) stateView {
	players := make([]playerStateView, len(state.Game.Players))
	for i, p := range state.Game.Players {
		breakdown := make(map[string]int)
		for kind, points := range state.PointsByCategory[p.ID] {
			breakdown[string(kind)] = points
		}
		players[i] = playerStateView{
			ID:             p.ID,
			Name:           p.Name,
			Total:          state.PointsByPlayer[p.ID],
			Breakdown:      breakdown,
			SupportPoints:  state.SupportPointsByPlayer[p.ID],
			SecretsScored:  state.HiddenSecrets(p.ID),
			SecretCapacity: state.SecretCapacity(p.ID),
		}
	}

	relics := make(map[string]string, len(state.HolderByRelicTitle))
	for title, holder := range state.HolderByRelicTitle {
		relics[title] = holder
	}

	agendas := make([]string, 0, len(state.AgendaUsed))
	for title, used := range state.AgendaUsed {
		if used {
			agendas = append(agendas, title)
		}
	}
	revealed := make([]string, 0, len(state.RevealedSecretObjectiveIDs))
	for objectiveID := range state.RevealedSecretObjectiveIDs {
		revealed = append(revealed, objectiveID)
	}
	sort.Strings(agendas)
	sort.Strings(revealed)

	return stateView{
		GameID:        state.Game.ID,
		WinningPoints: state.Game.WinningPoints,
		CurrentRound:  state.CurrentRound,
		Winner:        state.Winner,
		FinishedAt:    state.FinishedAt,
		Players:       players,
		Custodians:    state.CustodiansHolder,
		Relics:        relics,
		AgendasUsed:   agendas,
		Revealed:      revealed,
	}
}

type eventView struct {
	ID          string    `json:"id"`
	GameID      string    `json:"game_id"`
	PlayerID    string    `json:"player_id,omitempty"`
	Round       int       `json:"round"`
	Seq         uint64    `json:"seq"`
	CreatedAt   time.Time `json:"created_at"`
	Kind        string    `json:"kind"`
	ObjectiveID string    `json:"objective_id,omitempty"`
	AgendaTitle string    `json:"agenda_title,omitempty"`
	RelicTitle  string    `json:"relic_title,omitempty"`
	Points      int       `json:"points"`
}

func newEventView(evt event.Event) eventView {
	return eventView{
		ID:          evt.ID,
		GameID:      evt.GameID,
		PlayerID:    evt.PlayerID,
		Round:       evt.Round,
		Seq:         evt.Seq,
		CreatedAt:   evt.CreatedAt,
		Kind:        string(evt.Kind),
		ObjectiveID: evt.ObjectiveID,
		AgendaTitle: evt.AgendaTitle,
		RelicTitle:  evt.RelicTitle,
		Points:      evt.Points,
	}
}

func newEventViews(events []event.Event) []eventView {
	views := make([]eventView, len(events))
	for i, evt := range events {
		views[i] = newEventView(evt)
	}
	return views
}

type retractionView struct {
	EventID   string    `json:"event_id"`
	GameID    string    `json:"game_id"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func newRetractionViews(retractions []storage.Retraction) []retractionView {
	views := make([]retractionView, len(retractions))
	for i, retraction := range retractions {
		views[i] = retractionView{
			EventID:   retraction.EventID,
			GameID:    retraction.GameID,
			Reason:    retraction.Reason,
			CreatedAt: retraction.CreatedAt,
		}
	}
	return views
}

type stateMessage struct {
	Type  string    `json:"type"`
	State stateView `json:"state"`
}

func marshalStateMessage(state *projection.State) ([]byte, error) {
	return json.Marshal(stateMessage{Type: "state", State: newStateView(state)})
}

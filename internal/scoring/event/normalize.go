package event

import (
	"encoding/json"
	"strconv"
	"strings"

	apperrors "github.com/arphillips06/ti4-ledger/internal/platform/errors"
)

// Field aliases accumulated across client revisions. Coalescing happens here
// once; no downstream component re-implements it.
var (
	gameIDKeys    = []string{"game_id", "gameId", "GameID"}
	playerIDKeys  = []string{"player_id", "playerId", "PlayerID"}
	kindKeys      = []string{"kind", "type", "Type", "score_type", "scoreType"}
	objectiveKeys = []string{"objective_id", "objectiveId", "ObjectiveID", "objective"}
	agendaKeys    = []string{"agenda_title", "agendaTitle", "AgendaTitle", "agenda"}
	relicKeys     = []string{"relic_title", "relicTitle", "RelicTitle", "relic"}
	pointsKeys    = []string{"points", "Points"}
	idKeys        = []string{"id", "ID", "event_id", "eventId"}
)

// kindAliases maps historical score-type spellings onto canonical kinds.
var kindAliases = map[string]Kind{
	"objective":      KindObjective,
	"public":         KindObjective,
	"secret":         KindSecret,
	"agenda":         KindAgenda,
	"relic":          KindRelic,
	"custodians":     KindCustodians,
	"mecatol":        KindCustodians,
	"imperial":       KindImperial,
	"support":        KindSupport,
	"round.advanced": KindRoundAdvanced,
}

// Normalize maps a raw wire payload onto the canonical event shape.
//
// Normalization is pure and total for well-formed input. Missing game or
// player references and unknown kinds fail with a MalformedEvent error.
// Unrecognized fields are preserved on Event.Extra and otherwise ignored.
func Normalize(raw []byte) (Event, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Event{}, apperrors.Wrap(apperrors.CodeMalformedEvent, "event payload is not a JSON object", err)
	}
	return NormalizeFields(fields)
}

// NormalizeFields normalizes an already-decoded field map.
func NormalizeFields(fields map[string]json.RawMessage) (Event, error) {
	consumed := make(map[string]struct{})

	gameID := takeString(fields, gameIDKeys, consumed)
	if gameID == "" {
		return Event{}, apperrors.New(apperrors.CodeMalformedEvent, "game reference is required")
	}

	kindValue := takeString(fields, kindKeys, consumed)
	kind, ok := kindAliases[strings.ToLower(strings.TrimSpace(kindValue))]
	if !ok {
		return Event{}, apperrors.WithMetadata(apperrors.CodeMalformedEvent, "unknown score kind", map[string]string{"kind": kindValue})
	}

	playerID := takeString(fields, playerIDKeys, consumed)
	if playerID == "" && kind != KindRoundAdvanced {
		return Event{}, apperrors.New(apperrors.CodeMalformedEvent, "player reference is required")
	}

	evt := Event{
		ID:          takeString(fields, idKeys, consumed),
		GameID:      gameID,
		PlayerID:    playerID,
		Kind:        kind,
		ObjectiveID: takeString(fields, objectiveKeys, consumed),
		AgendaTitle: takeString(fields, agendaKeys, consumed),
		RelicTitle:  takeString(fields, relicKeys, consumed),
	}

	if points, ok := takeInt(fields, pointsKeys, consumed); ok {
		evt = evt.WithPoints(points)
	}

	for key, value := range fields {
		if _, ok := consumed[key]; ok {
			continue
		}
		if evt.Extra == nil {
			evt.Extra = make(map[string]json.RawMessage)
		}
		evt.Extra[key] = value
	}

	return evt, nil
}

// takeString returns the first present alias as a string, tolerating both
// JSON strings and bare numbers (legacy numeric ids).
func takeString(fields map[string]json.RawMessage, keys []string, consumed map[string]struct{}) string {
	for _, key := range keys {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		consumed[key] = struct{}{}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return strings.TrimSpace(s)
		}
		var n json.Number
		if err := json.Unmarshal(raw, &n); err == nil {
			return n.String()
		}
	}
	return ""
}

func takeInt(fields map[string]json.RawMessage, keys []string, consumed map[string]struct{}) (int, bool) {
	for _, key := range keys {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		consumed[key] = struct{}{}
		var n int
		if err := json.Unmarshal(raw, &n); err == nil {
			return n, true
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			if parsed, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
				return parsed, true
			}
		}
	}
	return 0, false
}

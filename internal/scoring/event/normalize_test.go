package event

import (
	"errors"
	"testing"

	apperrors "github.com/arphillips06/ti4-ledger/internal/platform/errors"
)

func TestNormalize_CanonicalShape(t *testing.T) {
	evt, err := Normalize([]byte(`{"game_id":"g1","player_id":"p1","kind":"objective","objective_id":"raise-a-fleet","points":1}`))
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	if evt.GameID != "g1" {
		t.Fatalf("game id = %q, want %q", evt.GameID, "g1")
	}
	if evt.PlayerID != "p1" {
		t.Fatalf("player id = %q, want %q", evt.PlayerID, "p1")
	}
	if evt.Kind != KindObjective {
		t.Fatalf("kind = %q, want %q", evt.Kind, KindObjective)
	}
	if evt.ObjectiveID != "raise-a-fleet" {
		t.Fatalf("objective id = %q, want %q", evt.ObjectiveID, "raise-a-fleet")
	}
	if !evt.PointsProvided() || evt.Points != 1 {
		t.Fatalf("points = %d (provided=%t), want explicit 1", evt.Points, evt.PointsProvided())
	}
}

func TestNormalize_LegacyAliases(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    Kind
	}{
		{"camelCase with type", `{"gameId":"g1","playerId":"p1","type":"secret"}`, KindSecret},
		{"score_type public", `{"game_id":"g1","player_id":"p1","score_type":"public"}`, KindObjective},
		{"mecatol alias", `{"game_id":"g1","player_id":"p1","kind":"mecatol"}`, KindCustodians},
		{"exported field names", `{"GameID":"g1","PlayerID":"p1","Type":"imperial"}`, KindImperial},
		{"mixed case kind", `{"game_id":"g1","player_id":"p1","kind":"Support"}`, KindSupport},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			evt, err := Normalize([]byte(tc.payload))
			if err != nil {
				t.Fatalf("Normalize returned error: %v", err)
			}
			if evt.Kind != tc.want {
				t.Fatalf("kind = %q, want %q", evt.Kind, tc.want)
			}
			if evt.GameID != "g1" || evt.PlayerID != "p1" {
				t.Fatalf("references = (%q, %q), want (g1, p1)", evt.GameID, evt.PlayerID)
			}
		})
	}
}

func TestNormalize_NumericLegacyIDs(t *testing.T) {
	evt, err := Normalize([]byte(`{"game_id":42,"player_id":7,"kind":"imperial"}`))
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	if evt.GameID != "42" {
		t.Fatalf("game id = %q, want %q", evt.GameID, "42")
	}
	if evt.PlayerID != "7" {
		t.Fatalf("player id = %q, want %q", evt.PlayerID, "7")
	}
}

func TestNormalize_PointsAsString(t *testing.T) {
	evt, err := Normalize([]byte(`{"game_id":"g1","player_id":"p1","kind":"support","points":"2"}`))
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	if !evt.PointsProvided() || evt.Points != 2 {
		t.Fatalf("points = %d (provided=%t), want explicit 2", evt.Points, evt.PointsProvided())
	}
}

func TestNormalize_OmittedPointsAreNotProvided(t *testing.T) {
	evt, err := Normalize([]byte(`{"game_id":"g1","player_id":"p1","kind":"custodians"}`))
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	if evt.PointsProvided() {
		t.Fatal("points reported as provided for payload without points")
	}
}

func TestNormalize_PreservesUnknownFields(t *testing.T) {
	evt, err := Normalize([]byte(`{"game_id":"g1","player_id":"p1","kind":"objective","objective_id":"o1","client_version":"2.3.1"}`))
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	raw, ok := evt.Extra["client_version"]
	if !ok {
		t.Fatal("unknown field client_version was dropped")
	}
	if string(raw) != `"2.3.1"` {
		t.Fatalf("extra field = %s, want %q", raw, `"2.3.1"`)
	}
}

func TestNormalize_RoundAdvancedNeedsNoPlayer(t *testing.T) {
	evt, err := Normalize([]byte(`{"game_id":"g1","kind":"round.advanced"}`))
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	if evt.Kind != KindRoundAdvanced {
		t.Fatalf("kind = %q, want %q", evt.Kind, KindRoundAdvanced)
	}
}

func TestNormalize_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"not json", `not-json`},
		{"json array", `[1,2,3]`},
		{"missing game", `{"player_id":"p1","kind":"objective"}`},
		{"missing player", `{"game_id":"g1","kind":"objective"}`},
		{"unknown kind", `{"game_id":"g1","player_id":"p1","kind":"bribery"}`},
		{"missing kind", `{"game_id":"g1","player_id":"p1"}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Normalize([]byte(tc.payload))
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, apperrors.New(apperrors.CodeMalformedEvent, "")) {
				t.Fatalf("error code = %v, want %v", apperrors.CodeOf(err), apperrors.CodeMalformedEvent)
			}
		})
	}
}

func TestDefaultPoints(t *testing.T) {
	tests := []struct {
		name   string
		evt    Event
		want   int
		wantOK bool
	}{
		{"custodians", Event{Kind: KindCustodians}, 1, true},
		{"imperial", Event{Kind: KindImperial}, 1, true},
		{"support", Event{Kind: KindSupport}, 1, true},
		{"crown", Event{Kind: KindRelic, RelicTitle: RelicCrownOfEmphidia}, 1, true},
		{"shard", Event{Kind: KindRelic, RelicTitle: RelicShardOfThrone}, 1, true},
		{"obsidian", Event{Kind: KindRelic, RelicTitle: RelicObsidian}, 0, true},
		{"unknown relic", Event{Kind: KindRelic, RelicTitle: "The Codex"}, 0, false},
		{"mutiny", Event{Kind: KindAgenda, AgendaTitle: AgendaMutiny}, 1, true},
		{"classified document leaks", Event{Kind: KindAgenda, AgendaTitle: AgendaCDL}, 0, true},
		{"unknown agenda", Event{Kind: KindAgenda, AgendaTitle: "Ixthian Artifact"}, 0, false},
		{"objective needs catalog", Event{Kind: KindObjective}, 0, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := tc.evt.DefaultPoints()
			if got != tc.want || ok != tc.wantOK {
				t.Fatalf("DefaultPoints() = (%d, %t), want (%d, %t)", got, ok, tc.want, tc.wantOK)
			}
		})
	}
}

func TestSingleUseAgenda(t *testing.T) {
	for _, title := range []string{AgendaMutiny, AgendaSeedOfEmpire, AgendaIncentiveProgram, AgendaCDL} {
		if !SingleUseAgenda(title) {
			t.Fatalf("SingleUseAgenda(%q) = false, want true", title)
		}
	}
	if SingleUseAgenda(AgendaPoliticalCensure) {
		t.Fatal("political censure must be repeatable")
	}
}

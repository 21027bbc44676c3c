package guard

import (
	"testing"
	"time"

	apperrors "github.com/arphillips06/ti4-ledger/internal/platform/errors"
	"github.com/arphillips06/ti4-ledger/internal/scoring/catalog"
	"github.com/arphillips06/ti4-ledger/internal/scoring/event"
	"github.com/arphillips06/ti4-ledger/internal/scoring/projection"
)

func testGuard() Guard {
	return Guard{Catalog: catalog.Default()}
}

func testGame() projection.Game {
	return projection.Game{
		ID:            "g1",
		WinningPoints: 10,
		Players: []projection.Player{
			{ID: "p1", Name: "Sol"},
			{ID: "p2", Name: "Hacan"},
			{ID: "p3", Name: "Xxcha"},
			{ID: "p4", Name: "Jol-Nar"},
		},
	}
}

func candidate(playerID string, kind event.Kind, points int) event.Event {
	return event.Event{
		GameID:   "g1",
		PlayerID: playerID,
		Kind:     kind,
	}.WithPoints(points)
}

func mustApply(t *testing.T, state *projection.State, evt event.Event) {
	t.Helper()
	evt.Seq = state.LastSeq + 1
	if err := state.Apply(evt); err != nil {
		t.Fatalf("apply %s event: %v", evt.Kind, err)
	}
}

func wantRejection(t *testing.T, decision Decision, code apperrors.Code) {
	t.Helper()
	if decision.Accepted() {
		t.Fatalf("candidate accepted, want rejection %s", code)
	}
	if got := decision.Rejections[0].Code; got != code {
		t.Fatalf("rejection code = %s, want %s", got, code)
	}
}

func TestCheck_UnknownPlayer(t *testing.T) {
	state := projection.New(testGame())
	decision := testGuard().Check(state, candidate("intruder", event.KindImperial, 1))
	wantRejection(t, decision, apperrors.CodeUnknownPlayerOrObjective)
}

func TestCheck_CustodiansOnlyOnce(t *testing.T) {
	g := testGuard()
	state := projection.New(testGame())

	first := candidate("p1", event.KindCustodians, 1)
	if decision := g.Check(state, first); !decision.Accepted() {
		t.Fatalf("first custodians rejected: %+v", decision.Rejections)
	}
	mustApply(t, state, first)

	wantRejection(t, g.Check(state, candidate("p2", event.KindCustodians, 1)), apperrors.CodeDuplicateCustodians)
}

func TestCheck_ImperialRequiresCustodians(t *testing.T) {
	g := testGuard()
	state := projection.New(testGame())

	wantRejection(t, g.Check(state, candidate("p1", event.KindImperial, 1)), apperrors.CodeImperialBeforeCustodians)

	mustApply(t, state, candidate("p2", event.KindCustodians, 1))
	if decision := g.Check(state, candidate("p1", event.KindImperial, 1)); !decision.Accepted() {
		t.Fatalf("imperial after custodians rejected: %+v", decision.Rejections)
	}
}

func TestCheck_DuplicateObjective(t *testing.T) {
	g := testGuard()
	state := projection.New(testGame())

	score := candidate("p1", event.KindObjective, 1)
	score.ObjectiveID = "raise-a-fleet"
	if decision := g.Check(state, score); !decision.Accepted() {
		t.Fatalf("objective rejected: %+v", decision.Rejections)
	}
	mustApply(t, state, score)

	wantRejection(t, g.Check(state, score), apperrors.CodeDuplicateScore)

	// The same objective is still open to other players.
	other := candidate("p2", event.KindObjective, 1)
	other.ObjectiveID = "raise-a-fleet"
	if decision := g.Check(state, other); !decision.Accepted() {
		t.Fatalf("other player's score rejected: %+v", decision.Rejections)
	}
}

func TestCheck_ObjectiveMustExistAndMatchKind(t *testing.T) {
	g := testGuard()
	state := projection.New(testGame())

	missing := candidate("p1", event.KindObjective, 1)
	missing.ObjectiveID = "not-a-real-objective"
	wantRejection(t, g.Check(state, missing), apperrors.CodeUnknownPlayerOrObjective)

	// A secret scored through the public objective kind is a mismatch.
	mismatch := candidate("p1", event.KindObjective, 1)
	mismatch.ObjectiveID = "cut-supply-lines"
	wantRejection(t, g.Check(state, mismatch), apperrors.CodeUnknownPlayerOrObjective)
}

func TestCheck_SecretSlotCap(t *testing.T) {
	g := testGuard()
	state := projection.New(testGame())

	for _, objectiveID := range []string{"cut-supply-lines", "form-a-spy-network", "mine-rare-minerals"} {
		score := candidate("p1", event.KindSecret, 1)
		score.ObjectiveID = objectiveID
		if decision := g.Check(state, score); !decision.Accepted() {
			t.Fatalf("secret %s rejected: %+v", objectiveID, decision.Rejections)
		}
		mustApply(t, state, score)
	}

	fourth := candidate("p1", event.KindSecret, 1)
	fourth.ObjectiveID = "spark-a-rebellion"
	wantRejection(t, g.Check(state, fourth), apperrors.CodeSecretSlotsFull)
}

func TestCheck_ObsidianOpensFourthSlot(t *testing.T) {
	g := testGuard()
	state := projection.New(testGame())

	obsidian := candidate("p1", event.KindRelic, 0)
	obsidian.RelicTitle = event.RelicObsidian
	mustApply(t, state, obsidian)

	for _, objectiveID := range []string{"cut-supply-lines", "form-a-spy-network", "mine-rare-minerals", "spark-a-rebellion"} {
		score := candidate("p1", event.KindSecret, 1)
		score.ObjectiveID = objectiveID
		if decision := g.Check(state, score); !decision.Accepted() {
			t.Fatalf("secret %s rejected: %+v", objectiveID, decision.Rejections)
		}
		mustApply(t, state, score)
	}

	fifth := candidate("p1", event.KindSecret, 1)
	fifth.ObjectiveID = "become-a-martyr"
	wantRejection(t, g.Check(state, fifth), apperrors.CodeSecretSlotsFull)
}

func TestCheck_RevealFreesSlotForNewSecret(t *testing.T) {
	g := testGuard()
	state := projection.New(testGame())

	for _, objectiveID := range []string{"cut-supply-lines", "form-a-spy-network", "mine-rare-minerals"} {
		score := candidate("p1", event.KindSecret, 1)
		score.ObjectiveID = objectiveID
		mustApply(t, state, score)
	}

	reveal := candidate("p1", event.KindAgenda, 0)
	reveal.AgendaTitle = event.AgendaCDL
	reveal.ObjectiveID = "cut-supply-lines"
	if decision := g.Check(state, reveal); !decision.Accepted() {
		t.Fatalf("reveal rejected: %+v", decision.Rejections)
	}
	mustApply(t, state, reveal)

	replacement := candidate("p1", event.KindSecret, 1)
	replacement.ObjectiveID = "spark-a-rebellion"
	if decision := g.Check(state, replacement); !decision.Accepted() {
		t.Fatalf("replacement secret rejected after reveal: %+v", decision.Rejections)
	}
}

func TestCheck_SupportCap(t *testing.T) {
	g := testGuard()
	state := projection.New(testGame()) // 4 players, cap 3

	for i := 0; i < 3; i++ {
		grant := candidate("p1", event.KindSupport, 1)
		if decision := g.Check(state, grant); !decision.Accepted() {
			t.Fatalf("support grant %d rejected: %+v", i+1, decision.Rejections)
		}
		mustApply(t, state, grant)
	}

	wantRejection(t, g.Check(state, candidate("p1", event.KindSupport, 1)), apperrors.CodeSupportCapExceeded)

	// Losing support is always legal and reopens headroom.
	loss := candidate("p1", event.KindSupport, -1)
	if decision := g.Check(state, loss); !decision.Accepted() {
		t.Fatalf("support loss rejected: %+v", decision.Rejections)
	}
	mustApply(t, state, loss)
	if decision := g.Check(state, candidate("p1", event.KindSupport, 1)); !decision.Accepted() {
		t.Fatalf("support regrant rejected: %+v", decision.Rejections)
	}
}

func TestCheck_SingleUseAgenda(t *testing.T) {
	g := testGuard()
	state := projection.New(testGame())

	mutiny := candidate("p1", event.KindAgenda, 1)
	mutiny.AgendaTitle = event.AgendaMutiny
	if decision := g.Check(state, mutiny); !decision.Accepted() {
		t.Fatalf("mutiny rejected: %+v", decision.Rejections)
	}
	mustApply(t, state, mutiny)

	repeat := candidate("p2", event.KindAgenda, 1)
	repeat.AgendaTitle = event.AgendaMutiny
	wantRejection(t, g.Check(state, repeat), apperrors.CodeAgendaAlreadyUsed)

	// Political censure is repeatable.
	censure := candidate("p2", event.KindAgenda, 1)
	censure.AgendaTitle = event.AgendaPoliticalCensure
	mustApply(t, state, censure)
	again := candidate("p2", event.KindAgenda, -1)
	again.AgendaTitle = event.AgendaPoliticalCensure
	if decision := g.Check(state, again); !decision.Accepted() {
		t.Fatalf("censure removal rejected: %+v", decision.Rejections)
	}
}

func TestCheck_ClassifiedDocumentLeaksRequiresScoredSecret(t *testing.T) {
	g := testGuard()
	state := projection.New(testGame())

	missingRef := candidate("p1", event.KindAgenda, 0)
	missingRef.AgendaTitle = event.AgendaCDL
	wantRejection(t, g.Check(state, missingRef), apperrors.CodeMalformedEvent)

	notScored := candidate("p1", event.KindAgenda, 0)
	notScored.AgendaTitle = event.AgendaCDL
	notScored.ObjectiveID = "cut-supply-lines"
	wantRejection(t, g.Check(state, notScored), apperrors.CodeUnknownPlayerOrObjective)
}

func TestCheck_ClassifiedDocumentLeaksOnlyRevealsHiddenSecrets(t *testing.T) {
	g := testGuard()
	state := projection.New(testGame())

	public := candidate("p1", event.KindObjective, 1)
	public.ObjectiveID = "raise-a-fleet"
	mustApply(t, state, public)

	// A scored public objective is not a hidden secret.
	reveal := candidate("p1", event.KindAgenda, 0)
	reveal.AgendaTitle = event.AgendaCDL
	reveal.ObjectiveID = "raise-a-fleet"
	wantRejection(t, g.Check(state, reveal), apperrors.CodeUnknownPlayerOrObjective)

	secret := candidate("p1", event.KindSecret, 1)
	secret.ObjectiveID = "cut-supply-lines"
	mustApply(t, state, secret)

	reveal.ObjectiveID = "cut-supply-lines"
	if decision := g.Check(state, reveal); !decision.Accepted() {
		t.Fatalf("hidden secret reveal rejected: %+v", decision.Rejections)
	}
}

func TestCheck_TableWideAgendaMarker(t *testing.T) {
	g := testGuard()
	state := projection.New(testGame())

	marker := event.Event{
		GameID:      "g1",
		Kind:        event.KindAgenda,
		AgendaTitle: event.AgendaIncentiveProgram,
	}.WithPoints(0)
	if decision := g.Check(state, marker); !decision.Accepted() {
		t.Fatalf("table-wide marker rejected: %+v", decision.Rejections)
	}
	mustApply(t, state, marker)

	wantRejection(t, g.Check(state, marker), apperrors.CodeAgendaAlreadyUsed)
}

func TestCheck_FinishedGameRejectsEverything(t *testing.T) {
	g := testGuard()
	state := projection.New(testGame())

	finishedAt := time.Date(2026, 3, 1, 23, 0, 0, 0, time.UTC)
	state.Winner = "p1"
	state.FinishedAt = &finishedAt

	wantRejection(t, g.Check(state, candidate("p2", event.KindImperial, 1)), apperrors.CodeGameFinished)

	boundary := event.Event{GameID: "g1", Kind: event.KindRoundAdvanced}
	wantRejection(t, g.Check(state, boundary), apperrors.CodeGameFinished)
}

func TestCheck_RejectionIsStateless(t *testing.T) {
	g := testGuard()
	state := projection.New(testGame())

	first := g.Check(state, candidate("p1", event.KindImperial, 1))
	second := g.Check(state, candidate("p1", event.KindImperial, 1))
	wantRejection(t, first, apperrors.CodeImperialBeforeCustodians)
	wantRejection(t, second, apperrors.CodeImperialBeforeCustodians)
}

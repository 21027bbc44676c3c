package ledger

import (
	"context"
	"errors"
	"testing"

	apperrors "github.com/arphillips06/ti4-ledger/internal/platform/errors"
	"github.com/arphillips06/ti4-ledger/internal/scoring/catalog"
	"github.com/arphillips06/ti4-ledger/internal/scoring/event"
	"github.com/arphillips06/ti4-ledger/internal/scoring/projection"
	"github.com/arphillips06/ti4-ledger/internal/scoring/storage"
	"github.com/arphillips06/ti4-ledger/internal/scoring/storage/memory"
)

func newTestLedger(t *testing.T, winningPoints int) (*Ledger, projection.Game) {
	t.Helper()
	store := memory.New()
	game := projection.Game{
		ID:            "g1",
		WinningPoints: winningPoints,
		Players: []projection.Player{
			{ID: "p1", Name: "Sol"},
			{ID: "p2", Name: "Hacan"},
			{ID: "p3", Name: "Xxcha"},
		},
	}
	if err := store.PutGame(context.Background(), game); err != nil {
		t.Fatalf("put game: %v", err)
	}
	return New(store, catalog.Default()), game
}

func objectiveCandidate(playerID, objectiveID string) event.Event {
	return event.Event{
		PlayerID:    playerID,
		Kind:        event.KindObjective,
		ObjectiveID: objectiveID,
	}
}

func TestAppend_AssignsSequenceAndRound(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(t, 10)

	stored, state, err := l.Append(ctx, "g1", objectiveCandidate("p1", "raise-a-fleet"))
	if err != nil {
		t.Fatalf("Append returned error: %v", err)
	}
	if stored.Seq != 1 {
		t.Fatalf("seq = %d, want 1", stored.Seq)
	}
	if stored.Round != 1 {
		t.Fatalf("round = %d, want 1", stored.Round)
	}
	if stored.ID == "" {
		t.Fatal("event id not assigned")
	}
	if stored.CreatedAt.IsZero() {
		t.Fatal("created at not assigned")
	}
	if got := state.PointsByPlayer["p1"]; got != 1 {
		t.Fatalf("p1 total = %d, want 1", got)
	}

	second, _, err := l.Append(ctx, "g1", objectiveCandidate("p2", "raise-a-fleet"))
	if err != nil {
		t.Fatalf("Append returned error: %v", err)
	}
	if second.Seq != 2 {
		t.Fatalf("second seq = %d, want 2", second.Seq)
	}
}

func TestAppend_ResolvesDefaultPointsFromCatalog(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(t, 10)

	stored, _, err := l.Append(ctx, "g1", objectiveCandidate("p1", "subdue-the-galaxy"))
	if err != nil {
		t.Fatalf("Append returned error: %v", err)
	}
	if stored.Points != 2 {
		t.Fatalf("stage II points = %d, want 2", stored.Points)
	}
}

func TestAppend_ExplicitPointsOverrideDefaults(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(t, 10)

	stored, _, err := l.Append(ctx, "g1", objectiveCandidate("p1", "raise-a-fleet").WithPoints(3))
	if err != nil {
		t.Fatalf("Append returned error: %v", err)
	}
	if stored.Points != 3 {
		t.Fatalf("points = %d, want explicit 3", stored.Points)
	}
}

func TestAppend_RejectionLeavesJournalUntouched(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(t, 10)

	// Imperial before custodians is a deterministic rejection.
	_, _, err := l.Append(ctx, "g1", event.Event{PlayerID: "p1", Kind: event.KindImperial})
	if apperrors.CodeOf(err) != apperrors.CodeImperialBeforeCustodians {
		t.Fatalf("error code = %v, want %v", apperrors.CodeOf(err), apperrors.CodeImperialBeforeCustodians)
	}

	events, err := l.Events(ctx, "g1")
	if err != nil {
		t.Fatalf("Events returned error: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("journal length = %d, want 0 after rejection", len(events))
	}

	// Retrying the same candidate fails identically: rejections are
	// idempotent because nothing was recorded.
	_, _, err = l.Append(ctx, "g1", event.Event{PlayerID: "p1", Kind: event.KindImperial})
	if apperrors.CodeOf(err) != apperrors.CodeImperialBeforeCustodians {
		t.Fatalf("retry error code = %v, want %v", apperrors.CodeOf(err), apperrors.CodeImperialBeforeCustodians)
	}
}

func TestAppend_UnknownGame(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(t, 10)

	_, _, err := l.Append(ctx, "missing", objectiveCandidate("p1", "raise-a-fleet"))
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("error = %v, want not found", err)
	}
}

func TestRetract_RemovesEventFromReplay(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(t, 10)

	stored, _, err := l.Append(ctx, "g1", objectiveCandidate("p1", "raise-a-fleet"))
	if err != nil {
		t.Fatalf("Append returned error: %v", err)
	}

	state, err := l.Retract(ctx, "g1", stored.ID, "scored by the wrong player")
	if err != nil {
		t.Fatalf("Retract returned error: %v", err)
	}
	if got := state.PointsByPlayer["p1"]; got != 0 {
		t.Fatalf("p1 total after retraction = %d, want 0", got)
	}

	// The journal keeps the event for audit.
	all, err := l.AllEvents(ctx, "g1")
	if err != nil {
		t.Fatalf("AllEvents returned error: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("audit journal length = %d, want 1", len(all))
	}

	retractions, err := l.Retractions(ctx, "g1")
	if err != nil {
		t.Fatalf("Retractions returned error: %v", err)
	}
	if len(retractions) != 1 || retractions[0].EventID != stored.ID {
		t.Fatalf("retractions = %+v, want one entry for %s", retractions, stored.ID)
	}
	if retractions[0].Reason != "scored by the wrong player" {
		t.Fatalf("retraction reason = %q", retractions[0].Reason)
	}

	// The player can now score the objective again.
	if _, _, err := l.Append(ctx, "g1", objectiveCandidate("p1", "raise-a-fleet")); err != nil {
		t.Fatalf("re-score after retraction: %v", err)
	}
}

func TestRetract_AlreadyRetracted(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(t, 10)

	stored, _, err := l.Append(ctx, "g1", objectiveCandidate("p1", "raise-a-fleet"))
	if err != nil {
		t.Fatalf("Append returned error: %v", err)
	}
	if _, err := l.Retract(ctx, "g1", stored.ID, ""); err != nil {
		t.Fatalf("first retract: %v", err)
	}

	_, err = l.Retract(ctx, "g1", stored.ID, "")
	if apperrors.CodeOf(err) != apperrors.CodeEventAlreadyRetracted {
		t.Fatalf("error code = %v, want %v", apperrors.CodeOf(err), apperrors.CodeEventAlreadyRetracted)
	}
}

func TestRetract_UnknownEvent(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(t, 10)

	_, err := l.Retract(ctx, "g1", "no-such-event", "")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("error = %v, want not found", err)
	}
}

func TestAdvanceRound_DetectsVictory(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(t, 2)

	if _, _, err := l.Append(ctx, "g1", objectiveCandidate("p1", "subdue-the-galaxy")); err != nil {
		t.Fatalf("Append returned error: %v", err)
	}

	_, state, err := l.AdvanceRound(ctx, "g1")
	if err != nil {
		t.Fatalf("AdvanceRound returned error: %v", err)
	}
	if !state.Finished() || state.Winner != "p1" {
		t.Fatalf("winner = %q finished = %t, want p1 finished", state.Winner, state.Finished())
	}

	// A finished game accepts nothing further.
	_, _, err = l.Append(ctx, "g1", objectiveCandidate("p2", "raise-a-fleet"))
	if apperrors.CodeOf(err) != apperrors.CodeGameFinished {
		t.Fatalf("error code = %v, want %v", apperrors.CodeOf(err), apperrors.CodeGameFinished)
	}
	_, _, err = l.AdvanceRound(ctx, "g1")
	if apperrors.CodeOf(err) != apperrors.CodeGameFinished {
		t.Fatalf("boundary error code = %v, want %v", apperrors.CodeOf(err), apperrors.CodeGameFinished)
	}
}

func TestAppendAll_SingleUseAgendaJudgedOnce(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(t, 10)

	candidates := []event.Event{
		{PlayerID: "p1", Kind: event.KindAgenda, AgendaTitle: event.AgendaMutiny},
		{PlayerID: "p2", Kind: event.KindAgenda, AgendaTitle: event.AgendaMutiny},
	}
	stored, state, err := l.AppendAll(ctx, "g1", candidates)
	if err != nil {
		t.Fatalf("AppendAll returned error: %v", err)
	}
	if len(stored) != 2 {
		t.Fatalf("stored = %d events, want 2", len(stored))
	}
	if state.PointsByPlayer["p1"] != 1 || state.PointsByPlayer["p2"] != 1 {
		t.Fatalf("totals = %v, want 1 each", state.PointsByPlayer)
	}

	// A second resolution of the same agenda is rejected.
	_, _, err = l.AppendAll(ctx, "g1", candidates[:1])
	if apperrors.CodeOf(err) != apperrors.CodeAgendaAlreadyUsed {
		t.Fatalf("error code = %v, want %v", apperrors.CodeOf(err), apperrors.CodeAgendaAlreadyUsed)
	}
}

func TestAppendAll_RejectsBeforeAppendingAnything(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(t, 10)

	candidates := []event.Event{
		{PlayerID: "p1", Kind: event.KindAgenda, AgendaTitle: event.AgendaMutiny},
		{PlayerID: "intruder", Kind: event.KindAgenda, AgendaTitle: event.AgendaMutiny},
	}
	_, _, err := l.AppendAll(ctx, "g1", candidates)
	if apperrors.CodeOf(err) != apperrors.CodeUnknownPlayerOrObjective {
		t.Fatalf("error code = %v, want %v", apperrors.CodeOf(err), apperrors.CodeUnknownPlayerOrObjective)
	}

	events, err := l.Events(ctx, "g1")
	if err != nil {
		t.Fatalf("Events returned error: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("journal length = %d, want 0 after failed group", len(events))
	}
}

func TestAppendDerived_CandidatesComeFromLockedState(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(t, 10)

	if _, _, err := l.Append(ctx, "g1", objectiveCandidate("p1", "raise-a-fleet")); err != nil {
		t.Fatalf("Append returned error: %v", err)
	}

	// The derive callback sees the freshly projected state and builds the
	// group from it.
	stored, state, err := l.AppendDerived(ctx, "g1", func(state *projection.State) ([]event.Event, error) {
		if state.PointsByPlayer["p1"] != 1 {
			t.Fatalf("derived state p1 total = %d, want 1", state.PointsByPlayer["p1"])
		}
		return []event.Event{
			{PlayerID: "p1", Kind: event.KindSupport},
			{PlayerID: "p2", Kind: event.KindSupport},
		}, nil
	})
	if err != nil {
		t.Fatalf("AppendDerived returned error: %v", err)
	}
	if len(stored) != 2 {
		t.Fatalf("stored = %d events, want 2", len(stored))
	}
	if state.PointsByPlayer["p1"] != 2 || state.PointsByPlayer["p2"] != 1 {
		t.Fatalf("totals = %v, want p1=2 p2=1", state.PointsByPlayer)
	}
}

func TestAppendDerived_DeriveErrorAppendsNothing(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(t, 10)

	wantErr := apperrors.New(apperrors.CodeDuplicateScore, "nothing to transfer")
	_, _, err := l.AppendDerived(ctx, "g1", func(*projection.State) ([]event.Event, error) {
		return nil, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("error = %v, want the derive error", err)
	}

	events, err := l.Events(ctx, "g1")
	if err != nil {
		t.Fatalf("Events returned error: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("journal length = %d, want 0 after derive failure", len(events))
	}
}

func TestState_ReplayMatchesAppendResults(t *testing.T) {
	ctx := context.Background()
	l, game := newTestLedger(t, 10)

	var lastState *projection.State
	candidates := []event.Event{
		objectiveCandidate("p1", "raise-a-fleet"),
		{PlayerID: "p2", Kind: event.KindCustodians},
		{PlayerID: "p2", Kind: event.KindImperial},
		{PlayerID: "p3", Kind: event.KindSecret, ObjectiveID: "cut-supply-lines"},
	}
	for _, candidate := range candidates {
		_, state, err := l.Append(ctx, game.ID, candidate)
		if err != nil {
			t.Fatalf("Append(%s) returned error: %v", candidate.Kind, err)
		}
		lastState = state
	}

	replayed, err := l.State(ctx, game.ID)
	if err != nil {
		t.Fatalf("State returned error: %v", err)
	}

	for _, player := range game.Players {
		if replayed.PointsByPlayer[player.ID] != lastState.PointsByPlayer[player.ID] {
			t.Fatalf("player %s: replay total %d, incremental total %d", player.ID,
				replayed.PointsByPlayer[player.ID], lastState.PointsByPlayer[player.ID])
		}
	}
	if replayed.LastSeq != lastState.LastSeq {
		t.Fatalf("replay last seq %d, incremental %d", replayed.LastSeq, lastState.LastSeq)
	}
}

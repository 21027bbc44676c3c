// Package guard decides whether a proposed score event is legal given the
// current derived state.
//
// Every check is a pure predicate over state and candidate with no I/O. The
// ledger runs the guard against freshly projected state inside the per-game
// append lock, so two conflicting submissions can never both pass.
package guard

import (
	"fmt"

	apperrors "github.com/arphillips06/ti4-ledger/internal/platform/errors"
	"github.com/arphillips06/ti4-ledger/internal/scoring/catalog"
	"github.com/arphillips06/ti4-ledger/internal/scoring/event"
	"github.com/arphillips06/ti4-ledger/internal/scoring/projection"
)

// Rejection captures a domain-level reason a candidate was declined.
type Rejection struct {
	Code    apperrors.Code
	Message string
}

// Err converts the rejection into a domain error.
func (r Rejection) Err() error {
	return apperrors.New(r.Code, r.Message)
}

// Decision represents the pure outcome of checking a candidate.
type Decision struct {
	Rejections []Rejection
}

// Accepted reports whether the candidate passed every check.
func (d Decision) Accepted() bool {
	return len(d.Rejections) == 0
}

// Accept returns a decision with no rejections.
func Accept() Decision {
	return Decision{}
}

// Reject returns a decision carrying one rejection.
func Reject(code apperrors.Code, message string) Decision {
	return Decision{Rejections: []Rejection{{Code: code, Message: message}}}
}

// Guard checks candidates against the scoring rules.
type Guard struct {
	Catalog catalog.Catalog
}

// Check dispatches on the candidate's kind against the scoring invariants.
// The candidate must already be normalized and carry its resolved points.
func (g Guard) Check(state *projection.State, candidate event.Event) Decision {
	if state == nil {
		return Reject(apperrors.CodeUnknown, "state is required")
	}

	if state.Finished() {
		return Reject(apperrors.CodeGameFinished, "game is already finished")
	}

	if candidate.Kind == event.KindRoundAdvanced {
		return Accept()
	}

	// Zero-point agenda markers with no player record a table-wide
	// resolution, such as Incentive Program revealing an objective.
	if candidate.PlayerID == "" && candidate.Kind == event.KindAgenda && candidate.Points == 0 {
		return g.checkAgenda(state, candidate)
	}

	if !state.Game.HasPlayer(candidate.PlayerID) {
		return Reject(apperrors.CodeUnknownPlayerOrObjective,
			fmt.Sprintf("player %s is not part of game %s", candidate.PlayerID, state.Game.ID))
	}

	switch candidate.Kind {
	case event.KindObjective, event.KindSecret:
		return g.checkObjective(state, candidate)
	case event.KindCustodians:
		return checkCustodians(state)
	case event.KindImperial:
		return checkImperial(state)
	case event.KindSupport:
		return checkSupport(state, candidate)
	case event.KindAgenda:
		return g.checkAgenda(state, candidate)
	case event.KindRelic:
		return Accept()
	}

	return Reject(apperrors.CodeMalformedEvent, fmt.Sprintf("unknown event kind %q", candidate.Kind))
}

func (g Guard) checkObjective(state *projection.State, candidate event.Event) Decision {
	obj, ok := g.Catalog.Objective(candidate.ObjectiveID)
	if !ok {
		return Reject(apperrors.CodeUnknownPlayerOrObjective,
			fmt.Sprintf("objective %s is not in the catalog", candidate.ObjectiveID))
	}
	if obj.Secret() != (candidate.Kind == event.KindSecret) {
		return Reject(apperrors.CodeUnknownPlayerOrObjective,
			fmt.Sprintf("objective %s does not match kind %s", candidate.ObjectiveID, candidate.Kind))
	}

	if state.HasScored(candidate.PlayerID, candidate.ObjectiveID) {
		return Reject(apperrors.CodeDuplicateScore,
			fmt.Sprintf("player %s already scored objective %s", candidate.PlayerID, candidate.ObjectiveID))
	}

	if candidate.Kind == event.KindSecret {
		capacity := state.SecretCapacity(candidate.PlayerID)
		if state.OccupiedSecretCount(candidate.PlayerID) >= capacity {
			return Reject(apperrors.CodeSecretSlotsFull,
				fmt.Sprintf("player %s already holds the maximum of %d secret objectives", candidate.PlayerID, capacity))
		}
	}

	return Accept()
}

func checkCustodians(state *projection.State) Decision {
	if state.CustodiansHolder != "" {
		return Reject(apperrors.CodeDuplicateCustodians, "custodians bonus has already been claimed")
	}
	return Accept()
}

func checkImperial(state *projection.State) Decision {
	if state.CustodiansHolder == "" {
		return Reject(apperrors.CodeImperialBeforeCustodians, "imperial requires the custodians bonus to be claimed first")
	}
	return Accept()
}

func checkSupport(state *projection.State, candidate event.Event) Decision {
	if candidate.Points <= 0 {
		// Losing support is always legal; the floor is covered by replay.
		return Accept()
	}
	limit := state.Game.SupportCap()
	if state.SupportPointsByPlayer[candidate.PlayerID]+candidate.Points > limit {
		return Reject(apperrors.CodeSupportCapExceeded,
			fmt.Sprintf("support for the throne is capped at %d points in a %d-player game", limit, state.Game.PlayerCount()))
	}
	return Accept()
}

func (g Guard) checkAgenda(state *projection.State, candidate event.Event) Decision {
	title := candidate.AgendaTitle
	if title == "" {
		return Reject(apperrors.CodeMalformedEvent, "agenda events require a title")
	}

	if event.SingleUseAgenda(title) && state.AgendaUsed[title] {
		return Reject(apperrors.CodeAgendaAlreadyUsed,
			fmt.Sprintf("%s has already been resolved for this game", title))
	}

	if title == event.AgendaCDL {
		if candidate.ObjectiveID == "" {
			return Reject(apperrors.CodeMalformedEvent, "classified document leaks requires an objective reference")
		}
		// Only a secret still occupying a slot can be revealed; public
		// objectives and already-revealed secrets are not hidden.
		if !state.HasHiddenSecret(candidate.PlayerID, candidate.ObjectiveID) {
			return Reject(apperrors.CodeUnknownPlayerOrObjective,
				fmt.Sprintf("player %s has no hidden scored secret %s to reveal", candidate.PlayerID, candidate.ObjectiveID))
		}
	}

	return Accept()
}

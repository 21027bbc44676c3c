// Package event defines the canonical score event and its normalization from
// the historical wire shapes the tracker's clients have produced over time.
//
// Events are immutable business facts. Once the ledger accepts one it is never
// mutated or deleted; corrections happen through audited retraction entries.
package event

import (
	"encoding/json"
	"time"
)

// Kind identifies what a score event records.
type Kind string

const (
	// KindObjective records a public objective score.
	KindObjective Kind = "objective"
	// KindSecret records a secret objective score.
	KindSecret Kind = "secret"
	// KindAgenda records an agenda resolution affecting one player.
	KindAgenda Kind = "agenda"
	// KindRelic records a relic claim or transfer adjustment.
	KindRelic Kind = "relic"
	// KindCustodians records the one-time custodians bonus.
	KindCustodians Kind = "custodians"
	// KindImperial records a repeatable imperial point.
	KindImperial Kind = "imperial"
	// KindSupport records a Support for the Throne point.
	KindSupport Kind = "support"
	// KindRoundAdvanced is a non-scoring boundary marker. Victory is
	// evaluated when one is appended, never mid-round.
	KindRoundAdvanced Kind = "round.advanced"
)

// Relic titles with ledger-level semantics.
const (
	RelicCrownOfEmphidia = "The Crown of Emphidia"
	RelicShardOfThrone   = "Shard of the Throne"
	RelicObsidian        = "The Obsidian"
)

// Agenda titles with ledger-level semantics.
const (
	AgendaMutiny           = "Mutiny"
	AgendaSeedOfEmpire     = "Seed of an Empire"
	AgendaIncentiveProgram = "Incentive Program"
	AgendaCDL              = "Classified Document Leaks"
	AgendaPoliticalCensure = "Political Censure"
)

// Event is the canonical, immutable score record.
type Event struct {
	// ID is the ledger-assigned identifier.
	ID string
	// GameID is the game this event belongs to.
	GameID string
	// PlayerID is the player the event credits or debits.
	// Empty only for round boundaries.
	PlayerID string
	// Round is the round number the event was recorded in (starts at 1).
	// Assigned by the ledger on append.
	Round int
	// Seq is the event sequence number within the game (starts at 1).
	// Assigned by storage on append.
	Seq uint64
	// CreatedAt is the ordering timestamp. Assigned on append.
	CreatedAt time.Time
	// Kind identifies the scoring action.
	Kind Kind
	// ObjectiveID references the objective for objective/secret scores and
	// for the Classified Document Leaks agenda.
	ObjectiveID string
	// AgendaTitle names the agenda for agenda events.
	AgendaTitle string
	// RelicTitle names the relic for relic events.
	RelicTitle string
	// Points is the signed point value. Defaults are derived from the kind
	// when the submitting client omits it.
	Points int
	// pointsSet records whether the wire payload carried an explicit value.
	pointsSet bool
	// Extra preserves unrecognized wire fields. Downstream logic ignores
	// them; they round-trip for audit and debugging only.
	Extra map[string]json.RawMessage
}

// PointsProvided reports whether the submitting client set an explicit point
// value, as opposed to relying on the kind's default.
func (e Event) PointsProvided() bool {
	return e.pointsSet
}

// WithPoints returns a copy of the event carrying an explicit point value.
func (e Event) WithPoints(points int) Event {
	e.Points = points
	e.pointsSet = true
	return e
}

// IsValid reports whether the kind is one the ledger understands.
func (k Kind) IsValid() bool {
	switch k {
	case KindObjective, KindSecret, KindAgenda, KindRelic,
		KindCustodians, KindImperial, KindSupport, KindRoundAdvanced:
		return true
	}
	return false
}

// Scoring reports whether events of this kind can carry points.
func (k Kind) Scoring() bool {
	return k != KindRoundAdvanced
}

// DefaultPoints returns the point value implied by the event's kind and title
// when the wire payload carries none. Objective and secret defaults depend on
// the objective catalog and are resolved by the ledger, not here.
func (e Event) DefaultPoints() (int, bool) {
	switch e.Kind {
	case KindCustodians, KindImperial, KindSupport:
		return 1, true
	case KindRelic:
		switch e.RelicTitle {
		case RelicCrownOfEmphidia, RelicShardOfThrone:
			return 1, true
		case RelicObsidian:
			return 0, true
		}
		return 0, false
	case KindAgenda:
		switch e.AgendaTitle {
		case AgendaCDL, AgendaIncentiveProgram:
			return 0, true
		case AgendaMutiny, AgendaSeedOfEmpire, AgendaPoliticalCensure:
			return 1, true
		}
		return 0, false
	case KindRoundAdvanced:
		return 0, true
	}
	return 0, false
}

// SingleUseAgenda reports whether an agenda title may be resolved at most
// once per game.
func SingleUseAgenda(title string) bool {
	switch title {
	case AgendaMutiny, AgendaSeedOfEmpire, AgendaIncentiveProgram, AgendaCDL:
		return true
	}
	return false
}

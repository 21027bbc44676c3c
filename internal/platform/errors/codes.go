// Package errors provides structured error handling for the scoring domain.
package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Normalizer errors
	CodeMalformedEvent Code = "MALFORMED_EVENT"

	// Eligibility rejections
	CodeDuplicateCustodians      Code = "DUPLICATE_CUSTODIANS"
	CodeImperialBeforeCustodians Code = "IMPERIAL_BEFORE_CUSTODIANS"
	CodeSecretSlotsFull          Code = "SECRET_SLOTS_FULL"
	CodeDuplicateScore           Code = "DUPLICATE_SCORE"
	CodeSupportCapExceeded       Code = "SUPPORT_CAP_EXCEEDED"
	CodeAgendaAlreadyUsed        Code = "AGENDA_ALREADY_USED"
	CodeUnknownPlayerOrObjective Code = "UNKNOWN_PLAYER_OR_OBJECTIVE"
	CodeGameFinished             Code = "GAME_FINISHED"

	// Ledger errors
	CodeEventAlreadyRetracted Code = "EVENT_ALREADY_RETRACTED"

	// Game registry errors
	CodeGamePlayerCount   Code = "GAME_INVALID_PLAYER_COUNT"
	CodeGameWinningPoints Code = "GAME_INVALID_WINNING_POINTS"
	CodePlayerNameEmpty   Code = "PLAYER_NAME_EMPTY"

	// Storage errors
	CodeNotFound           Code = "NOT_FOUND"
	CodeStorageUnavailable Code = "STORAGE_UNAVAILABLE"
)

// HTTPStatus maps domain codes to HTTP status codes at the transport edge.
func (c Code) HTTPStatus() int {
	switch c {
	// Bad request - validation failures, malformed input
	case CodeMalformedEvent,
		CodeGamePlayerCount,
		CodeGameWinningPoints,
		CodePlayerNameEmpty:
		return http.StatusBadRequest

	// Conflict - the ledger already records a fact that excludes this one
	case CodeDuplicateCustodians,
		CodeDuplicateScore,
		CodeAgendaAlreadyUsed,
		CodeEventAlreadyRetracted:
		return http.StatusConflict

	// Unprocessable - current derived state does not allow the operation
	case CodeImperialBeforeCustodians,
		CodeSecretSlotsFull,
		CodeSupportCapExceeded,
		CodeGameFinished:
		return http.StatusUnprocessableEntity

	// NotFound - resource doesn't exist
	case CodeNotFound,
		CodeUnknownPlayerOrObjective:
		return http.StatusNotFound

	case CodeStorageUnavailable:
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}

// IsRejection reports whether the code belongs to the eligibility guard's
// closed rejection set. Rejections are deterministic business outcomes and
// are never retried automatically.
func (c Code) IsRejection() bool {
	switch c {
	case CodeDuplicateCustodians,
		CodeImperialBeforeCustodians,
		CodeSecretSlotsFull,
		CodeDuplicateScore,
		CodeSupportCapExceeded,
		CodeAgendaAlreadyUsed,
		CodeUnknownPlayerOrObjective,
		CodeGameFinished:
		return true
	}
	return false
}

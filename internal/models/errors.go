package models

import "errors"

// Validation errors: caller-fixable, nothing mutated.
var (
	ErrInvalidMinesCount = errors.New("mines count must be between 1 and 24")
	ErrInvalidBet        = errors.New("bet amount must be positive")
	ErrInvalidPosition   = errors.New("position must be between 0 and 24")
)

// State errors: the client's view of the round is stale, nothing mutated.
var (
	ErrNoActiveRound   = errors.New("no active round")
	ErrAlreadyRevealed = errors.New("position already revealed")
	ErrRoundInProgress = errors.New("an active round already exists")
)

// Resource errors.
var (
	ErrInsufficientBalance = errors.New("insufficient balance")
)

// Collaborator errors: fatal to the current request.
var (
	ErrLedgerUnavailable = errors.New("ledger unavailable")
	ErrStoreUnavailable  = errors.New("round store unavailable")

	// ErrInconsistentState means one half of the round+ledger commit landed
	// and the other failed. The request must not be presented as success.
	ErrInconsistentState = errors.New("round state and ledger are inconsistent")
)

// ErrorKind maps a service error to the stable kind reported to clients.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrInvalidMinesCount):
		return "invalid_mines_count"
	case errors.Is(err, ErrInvalidBet):
		return "invalid_bet"
	case errors.Is(err, ErrInvalidPosition):
		return "invalid_position"
	case errors.Is(err, ErrNoActiveRound):
		return "no_active_round"
	case errors.Is(err, ErrAlreadyRevealed):
		return "already_revealed"
	case errors.Is(err, ErrRoundInProgress):
		return "round_in_progress"
	case errors.Is(err, ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, ErrInconsistentState):
		return "inconsistent_state"
	case errors.Is(err, ErrLedgerUnavailable):
		return "ledger_unavailable"
	case errors.Is(err, ErrStoreUnavailable):
		return "store_unavailable"
	default:
		return "internal_error"
	}
}

// Rejected reports whether the error is a plain rejection of the request,
// as opposed to a collaborator failure.
func Rejected(err error) bool {
	switch ErrorKind(err) {
	case "invalid_mines_count", "invalid_bet", "invalid_position",
		"no_active_round", "already_revealed", "round_in_progress",
		"insufficient_balance":
		return true
	}
	return false
}

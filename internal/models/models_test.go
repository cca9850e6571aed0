package models_test

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"

	"mines-miniapp-backend/internal/models"
)

func TestRoundHelpers(t *testing.T) {
	round := &models.Round{
		ID:                models.GenerateRoundID(),
		UserID:            1,
		GridSize:          models.GridSize,
		MinesCount:        5,
		MinePositions:     []int{0, 1, 2, 3, 4},
		RevealedPositions: []int{10, 11},
		BetAmount:         100,
		Multiplier:        decimal.NewFromInt(1),
		Status:            models.RoundStatusActive,
	}

	if round.SafeTiles() != 20 {
		t.Errorf("expected 20 safe tiles, got %d", round.SafeTiles())
	}
	if !round.IsMine(3) || round.IsMine(10) {
		t.Error("IsMine misclassified a position")
	}
	if !round.IsRevealed(11) || round.IsRevealed(12) {
		t.Error("IsRevealed misclassified a position")
	}
	if !round.IsActive() {
		t.Error("round should be active")
	}
}

func TestRoundCloneIsIndependent(t *testing.T) {
	round := &models.Round{
		MinePositions:     []int{0, 1},
		RevealedPositions: []int{5},
		Status:            models.RoundStatusActive,
	}

	clone := round.Clone()
	clone.Status = models.RoundStatusLost
	clone.RevealedPositions = append(clone.RevealedPositions, 6)
	clone.MinePositions[0] = 9

	if round.Status != models.RoundStatusActive {
		t.Error("clone shares status with original")
	}
	if len(round.RevealedPositions) != 1 {
		t.Error("clone shares revealed positions with original")
	}
	if round.MinePositions[0] != 0 {
		t.Error("clone shares mine positions with original")
	}
}

func TestRoundJSONRoundTrip(t *testing.T) {
	round := &models.Round{
		ID:                "round_x",
		GridSize:          models.GridSize,
		MinesCount:        3,
		MinePositions:     []int{1, 2, 3},
		RevealedPositions: []int{},
		BetAmount:         50,
		Multiplier:        decimal.RequireFromString("1.1363636363636364"),
		Status:            models.RoundStatusActive,
	}

	data, err := json.Marshal(round)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded models.Round
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if !decoded.Multiplier.Equal(round.Multiplier) {
		t.Errorf("multiplier drifted through serialization: %s != %s",
			decoded.Multiplier, round.Multiplier)
	}
	if decoded.Status != models.RoundStatusActive {
		t.Errorf("status lost: %s", decoded.Status)
	}
}

func TestErrorKinds(t *testing.T) {
	cases := map[error]string{
		models.ErrInvalidMinesCount:   "invalid_mines_count",
		models.ErrInvalidBet:          "invalid_bet",
		models.ErrInvalidPosition:     "invalid_position",
		models.ErrNoActiveRound:       "no_active_round",
		models.ErrAlreadyRevealed:     "already_revealed",
		models.ErrRoundInProgress:     "round_in_progress",
		models.ErrInsufficientBalance: "insufficient_balance",
		models.ErrInconsistentState:   "inconsistent_state",
		models.ErrLedgerUnavailable:   "ledger_unavailable",
		models.ErrStoreUnavailable:    "store_unavailable",
	}

	for err, want := range cases {
		if got := models.ErrorKind(err); got != want {
			t.Errorf("ErrorKind(%v) = %s, want %s", err, got, want)
		}
	}

	if !models.Rejected(models.ErrAlreadyRevealed) {
		t.Error("ErrAlreadyRevealed should be a rejection")
	}
	if models.Rejected(models.ErrInconsistentState) {
		t.Error("ErrInconsistentState is not a rejection")
	}
}

func TestNewWallet(t *testing.T) {
	wallet := models.NewWallet(42)

	if wallet.Balance != models.StartingBalance {
		t.Errorf("expected starting balance %d, got %d", models.StartingBalance, wallet.Balance)
	}
	if wallet.UserID != 42 {
		t.Errorf("expected user id 42, got %d", wallet.UserID)
	}
}

func TestIDGenerators(t *testing.T) {
	if models.GenerateRoundID() == "" {
		t.Error("round IDs should not be empty")
	}
	if models.GenerateTransactionID() == "" {
		t.Error("transaction IDs should not be empty")
	}
	if models.GenerateSessionID() == "" {
		t.Error("session IDs should not be empty")
	}
}

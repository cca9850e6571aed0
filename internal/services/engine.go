package services

import (
	"math/rand"
	"time"

	"github.com/shopspring/decimal"

	"mines-miniapp-backend/internal/models"
)

// Engine holds the rules of one mines round: mine placement, reveal
// resolution, the multiplier curve and terminal payouts. It performs no I/O;
// every operation takes a round value and returns a fresh one together with
// an outcome the coordinator commits.
type Engine struct {
	// perm draws a random permutation of [0, n). Swapped out in tests for a
	// deterministic layout.
	perm func(n int) []int
}

func NewEngine() *Engine {
	return &Engine{perm: rand.Perm}
}

// NewEngineWithPerm constructs an engine with a custom permutation source.
// Tests use it to pin the mine layout.
func NewEngineWithPerm(perm func(n int) []int) *Engine {
	return &Engine{perm: perm}
}

// Start validates the bet, draws the mine layout and escrows the stake.
// The outcome carries a balance delta of -betAmount to commit immediately;
// the stake is only recoverable through a payout.
func (e *Engine) Start(userID int64, minesCount int, betAmount, availableBalance int64) (*models.Round, *models.Outcome, error) {
	if minesCount < models.MinMinesCount || minesCount > models.MaxMinesCount {
		return nil, nil, models.ErrInvalidMinesCount
	}
	if betAmount <= 0 {
		return nil, nil, models.ErrInvalidBet
	}
	if availableBalance < betAmount {
		return nil, nil, models.ErrInsufficientBalance
	}

	// First minesCount entries of a uniform permutation: every subset of
	// that size is equally likely, no repeats.
	mines := append([]int(nil), e.perm(models.GridSize)[:minesCount]...)

	now := time.Now()
	round := &models.Round{
		ID:                models.GenerateRoundID(),
		UserID:            userID,
		GridSize:          models.GridSize,
		MinesCount:        minesCount,
		MinePositions:     mines,
		RevealedPositions: []int{},
		BetAmount:         betAmount,
		Multiplier:        decimal.NewFromInt(1),
		Status:            models.RoundStatusActive,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	outcome := &models.Outcome{
		Kind:         models.OutcomeStarted,
		Round:        round,
		BalanceDelta: -betAmount,
		Multiplier:   round.Multiplier,
	}

	return round, outcome, nil
}

// Reveal resolves one tile. A mine ends the round as lost with no balance
// movement (the stake was taken at start). A safe tile advances the
// multiplier, and clearing the last safe tile pays out immediately.
func (e *Engine) Reveal(round *models.Round, position int) (*models.Round, *models.Outcome, error) {
	if position < 0 || position >= models.GridSize {
		return nil, nil, models.ErrInvalidPosition
	}
	if !round.IsActive() {
		return nil, nil, models.ErrNoActiveRound
	}
	if round.IsRevealed(position) {
		return nil, nil, models.ErrAlreadyRevealed
	}

	next := round.Clone()
	next.UpdatedAt = time.Now()

	if next.IsMine(position) {
		next.Status = models.RoundStatusLost
		return next, &models.Outcome{
			Kind:       models.OutcomeRevealedMine,
			Round:      next,
			Multiplier: next.Multiplier,
		}, nil
	}

	next.RevealedPositions = append(next.RevealedPositions, position)
	next.Multiplier = multiplierFor(next.MinesCount, next.RevealedCount(), next.SafeTiles())

	if next.RevealedCount() == next.SafeTiles() {
		winnings := winningsFor(next.BetAmount, next.MinesCount, next.RevealedCount(), next.SafeTiles())
		next.Status = models.RoundStatusWonByClear
		return next, &models.Outcome{
			Kind:         models.OutcomeCleared,
			Round:        next,
			BalanceDelta: winnings,
			Multiplier:   next.Multiplier,
			Winnings:     winnings,
		}, nil
	}

	return next, &models.Outcome{
		Kind:         models.OutcomeRevealedSafe,
		Round:        next,
		Multiplier:   next.Multiplier,
		PotentialWin: winningsFor(next.BetAmount, next.MinesCount, next.RevealedCount(), next.SafeTiles()),
	}, nil
}

// Cashout locks in the current multiplier. Valid at any point while the
// round is active, including before the first reveal (which pays the stake
// back at 1.0x).
func (e *Engine) Cashout(round *models.Round) (*models.Round, *models.Outcome, error) {
	if !round.IsActive() {
		return nil, nil, models.ErrNoActiveRound
	}

	next := round.Clone()
	next.UpdatedAt = time.Now()
	next.Status = models.RoundStatusCashedOut

	winnings := winningsFor(next.BetAmount, next.MinesCount, next.RevealedCount(), next.SafeTiles())
	return next, &models.Outcome{
		Kind:         models.OutcomeCashedOut,
		Round:        next,
		BalanceDelta: winnings,
		Multiplier:   next.Multiplier,
		Winnings:     winnings,
	}, nil
}

// multiplierFor is the linear curve 1 + (revealed/safeTiles) * minesCount:
// 1.0 with nothing revealed, 1 + minesCount at a full clear. No house edge
// is applied; the formula is kept for compatibility with the original game
// economics.
func multiplierFor(minesCount, revealedCount, safeTiles int) decimal.Decimal {
	return decimal.NewFromInt(1).Add(
		decimal.NewFromInt(int64(minesCount * revealedCount)).
			Div(decimal.NewFromInt(int64(safeTiles))))
}

// winningsFor is floor(bet * multiplier), computed as
// bet * (safeTiles + minesCount*revealedCount) / safeTiles in integer
// arithmetic so the only truncation is the final floor.
func winningsFor(bet int64, minesCount, revealedCount, safeTiles int) int64 {
	return bet * int64(safeTiles+minesCount*revealedCount) / int64(safeTiles)
}

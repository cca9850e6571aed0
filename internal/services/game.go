package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"mines-miniapp-backend/internal/models"
)

// GameService coordinates one request end to end: load the caller's round
// and balance, run the engine, then persist the round and apply the balance
// delta. Operations for the same user are serialized so concurrent reveals
// or a reveal racing a cashout resolve to exactly one terminal state and one
// balance mutation.
type GameService struct {
	engine *Engine
	ledger Ledger
	rounds RoundStore
	txLog  TransactionLog
	locks  *userLocks
}

func NewGameService(engine *Engine, ledger Ledger, rounds RoundStore, txLog TransactionLog) *GameService {
	return &GameService{
		engine: engine,
		ledger: ledger,
		rounds: rounds,
		txLog:  txLog,
		locks:  newUserLocks(),
	}
}

// PlayResult is the outcome of a start/reveal/cashout plus the caller's
// balance after any commit.
type PlayResult struct {
	Outcome *models.Outcome
	Balance int64
}

func (s *GameService) Start(ctx context.Context, userID int64, minesCount int, betAmount int64) (*PlayResult, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	existing, err := s.rounds.GetRound(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrStoreUnavailable, err)
	}
	if existing != nil && existing.IsActive() {
		return nil, models.ErrRoundInProgress
	}

	balance, err := s.ledger.GetBalance(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrLedgerUnavailable, err)
	}

	round, outcome, err := s.engine.Start(userID, minesCount, betAmount, balance)
	if err != nil {
		return nil, err
	}

	// Debit before storing the round: a charged stake without a stored
	// round surfaces as inconsistency, a stored round without a charged
	// stake would be a free game.
	newBalance, err := s.ledger.ApplyDelta(ctx, userID, outcome.BalanceDelta)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrLedgerUnavailable, err)
	}
	if err := s.rounds.PutRound(ctx, userID, round); err != nil {
		return nil, fmt.Errorf("%w: stake debited but round not stored: %v", models.ErrInconsistentState, err)
	}

	s.record(ctx, userID, models.TransactionTypeBet, outcome.BalanceDelta, newBalance, round.ID,
		fmt.Sprintf("Mines bet: %d mines, stake %d", minesCount, betAmount))

	return &PlayResult{Outcome: outcome, Balance: newBalance}, nil
}

func (s *GameService) Reveal(ctx context.Context, userID int64, position int) (*PlayResult, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	round, err := s.loadActiveRound(ctx, userID)
	if err != nil {
		return nil, err
	}

	balance, err := s.ledger.GetBalance(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrLedgerUnavailable, err)
	}

	next, outcome, err := s.engine.Reveal(round, position)
	if err != nil {
		return nil, err
	}

	newBalance, err := s.commit(ctx, userID, next, outcome, balance)
	if err != nil {
		return nil, err
	}

	if outcome.Kind == models.OutcomeCleared {
		s.record(ctx, userID, models.TransactionTypeWin, outcome.Winnings, newBalance, next.ID,
			fmt.Sprintf("Mines full clear at %sx", outcome.Multiplier))
	}

	return &PlayResult{Outcome: outcome, Balance: newBalance}, nil
}

func (s *GameService) Cashout(ctx context.Context, userID int64) (*PlayResult, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	round, err := s.loadActiveRound(ctx, userID)
	if err != nil {
		return nil, err
	}

	balance, err := s.ledger.GetBalance(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrLedgerUnavailable, err)
	}

	next, outcome, err := s.engine.Cashout(round)
	if err != nil {
		return nil, err
	}

	newBalance, err := s.commit(ctx, userID, next, outcome, balance)
	if err != nil {
		return nil, err
	}

	s.record(ctx, userID, models.TransactionTypeWin, outcome.Winnings, newBalance, next.ID,
		fmt.Sprintf("Mines cashout at %sx with %d reveals", outcome.Multiplier, next.RevealedCount()))

	return &PlayResult{Outcome: outcome, Balance: newBalance}, nil
}

// CurrentRound returns the caller's round, terminal or not, or nil when
// none exists.
func (s *GameService) CurrentRound(ctx context.Context, userID int64) (*models.Round, error) {
	round, err := s.rounds.GetRound(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrStoreUnavailable, err)
	}
	return round, nil
}

func (s *GameService) Balance(ctx context.Context, userID int64) (int64, error) {
	balance, err := s.ledger.GetBalance(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", models.ErrLedgerUnavailable, err)
	}
	return balance, nil
}

func (s *GameService) loadActiveRound(ctx context.Context, userID int64) (*models.Round, error) {
	round, err := s.rounds.GetRound(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrStoreUnavailable, err)
	}
	if round == nil {
		return nil, models.ErrNoActiveRound
	}
	return round, nil
}

// commit persists the round and applies the outcome's balance delta. The
// round is written first: if the subsequent credit fails the round is
// terminal-but-unpaid and the request fails with an inconsistency error,
// which can never re-open a payable path.
func (s *GameService) commit(ctx context.Context, userID int64, round *models.Round, outcome *models.Outcome, balance int64) (int64, error) {
	if err := s.rounds.PutRound(ctx, userID, round); err != nil {
		return 0, fmt.Errorf("%w: %v", models.ErrStoreUnavailable, err)
	}
	if outcome.BalanceDelta == 0 {
		return balance, nil
	}

	newBalance, err := s.ledger.ApplyDelta(ctx, userID, outcome.BalanceDelta)
	if err != nil {
		return 0, fmt.Errorf("%w: round stored but payout of %d not applied: %v",
			models.ErrInconsistentState, outcome.BalanceDelta, err)
	}
	return newBalance, nil
}

func (s *GameService) record(ctx context.Context, userID int64, txType models.TransactionType, amount, balanceAfter int64, roundID, description string) {
	tx := &models.Transaction{
		ID:           models.GenerateTransactionID(),
		UserID:       userID,
		Type:         txType,
		Amount:       amount,
		BalanceAfter: balanceAfter,
		RoundID:      roundID,
		Description:  description,
		CreatedAt:    time.Now(),
	}
	if err := s.txLog.RecordTransaction(ctx, tx); err != nil {
		log.Printf("failed to record transaction for user %d: %v", userID, err)
	}
}

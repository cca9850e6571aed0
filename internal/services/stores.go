package services

import (
	"context"

	"mines-miniapp-backend/internal/models"
)

// Ledger is the external balance store, keyed by user. ApplyDelta must be
// atomic with respect to concurrent deltas for the same user.
type Ledger interface {
	GetBalance(ctx context.Context, userID int64) (int64, error)
	ApplyDelta(ctx context.Context, userID int64, delta int64) (newBalance int64, err error)
}

// RoundStore holds the caller's current round. GetRound returns (nil, nil)
// when the user has never started one.
type RoundStore interface {
	GetRound(ctx context.Context, userID int64) (*models.Round, error)
	PutRound(ctx context.Context, userID int64, round *models.Round) error
}

// TransactionLog records the audit trail of balance movements. Failures are
// logged, not surfaced: the ledger commit is the source of truth.
type TransactionLog interface {
	RecordTransaction(ctx context.Context, tx *models.Transaction) error
}

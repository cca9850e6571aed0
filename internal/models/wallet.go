package models

import "time"

// StartingBalance is credited to every new wallet, in whole currency units.
const StartingBalance = 1000

type Wallet struct {
	UserID  int64 `json:"user_id" redis:"user_id"`
	Balance int64 `json:"balance" redis:"balance"`

	TotalWagered int64 `json:"total_wagered" redis:"total_wagered"`
	TotalWon     int64 `json:"total_won" redis:"total_won"`

	CreatedAt time.Time `json:"created_at" redis:"created_at"`
	UpdatedAt time.Time `json:"updated_at" redis:"updated_at"`
}

func NewWallet(userID int64) *Wallet {
	now := time.Now()
	return &Wallet{
		UserID:    userID,
		Balance:   StartingBalance,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

type TransactionType string

const (
	TransactionTypeBet TransactionType = "bet"
	TransactionTypeWin TransactionType = "win"
)

type Transaction struct {
	ID           string          `json:"id" redis:"id"`
	UserID       int64           `json:"user_id" redis:"user_id"`
	Type         TransactionType `json:"type" redis:"type"`
	Amount       int64           `json:"amount" redis:"amount"`
	BalanceAfter int64           `json:"balance_after" redis:"balance_after"`
	RoundID      string          `json:"round_id,omitempty" redis:"round_id"`
	Description  string          `json:"description" redis:"description"`
	CreatedAt    time.Time       `json:"created_at" redis:"created_at"`
}

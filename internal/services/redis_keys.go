package services

import "time"

const (
	KeyWallet           = "wallet:%d"
	KeyUserInfo         = "user:%d:info"
	KeyUserByName       = "user:name:%s"
	KeyUserByEmail      = "user:email:%s"
	KeyUserSession      = "user:%d:session:%s"
	KeyRound            = "mines:round:%d"
	KeyTransaction      = "transaction:%s"
	KeyUserTransactions = "user:%d:transactions"
	KeyRateLimit        = "ratelimit:%d:%s"

	TTLUserSession = 24 * time.Hour
	TTLRound       = 7 * 24 * time.Hour
	TTLTransaction = 30 * 24 * time.Hour

	// Oldest entries beyond this count are trimmed from a user's
	// transaction index.
	MaxTransactionHistory = 100

	DefaultRateLimitStart   = 30  // starts per minute
	DefaultRateLimitReveal  = 120 // reveals per minute
	DefaultRateLimitCashout = 60  // cashouts per minute
)

package services_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"mines-miniapp-backend/internal/config"
	"mines-miniapp-backend/internal/models"
	"mines-miniapp-backend/internal/services"
)

func setupTestRedis(t *testing.T) *services.RedisService {
	t.Helper()

	cfg := &config.Config{
		RedisURL:  "localhost:6379",
		RedisPass: "",
		RedisDB:   0,
	}

	redisService, err := services.NewRedisService(cfg)
	if err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	t.Cleanup(func() { redisService.Close() })

	return redisService
}

func TestRedisLedger(t *testing.T) {
	redisService := setupTestRedis(t)
	ctx := context.Background()
	userID := models.GenerateUserID()

	balance, err := redisService.GetBalance(ctx, userID)
	if err != nil {
		t.Fatalf("Failed to get balance: %v", err)
	}
	if balance != models.StartingBalance {
		t.Errorf("expected starting balance %d, got %d", models.StartingBalance, balance)
	}

	newBalance, err := redisService.ApplyDelta(ctx, userID, -100)
	if err != nil {
		t.Fatalf("Failed to apply debit: %v", err)
	}
	if newBalance != models.StartingBalance-100 {
		t.Errorf("expected %d after debit, got %d", models.StartingBalance-100, newBalance)
	}

	newBalance, err = redisService.ApplyDelta(ctx, userID, 250)
	if err != nil {
		t.Fatalf("Failed to apply credit: %v", err)
	}
	if newBalance != models.StartingBalance+150 {
		t.Errorf("expected %d after credit, got %d", models.StartingBalance+150, newBalance)
	}

	// A debit past zero must be refused atomically.
	if _, err := redisService.ApplyDelta(ctx, userID, -(models.StartingBalance + 10000)); err == nil {
		t.Error("expected overdraft to fail")
	}

	wallet, err := redisService.GetWallet(ctx, userID)
	if err != nil {
		t.Fatalf("Failed to get wallet: %v", err)
	}
	if wallet.TotalWagered != 100 {
		t.Errorf("expected total wagered 100, got %d", wallet.TotalWagered)
	}
	if wallet.TotalWon != 250 {
		t.Errorf("expected total won 250, got %d", wallet.TotalWon)
	}
}

func TestRedisRoundStore(t *testing.T) {
	redisService := setupTestRedis(t)
	ctx := context.Background()
	userID := models.GenerateUserID()

	round, err := redisService.GetRound(ctx, userID)
	if err != nil {
		t.Fatalf("Failed to get round: %v", err)
	}
	if round != nil {
		t.Fatal("expected no round for a fresh user")
	}

	stored := &models.Round{
		ID:                models.GenerateRoundID(),
		UserID:            userID,
		GridSize:          models.GridSize,
		MinesCount:        5,
		MinePositions:     []int{0, 5, 10, 15, 20},
		RevealedPositions: []int{1, 2},
		BetAmount:         100,
		Multiplier:        decimal.RequireFromString("1.5"),
		Status:            models.RoundStatusActive,
		CreatedAt:         time.Now(),
		UpdatedAt:         time.Now(),
	}
	if err := redisService.PutRound(ctx, userID, stored); err != nil {
		t.Fatalf("Failed to put round: %v", err)
	}

	retrieved, err := redisService.GetRound(ctx, userID)
	if err != nil {
		t.Fatalf("Failed to get round: %v", err)
	}
	if retrieved.ID != stored.ID {
		t.Errorf("round ID mismatch: %s != %s", retrieved.ID, stored.ID)
	}
	if !retrieved.Multiplier.Equal(stored.Multiplier) {
		t.Errorf("multiplier drifted: %s != %s", retrieved.Multiplier, stored.Multiplier)
	}
	if len(retrieved.MinePositions) != 5 || len(retrieved.RevealedPositions) != 2 {
		t.Error("positions lost through serialization")
	}
}

func TestRedisTransactions(t *testing.T) {
	redisService := setupTestRedis(t)
	ctx := context.Background()
	userID := models.GenerateUserID()

	for i := 0; i < 3; i++ {
		tx := &models.Transaction{
			ID:           models.GenerateTransactionID(),
			UserID:       userID,
			Type:         models.TransactionTypeBet,
			Amount:       -100,
			BalanceAfter: int64(900 - i*100),
			Description:  fmt.Sprintf("test bet %d", i),
			CreatedAt:    time.Now(),
		}
		if err := redisService.RecordTransaction(ctx, tx); err != nil {
			t.Fatalf("Failed to record transaction: %v", err)
		}
	}

	transactions, err := redisService.GetUserTransactions(ctx, userID, 10)
	if err != nil {
		t.Fatalf("Failed to get transactions: %v", err)
	}
	if len(transactions) != 3 {
		t.Errorf("expected 3 transactions, got %d", len(transactions))
	}
}

func TestRedisUsers(t *testing.T) {
	redisService := setupTestRedis(t)
	ctx := context.Background()

	suffix := time.Now().UnixNano()
	user := &models.User{
		ID:           models.GenerateUserID(),
		Username:     fmt.Sprintf("player_%d", suffix),
		Email:        fmt.Sprintf("player_%d@example.com", suffix),
		PasswordHash: "not-a-real-hash",
		CreatedAt:    time.Now(),
	}

	if err := redisService.CreateUser(ctx, user); err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}

	duplicate := &models.User{
		ID:       models.GenerateUserID(),
		Username: user.Username,
		Email:    fmt.Sprintf("other_%d@example.com", suffix),
	}
	if err := redisService.CreateUser(ctx, duplicate); err == nil {
		t.Error("duplicate username should be rejected")
	}

	found, err := redisService.GetUserByName(ctx, user.Username)
	if err != nil {
		t.Fatalf("Failed to look up user: %v", err)
	}
	if found.ID != user.ID {
		t.Errorf("user ID mismatch: %d != %d", found.ID, user.ID)
	}
}

func TestRedisRateLimit(t *testing.T) {
	redisService := setupTestRedis(t)
	ctx := context.Background()
	userID := models.GenerateUserID()

	for i := 0; i < 5; i++ {
		allowed, err := redisService.CheckRateLimit(ctx, userID, "test", 5, time.Minute)
		if err != nil {
			t.Fatalf("Failed to check rate limit: %v", err)
		}
		if !allowed {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}

	allowed, err := redisService.CheckRateLimit(ctx, userID, "test", 5, time.Minute)
	if err != nil {
		t.Fatalf("Failed to check rate limit: %v", err)
	}
	if allowed {
		t.Error("sixth request should be blocked")
	}
}

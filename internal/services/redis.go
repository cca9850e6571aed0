package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"mines-miniapp-backend/internal/config"
	"mines-miniapp-backend/internal/models"
)

// RedisService backs every external collaborator of the game: the ledger
// (wallets), the session store (rounds), the transaction log, user accounts
// and rate limits. Balance mutations go through a Lua script so concurrent
// deltas for the same wallet serialize inside Redis.
type RedisService struct {
	client *redis.Client
}

func NewRedisService(cfg *config.Config) (*RedisService, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})

	if _, err := client.Ping(context.Background()).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %v", err)
	}

	return &RedisService{client: client}, nil
}

func (s *RedisService) Close() error {
	return s.client.Close()
}

// --- Ledger ---

// GetBalance reads the wallet, creating one with the starting balance on
// first touch.
func (s *RedisService) GetBalance(ctx context.Context, userID int64) (int64, error) {
	wallet, err := s.GetWallet(ctx, userID)
	if err != nil {
		return 0, err
	}
	return wallet.Balance, nil
}

func (s *RedisService) GetWallet(ctx context.Context, userID int64) (*models.Wallet, error) {
	key := fmt.Sprintf(KeyWallet, userID)

	data, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		wallet := models.NewWallet(userID)
		if err := s.SaveWallet(ctx, wallet); err != nil {
			return nil, fmt.Errorf("failed to create wallet: %v", err)
		}
		return wallet, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet: %v", err)
	}

	var wallet models.Wallet
	if err := json.Unmarshal([]byte(data), &wallet); err != nil {
		return nil, fmt.Errorf("failed to unmarshal wallet: %v", err)
	}
	return &wallet, nil
}

func (s *RedisService) SaveWallet(ctx context.Context, wallet *models.Wallet) error {
	key := fmt.Sprintf(KeyWallet, wallet.UserID)

	data, err := json.Marshal(wallet)
	if err != nil {
		return fmt.Errorf("failed to marshal wallet: %v", err)
	}
	return s.client.Set(ctx, key, data, 0).Err()
}

var applyDeltaScript = redis.NewScript(`
	local key = KEYS[1]
	local delta = tonumber(ARGV[1])

	local data = redis.call("GET", key)
	if not data then
		return redis.error_reply("wallet not found")
	end

	local wallet = cjson.decode(data)
	local balance = wallet.balance + delta
	if balance < 0 then
		return redis.error_reply("balance would go negative")
	end

	wallet.balance = balance
	if delta < 0 then
		wallet.total_wagered = wallet.total_wagered - delta
	else
		wallet.total_won = wallet.total_won + delta
	end

	redis.call("SET", key, cjson.encode(wallet))
	return balance
`)

// ApplyDelta adjusts the wallet balance by delta in a single atomic step and
// returns the new balance.
func (s *RedisService) ApplyDelta(ctx context.Context, userID int64, delta int64) (int64, error) {
	// Make sure the wallet exists before the script runs.
	if _, err := s.GetWallet(ctx, userID); err != nil {
		return 0, err
	}

	key := fmt.Sprintf(KeyWallet, userID)
	newBalance, err := applyDeltaScript.Run(ctx, s.client, []string{key}, delta).Int64()
	if err != nil {
		return 0, fmt.Errorf("failed to apply balance delta: %v", err)
	}
	return newBalance, nil
}

// --- RoundStore ---

func (s *RedisService) GetRound(ctx context.Context, userID int64) (*models.Round, error) {
	key := fmt.Sprintf(KeyRound, userID)

	data, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get round: %v", err)
	}

	var round models.Round
	if err := json.Unmarshal([]byte(data), &round); err != nil {
		return nil, fmt.Errorf("failed to unmarshal round: %v", err)
	}
	return &round, nil
}

func (s *RedisService) PutRound(ctx context.Context, userID int64, round *models.Round) error {
	key := fmt.Sprintf(KeyRound, userID)

	data, err := json.Marshal(round)
	if err != nil {
		return fmt.Errorf("failed to marshal round: %v", err)
	}
	return s.client.Set(ctx, key, data, TTLRound).Err()
}

// --- TransactionLog ---

func (s *RedisService) RecordTransaction(ctx context.Context, tx *models.Transaction) error {
	txKey := fmt.Sprintf(KeyTransaction, tx.ID)

	data, err := json.Marshal(tx)
	if err != nil {
		return fmt.Errorf("failed to marshal transaction: %v", err)
	}
	if err := s.client.Set(ctx, txKey, data, TTLTransaction).Err(); err != nil {
		return fmt.Errorf("failed to save transaction: %v", err)
	}

	userTxKey := fmt.Sprintf(KeyUserTransactions, tx.UserID)
	if err := s.client.ZAdd(ctx, userTxKey, redis.Z{
		Score:  float64(tx.CreatedAt.Unix()),
		Member: tx.ID,
	}).Err(); err != nil {
		return fmt.Errorf("failed to index transaction: %v", err)
	}

	s.client.ZRemRangeByRank(ctx, userTxKey, 0, int64(-MaxTransactionHistory-1))

	return nil
}

func (s *RedisService) GetUserTransactions(ctx context.Context, userID int64, limit int64) ([]*models.Transaction, error) {
	if limit <= 0 || limit > MaxTransactionHistory {
		limit = 50
	}

	userTxKey := fmt.Sprintf(KeyUserTransactions, userID)
	txIDs, err := s.client.ZRevRange(ctx, userTxKey, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction IDs: %v", err)
	}

	var transactions []*models.Transaction
	for _, txID := range txIDs {
		data, err := s.client.Get(ctx, fmt.Sprintf(KeyTransaction, txID)).Result()
		if err != nil {
			continue
		}

		var tx models.Transaction
		if err := json.Unmarshal([]byte(data), &tx); err != nil {
			continue
		}
		transactions = append(transactions, &tx)
	}

	return transactions, nil
}

// --- Users ---

func (s *RedisService) CreateUser(ctx context.Context, user *models.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to marshal user: %v", err)
	}

	// Claim the username and email indexes first so duplicate registration
	// loses the race instead of overwriting.
	ok, err := s.client.SetNX(ctx, fmt.Sprintf(KeyUserByName, user.Username), user.ID, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to index username: %v", err)
	}
	if !ok {
		return fmt.Errorf("username already exists")
	}

	ok, err = s.client.SetNX(ctx, fmt.Sprintf(KeyUserByEmail, user.Email), user.ID, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to index email: %v", err)
	}
	if !ok {
		s.client.Del(ctx, fmt.Sprintf(KeyUserByName, user.Username))
		return fmt.Errorf("email already exists")
	}

	return s.client.Set(ctx, fmt.Sprintf(KeyUserInfo, user.ID), data, 0).Err()
}

func (s *RedisService) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	data, err := s.client.Get(ctx, fmt.Sprintf(KeyUserInfo, userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %v", err)
	}

	var user models.User
	if err := json.Unmarshal([]byte(data), &user); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user: %v", err)
	}
	return &user, nil
}

func (s *RedisService) GetUserByName(ctx context.Context, username string) (*models.User, error) {
	id, err := s.client.Get(ctx, fmt.Sprintf(KeyUserByName, username)).Int64()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up username: %v", err)
	}
	return s.GetUser(ctx, id)
}

// --- Sessions ---

func (s *RedisService) StoreUserSession(ctx context.Context, session *models.UserSession) error {
	key := fmt.Sprintf(KeyUserSession, session.UserID, session.SessionID)

	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, data, TTLUserSession).Err()
}

func (s *RedisService) GetUserSession(ctx context.Context, userID int64, sessionID string) (*models.UserSession, error) {
	key := fmt.Sprintf(KeyUserSession, userID, sessionID)

	data, err := s.client.Get(ctx, key).Result()
	if err != nil {
		return nil, err
	}

	var session models.UserSession
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, err
	}

	session.LastAccessed = time.Now()
	if updated, err := json.Marshal(session); err == nil {
		s.client.Set(ctx, key, updated, TTLUserSession)
	}

	return &session, nil
}

func (s *RedisService) DeleteUserSession(ctx context.Context, userID int64, sessionID string) error {
	return s.client.Del(ctx, fmt.Sprintf(KeyUserSession, userID, sessionID)).Err()
}

// --- Rate limiting ---

// CheckRateLimit counts actions in a fixed window and reports whether this
// one is allowed.
func (s *RedisService) CheckRateLimit(ctx context.Context, userID int64, action string, limit int, window time.Duration) (bool, error) {
	key := fmt.Sprintf(KeyRateLimit, userID, action)

	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check rate limit: %v", err)
	}
	if count == 1 {
		s.client.Expire(ctx, key, window)
	}

	return count <= int64(limit), nil
}

package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"mines-miniapp-backend/internal/models"
	"mines-miniapp-backend/internal/services"
)

type GameHandler struct {
	gameService  *services.GameService
	redisService *services.RedisService
	hub          *WebSocketHub
}

func NewGameHandler(gameService *services.GameService, redisService *services.RedisService, hub *WebSocketHub) *GameHandler {
	return &GameHandler{
		gameService:  gameService,
		redisService: redisService,
		hub:          hub,
	}
}

// respondError translates a service error into the stable error payload.
// Rejections never mutated anything; collaborator failures may have, and
// inconsistency is reported as such rather than masked.
func respondError(c *gin.Context, err error) {
	kind := models.ErrorKind(err)

	status := http.StatusInternalServerError
	switch {
	case kind == "round_in_progress":
		status = http.StatusConflict
	case models.Rejected(err):
		status = http.StatusBadRequest
	case kind == "ledger_unavailable" || kind == "store_unavailable":
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, gin.H{"error": kind, "details": err.Error()})
}

func (h *GameHandler) StartRound(c *gin.Context) {
	userID := c.GetInt64("user_id")

	var req models.StartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	if !h.allow(c, userID, "start", services.DefaultRateLimitStart) {
		return
	}

	result, err := h.gameService.Start(c.Request.Context(), userID, req.MinesCount, req.BetAmount)
	if err != nil {
		respondError(c, err)
		return
	}

	round := result.Outcome.Round
	h.notifyRound(userID, round, result.Balance)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"result": gin.H{
			"round_id":    round.ID,
			"grid_size":   round.GridSize,
			"mines_count": round.MinesCount,
			"bet_amount":  round.BetAmount,
			"multiplier":  result.Outcome.Multiplier.InexactFloat64(),
			"status":      round.Status,
			"balance":     result.Balance,
		},
	})
}

func (h *GameHandler) RevealTile(c *gin.Context) {
	userID := c.GetInt64("user_id")

	var req models.RevealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	if !h.allow(c, userID, "reveal", services.DefaultRateLimitReveal) {
		return
	}

	result, err := h.gameService.Reveal(c.Request.Context(), userID, req.Position)
	if err != nil {
		respondError(c, err)
		return
	}

	outcome := result.Outcome
	round := outcome.Round

	response := gin.H{
		"round_id":           round.ID,
		"position":           req.Position,
		"is_mine":            outcome.Kind == models.OutcomeRevealedMine,
		"game_over":          outcome.Terminal(),
		"won":                outcome.Kind == models.OutcomeCleared,
		"multiplier":         outcome.Multiplier.InexactFloat64(),
		"revealed_positions": round.RevealedPositions,
		"status":             round.Status,
		"balance":            result.Balance,
	}

	switch outcome.Kind {
	case models.OutcomeRevealedSafe:
		response["potential_win"] = outcome.PotentialWin
	case models.OutcomeCleared:
		response["winnings"] = outcome.Winnings
		response["mine_positions"] = round.MinePositions
	case models.OutcomeRevealedMine:
		response["mine_positions"] = round.MinePositions
	}

	h.notifyRound(userID, round, result.Balance)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"result":  response,
	})
}

func (h *GameHandler) CashoutRound(c *gin.Context) {
	userID := c.GetInt64("user_id")

	if !h.allow(c, userID, "cashout", services.DefaultRateLimitCashout) {
		return
	}

	result, err := h.gameService.Cashout(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	outcome := result.Outcome
	round := outcome.Round

	h.notifyRound(userID, round, result.Balance)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"result": gin.H{
			"round_id":       round.ID,
			"won":            true,
			"multiplier":     outcome.Multiplier.InexactFloat64(),
			"winnings":       outcome.Winnings,
			"revealed_count": round.RevealedCount(),
			"mine_positions": round.MinePositions,
			"status":         round.Status,
			"balance":        result.Balance,
		},
	})
}

// GetRound returns the caller's current round. Mine positions stay hidden
// while the round is active.
func (h *GameHandler) GetRound(c *gin.Context) {
	userID := c.GetInt64("user_id")

	round, err := h.gameService.CurrentRound(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	if round == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no_round"})
		return
	}

	response := gin.H{
		"round_id":           round.ID,
		"grid_size":          round.GridSize,
		"mines_count":        round.MinesCount,
		"bet_amount":         round.BetAmount,
		"multiplier":         round.Multiplier.InexactFloat64(),
		"revealed_positions": round.RevealedPositions,
		"status":             round.Status,
	}
	if !round.IsActive() {
		response["mine_positions"] = round.MinePositions
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"round":   response,
	})
}

func (h *GameHandler) GetBalance(c *gin.Context) {
	userID := c.GetInt64("user_id")

	wallet, err := h.redisService.GetWallet(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to get wallet",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"balance": gin.H{
			"balance":       wallet.Balance,
			"total_wagered": wallet.TotalWagered,
			"total_won":     wallet.TotalWon,
		},
	})
}

func (h *GameHandler) GetTransactions(c *gin.Context) {
	userID := c.GetInt64("user_id")

	limitStr := c.DefaultQuery("limit", "50")
	limit, err := strconv.ParseInt(limitStr, 10, 64)
	if err != nil {
		limit = 50
	}

	transactions, err := h.redisService.GetUserTransactions(c.Request.Context(), userID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to get transactions",
			"details": err.Error(),
		})
		return
	}

	var response []gin.H
	for _, tx := range transactions {
		response = append(response, gin.H{
			"id":            tx.ID,
			"type":          tx.Type,
			"amount":        tx.Amount,
			"balance_after": tx.BalanceAfter,
			"round_id":      tx.RoundID,
			"description":   tx.Description,
			"created_at":    tx.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"transactions": response,
		"count":        len(response),
	})
}

func (h *GameHandler) allow(c *gin.Context, userID int64, action string, limit int) bool {
	allowed, err := h.redisService.CheckRateLimit(c.Request.Context(), userID, action, limit, time.Minute)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Rate limit check failed"})
		return false
	}
	if !allowed {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests. Please wait."})
		return false
	}
	return true
}

func (h *GameHandler) notifyRound(userID int64, round *models.Round, balance int64) {
	if h.hub == nil {
		return
	}
	h.hub.Notify(userID, &Message{
		Type: "round_update",
		Data: gin.H{
			"round_id":       round.ID,
			"status":         round.Status,
			"multiplier":     round.Multiplier.InexactFloat64(),
			"revealed_count": round.RevealedCount(),
			"balance":        balance,
		},
	})
}

package models

type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=32"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// StartRequest and RevealRequest carry no binding constraints on the game
// fields: the engine validates them so rejections come back with the right
// error kind instead of a generic binding failure.
type StartRequest struct {
	MinesCount int   `json:"mines_count"`
	BetAmount  int64 `json:"bet_amount"`
}

type RevealRequest struct {
	Position int `json:"position"`
}

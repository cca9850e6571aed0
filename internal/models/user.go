package models

import "time"

type User struct {
	ID       int64  `json:"id" redis:"id"`
	Username string `json:"username" redis:"username"`
	Email    string `json:"email" redis:"email"`

	// PasswordHash is a bcrypt hash, never serialized to clients.
	PasswordHash string `json:"-" redis:"password_hash"`

	CreatedAt time.Time `json:"created_at" redis:"created_at"`
}

type UserSession struct {
	SessionID    string    `json:"session_id"`
	UserID       int64     `json:"user_id"`
	Username     string    `json:"username"`
	CreatedAt    time.Time `json:"created_at"`
	LastAccessed time.Time `json:"last_accessed"`
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// GridSize is fixed for every round: a 5x5 board.
const GridSize = 25

const (
	MinMinesCount = 1
	MaxMinesCount = GridSize - 1
)

type RoundStatus string

const (
	RoundStatusActive     RoundStatus = "active"
	RoundStatusLost       RoundStatus = "lost"
	RoundStatusWonByClear RoundStatus = "won_by_clear"
	RoundStatusCashedOut  RoundStatus = "cashed_out"
)

// Round is one play instance from stake to resolution. At most one round
// exists per user; terminal rounds stay in the store until replaced by the
// next start.
type Round struct {
	ID     string `json:"id" redis:"id"`
	UserID int64  `json:"user_id" redis:"user_id"`

	GridSize      int   `json:"grid_size" redis:"grid_size"`
	MinesCount    int   `json:"mines_count" redis:"mines_count"`
	MinePositions []int `json:"mine_positions" redis:"mine_positions"`

	// RevealedPositions is chronological and disjoint from MinePositions.
	RevealedPositions []int `json:"revealed_positions" redis:"revealed_positions"`

	BetAmount  int64           `json:"bet_amount" redis:"bet_amount"`
	Multiplier decimal.Decimal `json:"multiplier" redis:"multiplier"`
	Status     RoundStatus     `json:"status" redis:"status"`

	CreatedAt time.Time `json:"created_at" redis:"created_at"`
	UpdatedAt time.Time `json:"updated_at" redis:"updated_at"`
}

func (r *Round) IsActive() bool {
	return r.Status == RoundStatusActive
}

func (r *Round) SafeTiles() int {
	return r.GridSize - r.MinesCount
}

func (r *Round) RevealedCount() int {
	return len(r.RevealedPositions)
}

func (r *Round) IsMine(position int) bool {
	for _, p := range r.MinePositions {
		if p == position {
			return true
		}
	}
	return false
}

func (r *Round) IsRevealed(position int) bool {
	for _, p := range r.RevealedPositions {
		if p == position {
			return true
		}
	}
	return false
}

// Clone returns an independent copy so the engine can hand back a new round
// value without aliasing the stored one.
func (r *Round) Clone() *Round {
	c := *r
	c.MinePositions = append([]int(nil), r.MinePositions...)
	c.RevealedPositions = append([]int(nil), r.RevealedPositions...)
	return &c
}

type OutcomeKind string

const (
	OutcomeStarted      OutcomeKind = "started"
	OutcomeRevealedSafe OutcomeKind = "revealed_safe"
	OutcomeRevealedMine OutcomeKind = "revealed_mine"
	OutcomeCleared      OutcomeKind = "cleared"
	OutcomeCashedOut    OutcomeKind = "cashed_out"
)

// Outcome describes the result of one engine operation. It is transient:
// the coordinator reads BalanceDelta exactly once and discards it.
type Outcome struct {
	Kind  OutcomeKind
	Round *Round

	// BalanceDelta is the amount to commit to the ledger atomically with
	// persisting the round. Zero means no balance mutation.
	BalanceDelta int64

	Multiplier decimal.Decimal

	// Winnings is set on terminal paying outcomes (cleared, cashed_out).
	// PotentialWin is informational on revealed_safe and never committed.
	Winnings     int64
	PotentialWin int64
}

func (o *Outcome) Terminal() bool {
	return o.Kind == OutcomeRevealedMine || o.Kind == OutcomeCleared || o.Kind == OutcomeCashedOut
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Outcome is the win/lose classification of a single play.
type Outcome string

const (
	OutcomeWin  Outcome = "win"
	OutcomeLose Outcome = "lose"
)

// GameResult is one completed play. Rows are append-only: they are written
// once by the play endpoint and never updated or deleted.
type GameResult struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	UserID    uint             `gorm:"not null;index:idx_game_results_user_created,priority:1" json:"user_id"`
	Number    int              `gorm:"not null" json:"number"`
	Result    Outcome          `gorm:"size:10;not null" json:"result"`
	Prize     *decimal.Decimal `gorm:"type:numeric(10,2)" json:"prize"`
	CreatedAt time.Time        `gorm:"index:idx_game_results_user_created,priority:2,sort:desc" json:"created_at"`
}

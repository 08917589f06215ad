package repository

import (
	"context"

	"github.com/numberplay/numberplay-backend/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PlayLedger is the append-only store of completed plays. Appends either
// commit fully and come back with an assigned ID, or fail with an error;
// there is no partial state. Listings are newest first, ties broken by ID
// descending.
type PlayLedger interface {
	Append(ctx context.Context, userID uint, number int, result models.Outcome, prize *decimal.Decimal) (*models.GameResult, error)
	ListRecent(ctx context.Context, userID uint, limit int) ([]models.GameResult, error)
	ListAll(ctx context.Context, userID uint) ([]models.GameResult, error)
}

type gormPlayLedger struct {
	db *gorm.DB
}

// NewPlayLedger returns the Postgres-backed ledger.
func NewPlayLedger(db *gorm.DB) PlayLedger {
	return &gormPlayLedger{db: db}
}

func (l *gormPlayLedger) Append(ctx context.Context, userID uint, number int, result models.Outcome, prize *decimal.Decimal) (*models.GameResult, error) {
	record := &models.GameResult{
		UserID: userID,
		Number: number,
		Result: result,
		Prize:  prize,
	}
	if err := l.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

func (l *gormPlayLedger) ListRecent(ctx context.Context, userID uint, limit int) ([]models.GameResult, error) {
	var records []models.GameResult
	err := l.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (l *gormPlayLedger) ListAll(ctx context.Context, userID uint) ([]models.GameResult, error) {
	var records []models.GameResult
	err := l.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

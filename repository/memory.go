package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/numberplay/numberplay-backend/models"
	"github.com/shopspring/decimal"
)

// MemoryPlayLedger is an in-memory PlayLedger. It backs tests that do not
// want a database and keeps the exact ordering contract of the Postgres
// implementation.
type MemoryPlayLedger struct {
	mu      sync.Mutex
	nextID  uint
	records map[uint][]models.GameResult
}

func NewMemoryPlayLedger() *MemoryPlayLedger {
	return &MemoryPlayLedger{
		nextID:  1,
		records: make(map[uint][]models.GameResult),
	}
}

func (l *MemoryPlayLedger) Append(ctx context.Context, userID uint, number int, result models.Outcome, prize *decimal.Decimal) (*models.GameResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	record := models.GameResult{
		ID:        l.nextID,
		UserID:    userID,
		Number:    number,
		Result:    result,
		Prize:     prize,
		CreatedAt: time.Now(),
	}
	l.nextID++
	l.records[userID] = append(l.records[userID], record)

	out := record
	return &out, nil
}

func (l *MemoryPlayLedger) ListRecent(ctx context.Context, userID uint, limit int) ([]models.GameResult, error) {
	records, err := l.ListAll(ctx, userID)
	if err != nil {
		return nil, err
	}
	if limit < len(records) {
		records = records[:limit]
	}
	return records, nil
}

func (l *MemoryPlayLedger) ListAll(ctx context.Context, userID uint) ([]models.GameResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	records := append([]models.GameResult(nil), l.records[userID]...)
	sort.Slice(records, func(i, j int) bool {
		if !records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].CreatedAt.After(records[j].CreatedAt)
		}
		return records[i].ID > records[j].ID
	})
	return records, nil
}

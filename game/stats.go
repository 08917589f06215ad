package game

import (
	"context"
	"time"

	"github.com/numberplay/numberplay-backend/models"
	"github.com/numberplay/numberplay-backend/repository"
	"github.com/shopspring/decimal"
)

// Statistics summarizes a user's full play history.
type Statistics struct {
	TotalGames   int             `json:"total_games"`
	Wins         int             `json:"wins"`
	Losses       int             `json:"losses"`
	WinRate      float64         `json:"win_rate"`
	TotalPrize   decimal.Decimal `json:"total_prize"`
	AveragePrize decimal.Decimal `json:"average_prize"`
	BestPrize    decimal.Decimal `json:"best_prize"`
	LastPlayed   *time.Time      `json:"last_played"`
}

// Summarize folds a user's ledger into Statistics. It is a pure read:
// nothing is cached or written back. A user with no plays gets the zeroed
// structure with LastPlayed absent.
func Summarize(ctx context.Context, ledger repository.PlayLedger, userID uint) (Statistics, error) {
	records, err := ledger.ListAll(ctx, userID)
	if err != nil {
		return Statistics{}, err
	}

	stats := Statistics{
		TotalGames: len(records),
	}
	if len(records) == 0 {
		return stats, nil
	}

	for _, record := range records {
		if record.Result != models.OutcomeWin {
			continue
		}
		stats.Wins++
		if record.Prize == nil {
			continue
		}
		stats.TotalPrize = stats.TotalPrize.Add(*record.Prize)
		if record.Prize.GreaterThan(stats.BestPrize) {
			stats.BestPrize = *record.Prize
		}
	}
	stats.Losses = stats.TotalGames - stats.Wins

	winRate := decimal.NewFromInt(int64(stats.Wins * 100)).
		Div(decimal.NewFromInt(int64(stats.TotalGames))).
		Round(2)
	stats.WinRate, _ = winRate.Float64()

	if stats.Wins > 0 {
		stats.AveragePrize = stats.TotalPrize.
			Div(decimal.NewFromInt(int64(stats.Wins))).
			Round(2)
	}

	// Records come back newest first.
	last := records[0].CreatedAt
	stats.LastPlayed = &last

	return stats, nil
}

package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/numberplay/numberplay-backend/game"
	"github.com/numberplay/numberplay-backend/middleware"
	"github.com/numberplay/numberplay-backend/models"
	"github.com/numberplay/numberplay-backend/repository"
	"github.com/numberplay/numberplay-backend/services"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// historyLimit caps the history endpoint to the last plays shown in the UI.
const historyLimit = 3

type GameController struct {
	ledger repository.PlayLedger
	hub    *services.Hub
	log    *zap.SugaredLogger
}

func NewGameController(ledger repository.PlayLedger, hub *services.Hub, log *zap.SugaredLogger) *GameController {
	return &GameController{ledger: ledger, hub: hub, log: log}
}

type playRequest struct {
	Number *int `json:"number" binding:"required,min=1,max=9999"`
}

type playResponse struct {
	Number int              `json:"number"`
	Result models.Outcome   `json:"result"`
	Prize  *decimal.Decimal `json:"prize"`
}

type historyItem struct {
	ID        uint             `json:"id"`
	Number    int              `json:"number"`
	Result    models.Outcome   `json:"result"`
	Prize     *decimal.Decimal `json:"prize"`
	CreatedAt time.Time        `json:"created_at"`
}

// Play scores a submitted number, persists the outcome, pushes it to the
// user's live connections, and answers synchronously. The push is best
// effort: once the record is committed, nothing reverts it.
func (gc *GameController) Play(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication credentials were not provided"})
		return
	}

	var req playRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"number": numberErrorMessage(err)})
		return
	}

	result, prize := game.Score(*req.Number)

	record, err := gc.ledger.Append(c.Request.Context(), userID, *req.Number, result, prize)
	if err != nil {
		gc.log.Errorw("failed to persist play", "user_id", userID, "number", *req.Number, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	resp := playResponse{
		Number: record.Number,
		Result: record.Result,
		Prize:  record.Prize,
	}

	gc.hub.Publish(userID, services.Envelope{Type: "game_result", Data: resp})

	c.JSON(http.StatusOK, resp)
}

// History returns the user's most recent plays, newest first.
func (gc *GameController) History(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication credentials were not provided"})
		return
	}

	records, err := gc.ledger.ListRecent(c.Request.Context(), userID, historyLimit)
	if err != nil {
		gc.log.Errorw("failed to load history", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	items := make([]historyItem, 0, len(records))
	for _, record := range records {
		items = append(items, historyItem{
			ID:        record.ID,
			Number:    record.Number,
			Result:    record.Result,
			Prize:     record.Prize,
			CreatedAt: record.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, items)
}

// Statistics returns the aggregate view over the user's full history.
func (gc *GameController) Statistics(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication credentials were not provided"})
		return
	}

	stats, err := game.Summarize(c.Request.Context(), gc.ledger, userID)
	if err != nil {
		gc.log.Errorw("failed to compute statistics", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, stats)
}

func numberErrorMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			switch fe.Tag() {
			case "required":
				return "Number is required."
			case "min":
				return "Number must be at least 1."
			case "max":
				return "Number cannot exceed 9999."
			}
		}
	}
	return "Please enter a valid number."
}

package controllers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/numberplay/numberplay-backend/auth"
	"github.com/numberplay/numberplay-backend/controllers"
	"github.com/numberplay/numberplay-backend/middleware"
	"github.com/numberplay/numberplay-backend/models"
	"github.com/numberplay/numberplay-backend/repository"
	"github.com/numberplay/numberplay-backend/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
	decimal.MarshalJSONWithoutQuotes = true
}

const testUserID = uint(7)

type failingLedger struct{}

func (failingLedger) Append(context.Context, uint, int, models.Outcome, *decimal.Decimal) (*models.GameResult, error) {
	return nil, errors.New("connection refused")
}

func (failingLedger) ListRecent(context.Context, uint, int) ([]models.GameResult, error) {
	return nil, errors.New("connection refused")
}

func (failingLedger) ListAll(context.Context, uint) ([]models.GameResult, error) {
	return nil, errors.New("connection refused")
}

func setupGameRouter(ledger repository.PlayLedger, hub *services.Hub) *gin.Engine {
	gc := controllers.NewGameController(ledger, hub, zap.NewNop().Sugar())

	r := gin.New()
	r.Use(func(c *gin.Context) { middleware.SetUserID(c, testUserID) })
	r.POST("/api/game/play", gc.Play)
	r.GET("/api/game/history", gc.History)
	r.GET("/api/game/statistics", gc.Statistics)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := serve(r, req)

	var parsed map[string]any
	if w.Body.Len() > 0 && json.Valid(w.Body.Bytes()) {
		if err := json.Unmarshal(w.Body.Bytes(), &parsed); err != nil {
			parsed = nil
		}
	}
	return w, parsed
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func newAuthedRequest(t *testing.T, method, path, token string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestPlayWin(t *testing.T) {
	ledger := repository.NewMemoryPlayLedger()
	r := setupGameRouter(ledger, services.NewHub(zap.NewNop().Sugar()))

	w, resp := doJSON(t, r, http.MethodPost, "/api/game/play", `{"number": 842}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(842), resp["number"])
	assert.Equal(t, "win", resp["result"])
	assert.Equal(t, 421.00, resp["prize"])

	records, err := ledger.ListAll(context.Background(), testUserID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, models.OutcomeWin, records[0].Result)
	require.NotNil(t, records[0].Prize)
	assert.Equal(t, "421.00", records[0].Prize.StringFixed(2))
}

func TestPlayLose(t *testing.T) {
	ledger := repository.NewMemoryPlayLedger()
	r := setupGameRouter(ledger, services.NewHub(zap.NewNop().Sugar()))

	w, resp := doJSON(t, r, http.MethodPost, "/api/game/play", `{"number": 841}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "lose", resp["result"])
	assert.Nil(t, resp["prize"])

	records, err := ledger.ListAll(context.Background(), testUserID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Nil(t, records[0].Prize)
}

func TestPlayValidation(t *testing.T) {
	testCases := []struct {
		name    string
		body    string
		message string
	}{
		{name: "too large", body: `{"number": 10000}`, message: "Number cannot exceed 9999."},
		{name: "too small", body: `{"number": 0}`, message: "Number must be at least 1."},
		{name: "missing", body: `{}`, message: "Number is required."},
		{name: "wrong type", body: `{"number": "abc"}`, message: "Please enter a valid number."},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ledger := repository.NewMemoryPlayLedger()
			r := setupGameRouter(ledger, services.NewHub(zap.NewNop().Sugar()))

			w, resp := doJSON(t, r, http.MethodPost, "/api/game/play", tc.body)

			require.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tc.message, resp["number"])

			// Rejected plays leave no trace.
			records, err := ledger.ListAll(context.Background(), testUserID)
			require.NoError(t, err)
			assert.Empty(t, records)
		})
	}
}

func TestPlayStorageFailure(t *testing.T) {
	r := setupGameRouter(failingLedger{}, services.NewHub(zap.NewNop().Sugar()))

	w, resp := doJSON(t, r, http.MethodPost, "/api/game/play", `{"number": 842}`)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Internal server error", resp["error"])
	// Internals stay internal.
	assert.NotContains(t, w.Body.String(), "connection refused")
}

func TestHistoryReturnsNewestThree(t *testing.T) {
	ledger := repository.NewMemoryPlayLedger()
	r := setupGameRouter(ledger, services.NewHub(zap.NewNop().Sugar()))

	for _, n := range []int{11, 22, 33, 44, 55} {
		_, resp := doJSON(t, r, http.MethodPost, "/api/game/play", `{"number": `+strconv.Itoa(n)+`}`)
		require.NotNil(t, resp)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/game/history", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var items []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &items))
	require.Len(t, items, 3)
	assert.Equal(t, float64(55), items[0]["number"])
	assert.Equal(t, float64(44), items[1]["number"])
	assert.Equal(t, float64(33), items[2]["number"])
}

func TestStatisticsEndpoint(t *testing.T) {
	ledger := repository.NewMemoryPlayLedger()
	r := setupGameRouter(ledger, services.NewHub(zap.NewNop().Sugar()))

	for _, n := range []int{842, 841, 1000} {
		doJSON(t, r, http.MethodPost, "/api/game/play", `{"number": `+strconv.Itoa(n)+`}`)
	}

	w, resp := doJSON(t, r, http.MethodGet, "/api/game/statistics", "")
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, float64(3), resp["total_games"])
	assert.Equal(t, float64(2), resp["wins"])
	assert.Equal(t, float64(1), resp["losses"])
	assert.Equal(t, 66.67, resp["win_rate"])
	assert.Equal(t, 1121.00, resp["total_prize"])
	assert.Equal(t, 560.50, resp["average_prize"])
	assert.Equal(t, 700.00, resp["best_prize"])
	assert.NotNil(t, resp["last_played"])
}

func TestStatisticsEmptyHistory(t *testing.T) {
	r := setupGameRouter(repository.NewMemoryPlayLedger(), services.NewHub(zap.NewNop().Sugar()))

	w, resp := doJSON(t, r, http.MethodGet, "/api/game/statistics", "")
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, float64(0), resp["total_games"])
	assert.Equal(t, float64(0), resp["win_rate"])
	assert.Nil(t, resp["last_played"])
}

// TestPlayPushesToLiveFeed runs the whole path: an authenticated feed
// connection sees the result of a play submitted over HTTP.
func TestPlayPushesToLiveFeed(t *testing.T) {
	log := zap.NewNop().Sugar()
	hub := services.NewHub(log)
	tokens := auth.NewTokenManager("test-secret", 0, 0)
	ledger := repository.NewMemoryPlayLedger()
	gc := controllers.NewGameController(ledger, hub, log)

	r := gin.New()
	r.GET("/ws", services.HandleWebSocket(hub, tokens, log))
	r.POST("/api/game/play", func(c *gin.Context) { middleware.SetUserID(c, testUserID) }, gc.Play)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	access, _, err := tokens.IssuePair(testUserID)
	require.NoError(t, err)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + access
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	// connection_established arrives first.
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, hello, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(hello), "connection_established")

	resp, err := http.Post(srv.URL+"/api/game/play", "application/json", strings.NewReader(`{"number": 842}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, pushed, err := conn.ReadMessage()
	require.NoError(t, err)

	var envelope struct {
		Type string `json:"type"`
		Data struct {
			Number int              `json:"number"`
			Result models.Outcome   `json:"result"`
			Prize  *decimal.Decimal `json:"prize"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(pushed, &envelope))
	assert.Equal(t, "game_result", envelope.Type)
	assert.Equal(t, 842, envelope.Data.Number)
	assert.Equal(t, models.OutcomeWin, envelope.Data.Result)
	require.NotNil(t, envelope.Data.Prize)
	assert.Equal(t, "421.00", envelope.Data.Prize.StringFixed(2))
}


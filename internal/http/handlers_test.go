package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/uvtradelab/forex-dashboard/internal/metrics"
	"github.com/uvtradelab/forex-dashboard/internal/models"
)

// MockTradeStore implements TradeStore for handler tests.
type MockTradeStore struct {
	mock.Mock
}

func (m *MockTradeStore) InsertTrades(ctx context.Context, list []models.Trade) (int, int, error) {
	args := m.Called(ctx, list)
	return args.Int(0), args.Int(1), args.Error(2)
}

func (m *MockTradeStore) ListTrades(ctx context.Context, limit int, symbol string) ([]models.Trade, error) {
	args := m.Called(ctx, limit, symbol)
	return args.Get(0).([]models.Trade), args.Error(1)
}

func (m *MockTradeStore) Stats(ctx context.Context) (models.Stats, error) {
	args := m.Called(ctx)
	return args.Get(0).(models.Stats), args.Error(1)
}

func (m *MockTradeStore) EquityCurve(ctx context.Context, limit int) ([]models.EquityPoint, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]models.EquityPoint), args.Error(1)
}

func (m *MockTradeStore) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTradeStore) Sample(ctx context.Context) (*models.Trade, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Trade), args.Error(1)
}

func (m *MockTradeStore) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func newTestServer(store TradeStore) *Server {
	gin.SetMode(gin.TestMode)
	return NewServer(store, nil, zap.NewNop(), "*")
}

func doRequest(s *Server, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.R.ServeHTTP(w, req)
	return w
}

func sampleTrades() []models.Trade {
	ts := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	return []models.Trade{
		{TradeID: "EURUSD_2024-03-01_11-00-00", Symbol: "EURUSD", TradeType: "sell", Profit: -4.2, Timestamp: ts.Add(time.Hour)},
		{TradeID: "EURUSD_2024-03-01_10-00-00", Symbol: "EURUSD", TradeType: "buy", Profit: 12.5, Timestamp: ts},
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(&MockTradeStore{})

	w := doRequest(s, http.MethodGet, "/health", "")

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.NotEmpty(t, body["timestamp"])
}

func TestGetStats(t *testing.T) {
	store := &MockTradeStore{}
	store.On("Stats", mock.Anything).Return(models.Stats{
		TotalTrades: 2, TotalProfit: 8.3, WinningTrades: 1, LosingTrades: 1,
		WinRate: 50, AvgProfit: 4.15, LastTradeTime: "2024-03-01 11:00:00",
	}, nil)
	s := newTestServer(store)

	w := doRequest(s, http.MethodGet, "/api/stats", "")

	require.Equal(t, http.StatusOK, w.Code)
	var stats models.Stats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 2, stats.TotalTrades)
	assert.Equal(t, 50.0, stats.WinRate)
	store.AssertExpectations(t)
}

func TestGetStatsStorageError(t *testing.T) {
	store := &MockTradeStore{}
	store.On("Stats", mock.Anything).Return(models.Stats{}, errors.New("boom"))
	s := newTestServer(store)

	w := doRequest(s, http.MethodGet, "/api/stats", "")

	require.Equal(t, http.StatusInternalServerError, w.Code)
	var e apiError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &e))
	assert.Equal(t, "internal_server_error", e.Code)
}

func TestGetTradesDefaultLimit(t *testing.T) {
	store := &MockTradeStore{}
	store.On("ListTrades", mock.Anything, 50, "").Return(sampleTrades(), nil)
	s := newTestServer(store)

	w := doRequest(s, http.MethodGet, "/api/trades", "")

	require.Equal(t, http.StatusOK, w.Code)
	var rows []models.Trade
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rows))
	assert.Len(t, rows, 2)
	store.AssertExpectations(t)
}

func TestGetTradesLimitAndSymbol(t *testing.T) {
	store := &MockTradeStore{}
	store.On("ListTrades", mock.Anything, 5, "EURUSD").Return(sampleTrades(), nil)
	s := newTestServer(store)

	w := doRequest(s, http.MethodGet, "/api/trades?limit=5&symbol=EURUSD", "")

	require.Equal(t, http.StatusOK, w.Code)
	store.AssertExpectations(t)
}

func TestGetTradesInvalidLimitFallsBack(t *testing.T) {
	store := &MockTradeStore{}
	store.On("ListTrades", mock.Anything, 50, "").Return([]models.Trade{}, nil)
	s := newTestServer(store)

	for _, q := range []string{"limit=abc", "limit=0", "limit=5000", "limit=-3"} {
		w := doRequest(s, http.MethodGet, "/api/trades?"+q, "")
		require.Equal(t, http.StatusOK, w.Code, "query %q", q)
	}
	store.AssertExpectations(t)
}

func TestGetTradesEmptyIsArray(t *testing.T) {
	store := &MockTradeStore{}
	store.On("ListTrades", mock.Anything, 50, "").Return([]models.Trade(nil), nil)
	s := newTestServer(store)

	w := doRequest(s, http.MethodGet, "/api/trades", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", strings.TrimSpace(w.Body.String()))
}

func TestGetEquityCurve(t *testing.T) {
	store := &MockTradeStore{}
	ts := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	store.On("EquityCurve", mock.Anything, 100).Return([]models.EquityPoint{
		{Date: ts, Equity: 12.5},
		{Date: ts.Add(time.Hour), Equity: 8.3},
	}, nil)
	s := newTestServer(store)

	w := doRequest(s, http.MethodGet, "/api/equity-curve", "")

	require.Equal(t, http.StatusOK, w.Code)
	var points []models.EquityPoint
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &points))
	require.Len(t, points, 2)
	assert.Equal(t, 8.3, points[1].Equity)
	store.AssertExpectations(t)
}

func TestUploadSingleTrade(t *testing.T) {
	store := &MockTradeStore{}
	store.On("InsertTrades", mock.Anything, mock.MatchedBy(func(list []models.Trade) bool {
		return len(list) == 1 && list[0].Symbol == "EURUSD" && list[0].TradeType == "buy"
	})).Return(1, 0, nil)
	s := newTestServer(store)

	w := doRequest(s, http.MethodPost, "/api/upload-trades",
		`{"symbol":"EURUSD","trade_type":"buy","profit":12.5,"timestamp":"2024-03-01 10:00:00"}`)

	require.Equal(t, http.StatusOK, w.Code)
	var resp uploadResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 1, resp.UploadedCount)
	store.AssertExpectations(t)
}

func TestUploadTradeBatchSkipsInvalid(t *testing.T) {
	store := &MockTradeStore{}
	store.On("InsertTrades", mock.Anything, mock.MatchedBy(func(list []models.Trade) bool {
		return len(list) == 2
	})).Return(2, 0, nil)
	s := newTestServer(store)

	// The middle record has no symbol and must be dropped, not abort the batch.
	w := doRequest(s, http.MethodPost, "/api/upload-trades", `[
		{"symbol":"EURUSD","trade_type":"buy","profit":12.5,"timestamp":"2024-03-01 10:00:00"},
		{"trade_type":"buy","profit":1.0,"timestamp":"2024-03-01 10:05:00"},
		{"symbol":"USDJPY","trade_type":"sell","profit":-3.2,"timestamp":"2024-03-01 11:00:00"}
	]`)

	require.Equal(t, http.StatusOK, w.Code)
	var resp uploadResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.UploadedCount)
	store.AssertExpectations(t)
}

func TestUploadCountsFailedRowsSeparately(t *testing.T) {
	store := &MockTradeStore{}
	// Three valid records: one written, one failed at the database, one duplicate.
	store.On("InsertTrades", mock.Anything, mock.MatchedBy(func(list []models.Trade) bool {
		return len(list) == 3
	})).Return(1, 1, nil)
	s := newTestServer(store)

	dupBefore := testutil.ToFloat64(metrics.TradesSkipped.WithLabelValues("duplicate"))
	errBefore := testutil.ToFloat64(metrics.TradesSkipped.WithLabelValues("error"))

	w := doRequest(s, http.MethodPost, "/api/upload-trades", `[
		{"symbol":"EURUSD","trade_type":"buy","profit":12.5,"timestamp":"2024-03-01 10:00:00"},
		{"symbol":"GBPUSD","trade_type":"sell","profit":-1.1,"timestamp":"2024-03-01 10:30:00"},
		{"symbol":"USDJPY","trade_type":"sell","profit":-3.2,"timestamp":"2024-03-01 11:00:00"}
	]`)

	require.Equal(t, http.StatusOK, w.Code)
	var resp uploadResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.UploadedCount)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.TradesSkipped.WithLabelValues("duplicate"))-dupBefore)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.TradesSkipped.WithLabelValues("error"))-errBefore)
	store.AssertExpectations(t)
}

func TestUploadMalformedBody(t *testing.T) {
	store := &MockTradeStore{}
	s := newTestServer(store)

	w := doRequest(s, http.MethodPost, "/api/upload-trades", `{"symbol":`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	store.AssertNotCalled(t, "InsertTrades", mock.Anything, mock.Anything)
}

func TestUploadStorageError(t *testing.T) {
	store := &MockTradeStore{}
	store.On("InsertTrades", mock.Anything, mock.Anything).Return(0, 0, errors.New("db down"))
	s := newTestServer(store)

	w := doRequest(s, http.MethodPost, "/api/upload-trades",
		`{"symbol":"EURUSD","trade_type":"buy","profit":12.5,"timestamp":"2024-03-01 10:00:00"}`)

	require.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestTestConnection(t *testing.T) {
	store := &MockTradeStore{}
	sample := sampleTrades()[0]
	store.On("Ping", mock.Anything).Return(nil)
	store.On("Count", mock.Anything).Return(int64(2), nil)
	store.On("Sample", mock.Anything).Return(&sample, nil)
	s := newTestServer(store)

	w := doRequest(s, http.MethodGet, "/api/test", "")

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, true, body["database_connected"])
	assert.Equal(t, float64(2), body["trade_count"])
	assert.NotNil(t, body["sample_trade"])
	store.AssertExpectations(t)
}

func TestTestConnectionPingFails(t *testing.T) {
	store := &MockTradeStore{}
	store.On("Ping", mock.Anything).Return(errors.New("no route"))
	s := newTestServer(store)

	w := doRequest(s, http.MethodGet, "/api/test", "")

	require.Equal(t, http.StatusInternalServerError, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, false, body["database_connected"])
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(&MockTradeStore{})

	req := httptest.NewRequest(http.MethodOptions, "/api/trades", nil)
	req.Header.Set("Origin", "https://dashboard.example.com")
	w := httptest.NewRecorder()
	s.R.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestIDPropagated(t *testing.T) {
	store := &MockTradeStore{}
	s := newTestServer(store)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-123")
	w := httptest.NewRecorder()
	s.R.ServeHTTP(w, req)

	assert.Equal(t, "req-123", w.Header().Get("X-Request-ID"))
}

func TestRequestIDGenerated(t *testing.T) {
	s := newTestServer(&MockTradeStore{})

	w := doRequest(s, http.MethodGet, "/health", "")

	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

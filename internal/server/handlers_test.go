package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"svtk/internal/config"
	"svtk/internal/domain"
	"svtk/internal/tracker"
)

func newTestServer(t *testing.T) (*Server, *tracker.Tracker) {
	t.Helper()
	cfg := &config.Config{
		FilePath: filepath.Join(t.TempDir(), "portfolio.svtk"),
		Password: "pw",
		Port:     0,
		DevMode:  true,
	}
	tr := tracker.New(zerolog.Nop())
	var mu sync.Mutex
	return New(cfg, tr, &mu, zerolog.Nop()), tr
}

func doRequest(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func addTestEvent(t *testing.T, s *Server, eventType, symbol string, amount float64, date string) string {
	t.Helper()
	rec := doRequest(t, s, http.MethodPost, "/api/events", eventRequest{
		EventType: eventType,
		Symbol:    symbol,
		Name:      symbol,
		AssetType: "Crypto",
		Amount:    amount,
		Date:      date,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp map[string]string
	decodeBody(t, rec, &resp)
	return resp["id"]
}

func TestHealthEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}

func TestAddAndListEvents(t *testing.T) {
	s, _ := newTestServer(t)
	addTestEvent(t, s, "Buy", "BTC", 1, "2024-03-01")
	addTestEvent(t, s, "Buy", "ETH", 10, "2024-03-05")

	rec := doRequest(t, s, http.MethodGet, "/api/events", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var events []domain.Event
	decodeBody(t, rec, &events)
	require.Len(t, events, 2)
	// Newest first.
	assert.Equal(t, "ETH", events[0].Asset.Symbol)
}

func TestListEventsEmptyIsArray(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/events", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestListEventsQueryDispatch(t *testing.T) {
	s, _ := newTestServer(t)
	addTestEvent(t, s, "Buy", "BTC", 2, "2024-03-01")
	addTestEvent(t, s, "Sell", "BTC", 1, "2024-03-10")
	addTestEvent(t, s, "Buy", "ETH", 10, "2024-03-05")

	var events []domain.Event

	rec := doRequest(t, s, http.MethodGet, "/api/events?asset=btc", nil)
	decodeBody(t, rec, &events)
	assert.Len(t, events, 2)

	rec = doRequest(t, s, http.MethodGet, "/api/events?type=Sell", nil)
	decodeBody(t, rec, &events)
	assert.Len(t, events, 1)

	rec = doRequest(t, s, http.MethodGet, "/api/events?from=2024-03-02&to=2024-03-06", nil)
	decodeBody(t, rec, &events)
	require.Len(t, events, 1)
	assert.Equal(t, "ETH", events[0].Asset.Symbol)

	rec = doRequest(t, s, http.MethodGet, "/api/events?sort=amount_desc", nil)
	decodeBody(t, rec, &events)
	assert.Equal(t, 10.0, events[0].Amount)

	rec = doRequest(t, s, http.MethodGet, "/api/events?q=eth", nil)
	decodeBody(t, rec, &events)
	assert.Len(t, events, 1)
}

func TestAddEventValidationErrors(t *testing.T) {
	s, _ := newTestServer(t)

	// Unknown event type.
	rec := doRequest(t, s, http.MethodPost, "/api/events", eventRequest{
		EventType: "Stake", Symbol: "BTC", AssetType: "Crypto", Amount: 1, Date: "2024-03-01",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Uncovered sell.
	rec = doRequest(t, s, http.MethodPost, "/api/events", eventRequest{
		EventType: "Sell", Symbol: "BTC", AssetType: "Crypto", Amount: 1, Date: "2024-03-01",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Malformed body.
	req := httptest.NewRequest(http.MethodPost, "/api/events", strings.NewReader("{broken"))
	rec2 := httptest.NewRecorder()
	s.router.ServeHTTP(rec2, req)
	assert.Equal(t, http.StatusBadRequest, rec2.Code)
}

func TestGetUpdateRemoveEvent(t *testing.T) {
	s, _ := newTestServer(t)
	id := addTestEvent(t, s, "Buy", "BTC", 1, "2024-03-01")

	rec := doRequest(t, s, http.MethodGet, "/api/events/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var event domain.Event
	decodeBody(t, rec, &event)
	assert.Equal(t, "BTC", event.Asset.Symbol)

	rec = doRequest(t, s, http.MethodPut, "/api/events/"+id, eventRequest{
		EventType: "Buy", Symbol: "BTC", Name: "Bitcoin", AssetType: "Crypto", Amount: 2, Date: "2024-03-02",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, s, http.MethodDelete, "/api/events/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, s, http.MethodGet, "/api/events/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, s, http.MethodGet, "/api/events/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEventNotes(t *testing.T) {
	s, tr := newTestServer(t)
	id := addTestEvent(t, s, "Buy", "BTC", 1, "2024-03-01")

	rec := doRequest(t, s, http.MethodPut, "/api/events/"+id+"/notes", map[string]string{"notes": "cold wallet"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "cold wallet", tr.Events()[0].Notes)
}

func TestBulkAddAllOrNothing(t *testing.T) {
	s, tr := newTestServer(t)

	batch := []eventRequest{
		{EventType: "Buy", Symbol: "BTC", AssetType: "Crypto", Amount: 1, Date: "2024-03-01"},
		{EventType: "Sell", Symbol: "BTC", AssetType: "Crypto", Amount: 5, Date: "2024-03-02"},
	}
	rec := doRequest(t, s, http.MethodPost, "/api/events/bulk", batch)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, tr.EventCount())

	batch[1].Amount = 1
	rec = doRequest(t, s, http.MethodPost, "/api/events/bulk", batch)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 2, tr.EventCount())
}

func TestTrashFlow(t *testing.T) {
	s, tr := newTestServer(t)
	id := addTestEvent(t, s, "Buy", "BTC", 1, "2024-03-01")

	rec := doRequest(t, s, http.MethodDelete, "/api/events/"+id+"?trash=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, tr.EventCount())

	rec = doRequest(t, s, http.MethodGet, "/api/trash", nil)
	var trash []domain.Event
	decodeBody(t, rec, &trash)
	require.Len(t, trash, 1)

	rec = doRequest(t, s, http.MethodPost, "/api/trash/undo", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, tr.EventCount())

	// Undo with empty trash reports restored=false.
	rec = doRequest(t, s, http.MethodPost, "/api/trash/undo", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "false")
}

func TestHoldingsAndValue(t *testing.T) {
	s, tr := newTestServer(t)
	addTestEvent(t, s, "Buy", "BTC", 2, "2024-03-01")
	tr.SetCachedPrice("BTC", "USD", date(t, "2024-03-05"), 50000)

	rec := doRequest(t, s, http.MethodGet, "/api/holdings?date=2024-03-05", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var holdings []domain.Holding
	decodeBody(t, rec, &holdings)
	require.Len(t, holdings, 1)
	assert.Equal(t, 2.0, holdings[0].Amount)

	rec = doRequest(t, s, http.MethodGet, "/api/value?date=2024-03-05", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var value struct {
		Value    float64 `json:"value"`
		Currency string  `json:"currency"`
	}
	decodeBody(t, rec, &value)
	assert.Equal(t, 100000.0, value.Value)
	assert.Equal(t, "USD", value.Currency)
}

func TestSummaryEndpoint(t *testing.T) {
	s, tr := newTestServer(t)
	addTestEvent(t, s, "Buy", "BTC", 1, "2024-03-01")
	tr.SetCachedPrice("BTC", "USD", date(t, "2024-03-01"), 50000)

	rec := doRequest(t, s, http.MethodGet, "/api/summary?date=2024-03-01", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var summary domain.PortfolioSummary
	decodeBody(t, rec, &summary)
	assert.Equal(t, 50000.0, summary.TotalValue)
}

func TestChartEndpointValidation(t *testing.T) {
	s, _ := newTestServer(t)
	addTestEvent(t, s, "Buy", "BTC", 1, "2024-03-01")

	rec := doRequest(t, s, http.MethodGet, "/api/charts/portfolio?from=2024-03-10&to=2024-03-01", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, s, http.MethodGet, "/api/charts/portfolio?from=bad&to=2024-03-01", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPortfolioChartEndpoint(t *testing.T) {
	s, tr := newTestServer(t)
	addTestEvent(t, s, "Buy", "BTC", 1, "2024-03-01")
	for _, d := range []string{"2024-03-01", "2024-03-02", "2024-03-03"} {
		tr.SetCachedPrice("BTC", "USD", date(t, d), 50000)
	}

	rec := doRequest(t, s, http.MethodGet, "/api/charts/portfolio?from=2024-03-01&to=2024-03-03", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var points []domain.ChartDataPoint
	decodeBody(t, rec, &points)
	require.Len(t, points, 3)
	assert.Equal(t, 50000.0, points[0].PortfolioValue)
}

func TestExportEndpoints(t *testing.T) {
	s, _ := newTestServer(t)
	addTestEvent(t, s, "Buy", "BTC", 1, "2024-03-01")

	rec := doRequest(t, s, http.MethodGet, "/api/events/export", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "BTC")

	rec = doRequest(t, s, http.MethodGet, "/api/events/export?format=csv", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "id,event_type,symbol"))
}

func TestImportEndpoint(t *testing.T) {
	s, tr := newTestServer(t)

	events := json.RawMessage(`[{"id":"7a9db6a7-0a6f-4d5b-9f35-6ae0e1b5f9c1","event_type":"Buy","asset":{"symbol":"BTC","name":"Bitcoin","asset_type":"Crypto"},"amount":1,"date":"2024-03-01"}]`)
	rec := doRequest(t, s, http.MethodPost, "/api/events/import", map[string]json.RawMessage{"events": events})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "1")
	assert.Equal(t, 1, tr.EventCount())
}

func TestSettingsEndpoints(t *testing.T) {
	s, tr := newTestServer(t)

	rec := doRequest(t, s, http.MethodPut, "/api/settings/currency", map[string]string{"currency": "eur"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "EUR", tr.Settings().DefaultCurrency)

	rec = doRequest(t, s, http.MethodPut, "/api/settings/currency", map[string]string{"currency": "nope"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, s, http.MethodPut, "/api/settings/api-keys/metals_dev", map[string]string{"key": "secret"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, s, http.MethodGet, "/api/settings", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var settings struct {
		DefaultCurrency string          `json:"default_currency"`
		APIKeysSet      map[string]bool `json:"api_keys_set"`
		UnsavedChanges  bool            `json:"unsaved_changes"`
	}
	decodeBody(t, rec, &settings)
	assert.Equal(t, "EUR", settings.DefaultCurrency)
	assert.True(t, settings.APIKeysSet["metals_dev"])
	assert.True(t, settings.UnsavedChanges)
	// The key value itself never leaves the server.
	assert.NotContains(t, rec.Body.String(), "secret")

	rec = doRequest(t, s, http.MethodDelete, "/api/settings/api-keys/metals_dev", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "true")
}

func TestSaveAndChangePassword(t *testing.T) {
	s, tr := newTestServer(t)
	addTestEvent(t, s, "Buy", "BTC", 1, "2024-03-01")

	rec := doRequest(t, s, http.MethodPost, "/api/save", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, tr.HasUnsavedChanges())

	rec = doRequest(t, s, http.MethodPost, "/api/password", map[string]string{
		"current_password": "wrong", "new_password": "next",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(t, s, http.MethodPost, "/api/password", map[string]string{
		"current_password": "pw", "new_password": "next",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "next", s.cfg.Password)

	loaded, err := tracker.LoadFromFile(s.cfg.FilePath, "next", zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.EventCount())
}

func TestCacheEndpoints(t *testing.T) {
	s, tr := newTestServer(t)
	tr.SetCachedPrice("BTC", "USD", date(t, "2024-03-01"), 100)
	tr.SetCachedPrice("BTC", "USD", date(t, "2024-03-02"), 110)

	rec := doRequest(t, s, http.MethodGet, "/api/prices/cache", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var stats struct {
		TotalEntries int `json:"total_entries"`
		AssetCount   int `json:"asset_count"`
	}
	decodeBody(t, rec, &stats)
	assert.Equal(t, 2, stats.TotalEntries)
	assert.Equal(t, 1, stats.AssetCount)

	rec = doRequest(t, s, http.MethodDelete, "/api/prices/cache?before=2024-03-02", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "1")

	rec = doRequest(t, s, http.MethodDelete, "/api/prices/cache", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, tr.CacheTotalEntries())
}

func TestAssetPriceEndpoint(t *testing.T) {
	s, tr := newTestServer(t)
	addTestEvent(t, s, "Buy", "BTC", 1, "2024-03-01")
	tr.SetCachedPrice("BTC", "USD", date(t, "2024-03-05"), 60000)

	rec := doRequest(t, s, http.MethodGet, "/api/assets/btc/price?date=2024-03-05", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Symbol string  `json:"symbol"`
		Price  float64 `json:"price"`
	}
	decodeBody(t, rec, &resp)
	assert.Equal(t, "BTC", resp.Symbol)
	assert.Equal(t, 60000.0, resp.Price)

	rec = doRequest(t, s, http.MethodGet, "/api/assets/DOGE/price", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func date(t *testing.T, s string) domain.Date {
	t.Helper()
	d, err := domain.ParseDate(s)
	require.NoError(t, err)
	return d
}

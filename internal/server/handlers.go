package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"svtk/internal/domain"
)

type eventRequest struct {
	EventType string  `json:"event_type"`
	Symbol    string  `json:"symbol"`
	Name      string  `json:"name"`
	AssetType string  `json:"asset_type"`
	Amount    float64 `json:"amount"`
	Date      string  `json:"date"`
	Notes     string  `json:"notes"`
}

func (req *eventRequest) parse() (domain.EventType, domain.Asset, domain.Date, error) {
	eventType, err := domain.ParseEventType(req.EventType)
	if err != nil {
		return "", domain.Asset{}, domain.Date{}, &domain.ValidationError{Reason: err.Error()}
	}
	assetType, err := domain.ParseAssetType(req.AssetType)
	if err != nil {
		return "", domain.Asset{}, domain.Date{}, &domain.ValidationError{Reason: err.Error()}
	}
	date, err := domain.ParseDate(req.Date)
	if err != nil {
		return "", domain.Asset{}, domain.Date{}, &domain.ValidationError{Reason: err.Error()}
	}
	return eventType, domain.NewAsset(req.Symbol, req.Name, assetType), date, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := r.URL.Query()
	var events []domain.Event
	switch {
	case q.Get("q") != "":
		events = s.tracker.SearchEvents(q.Get("q"))
	case q.Get("sort") != "":
		events = s.tracker.EventsSorted(domain.SortOrder(q.Get("sort")))
	case q.Get("asset") != "":
		events = s.tracker.EventsForAsset(q.Get("asset"))
	case q.Get("type") != "":
		eventType, err := domain.ParseEventType(q.Get("type"))
		if err != nil {
			s.writeError(w, err)
			return
		}
		events = s.tracker.EventsByType(eventType)
	case q.Get("from") != "" && q.Get("to") != "":
		from, to, err := parseDateRange(q.Get("from"), q.Get("to"))
		if err != nil {
			s.writeError(w, err)
			return
		}
		events = s.tracker.EventsInRange(from, to)
	default:
		events = s.tracker.Events()
	}

	if events == nil {
		events = []domain.Event{}
	}
	s.writeJSON(w, http.StatusOK, events)
}

func (s *Server) handleAddEvent(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, &domain.ValidationError{Reason: "invalid request body"})
		return
	}
	eventType, asset, date, err := req.parse()
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var id uuid.UUID
	if req.Notes != "" {
		id, err = s.tracker.AddEventWithNotes(eventType, asset, req.Amount, date, req.Notes)
	} else {
		id, err = s.tracker.AddEvent(eventType, asset, req.Amount, date)
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]string{"id": id.String()})
}

func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, &domain.ValidationError{Reason: "invalid event id"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	event, ok := s.tracker.Event(id)
	if !ok {
		s.writeError(w, &domain.EventNotFoundError{ID: id})
		return
	}
	s.writeJSON(w, http.StatusOK, event)
}

func (s *Server) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, &domain.ValidationError{Reason: "invalid event id"})
		return
	}
	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, &domain.ValidationError{Reason: "invalid request body"})
		return
	}
	eventType, asset, date, err := req.parse()
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.tracker.UpdateEvent(id, eventType, asset, req.Amount, date); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (s *Server) handleRemoveEvent(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, &domain.ValidationError{Reason: "invalid event id"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if r.URL.Query().Get("trash") == "true" {
		event, err := s.tracker.RemoveEventToTrash(id)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, event)
		return
	}

	if err := s.tracker.RemoveEvent(id); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

func (s *Server) handleSetEventNotes(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, &domain.ValidationError{Reason: "invalid event id"})
		return
	}
	var req struct {
		Notes string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, &domain.ValidationError{Reason: "invalid request body"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.tracker.SetEventNotes(id, req.Notes); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (s *Server) handleAddEvents(w http.ResponseWriter, r *http.Request) {
	var reqs []eventRequest
	if err := json.NewDecoder(r.Body).Decode(&reqs); err != nil {
		s.writeError(w, &domain.ValidationError{Reason: "invalid request body"})
		return
	}

	events := make([]domain.Event, 0, len(reqs))
	for _, req := range reqs {
		eventType, asset, date, err := req.parse()
		if err != nil {
			s.writeError(w, err)
			return
		}
		events = append(events, domain.NewEventWithNotes(eventType, asset, req.Amount, date, req.Notes))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ids, err := s.tracker.AddEvents(events)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]any{"ids": ids})
}

func (s *Server) handleRemoveEvents(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDs []uuid.UUID `json:"ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, &domain.ValidationError{Reason: "invalid request body"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.tracker.RemoveEvents(req.IDs); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

func (s *Server) handleExportEvents(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.URL.Query().Get("format") == "csv" {
		w.Header().Set("Content-Type", "text/csv")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(s.tracker.ExportEventsCSV()))
		return
	}

	data, err := s.tracker.ExportEventsJSON()
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(data))
}

func (s *Server) handleImportEvents(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Events json.RawMessage `json:"events"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, &domain.ValidationError{Reason: "invalid request body"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	count, err := s.tracker.ImportEventsJSON(string(req.Events))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]int{"imported": count})
}

func (s *Server) handleGetTrash(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	trash := s.tracker.Trash()
	if trash == nil {
		trash = []domain.Event{}
	}
	s.writeJSON(w, http.StatusOK, trash)
}

func (s *Server) handleUndoRemoval(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	event, restored, err := s.tracker.UndoLastRemoval()
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !restored {
		s.writeJSON(w, http.StatusOK, map[string]bool{"restored": false})
		return
	}
	s.writeJSON(w, http.StatusOK, event)
}

func (s *Server) handleClearTrash(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tracker.ClearTrash()
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func (s *Server) handleHoldings(w http.ResponseWriter, r *http.Request) {
	date, err := parseDateOrToday(r.URL.Query().Get("date"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	holdings := s.tracker.Holdings(date)
	out := make([]domain.Holding, 0, len(holdings))
	for _, h := range holdings {
		out = append(out, h)
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handlePortfolioValue(w http.ResponseWriter, r *http.Request) {
	date, err := parseDateOrToday(r.URL.Query().Get("date"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	value, err := s.tracker.PortfolioValue(r.Context(), date)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"date":     date,
		"value":    value,
		"currency": s.tracker.Settings().DefaultCurrency,
	})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	date, err := parseDateOrToday(r.URL.Query().Get("date"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	summary, err := s.tracker.Summary(r.Context(), date)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleUniqueAssets(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	assets := s.tracker.UniqueAssets()
	if assets == nil {
		assets = []domain.Asset{}
	}
	s.writeJSON(w, http.StatusOK, assets)
}

func (s *Server) handleAssetPrice(w http.ResponseWriter, r *http.Request) {
	date, err := parseDateOrToday(r.URL.Query().Get("date"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	symbol := chi.URLParam(r, "symbol")

	s.mu.Lock()
	defer s.mu.Unlock()

	var asset domain.Asset
	found := false
	upper := strings.ToUpper(symbol)
	for _, a := range s.tracker.UniqueAssets() {
		if a.Symbol == upper {
			asset = a
			found = true
			break
		}
	}
	if !found {
		s.writeError(w, &domain.ValidationError{Reason: "asset not found in portfolio"})
		return
	}

	price, err := s.tracker.AssetPrice(r.Context(), asset, date)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"symbol":   asset.Symbol,
		"date":     date,
		"price":    price,
		"currency": s.tracker.Settings().DefaultCurrency,
	})
}

func (s *Server) handlePortfolioChart(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseDateRange(r.URL.Query().Get("from"), r.URL.Query().Get("to"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	chart, err := s.tracker.GeneratePortfolioChart(r.Context(), from, to)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, chart)
}

func (s *Server) handleAssetChart(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseDateRange(r.URL.Query().Get("from"), r.URL.Query().Get("to"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	chart, err := s.tracker.GenerateAssetChart(r.Context(), chi.URLParam(r, "symbol"), from, to)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, chart)
}

func (s *Server) handleRefreshPrices(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.tracker.RefreshPrices(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "refreshed"})
}

func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.writeJSON(w, http.StatusOK, map[string]any{
		"total_entries": s.tracker.CacheTotalEntries(),
		"asset_count":   s.tracker.CacheAssetCount(),
		"pairs":         s.tracker.CachedPairs(),
	})
}

func (s *Server) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if before := r.URL.Query().Get("before"); before != "" {
		date, err := domain.ParseDate(before)
		if err != nil {
			s.writeError(w, &domain.ValidationError{Reason: err.Error()})
			return
		}
		removed := s.tracker.CachePruneBefore(date)
		s.writeJSON(w, http.StatusOK, map[string]int{"removed": removed})
		return
	}

	s.tracker.CacheClear()
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings := s.tracker.Settings()
	providers := make(map[string]bool, len(settings.APIKeys))
	for name := range settings.APIKeys {
		providers[name] = true
	}
	// API keys stay server-side; only report which providers have one.
	s.writeJSON(w, http.StatusOK, map[string]any{
		"default_currency": settings.DefaultCurrency,
		"api_keys_set":     providers,
		"unsaved_changes":  s.tracker.HasUnsavedChanges(),
	})
}

func (s *Server) handleSetCurrency(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Currency string `json:"currency"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, &domain.ValidationError{Reason: "invalid request body"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.tracker.SetDefaultCurrency(req.Currency); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (s *Server) handleSetAPIKey(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Key string `json:"key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, &domain.ValidationError{Reason: "invalid request body"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.tracker.SetAPIKey(chi.URLParam(r, "provider"), req.Key)
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (s *Server) handleRemoveAPIKey(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := s.tracker.RemoveAPIKey(chi.URLParam(r, "provider"))
	s.writeJSON(w, http.StatusOK, map[string]bool{"removed": removed})
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.tracker.SaveToFile(s.cfg.FilePath, s.cfg.Password); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, &domain.ValidationError{Reason: "invalid request body"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	lastSaved, err := readFileBytes(s.cfg.FilePath)
	if err != nil {
		s.writeError(w, err)
		return
	}

	newBytes, err := s.tracker.ChangePassword(lastSaved, req.CurrentPassword, req.NewPassword)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := writeFileBytes(s.cfg.FilePath, newBytes); err != nil {
		s.writeError(w, err)
		return
	}

	s.cfg.Password = req.NewPassword
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "password changed"})
}

func readFileBytes(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &domain.FileIOError{Reason: err.Error()}
	}
	return data, nil
}

func writeFileBytes(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return &domain.FileIOError{Reason: err.Error()}
	}
	return nil
}

func parseDateOrToday(value string) (domain.Date, error) {
	if value == "" {
		return domain.Today(), nil
	}
	date, err := domain.ParseDate(value)
	if err != nil {
		return domain.Date{}, &domain.ValidationError{Reason: err.Error()}
	}
	return date, nil
}

func parseDateRange(fromStr, toStr string) (domain.Date, domain.Date, error) {
	from, err := domain.ParseDate(fromStr)
	if err != nil {
		return domain.Date{}, domain.Date{}, &domain.ValidationError{Reason: "invalid 'from' date: " + fromStr}
	}
	to, err := domain.ParseDate(toStr)
	if err != nil {
		return domain.Date{}, domain.Date{}, &domain.ValidationError{Reason: "invalid 'to' date: " + toStr}
	}
	return from, to, nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error().Err(err).Msg("failed to encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	var validationErr *domain.ValidationError
	var notFoundErr *domain.EventNotFoundError
	var apiErr *domain.APIError
	var netErr *domain.NetworkError
	var noProviderErr *domain.NoProviderError
	var priceErr *domain.PriceNotAvailableError

	switch {
	case errors.As(err, &validationErr):
		status = http.StatusBadRequest
	case errors.As(err, &notFoundErr):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrDecryption):
		status = http.StatusUnauthorized
	case errors.As(err, &apiErr), errors.As(err, &netErr),
		errors.As(err, &noProviderErr), errors.As(err, &priceErr):
		status = http.StatusBadGateway
	}

	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

package providers

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"svtk/internal/domain"
)

// metalNames maps ticker symbols to the slugs metals.dev uses.
var metalNames = map[string]string{
	"XAU": "gold",
	"XAG": "silver",
	"XPT": "platinum",
	"XPD": "palladium",
}

// MetalsDev provides precious metal spot prices from metals.dev.
// Requires an API key (free tier available).
type MetalsDev struct {
	baseURL string
	apiKey  string
	client  *http.Client
	log     zerolog.Logger
}

// NewMetalsDev creates a metals.dev provider with the given API key.
func NewMetalsDev(apiKey string, log zerolog.Logger) *MetalsDev {
	return &MetalsDev{
		baseURL: "https://api.metals.dev/v1",
		apiKey:  apiKey,
		client:  newHTTPClient(),
		log:     log.With().Str("provider", "metals_dev").Logger(),
	}
}

// Name implements Provider.
func (m *MetalsDev) Name() string { return "MetalsDev" }

// SupportedAssetTypes implements Provider.
func (m *MetalsDev) SupportedAssetTypes() []domain.AssetType {
	return []domain.AssetType{domain.AssetTypeMetal}
}

func metalName(symbol string) (string, error) {
	name, ok := metalNames[strings.ToUpper(symbol)]
	if !ok {
		return "", &domain.ValidationError{Reason: fmt.Sprintf("unknown metal symbol: %s", symbol)}
	}
	return name, nil
}

// CurrentPrice implements Provider. Prices are per troy ounce.
func (m *MetalsDev) CurrentPrice(ctx context.Context, symbol, currency string) (float64, error) {
	name, err := metalName(symbol)
	if err != nil {
		return 0, err
	}

	var resp struct {
		Status string             `json:"status"`
		Metals map[string]float64 `json:"metals"`
	}
	url := fmt.Sprintf("%s/latest?api_key=%s&currency=%s&unit=toz", m.baseURL, m.apiKey, strings.ToUpper(currency))
	if err := fetchJSON(ctx, m.client, m.Name(), url, nil, &resp); err != nil {
		return 0, err
	}
	if resp.Status != "success" {
		return 0, &domain.APIError{Provider: m.Name(), Message: fmt.Sprintf("request failed with status %q", resp.Status)}
	}

	price, ok := resp.Metals[name]
	if !ok {
		return 0, &domain.APIError{Provider: m.Name(), Message: fmt.Sprintf("no price returned for %s", name)}
	}
	return price, nil
}

// HistoricalPrice implements Provider.
func (m *MetalsDev) HistoricalPrice(ctx context.Context, symbol, currency string, date domain.Date) (float64, error) {
	name, err := metalName(symbol)
	if err != nil {
		return 0, err
	}

	var resp struct {
		Status string                        `json:"status"`
		Rates  map[string]map[string]float64 `json:"rates"`
	}
	url := fmt.Sprintf("%s/timeseries?api_key=%s&currency=%s&unit=toz&start_date=%s&end_date=%s",
		m.baseURL, m.apiKey, strings.ToUpper(currency), date, date)
	if err := fetchJSON(ctx, m.client, m.Name(), url, nil, &resp); err != nil {
		return 0, err
	}
	if resp.Status != "success" {
		return 0, &domain.APIError{Provider: m.Name(), Message: fmt.Sprintf("request failed with status %q", resp.Status)}
	}

	if metals, ok := resp.Rates[date.String()]; ok {
		if price, ok := metals[name]; ok {
			return price, nil
		}
	}
	return 0, &domain.PriceNotAvailableError{Symbol: symbol, Currency: currency, Date: date.String()}
}

// PriceRange implements Provider.
func (m *MetalsDev) PriceRange(ctx context.Context, symbol, currency string, from, to domain.Date) ([]domain.PricePoint, error) {
	name, err := metalName(symbol)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Status string                        `json:"status"`
		Rates  map[string]map[string]float64 `json:"rates"`
	}
	url := fmt.Sprintf("%s/timeseries?api_key=%s&currency=%s&unit=toz&start_date=%s&end_date=%s",
		m.baseURL, m.apiKey, strings.ToUpper(currency), from, to)
	if err := fetchJSON(ctx, m.client, m.Name(), url, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Status != "success" {
		return nil, &domain.APIError{Provider: m.Name(), Message: fmt.Sprintf("request failed with status %q", resp.Status)}
	}

	points := make([]domain.PricePoint, 0, len(resp.Rates))
	for dateStr, metals := range resp.Rates {
		date, err := domain.ParseDate(dateStr)
		if err != nil {
			continue
		}
		price, ok := metals[name]
		if !ok {
			continue
		}
		points = append(points, domain.PricePoint{Date: date, Price: price})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	return points, nil
}

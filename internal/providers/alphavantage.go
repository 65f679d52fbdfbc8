package providers

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"svtk/internal/domain"
)

// AlphaVantage provides stock prices from the Alpha Vantage API.
// Requires an API key; the free tier is limited to 25 requests per day,
// so it sits behind Yahoo Finance in the fallback chain. Prices come
// back in the stock's native currency, typically USD.
type AlphaVantage struct {
	baseURL string
	apiKey  string
	client  *http.Client
	log     zerolog.Logger
}

// NewAlphaVantage creates an Alpha Vantage provider with the given API key.
func NewAlphaVantage(apiKey string, log zerolog.Logger) *AlphaVantage {
	return &AlphaVantage{
		baseURL: "https://www.alphavantage.co/query",
		apiKey:  apiKey,
		client:  newHTTPClient(),
		log:     log.With().Str("provider", "alphavantage").Logger(),
	}
}

// Name implements Provider.
func (a *AlphaVantage) Name() string { return "AlphaVantage" }

// SupportedAssetTypes implements Provider.
func (a *AlphaVantage) SupportedAssetTypes() []domain.AssetType {
	return []domain.AssetType{domain.AssetTypeStock}
}

// CurrentPrice implements Provider.
func (a *AlphaVantage) CurrentPrice(ctx context.Context, symbol, _ string) (float64, error) {
	var resp struct {
		GlobalQuote struct {
			Price string `json:"05. price"`
		} `json:"Global Quote"`
	}
	url := fmt.Sprintf("%s?function=GLOBAL_QUOTE&symbol=%s&apikey=%s", a.baseURL, strings.ToUpper(symbol), a.apiKey)
	if err := fetchJSON(ctx, a.client, a.Name(), url, nil, &resp); err != nil {
		return 0, err
	}

	if resp.GlobalQuote.Price == "" {
		return 0, &domain.APIError{Provider: a.Name(), Message: fmt.Sprintf("no quote data for %s, API limit may be exceeded", symbol)}
	}
	price, err := strconv.ParseFloat(resp.GlobalQuote.Price, 64)
	if err != nil {
		return 0, &domain.APIError{Provider: a.Name(), Message: fmt.Sprintf("invalid price format for %s: %v", symbol, err)}
	}
	return price, nil
}

// HistoricalPrice implements Provider.
func (a *AlphaVantage) HistoricalPrice(ctx context.Context, symbol, currency string, date domain.Date) (float64, error) {
	series, err := a.fetchDailySeries(ctx, symbol)
	if err != nil {
		return 0, err
	}

	day, ok := series[date.String()]
	if !ok {
		return 0, &domain.PriceNotAvailableError{Symbol: symbol, Currency: currency, Date: date.String()}
	}
	price, err := strconv.ParseFloat(day.Close, 64)
	if err != nil {
		return 0, &domain.PriceNotAvailableError{Symbol: symbol, Currency: currency, Date: date.String()}
	}
	return price, nil
}

// PriceRange implements Provider.
func (a *AlphaVantage) PriceRange(ctx context.Context, symbol, _ string, from, to domain.Date) ([]domain.PricePoint, error) {
	series, err := a.fetchDailySeries(ctx, symbol)
	if err != nil {
		return nil, err
	}

	var points []domain.PricePoint
	for dateStr, day := range series {
		date, err := domain.ParseDate(dateStr)
		if err != nil {
			continue
		}
		if date.Before(from) || date.After(to) {
			continue
		}
		price, err := strconv.ParseFloat(day.Close, 64)
		if err != nil {
			continue
		}
		points = append(points, domain.PricePoint{Date: date, Price: price})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	return points, nil
}

type alphaVantageDay struct {
	Close string `json:"4. close"`
}

// fetchDailySeries fetches the compact daily series, roughly the last
// 100 trading days.
func (a *AlphaVantage) fetchDailySeries(ctx context.Context, symbol string) (map[string]alphaVantageDay, error) {
	var resp struct {
		TimeSeries map[string]alphaVantageDay `json:"Time Series (Daily)"`
	}
	url := fmt.Sprintf("%s?function=TIME_SERIES_DAILY&symbol=%s&outputsize=compact&apikey=%s",
		a.baseURL, strings.ToUpper(symbol), a.apiKey)
	if err := fetchJSON(ctx, a.client, a.Name(), url, nil, &resp); err != nil {
		return nil, err
	}

	if resp.TimeSeries == nil {
		return nil, &domain.APIError{Provider: a.Name(), Message: fmt.Sprintf("no time series data for %s, API limit may be exceeded", symbol)}
	}
	return resp.TimeSeries, nil
}

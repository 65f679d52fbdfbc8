package providers

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"svtk/internal/domain"
)

// YahooFinance provides stock and ETF prices from the Yahoo Finance v8
// chart API. No API key, but requests need a browser-like User-Agent.
type YahooFinance struct {
	baseURL string
	client  *http.Client
	log     zerolog.Logger
}

// NewYahooFinance creates a Yahoo Finance provider.
func NewYahooFinance(log zerolog.Logger) *YahooFinance {
	return &YahooFinance{
		baseURL: "https://query1.finance.yahoo.com/v8/finance/chart",
		client:  newHTTPClient(),
		log:     log.With().Str("provider", "yahoo_finance").Logger(),
	}
}

// Name implements Provider.
func (y *YahooFinance) Name() string { return "YahooFinance" }

// SupportedAssetTypes implements Provider.
func (y *YahooFinance) SupportedAssetTypes() []domain.AssetType {
	return []domain.AssetType{domain.AssetTypeStock}
}

var yahooHeaders = map[string]string{
	"User-Agent": "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36",
}

type yahooChartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency           string  `json:"currency"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func (y *YahooFinance) fetchChart(ctx context.Context, url string) (*yahooChartResponse, error) {
	var resp yahooChartResponse
	if err := fetchJSON(ctx, y.client, y.Name(), url, yahooHeaders, &resp); err != nil {
		return nil, err
	}
	if resp.Chart.Error != nil {
		return nil, &domain.APIError{Provider: y.Name(), Message: resp.Chart.Error.Description}
	}
	if len(resp.Chart.Result) == 0 {
		return nil, &domain.APIError{Provider: y.Name(), Message: "empty chart result"}
	}
	return &resp, nil
}

// CurrentPrice implements Provider. Yahoo quotes in the symbol's native
// currency, typically USD; cross-currency conversion happens downstream,
// so the currency argument is not used here.
func (y *YahooFinance) CurrentPrice(ctx context.Context, symbol, _ string) (float64, error) {
	url := fmt.Sprintf("%s/%s?range=1d&interval=1d", y.baseURL, strings.ToUpper(symbol))
	resp, err := y.fetchChart(ctx, url)
	if err != nil {
		return 0, err
	}

	price := resp.Chart.Result[0].Meta.RegularMarketPrice
	if price == 0 || math.IsNaN(price) {
		return 0, &domain.APIError{Provider: y.Name(), Message: fmt.Sprintf("no market price for %s", symbol)}
	}
	return price, nil
}

// HistoricalPrice implements Provider. The query window is widened past
// the target date so weekends and holidays resolve to the nearest
// trading day within tolerance.
func (y *YahooFinance) HistoricalPrice(ctx context.Context, symbol, currency string, date domain.Date) (float64, error) {
	points, err := y.PriceRange(ctx, symbol, currency, date.AddDays(-3), date.AddDays(3))
	if err != nil {
		return 0, err
	}
	if len(points) == 0 {
		return 0, &domain.PriceNotAvailableError{Symbol: symbol, Currency: currency, Date: date.String()}
	}

	best := points[0]
	bestDist := absDays(best.Date, date)
	for _, p := range points[1:] {
		if d := absDays(p.Date, date); d < bestDist {
			best, bestDist = p, d
		}
	}
	return best.Price, nil
}

func absDays(a, b domain.Date) int {
	d := a.DaysUntil(b)
	if d < 0 {
		return -d
	}
	return d
}

// PriceRange implements Provider.
func (y *YahooFinance) PriceRange(ctx context.Context, symbol, currency string, from, to domain.Date) ([]domain.PricePoint, error) {
	// period2 is exclusive; push it past the end of the last day.
	url := fmt.Sprintf("%s/%s?period1=%d&period2=%d&interval=1d",
		y.baseURL, strings.ToUpper(symbol), from.Unix(), to.AddDays(1).Unix())
	resp, err := y.fetchChart(ctx, url)
	if err != nil {
		return nil, err
	}

	result := resp.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, nil
	}
	closes := result.Indicators.Quote[0].Close

	var points []domain.PricePoint
	for i, ts := range result.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue
		}
		date := domain.DateFromUnix(ts)
		if date.Before(from) || date.After(to) {
			continue
		}
		points = append(points, domain.PricePoint{Date: date, Price: *closes[i]})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	return points, nil
}

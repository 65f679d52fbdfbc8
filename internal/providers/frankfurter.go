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

// Frankfurter provides fiat exchange rates from the Frankfurter API
// (European Central Bank data). Free, no API key, ~30 currencies.
type Frankfurter struct {
	baseURL string
	client  *http.Client
	log     zerolog.Logger
}

// NewFrankfurter creates a Frankfurter provider.
func NewFrankfurter(log zerolog.Logger) *Frankfurter {
	return &Frankfurter{
		baseURL: "https://api.frankfurter.dev/v1",
		client:  newHTTPClient(),
		log:     log.With().Str("provider", "frankfurter").Logger(),
	}
}

// Name implements Provider.
func (f *Frankfurter) Name() string { return "Frankfurter" }

// SupportedAssetTypes implements Provider.
func (f *Frankfurter) SupportedAssetTypes() []domain.AssetType {
	return []domain.AssetType{domain.AssetTypeFiat}
}

// CurrentPrice implements Provider. The "price" of a fiat symbol is its
// exchange rate into the target currency.
func (f *Frankfurter) CurrentPrice(ctx context.Context, symbol, currency string) (float64, error) {
	base := strings.ToUpper(symbol)
	target := strings.ToUpper(currency)
	if base == target {
		return 1.0, nil
	}

	var resp struct {
		Rates map[string]float64 `json:"rates"`
	}
	url := fmt.Sprintf("%s/latest?base=%s&symbols=%s", f.baseURL, base, target)
	if err := fetchJSON(ctx, f.client, f.Name(), url, nil, &resp); err != nil {
		return 0, err
	}

	rate, ok := resp.Rates[target]
	if !ok {
		return 0, &domain.APIError{Provider: f.Name(), Message: fmt.Sprintf("no rate found for %s to %s", base, target)}
	}
	return rate, nil
}

// HistoricalPrice implements Provider.
func (f *Frankfurter) HistoricalPrice(ctx context.Context, symbol, currency string, date domain.Date) (float64, error) {
	base := strings.ToUpper(symbol)
	target := strings.ToUpper(currency)
	if base == target {
		return 1.0, nil
	}

	var resp struct {
		Rates map[string]float64 `json:"rates"`
	}
	url := fmt.Sprintf("%s/%s?base=%s&symbols=%s", f.baseURL, date, base, target)
	if err := fetchJSON(ctx, f.client, f.Name(), url, nil, &resp); err != nil {
		return 0, err
	}

	rate, ok := resp.Rates[target]
	if !ok {
		return 0, &domain.PriceNotAvailableError{Symbol: symbol, Currency: currency, Date: date.String()}
	}
	return rate, nil
}

// PriceRange implements Provider. Frankfurter serves time series as
// date -> {currency -> rate} maps; same-currency ranges short-circuit
// to a dense series of 1.0.
func (f *Frankfurter) PriceRange(ctx context.Context, symbol, currency string, from, to domain.Date) ([]domain.PricePoint, error) {
	base := strings.ToUpper(symbol)
	target := strings.ToUpper(currency)

	if base == target {
		var points []domain.PricePoint
		for d := from; !d.After(to); d = d.AddDays(1) {
			points = append(points, domain.PricePoint{Date: d, Price: 1.0})
		}
		return points, nil
	}

	var resp struct {
		Rates map[string]map[string]float64 `json:"rates"`
	}
	url := fmt.Sprintf("%s/%s..%s?base=%s&symbols=%s", f.baseURL, from, to, base, target)
	if err := fetchJSON(ctx, f.client, f.Name(), url, nil, &resp); err != nil {
		return nil, err
	}

	points := make([]domain.PricePoint, 0, len(resp.Rates))
	for dateStr, rates := range resp.Rates {
		date, err := domain.ParseDate(dateStr)
		if err != nil {
			continue
		}
		rate, ok := rates[target]
		if !ok {
			continue
		}
		points = append(points, domain.PricePoint{Date: date, Price: rate})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	return points, nil
}

// Package providers implements the polymorphic price sources and their
// registry. Each provider wraps one third-party price API behind a
// small common interface; the registry routes lookups by asset type
// with registration-order fallback.
package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"svtk/internal/domain"
)

// Provider is a single price data source. Implementations return prices
// in their native currency (USD for the non-fiat providers); the
// currency service performs the second conversion leg when needed.
type Provider interface {
	// Name is the human-readable provider name for logs and errors.
	Name() string

	// SupportedAssetTypes lists which asset types this provider can quote.
	SupportedAssetTypes() []domain.AssetType

	// CurrentPrice returns the latest price of symbol in currency.
	CurrentPrice(ctx context.Context, symbol, currency string) (float64, error)

	// HistoricalPrice returns the price of symbol on a specific date.
	HistoricalPrice(ctx context.Context, symbol, currency string, date domain.Date) (float64, error)

	// PriceRange returns a dense daily series for [from, to], sorted by date.
	PriceRange(ctx context.Context, symbol, currency string, from, to domain.Date) ([]domain.PricePoint, error)
}

// requestTimeout is the per-call connection timeout for every provider.
const requestTimeout = 30 * time.Second

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: requestTimeout}
}

// fetchJSON performs a GET request and decodes the JSON body into out.
// Transport failures become NetworkError with query strings redacted;
// non-200 responses and decode failures become APIError.
func fetchJSON(ctx context.Context, client *http.Client, provider, url string, headers map[string]string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &domain.APIError{Provider: provider, Message: fmt.Sprintf("failed to create request: %v", err)}
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return domain.NewNetworkError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &domain.APIError{Provider: provider, Message: fmt.Sprintf("unexpected status %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.NewNetworkError(err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &domain.APIError{Provider: provider, Message: fmt.Sprintf("failed to parse response: %v", err)}
	}
	return nil
}

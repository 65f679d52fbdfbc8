// Package tracker is the main entry point of the library. A Tracker
// holds the portfolio state and the services operating on it, tracks
// unsaved changes, and exposes every operation the frontends need.
//
// A Tracker is not safe for concurrent use; callers that share one
// across goroutines must serialize access.
package tracker

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/rs/zerolog"

	"svtk/internal/domain"
	"svtk/internal/providers"
	"svtk/internal/services"
	"svtk/internal/storage"
)

// maxChartRangeDays caps chart queries at ten years of daily points.
const maxChartRangeDays = 3650

// Tracker wires the portfolio, its price cache and all services.
type Tracker struct {
	portfolio *domain.Portfolio

	portfolios *services.PortfolioService
	prices     *services.PriceService
	currencies *services.CurrencyService
	charts     *services.ChartService
	analytics  *services.AnalyticsService

	log zerolog.Logger

	// dirty is set on any mutation and cleared on save/load.
	dirty bool
}

// New creates a tracker around an empty portfolio with default settings.
func New(log zerolog.Logger) *Tracker {
	return build(domain.NewPortfolio(), log)
}

// LoadFromBytes decrypts a portfolio container and wraps it in a
// tracker. Use this when the caller handles file I/O itself.
func LoadFromBytes(encrypted []byte, password string, log zerolog.Logger) (*Tracker, error) {
	portfolio, err := storage.LoadFromBytes(encrypted, password)
	if err != nil {
		return nil, err
	}
	return build(portfolio, log), nil
}

// LoadFromFile loads an encrypted portfolio file from disk.
func LoadFromFile(path, password string, log zerolog.Logger) (*Tracker, error) {
	portfolio, err := storage.LoadFromFile(path, password)
	if err != nil {
		return nil, err
	}
	return build(portfolio, log), nil
}

func build(portfolio *domain.Portfolio, log zerolog.Logger) *Tracker {
	log = log.With().Str("service", "tracker").Logger()
	registry := providers.NewDefaultRegistry(portfolio.Settings.APIKeys, log)
	return &Tracker{
		portfolio:  portfolio,
		portfolios: services.NewPortfolioService(),
		prices:     services.NewPriceService(registry, log),
		currencies: services.NewCurrencyService(),
		charts:     services.NewChartService(log),
		analytics:  services.NewAnalyticsService(log),
		log:        log,
	}
}

// SaveToBytes encrypts the portfolio and returns the container bytes.
// Clears the unsaved-changes flag on success.
func (t *Tracker) SaveToBytes(password string) ([]byte, error) {
	bytes, err := storage.SaveToBytes(t.portfolio, password)
	if err != nil {
		return nil, err
	}
	t.dirty = false
	return bytes, nil
}

// SaveToFile encrypts the portfolio and writes it to disk. Clears the
// unsaved-changes flag on success.
func (t *Tracker) SaveToFile(path, password string) error {
	if err := storage.SaveToFile(t.portfolio, path, password); err != nil {
		return err
	}
	t.dirty = false
	return nil
}

// ChangePassword re-encrypts the portfolio with a new password and
// returns the new container bytes. The current password is verified by
// decrypting lastSavedBytes, the most recently saved container, so a
// caller cannot rotate a password it does not know.
func (t *Tracker) ChangePassword(lastSavedBytes []byte, currentPassword, newPassword string) ([]byte, error) {
	if _, err := storage.LoadFromBytes(lastSavedBytes, currentPassword); err != nil {
		return nil, err
	}

	newBytes, err := storage.SaveToBytes(t.portfolio, newPassword)
	if err != nil {
		return nil, err
	}
	t.dirty = false
	return newBytes, nil
}

// HasUnsavedChanges reports whether the portfolio was modified since
// the last save or load.
func (t *Tracker) HasUnsavedChanges() bool {
	return t.dirty
}

// Settings returns a copy of the current settings.
func (t *Tracker) Settings() domain.Settings {
	return t.portfolio.Settings.Clone()
}

// SetDefaultCurrency sets the display currency. The code must be
// exactly three ASCII letters.
func (t *Tracker) SetDefaultCurrency(currency string) error {
	trimmed := strings.ToUpper(strings.TrimSpace(currency))
	if len(trimmed) != 3 || !isASCIIAlpha(trimmed) {
		return &domain.ValidationError{
			Reason: fmt.Sprintf("invalid currency code %q: must be exactly 3 ASCII letters (e.g. USD, EUR, PLN)", currency),
		}
	}
	t.portfolio.Settings.DefaultCurrency = trimmed
	t.dirty = true
	return nil
}

// SetAPIKey stores an API key for a provider ("metals_dev",
// "alphavantage") and rebuilds the provider registry so the key takes
// effect immediately.
func (t *Tracker) SetAPIKey(provider, key string) {
	if t.portfolio.Settings.APIKeys == nil {
		t.portfolio.Settings.APIKeys = make(map[string]string)
	}
	t.portfolio.Settings.APIKeys[provider] = key
	t.prices.SetRegistry(providers.NewDefaultRegistry(t.portfolio.Settings.APIKeys, t.log))
	t.dirty = true
}

// RemoveAPIKey deletes a provider API key and rebuilds the registry.
// Reports whether a key was actually removed.
func (t *Tracker) RemoveAPIKey(provider string) bool {
	if _, ok := t.portfolio.Settings.APIKeys[provider]; !ok {
		return false
	}
	delete(t.portfolio.Settings.APIKeys, provider)
	t.prices.SetRegistry(providers.NewDefaultRegistry(t.portfolio.Settings.APIKeys, t.log))
	t.dirty = true
	return true
}

// IsProviderAvailable reports whether any price provider can quote the
// asset type.
func (t *Tracker) IsProviderAvailable(assetType domain.AssetType) bool {
	return t.prices.HasProviderFor(assetType)
}

// ProviderNames lists available providers for an asset type in
// fallback order.
func (t *Tracker) ProviderNames(assetType domain.AssetType) []string {
	return t.prices.ProviderNames(assetType)
}

// RefreshPrices fetches today's price for every currently held asset
// in the default currency.
func (t *Tracker) RefreshPrices(ctx context.Context) error {
	today := domain.Today()
	holdings := t.Holdings(today)
	currency := t.portfolio.Settings.DefaultCurrency

	for _, h := range holdings {
		if _, err := t.prices.Price(ctx, t.portfolio.PriceCache, h.Asset.Symbol, currency, today, h.Asset.Type); err != nil {
			return err
		}
	}
	return nil
}

func isASCIIAlpha(s string) bool {
	for _, r := range s {
		if r > unicode.MaxASCII || !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

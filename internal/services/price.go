// Package services holds the business logic layered on the domain
// model: price fetching with cache strategy, currency conversion,
// portfolio event management, chart generation and analytics.
package services

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/rs/zerolog"

	"svtk/internal/domain"
	"svtk/internal/providers"
)

// PriceService fetches asset prices from the provider registry with
// caching.
//
// Cache strategy:
//   - Historical dates (before today): fetch once, cache forever.
//   - Today: fetch once per day, refresh only on explicit request.
//
// All cached prices live in the portfolio's PriceCache and travel with
// the encrypted file, so previously fetched data works offline.
type PriceService struct {
	mu       sync.RWMutex
	registry *providers.Registry
	log      zerolog.Logger
}

// NewPriceService creates a price service over the given registry.
func NewPriceService(registry *providers.Registry, log zerolog.Logger) *PriceService {
	return &PriceService{
		registry: registry,
		log:      log.With().Str("service", "price").Logger(),
	}
}

// SetRegistry swaps the provider registry, used after API key changes.
// In-flight lookups finish against the registry they started with.
func (s *PriceService) SetRegistry(registry *providers.Registry) {
	s.mu.Lock()
	s.registry = registry
	s.mu.Unlock()
}

func (s *PriceService) currentRegistry() *providers.Registry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry
}

// HasProviderFor reports whether at least one provider can quote the
// asset type.
func (s *PriceService) HasProviderFor(assetType domain.AssetType) bool {
	_, ok := s.currentRegistry().ProviderFor(assetType)
	return ok
}

// ProviderNames lists all providers available for an asset type, in
// fallback order.
func (s *PriceService) ProviderNames(assetType domain.AssetType) []string {
	provs := s.currentRegistry().ProvidersFor(assetType)
	names := make([]string, 0, len(provs))
	for _, p := range provs {
		names = append(names, p.Name())
	}
	return names
}

// Price returns the price of symbol in currency on date, consulting the
// cache first. Historical cache hits are always trusted; today's hit is
// trusted only if it was already refreshed today.
func (s *PriceService) Price(ctx context.Context, cache *domain.PriceCache, symbol, currency string, date domain.Date, assetType domain.AssetType) (float64, error) {
	today := domain.Today()

	if price, ok := cache.Price(symbol, currency, date); ok {
		if date.Before(today) {
			return price, nil
		}
		if cache.IsTodayFresh(symbol, currency, today) {
			return price, nil
		}
	}

	price, err := s.fetchPrice(ctx, symbol, currency, date, assetType)
	if err != nil {
		return 0, err
	}

	cache.SetPrice(symbol, currency, date, price)
	if date.Equal(today) {
		cache.MarkUpdatedToday(symbol, currency, today)
	}
	return price, nil
}

// PriceRange returns a daily price series for [from, to]. Cached series
// are reused when they cover the range boundaries within a 3 day
// tolerance; markets close over weekends and holidays, so counting
// points would reject perfectly complete data.
func (s *PriceService) PriceRange(ctx context.Context, cache *domain.PriceCache, symbol, currency string, from, to domain.Date, assetType domain.AssetType) ([]domain.PricePoint, error) {
	cached := cache.PriceRange(symbol, currency, from, to)
	if len(cached) >= 2 {
		first := cached[0].Date
		last := cached[len(cached)-1].Date
		if absDaysBetween(from, first) <= 3 && absDaysBetween(last, to) <= 3 {
			return cached, nil
		}
	}

	provs := s.currentRegistry().ProvidersFor(assetType)
	if len(provs) == 0 {
		return nil, &domain.NoProviderError{AssetType: assetType}
	}

	var lastErr error
	for _, p := range provs {
		points, err := p.PriceRange(ctx, symbol, currency, from, to)
		if err != nil {
			s.log.Warn().Err(err).Str("provider", p.Name()).Str("symbol", symbol).Msg("price range fetch failed, trying next provider")
			lastErr = err
			continue
		}
		cache.SetPrices(symbol, currency, points)
		return points, nil
	}
	return nil, lastErr
}

// fetchPrice tries providers in registration order until one returns a
// valid price. Invalid prices (NaN, infinite, negative) count as a
// provider failure and fall through to the next provider.
func (s *PriceService) fetchPrice(ctx context.Context, symbol, currency string, date domain.Date, assetType domain.AssetType) (float64, error) {
	provs := s.currentRegistry().ProvidersFor(assetType)
	if len(provs) == 0 {
		return 0, &domain.NoProviderError{AssetType: assetType}
	}

	today := domain.Today()
	var lastErr error

	for _, p := range provs {
		var price float64
		var err error
		if date.Before(today) {
			price, err = p.HistoricalPrice(ctx, symbol, currency, date)
		} else {
			price, err = p.CurrentPrice(ctx, symbol, currency)
		}
		if err != nil {
			s.log.Warn().Err(err).Str("provider", p.Name()).Str("symbol", symbol).Msg("price fetch failed, trying next provider")
			lastErr = err
			continue
		}
		if math.IsNaN(price) || math.IsInf(price, 0) || price < 0 {
			lastErr = &domain.APIError{
				Provider: p.Name(),
				Message:  fmt.Sprintf("invalid price returned for %s: %v (must be finite and non-negative)", symbol, price),
			}
			continue
		}
		return price, nil
	}
	return 0, lastErr
}

func absDaysBetween(a, b domain.Date) int {
	d := a.DaysUntil(b)
	if d < 0 {
		return -d
	}
	return d
}

package services

import (
	"context"
	"strings"

	"svtk/internal/domain"
)

// CurrencyService converts between currencies and values assets in a
// target fiat currency. Non-fiat providers quote in USD, so conversion
// to any other currency takes two legs: asset to USD, then USD to the
// target via the fiat rate provider.
type CurrencyService struct{}

// NewCurrencyService creates a currency service.
func NewCurrencyService() *CurrencyService {
	return &CurrencyService{}
}

// ConvertFiat converts an amount between two fiat currencies at the
// exchange rate on date. Identical currencies short-circuit to the
// input amount without a rate lookup.
func (c *CurrencyService) ConvertFiat(ctx context.Context, prices *PriceService, cache *domain.PriceCache, amount float64, fromCurrency, toCurrency string, date domain.Date) (float64, error) {
	from := strings.ToUpper(fromCurrency)
	to := strings.ToUpper(toCurrency)
	if from == to {
		return amount, nil
	}

	rate, err := prices.Price(ctx, cache, from, to, date, domain.AssetTypeFiat)
	if err != nil {
		return 0, err
	}
	return amount * rate, nil
}

// ConvertAssetToCurrency values an amount of an asset in the target
// fiat currency on date.
func (c *CurrencyService) ConvertAssetToCurrency(ctx context.Context, prices *PriceService, cache *domain.PriceCache, asset domain.Asset, amount float64, targetCurrency string, date domain.Date) (float64, error) {
	target := strings.ToUpper(targetCurrency)

	if asset.Type == domain.AssetTypeFiat {
		return c.ConvertFiat(ctx, prices, cache, amount, asset.Symbol, target, date)
	}

	priceUSD, err := prices.Price(ctx, cache, asset.Symbol, "USD", date, asset.Type)
	if err != nil {
		return 0, err
	}
	valueUSD := amount * priceUSD

	if target == "USD" {
		return valueUSD, nil
	}
	return c.ConvertFiat(ctx, prices, cache, valueUSD, "USD", target, date)
}

package tracker

import (
	"context"
	"fmt"

	"svtk/internal/domain"
)

// Holdings returns per-asset positions as of date.
func (t *Tracker) Holdings(date domain.Date) domain.Holdings {
	return t.portfolios.Holdings(t.portfolio, date)
}

// CurrentHoldings returns positions as of today.
func (t *Tracker) CurrentHoldings() domain.Holdings {
	return t.Holdings(domain.Today())
}

// PortfolioValue computes the total portfolio value in the default
// currency on date. Requires price data, live or cached.
func (t *Tracker) PortfolioValue(ctx context.Context, date domain.Date) (float64, error) {
	holdings := t.Holdings(date)
	currency := t.portfolio.Settings.DefaultCurrency

	total := 0.0
	for _, h := range holdings {
		value, err := t.currencies.ConvertAssetToCurrency(ctx, t.prices, t.portfolio.PriceCache, h.Asset, h.Amount, currency, date)
		if err != nil {
			return 0, err
		}
		total += value
	}
	return total, nil
}

// GeneratePortfolioChart produces the daily value series for the whole
// portfolio over [from, to] in the default currency.
func (t *Tracker) GeneratePortfolioChart(ctx context.Context, from, to domain.Date) ([]domain.ChartDataPoint, error) {
	if err := validateChartRange(from, to); err != nil {
		return nil, err
	}
	currency := t.portfolio.Settings.DefaultCurrency
	return t.charts.GeneratePortfolioChart(ctx, t.portfolio, t.prices, t.portfolio.PriceCache, from, to, currency)
}

// GenerateAssetChart produces the daily value series for one asset
// over [from, to] in the default currency.
func (t *Tracker) GenerateAssetChart(ctx context.Context, assetSymbol string, from, to domain.Date) ([]domain.ChartDataPoint, error) {
	if err := validateChartRange(from, to); err != nil {
		return nil, err
	}
	currency := t.portfolio.Settings.DefaultCurrency
	return t.charts.GenerateAssetChart(ctx, t.portfolio, t.prices, t.portfolio.PriceCache, assetSymbol, from, to, currency)
}

// Summary computes the full gain/loss and allocation breakdown as of
// date in the default currency.
func (t *Tracker) Summary(ctx context.Context, date domain.Date) (domain.PortfolioSummary, error) {
	currency := t.portfolio.Settings.DefaultCurrency
	return t.analytics.PortfolioSummary(ctx, t.portfolio, t.prices, t.portfolio.PriceCache, date, currency)
}

// AssetPrice returns the unit price of an asset in the default
// currency on date, cache first.
func (t *Tracker) AssetPrice(ctx context.Context, asset domain.Asset, date domain.Date) (float64, error) {
	currency := t.portfolio.Settings.DefaultCurrency
	return t.currencies.ConvertAssetToCurrency(ctx, t.prices, t.portfolio.PriceCache, asset, 1.0, currency, date)
}

func validateChartRange(from, to domain.Date) error {
	if from.After(to) {
		return &domain.ValidationError{
			Reason: fmt.Sprintf("'from' date (%s) must not be after 'to' date (%s)", from, to),
		}
	}
	if days := from.DaysUntil(to); days > maxChartRangeDays {
		return &domain.ValidationError{
			Reason: fmt.Sprintf("chart range of %d days exceeds maximum of %d days (10 years)", days, maxChartRangeDays),
		}
	}
	return nil
}

package services

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"svtk/internal/domain"
	"svtk/internal/providers"
)

func analyticsFixture(t *testing.T) (*AnalyticsService, *PriceService, *domain.Portfolio) {
	t.Helper()
	return NewAnalyticsService(zerolog.Nop()), NewPriceService(providers.NewRegistry(), zerolog.Nop()), domain.NewPortfolio()
}

func TestSummaryCombinesRealizedAndUnrealized(t *testing.T) {
	analytics, prices, p := analyticsFixture(t)
	p.PriceCache.SetPrice("BTC", "USD", date("2024-03-01"), 100)
	p.PriceCache.SetPrice("BTC", "USD", date("2024-03-02"), 120)
	p.PriceCache.SetPrice("BTC", "USD", date("2024-03-03"), 140)

	portfolios := NewPortfolioService()
	require.NoError(t, portfolios.AddEvent(p, domain.NewEvent(domain.EventTypeBuy, btc, 1, date("2024-03-01"))))
	require.NoError(t, portfolios.AddEvent(p, domain.NewEvent(domain.EventTypeSell, btc, 0.5, date("2024-03-02"))))

	summary, err := analytics.PortfolioSummary(context.Background(), p, prices, p.PriceCache, date("2024-03-03"), "USD")
	require.NoError(t, err)

	assert.Equal(t, 100.0, summary.TotalInvested)
	assert.Equal(t, 60.0, summary.TotalReturned)
	assert.Equal(t, 70.0, summary.TotalValue)
	// 70 held + 60 realized - 100 invested.
	assert.InDelta(t, 30.0, summary.TotalGainLoss, 1e-9)
	assert.InDelta(t, 30.0, summary.TotalReturnPct, 1e-9)
	assert.Equal(t, 2, summary.TotalEvents)

	require.NotNil(t, summary.InceptionDate)
	assert.Equal(t, date("2024-03-01"), *summary.InceptionDate)

	require.Len(t, summary.Holdings, 1)
	h := summary.Holdings[0]
	assert.Equal(t, "BTC", h.Asset.Symbol)
	assert.Equal(t, 0.5, h.Amount)
	assert.Equal(t, 100.0, h.CostBasisPerUnit)
	assert.InDelta(t, 30.0, h.GainLoss, 1e-9)
	assert.InDelta(t, 100.0, h.AllocationPct, 1e-9)
}

func TestSummaryAllocationSortedDescending(t *testing.T) {
	analytics, prices, p := analyticsFixture(t)
	p.PriceCache.SetPrice("BTC", "USD", date("2024-03-01"), 100)
	p.PriceCache.SetPrice("ETH", "USD", date("2024-03-01"), 10)

	portfolios := NewPortfolioService()
	eth := domain.NewCrypto("ETH", "Ethereum")
	require.NoError(t, portfolios.AddEvent(p, domain.NewEvent(domain.EventTypeBuy, btc, 1, date("2024-03-01"))))
	require.NoError(t, portfolios.AddEvent(p, domain.NewEvent(domain.EventTypeBuy, eth, 30, date("2024-03-01"))))

	summary, err := analytics.PortfolioSummary(context.Background(), p, prices, p.PriceCache, date("2024-03-01"), "USD")
	require.NoError(t, err)

	require.Len(t, summary.Holdings, 2)
	// ETH at 300 outweighs BTC at 100.
	assert.Equal(t, "ETH", summary.Holdings[0].Asset.Symbol)
	assert.InDelta(t, 75.0, summary.Holdings[0].AllocationPct, 1e-9)
	assert.Equal(t, "BTC", summary.Holdings[1].Asset.Symbol)
	assert.InDelta(t, 25.0, summary.Holdings[1].AllocationPct, 1e-9)

	total := summary.Holdings[0].AllocationPct + summary.Holdings[1].AllocationPct
	assert.InDelta(t, 100.0, total, 1e-9)
}

func TestSummaryCostBasisAveragesBuys(t *testing.T) {
	analytics, prices, p := analyticsFixture(t)
	p.PriceCache.SetPrice("BTC", "USD", date("2024-03-01"), 100)
	p.PriceCache.SetPrice("BTC", "USD", date("2024-03-02"), 200)

	portfolios := NewPortfolioService()
	require.NoError(t, portfolios.AddEvent(p, domain.NewEvent(domain.EventTypeBuy, btc, 1, date("2024-03-01"))))
	require.NoError(t, portfolios.AddEvent(p, domain.NewEvent(domain.EventTypeBuy, btc, 1, date("2024-03-02"))))

	summary, err := analytics.PortfolioSummary(context.Background(), p, prices, p.PriceCache, date("2024-03-02"), "USD")
	require.NoError(t, err)

	require.Len(t, summary.Holdings, 1)
	// (100 + 200) / 2 units.
	assert.Equal(t, 150.0, summary.Holdings[0].CostBasisPerUnit)
	assert.Equal(t, 300.0, summary.Holdings[0].TotalInvested)
}

func TestSummaryEmptyPortfolio(t *testing.T) {
	analytics, prices, p := analyticsFixture(t)

	summary, err := analytics.PortfolioSummary(context.Background(), p, prices, p.PriceCache, date("2024-03-01"), "USD")
	require.NoError(t, err)

	assert.Zero(t, summary.TotalValue)
	assert.Zero(t, summary.TotalInvested)
	assert.Zero(t, summary.TotalGainLoss)
	assert.Zero(t, summary.TotalReturnPct)
	assert.Nil(t, summary.InceptionDate)
	assert.Empty(t, summary.Holdings)
}

func TestSummaryMissingPriceFails(t *testing.T) {
	analytics, prices, p := analyticsFixture(t)

	portfolios := NewPortfolioService()
	require.NoError(t, portfolios.AddEvent(p, domain.NewEvent(domain.EventTypeBuy, btc, 1, date("2024-03-01"))))

	_, err := analytics.PortfolioSummary(context.Background(), p, prices, p.PriceCache, date("2024-03-01"), "USD")
	var noProvider *domain.NoProviderError
	assert.ErrorAs(t, err, &noProvider)
}

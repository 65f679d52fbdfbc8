package services

import (
	"context"
	"sort"

	"github.com/rs/zerolog"

	"svtk/internal/domain"
)

// AnalyticsService computes portfolio performance numbers: gain/loss,
// returns and allocation breakdowns. Cost basis is the market price on
// the event date, so all figures derive from cached or fetched prices.
type AnalyticsService struct {
	portfolios *PortfolioService
	currencies *CurrencyService
	log        zerolog.Logger
}

// NewAnalyticsService creates an analytics service.
func NewAnalyticsService(log zerolog.Logger) *AnalyticsService {
	return &AnalyticsService{
		portfolios: NewPortfolioService(),
		currencies: NewCurrencyService(),
		log:        log.With().Str("service", "analytics").Logger(),
	}
}

// PortfolioSummary computes the full summary as of date in currency.
//
// Gain/loss is current value plus sell proceeds minus total invested,
// so realized and unrealized performance combine into one number.
func (s *AnalyticsService) PortfolioSummary(ctx context.Context, p *domain.Portfolio, prices *PriceService, cache *domain.PriceCache, date domain.Date, currency string) (domain.PortfolioSummary, error) {
	holdings := s.portfolios.Holdings(p, date)

	summaries := make([]domain.HoldingSummary, 0, len(holdings))
	totalValue := 0.0
	for _, h := range holdings {
		currentValue, err := s.currencies.ConvertAssetToCurrency(ctx, prices, cache, h.Asset, h.Amount, currency, date)
		if err != nil {
			return domain.PortfolioSummary{}, err
		}
		totalValue += currentValue
		summaries = append(summaries, domain.HoldingSummary{
			Asset:        h.Asset,
			Amount:       h.Amount,
			CurrentValue: currentValue,
		})
	}

	totalInvested := 0.0
	totalReturned := 0.0
	assetInvested := make(map[domain.AssetKey]float64)
	assetReturned := make(map[domain.AssetKey]float64)
	assetUnitsBought := make(map[domain.AssetKey]float64)

	var inception *domain.Date
	for _, event := range p.Events {
		d := event.Date
		if inception == nil || d.Before(*inception) {
			inception = &d
		}
		if event.Date.After(date) {
			continue
		}

		eventValue, err := s.currencies.ConvertAssetToCurrency(ctx, prices, cache, event.Asset, event.Amount, currency, event.Date)
		if err != nil {
			return domain.PortfolioSummary{}, err
		}

		key := event.Asset.Key()
		switch event.Type {
		case domain.EventTypeBuy:
			totalInvested += eventValue
			assetInvested[key] += eventValue
			assetUnitsBought[key] += event.Amount
		case domain.EventTypeSell:
			totalReturned += eventValue
			assetReturned[key] += eventValue
		}
	}

	for i := range summaries {
		key := summaries[i].Asset.Key()
		invested := assetInvested[key]
		returned := assetReturned[key]
		unitsBought := assetUnitsBought[key]

		summaries[i].TotalInvested = invested
		if unitsBought > 0 {
			summaries[i].CostBasisPerUnit = invested / unitsBought
		}
		summaries[i].GainLoss = summaries[i].CurrentValue + returned - invested
		if invested > 0 {
			summaries[i].ReturnPct = summaries[i].GainLoss / invested * 100
		}
		if totalValue > 0 {
			summaries[i].AllocationPct = summaries[i].CurrentValue / totalValue * 100
		}
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].AllocationPct > summaries[j].AllocationPct
	})

	totalGainLoss := totalValue + totalReturned - totalInvested
	totalReturnPct := 0.0
	if totalInvested > 0 {
		totalReturnPct = totalGainLoss / totalInvested * 100
	}

	return domain.PortfolioSummary{
		AsOfDate:       date,
		Currency:       currency,
		TotalEvents:    len(p.Events),
		InceptionDate:  inception,
		TotalValue:     totalValue,
		TotalInvested:  totalInvested,
		TotalReturned:  totalReturned,
		TotalGainLoss:  totalGainLoss,
		TotalReturnPct: totalReturnPct,
		Holdings:       summaries,
	}, nil
}

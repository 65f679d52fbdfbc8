package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"svtk/internal/domain"
)

// ChartService produces chart-ready daily value series. All numbers are
// computed here so a frontend only has to render.
type ChartService struct {
	portfolios *PortfolioService
	currencies *CurrencyService
	log        zerolog.Logger
}

// NewChartService creates a chart service.
func NewChartService(log zerolog.Logger) *ChartService {
	return &ChartService{
		portfolios: NewPortfolioService(),
		currencies: NewCurrencyService(),
		log:        log.With().Str("service", "chart").Logger(),
	}
}

// GeneratePortfolioChart computes the total portfolio value for every
// day in [from, to], in the given currency, with buy/sell annotations.
//
// Holdings advance incrementally as days pass, O(days + events) rather
// than refolding the log per day. On days where no held asset has a
// price (weekends, holidays) the last known value carries forward.
func (s *ChartService) GeneratePortfolioChart(ctx context.Context, p *domain.Portfolio, prices *PriceService, cache *domain.PriceCache, from, to domain.Date, currency string) ([]domain.ChartDataPoint, error) {
	holdings := s.portfolios.Holdings(p, from)
	eventsByDate := indexEventsByDate(p.Events, from, to, "")

	var chartData []domain.ChartDataPoint
	lastKnownValue := 0.0
	firstDay := true

	for date := from; !date.After(to); date = date.AddDays(1) {
		// Events on the first day are already inside the initial holdings.
		if !firstDay {
			for _, event := range eventsByDate[date] {
				key := event.Asset.Key()
				h := holdings[key]
				h.Asset = event.Asset
				if event.Type == domain.EventTypeBuy {
					h.Amount += event.Amount
				} else {
					h.Amount -= event.Amount
				}
				if h.Amount <= holdingEpsilon {
					delete(holdings, key)
				} else {
					holdings[key] = h
				}
			}
		}
		firstDay = false

		value := 0.0
		anyPriceFound := false
		for _, h := range holdings {
			v, err := s.currencies.ConvertAssetToCurrency(ctx, prices, cache, h.Asset, h.Amount, currency, date)
			if err != nil {
				continue
			}
			value += v
			anyPriceFound = true
		}

		if len(holdings) > 0 && !anyPriceFound {
			value = lastKnownValue
		} else {
			lastKnownValue = value
		}

		chartData = append(chartData, domain.ChartDataPoint{
			Date:           date,
			PortfolioValue: value,
			Events:         s.annotate(ctx, prices, cache, eventsByDate[date], currency, date),
		})
	}
	return chartData, nil
}

// GenerateAssetChart computes the daily value of a single asset
// position over [from, to], with that asset's events overlaid.
func (s *ChartService) GenerateAssetChart(ctx context.Context, p *domain.Portfolio, prices *PriceService, cache *domain.PriceCache, assetSymbol string, from, to domain.Date, currency string) ([]domain.ChartDataPoint, error) {
	symbol := strings.ToUpper(assetSymbol)

	var asset domain.Asset
	found := false
	for _, e := range p.Events {
		if e.Asset.Symbol == symbol {
			asset = e.Asset
			found = true
			break
		}
	}
	if !found {
		return nil, &domain.ValidationError{Reason: fmt.Sprintf("asset %s not found in portfolio events", assetSymbol)}
	}

	amountHeld := s.portfolios.Holdings(p, from)[asset.Key()].Amount
	eventsByDate := indexEventsByDate(p.Events, from, to, symbol)

	var chartData []domain.ChartDataPoint
	lastKnownValue := 0.0
	firstDay := true

	for date := from; !date.After(to); date = date.AddDays(1) {
		if !firstDay {
			for _, event := range eventsByDate[date] {
				if event.Type == domain.EventTypeBuy {
					amountHeld += event.Amount
				} else {
					amountHeld -= event.Amount
				}
			}
			if amountHeld < holdingEpsilon {
				amountHeld = 0
			}
		}
		firstDay = false

		var value float64
		if amountHeld > 0 {
			v, err := s.currencies.ConvertAssetToCurrency(ctx, prices, cache, asset, amountHeld, currency, date)
			if err != nil {
				value = lastKnownValue
			} else {
				value = v
				lastKnownValue = v
			}
		} else {
			lastKnownValue = 0
		}

		chartData = append(chartData, domain.ChartDataPoint{
			Date:           date,
			PortfolioValue: value,
			Events:         s.annotate(ctx, prices, cache, eventsByDate[date], currency, date),
		})
	}
	return chartData, nil
}

// annotate values each event at its date's price. A missing price maps
// to zero rather than failing the whole chart.
func (s *ChartService) annotate(ctx context.Context, prices *PriceService, cache *domain.PriceCache, events []domain.Event, currency string, date domain.Date) []domain.ChartEvent {
	var out []domain.ChartEvent
	for _, event := range events {
		value, err := s.currencies.ConvertAssetToCurrency(ctx, prices, cache, event.Asset, event.Amount, currency, date)
		if err != nil {
			value = 0
		}
		out = append(out, domain.ChartEvent{
			Type:   event.Type,
			Symbol: event.Asset.Symbol,
			Amount: event.Amount,
			Value:  value,
		})
	}
	return out
}

// indexEventsByDate buckets events within [from, to] by date, optionally
// filtered to a single symbol.
func indexEventsByDate(events []domain.Event, from, to domain.Date, symbol string) map[domain.Date][]domain.Event {
	byDate := make(map[domain.Date][]domain.Event)
	for _, e := range events {
		if symbol != "" && e.Asset.Symbol != symbol {
			continue
		}
		if e.Date.Before(from) || e.Date.After(to) {
			continue
		}
		byDate[e.Date] = append(byDate[e.Date], e)
	}
	return byDate
}

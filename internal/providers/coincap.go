package providers

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"svtk/internal/domain"
)

// coinCapIDs seeds the symbol -> CoinCap asset id map with common
// coins. Unknown symbols are resolved dynamically via the search
// endpoint and cached for the lifetime of the provider.
var coinCapIDs = map[string]string{
	"BTC":   "bitcoin",
	"ETH":   "ethereum",
	"USDT":  "tether",
	"USDC":  "usd-coin",
	"BNB":   "binance-coin",
	"XRP":   "xrp",
	"ADA":   "cardano",
	"SOL":   "solana",
	"DOGE":  "dogecoin",
	"DOT":   "polkadot",
	"MATIC": "polygon",
	"LTC":   "litecoin",
	"AVAX":  "avalanche",
	"LINK":  "chainlink",
	"UNI":   "uniswap",
	"ATOM":  "cosmos",
	"XLM":   "stellar",
	"ALGO":  "algorand",
	"NEAR":  "near-protocol",
	"SHIB":  "shiba-inu",
	"TRX":   "tron",
	"DAI":   "multi-collateral-dai",
	"AAVE":  "aave",
	"FIL":   "filecoin",
	"ETC":   "ethereum-classic",
	"XMR":   "monero",
	"XTZ":   "tezos",
	"ZEC":   "zcash",
}

// CoinCap provides cryptocurrency prices from the CoinCap API.
// Free, no API key, prices quoted in USD.
type CoinCap struct {
	baseURL string
	client  *http.Client
	log     zerolog.Logger

	mu        sync.Mutex
	symbolMap map[string]string
}

// NewCoinCap creates a CoinCap provider.
func NewCoinCap(log zerolog.Logger) *CoinCap {
	symbolMap := make(map[string]string, len(coinCapIDs))
	for sym, id := range coinCapIDs {
		symbolMap[sym] = id
	}
	return &CoinCap{
		baseURL:   "https://api.coincap.io/v2",
		client:    newHTTPClient(),
		log:       log.With().Str("provider", "coincap").Logger(),
		symbolMap: symbolMap,
	}
}

// Name implements Provider.
func (c *CoinCap) Name() string { return "CoinCap" }

// SupportedAssetTypes implements Provider.
func (c *CoinCap) SupportedAssetTypes() []domain.AssetType {
	return []domain.AssetType{domain.AssetTypeCrypto}
}

// resolveID maps a ticker symbol like BTC to a CoinCap asset id like
// "bitcoin", consulting the search endpoint for symbols not yet known.
func (c *CoinCap) resolveID(ctx context.Context, symbol string) (string, error) {
	upper := strings.ToUpper(symbol)

	c.mu.Lock()
	if id, ok := c.symbolMap[upper]; ok {
		c.mu.Unlock()
		return id, nil
	}
	c.mu.Unlock()

	var resp struct {
		Data []struct {
			ID     string `json:"id"`
			Symbol string `json:"symbol"`
		} `json:"data"`
	}
	url := fmt.Sprintf("%s/assets?search=%s&limit=5", c.baseURL, upper)
	if err := fetchJSON(ctx, c.client, c.Name(), url, nil, &resp); err != nil {
		return "", err
	}

	for _, a := range resp.Data {
		if strings.ToUpper(a.Symbol) == upper {
			c.mu.Lock()
			c.symbolMap[upper] = a.ID
			c.mu.Unlock()
			c.log.Debug().Str("symbol", upper).Str("id", a.ID).Msg("Resolved CoinCap asset id")
			return a.ID, nil
		}
	}
	return "", &domain.APIError{Provider: c.Name(), Message: fmt.Sprintf("no CoinCap asset found for symbol %s", upper)}
}

// CurrentPrice implements Provider. CoinCap quotes in USD; the currency
// service handles conversion to other targets.
func (c *CoinCap) CurrentPrice(ctx context.Context, symbol, _ string) (float64, error) {
	id, err := c.resolveID(ctx, symbol)
	if err != nil {
		return 0, err
	}

	var resp struct {
		Data struct {
			PriceUSD string `json:"priceUsd"`
		} `json:"data"`
	}
	url := fmt.Sprintf("%s/assets/%s", c.baseURL, id)
	if err := fetchJSON(ctx, c.client, c.Name(), url, nil, &resp); err != nil {
		return 0, err
	}

	if resp.Data.PriceUSD == "" {
		return 0, &domain.APIError{Provider: c.Name(), Message: fmt.Sprintf("no price data for %s", symbol)}
	}
	price, err := strconv.ParseFloat(resp.Data.PriceUSD, 64)
	if err != nil {
		return 0, &domain.APIError{Provider: c.Name(), Message: fmt.Sprintf("invalid price format for %s: %v", symbol, err)}
	}
	return price, nil
}

// HistoricalPrice implements Provider.
func (c *CoinCap) HistoricalPrice(ctx context.Context, symbol, currency string, date domain.Date) (float64, error) {
	points, err := c.history(ctx, symbol, date, date)
	if err != nil {
		return 0, err
	}
	if len(points) == 0 {
		return 0, &domain.PriceNotAvailableError{Symbol: symbol, Currency: currency, Date: date.String()}
	}
	return points[0].Price, nil
}

// PriceRange implements Provider.
func (c *CoinCap) PriceRange(ctx context.Context, symbol, _ string, from, to domain.Date) ([]domain.PricePoint, error) {
	return c.history(ctx, symbol, from, to)
}

func (c *CoinCap) history(ctx context.Context, symbol string, from, to domain.Date) ([]domain.PricePoint, error) {
	id, err := c.resolveID(ctx, symbol)
	if err != nil {
		return nil, err
	}

	start := from.UnixMilli()
	end := to.AddDays(1).UnixMilli() - 1

	var resp struct {
		Data []struct {
			PriceUSD string `json:"priceUsd"`
			Time     int64  `json:"time"`
		} `json:"data"`
	}
	url := fmt.Sprintf("%s/assets/%s/history?interval=d1&start=%d&end=%d", c.baseURL, id, start, end)
	if err := fetchJSON(ctx, c.client, c.Name(), url, nil, &resp); err != nil {
		return nil, err
	}

	points := make([]domain.PricePoint, 0, len(resp.Data))
	for _, p := range resp.Data {
		price, err := strconv.ParseFloat(p.PriceUSD, 64)
		if err != nil {
			continue
		}
		points = append(points, domain.PricePoint{Date: domain.DateFromUnixMilli(p.Time), Price: price})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	return points, nil
}

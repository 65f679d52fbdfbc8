package tracker

import "svtk/internal/domain"

// CacheTotalEntries returns the number of cached price points.
func (t *Tracker) CacheTotalEntries() int {
	return t.portfolio.PriceCache.TotalEntries()
}

// CacheAssetCount returns the number of distinct symbol/currency pairs
// in the cache.
func (t *Tracker) CacheAssetCount() int {
	return t.portfolio.PriceCache.AssetCount()
}

// CachePruneBefore drops cached points older than before and returns
// how many were removed.
func (t *Tracker) CachePruneBefore(before domain.Date) int {
	removed := t.portfolio.PriceCache.PruneBefore(before)
	if removed > 0 {
		t.dirty = true
	}
	return removed
}

// CacheClear drops all cached price data.
func (t *Tracker) CacheClear() {
	t.portfolio.PriceCache.Clear()
	t.dirty = true
}

// CachedPrice looks up a cached price without hitting any provider.
func (t *Tracker) CachedPrice(symbol, currency string, date domain.Date) (float64, bool) {
	return t.portfolio.PriceCache.Price(symbol, currency, date)
}

// CachedPair is one symbol/currency combination present in the cache.
type CachedPair struct {
	Symbol   string `json:"symbol"`
	Currency string `json:"currency"`
}

// CachedPairs lists every symbol/currency pair in the cache.
func (t *Tracker) CachedPairs() []CachedPair {
	pairs := make([]CachedPair, 0, len(t.portfolio.PriceCache.Entries))
	for key := range t.portfolio.PriceCache.Entries {
		symbol, currency := domain.SplitCacheKey(key)
		pairs = append(pairs, CachedPair{Symbol: symbol, Currency: currency})
	}
	return pairs
}

// LastRefreshed returns the date a pair's today-price was last fetched.
func (t *Tracker) LastRefreshed(symbol, currency string) (domain.Date, bool) {
	return t.portfolio.PriceCache.LastRefreshed(symbol, currency)
}

// SetCachedPrice inserts a price directly into the cache, useful for
// offline use or importing historical data.
func (t *Tracker) SetCachedPrice(symbol, currency string, date domain.Date, price float64) {
	t.portfolio.PriceCache.SetPrice(symbol, currency, date, price)
	t.dirty = true
}

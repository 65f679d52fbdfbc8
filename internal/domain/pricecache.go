package domain

import (
	"sort"
	"strings"
)

// PricePoint is a single (date, price) sample.
type PricePoint struct {
	Date  Date    `json:"date" msgpack:"date"`
	Price float64 `json:"price" msgpack:"price"`
}

// PriceCache is the local cache of historical and current prices,
// persisted inside the encrypted portfolio file so that:
//   - historical prices (date < today) are fetched once and never again
//   - the tracker works fully offline on cached data
//   - today's price is refreshed at most once per local day
//
// Keys are "SYMBOL|CURRENCY" with both parts uppercased; each series is
// kept strictly ascending by date.
type PriceCache struct {
	Entries     map[string][]PricePoint `msgpack:"entries"`
	LastUpdated map[string]Date         `msgpack:"last_updated"`
}

// NewPriceCache creates an empty cache.
func NewPriceCache() *PriceCache {
	return &PriceCache{
		Entries:     make(map[string][]PricePoint),
		LastUpdated: make(map[string]Date),
	}
}

// CacheKey builds the canonical uppercase key for a (symbol, currency) pair.
func CacheKey(symbol, currency string) string {
	return strings.ToUpper(symbol) + "|" + strings.ToUpper(currency)
}

// SplitCacheKey splits a canonical key back into (symbol, currency).
func SplitCacheKey(key string) (symbol, currency string) {
	if idx := strings.IndexByte(key, '|'); idx >= 0 {
		return key[:idx], key[idx+1:]
	}
	return key, ""
}

// searchDate returns the index of the first point with date >= target.
func searchDate(points []PricePoint, target Date) int {
	return sort.Search(len(points), func(i int) bool {
		return !points[i].Date.Before(target)
	})
}

// Price returns the cached price for an exact (symbol, currency, date)
// match. Lookups are case-insensitive.
func (c *PriceCache) Price(symbol, currency string, date Date) (float64, bool) {
	points := c.Entries[CacheKey(symbol, currency)]
	idx := searchDate(points, date)
	if idx < len(points) && points[idx].Date.Equal(date) {
		return points[idx].Price, true
	}
	return 0, false
}

// SetPrice inserts or updates a price point, keeping the series sorted
// by date. The service layer guarantees prices are finite and >= 0.
func (c *PriceCache) SetPrice(symbol, currency string, date Date, price float64) {
	if c.Entries == nil {
		c.Entries = make(map[string][]PricePoint)
	}
	key := CacheKey(symbol, currency)
	points := c.Entries[key]
	idx := searchDate(points, date)
	if idx < len(points) && points[idx].Date.Equal(date) {
		points[idx].Price = price
		c.Entries[key] = points
		return
	}
	points = append(points, PricePoint{})
	copy(points[idx+1:], points[idx:])
	points[idx] = PricePoint{Date: date, Price: price}
	c.Entries[key] = points
}

// SetPrices inserts multiple points, e.g. from a range fetch.
func (c *PriceCache) SetPrices(symbol, currency string, points []PricePoint) {
	for _, p := range points {
		c.SetPrice(symbol, currency, p.Date, p.Price)
	}
}

// PriceRange returns all cached points within [from, to] inclusive.
func (c *PriceCache) PriceRange(symbol, currency string, from, to Date) []PricePoint {
	points := c.Entries[CacheKey(symbol, currency)]
	start := searchDate(points, from)
	end := searchDate(points, to.AddDays(1))
	if start >= end {
		return nil
	}
	out := make([]PricePoint, end-start)
	copy(out, points[start:end])
	return out
}

// IsTodayFresh reports whether the current price for the pair was
// already refreshed on the given day.
func (c *PriceCache) IsTodayFresh(symbol, currency string, today Date) bool {
	last, ok := c.LastUpdated[CacheKey(symbol, currency)]
	return ok && last.Equal(today)
}

// MarkUpdatedToday records that the current price was refreshed today.
func (c *PriceCache) MarkUpdatedToday(symbol, currency string, today Date) {
	if c.LastUpdated == nil {
		c.LastUpdated = make(map[string]Date)
	}
	c.LastUpdated[CacheKey(symbol, currency)] = today
}

// LastRefreshed returns the last refresh date for a pair, if any.
func (c *PriceCache) LastRefreshed(symbol, currency string) (Date, bool) {
	d, ok := c.LastUpdated[CacheKey(symbol, currency)]
	return d, ok
}

// TotalEntries returns the number of cached points across all pairs.
func (c *PriceCache) TotalEntries() int {
	total := 0
	for _, points := range c.Entries {
		total += len(points)
	}
	return total
}

// AssetCount returns the number of distinct (symbol, currency) pairs.
func (c *PriceCache) AssetCount() int {
	return len(c.Entries)
}

// PruneBefore removes every point dated before the cutoff and returns
// the number removed. Series that become empty are dropped entirely,
// and last-refresh markers are dropped when their series is gone or
// their refresh date is older than the cutoff.
func (c *PriceCache) PruneBefore(before Date) int {
	removed := 0
	for key, points := range c.Entries {
		split := searchDate(points, before)
		if split == 0 {
			continue
		}
		removed += split
		if split == len(points) {
			delete(c.Entries, key)
			continue
		}
		c.Entries[key] = append([]PricePoint(nil), points[split:]...)
	}
	for key, updated := range c.LastUpdated {
		if _, ok := c.Entries[key]; !ok || updated.Before(before) {
			delete(c.LastUpdated, key)
		}
	}
	return removed
}

// Clear drops all cached data.
func (c *PriceCache) Clear() {
	c.Entries = make(map[string][]PricePoint)
	c.LastUpdated = make(map[string]Date)
}

// Clone returns a deep copy of the cache.
func (c *PriceCache) Clone() *PriceCache {
	clone := NewPriceCache()
	for key, points := range c.Entries {
		clone.Entries[key] = append([]PricePoint(nil), points...)
	}
	for key, d := range c.LastUpdated {
		clone.LastUpdated[key] = d
	}
	return clone
}

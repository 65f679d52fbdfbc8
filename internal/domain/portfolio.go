package domain

// Portfolio is the main data container. Everything in here gets
// serialized, encrypted and written to the portable .svtk file:
// the event log (ascending date order), user settings, the price cache
// and the trash (undo buffer for removed events).
type Portfolio struct {
	Events     []Event     `json:"events" msgpack:"events"`
	Settings   Settings    `json:"settings" msgpack:"settings"`
	PriceCache *PriceCache `json:"price_cache" msgpack:"price_cache"`
	Trash      []Event     `json:"trash" msgpack:"trash"`
}

// NewPortfolio creates an empty portfolio with default settings.
func NewPortfolio() *Portfolio {
	return &Portfolio{
		Settings:   DefaultSettings(),
		PriceCache: NewPriceCache(),
	}
}

// Clone returns a deep copy, used for all-or-nothing bulk mutations.
func (p *Portfolio) Clone() *Portfolio {
	clone := &Portfolio{
		Events:     append([]Event(nil), p.Events...),
		Settings:   p.Settings.Clone(),
		PriceCache: NewPriceCache(),
		Trash:      append([]Event(nil), p.Trash...),
	}
	if p.PriceCache != nil {
		clone.PriceCache = p.PriceCache.Clone()
	}
	return clone
}

// Normalize repairs nil members after deserialization so callers never
// see a portfolio without a cache or settings maps.
func (p *Portfolio) Normalize() {
	if p.PriceCache == nil {
		p.PriceCache = NewPriceCache()
	}
	if p.PriceCache.Entries == nil {
		p.PriceCache.Entries = make(map[string][]PricePoint)
	}
	if p.PriceCache.LastUpdated == nil {
		p.PriceCache.LastUpdated = make(map[string]Date)
	}
	if p.Settings.APIKeys == nil {
		p.Settings.APIKeys = make(map[string]string)
	}
}

// Holding is a per-asset net position.
type Holding struct {
	Asset  Asset   `json:"asset"`
	Amount float64 `json:"amount"`
}

// Holdings maps asset identity to the net position held.
type Holdings map[AssetKey]Holding

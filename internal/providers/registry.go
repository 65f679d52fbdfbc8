package providers

import (
	"github.com/rs/zerolog"

	"svtk/internal/domain"
)

// Registry is an ordered list of price providers. Order matters: it is
// the fallback order when a lookup fails.
type Registry struct {
	providers []Provider
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// NewDefaultRegistry wires the standard provider set:
//
//   - CoinCap for crypto (no key)
//   - Frankfurter for fiat rates (ECB data, no key)
//   - metals.dev for precious metals, only when the "metals_dev" key is set
//   - Yahoo Finance for stocks (no key, primary)
//   - Alpha Vantage for stocks, only when the "alphavantage" key is set (fallback)
func NewDefaultRegistry(apiKeys map[string]string, log zerolog.Logger) *Registry {
	r := NewRegistry()

	r.Register(NewCoinCap(log))
	r.Register(NewFrankfurter(log))

	if key, ok := apiKeys["metals_dev"]; ok && key != "" {
		r.Register(NewMetalsDev(key, log))
	}

	r.Register(NewYahooFinance(log))

	if key, ok := apiKeys["alphavantage"]; ok && key != "" {
		r.Register(NewAlphaVantage(key, log))
	}

	return r
}

// Register appends a provider. Later registrations are later fallbacks.
func (r *Registry) Register(p Provider) {
	r.providers = append(r.providers, p)
}

// ProviderFor returns the first provider supporting the asset type.
func (r *Registry) ProviderFor(assetType domain.AssetType) (Provider, bool) {
	for _, p := range r.providers {
		if supports(p, assetType) {
			return p, true
		}
	}
	return nil, false
}

// ProvidersFor returns every provider supporting the asset type, in
// registration order. Used for sequential fallback.
func (r *Registry) ProvidersFor(assetType domain.AssetType) []Provider {
	var out []Provider
	for _, p := range r.providers {
		if supports(p, assetType) {
			out = append(out, p)
		}
	}
	return out
}

func supports(p Provider, assetType domain.AssetType) bool {
	for _, t := range p.SupportedAssetTypes() {
		if t == assetType {
			return true
		}
	}
	return false
}

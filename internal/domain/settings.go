package domain

// Settings holds user configuration, persisted inside the encrypted
// portfolio file. There are no environment variables or config files
// for the engine itself.
type Settings struct {
	// DefaultCurrency is the three-letter display currency, uppercase.
	DefaultCurrency string `json:"default_currency" msgpack:"default_currency"`

	// APIKeys maps provider names ("metals_dev", "alphavantage") to secrets.
	APIKeys map[string]string `json:"api_keys" msgpack:"api_keys"`
}

// DefaultSettings returns settings for a fresh portfolio.
func DefaultSettings() Settings {
	return Settings{
		DefaultCurrency: "USD",
		APIKeys:         make(map[string]string),
	}
}

// Clone returns a deep copy of the settings.
func (s Settings) Clone() Settings {
	keys := make(map[string]string, len(s.APIKeys))
	for k, v := range s.APIKeys {
		keys[k] = v
	}
	return Settings{DefaultCurrency: s.DefaultCurrency, APIKeys: keys}
}

package domain

// ChartDataPoint is a single day on a portfolio chart. The engine
// computes all values; a frontend only renders them.
type ChartDataPoint struct {
	Date           Date         `json:"date"`
	PortfolioValue float64      `json:"portfolio_value"`
	Events         []ChartEvent `json:"events"`
}

// ChartEvent annotates a chart day with a buy/sell that happened on it,
// valued in the display currency.
type ChartEvent struct {
	Type   EventType `json:"event_type"`
	Symbol string    `json:"asset_symbol"`
	Amount float64   `json:"amount"`
	Value  float64   `json:"value_in_default_currency"`
}

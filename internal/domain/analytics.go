package domain

// PortfolioSummary is a point-in-time snapshot of the whole portfolio
// in the display currency.
type PortfolioSummary struct {
	AsOfDate      Date    `json:"as_of_date"`
	Currency      string  `json:"currency"`
	TotalEvents   int     `json:"total_events"`
	InceptionDate *Date   `json:"inception_date"`
	TotalValue    float64 `json:"total_value"`
	TotalInvested float64 `json:"total_invested"`
	TotalReturned float64 `json:"total_returned"`
	// TotalGainLoss = TotalValue + TotalReturned - TotalInvested
	TotalGainLoss  float64 `json:"total_gain_loss"`
	TotalReturnPct float64 `json:"total_return_pct"`
	// Holdings sorted by allocation percentage, descending.
	Holdings []HoldingSummary `json:"holdings"`
}

// HoldingSummary is the per-asset breakdown within a PortfolioSummary.
type HoldingSummary struct {
	Asset            Asset   `json:"asset"`
	Amount           float64 `json:"amount"`
	CurrentValue     float64 `json:"current_value"`
	TotalInvested    float64 `json:"total_invested"`
	CostBasisPerUnit float64 `json:"cost_basis_per_unit"`
	GainLoss         float64 `json:"gain_loss"`
	ReturnPct        float64 `json:"return_pct"`
	AllocationPct    float64 `json:"allocation_pct"`
}

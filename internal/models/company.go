package models

// ReferenceRatings are third-party research gradings shown alongside a
// ticker. They are read-only: sync copies them from the local ratings
// store, never from the market-data provider.
type ReferenceRatings struct {
	SecurityRank           string `json:"security_rank,omitempty"`
	EarningsPredictability string `json:"earnings_predictability,omitempty"`
	PriceGrowthPersistence string `json:"price_growth_persistence,omitempty"`
	PriceStability         string `json:"price_stability,omitempty"`
}

// IsZero reports whether no rating values are present.
func (r ReferenceRatings) IsZero() bool {
	return r == ReferenceRatings{}
}

// CompanyInfo holds descriptive company data for a ticker.
type CompanyInfo struct {
	Symbol    string  `json:"symbol"`
	Name      string  `json:"name"`
	Sector    string  `json:"sector,omitempty"`
	Industry  string  `json:"industry,omitempty"`
	Exchange  string  `json:"exchange,omitempty"`
	Currency  string  `json:"currency,omitempty"`
	Country   string  `json:"country,omitempty"`
	Website   string  `json:"website,omitempty"`
	LogoURL   string  `json:"logo_url,omitempty"`
	Beta      float64 `json:"beta,omitempty"`
	MarketCap float64 `json:"market_cap,omitempty"`

	Ratings ReferenceRatings `json:"ratings,omitempty"`
}

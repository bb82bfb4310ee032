package models

// TickerData is the bundle of provider data fetched for one ticker
// before merging. Fields the fetch did not cover are nil/zero.
type TickerData struct {
	Ticker       string         `json:"ticker"`
	Annual       []AnnualRecord `json:"annual,omitempty"`
	Info         *CompanyInfo   `json:"info,omitempty"`
	CurrentPrice float64        `json:"current_price,omitempty"`
	TTMEps       float64        `json:"ttm_eps,omitempty"` // Trailing-12-month EPS, for the YTD consistency check
	Warnings     []string       `json:"warnings,omitempty"`
}

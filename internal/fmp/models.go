package fmp

// Profile is the company profile returned by /profile/{symbol}.
type Profile struct {
	Symbol            string  `json:"symbol"`
	CompanyName       string  `json:"companyName"`
	Sector            string  `json:"sector"`
	Industry          string  `json:"industry"`
	ExchangeShortName string  `json:"exchangeShortName"`
	Currency          string  `json:"currency"`
	Country           string  `json:"country"`
	Website           string  `json:"website"`
	Image             string  `json:"image"`
	Beta              float64 `json:"beta"`
	MarketCap         float64 `json:"mktCap"`
	Price             float64 `json:"price"`
}

// Quote is the real-time quote returned by /quote/{symbol}.
type Quote struct {
	Symbol            string  `json:"symbol"`
	Price             float64 `json:"price"`
	EPS               float64 `json:"eps"` // Trailing twelve months
	PE                float64 `json:"pe"`
	SharesOutstanding float64 `json:"sharesOutstanding"`
	Timestamp         int64   `json:"timestamp"`
}

// KeyMetrics is one period from /key-metrics/{symbol}.
type KeyMetrics struct {
	Symbol                    string  `json:"symbol"`
	Date                      string  `json:"date"` // yyyy-mm-dd fiscal period end
	CalendarYear              string  `json:"calendarYear"`
	NetIncomePerShare         float64 `json:"netIncomePerShare"`
	OperatingCashFlowPerShare float64 `json:"operatingCashFlowPerShare"`
	FreeCashFlowPerShare      float64 `json:"freeCashFlowPerShare"`
	BookValuePerShare         float64 `json:"bookValuePerShare"`
}

// IncomeStatement is one period from /income-statement/{symbol}.
type IncomeStatement struct {
	Symbol       string  `json:"symbol"`
	Date         string  `json:"date"`
	CalendarYear string  `json:"calendarYear"`
	EPS          float64 `json:"eps"`
	EPSDiluted   float64 `json:"epsdiluted"`
}

// HistoricalPrice is one day from /historical-price-full/{symbol}.
type HistoricalPrice struct {
	Date  string  `json:"date"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Close float64 `json:"close"`
}

// HistoricalPricesResponse wraps the price history payload.
type HistoricalPricesResponse struct {
	Symbol     string            `json:"symbol"`
	Historical []HistoricalPrice `json:"historical"`
}

// Dividend is one payment from /historical-price-full/stock_dividend/{symbol}.
type Dividend struct {
	Date        string  `json:"date"`
	AdjDividend float64 `json:"adjDividend"`
	Dividend    float64 `json:"dividend"`
}

// DividendsResponse wraps the dividend history payload.
type DividendsResponse struct {
	Symbol     string     `json:"symbol"`
	Historical []Dividend `json:"historical"`
}

package models

import "time"

// CompanyProfile is the market snapshot for one ticker
type CompanyProfile struct {
	Ticker        string  `json:"ticker"`
	CompanyName   string  `json:"company_name"`
	CurrentPrice  float64 `json:"current_price"`
	ChangePercent float64 `json:"change_percent"`
	MarketCap     float64 `json:"market_cap,omitempty"`
	PERatio       float64 `json:"pe_ratio,omitempty"`
	EPS           float64 `json:"eps,omitempty"`
	Week52High    float64 `json:"week_52_high,omitempty"`
	Week52Low     float64 `json:"week_52_low,omitempty"`
	Currency      string  `json:"currency,omitempty"`
	Exchange      string  `json:"exchange,omitempty"`
}

// NewsItem is one headline relevant to a ticker
type NewsItem struct {
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Content     string    `json:"content,omitempty"`
	PublishedAt time.Time `json:"published_at,omitempty"`
}

// PricePoint is one daily bar of price history
type PricePoint struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// PriceHistory carries recent daily bars plus derived technical levels
type PriceHistory struct {
	Ticker           string       `json:"ticker"`
	Points           []PricePoint `json:"points"`
	MA20             float64      `json:"ma_20,omitempty"`
	MA50             float64      `json:"ma_50,omitempty"`
	Trend            string       `json:"trend"` // bullish, bearish, neutral
	SupportLevels    []float64    `json:"support_levels,omitempty"`
	ResistanceLevels []float64    `json:"resistance_levels,omitempty"`
}

// FinancialMetrics is the fundamentals subset used for synthesis
type FinancialMetrics struct {
	Ticker        string  `json:"ticker"`
	MarketCap     float64 `json:"market_cap,omitempty"`
	PERatio       float64 `json:"pe_ratio,omitempty"`
	EPS           float64 `json:"eps,omitempty"`
	RevenueGrowth float64 `json:"revenue_growth,omitempty"`
	ProfitMargin  float64 `json:"profit_margin,omitempty"`
}

package marketdata

import "time"

// EODBar represents a single day's end-of-day price data.
type EODBar struct {
	Date          time.Time `json:"-"`
	DateStr       string    `json:"date"`
	Open          float64   `json:"open"`
	High          float64   `json:"high"`
	Low           float64   `json:"low"`
	Close         float64   `json:"close"`
	AdjustedClose float64   `json:"adjusted_close"`
	Volume        int64     `json:"volume"`
}

// EODResponse is a slice of EODBar.
type EODResponse []EODBar

// Quote represents a real-time (delayed) quote.
type Quote struct {
	Code          string  `json:"code"`
	Timestamp     int64   `json:"timestamp"`
	Open          float64 `json:"open"`
	High          float64 `json:"high"`
	Low           float64 `json:"low"`
	Close         float64 `json:"close"`
	PreviousClose float64 `json:"previousClose"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"change_p"`
	Volume        int64   `json:"volume"`
}

// NewsArticle represents a single news article.
type NewsArticle struct {
	Date    time.Time `json:"-"`
	DateStr string    `json:"date"`
	Title   string    `json:"title"`
	Content string    `json:"content"`
	Link    string    `json:"link"`
	Symbols []string  `json:"symbols"`
	Tags    []string  `json:"tags"`
}

// NewsResponse is a slice of NewsArticle.
type NewsResponse []NewsArticle

// Fundamentals represents the fundamentals data subset used for analysis.
type Fundamentals struct {
	General    *GeneralInfo `json:"General"`
	Highlights *Highlights  `json:"Highlights"`
	Technicals *Technicals  `json:"Technicals"`
}

// GeneralInfo contains general company information.
type GeneralInfo struct {
	Code         string `json:"Code"`
	Name         string `json:"Name"`
	Exchange     string `json:"Exchange"`
	CurrencyCode string `json:"CurrencyCode"`
	Sector       string `json:"Sector"`
	Industry     string `json:"Industry"`
}

// Highlights contains key financial highlights.
type Highlights struct {
	MarketCapitalization      float64 `json:"MarketCapitalization"`
	PERatio                   float64 `json:"PERatio"`
	EarningsShare             float64 `json:"EarningsShare"`
	ProfitMargin              float64 `json:"ProfitMargin"`
	QuarterlyRevenueGrowthYOY float64 `json:"QuarterlyRevenueGrowthYOY"`
}

// Technicals contains technical reference data.
type Technicals struct {
	Beta             float64 `json:"Beta"`
	FiftyTwoWeekHigh float64 `json:"52WeekHigh"`
	FiftyTwoWeekLow  float64 `json:"52WeekLow"`
}

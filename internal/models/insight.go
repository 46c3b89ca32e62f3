package models

import "time"

// Stance represents the investment stance for a ticker
type Stance string

const (
	StanceHold Stance = "hold"
	StanceBuy  Stance = "buy"
	StanceSell Stance = "sell"
)

// Confidence represents how confident the analysis is in its stance
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// Source identifies a piece of evidence backing an insight
type Source struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet,omitempty"`
}

// TraceStep records a single reasoning step inside a pipeline stage
type TraceStep struct {
	StepNumber  int    `json:"step_number"`
	Thought     string `json:"thought"`
	Action      string `json:"action"`
	Observation string `json:"observation"`
	LatencyMs   int64  `json:"latency_ms"`
}

// Trace records the full timing and reasoning of one analysis run for a ticker
type Trace struct {
	AgentName      string      `json:"agent_name"`
	Ticker         string      `json:"ticker"`
	Steps          []TraceStep `json:"steps"`
	TotalLatencyMs int64       `json:"total_latency_ms"`
	Success        bool        `json:"success"`
	Error          string      `json:"error,omitempty"`
}

// Insight is the structured investment view produced for a single ticker.
// All monetary values and ratios are rounded half-up to two decimal places.
type Insight struct {
	Ticker      string `json:"ticker"`
	CompanyName string `json:"company_name"`

	// Market snapshot
	CurrentPrice  float64 `json:"current_price"`
	ChangePercent float64 `json:"change_percent"`
	MarketCap     float64 `json:"market_cap,omitempty"`
	PERatio       float64 `json:"pe_ratio,omitempty"`
	Week52High    float64 `json:"week_52_high,omitempty"`
	Week52Low     float64 `json:"week_52_low,omitempty"`

	// Technicals
	SupportLevels    []float64 `json:"support_levels,omitempty"`
	ResistanceLevels []float64 `json:"resistance_levels,omitempty"`
	Trend            string    `json:"trend,omitempty"` // bullish, bearish, neutral

	// Narrative
	Summary    string   `json:"summary"`
	KeyDrivers []string `json:"key_drivers,omitempty"`
	Risks      []string `json:"risks,omitempty"`
	Catalysts  []string `json:"catalysts,omitempty"`

	// Verdict
	Stance     Stance     `json:"stance"`
	Confidence Confidence `json:"confidence"`
	Rationale  string     `json:"rationale"`

	Sources   []Source  `json:"sources,omitempty"`
	Traces    []Trace   `json:"agent_traces,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

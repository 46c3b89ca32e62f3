package models

import "time"

// ConversationState tracks where a pending conversation sits in the
// confirmation flow. Transitions are monotonic except for the single
// rejection edge from AwaitingConfirmation back to AwaitingClarification.
type ConversationState string

const (
	StateInitial               ConversationState = "initial"
	StateAwaitingConfirmation  ConversationState = "awaiting_confirmation"
	StateAwaitingClarification ConversationState = "awaiting_clarification"
	StateReadyForAnalysis      ConversationState = "ready_for_analysis"
	StateCompleted             ConversationState = "completed"
)

// Correction is one proposed fix for a likely misspelled company name
type Correction struct {
	Original      string `json:"original"`
	CorrectedName string `json:"corrected_name"`
	Ticker        string `json:"ticker"`
	Confidence    string `json:"confidence"` // high, medium, low
	Explanation   string `json:"explanation,omitempty"`
}

// CorrectionProposal carries every correction found in a query as one batch,
// so the user sees a single confirmation message per query
type CorrectionProposal struct {
	HasMisspellings bool         `json:"has_misspellings"`
	Corrections     []Correction `json:"corrections"`
}

// Conversation is a short-lived record of a query awaiting user confirmation
// or clarification before analysis can run
type Conversation struct {
	ID                 string            `json:"id" badgerhold:"key"`
	State              ConversationState `json:"state" badgerhold:"index"`
	OriginalQuery      string            `json:"original_query"`
	PendingCorrections []Correction      `json:"pending_corrections,omitempty"`
	ConfirmedTickers   []string          `json:"confirmed_tickers,omitempty"`
	CreatedAt          time.Time         `json:"created_at"`
	LastUpdatedAt      time.Time         `json:"last_updated_at"`
}

// IsExpired reports whether the conversation has outlived ttl since its
// last update. Expired conversations are treated the same as missing ones.
func (c *Conversation) IsExpired(ttl time.Duration) bool {
	return time.Since(c.LastUpdatedAt) > ttl
}

// Touch refreshes the last-updated timestamp, extending the TTL window
func (c *Conversation) Touch() {
	c.LastUpdatedAt = time.Now().UTC()
}

package models

import "time"

// AnalysisRequest is the payload for POST /api/analyze
type AnalysisRequest struct {
	Query                string `json:"query" validate:"required,min=1,max=2000"`
	MaxIterations        int    `json:"max_iterations,omitempty" validate:"omitempty,min=1,max=10"`
	TimeoutSeconds       int    `json:"timeout_seconds,omitempty" validate:"omitempty,min=1,max=300"`
	RequestID            string `json:"request_id,omitempty" validate:"omitempty,max=128"`
	ConversationID       string `json:"conversation_id,omitempty" validate:"omitempty,max=128"`
	ConfirmationResponse string `json:"confirmation_response,omitempty" validate:"omitempty,max=500"`
}

// ConfirmationPrompt asks the user to confirm or pick a correction before
// analysis proceeds. Suggestion is set when exactly one correction exists.
type ConfirmationPrompt struct {
	Type           string      `json:"type"` // misspelling_confirmation, clarification
	Message        string      `json:"message"`
	Suggestion     *Correction `json:"suggestion,omitempty"`
	ConversationID string      `json:"conversation_id"`
}

// AnalysisResponse is the envelope for POST /api/analyze
type AnalysisResponse struct {
	RequestID       string    `json:"request_id"`
	Query           string    `json:"query"`
	Insights        []Insight `json:"insights"`
	TotalLatencyMs  int64     `json:"total_latency_ms"`
	TickersAnalyzed []string  `json:"tickers_analyzed"`
	AgentsUsed      []string  `json:"agents_used"`
	Success         bool      `json:"success"`
	Warnings        []string  `json:"warnings,omitempty"`
	Errors          []string  `json:"errors,omitempty"`

	// Set when the query needs user confirmation before analysis can run
	NeedsConfirmation  bool                `json:"needs_confirmation,omitempty"`
	ConfirmationPrompt *ConfirmationPrompt `json:"confirmation_prompt,omitempty"`

	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
}

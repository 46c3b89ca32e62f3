package models

import "time"

// ProgressEventType classifies a progress event for client rendering
type ProgressEventType string

const (
	ProgressInfo          ProgressEventType = "info"
	ProgressThinking      ProgressEventType = "thinking"
	ProgressSuccess       ProgressEventType = "success"
	ProgressWarning       ProgressEventType = "warning"
	ProgressError         ProgressEventType = "error"
	ProgressAgentStart    ProgressEventType = "agent_start"
	ProgressAgentProgress ProgressEventType = "agent_progress"
	ProgressAgentComplete ProgressEventType = "agent_complete"
	ProgressDataFetch     ProgressEventType = "data_fetch"
	ProgressAnalysis      ProgressEventType = "analysis"
)

// ProgressEvent is one step of visible progress for an analysis request.
// Events for a request are delivered to subscribers in publish order.
type ProgressEvent struct {
	RequestID string                 `json:"request_id"`
	Type      ProgressEventType      `json:"type"`
	Message   string                 `json:"message"`
	Ticker    string                 `json:"ticker,omitempty"`
	Stage     string                 `json:"stage,omitempty"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

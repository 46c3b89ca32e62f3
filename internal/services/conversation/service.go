package conversation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/quaestor/internal/interfaces"
	"github.com/ternarybob/quaestor/internal/models"
	"github.com/ternarybob/quaestor/internal/services/resolver"
)

// Status classifies the outcome of processing a user reply
type Status string

const (
	StatusConfirmed    Status = "confirmed"
	StatusRejected     Status = "rejected"
	StatusUnclear      Status = "unclear"
	StatusResolved     Status = "resolved"
	StatusStillUnclear Status = "still_unclear"
)

var yesResponses = map[string]struct{}{
	"yes": {}, "y": {}, "yeah": {}, "yep": {}, "sure": {}, "correct": {},
}

var noResponses = map[string]struct{}{
	"no": {}, "n": {}, "nope": {}, "incorrect": {},
}

// Result describes how a user reply moved the conversation forward
type Result struct {
	Status  Status
	Tickers []string
	Message string
}

// Service manages pending conversations awaiting user confirmation or
// clarification. Conversations expire a fixed duration after their last
// update; expiry is evaluated lazily on read, so an expired conversation is
// indistinguishable from a missing one. A background sweep reclaims storage.
type Service struct {
	storage  interfaces.ConversationStorage
	resolver *resolver.Service
	logger   arbor.ILogger
	ttl      time.Duration
}

// NewService creates a conversation service
func NewService(storage interfaces.ConversationStorage, res *resolver.Service, ttl time.Duration, logger arbor.ILogger) *Service {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Service{
		storage:  storage,
		resolver: res,
		logger:   logger,
		ttl:      ttl,
	}
}

// Create starts a conversation in the initial state
func (s *Service) Create(ctx context.Context, id, query string) (*models.Conversation, error) {
	now := time.Now().UTC()
	conv := &models.Conversation{
		ID:            id,
		State:         models.StateInitial,
		OriginalQuery: query,
		CreatedAt:     now,
		LastUpdatedAt: now,
	}
	if err := s.storage.Put(ctx, conv); err != nil {
		return nil, err
	}

	s.logger.Info().Str("conversation_id", id).Msg("Created conversation")
	return conv, nil
}

// Get returns a live conversation. Expired conversations are deleted on
// read and reported as not found.
func (s *Service) Get(ctx context.Context, id string) (*models.Conversation, error) {
	conv, err := s.storage.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if conv.IsExpired(s.ttl) {
		s.logger.Warn().Str("conversation_id", id).Msg("Conversation expired")
		if delErr := s.storage.Delete(ctx, id); delErr != nil {
			s.logger.Warn().Err(delErr).Str("conversation_id", id).Msg("Failed to delete expired conversation")
		}
		return nil, interfaces.ErrConversationNotFound
	}

	return conv, nil
}

// BeginConfirmation moves a conversation into the awaiting-confirmation
// state with the proposed corrections pending. The corrected tickers are
// remembered so a plain "yes" confirms the whole batch.
func (s *Service) BeginConfirmation(ctx context.Context, conv *models.Conversation, corrections []models.Correction) error {
	tickers := make([]string, 0, len(corrections))
	for _, c := range corrections {
		tickers = append(tickers, c.Ticker)
	}

	conv.State = models.StateAwaitingConfirmation
	conv.PendingCorrections = corrections
	conv.ConfirmedTickers = tickers
	conv.Touch()

	return s.storage.Put(ctx, conv)
}

// BeginClarification moves a conversation into the awaiting-clarification
// state after names could not be resolved or a correction was rejected
func (s *Service) BeginClarification(ctx context.Context, conv *models.Conversation) error {
	conv.State = models.StateAwaitingClarification
	conv.PendingCorrections = nil
	conv.Touch()

	return s.storage.Put(ctx, conv)
}

// Complete marks a conversation terminal after its analysis has run
func (s *Service) Complete(ctx context.Context, conv *models.Conversation) error {
	conv.State = models.StateCompleted
	conv.Touch()
	return s.storage.Put(ctx, conv)
}

// ClarificationMessage renders the prompt asking the user to restate
// unrecognized company names
func (s *Service) ClarificationMessage(unresolvedNames []string) string {
	if len(unresolvedNames) == 1 {
		return fmt.Sprintf(
			"I couldn't recognize '%s'. Could you please provide the stock ticker or full company name? For example: 'AAPL' or 'Apple Inc.'",
			unresolvedNames[0])
	}
	return fmt.Sprintf(
		"I couldn't recognize these companies: '%s'. Could you please provide their stock tickers or full company names? For example: 'AAPL for Apple, MSFT for Microsoft'",
		strings.Join(unresolvedNames, "', '"))
}

// ProcessConfirmation applies a user reply to a conversation awaiting
// confirmation. "Yes" confirms the whole pending batch, "no" drops the
// corrections and asks for clarification, a reply naming one of the pending
// tickers or companies selects it, and anything else asks again.
func (s *Service) ProcessConfirmation(ctx context.Context, conv *models.Conversation, response string) (*Result, error) {
	normalized := strings.ToLower(strings.TrimSpace(response))

	if _, yes := yesResponses[normalized]; yes {
		conv.State = models.StateReadyForAnalysis
		conv.Touch()
		if err := s.storage.Put(ctx, conv); err != nil {
			return nil, err
		}

		s.logger.Info().
			Str("conversation_id", conv.ID).
			Strs("tickers", conv.ConfirmedTickers).
			Msg("User confirmed all suggestions")

		return &Result{
			Status:  StatusConfirmed,
			Tickers: conv.ConfirmedTickers,
			Message: fmt.Sprintf("Great! I'll analyze %s.", strings.Join(conv.ConfirmedTickers, ", ")),
		}, nil
	}

	if _, no := noResponses[normalized]; no {
		if err := s.BeginClarification(ctx, conv); err != nil {
			return nil, err
		}

		s.logger.Info().Str("conversation_id", conv.ID).Msg("User rejected suggestion")

		return &Result{
			Status:  StatusRejected,
			Message: "Got it. Which company or ticker would you like to analyze? For example, 'Apple' or 'AAPL'.",
		}, nil
	}

	// A reply naming one of the pending options selects it
	for _, c := range conv.PendingCorrections {
		if strings.Contains(strings.ToUpper(response), c.Ticker) ||
			strings.Contains(strings.ToLower(response), strings.ToLower(c.CorrectedName)) {
			conv.State = models.StateReadyForAnalysis
			conv.ConfirmedTickers = []string{c.Ticker}
			conv.PendingCorrections = nil
			conv.Touch()
			if err := s.storage.Put(ctx, conv); err != nil {
				return nil, err
			}

			s.logger.Info().
				Str("conversation_id", conv.ID).
				Str("ticker", c.Ticker).
				Msg("User selected option")

			return &Result{
				Status:  StatusConfirmed,
				Tickers: []string{c.Ticker},
				Message: fmt.Sprintf("Perfect! I'll analyze %s.", c.Ticker),
			}, nil
		}
	}

	conv.Touch()
	if err := s.storage.Put(ctx, conv); err != nil {
		return nil, err
	}

	s.logger.Warn().
		Str("conversation_id", conv.ID).
		Str("response", response).
		Msg("Could not parse confirmation response")

	return &Result{
		Status:  StatusUnclear,
		Message: "I didn't quite understand. Please respond with 'Yes', 'No', or select one of the options provided.",
	}, nil
}

// ProcessClarification re-runs ticker extraction over a clarification reply.
// Resolved tickers move the conversation to ready-for-analysis; otherwise it
// stays awaiting clarification.
func (s *Service) ProcessClarification(ctx context.Context, conv *models.Conversation, response string) (*Result, error) {
	resolved, _ := s.resolver.ExtractFromQuery(response)

	if len(resolved) > 0 {
		conv.State = models.StateReadyForAnalysis
		conv.ConfirmedTickers = resolved
		conv.Touch()
		if err := s.storage.Put(ctx, conv); err != nil {
			return nil, err
		}

		s.logger.Info().
			Str("conversation_id", conv.ID).
			Strs("tickers", resolved).
			Msg("Resolved tickers from clarification")

		return &Result{
			Status:  StatusResolved,
			Tickers: resolved,
			Message: fmt.Sprintf("Perfect! I'll analyze %s.", strings.Join(resolved, ", ")),
		}, nil
	}

	conv.Touch()
	if err := s.storage.Put(ctx, conv); err != nil {
		return nil, err
	}

	s.logger.Warn().
		Str("conversation_id", conv.ID).
		Str("response", response).
		Msg("Could not resolve tickers from clarification")

	return &Result{
		Status:  StatusStillUnclear,
		Message: "I still couldn't identify the company. Please provide a valid stock ticker (e.g., 'AAPL') or a well-known company name (e.g., 'Apple Inc.').",
	}, nil
}

// CleanupExpired removes every expired conversation from storage.
// It returns the number of conversations swept.
func (s *Service) CleanupExpired(ctx context.Context) (int, error) {
	convs, err := s.storage.List(ctx)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, conv := range convs {
		if !conv.IsExpired(s.ttl) {
			continue
		}
		if err := s.storage.Delete(ctx, conv.ID); err != nil {
			s.logger.Warn().Err(err).Str("conversation_id", conv.ID).Msg("Failed to delete expired conversation")
			continue
		}
		removed++
	}

	if removed > 0 {
		s.logger.Info().Int("count", removed).Msg("Cleaned up expired conversations")
	}
	return removed, nil
}

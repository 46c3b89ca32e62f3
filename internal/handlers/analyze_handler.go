package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/quaestor/internal/interfaces"
	"github.com/ternarybob/quaestor/internal/models"
	"github.com/ternarybob/quaestor/internal/orchestrator"
	"github.com/ternarybob/quaestor/internal/services/conversation"
	"github.com/ternarybob/quaestor/internal/services/correction"
	"github.com/ternarybob/quaestor/internal/services/events"
)

const pipelineAgent = "research_pipeline"

// AnalyzeHandler serves POST /api/analyze. A query either runs straight
// through the orchestrator or detours into a correction conversation when
// likely misspellings are found; follow-up requests carry the conversation
// ID and the user's reply.
type AnalyzeHandler struct {
	orchestrator  *orchestrator.Orchestrator
	corrections   *correction.Service
	conversations *conversation.Service
	bus           interfaces.ProgressBus
	validate      *validator.Validate
	logger        arbor.ILogger
}

// NewAnalyzeHandler creates the analyze handler.
func NewAnalyzeHandler(orch *orchestrator.Orchestrator, corrections *correction.Service, conversations *conversation.Service, bus interfaces.ProgressBus, logger arbor.ILogger) *AnalyzeHandler {
	return &AnalyzeHandler{
		orchestrator:  orch,
		corrections:   corrections,
		conversations: conversations,
		bus:           bus,
		validate:      validator.New(),
		logger:        logger,
	}
}

// HandleAnalyze processes an analysis request.
func (h *AnalyzeHandler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req models.AnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusUnprocessableEntity, "Invalid request body: "+err.Error())
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		WriteError(w, http.StatusUnprocessableEntity, "Validation failed: "+err.Error())
		return
	}

	if req.RequestID == "" {
		req.RequestID = uuid.New().String()
	}

	h.logger.Info().
		Str("request_id", req.RequestID).
		Str("conversation_id", req.ConversationID).
		Str("query", req.Query).
		Msg("Analysis request received")

	if req.ConversationID != "" {
		h.handleFollowUp(w, r.Context(), &req)
		return
	}

	h.handleNewQuery(w, r.Context(), &req)
}

// handleNewQuery runs the correction check and then the analysis.
func (h *AnalyzeHandler) handleNewQuery(w http.ResponseWriter, ctx context.Context, req *models.AnalysisRequest) {
	reporter := events.NewReporter(h.bus, req.RequestID, 0)

	reporter.CheckingTypos()
	proposal := h.corrections.DetectCorrections(ctx, req.Query)

	if proposal.HasMisspellings && len(proposal.Corrections) > 0 {
		reporter.TyposDetected(len(proposal.Corrections))

		conv, err := h.conversations.Create(ctx, req.RequestID, req.Query)
		if err != nil {
			h.logger.Error().Err(err).Msg("Failed to create conversation")
			WriteError(w, http.StatusInternalServerError, "Failed to start conversation")
			return
		}
		if err := h.conversations.BeginConfirmation(ctx, conv, proposal.Corrections); err != nil {
			h.logger.Error().Err(err).Msg("Failed to store pending corrections")
			WriteError(w, http.StatusInternalServerError, "Failed to start conversation")
			return
		}

		prompt := &models.ConfirmationPrompt{
			Type:           "misspelling_confirmation",
			Message:        h.corrections.ConfirmationMessage(proposal.Corrections),
			ConversationID: conv.ID,
		}
		if len(proposal.Corrections) == 1 {
			prompt.Suggestion = &proposal.Corrections[0]
		}

		now := time.Now().UTC()
		WriteJSON(w, http.StatusOK, models.AnalysisResponse{
			RequestID:          req.RequestID,
			Query:              req.Query,
			Insights:           []models.Insight{},
			Success:            true,
			NeedsConfirmation:  true,
			ConfirmationPrompt: prompt,
			StartedAt:          now,
			CompletedAt:        now,
		})
		return
	}

	h.runAnalysis(w, ctx, req, nil, nil)
}

// handleFollowUp applies a reply to a pending conversation.
func (h *AnalyzeHandler) handleFollowUp(w http.ResponseWriter, ctx context.Context, req *models.AnalysisRequest) {
	conv, err := h.conversations.Get(ctx, req.ConversationID)
	if err != nil {
		if errors.Is(err, interfaces.ErrConversationNotFound) {
			WriteError(w, http.StatusNotFound, "Conversation not found or expired. Please start a new query.")
			return
		}
		h.logger.Error().Err(err).Str("conversation_id", req.ConversationID).Msg("Failed to load conversation")
		WriteError(w, http.StatusInternalServerError, "Failed to load conversation")
		return
	}

	response := req.ConfirmationResponse
	if response == "" {
		response = req.Query
	}

	switch conv.State {
	case models.StateAwaitingConfirmation:
		result, err := h.conversations.ProcessConfirmation(ctx, conv, response)
		if err != nil {
			h.logger.Error().Err(err).Str("conversation_id", conv.ID).Msg("Failed to process confirmation")
			WriteError(w, http.StatusInternalServerError, "Failed to process response")
			return
		}
		if result.Status == conversation.StatusConfirmed {
			h.runAnalysis(w, ctx, req, result.Tickers, conv)
			return
		}
		h.writePrompt(w, req, conv, promptType(result.Status), result.Message)

	case models.StateAwaitingClarification:
		result, err := h.conversations.ProcessClarification(ctx, conv, response)
		if err != nil {
			h.logger.Error().Err(err).Str("conversation_id", conv.ID).Msg("Failed to process clarification")
			WriteError(w, http.StatusInternalServerError, "Failed to process response")
			return
		}
		if result.Status == conversation.StatusResolved {
			h.runAnalysis(w, ctx, req, result.Tickers, conv)
			return
		}
		h.writePrompt(w, req, conv, "clarification", result.Message)

	case models.StateReadyForAnalysis:
		h.runAnalysis(w, ctx, req, conv.ConfirmedTickers, conv)

	default:
		WriteError(w, http.StatusNotFound, "Conversation not found or expired. Please start a new query.")
	}
}

// runAnalysis fans the request out and writes the aggregated response.
func (h *AnalyzeHandler) runAnalysis(w http.ResponseWriter, ctx context.Context, req *models.AnalysisRequest, confirmedSymbols []string, conv *models.Conversation) {
	started := time.Now().UTC()

	result, err := h.orchestrator.Analyze(ctx, orchestrator.Params{
		RequestID:        req.RequestID,
		Query:            req.Query,
		ConfirmedSymbols: confirmedSymbols,
		TimeoutSeconds:   req.TimeoutSeconds,
		MaxIterations:    req.MaxIterations,
	})
	if err != nil {
		if errors.Is(err, interfaces.ErrNoTickersResolved) {
			WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error().Err(err).Str("request_id", req.RequestID).Msg("Analysis failed")
		WriteError(w, http.StatusInternalServerError, "Analysis failed: "+err.Error())
		return
	}

	if conv != nil {
		if err := h.conversations.Complete(ctx, conv); err != nil {
			h.logger.Warn().Err(err).Str("conversation_id", conv.ID).Msg("Failed to mark conversation completed")
		}
	}

	insights := make([]models.Insight, 0, len(result.Insights))
	for _, insight := range result.Insights {
		insights = append(insights, *insight)
	}

	completed := time.Now().UTC()
	WriteJSON(w, http.StatusOK, models.AnalysisResponse{
		RequestID:       req.RequestID,
		Query:           req.Query,
		Insights:        insights,
		TotalLatencyMs:  completed.Sub(started).Milliseconds(),
		TickersAnalyzed: result.Tickers,
		AgentsUsed:      []string{pipelineAgent},
		Success:         true,
		StartedAt:       started,
		CompletedAt:     completed,
	})
}

func (h *AnalyzeHandler) writePrompt(w http.ResponseWriter, req *models.AnalysisRequest, conv *models.Conversation, promptType, message string) {
	now := time.Now().UTC()
	WriteJSON(w, http.StatusOK, models.AnalysisResponse{
		RequestID:         req.RequestID,
		Query:             req.Query,
		Insights:          []models.Insight{},
		Success:           true,
		NeedsConfirmation: true,
		ConfirmationPrompt: &models.ConfirmationPrompt{
			Type:           promptType,
			Message:        message,
			ConversationID: conv.ID,
		},
		StartedAt:   now,
		CompletedAt: now,
	})
}

func promptType(status conversation.Status) string {
	if status == conversation.StatusRejected {
		return "clarification"
	}
	return "misspelling_confirmation"
}

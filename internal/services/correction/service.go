package correction

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/quaestor/internal/interfaces"
	"github.com/ternarybob/quaestor/internal/models"
	"github.com/ternarybob/quaestor/internal/services/llm"
)

const correctionPrompt = `You are a financial assistant that helps users identify company names and stock tickers.

USER INPUT: %q

TASK:
Analyze the ENTIRE user input and identify ALL misspelled or ambiguous company names/tickers. Return corrections for EVERY misspelling found, not just the first one.

RULES:
1. Look for ALL company names or tickers that might be misspelled
2. Consider common typos, missing letters, extra letters, or phonetic similarities
3. Only suggest corrections for well-known publicly traded companies
4. If a word is correctly spelled or is a valid ticker, do NOT include it in corrections
5. Return ALL corrections in a single response

EXAMPLES:
Input: "analyze metae Apple and TSLAA"
Output: Should detect TWO misspellings:
  - "metae" -> Meta Platforms Inc. (META)
  - "TSLAA" -> Tesla Inc. (TSLA)
  - "Apple" is correct, so not included

Input: "compare microsft gogle and amazn"
Output: Should detect THREE misspellings:
  - "microsft" -> Microsoft Corporation (MSFT)
  - "gogle" -> Alphabet Inc. (GOOGL)
  - "amazn" -> Amazon.com Inc. (AMZN)

Input: "analyze AAPL MSFT and GOOGL"
Output: No misspellings (all valid tickers)

Respond in JSON format:
{
    "has_misspellings": true or false,
    "corrections": [
        {
            "original": "misspelled text",
            "corrected_name": "Full Company Name",
            "ticker": "TICKER",
            "confidence": "high, medium, or low",
            "explanation": "Brief explanation"
        }
    ]
}

If no misspellings found, return empty corrections array.
Respond with ONLY the JSON, no additional text.`

// Service detects misspelled company names using a single oracle round-trip
// per query. All misspellings in a query are returned as one batch so the
// user receives exactly one confirmation message.
type Service struct {
	oracle interfaces.Oracle
	logger arbor.ILogger
}

// NewService creates a correction service
func NewService(oracle interfaces.Oracle, logger arbor.ILogger) *Service {
	return &Service{
		oracle: oracle,
		logger: logger,
	}
}

// DetectCorrections analyzes a query for misspelled company names.
// On oracle failure or unparseable output it returns an empty proposal and
// no error: the caller falls back to plain resolver extraction.
func (s *Service) DetectCorrections(ctx context.Context, query string) *models.CorrectionProposal {
	safe := &models.CorrectionProposal{HasMisspellings: false, Corrections: []models.Correction{}}

	text, err := s.oracle.Complete(ctx, []interfaces.Message{
		{Role: "user", Content: fmt.Sprintf(correctionPrompt, query)},
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("query", query).Msg("Correction oracle call failed, skipping correction")
		return safe
	}

	var proposal models.CorrectionProposal
	if err := llm.ParseJSONBlock(text, &proposal); err != nil {
		s.logger.Warn().Err(err).Str("query", query).Msg("Correction response unparseable, skipping correction")
		return safe
	}

	if proposal.Corrections == nil {
		proposal.Corrections = []models.Correction{}
	}
	if len(proposal.Corrections) == 0 {
		proposal.HasMisspellings = false
	}

	s.logger.Info().
		Str("query", query).
		Bool("has_misspellings", proposal.HasMisspellings).
		Int("corrections", len(proposal.Corrections)).
		Msg("Smart correction analysis completed")

	return &proposal
}

// ConfirmationMessage renders one user-facing message covering every
// correction in the batch. Returns "" for an empty batch.
func (s *Service) ConfirmationMessage(corrections []models.Correction) string {
	if len(corrections) == 0 {
		return ""
	}

	if len(corrections) == 1 {
		c := corrections[0]
		switch c.Confidence {
		case "medium":
			return fmt.Sprintf("Did you mean **%s** (%s)? (I'm moderately confident about this)", c.CorrectedName, c.Ticker)
		case "low":
			return fmt.Sprintf("Did you possibly mean **%s** (%s)? (I'm not very confident about this)", c.CorrectedName, c.Ticker)
		default:
			return fmt.Sprintf("Did you mean **%s** (%s)?", c.CorrectedName, c.Ticker)
		}
	}

	var b strings.Builder
	b.WriteString("I found multiple potential misspellings:\n\n")
	for i, c := range corrections {
		fmt.Fprintf(&b, "%d. '%s' → **%s** (%s)\n", i+1, c.Original, c.CorrectedName, c.Ticker)
	}
	b.WriteString("\nDid you mean these corrections?")
	return b.String()
}

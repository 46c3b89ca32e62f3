package correction

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/quaestor/internal/models"
	"github.com/ternarybob/quaestor/internal/services/llm/offline"
)

func TestDetectCorrections(t *testing.T) {
	t.Run("batch of two misspellings in one round trip", func(t *testing.T) {
		oracle := offline.NewOracle().WithDefault(`{
			"has_misspellings": true,
			"corrections": [
				{"original": "metae", "corrected_name": "Meta Platforms Inc.", "ticker": "META", "confidence": "high"},
				{"original": "TSLAA", "corrected_name": "Tesla Inc.", "ticker": "TSLA", "confidence": "high"}
			]
		}`)
		svc := NewService(oracle, arbor.NewLogger())

		proposal := svc.DetectCorrections(context.Background(), "analyze metae Apple and TSLAA")
		require.NotNil(t, proposal)
		assert.True(t, proposal.HasMisspellings)
		assert.Len(t, proposal.Corrections, 2)
		assert.Equal(t, 1, oracle.CallCount(), "all corrections must come from a single oracle call")
	})

	t.Run("clean query has no corrections", func(t *testing.T) {
		oracle := offline.NewOracle().WithDefault(`{"has_misspellings": false, "corrections": []}`)
		svc := NewService(oracle, arbor.NewLogger())

		proposal := svc.DetectCorrections(context.Background(), "analyze AAPL MSFT and GOOGL")
		assert.False(t, proposal.HasMisspellings)
		assert.Empty(t, proposal.Corrections)
	})

	t.Run("oracle failure falls back to empty proposal", func(t *testing.T) {
		oracle := offline.NewOracle().WithError(errors.New("upstream unavailable"))
		svc := NewService(oracle, arbor.NewLogger())

		proposal := svc.DetectCorrections(context.Background(), "analyze Microsft")
		require.NotNil(t, proposal)
		assert.False(t, proposal.HasMisspellings)
		assert.Empty(t, proposal.Corrections)
	})

	t.Run("malformed output falls back to empty proposal", func(t *testing.T) {
		oracle := offline.NewOracle().WithDefault("sorry, I cannot answer in JSON today")
		svc := NewService(oracle, arbor.NewLogger())

		proposal := svc.DetectCorrections(context.Background(), "analyze Microsft")
		assert.False(t, proposal.HasMisspellings)
		assert.Empty(t, proposal.Corrections)
	})

	t.Run("misspelling flag cleared when corrections are empty", func(t *testing.T) {
		oracle := offline.NewOracle().WithDefault(`{"has_misspellings": true, "corrections": []}`)
		svc := NewService(oracle, arbor.NewLogger())

		proposal := svc.DetectCorrections(context.Background(), "analyze AAPL")
		assert.False(t, proposal.HasMisspellings)
	})
}

func TestConfirmationMessage(t *testing.T) {
	svc := NewService(offline.NewOracle(), arbor.NewLogger())

	t.Run("single high confidence", func(t *testing.T) {
		msg := svc.ConfirmationMessage([]models.Correction{
			{Original: "microsft", CorrectedName: "Microsoft Corporation", Ticker: "MSFT", Confidence: "high"},
		})
		assert.Equal(t, "Did you mean **Microsoft Corporation** (MSFT)?", msg)
	})

	t.Run("single low confidence", func(t *testing.T) {
		msg := svc.ConfirmationMessage([]models.Correction{
			{Original: "vza", CorrectedName: "Visa Inc.", Ticker: "V", Confidence: "low"},
		})
		assert.Contains(t, msg, "Did you possibly mean")
	})

	t.Run("multiple corrections enumerate in one message", func(t *testing.T) {
		msg := svc.ConfirmationMessage([]models.Correction{
			{Original: "metae", CorrectedName: "Meta Platforms Inc.", Ticker: "META", Confidence: "high"},
			{Original: "TSLAA", CorrectedName: "Tesla Inc.", Ticker: "TSLA", Confidence: "high"},
		})
		assert.Contains(t, msg, "I found multiple potential misspellings:")
		assert.Contains(t, msg, "1. 'metae'")
		assert.Contains(t, msg, "2. 'TSLAA'")
		assert.Contains(t, msg, "Did you mean these corrections?")
		assert.Equal(t, 1, strings.Count(msg, "Did you mean these corrections?"))
	})

	t.Run("empty batch yields empty message", func(t *testing.T) {
		assert.Empty(t, svc.ConfirmationMessage(nil))
	})
}

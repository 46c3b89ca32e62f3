package events

import (
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/quaestor/internal/interfaces"
	"github.com/ternarybob/quaestor/internal/models"
)

// Reporter emits the fixed vocabulary of progress events for one analysis
// request. The optional pacing delay is cosmetic, for clients that render
// events as a live feed; it defaults to zero and never affects results.
type Reporter struct {
	bus       interfaces.ProgressBus
	requestID string
	delay     time.Duration
}

// NewReporter creates a reporter bound to a request ID
func NewReporter(bus interfaces.ProgressBus, requestID string, delay time.Duration) *Reporter {
	return &Reporter{
		bus:       bus,
		requestID: requestID,
		delay:     delay,
	}
}

// RequestID returns the request this reporter publishes for
func (r *Reporter) RequestID() string {
	return r.requestID
}

func (r *Reporter) emit(eventType models.ProgressEventType, ticker, stage, message string, data map[string]interface{}) {
	r.bus.Publish(models.ProgressEvent{
		RequestID: r.requestID,
		Type:      eventType,
		Message:   message,
		Ticker:    ticker,
		Stage:     stage,
		Data:      data,
	})
	if r.delay > 0 {
		time.Sleep(r.delay)
	}
}

// QueryReceived announces that a query arrived
func (r *Reporter) QueryReceived(query string) {
	r.emit(models.ProgressInfo, "", "", fmt.Sprintf("Received query: %s", query), nil)
}

// ExtractingTickers announces ticker extraction has begun
func (r *Reporter) ExtractingTickers() {
	r.emit(models.ProgressThinking, "", "", "Identifying stock tickers in your query...", nil)
}

// TickersFound reports the extracted tickers
func (r *Reporter) TickersFound(tickers []string) {
	r.emit(models.ProgressSuccess, "", "", fmt.Sprintf("Found tickers: %s", strings.Join(tickers, ", ")),
		map[string]interface{}{"tickers": tickers})
}

// CheckingTypos announces the misspelling check
func (r *Reporter) CheckingTypos() {
	r.emit(models.ProgressThinking, "", "", "Checking for possible typos in company names...", nil)
}

// TyposDetected reports how many corrections were proposed
func (r *Reporter) TyposDetected(count int) {
	r.emit(models.ProgressWarning, "", "", fmt.Sprintf("Found %d possible misspelling(s), asking for confirmation", count),
		map[string]interface{}{"count": count})
}

// StartingAnalysis announces fan-out over the resolved tickers
func (r *Reporter) StartingAnalysis(tickers []string) {
	r.emit(models.ProgressAgentStart, "", "", fmt.Sprintf("Starting analysis for %d ticker(s)", len(tickers)),
		map[string]interface{}{"tickers": tickers})
}

// StageStarted reports a pipeline stage beginning for a ticker
func (r *Reporter) StageStarted(ticker, stage, message string) {
	r.emit(models.ProgressAgentProgress, ticker, stage, message, nil)
}

// StageCompleted reports a pipeline stage finishing for a ticker
func (r *Reporter) StageCompleted(ticker, stage, message string) {
	r.emit(models.ProgressDataFetch, ticker, stage, message, nil)
}

// FetchingCompanyInfo announces the profile stage
func (r *Reporter) FetchingCompanyInfo(ticker string) {
	r.emit(models.ProgressDataFetch, ticker, "profile", fmt.Sprintf("Fetching company information for %s...", ticker), nil)
}

// FetchingNews announces the news stage
func (r *Reporter) FetchingNews(ticker string) {
	r.emit(models.ProgressDataFetch, ticker, "news", fmt.Sprintf("Fetching latest news for %s...", ticker), nil)
}

// NewsFound reports how many articles were retrieved
func (r *Reporter) NewsFound(ticker string, count int) {
	r.emit(models.ProgressSuccess, ticker, "news", fmt.Sprintf("Found %d news article(s) for %s", count, ticker), nil)
}

// AnalyzingNewsSentiment announces the news summary oracle call
func (r *Reporter) AnalyzingNewsSentiment(ticker string) {
	r.emit(models.ProgressAnalysis, ticker, "news", fmt.Sprintf("Analyzing news sentiment for %s...", ticker), nil)
}

// FetchingPriceData announces the price history stage
func (r *Reporter) FetchingPriceData(ticker string) {
	r.emit(models.ProgressDataFetch, ticker, "technicals", fmt.Sprintf("Fetching price history for %s...", ticker), nil)
}

// AnalyzingTechnicals announces the technical analysis oracle call
func (r *Reporter) AnalyzingTechnicals(ticker string) {
	r.emit(models.ProgressAnalysis, ticker, "technicals", fmt.Sprintf("Analyzing support and resistance levels for %s...", ticker), nil)
}

// PriceAnalysisComplete reports the derived trend
func (r *Reporter) PriceAnalysisComplete(ticker, trend string) {
	r.emit(models.ProgressSuccess, ticker, "technicals", fmt.Sprintf("Price analysis complete for %s: %s trend", ticker, trend), nil)
}

// FetchingFinancials announces the financial metrics stage
func (r *Reporter) FetchingFinancials(ticker string) {
	r.emit(models.ProgressDataFetch, ticker, "financials", fmt.Sprintf("Fetching financial metrics for %s...", ticker), nil)
}

// SynthesizingAnalysis announces the synthesis stage
func (r *Reporter) SynthesizingAnalysis(ticker string) {
	r.emit(models.ProgressAnalysis, ticker, "synthesis", fmt.Sprintf("Synthesizing investment analysis for %s...", ticker), nil)
}

// RecommendationComplete reports the final stance for a ticker
func (r *Reporter) RecommendationComplete(ticker string, stance models.Stance) {
	r.emit(models.ProgressSuccess, ticker, "synthesis", fmt.Sprintf("Recommendation for %s: %s", ticker, stance), nil)
}

// TickerAnalysisComplete reports the full pipeline finishing for a ticker
func (r *Reporter) TickerAnalysisComplete(ticker string) {
	r.emit(models.ProgressAgentComplete, ticker, "", fmt.Sprintf("Analysis complete for %s", ticker), nil)
}

// AllAnalysisComplete reports the whole request finishing
func (r *Reporter) AllAnalysisComplete(count int) {
	r.emit(models.ProgressSuccess, "", "", fmt.Sprintf("Analysis complete for %d ticker(s)", count), nil)
}

// Warning reports a recoverable problem
func (r *Reporter) Warning(ticker, message string) {
	r.emit(models.ProgressWarning, ticker, "", message, nil)
}

// Error reports a failure for a ticker or the whole request
func (r *Reporter) Error(ticker, message string) {
	r.emit(models.ProgressError, ticker, "", message, nil)
}

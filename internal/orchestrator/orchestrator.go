// Package orchestrator coordinates one research request end to end: ticker
// resolution, bounded fan-out over the analysis pipeline, and aggregation.
package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/quaestor/internal/common"
	"github.com/ternarybob/quaestor/internal/interfaces"
	"github.com/ternarybob/quaestor/internal/models"
	"github.com/ternarybob/quaestor/internal/services/analysis"
	"github.com/ternarybob/quaestor/internal/services/events"
	"github.com/ternarybob/quaestor/internal/services/resolver"
)

// Params describes one analysis request.
type Params struct {
	RequestID string
	Query     string

	// ConfirmedSymbols skips resolution entirely when set, used after a
	// correction or clarification round trip.
	ConfirmedSymbols []string

	// TimeoutSeconds bounds the whole request. Zero uses the configured
	// default.
	TimeoutSeconds int

	// MaxIterations bounds the oracle reasoning calls per ticker. Zero
	// uses the pipeline default.
	MaxIterations int
}

// Result aggregates the per-ticker insights of one request.
type Result struct {
	Tickers         []string          `json:"tickers"`
	UnresolvedNames []string          `json:"unresolved_names,omitempty"`
	Insights        []*models.Insight `json:"insights"`
}

// Orchestrator resolves tickers and fans analysis out over a bounded worker
// pool. Each ticker is isolated: a failure there degrades that insight only.
type Orchestrator struct {
	resolver       *resolver.Service
	pipeline       *analysis.Pipeline
	bus            interfaces.ProgressBus
	logger         arbor.ILogger
	maxConcurrent  int
	defaultTimeout time.Duration
	eventDelay     time.Duration
}

// New creates an orchestrator.
func New(res *resolver.Service, pipeline *analysis.Pipeline, bus interfaces.ProgressBus, cfg *common.Config, logger arbor.ILogger) *Orchestrator {
	maxConcurrent := cfg.Analysis.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}
	return &Orchestrator{
		resolver:       res,
		pipeline:       pipeline,
		bus:            bus,
		logger:         logger,
		maxConcurrent:  maxConcurrent,
		defaultTimeout: cfg.AnalysisTimeout(),
		eventDelay:     cfg.EventDelay(),
	}
}

// Analyze runs one research request. Confirmed symbols bypass resolution;
// otherwise tickers are extracted from the query text. An error is returned
// only when nothing could be analyzed at all.
func (o *Orchestrator) Analyze(ctx context.Context, params Params) (*Result, error) {
	reporter := events.NewReporter(o.bus, params.RequestID, o.eventDelay)
	reporter.QueryReceived(params.Query)

	tickers, unresolved, err := o.resolveTickers(params, reporter)
	if err != nil {
		return &Result{UnresolvedNames: unresolved}, err
	}

	timeout := o.defaultTimeout
	if params.TimeoutSeconds > 0 {
		timeout = time.Duration(params.TimeoutSeconds) * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	reporter.StartingAnalysis(tickers)
	o.logger.Info().
		Str("request_id", params.RequestID).
		Strs("tickers", tickers).
		Int("max_concurrent", o.maxConcurrent).
		Msg("Starting analysis")

	insights := make([]*models.Insight, len(tickers))
	sem := make(chan struct{}, o.maxConcurrent)
	var wg sync.WaitGroup

	for i, ticker := range tickers {
		wg.Add(1)
		go func(i int, ticker string) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					o.logger.Error().
						Str("request_id", params.RequestID).
						Str("ticker", ticker).
						Str("panic", fmt.Sprintf("%v", r)).
						Msg("Analysis panicked")
					reporter.Warning(ticker, fmt.Sprintf("Analysis failed for %s", ticker))
					insights[i] = recoveredInsight(ticker, r)
				}
			}()
			sem <- struct{}{}
			defer func() { <-sem }()
			insights[i] = o.pipeline.AnalyzeTicker(ctx, ticker, params.MaxIterations, reporter)
		}(i, ticker)
	}
	wg.Wait()

	reporter.AllAnalysisComplete(len(insights))

	return &Result{
		Tickers:         tickers,
		UnresolvedNames: unresolved,
		Insights:        insights,
	}, nil
}

func (o *Orchestrator) resolveTickers(params Params, reporter *events.Reporter) (tickers, unresolved []string, err error) {
	if len(params.ConfirmedSymbols) > 0 {
		tickers = dedupeUpper(params.ConfirmedSymbols)
		reporter.TickersFound(tickers)
		return tickers, nil, nil
	}

	reporter.ExtractingTickers()
	resolved, unresolvedNames := o.resolver.ExtractFromQuery(params.Query)

	if len(resolved) == 0 {
		if len(unresolvedNames) > 0 {
			return nil, unresolvedNames, fmt.Errorf(
				"could not resolve company names: %s: %w",
				strings.Join(unresolvedNames, ", "),
				interfaces.ErrNoTickersResolved)
		}
		return nil, nil, interfaces.ErrNoTickersResolved
	}

	reporter.TickersFound(resolved)
	return resolved, unresolvedNames, nil
}

// recoveredInsight stands in for a ticker whose analysis panicked. The
// panic is recorded on the trace and the siblings keep running.
func recoveredInsight(ticker string, cause any) *models.Insight {
	return &models.Insight{
		Ticker:      ticker,
		CompanyName: ticker,
		Summary:     fmt.Sprintf("Data unavailable for %s. Analysis could not be completed.", ticker),
		Stance:      models.StanceHold,
		Confidence:  models.ConfidenceLow,
		Rationale:   fmt.Sprintf("Analysis for %s stopped unexpectedly, so no informed recommendation is possible. Defaulting to hold with low confidence.", ticker),
		Traces: []models.Trace{{
			AgentName: "research_pipeline",
			Ticker:    ticker,
			Error:     fmt.Sprintf("panic: %v", cause),
		}},
		Timestamp: time.Now().UTC(),
	}
}

func dedupeUpper(symbols []string) []string {
	seen := make(map[string]struct{}, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

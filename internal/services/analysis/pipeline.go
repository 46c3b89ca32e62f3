// Package analysis runs the fixed per-ticker research pipeline: company
// profile, news, price history, financials, then a synthesized verdict.
package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/quaestor/internal/common"
	"github.com/ternarybob/quaestor/internal/interfaces"
	"github.com/ternarybob/quaestor/internal/models"
	"github.com/ternarybob/quaestor/internal/services/events"
	"github.com/ternarybob/quaestor/internal/services/llm"
)

const (
	stageProfile    = "company_profile"
	stageNews       = "news"
	stagePrice      = "price_history"
	stageFinancials = "financials"
	stageSynthesis  = "synthesis"

	// topNewsCount is how many headlines feed summarization and sources.
	topNewsCount = 5

	// historyDays is the calendar window fetched for technicals.
	historyDays = 90

	// defaultOracleCalls is the reasoning budget per ticker, one call per
	// oracle-backed stage (news, technicals, synthesis).
	defaultOracleCalls = 3
)

// newsSummary is the structured output of the news stage.
type newsSummary struct {
	Summary   string   `json:"summary"`
	Sentiment string   `json:"sentiment"`
	KeyPoints []string `json:"key_points"`
}

// technicalAnalysis is the structured output of the price stage.
type technicalAnalysis struct {
	SupportLevels    []float64 `json:"support_levels"`
	ResistanceLevels []float64 `json:"resistance_levels"`
	TechnicalSummary string    `json:"technical_summary"`
}

// synthesisResult is the structured output of the final stage.
type synthesisResult struct {
	Rationale           string   `json:"rationale"`
	KeyDrivers          []string `json:"key_drivers"`
	Risks               []string `json:"risks"`
	Catalysts           []string `json:"catalysts"`
	Stance              string   `json:"stance"`
	Confidence          string   `json:"confidence"`
	ConfidenceRationale string   `json:"confidence_rationale"`
}

// Pipeline runs the five analysis stages for one ticker. A failed company
// profile degrades the whole ticker to a data-unavailable insight; every
// later stage has a data-only fallback so one bad call never sinks the run.
type Pipeline struct {
	market       interfaces.MarketDataProvider
	oracle       interfaces.Oracle
	logger       arbor.ILogger
	maxNewsItems int
}

// NewPipeline creates an analysis pipeline.
func NewPipeline(market interfaces.MarketDataProvider, oracle interfaces.Oracle, cfg *common.AnalysisConfig, logger arbor.ILogger) *Pipeline {
	maxNews := cfg.MaxNewsItems
	if maxNews <= 0 {
		maxNews = 10
	}
	return &Pipeline{
		market:       market,
		oracle:       oracle,
		logger:       logger,
		maxNewsItems: maxNews,
	}
}

// AnalyzeTicker runs all stages for one ticker and always returns an
// insight. Degraded results carry a low-confidence hold stance.
// maxIterations bounds the oracle-backed reasoning calls; stages past the
// budget use their data-only fallbacks. Zero means the default of one call
// per oracle-backed stage.
func (p *Pipeline) AnalyzeTicker(ctx context.Context, ticker string, maxIterations int, reporter *events.Reporter) *models.Insight {
	started := time.Now()
	budget := maxIterations
	if budget <= 0 {
		budget = defaultOracleCalls
	}
	trace := models.Trace{
		AgentName: "research_pipeline",
		Ticker:    ticker,
	}

	// Stage 1: company profile
	reporter.StageStarted(ticker, stageProfile, fmt.Sprintf("Fetching company information for %s", ticker))
	reporter.FetchingCompanyInfo(ticker)
	stageStart := time.Now()
	profile, err := p.market.GetProfile(ctx, ticker)
	trace.Steps = append(trace.Steps, models.TraceStep{
		StepNumber:  1,
		Thought:     "Need the current market snapshot before any analysis",
		Action:      "fetch company profile",
		Observation: observeProfile(profile, err),
		LatencyMs:   time.Since(stageStart).Milliseconds(),
	})
	if err != nil {
		p.logger.Warn().Err(err).Str("ticker", ticker).Msg("Company profile unavailable, returning degraded insight")
		reporter.Warning(ticker, fmt.Sprintf("Could not fetch data for %s", ticker))
		trace.TotalLatencyMs = time.Since(started).Milliseconds()
		trace.Error = err.Error()
		return degradedInsight(ticker, trace)
	}
	reporter.StageCompleted(ticker, stageProfile, fmt.Sprintf("%s trading at $%.2f", ticker, profile.CurrentPrice))

	// Stage 2: news and sentiment
	reporter.StageStarted(ticker, stageNews, fmt.Sprintf("Gathering recent news for %s", ticker))
	reporter.FetchingNews(ticker)
	stageStart = time.Now()
	items, err := p.market.GetNews(ctx, ticker, p.maxNewsItems)
	if err != nil {
		p.logger.Warn().Err(err).Str("ticker", ticker).Msg("News unavailable")
		reporter.Warning(ticker, fmt.Sprintf("News unavailable for %s", ticker))
		items = nil
	}
	reporter.NewsFound(ticker, len(items))
	reporter.AnalyzingNewsSentiment(ticker)
	news := p.summarizeNews(ctx, ticker, items, &budget)
	trace.Steps = append(trace.Steps, models.TraceStep{
		StepNumber:  2,
		Thought:     "Recent headlines drive near-term sentiment",
		Action:      "fetch news and summarize sentiment",
		Observation: fmt.Sprintf("%d articles, %s sentiment", len(items), news.Sentiment),
		LatencyMs:   time.Since(stageStart).Milliseconds(),
	})
	reporter.StageCompleted(ticker, stageNews, fmt.Sprintf("News sentiment for %s is %s", ticker, news.Sentiment))

	// Stage 3: price history and technicals
	reporter.StageStarted(ticker, stagePrice, fmt.Sprintf("Analyzing price action for %s", ticker))
	reporter.FetchingPriceData(ticker)
	stageStart = time.Now()
	history, err := p.market.GetPriceHistory(ctx, ticker, historyDays)
	if err != nil {
		p.logger.Warn().Err(err).Str("ticker", ticker).Msg("Price history unavailable")
		reporter.Warning(ticker, fmt.Sprintf("Price history unavailable for %s", ticker))
		history = &models.PriceHistory{Ticker: ticker, Trend: "neutral"}
	}
	reporter.AnalyzingTechnicals(ticker)
	technicals := p.analyzeTechnicals(ctx, ticker, profile, history, &budget)
	trace.Steps = append(trace.Steps, models.TraceStep{
		StepNumber:  3,
		Thought:     "Support, resistance and trend frame the entry point",
		Action:      "fetch price history and derive technicals",
		Observation: fmt.Sprintf("trend %s, %d support levels", history.Trend, len(technicals.SupportLevels)),
		LatencyMs:   time.Since(stageStart).Milliseconds(),
	})
	reporter.PriceAnalysisComplete(ticker, history.Trend)
	reporter.StageCompleted(ticker, stagePrice, fmt.Sprintf("%s trend is %s", ticker, history.Trend))

	// Stage 4: financial metrics
	reporter.StageStarted(ticker, stageFinancials, fmt.Sprintf("Reviewing fundamentals for %s", ticker))
	reporter.FetchingFinancials(ticker)
	stageStart = time.Now()
	metrics, err := p.market.GetFinancialMetrics(ctx, ticker)
	if err != nil {
		p.logger.Warn().Err(err).Str("ticker", ticker).Msg("Financial metrics unavailable")
		reporter.Warning(ticker, fmt.Sprintf("Financial metrics unavailable for %s", ticker))
		metrics = &models.FinancialMetrics{Ticker: ticker}
	}
	trace.Steps = append(trace.Steps, models.TraceStep{
		StepNumber:  4,
		Thought:     "Fundamentals anchor the valuation view",
		Action:      "fetch financial metrics",
		Observation: fmt.Sprintf("P/E %.2f, EPS %.2f", metrics.PERatio, metrics.EPS),
		LatencyMs:   time.Since(stageStart).Milliseconds(),
	})
	reporter.StageCompleted(ticker, stageFinancials, fmt.Sprintf("Fundamentals collected for %s", ticker))

	// Stage 5: synthesis
	reporter.StageStarted(ticker, stageSynthesis, fmt.Sprintf("Synthesizing recommendation for %s", ticker))
	reporter.SynthesizingAnalysis(ticker)
	stageStart = time.Now()
	priceChangePct := priceChangeFromLow(profile)
	verdict := p.synthesize(ctx, ticker, profile, news, history, metrics, priceChangePct, &budget)
	trace.Steps = append(trace.Steps, models.TraceStep{
		StepNumber:  5,
		Thought:     "Combine sentiment, technicals and fundamentals into a stance",
		Action:      "synthesize investment analysis",
		Observation: fmt.Sprintf("stance %s, confidence %s", verdict.Stance, verdict.Confidence),
		LatencyMs:   time.Since(stageStart).Milliseconds(),
	})

	insight := p.buildInsight(ticker, profile, news, history, metrics, technicals, verdict, items)
	trace.TotalLatencyMs = time.Since(started).Milliseconds()
	trace.Success = true
	insight.Traces = []models.Trace{trace}

	reporter.RecommendationComplete(ticker, insight.Stance)
	reporter.StageCompleted(ticker, stageSynthesis, fmt.Sprintf("Recommendation for %s: %s", ticker, insight.Stance))
	reporter.TickerAnalysisComplete(ticker)

	p.logger.Info().
		Str("ticker", ticker).
		Str("stance", string(insight.Stance)).
		Str("confidence", string(insight.Confidence)).
		Int64("latency_ms", trace.TotalLatencyMs).
		Msg("Ticker analysis complete")

	return insight
}

func (p *Pipeline) summarizeNews(ctx context.Context, ticker string, items []models.NewsItem, budget *int) *newsSummary {
	if len(items) == 0 {
		return fallbackNewsSummary(ticker, nil)
	}
	if *budget <= 0 {
		return fallbackNewsSummary(ticker, items)
	}
	*budget--

	top := items
	if len(top) > topNewsCount {
		top = top[:topNewsCount]
	}

	response, err := p.oracle.Complete(ctx, []interfaces.Message{
		{Role: "user", Content: newsPrompt(ticker, top)},
	})
	if err != nil {
		p.logger.Warn().Err(err).Str("ticker", ticker).Msg("News summarization failed, using fallback")
		return fallbackNewsSummary(ticker, items)
	}

	var result newsSummary
	if err := llm.ParseJSONBlock(response, &result); err != nil {
		p.logger.Warn().Err(err).Str("ticker", ticker).Msg("Malformed news summary, using fallback")
		return fallbackNewsSummary(ticker, items)
	}
	if result.Summary == "" {
		return fallbackNewsSummary(ticker, items)
	}
	switch result.Sentiment {
	case "positive", "negative", "neutral":
	default:
		result.Sentiment = "neutral"
	}
	return &result
}

func (p *Pipeline) analyzeTechnicals(ctx context.Context, ticker string, profile *models.CompanyProfile, history *models.PriceHistory, budget *int) *technicalAnalysis {
	if len(history.Points) == 0 {
		return fallbackTechnicals(ticker, profile, history)
	}
	if *budget <= 0 {
		return fallbackTechnicals(ticker, profile, history)
	}
	*budget--

	response, err := p.oracle.Complete(ctx, []interfaces.Message{
		{Role: "user", Content: technicalsPrompt(ticker, profile, history)},
	})
	if err != nil {
		p.logger.Warn().Err(err).Str("ticker", ticker).Msg("Technical analysis failed, using price data directly")
		return fallbackTechnicals(ticker, profile, history)
	}

	var result technicalAnalysis
	if err := llm.ParseJSONBlock(response, &result); err != nil {
		p.logger.Warn().Err(err).Str("ticker", ticker).Msg("Malformed technical analysis, using price data directly")
		return fallbackTechnicals(ticker, profile, history)
	}

	if len(result.SupportLevels) == 0 {
		result.SupportLevels = history.SupportLevels
	}
	if len(result.ResistanceLevels) == 0 {
		result.ResistanceLevels = history.ResistanceLevels
	}
	result.SupportLevels = common.RoundHalfUpSlice(result.SupportLevels)
	result.ResistanceLevels = common.RoundHalfUpSlice(result.ResistanceLevels)
	return &result
}

func (p *Pipeline) synthesize(ctx context.Context, ticker string, profile *models.CompanyProfile, news *newsSummary, history *models.PriceHistory, metrics *models.FinancialMetrics, priceChangePct float64, budget *int) *synthesisResult {
	if *budget <= 0 {
		return fallbackSynthesis(ticker, profile, news, history, metrics, priceChangePct)
	}
	*budget--

	response, err := p.oracle.Complete(ctx, []interfaces.Message{
		{Role: "user", Content: synthesisPrompt(ticker, profile, news, history, metrics, priceChangePct)},
	})
	if err != nil {
		p.logger.Warn().Err(err).Str("ticker", ticker).Msg("Synthesis failed, using rule-based fallback")
		return fallbackSynthesis(ticker, profile, news, history, metrics, priceChangePct)
	}

	var result synthesisResult
	if err := llm.ParseJSONBlock(response, &result); err != nil {
		p.logger.Warn().Err(err).Str("ticker", ticker).Msg("Malformed synthesis, using rule-based fallback")
		return fallbackSynthesis(ticker, profile, news, history, metrics, priceChangePct)
	}

	switch result.Stance {
	case string(models.StanceBuy), string(models.StanceHold), string(models.StanceSell):
	default:
		result.Stance = string(models.StanceHold)
	}
	switch result.Confidence {
	case string(models.ConfidenceLow), string(models.ConfidenceMedium), string(models.ConfidenceHigh):
	default:
		result.Confidence = string(models.ConfidenceMedium)
	}
	if result.Rationale == "" {
		return fallbackSynthesis(ticker, profile, news, history, metrics, priceChangePct)
	}
	return &result
}

func (p *Pipeline) buildInsight(ticker string, profile *models.CompanyProfile, news *newsSummary, history *models.PriceHistory, metrics *models.FinancialMetrics, technicals *technicalAnalysis, verdict *synthesisResult, items []models.NewsItem) *models.Insight {
	sources := make([]models.Source, 0, topNewsCount)
	for i, item := range items {
		if i >= topNewsCount {
			break
		}
		sources = append(sources, models.Source{
			Title:   item.Title,
			URL:     item.URL,
			Snippet: snippet(item),
		})
	}

	return &models.Insight{
		Ticker:           ticker,
		CompanyName:      profile.CompanyName,
		CurrentPrice:     common.RoundHalfUp(profile.CurrentPrice),
		ChangePercent:    common.RoundHalfUp(profile.ChangePercent),
		MarketCap:        profile.MarketCap,
		PERatio:          common.RoundHalfUp(metrics.PERatio),
		Week52High:       common.RoundHalfUp(profile.Week52High),
		Week52Low:        common.RoundHalfUp(profile.Week52Low),
		SupportLevels:    technicals.SupportLevels,
		ResistanceLevels: technicals.ResistanceLevels,
		Trend:            history.Trend,
		Summary:          news.Summary,
		KeyDrivers:       verdict.KeyDrivers,
		Risks:            verdict.Risks,
		Catalysts:        verdict.Catalysts,
		Stance:           models.Stance(verdict.Stance),
		Confidence:       models.Confidence(verdict.Confidence),
		Rationale:        verdict.Rationale,
		Sources:          sources,
		Timestamp:        time.Now().UTC(),
	}
}

// degradedInsight is returned when no market data could be fetched at all.
func degradedInsight(ticker string, trace models.Trace) *models.Insight {
	return &models.Insight{
		Ticker:      ticker,
		CompanyName: ticker,
		Summary:     fmt.Sprintf("Data unavailable for %s. Analysis could not be completed.", ticker),
		Stance:      models.StanceHold,
		Confidence:  models.ConfidenceLow,
		Rationale:   fmt.Sprintf("Market data for %s could not be fetched, so no informed recommendation is possible. Defaulting to hold with low confidence.", ticker),
		Traces:      []models.Trace{trace},
		Timestamp:   time.Now().UTC(),
	}
}

func priceChangeFromLow(profile *models.CompanyProfile) float64 {
	if profile.Week52Low <= 0 || profile.CurrentPrice <= 0 {
		return 0
	}
	return common.RoundHalfUp((profile.CurrentPrice - profile.Week52Low) / profile.Week52Low * 100)
}

func observeProfile(profile *models.CompanyProfile, err error) string {
	if err != nil {
		return "profile fetch failed: " + err.Error()
	}
	return fmt.Sprintf("%s at $%.2f (%+.2f%%)", profile.CompanyName, profile.CurrentPrice, profile.ChangePercent)
}

func snippet(item models.NewsItem) string {
	const maxSnippet = 200
	text := item.Content
	if text == "" {
		text = item.Title
	}
	if runes := []rune(text); len(runes) > maxSnippet {
		text = string(runes[:maxSnippet])
	}
	return text
}

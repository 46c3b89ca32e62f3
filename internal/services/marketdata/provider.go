package marketdata

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/quaestor/internal/common"
	"github.com/ternarybob/quaestor/internal/interfaces"
	"github.com/ternarybob/quaestor/internal/models"
)

const (
	// defaultExchange is appended to bare tickers for API symbols.
	defaultExchange = "US"

	// technicalWindow is how many recent closes feed support and
	// resistance levels.
	technicalWindow = 30

	levelCount = 3
)

// Provider adapts the market data client to the typed operations the
// analysis pipeline consumes. All derived numbers are rounded half-up to
// two decimal places so repeated analyses of the same data agree exactly.
type Provider struct {
	client        *Client
	logger        arbor.ILogger
	fetchArticles bool
	articles      *articleFetcher
}

// NewProvider creates a provider over a market data client.
func NewProvider(client *Client, cfg *common.MarketDataConfig, logger arbor.ILogger) *Provider {
	p := &Provider{
		client:        client,
		logger:        logger,
		fetchArticles: cfg.FetchArticles,
	}
	if p.fetchArticles {
		p.articles = newArticleFetcher(logger)
	}
	return p
}

func apiSymbol(ticker string) string {
	return ticker + "." + defaultExchange
}

// notFound reports whether the API rejected the symbol itself.
func notFound(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusNotFound
	}
	return false
}

// GetProfile returns the market snapshot for a ticker. Fundamentals are
// best effort; a profile with just the quote is still usable.
func (p *Provider) GetProfile(ctx context.Context, ticker string) (*models.CompanyProfile, error) {
	quote, err := p.client.GetQuote(ctx, apiSymbol(ticker))
	if err != nil {
		if notFound(err) {
			return nil, interfaces.ErrSymbolNotFound
		}
		return nil, err
	}

	profile := &models.CompanyProfile{
		Ticker:        ticker,
		CompanyName:   ticker,
		CurrentPrice:  common.RoundHalfUp(quote.Close),
		ChangePercent: common.RoundHalfUp(quote.ChangePercent),
	}

	fundamentals, err := p.client.GetFundamentals(ctx, apiSymbol(ticker))
	if err != nil {
		p.logger.Warn().Err(err).Str("ticker", ticker).Msg("Fundamentals unavailable, returning quote only")
		return profile, nil
	}

	if g := fundamentals.General; g != nil {
		if g.Name != "" {
			profile.CompanyName = g.Name
		}
		profile.Exchange = g.Exchange
		profile.Currency = g.CurrencyCode
	}
	if h := fundamentals.Highlights; h != nil {
		profile.MarketCap = h.MarketCapitalization
		profile.PERatio = common.RoundHalfUp(h.PERatio)
		profile.EPS = common.RoundHalfUp(h.EarningsShare)
	}
	if t := fundamentals.Technicals; t != nil {
		profile.Week52High = common.RoundHalfUp(t.FiftyTwoWeekHigh)
		profile.Week52Low = common.RoundHalfUp(t.FiftyTwoWeekLow)
	}

	p.logger.Debug().
		Str("ticker", ticker).
		Float64("price", profile.CurrentPrice).
		Msg("Fetched company profile")

	return profile, nil
}

// GetNews returns up to limit recent headlines for a ticker.
func (p *Provider) GetNews(ctx context.Context, ticker string, limit int) ([]models.NewsItem, error) {
	articles, err := p.client.GetNews(ctx, apiSymbol(ticker), WithLimit(limit))
	if err != nil {
		if notFound(err) {
			return []models.NewsItem{}, nil
		}
		return nil, err
	}

	items := make([]models.NewsItem, 0, len(articles))
	for _, a := range articles {
		if a.Title == "" {
			continue
		}
		item := models.NewsItem{
			Title:       a.Title,
			URL:         a.Link,
			Content:     a.Content,
			PublishedAt: a.Date,
		}
		if p.fetchArticles && item.Content == "" && item.URL != "" {
			if body, err := p.articles.Fetch(ctx, item.URL); err == nil {
				item.Content = body
			}
		}
		items = append(items, item)
		if len(items) >= limit {
			break
		}
	}

	p.logger.Debug().
		Str("ticker", ticker).
		Int("count", len(items)).
		Msg("Fetched news")

	return items, nil
}

// GetPriceHistory returns daily bars for the last days calendar days with
// derived technicals. Moving averages use the most recent closes, support
// levels are the lowest recent closes and resistance levels the highest,
// and the trend compares the short average against the long one with a two
// percent band.
func (p *Provider) GetPriceHistory(ctx context.Context, ticker string, days int) (*models.PriceHistory, error) {
	if days <= 0 {
		days = 30
	}
	to := time.Now().UTC()
	from := to.AddDate(0, 0, -days)

	bars, err := p.client.GetEOD(ctx, apiSymbol(ticker), WithDateRange(from, to))
	if err != nil {
		if notFound(err) {
			return nil, interfaces.ErrSymbolNotFound
		}
		return nil, err
	}

	points := make([]models.PricePoint, 0, len(bars))
	closes := make([]float64, 0, len(bars))
	for _, b := range bars {
		if b.Close <= 0 {
			continue
		}
		points = append(points, models.PricePoint{
			Date:   b.Date,
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: b.Volume,
		})
		closes = append(closes, b.Close)
	}

	if len(closes) == 0 {
		return nil, interfaces.ErrSymbolNotFound
	}

	ma20 := common.RoundHalfUp(trailingMean(closes, 20))
	ma50 := common.RoundHalfUp(trailingMean(closes, 50))
	support, resistance := supportResistance(closes)

	history := &models.PriceHistory{
		Ticker:           ticker,
		Points:           points,
		MA20:             ma20,
		MA50:             ma50,
		Trend:            classifyTrend(ma20, ma50),
		SupportLevels:    common.RoundHalfUpSlice(support),
		ResistanceLevels: common.RoundHalfUpSlice(resistance),
	}

	p.logger.Debug().
		Str("ticker", ticker).
		Int("bars", len(points)).
		Str("trend", history.Trend).
		Msg("Fetched price history")

	return history, nil
}

// GetFinancialMetrics returns the fundamentals subset for a ticker.
func (p *Provider) GetFinancialMetrics(ctx context.Context, ticker string) (*models.FinancialMetrics, error) {
	fundamentals, err := p.client.GetFundamentals(ctx, apiSymbol(ticker))
	if err != nil {
		if notFound(err) {
			return nil, interfaces.ErrSymbolNotFound
		}
		return nil, err
	}

	metrics := &models.FinancialMetrics{Ticker: ticker}
	if h := fundamentals.Highlights; h != nil {
		metrics.MarketCap = h.MarketCapitalization
		metrics.PERatio = common.RoundHalfUp(h.PERatio)
		metrics.EPS = common.RoundHalfUp(h.EarningsShare)
		metrics.RevenueGrowth = common.RoundHalfUp(h.QuarterlyRevenueGrowthYOY)
		metrics.ProfitMargin = common.RoundHalfUp(h.ProfitMargin)
	}
	return metrics, nil
}

// trailingMean averages the last n values, or all of them when fewer exist.
func trailingMean(values []float64, n int) float64 {
	if len(values) == 0 {
		return 0
	}
	if len(values) < n {
		n = len(values)
	}
	sum := 0.0
	for _, v := range values[len(values)-n:] {
		sum += v
	}
	return sum / float64(n)
}

// supportResistance returns the lowest and highest recent closes. Support
// levels are sorted ascending, resistance levels descending.
func supportResistance(closes []float64) (support, resistance []float64) {
	window := closes
	if len(window) > technicalWindow {
		window = window[len(window)-technicalWindow:]
	}

	sorted := make([]float64, len(window))
	copy(sorted, window)
	sort.Float64s(sorted)

	n := levelCount
	if n > len(sorted) {
		n = len(sorted)
	}

	support = make([]float64, n)
	copy(support, sorted[:n])

	resistance = make([]float64, n)
	for i := 0; i < n; i++ {
		resistance[i] = sorted[len(sorted)-1-i]
	}
	return support, resistance
}

func classifyTrend(ma20, ma50 float64) string {
	switch {
	case ma20 > ma50*1.02:
		return "bullish"
	case ma20 < ma50*0.98:
		return "bearish"
	default:
		return "neutral"
	}
}

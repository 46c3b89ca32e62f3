package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/quaestor/internal/common"
	"github.com/ternarybob/quaestor/internal/interfaces"
)

// newTestServer serves a fixed AAPL dataset and 404s everything else
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("api_token") == "" {
			http.Error(w, "missing api_token", http.StatusUnauthorized)
			return
		}

		switch {
		case r.URL.Path == "/real-time/AAPL.US":
			json.NewEncoder(w).Encode(Quote{
				Code:          "AAPL.US",
				Close:         189.954999,
				PreviousClose: 188.0,
				Change:        1.95,
				ChangePercent: 1.0372,
			})
		case r.URL.Path == "/fundamentals/AAPL.US":
			json.NewEncoder(w).Encode(Fundamentals{
				General: &GeneralInfo{
					Code:         "AAPL",
					Name:         "Apple Inc",
					Exchange:     "NASDAQ",
					CurrencyCode: "USD",
				},
				Highlights: &Highlights{
					MarketCapitalization:      2_750_000_000_000,
					PERatio:                   29.3456,
					EarningsShare:             6.4289,
					ProfitMargin:              0.2531,
					QuarterlyRevenueGrowthYOY: 0.081,
				},
				Technicals: &Technicals{
					FiftyTwoWeekHigh: 199.62,
					FiftyTwoWeekLow:  164.08,
				},
			})
		case r.URL.Path == "/eod/AAPL.US":
			bars := make(EODResponse, 0, 60)
			start := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
			for i := 0; i < 60; i++ {
				bars = append(bars, EODBar{
					DateStr: start.AddDate(0, 0, i).Format("2006-01-02"),
					Close:   100 + float64(i),
					Volume:  1000,
				})
			}
			json.NewEncoder(w).Encode(bars)
		case r.URL.Path == "/news":
			articles := make(NewsResponse, 0, 8)
			for i := 0; i < 8; i++ {
				articles = append(articles, NewsArticle{
					DateStr: "2026-06-01 12:00:00",
					Title:   fmt.Sprintf("Apple headline %d", i+1),
					Link:    fmt.Sprintf("https://example.com/news/%d", i+1),
				})
			}
			json.NewEncoder(w).Encode(articles)
		case strings.HasPrefix(r.URL.Path, "/real-time/") ||
			strings.HasPrefix(r.URL.Path, "/fundamentals/") ||
			strings.HasPrefix(r.URL.Path, "/eod/"):
			http.Error(w, "unknown symbol", http.StatusNotFound)
		default:
			http.Error(w, "not found", http.StatusNotFound)
		}
	}))
}

func newTestProvider(t *testing.T, baseURL string) *Provider {
	t.Helper()
	client := NewClient("test-token",
		WithBaseURL(baseURL),
		WithLogger(arbor.NewLogger()),
		WithRateInterval(time.Microsecond))
	cfg := &common.MarketDataConfig{}
	return NewProvider(client, cfg, arbor.NewLogger())
}

func TestGetProfile(t *testing.T) {
	server := newTestServer(t)
	defer server.Close()
	provider := newTestProvider(t, server.URL)

	profile, err := provider.GetProfile(context.Background(), "AAPL")
	require.NoError(t, err)

	assert.Equal(t, "AAPL", profile.Ticker)
	assert.Equal(t, "Apple Inc", profile.CompanyName)
	assert.Equal(t, "NASDAQ", profile.Exchange)
	assert.Equal(t, "USD", profile.Currency)
	assert.Equal(t, 189.95, profile.CurrentPrice)
	assert.Equal(t, 1.04, profile.ChangePercent)
	assert.Equal(t, 29.35, profile.PERatio)
	assert.Equal(t, 6.43, profile.EPS)
	assert.Equal(t, 199.62, profile.Week52High)
}

func TestGetProfileUnknownSymbol(t *testing.T) {
	server := newTestServer(t)
	defer server.Close()
	provider := newTestProvider(t, server.URL)

	_, err := provider.GetProfile(context.Background(), "ZZZZ")
	assert.ErrorIs(t, err, interfaces.ErrSymbolNotFound)
}

func TestGetProfileQuoteOnlyWhenFundamentalsFail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/real-time/") {
			json.NewEncoder(w).Encode(Quote{Code: "AAPL.US", Close: 190.0, ChangePercent: 0.5})
			return
		}
		http.Error(w, "server error", http.StatusInternalServerError)
	}))
	defer server.Close()
	provider := newTestProvider(t, server.URL)

	profile, err := provider.GetProfile(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 190.0, profile.CurrentPrice)
	assert.Equal(t, "AAPL", profile.CompanyName)
	assert.Zero(t, profile.MarketCap)
}

func TestGetNewsRespectsLimit(t *testing.T) {
	server := newTestServer(t)
	defer server.Close()
	provider := newTestProvider(t, server.URL)

	items, err := provider.GetNews(context.Background(), "AAPL", 5)
	require.NoError(t, err)
	require.Len(t, items, 5)
	assert.Equal(t, "Apple headline 1", items[0].Title)
	assert.Equal(t, "https://example.com/news/1", items[0].URL)
}

func TestGetNewsUnknownSymbolReturnsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unknown symbol", http.StatusNotFound)
	}))
	defer server.Close()
	provider := newTestProvider(t, server.URL)

	items, err := provider.GetNews(context.Background(), "ZZZZ", 5)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestGetPriceHistoryTechnicals(t *testing.T) {
	server := newTestServer(t)
	defer server.Close()
	provider := newTestProvider(t, server.URL)

	// Closes are 100..159; the short average is well above the long one
	history, err := provider.GetPriceHistory(context.Background(), "AAPL", 90)
	require.NoError(t, err)

	assert.Len(t, history.Points, 60)
	assert.Equal(t, 149.5, history.MA20)
	assert.Equal(t, 134.5, history.MA50)
	assert.Equal(t, "bullish", history.Trend)
	assert.Equal(t, []float64{130, 131, 132}, history.SupportLevels)
	assert.Equal(t, []float64{159, 158, 157}, history.ResistanceLevels)
}

func TestGetFinancialMetrics(t *testing.T) {
	server := newTestServer(t)
	defer server.Close()
	provider := newTestProvider(t, server.URL)

	metrics, err := provider.GetFinancialMetrics(context.Background(), "AAPL")
	require.NoError(t, err)

	assert.Equal(t, 29.35, metrics.PERatio)
	assert.Equal(t, 6.43, metrics.EPS)
	assert.Equal(t, 0.25, metrics.ProfitMargin)
	assert.Equal(t, 0.08, metrics.RevenueGrowth)
}

func TestTrailingMean(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		n      int
		want   float64
	}{
		{"full window", []float64{1, 2, 3, 4}, 2, 3.5},
		{"short series", []float64{10, 20}, 50, 15},
		{"single value", []float64{7}, 20, 7},
		{"empty", nil, 20, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, trailingMean(tt.values, tt.n), 1e-9)
		})
	}
}

func TestClassifyTrend(t *testing.T) {
	assert.Equal(t, "bullish", classifyTrend(103, 100))
	assert.Equal(t, "bearish", classifyTrend(97, 100))
	assert.Equal(t, "neutral", classifyTrend(101, 100))
	assert.Equal(t, "neutral", classifyTrend(99, 100))
}

func TestSupportResistanceShortSeries(t *testing.T) {
	support, resistance := supportResistance([]float64{5, 3})
	assert.Equal(t, []float64{3, 5}, support)
	assert.Equal(t, []float64{5, 3}, resistance)
}

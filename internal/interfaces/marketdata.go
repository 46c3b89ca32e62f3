package interfaces

import (
	"context"

	"github.com/ternarybob/quaestor/internal/models"
)

// MarketDataProvider is the closed set of data operations available to the
// analysis pipeline. Stages call these typed methods directly; there is no
// dynamic tool dispatch.
type MarketDataProvider interface {
	// GetProfile returns the market snapshot for a ticker.
	// Returns ErrSymbolNotFound when the provider has no record of it.
	GetProfile(ctx context.Context, ticker string) (*models.CompanyProfile, error)

	// GetNews returns up to limit recent headlines for a ticker.
	// An empty slice with a nil error means no relevant news was found.
	GetNews(ctx context.Context, ticker string, limit int) ([]models.NewsItem, error)

	// GetPriceHistory returns recent daily bars with derived technicals
	// (moving averages, trend, support and resistance levels)
	GetPriceHistory(ctx context.Context, ticker string, days int) (*models.PriceHistory, error)

	// GetFinancialMetrics returns the fundamentals subset for a ticker
	GetFinancialMetrics(ctx context.Context, ticker string) (*models.FinancialMetrics, error)
}

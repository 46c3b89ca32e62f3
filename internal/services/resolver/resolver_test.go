package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/quaestor/internal/common"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	cfg := common.NewDefaultConfig()
	svc, err := NewService(&cfg.Resolver, arbor.NewLogger())
	require.NoError(t, err)
	return svc
}

func TestIsTicker(t *testing.T) {
	svc := newTestService(t)

	tests := []struct {
		input    string
		expected bool
	}{
		{"AAPL", true},
		{"V", true},
		{"GOOGL", true},
		{" MSFT ", true},
		{"TOOLONG", false},
		{"aapl", false},
		{"Apple", false},
		{"AAPL1", false},
		{"", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, svc.IsTicker(tt.input), "input %q", tt.input)
	}
}

func TestNormalize(t *testing.T) {
	svc := newTestService(t)

	tests := []struct {
		input    string
		expected string
	}{
		{"Apple Inc.", "apple"},
		{"Microsoft Corporation", "microsoft"},
		{"Tesla, Inc", "tesla"},
		{"  Coca-Cola  Company ", "coca-cola"},
		{"AT&T", "att"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, svc.Normalize(tt.input), "input %q", tt.input)
	}
}

func TestResolve(t *testing.T) {
	svc := newTestService(t)

	t.Run("exact company name", func(t *testing.T) {
		ticker, ok := svc.Resolve("Apple")
		require.True(t, ok)
		assert.Equal(t, "AAPL", ticker)
	})

	t.Run("ticker passes through", func(t *testing.T) {
		ticker, ok := svc.Resolve("NVDA")
		require.True(t, ok)
		assert.Equal(t, "NVDA", ticker)
	})

	t.Run("suffix stripped", func(t *testing.T) {
		ticker, ok := svc.Resolve("Tesla Inc")
		require.True(t, ok)
		assert.Equal(t, "TSLA", ticker)
	})

	t.Run("close misspelling resolves fuzzily", func(t *testing.T) {
		ticker, ok := svc.Resolve("Microsft")
		require.True(t, ok)
		assert.Equal(t, "MSFT", ticker)
	})

	t.Run("unknown name fails", func(t *testing.T) {
		_, ok := svc.Resolve("Zorblax Industries")
		assert.False(t, ok)
	})
}

func TestSuggestions(t *testing.T) {
	svc := newTestService(t)

	t.Run("misspelling suggests the right company", func(t *testing.T) {
		suggestions := svc.Suggestions("Aple")
		require.NotEmpty(t, suggestions)

		tickers := make([]string, 0, len(suggestions))
		for _, s := range suggestions {
			tickers = append(tickers, s.Ticker)
		}
		assert.Contains(t, tickers, "AAPL")
	})

	t.Run("gibberish has no suggestions", func(t *testing.T) {
		assert.Empty(t, svc.Suggestions("qqqqzzzz"))
	})
}

func TestExtractFromQuery(t *testing.T) {
	svc := newTestService(t)

	t.Run("bare tickers", func(t *testing.T) {
		resolved, unresolved := svc.ExtractFromQuery("Analyze AAPL and MSFT")
		assert.Equal(t, []string{"AAPL", "MSFT"}, resolved)
		assert.Empty(t, unresolved)
	})

	t.Run("stop words excluded", func(t *testing.T) {
		resolved, _ := svc.ExtractFromQuery("WHAT IS THE BEST AI STOCK")
		assert.NotContains(t, resolved, "THE")
		assert.NotContains(t, resolved, "BEST")
		assert.NotContains(t, resolved, "AI")
		assert.NotContains(t, resolved, "WHAT")
	})

	t.Run("company names resolve", func(t *testing.T) {
		resolved, unresolved := svc.ExtractFromQuery("Compare Apple and Tesla performance")
		assert.Contains(t, resolved, "AAPL")
		assert.Contains(t, resolved, "TSLA")
		assert.Empty(t, unresolved)
	})

	t.Run("multi word company names use longest match", func(t *testing.T) {
		resolved, _ := svc.ExtractFromQuery("research Advanced Micro Devices earnings")
		assert.Contains(t, resolved, "AMD")
	})

	t.Run("two word phrase", func(t *testing.T) {
		resolved, _ := svc.ExtractFromQuery("how is Goldman Sachs doing")
		assert.Contains(t, resolved, "GS")
	})

	t.Run("unknown capitalized words are unresolved", func(t *testing.T) {
		resolved, unresolved := svc.ExtractFromQuery("What about Zorblax stock")
		assert.Empty(t, resolved)
		assert.Contains(t, unresolved, "Zorblax")
	})

	t.Run("duplicates removed preserving order", func(t *testing.T) {
		resolved, _ := svc.ExtractFromQuery("AAPL versus Apple versus AAPL")
		assert.Equal(t, []string{"AAPL"}, resolved)
	})

	t.Run("mixed tickers and names", func(t *testing.T) {
		resolved, _ := svc.ExtractFromQuery("Compare NVDA with Microsoft")
		assert.Equal(t, []string{"NVDA", "MSFT"}, resolved)
	})
}

func TestCompanyName(t *testing.T) {
	svc := newTestService(t)

	assert.Equal(t, "apple", svc.CompanyName("AAPL"))
	assert.Equal(t, "ZZZZ", svc.CompanyName("ZZZZ"))
}

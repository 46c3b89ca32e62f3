package analysis

import (
	"fmt"
	"strings"

	"github.com/ternarybob/quaestor/internal/models"
)

// newsPrompt builds the news summarization prompt over the top articles.
func newsPrompt(ticker string, items []models.NewsItem) string {
	var b strings.Builder
	for i, item := range items {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "Title: %s", item.Title)
		if !item.PublishedAt.IsZero() {
			fmt.Fprintf(&b, "\nDate: %s", item.PublishedAt.Format("2006-01-02"))
		}
		if item.Content != "" {
			fmt.Fprintf(&b, "\nSummary: %s", item.Content)
		}
	}

	return fmt.Sprintf(`You are a professional financial analyst at a top investment bank. Analyze the following news articles about %s and provide detailed, actionable insights.

NEWS ARTICLES:
%s

INSTRUCTIONS:
1. Write a comprehensive 3-4 sentence summary that covers the main developments, their business impact, and market implications
2. Determine the overall sentiment (positive, negative, or neutral) based on the news impact on stock value
3. Extract 5 specific, actionable key points that investors should know

Provide your analysis in JSON format:
{
    "summary": "Detailed 3-4 sentence summary covering main developments, business impact, and market implications",
    "sentiment": "positive, negative, or neutral",
    "key_points": [
        "Specific point 1 with concrete details",
        "Specific point 2 with concrete details",
        "Specific point 3 with concrete details",
        "Specific point 4 with concrete details",
        "Specific point 5 with concrete details"
    ]
}

Respond with ONLY the JSON, no additional text.`, ticker, b.String())
}

// technicalsPrompt builds the support and resistance analysis prompt.
func technicalsPrompt(ticker string, profile *models.CompanyProfile, history *models.PriceHistory) string {
	return fmt.Sprintf(`You are a professional technical analyst. Analyze the price levels for %s:

Current Price: $%.2f
52-Week High: $%.2f
52-Week Low: $%.2f
Trend: %s
20-Day MA: $%.2f
50-Day MA: $%.2f

Recent Resistance Levels: %s
Recent Support Levels: %s

Provide technical analysis in JSON format:
{
    "support_levels": [level1, level2, level3],
    "resistance_levels": [level1, level2, level3],
    "technical_summary": "2-3 sentence technical summary with specific price levels and trend analysis"
}

Respond with ONLY the JSON, no additional text.`,
		ticker,
		profile.CurrentPrice,
		profile.Week52High,
		profile.Week52Low,
		history.Trend,
		history.MA20,
		history.MA50,
		formatLevels(history.ResistanceLevels, len(history.ResistanceLevels)),
		formatLevels(history.SupportLevels, len(history.SupportLevels)))
}

// synthesisPrompt builds the final investment analysis prompt.
func synthesisPrompt(ticker string, profile *models.CompanyProfile, news *newsSummary, history *models.PriceHistory, metrics *models.FinancialMetrics, priceChangePct float64) string {
	var keyPoints strings.Builder
	for _, point := range news.KeyPoints {
		fmt.Fprintf(&keyPoints, "- %s\n", point)
	}

	revenueGrowth := "N/A (data not available)"
	if metrics.RevenueGrowth != 0 {
		revenueGrowth = fmt.Sprintf("%.2f%%", metrics.RevenueGrowth*100)
	}

	return fmt.Sprintf(`You are a senior equity research analyst. Provide a detailed investment analysis for %s (%s).

CURRENT DATA:

News Summary:
%s

Sentiment: %s

Key Developments:
%s
Price Data:
- Current Price: $%.2f
- 52-Week High: $%.2f
- 52-Week Low: $%.2f
- Trend: %s
- Price Change from 52W Low: %.2f%%

Financial Metrics:
- Market Cap: $%.0f
- P/E Ratio (TTM): %.2fx
- EPS (TTM): $%.2f
- Profit Margin: %.2f%%
- Revenue Growth: %s

INSTRUCTIONS:
Provide a comprehensive investment analysis with:

1. RATIONALE: Write 3-4 detailed sentences explaining:
   - The core investment thesis
   - Why this is a buy/hold/sell opportunity
   - Key factors supporting your recommendation
   - Expected outlook and timeframe

2. KEY DRIVERS (5 specific, measurable factors):
   - Each should be concrete and actionable
   - Include specific business metrics or initiatives
   - Explain HOW each driver impacts value

3. RISKS (5 specific, quantifiable concerns):
   - Each should be a real, material risk
   - Include potential impact magnitude
   - Be specific to this company, not generic

4. CATALYSTS (5 upcoming, time-bound events):
   - Each should have a timeframe (e.g., "Q4 2026")
   - Focus on near-term catalysts (next 3-12 months)
   - Include specific events, not vague statements

5. STANCE: Choose buy, hold, or sell based on:
   - buy: Strong upside potential (>15%%), improving fundamentals
   - hold: Fair value, stable outlook, limited catalysts
   - sell: Overvalued (>10%%), deteriorating fundamentals

6. CONFIDENCE: Choose high, medium, or low based on:
   - high: Clear trend, strong data, low uncertainty
   - medium: Mixed signals, moderate uncertainty
   - low: Limited data, high uncertainty, conflicting signals

Provide your analysis in JSON format:
{
    "rationale": "Detailed 3-4 sentence investment thesis with specific reasoning and outlook",
    "key_drivers": [
        "Specific driver 1 with measurable impact",
        "Specific driver 2 with measurable impact",
        "Specific driver 3 with measurable impact",
        "Specific driver 4 with measurable impact",
        "Specific driver 5 with measurable impact"
    ],
    "risks": [
        "Specific risk 1 with potential impact",
        "Specific risk 2 with potential impact",
        "Specific risk 3 with potential impact",
        "Specific risk 4 with potential impact",
        "Specific risk 5 with potential impact"
    ],
    "catalysts": [
        "Time-bound catalyst 1",
        "Time-bound catalyst 2",
        "Time-bound catalyst 3",
        "Time-bound catalyst 4",
        "Time-bound catalyst 5"
    ],
    "stance": "buy, hold, or sell",
    "confidence": "high, medium, or low",
    "confidence_rationale": "2-3 sentences explaining the confidence level based on data quality, market conditions, and outlook clarity"
}

Respond with ONLY the JSON, no additional text.`,
		ticker,
		profile.CompanyName,
		news.Summary,
		news.Sentiment,
		keyPoints.String(),
		profile.CurrentPrice,
		profile.Week52High,
		profile.Week52Low,
		history.Trend,
		priceChangePct,
		metrics.MarketCap,
		metrics.PERatio,
		metrics.EPS,
		metrics.ProfitMargin*100,
		revenueGrowth)
}

func formatLevels(levels []float64, n int) string {
	if n > len(levels) {
		n = len(levels)
	}
	parts := make([]string, 0, n)
	for _, level := range levels[:n] {
		parts = append(parts, fmt.Sprintf("$%.2f", level))
	}
	return strings.Join(parts, ", ")
}

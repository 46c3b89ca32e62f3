package marketdata

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"
)

const (
	articleTimeout = 10 * time.Second

	// maxArticleBytes caps downloaded article pages.
	maxArticleBytes = 2 << 20

	// maxArticleRunes caps the extracted body passed to summarization.
	maxArticleRunes = 4000
)

// articleFetcher downloads a news article page and extracts its body as
// markdown for richer news summaries.
type articleFetcher struct {
	httpClient *http.Client
	logger     arbor.ILogger
}

func newArticleFetcher(logger arbor.ILogger) *articleFetcher {
	return &articleFetcher{
		httpClient: &http.Client{Timeout: articleTimeout},
		logger:     logger,
	}
}

// Fetch returns the article body as markdown, truncated for prompts.
func (f *articleFetcher) Fetch(ctx context.Context, articleURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, articleURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch article: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("article fetch returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxArticleBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read article body: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return "", fmt.Errorf("failed to parse article HTML: %w", err)
	}

	doc.Find("script, style, nav, header, footer, aside").Remove()

	// Prefer the article element, fall back to the whole body
	content := doc.Find("article").First()
	if content.Length() == 0 {
		content = doc.Find("body").First()
	}
	html, err := content.Html()
	if err != nil {
		return "", fmt.Errorf("failed to extract article content: %w", err)
	}

	converter := md.NewConverter(articleURL, true, nil)
	markdown, err := converter.ConvertString(html)
	if err != nil {
		return "", fmt.Errorf("failed to convert article to markdown: %w", err)
	}

	markdown = strings.TrimSpace(markdown)
	if runes := []rune(markdown); len(runes) > maxArticleRunes {
		markdown = string(runes[:maxArticleRunes])
	}

	f.logger.Debug().
		Str("url", articleURL).
		Int("length", len(markdown)).
		Msg("Fetched article body")

	return markdown, nil
}

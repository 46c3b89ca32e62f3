package resolver

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/quaestor/internal/common"
)

var (
	tickerPattern  = regexp.MustCompile(`^[A-Z]{1,5}$`)
	tickerInQuery  = regexp.MustCompile(`\b[A-Z]{1,5}\b`)
	suffixPattern  = regexp.MustCompile(`\s+(inc|corp|corporation|company|co|ltd|limited)\b`)
	specialPattern = regexp.MustCompile(`[^\w\s-]`)
)

// stopWords are uppercase tokens that match the ticker shape but are ordinary
// English or query verbs, never symbols
var stopWords = map[string]struct{}{
	"THE": {}, "AND": {}, "FOR": {}, "ARE": {}, "BUT": {}, "NOT": {}, "YOU": {}, "ALL": {}, "CAN": {}, "HER": {},
	"WAS": {}, "ONE": {}, "OUR": {}, "HAD": {}, "WHAT": {}, "SO": {}, "UP": {}, "OUT": {}, "IF": {},
	"ABOUT": {}, "WHO": {}, "GET": {}, "WHICH": {}, "GO": {}, "ME": {}, "WHEN": {}, "MAKE": {},
	"LIKE": {}, "TIME": {}, "NO": {}, "JUST": {}, "HIM": {}, "KNOW": {}, "TAKE": {}, "PEOPLE": {}, "INTO": {},
	"YEAR": {}, "YOUR": {}, "GOOD": {}, "SOME": {}, "COULD": {}, "THEM": {}, "SEE": {}, "OTHER": {}, "THAN": {},
	"THEN": {}, "NOW": {}, "LOOK": {}, "ONLY": {}, "COME": {}, "ITS": {}, "OVER": {}, "THINK": {}, "ALSO": {},
	"BACK": {}, "AFTER": {}, "USE": {}, "TWO": {}, "HOW": {}, "WORK": {}, "FIRST": {}, "WELL": {},
	"WAY": {}, "EVEN": {}, "NEW": {}, "WANT": {}, "BECAUSE": {}, "ANY": {}, "THESE": {}, "GIVE": {}, "DAY": {},
	"MOST": {}, "US": {}, "BEST": {}, "AI": {}, "OR": {}, "TO": {}, "FROM": {}, "AS": {}, "AT": {}, "BY": {}, "IN": {}, "ON": {},
	"ANALYZE": {}, "COMPARE": {}, "RESEARCH": {}, "MONTH": {}, "MONTHS": {}, "WEEK": {}, "WEEKS": {}, "YEARS": {},
	"WITH": {}, "DURING": {},
}

// Suggestion is a close-but-not-exact company name match
type Suggestion struct {
	Name   string
	Ticker string
	Score  float64
}

// Service resolves free-text company references to stock tickers using
// exact lookup, phrase matching and fuzzy matching against a fixed table
type Service struct {
	table            *Table
	logger           arbor.ILogger
	matchCutoff      float64
	suggestionCutoff float64
	maxSuggestions   int
}

// NewService creates a resolver over the embedded ticker table
func NewService(cfg *common.ResolverConfig, logger arbor.ILogger) (*Service, error) {
	table, err := LoadDefaultTable()
	if err != nil {
		return nil, err
	}
	return NewServiceWithTable(table, cfg, logger), nil
}

// NewServiceWithTable creates a resolver over a custom table
func NewServiceWithTable(table *Table, cfg *common.ResolverConfig, logger arbor.ILogger) *Service {
	matchCutoff := cfg.MatchCutoff
	if matchCutoff <= 0 {
		matchCutoff = 0.8
	}
	suggestionCutoff := cfg.SuggestionCutoff
	if suggestionCutoff <= 0 {
		suggestionCutoff = 0.6
	}
	maxSuggestions := cfg.MaxSuggestions
	if maxSuggestions <= 0 {
		maxSuggestions = 3
	}

	logger.Info().Int("companies", table.Len()).Msg("Ticker resolver initialized")

	return &Service{
		table:            table,
		logger:           logger,
		matchCutoff:      matchCutoff,
		suggestionCutoff: suggestionCutoff,
		maxSuggestions:   maxSuggestions,
	}
}

// IsTicker reports whether text looks like a stock ticker:
// one to five uppercase letters with nothing else
func (s *Service) IsTicker(text string) bool {
	return tickerPattern.MatchString(strings.TrimSpace(text))
}

// Normalize lowercases text, strips corporate suffixes and special
// characters, and collapses whitespace
func (s *Service) Normalize(text string) string {
	text = strings.ToLower(strings.TrimSpace(text))
	text = suffixPattern.ReplaceAllString(text, "")
	text = specialPattern.ReplaceAllString(text, "")
	return strings.Join(strings.Fields(text), " ")
}

// Resolve maps a company name or ticker to a ticker symbol.
// Ticker-shaped input passes through unchanged; otherwise the normalized
// name is matched exactly, then fuzzily at the match cutoff.
func (s *Service) Resolve(text string) (string, bool) {
	text = strings.TrimSpace(text)

	if s.IsTicker(text) {
		return text, true
	}

	normalized := s.Normalize(text)
	if ticker, ok := s.table.Lookup(normalized); ok {
		return ticker, true
	}

	matches := closeMatches(normalized, s.table.Names(), 1, s.matchCutoff)
	if len(matches) > 0 {
		ticker, _ := s.table.Lookup(matches[0].value)
		s.logger.Debug().
			Str("input", text).
			Str("matched", matches[0].value).
			Str("ticker", ticker).
			Msg("Fuzzy match found")
		return ticker, true
	}

	return "", false
}

// Suggestions returns close company name matches for likely misspellings,
// using the lower suggestion cutoff
func (s *Service) Suggestions(text string) []Suggestion {
	normalized := s.Normalize(text)
	matches := closeMatches(normalized, s.table.Names(), s.maxSuggestions, s.suggestionCutoff)

	suggestions := make([]Suggestion, 0, len(matches))
	for _, m := range matches {
		ticker, _ := s.table.Lookup(m.value)
		suggestions = append(suggestions, Suggestion{
			Name:   m.value,
			Ticker: ticker,
			Score:  m.score,
		})
	}
	return suggestions
}

// CompanyName returns a representative company name for a ticker, or the
// ticker itself when unknown
func (s *Service) CompanyName(ticker string) string {
	if name, ok := s.table.CompanyName(ticker); ok {
		return name
	}
	return ticker
}

// ExtractFromQuery finds tickers and unresolved company names in a query.
//
// Bare uppercase symbols are collected first, minus stop words. The rest of
// the text is scanned with longest-match-first phrase lookup (three words,
// then two, then one). Remaining capitalized words longer than two
// characters are reported as unresolved. Both lists preserve first-seen
// order with duplicates removed.
func (s *Service) ExtractFromQuery(query string) (resolved []string, unresolved []string) {
	resolved = []string{}
	unresolved = []string{}

	for _, candidate := range tickerInQuery.FindAllString(query, -1) {
		if _, stop := stopWords[candidate]; !stop {
			resolved = append(resolved, candidate)
		}
	}

	remaining := query
	for _, ticker := range resolved {
		remaining = strings.ReplaceAll(remaining, ticker, "")
	}

	contains := func(ts []string, t string) bool {
		for _, v := range ts {
			if v == t {
				return true
			}
		}
		return false
	}

	words := strings.Fields(remaining)
	for i := 0; i < len(words); {
		word := words[i]

		if len(word) < 2 {
			i++
			continue
		}

		// Longest phrase first
		if i+2 < len(words) {
			phrase := word + " " + words[i+1] + " " + words[i+2]
			if ticker, ok := s.Resolve(phrase); ok && !contains(resolved, ticker) {
				resolved = append(resolved, ticker)
				i += 3
				continue
			}
		}

		if i+1 < len(words) {
			phrase := word + " " + words[i+1]
			if ticker, ok := s.Resolve(phrase); ok && !contains(resolved, ticker) {
				resolved = append(resolved, ticker)
				i += 2
				continue
			}
		}

		if ticker, ok := s.Resolve(word); ok && !contains(resolved, ticker) {
			resolved = append(resolved, ticker)
			i++
			continue
		}

		if looksLikeCompanyName(word) {
			unresolved = append(unresolved, word)
		}
		i++
	}

	resolved = dedupe(resolved)
	unresolved = dedupe(unresolved)

	s.logger.Info().
		Str("query", query).
		Strs("resolved", resolved).
		Strs("unresolved", unresolved).
		Msg("Extracted tickers from query")

	return resolved, unresolved
}

// looksLikeCompanyName keeps capitalized words longer than two characters
// that are not stop words
func looksLikeCompanyName(word string) bool {
	if len(word) <= 2 {
		return false
	}
	runes := []rune(word)
	if !unicode.IsUpper(runes[0]) {
		return false
	}
	_, stop := stopWords[strings.ToUpper(word)]
	return !stop
}

// dedupe removes duplicates while preserving first-seen order
func dedupe(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := items[:0]
	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}

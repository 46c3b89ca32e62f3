package resolver

import (
	"fmt"
	"sort"

	_ "embed"

	"gopkg.in/yaml.v3"
)

//go:embed tickers.yaml
var tickersYAML []byte

// Table holds the company name to ticker lookup data
type Table struct {
	// companies maps normalized lowercase names to tickers
	companies map[string]string
	// tickerToName maps tickers back to one representative name
	tickerToName map[string]string
	// names is the sorted list of company names, used for fuzzy matching
	names []string
}

type tableFile struct {
	Companies map[string]string `yaml:"companies"`
}

// LoadDefaultTable parses the embedded lookup table
func LoadDefaultTable() (*Table, error) {
	return LoadTable(tickersYAML)
}

// LoadTable parses a lookup table from YAML data
func LoadTable(data []byte) (*Table, error) {
	var file tableFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse ticker table: %w", err)
	}
	if len(file.Companies) == 0 {
		return nil, fmt.Errorf("ticker table is empty")
	}

	t := &Table{
		companies:    make(map[string]string, len(file.Companies)),
		tickerToName: make(map[string]string),
		names:        make([]string, 0, len(file.Companies)),
	}

	for name, ticker := range file.Companies {
		t.companies[name] = ticker
		t.names = append(t.names, name)
	}
	// Sorted iteration keeps reverse-mapping selection deterministic
	sort.Strings(t.names)
	for _, name := range t.names {
		ticker := t.companies[name]
		if _, exists := t.tickerToName[ticker]; !exists {
			t.tickerToName[ticker] = name
		}
	}

	return t, nil
}

// Lookup returns the ticker for an exact normalized name
func (t *Table) Lookup(name string) (string, bool) {
	ticker, ok := t.companies[name]
	return ticker, ok
}

// CompanyName returns a representative company name for a ticker
func (t *Table) CompanyName(ticker string) (string, bool) {
	name, ok := t.tickerToName[ticker]
	return name, ok
}

// Names returns all known company names
func (t *Table) Names() []string {
	return t.names
}

// Len returns the number of name entries
func (t *Table) Len() int {
	return len(t.companies)
}

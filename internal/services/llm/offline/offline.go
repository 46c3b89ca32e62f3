// Package offline provides a deterministic Oracle implementation for tests
// and fully local operation. It never makes network calls.
package offline

import (
	"context"
	"strings"
	"sync"

	"github.com/ternarybob/quaestor/internal/interfaces"
)

// Rule maps a substring of the latest user message to a canned response
type Rule struct {
	Contains string
	Response string
}

// Oracle is a scripted stand-in for a cloud provider. Responses are selected
// by matching rules against the latest user message, in registration order.
// When no rule matches, the configured default response (or an error) is
// returned. Calls are recorded for assertion.
type Oracle struct {
	mu       sync.Mutex
	rules    []Rule
	fallback string
	err      error
	calls    [][]interfaces.Message
}

// NewOracle creates an offline oracle with no rules. Without rules or a
// default response every call returns ErrMalformedOutput, exercising caller
// fallbacks.
func NewOracle() *Oracle {
	return &Oracle{}
}

// WithRule registers a substring rule. Rules are checked in order.
func (o *Oracle) WithRule(contains, response string) *Oracle {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.rules = append(o.rules, Rule{Contains: contains, Response: response})
	return o
}

// WithDefault sets the response used when no rule matches
func (o *Oracle) WithDefault(response string) *Oracle {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.fallback = response
	return o
}

// WithError makes every call fail with err, simulating an outage
func (o *Oracle) WithError(err error) *Oracle {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.err = err
	return o
}

// Complete returns the first matching scripted response
func (o *Oracle) Complete(ctx context.Context, messages []interfaces.Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	o.calls = append(o.calls, messages)

	if o.err != nil {
		return "", o.err
	}

	prompt := latestUserContent(messages)
	for _, rule := range o.rules {
		if strings.Contains(prompt, rule.Contains) {
			return rule.Response, nil
		}
	}

	if o.fallback != "" {
		return o.fallback, nil
	}

	return "", interfaces.ErrMalformedOutput
}

// Model returns a fixed identifier for the offline oracle
func (o *Oracle) Model() string {
	return "offline"
}

// CallCount returns how many completions were requested
func (o *Oracle) CallCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.calls)
}

// LastCall returns the messages of the most recent completion, or nil
func (o *Oracle) LastCall() []interfaces.Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.calls) == 0 {
		return nil
	}
	return o.calls[len(o.calls)-1]
}

func latestUserContent(messages []interfaces.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" {
			return messages[i].Content
		}
	}
	return ""
}

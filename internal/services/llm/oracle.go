package llm

import (
	"context"

	"github.com/ternarybob/quaestor/internal/interfaces"
)

// OracleService adapts the provider factory to the Oracle interface used by
// the correction and analysis services
type OracleService struct {
	factory *ProviderFactory
	model   string
}

// NewOracleService creates an oracle backed by the configured default provider
func NewOracleService(factory *ProviderFactory) *OracleService {
	provider := factory.DetectProvider("")
	return &OracleService{
		factory: factory,
		model:   factory.GetDefaultModel(provider),
	}
}

// Complete generates a completion for the given conversation
func (s *OracleService) Complete(ctx context.Context, messages []interfaces.Message) (string, error) {
	resp, err := s.factory.GenerateContent(ctx, &ContentRequest{
		Messages: messages,
		Model:    s.model,
	})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

// Model returns the identifier of the model serving completions
func (s *OracleService) Model() string {
	return s.model
}

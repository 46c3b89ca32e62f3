package interfaces

import "context"

// Message represents a single message in a chat conversation
type Message struct {
	// Role identifies the message sender: "user", "assistant", or "system"
	Role string

	// Content contains the text content of the message
	Content string
}

// Oracle defines the interface for language model completions. Implementations
// wrap cloud providers (Gemini, Claude); tests use a deterministic double.
// Every call site must own a data-only fallback for when the oracle fails or
// returns output that cannot be parsed (ErrMalformedOutput).
type Oracle interface {
	// Complete generates a completion for the given conversation.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout control
	//   - messages: Conversation history in chronological order
	//
	// Returns:
	//   - string: Generated assistant response text
	//   - error: Error if the completion fails
	Complete(ctx context.Context, messages []Message) (string, error)

	// Model returns the identifier of the model serving completions
	Model() string
}

package interfaces

import (
	"context"

	"github.com/ternarybob/quaestor/internal/models"
)

// ConversationStorage persists pending conversations. Implementations do not
// enforce TTL themselves; the conversation service evaluates expiry lazily on
// read and sweeps stale records in the background.
type ConversationStorage interface {
	// Put stores or replaces a conversation
	Put(ctx context.Context, conv *models.Conversation) error

	// Get returns a conversation by ID, or ErrConversationNotFound
	Get(ctx context.Context, id string) (*models.Conversation, error)

	// Delete removes a conversation. Deleting a missing ID is not an error.
	Delete(ctx context.Context, id string) error

	// List returns all stored conversations, used by the expiry sweeper
	List(ctx context.Context) ([]*models.Conversation, error)
}

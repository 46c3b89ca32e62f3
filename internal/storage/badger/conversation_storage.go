package badger

import (
	"context"
	"errors"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/quaestor/internal/interfaces"
	"github.com/ternarybob/quaestor/internal/models"
)

// ConversationStorage implements the ConversationStorage interface for Badger
type ConversationStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewConversationStorage creates a new ConversationStorage instance
func NewConversationStorage(db *BadgerDB, logger arbor.ILogger) interfaces.ConversationStorage {
	return &ConversationStorage{
		db:     db,
		logger: logger,
	}
}

// Put stores or replaces a conversation
func (s *ConversationStorage) Put(ctx context.Context, conv *models.Conversation) error {
	if conv.ID == "" {
		return fmt.Errorf("conversation ID is required")
	}

	if err := s.db.Store().Upsert(conv.ID, conv); err != nil {
		return fmt.Errorf("failed to store conversation: %w", err)
	}
	return nil
}

// Get returns a conversation by ID, or ErrConversationNotFound
func (s *ConversationStorage) Get(ctx context.Context, id string) (*models.Conversation, error) {
	var conv models.Conversation
	err := s.db.Store().Get(id, &conv)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return nil, interfaces.ErrConversationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	return &conv, nil
}

// Delete removes a conversation. Deleting a missing ID is not an error.
func (s *ConversationStorage) Delete(ctx context.Context, id string) error {
	err := s.db.Store().Delete(id, &models.Conversation{})
	if errors.Is(err, badgerhold.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	return nil
}

// List returns all stored conversations
func (s *ConversationStorage) List(ctx context.Context) ([]*models.Conversation, error) {
	var convs []*models.Conversation
	if err := s.db.Store().Find(&convs, nil); err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	return convs, nil
}

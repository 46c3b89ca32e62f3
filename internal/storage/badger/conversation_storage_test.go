package badger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/quaestor/internal/common"
	"github.com/ternarybob/quaestor/internal/interfaces"
	"github.com/ternarybob/quaestor/internal/models"
)

func newTestStorage(t *testing.T) interfaces.ConversationStorage {
	t.Helper()
	logger := arbor.NewLogger()
	db, err := NewBadgerDB(logger, &common.BadgerConfig{Path: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewConversationStorage(db, logger)
}

func TestConversationStorageRoundTrip(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	conv := &models.Conversation{
		ID:            "conv-1",
		State:         models.StateAwaitingConfirmation,
		OriginalQuery: "analyze Aple",
		PendingCorrections: []models.Correction{
			{Original: "Aple", CorrectedName: "Apple Inc.", Ticker: "AAPL", Confidence: "high"},
		},
		CreatedAt:     time.Now().UTC(),
		LastUpdatedAt: time.Now().UTC(),
	}

	require.NoError(t, storage.Put(ctx, conv))

	got, err := storage.Get(ctx, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, models.StateAwaitingConfirmation, got.State)
	assert.Equal(t, "analyze Aple", got.OriginalQuery)
	require.Len(t, got.PendingCorrections, 1)
	assert.Equal(t, "AAPL", got.PendingCorrections[0].Ticker)
}

func TestConversationStorageUpdate(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	conv := &models.Conversation{ID: "conv-1", State: models.StateInitial}
	require.NoError(t, storage.Put(ctx, conv))

	conv.State = models.StateReadyForAnalysis
	conv.ConfirmedTickers = []string{"AAPL"}
	require.NoError(t, storage.Put(ctx, conv))

	got, err := storage.Get(ctx, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, models.StateReadyForAnalysis, got.State)
	assert.Equal(t, []string{"AAPL"}, got.ConfirmedTickers)
}

func TestConversationStorageMissing(t *testing.T) {
	storage := newTestStorage(t)

	_, err := storage.Get(context.Background(), "missing")
	assert.True(t, errors.Is(err, interfaces.ErrConversationNotFound))
}

func TestConversationStorageDelete(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, storage.Put(ctx, &models.Conversation{ID: "conv-1"}))
	require.NoError(t, storage.Delete(ctx, "conv-1"))

	_, err := storage.Get(ctx, "conv-1")
	assert.True(t, errors.Is(err, interfaces.ErrConversationNotFound))

	// Deleting again is not an error
	assert.NoError(t, storage.Delete(ctx, "conv-1"))
}

func TestConversationStorageList(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, storage.Put(ctx, &models.Conversation{ID: "conv-1"}))
	require.NoError(t, storage.Put(ctx, &models.Conversation{ID: "conv-2"}))

	convs, err := storage.List(ctx)
	require.NoError(t, err)
	assert.Len(t, convs, 2)
}

func TestConversationStorageRequiresID(t *testing.T) {
	storage := newTestStorage(t)
	assert.Error(t, storage.Put(context.Background(), &models.Conversation{}))
}

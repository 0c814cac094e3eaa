package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulysses-club/odissea/models"
	"github.com/ulysses-club/odissea/utils"
)

func TestMemoryConversationStorePop(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryConversationStore(time.Minute)

	state, err := store.Pop(ctx, 100)
	require.NoError(t, err)
	assert.Nil(t, state)

	require.NoError(t, store.Set(ctx, models.ConversationState{
		ChatID: 100,
		Kind:   models.ConversationAwaitingMeeting,
	}))

	state, err = store.Pop(ctx, 100)
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, models.ConversationAwaitingMeeting, state.Kind)
	assert.False(t, state.CreatedAt.IsZero())

	// Pop consumes the state; a second read finds nothing
	state, err = store.Pop(ctx, 100)
	require.NoError(t, err)
	assert.Nil(t, state)
}

func TestMemoryConversationStoreOverwrite(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryConversationStore(time.Minute)

	require.NoError(t, store.Set(ctx, models.ConversationState{ChatID: 100, Kind: models.ConversationAwaitingMeeting}))
	require.NoError(t, store.Set(ctx, models.ConversationState{ChatID: 100, Kind: models.ConversationAwaitingBroadcast}))

	state, err := store.Pop(ctx, 100)
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, models.ConversationAwaitingBroadcast, state.Kind)
}

func TestMemoryConversationStoreTTL(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryConversationStore(time.Minute)

	require.NoError(t, store.Set(ctx, models.ConversationState{
		ChatID:    100,
		Kind:      models.ConversationAwaitingPostEdit,
		CreatedAt: utils.UTCNow().Add(-2 * time.Minute),
	}))

	// Stale state is treated as abandoned
	state, err := store.Pop(ctx, 100)
	require.NoError(t, err)
	assert.Nil(t, state)
}

func TestMemoryConversationStoreClear(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryConversationStore(time.Minute)

	require.NoError(t, store.Set(ctx, models.ConversationState{ChatID: 100, Kind: models.ConversationAwaitingMeeting}))
	require.NoError(t, store.Clear(ctx, 100))

	state, err := store.Pop(ctx, 100)
	require.NoError(t, err)
	assert.Nil(t, state)
}

func TestMemoryConversationStoreIsolatesChats(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryConversationStore(time.Minute)

	require.NoError(t, store.Set(ctx, models.ConversationState{ChatID: 100, Kind: models.ConversationAwaitingMeeting}))

	state, err := store.Pop(ctx, 200)
	require.NoError(t, err)
	assert.Nil(t, state)

	state, err = store.Pop(ctx, 100)
	require.NoError(t, err)
	require.NotNil(t, state)
}

package tests

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulysses-club/odissea/app/services"
	businessflow "github.com/ulysses-club/odissea/business_flow"
)

func TestSubscribeUnsubscribe(t *testing.T) {
	ctx := context.Background()
	fx := newFlowFixture(t)
	flow := businessflow.NewSubscriptionFlow(fx.subscriberRepo, services.NewMockMessenger())

	added, err := flow.Subscribe(ctx, 100)
	require.NoError(t, err)
	assert.True(t, added)
	assert.True(t, flow.IsSubscribed(ctx, 100))

	// Second subscribe is a no-op
	added, err = flow.Subscribe(ctx, 100)
	require.NoError(t, err)
	assert.False(t, added)
	assert.Equal(t, 1, flow.SubscriberCount(ctx))

	removed, err := flow.Unsubscribe(ctx, 100)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.False(t, flow.IsSubscribed(ctx, 100))

	removed, err = flow.Unsubscribe(ctx, 100)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestBroadcast(t *testing.T) {
	ctx := context.Background()

	t.Run("RejectsEmptyText", func(t *testing.T) {
		fx := newFlowFixture(t)
		flow := businessflow.NewSubscriptionFlow(fx.subscriberRepo, services.NewMockMessenger())

		_, err := flow.Broadcast(ctx, "")
		require.Error(t, err)
		assert.True(t, businessflow.IsBroadcastTextEmpty(err))
	})

	t.Run("DeliversToAllSubscribers", func(t *testing.T) {
		fx := newFlowFixture(t)
		messenger := services.NewMockMessenger()
		flow := businessflow.NewSubscriptionFlow(fx.subscriberRepo, messenger)

		for _, id := range []int64{100, 200, 300} {
			_, err := flow.Subscribe(ctx, id)
			require.NoError(t, err)
		}

		report, err := flow.Broadcast(ctx, "Встреча в пятницу!")
		require.NoError(t, err)
		assert.Equal(t, 3, report.Delivered)
		assert.Zero(t, report.Failed)
		assert.Zero(t, report.Pruned)
		assert.Len(t, messenger.GetSentMessages(), 3)
	})

	t.Run("PrunesGoneRecipients", func(t *testing.T) {
		fx := newFlowFixture(t)
		messenger := services.NewMockMessenger()
		flow := businessflow.NewSubscriptionFlow(fx.subscriberRepo, messenger)

		for _, id := range []int64{100, 200} {
			_, err := flow.Subscribe(ctx, id)
			require.NoError(t, err)
		}
		messenger.FailFor[200] = &services.TelegramError{
			Code:        http.StatusForbidden,
			Description: "Forbidden: bot was blocked by the user",
		}

		report, err := flow.Broadcast(ctx, "Встреча в пятницу!")
		require.NoError(t, err)
		assert.Equal(t, 1, report.Delivered)
		assert.Zero(t, report.Failed)
		assert.Equal(t, 1, report.Pruned)

		// The blocked chat is gone from the set, the healthy one stays
		assert.False(t, flow.IsSubscribed(ctx, 200))
		assert.True(t, flow.IsSubscribed(ctx, 100))
	})

	t.Run("KeepsRecipientsOnTransientFailure", func(t *testing.T) {
		fx := newFlowFixture(t)
		messenger := services.NewMockMessenger()
		flow := businessflow.NewSubscriptionFlow(fx.subscriberRepo, messenger)

		_, err := flow.Subscribe(ctx, 100)
		require.NoError(t, err)
		messenger.FailFor[100] = errors.New("connection timed out")

		report, err := flow.Broadcast(ctx, "Встреча в пятницу!")
		require.NoError(t, err)
		assert.Zero(t, report.Delivered)
		assert.Equal(t, 1, report.Failed)
		assert.Zero(t, report.Pruned)
		assert.True(t, flow.IsSubscribed(ctx, 100))
	})
}

func TestIsRecipientGone(t *testing.T) {
	assert.True(t, services.IsRecipientGone(&services.TelegramError{
		Code: http.StatusForbidden, Description: "Forbidden: bot was blocked by the user"}))
	assert.True(t, services.IsRecipientGone(&services.TelegramError{
		Code: http.StatusBadRequest, Description: "Bad Request: chat not found"}))
	assert.False(t, services.IsRecipientGone(&services.TelegramError{
		Code: http.StatusTooManyRequests, Description: "Too Many Requests: retry after 30"}))
	assert.False(t, services.IsRecipientGone(errors.New("dial tcp: i/o timeout")))
}

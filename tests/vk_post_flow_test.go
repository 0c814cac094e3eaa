package tests

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	businessflow "github.com/ulysses-club/odissea/business_flow"
)

type mockSocialPoster struct {
	posts []string
	err   error
}

func (m *mockSocialPoster) WallPost(ctx context.Context, message string, attachments []string) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.posts = append(m.posts, message)
	return int64(len(m.posts)), nil
}

func TestVKPostFlow(t *testing.T) {
	ctx := context.Background()
	const adminChat = int64(1)

	t.Run("StageRequiresAnnouncedMeeting", func(t *testing.T) {
		fx := newFlowFixture(t)
		flow := businessflow.NewVKPostFlow(fx.meetingRepo, &mockSocialPoster{})

		_, err := flow.StageMeetingPost(ctx, adminChat)
		require.Error(t, err)
		assert.True(t, businessflow.IsMeetingNotAnnounced(err))
	})

	t.Run("StageEditConfirm", func(t *testing.T) {
		fx := newFlowFixture(t)
		announceMeeting(t, fx)
		poster := &mockSocialPoster{}
		flow := businessflow.NewVKPostFlow(fx.meetingRepo, poster)

		draft, err := flow.StageMeetingPost(ctx, adminChat)
		require.NoError(t, err)
		assert.Contains(t, draft.Message, "Сталкер")
		assert.Equal(t, []string{"https://example.com/poster.jpg"}, draft.Attachments)

		edited, err := flow.EditDraft(ctx, adminChat, "Совсем другой текст")
		require.NoError(t, err)
		assert.Equal(t, "Совсем другой текст", edited.Message)

		postID, err := flow.ConfirmDraft(ctx, adminChat)
		require.NoError(t, err)
		assert.Equal(t, int64(1), postID)
		require.Len(t, poster.posts, 1)
		assert.Equal(t, "Совсем другой текст", poster.posts[0])

		// Draft is consumed by a successful confirm
		_, err = flow.CurrentDraft(ctx, adminChat)
		require.Error(t, err)
		assert.True(t, businessflow.IsDraftNotFound(err))
	})

	t.Run("ConfirmFailureKeepsDraft", func(t *testing.T) {
		fx := newFlowFixture(t)
		announceMeeting(t, fx)
		poster := &mockSocialPoster{err: errors.New("vk is down")}
		flow := businessflow.NewVKPostFlow(fx.meetingRepo, poster)

		_, err := flow.StageMeetingPost(ctx, adminChat)
		require.NoError(t, err)
		_, err = flow.ConfirmDraft(ctx, adminChat)
		require.Error(t, err)

		// A failed publish must leave the draft available for retry
		_, err = flow.CurrentDraft(ctx, adminChat)
		require.NoError(t, err)
	})

	t.Run("DraftsAreScopedPerAdmin", func(t *testing.T) {
		fx := newFlowFixture(t)
		announceMeeting(t, fx)
		flow := businessflow.NewVKPostFlow(fx.meetingRepo, &mockSocialPoster{})

		_, err := flow.StageMeetingPost(ctx, adminChat)
		require.NoError(t, err)
		_, err = flow.CurrentDraft(ctx, int64(2))
		require.Error(t, err)
		assert.True(t, businessflow.IsDraftNotFound(err))
	})

	t.Run("DiscardDropsDraft", func(t *testing.T) {
		fx := newFlowFixture(t)
		announceMeeting(t, fx)
		flow := businessflow.NewVKPostFlow(fx.meetingRepo, &mockSocialPoster{})

		_, err := flow.StageMeetingPost(ctx, adminChat)
		require.NoError(t, err)
		require.NoError(t, flow.DiscardDraft(ctx, adminChat))
		assert.Error(t, flow.DiscardDraft(ctx, adminChat))
	})
}

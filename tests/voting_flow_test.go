// Package tests contains test cases for the business flows, exercised
// against the real document store in a temporary directory
package tests

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	businessflow "github.com/ulysses-club/odissea/business_flow"
	"github.com/ulysses-club/odissea/models"
	"github.com/ulysses-club/odissea/repository"
)

type flowFixture struct {
	votingRepo     repository.VotingRepository
	meetingRepo    repository.MeetingRepository
	historyRepo    repository.HistoryRepository
	subscriberRepo repository.SubscriberRepository
}

func newFlowFixture(t *testing.T) *flowFixture {
	t.Helper()
	store, err := repository.NewDocumentStore(t.TempDir())
	require.NoError(t, err)
	return &flowFixture{
		votingRepo:     repository.NewVotingRepository(store, "voting.json"),
		meetingRepo:    repository.NewMeetingRepository(store, "next-meeting.json"),
		historyRepo:    repository.NewHistoryRepository(store, "films.json"),
		subscriberRepo: repository.NewSubscriberRepository(store, "subscriptions.json"),
	}
}

func announceMeeting(t *testing.T, fx *flowFixture) models.Meeting {
	t.Helper()
	meeting := models.Meeting{
		Date:             "05.09.2026",
		Time:             "19:00",
		Place:            "Библиотека №3",
		Film:             "Сталкер",
		Director:         "Андрей Тарковский",
		Genre:            "драма",
		Country:          "СССР",
		Year:             1979,
		Poster:           "https://example.com/poster.jpg",
		DiscussionNumber: 42,
		Description:      "Обсуждаем зону и желания.",
	}
	fx.meetingRepo.Save(context.Background(), meeting)
	return meeting
}

func TestAverage(t *testing.T) {
	t.Run("EmptyRatings", func(t *testing.T) {
		assert.Nil(t, businessflow.Average(nil))
		assert.Nil(t, businessflow.Average(map[string]int{}))
	})

	t.Run("ComputesMean", func(t *testing.T) {
		avg := businessflow.Average(map[string]int{
			"participant_1": 7,
			"participant_2": 9,
			"participant_3": 8,
		})
		require.NotNil(t, avg)
		assert.InDelta(t, 8.0, *avg, 1e-9)
	})
}

func TestOpenRating(t *testing.T) {
	ctx := context.Background()

	t.Run("RequiresAnnouncedMeeting", func(t *testing.T) {
		fx := newFlowFixture(t)
		flow := businessflow.NewVotingFlow(fx.votingRepo, fx.meetingRepo)

		_, err := flow.OpenRating(ctx, businessflow.NewClientMetadata(1, "admin"))
		require.Error(t, err)
		assert.True(t, businessflow.IsMeetingNotAnnounced(err))
	})

	t.Run("CopiesMeetingIntoRound", func(t *testing.T) {
		fx := newFlowFixture(t)
		meeting := announceMeeting(t, fx)
		flow := businessflow.NewVotingFlow(fx.votingRepo, fx.meetingRepo)

		status, err := flow.OpenRating(ctx, businessflow.NewClientMetadata(1, "admin"))
		require.NoError(t, err)
		assert.True(t, status.Open)
		assert.Equal(t, meeting.Film, status.Film)
		assert.Zero(t, status.ScoreCount)

		voting := flow.Current(ctx)
		require.NotNil(t, voting.Film)
		assert.Equal(t, meeting.Film, *voting.Film)
		require.NotNil(t, voting.DiscussionNumber)
		assert.Equal(t, meeting.DiscussionNumber, *voting.DiscussionNumber)
	})

	t.Run("ReopeningKeepsScores", func(t *testing.T) {
		fx := newFlowFixture(t)
		announceMeeting(t, fx)
		flow := businessflow.NewVotingFlow(fx.votingRepo, fx.meetingRepo)
		meta := businessflow.NewClientMetadata(1, "admin")

		_, err := flow.OpenRating(ctx, meta)
		require.NoError(t, err)
		_, err = flow.RecordScore(ctx, 8, meta)
		require.NoError(t, err)

		status, err := flow.OpenRating(ctx, meta)
		require.NoError(t, err)
		assert.Equal(t, 1, status.ScoreCount)
	})
}

func TestRecordScore(t *testing.T) {
	ctx := context.Background()
	meta := businessflow.NewClientMetadata(1, "admin")

	t.Run("RejectsOutOfRange", func(t *testing.T) {
		fx := newFlowFixture(t)
		announceMeeting(t, fx)
		flow := businessflow.NewVotingFlow(fx.votingRepo, fx.meetingRepo)
		_, err := flow.OpenRating(ctx, meta)
		require.NoError(t, err)

		for _, score := range []int{0, -1, 11} {
			_, err := flow.RecordScore(ctx, score, meta)
			require.Error(t, err)
			assert.True(t, businessflow.IsScoreOutOfRange(err))
		}
	})

	t.Run("RejectsWhenNotOpen", func(t *testing.T) {
		fx := newFlowFixture(t)
		flow := businessflow.NewVotingFlow(fx.votingRepo, fx.meetingRepo)

		_, err := flow.RecordScore(ctx, 7, meta)
		require.Error(t, err)
		assert.True(t, businessflow.IsRatingNotOpen(err))
	})

	t.Run("AccumulatesAndAverages", func(t *testing.T) {
		fx := newFlowFixture(t)
		announceMeeting(t, fx)
		flow := businessflow.NewVotingFlow(fx.votingRepo, fx.meetingRepo)
		_, err := flow.OpenRating(ctx, meta)
		require.NoError(t, err)

		for _, score := range []int{6, 8, 10} {
			_, err := flow.RecordScore(ctx, score, meta)
			require.NoError(t, err)
		}

		voting := flow.Current(ctx)
		assert.Len(t, voting.Ratings, 3)
		require.NotNil(t, voting.Average)
		assert.InDelta(t, 8.0, *voting.Average, 1e-9)
	})
}

func TestFinishRating(t *testing.T) {
	ctx := context.Background()
	meta := businessflow.NewClientMetadata(1, "admin")

	t.Run("RejectsWithoutScores", func(t *testing.T) {
		fx := newFlowFixture(t)
		announceMeeting(t, fx)
		flow := businessflow.NewVotingFlow(fx.votingRepo, fx.meetingRepo)
		_, err := flow.OpenRating(ctx, meta)
		require.NoError(t, err)

		_, err = flow.FinishRating(ctx, meta)
		require.Error(t, err)
		assert.True(t, businessflow.IsNoScoresRecorded(err))
	})

	t.Run("LeavesDataUntouched", func(t *testing.T) {
		fx := newFlowFixture(t)
		announceMeeting(t, fx)
		flow := businessflow.NewVotingFlow(fx.votingRepo, fx.meetingRepo)
		_, err := flow.OpenRating(ctx, meta)
		require.NoError(t, err)
		_, err = flow.RecordScore(ctx, 9, meta)
		require.NoError(t, err)

		status, err := flow.FinishRating(ctx, meta)
		require.NoError(t, err)
		assert.Equal(t, 1, status.ScoreCount)

		voting := flow.Current(ctx)
		assert.True(t, voting.IsOpen())
		assert.Len(t, voting.Ratings, 1)
	})
}

func TestClearVotes(t *testing.T) {
	ctx := context.Background()
	meta := businessflow.NewClientMetadata(1, "admin")

	fx := newFlowFixture(t)
	announceMeeting(t, fx)
	flow := businessflow.NewVotingFlow(fx.votingRepo, fx.meetingRepo)
	_, err := flow.OpenRating(ctx, meta)
	require.NoError(t, err)
	_, err = flow.RecordScore(ctx, 7, meta)
	require.NoError(t, err)

	status, err := flow.ClearVotes(ctx, meta)
	require.NoError(t, err)
	assert.Zero(t, status.ScoreCount)
	assert.Nil(t, status.Average)

	// The round stays open on the same film
	voting := flow.Current(ctx)
	assert.True(t, voting.IsOpen())
	assert.Empty(t, voting.Ratings)
	assert.Nil(t, voting.Average)
}

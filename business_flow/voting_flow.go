// Package businessflow contains use cases for the club's rating rounds
package businessflow

import (
	"context"
	"fmt"

	"github.com/ulysses-club/odissea/app/dto"
	"github.com/ulysses-club/odissea/models"
	"github.com/ulysses-club/odissea/repository"
	"github.com/ulysses-club/odissea/utils"
)

// VotingFlow defines the admin operations on the active rating round
type VotingFlow interface {
	OpenRating(ctx context.Context, metadata *ClientMetadata) (*dto.VotingStatusResponse, error)
	RecordScore(ctx context.Context, score int, metadata *ClientMetadata) (*dto.VotingStatusResponse, error)
	FinishRating(ctx context.Context, metadata *ClientMetadata) (*dto.VotingStatusResponse, error)
	ClearVotes(ctx context.Context, metadata *ClientMetadata) (*dto.VotingStatusResponse, error)
	Current(ctx context.Context) models.Voting
}

type VotingFlowImpl struct {
	votingRepo  repository.VotingRepository
	meetingRepo repository.MeetingRepository
}

func NewVotingFlow(votingRepo repository.VotingRepository, meetingRepo repository.MeetingRepository) VotingFlow {
	return &VotingFlowImpl{votingRepo: votingRepo, meetingRepo: meetingRepo}
}

// Average returns the arithmetic mean of the scores, or nil when there are
// none. It always recomputes from the full map; nothing is maintained
// incrementally, so the stored average cannot drift from the true mean.
func Average(ratings map[string]int) *float64 {
	if len(ratings) == 0 {
		return nil
	}
	sum := 0
	for _, score := range ratings {
		sum += score
	}
	avg := float64(sum) / float64(len(ratings))
	return &avg
}

// OpenRating copies the announced meeting into the voting record and opens
// the round. Re-opening an already-open round is a no-op: the populated
// ratings map stays untouched.
func (f *VotingFlowImpl) OpenRating(ctx context.Context, metadata *ClientMetadata) (*dto.VotingStatusResponse, error) {
	var err error
	defer func() {
		if err != nil {
			err = NewBusinessError("OPEN_RATING_FAILED", "Failed to open rating round", err)
		}
	}()

	voting := f.votingRepo.Load(ctx)
	if voting.IsOpen() {
		return votingStatus(voting), nil
	}

	meeting := f.meetingRepo.Load(ctx)
	if !meeting.IsAnnounced() {
		err = ErrMeetingNotAnnounced
		return nil, err
	}

	voting.Film = utils.ToPtr(meeting.Film)
	voting.Director = utils.ToPtr(meeting.Director)
	voting.Genre = utils.ToPtr(meeting.Genre)
	voting.Country = utils.ToPtr(meeting.Country)
	voting.Year = utils.ToPtr(meeting.Year)
	voting.Poster = utils.ToPtr(meeting.Poster)
	voting.DiscussionNumber = utils.ToPtr(meeting.DiscussionNumber)
	voting.Date = utils.ToPtr(meeting.Date)
	voting.Description = utils.ToPtr(meeting.Description)
	f.votingRepo.Save(ctx, voting)

	return votingStatus(voting), nil
}

// RecordScore inserts one score under the next positional participant key
// and recomputes the average. Nothing ties the key to the submitting human;
// any admin tap counts as a new participant.
func (f *VotingFlowImpl) RecordScore(ctx context.Context, score int, metadata *ClientMetadata) (*dto.VotingStatusResponse, error) {
	var err error
	defer func() {
		if err != nil {
			err = NewBusinessError("RECORD_SCORE_FAILED", "Failed to record score", err)
		}
	}()

	if score < utils.MinScore || score > utils.MaxScore {
		err = ErrScoreOutOfRange
		return nil, err
	}

	voting := f.votingRepo.Load(ctx)
	if !voting.IsOpen() {
		err = ErrRatingNotOpen
		return nil, err
	}

	key := fmt.Sprintf("%s%d", utils.ParticipantKeyPrefix, len(voting.Ratings)+1)
	voting.Ratings[key] = score
	voting.Average = Average(voting.Ratings)
	f.votingRepo.Save(ctx, voting)

	return votingStatus(voting), nil
}

// FinishRating closes the round for reporting. The data is left untouched;
// an admin may still return and record more scores before archiving.
func (f *VotingFlowImpl) FinishRating(ctx context.Context, metadata *ClientMetadata) (*dto.VotingStatusResponse, error) {
	var err error
	defer func() {
		if err != nil {
			err = NewBusinessError("FINISH_RATING_FAILED", "Failed to finish rating round", err)
		}
	}()

	voting := f.votingRepo.Load(ctx)
	if !voting.IsOpen() {
		err = ErrRatingNotOpen
		return nil, err
	}
	if !voting.HasScores() {
		err = ErrNoScoresRecorded
		return nil, err
	}

	return votingStatus(voting), nil
}

// ClearVotes wipes the scores and nulls the average, keeping the round open
func (f *VotingFlowImpl) ClearVotes(ctx context.Context, metadata *ClientMetadata) (*dto.VotingStatusResponse, error) {
	voting := f.votingRepo.Load(ctx)
	voting.Ratings = map[string]int{}
	voting.Average = nil
	f.votingRepo.Save(ctx, voting)
	return votingStatus(voting), nil
}

// Current returns the voting record as persisted
func (f *VotingFlowImpl) Current(ctx context.Context) models.Voting {
	return f.votingRepo.Load(ctx)
}

func votingStatus(v models.Voting) *dto.VotingStatusResponse {
	status := &dto.VotingStatusResponse{
		Open:       v.IsOpen(),
		ScoreCount: len(v.Ratings),
		Average:    v.Average,
	}
	if v.Film != nil {
		status.Film = *v.Film
	}
	return status
}

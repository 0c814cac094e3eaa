package businessflow

import (
	"context"
	"log"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/ulysses-club/odissea/app/dto"
	"github.com/ulysses-club/odissea/models"
	"github.com/ulysses-club/odissea/repository"
	"github.com/ulysses-club/odissea/utils"
)

// MeetingMirror pushes the upcoming-meeting document to the content-hosting
// mirror. The push is best effort: the announcement stands even when the
// mirror is down.
type MeetingMirror interface {
	PublishMeeting(ctx context.Context, m models.Meeting) error
}

// MeetingFlow defines the admin operations on the upcoming meeting
type MeetingFlow interface {
	ParseMeetingInput(text string) (*dto.AddMeetingRequest, error)
	SetMeetingFromText(ctx context.Context, text string, metadata *ClientMetadata) (*models.Meeting, error)
	CurrentMeeting(ctx context.Context) models.Meeting
}

type MeetingFlowImpl struct {
	meetingRepo repository.MeetingRepository
	mirror      MeetingMirror
	validate    *validator.Validate
}

// NewMeetingFlow creates the meeting flow. mirror may be nil when no
// content-hosting mirror is configured.
func NewMeetingFlow(meetingRepo repository.MeetingRepository, mirror MeetingMirror) MeetingFlow {
	return &MeetingFlowImpl{
		meetingRepo: meetingRepo,
		mirror:      mirror,
		validate:    validator.New(),
	}
}

// ParseMeetingInput parses the pipe-delimited admin announcement:
// date|time|place|film|director|genre|country|year|posterURL|discussionNumber|description.
// Exactly 11 fields are required; any other count is rejected outright.
func (f *MeetingFlowImpl) ParseMeetingInput(text string) (*dto.AddMeetingRequest, error) {
	parts := strings.Split(text, "|")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if len(parts) != utils.MeetingFieldCount {
		return nil, NewBusinessErrorf("MEETING_FIELD_COUNT_MISMATCH",
			"Неверный формат: ожидается %d полей, получено %d",
			ErrMeetingFieldCount, utils.MeetingFieldCount, len(parts))
	}

	year, err := strconv.Atoi(parts[7])
	if err != nil {
		return nil, NewBusinessErrorf("MEETING_FIELD_INVALID",
			"Год должен быть числом, получено %q", ErrMeetingFieldInvalid, parts[7])
	}
	number, err := strconv.Atoi(parts[9])
	if err != nil {
		return nil, NewBusinessErrorf("MEETING_FIELD_INVALID",
			"Номер обсуждения должен быть числом, получено %q", ErrMeetingFieldInvalid, parts[9])
	}

	req := &dto.AddMeetingRequest{
		Date:             parts[0],
		Time:             parts[1],
		Place:            parts[2],
		Film:             parts[3],
		Director:         parts[4],
		Genre:            parts[5],
		Country:          parts[6],
		Year:             year,
		Poster:           parts[8],
		DiscussionNumber: number,
		Description:      parts[10],
	}

	if err := f.validate.Struct(req); err != nil {
		return nil, NewBusinessErrorf("MEETING_FIELD_INVALID",
			"Некорректные поля анонса: %v", ErrMeetingFieldInvalid, err)
	}
	return req, nil
}

// SetMeetingFromText parses the announcement and overwrites the meeting
// document wholesale. Nothing is mutated on a parse or validation failure.
func (f *MeetingFlowImpl) SetMeetingFromText(ctx context.Context, text string, metadata *ClientMetadata) (*models.Meeting, error) {
	req, err := f.ParseMeetingInput(text)
	if err != nil {
		return nil, err
	}

	meeting := models.Meeting{
		Date:             req.Date,
		Time:             req.Time,
		Place:            req.Place,
		Film:             req.Film,
		Director:         req.Director,
		Genre:            req.Genre,
		Country:          req.Country,
		Year:             req.Year,
		Poster:           req.Poster,
		DiscussionNumber: req.DiscussionNumber,
		Description:      req.Description,
		Requirements:     utils.MeetingToBeDecided,
	}
	f.meetingRepo.Save(ctx, meeting)

	if f.mirror != nil {
		if err := f.mirror.PublishMeeting(ctx, meeting); err != nil {
			log.Printf("Failed to mirror next meeting, announcement kept locally: %v", err)
		}
	}

	return &meeting, nil
}

// CurrentMeeting returns the meeting document as persisted
func (f *MeetingFlowImpl) CurrentMeeting(ctx context.Context) models.Meeting {
	return f.meetingRepo.Load(ctx)
}

package businessflow

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/ulysses-club/odissea/models"
	"github.com/ulysses-club/odissea/repository"
	"github.com/ulysses-club/odissea/utils"
)

// SocialPoster publishes a message on the club's group wall
type SocialPoster interface {
	WallPost(ctx context.Context, message string, attachments []string) (int64, error)
}

// VKPostFlow is the stage → edit → confirm workflow for publishing the
// upcoming meeting to the social network. Drafts are scoped to one admin
// chat and live in memory only; a restart discards them, which is acceptable
// for a manual admin-driven flow.
type VKPostFlow interface {
	StageMeetingPost(ctx context.Context, adminChatID int64) (*models.PostDraft, error)
	CurrentDraft(ctx context.Context, adminChatID int64) (*models.PostDraft, error)
	EditDraft(ctx context.Context, adminChatID int64, text string) (*models.PostDraft, error)
	ConfirmDraft(ctx context.Context, adminChatID int64) (int64, error)
	DiscardDraft(ctx context.Context, adminChatID int64) error
}

type VKPostFlowImpl struct {
	meetingRepo repository.MeetingRepository
	poster      SocialPoster

	mu     sync.Mutex
	drafts map[int64]*models.PostDraft
}

func NewVKPostFlow(meetingRepo repository.MeetingRepository, poster SocialPoster) VKPostFlow {
	return &VKPostFlowImpl{
		meetingRepo: meetingRepo,
		poster:      poster,
		drafts:      make(map[int64]*models.PostDraft),
	}
}

// StageMeetingPost formats the announced meeting into a post draft and holds
// it for the admin's confirmation, replacing any previous draft of theirs
func (f *VKPostFlowImpl) StageMeetingPost(ctx context.Context, adminChatID int64) (*models.PostDraft, error) {
	meeting := f.meetingRepo.Load(ctx)
	if !meeting.IsAnnounced() {
		return nil, NewBusinessError("MEETING_NOT_ANNOUNCED", "Next meeting is not announced yet", ErrMeetingNotAnnounced)
	}

	draft := &models.PostDraft{
		ID:          uuid.NewString(),
		AdminChatID: adminChatID,
		Message:     FormatMeetingPost(meeting),
		CreatedAt:   utils.UTCNow(),
	}
	if strings.HasPrefix(meeting.Poster, "http") {
		draft.Attachments = []string{meeting.Poster}
	}

	f.mu.Lock()
	f.drafts[adminChatID] = draft
	f.mu.Unlock()

	return draft, nil
}

// CurrentDraft returns the admin's staged post
func (f *VKPostFlowImpl) CurrentDraft(ctx context.Context, adminChatID int64) (*models.PostDraft, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	draft, ok := f.drafts[adminChatID]
	if !ok {
		return nil, NewBusinessError("DRAFT_NOT_FOUND", "No staged post found", ErrDraftNotFound)
	}
	return draft, nil
}

// EditDraft replaces the staged text before confirmation
func (f *VKPostFlowImpl) EditDraft(ctx context.Context, adminChatID int64, text string) (*models.PostDraft, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	draft, ok := f.drafts[adminChatID]
	if !ok {
		return nil, NewBusinessError("DRAFT_NOT_FOUND", "No staged post found", ErrDraftNotFound)
	}
	draft.Message = text
	return draft, nil
}

// ConfirmDraft submits the staged post and drops the draft on success
func (f *VKPostFlowImpl) ConfirmDraft(ctx context.Context, adminChatID int64) (int64, error) {
	f.mu.Lock()
	draft, ok := f.drafts[adminChatID]
	f.mu.Unlock()
	if !ok {
		return 0, NewBusinessError("DRAFT_NOT_FOUND", "No staged post found", ErrDraftNotFound)
	}

	postID, err := f.poster.WallPost(ctx, draft.Message, draft.Attachments)
	if err != nil {
		return 0, NewBusinessError("WALL_POST_FAILED", "Failed to publish post", err)
	}

	f.mu.Lock()
	delete(f.drafts, adminChatID)
	f.mu.Unlock()

	return postID, nil
}

// DiscardDraft drops the staged post without publishing
func (f *VKPostFlowImpl) DiscardDraft(ctx context.Context, adminChatID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.drafts[adminChatID]; !ok {
		return NewBusinessError("DRAFT_NOT_FOUND", "No staged post found", ErrDraftNotFound)
	}
	delete(f.drafts, adminChatID)
	return nil
}

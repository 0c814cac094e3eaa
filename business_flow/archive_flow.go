package businessflow

import (
	"context"
	"strings"

	"github.com/ulysses-club/odissea/models"
	"github.com/ulysses-club/odissea/repository"
)

// ContentMirror pushes the full history collection to the content-hosting
// mirror
type ContentMirror interface {
	PublishHistory(ctx context.Context, entries []models.HistoryEntry) error
}

// SheetMirror appends a single archived entry to the spreadsheet mirror
type SheetMirror interface {
	AppendHistoryEntry(ctx context.Context, e models.HistoryEntry) error
}

// ArchiveFlow closes a rated round: it publishes the result to both remote
// mirrors and only then commits the local state change.
type ArchiveFlow interface {
	ArchiveCurrent(ctx context.Context, metadata *ClientMetadata) (*models.HistoryEntry, error)
}

type ArchiveFlowImpl struct {
	votingRepo  repository.VotingRepository
	meetingRepo repository.MeetingRepository
	historyRepo repository.HistoryRepository
	contents    ContentMirror
	sheets      SheetMirror
}

func NewArchiveFlow(
	votingRepo repository.VotingRepository,
	meetingRepo repository.MeetingRepository,
	historyRepo repository.HistoryRepository,
	contents ContentMirror,
	sheets SheetMirror,
) ArchiveFlow {
	return &ArchiveFlowImpl{
		votingRepo:  votingRepo,
		meetingRepo: meetingRepo,
		historyRepo: historyRepo,
		contents:    contents,
		sheets:      sheets,
	}
}

// ArchiveCurrent runs the multi-store publish protocol. The remote mirrors
// are the durability requirement: local history is appended, the voting
// record reset and the meeting replaced with the placeholder only after BOTH
// mirrors accepted the write. Any mirror failure aborts with local state
// exactly as it was, so the admin can retry the whole operation safely.
func (f *ArchiveFlowImpl) ArchiveCurrent(ctx context.Context, metadata *ClientMetadata) (*models.HistoryEntry, error) {
	var err error
	defer func() {
		if err != nil {
			err = NewBusinessError("ARCHIVE_FAILED", "Failed to archive rating round", err)
		}
	}()

	voting := f.votingRepo.Load(ctx)
	if !voting.IsOpen() || voting.Average == nil {
		err = ErrArchiveNotReady
		return nil, err
	}
	if missing := missingArchiveFields(voting); len(missing) > 0 {
		err = NewBusinessErrorf("ARCHIVE_FIELDS_MISSING",
			"Не заполнены обязательные поля: %s", ErrArchiveFieldsMissing, strings.Join(missing, ", "))
		return nil, err
	}

	entry := historyEntryFromVoting(voting)

	// Full replacement, not a delta: the mirror file is always the complete
	// collection the local store would hold after the commit.
	full := append(f.historyRepo.All(ctx), entry)
	if err = f.contents.PublishHistory(ctx, full); err != nil {
		return nil, err
	}
	if err = f.sheets.AppendHistoryEntry(ctx, entry); err != nil {
		return nil, err
	}

	// Deferred commit: both mirrors accepted the write, advance local state.
	f.historyRepo.Append(ctx, entry)
	voting.Reset()
	f.votingRepo.Save(ctx, voting)
	f.meetingRepo.Save(ctx, models.DefaultMeeting())

	return &entry, nil
}

func missingArchiveFields(v models.Voting) []string {
	var missing []string
	if v.Film == nil || *v.Film == "" {
		missing = append(missing, "фильм")
	}
	if v.Director == nil || *v.Director == "" {
		missing = append(missing, "режиссер")
	}
	if v.DiscussionNumber == nil || *v.DiscussionNumber == 0 {
		missing = append(missing, "номер обсуждения")
	}
	if v.Date == nil || *v.Date == "" {
		missing = append(missing, "дата")
	}
	return missing
}

func historyEntryFromVoting(v models.Voting) models.HistoryEntry {
	entry := models.HistoryEntry{
		Average:      *v.Average,
		Participants: len(v.Ratings),
	}
	if v.Film != nil {
		entry.Film = *v.Film
	}
	if v.Director != nil {
		entry.Director = *v.Director
	}
	if v.Genre != nil {
		entry.Genre = *v.Genre
	}
	if v.Country != nil {
		entry.Country = *v.Country
	}
	if v.Year != nil {
		entry.Year = *v.Year
	}
	if v.Description != nil {
		entry.Description = *v.Description
	}
	if v.Date != nil {
		entry.Date = *v.Date
	}
	if v.Poster != nil {
		entry.Poster = *v.Poster
	}
	if v.DiscussionNumber != nil {
		entry.DiscussionNumber = *v.DiscussionNumber
	}
	return entry
}

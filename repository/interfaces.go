package repository

import (
	"context"

	"github.com/ulysses-club/odissea/models"
)

// VotingRepository owns the active voting record document
type VotingRepository interface {
	Load(ctx context.Context) models.Voting
	Save(ctx context.Context, v models.Voting)
}

// MeetingRepository owns the upcoming-meeting document
type MeetingRepository interface {
	Load(ctx context.Context) models.Meeting
	Save(ctx context.Context, m models.Meeting)
}

// HistoryRepository owns the append-only film history document
type HistoryRepository interface {
	All(ctx context.Context) []models.HistoryEntry
	Append(ctx context.Context, e models.HistoryEntry)
}

// SubscriberRepository owns the subscriber set document
type SubscriberRepository interface {
	All(ctx context.Context) []string
	Contains(ctx context.Context, chatID string) bool
	Add(ctx context.Context, chatID string) bool
	Remove(ctx context.Context, chatID string) bool
}

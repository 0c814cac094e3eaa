package repository

import (
	"context"

	"github.com/ulysses-club/odissea/models"
)

type meetingRepository struct {
	doc *documentRepository[models.Meeting]
}

// NewMeetingRepository returns the upcoming-meeting repository backed by the
// given document store
func NewMeetingRepository(store *DocumentStore, name string) MeetingRepository {
	return &meetingRepository{
		doc: newDocumentRepository(store, name, models.DefaultMeeting),
	}
}

func (r *meetingRepository) Load(ctx context.Context) models.Meeting {
	return r.doc.Load(ctx)
}

func (r *meetingRepository) Save(ctx context.Context, m models.Meeting) {
	r.doc.Save(ctx, m)
}

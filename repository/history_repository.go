package repository

import (
	"context"

	"github.com/ulysses-club/odissea/models"
)

type historyRepository struct {
	doc *documentRepository[[]models.HistoryEntry]
}

// NewHistoryRepository returns the film history repository backed by the
// given document store. The list is ordered oldest first.
func NewHistoryRepository(store *DocumentStore, name string) HistoryRepository {
	return &historyRepository{
		doc: newDocumentRepository(store, name, func() []models.HistoryEntry {
			return []models.HistoryEntry{}
		}),
	}
}

func (r *historyRepository) All(ctx context.Context) []models.HistoryEntry {
	return r.doc.Load(ctx)
}

func (r *historyRepository) Append(ctx context.Context, e models.HistoryEntry) {
	entries := r.doc.Load(ctx)
	entries = append(entries, e)
	r.doc.Save(ctx, entries)
}

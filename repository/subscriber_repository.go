package repository

import (
	"context"
)

type subscriberRepository struct {
	doc *documentRepository[[]string]
}

// NewSubscriberRepository returns the subscriber set repository backed by
// the given document store. The document is a plain list of chat-id strings;
// set semantics are enforced here.
func NewSubscriberRepository(store *DocumentStore, name string) SubscriberRepository {
	return &subscriberRepository{
		doc: newDocumentRepository(store, name, func() []string { return []string{} }),
	}
}

func (r *subscriberRepository) All(ctx context.Context) []string {
	return r.doc.Load(ctx)
}

func (r *subscriberRepository) Contains(ctx context.Context, chatID string) bool {
	for _, id := range r.doc.Load(ctx) {
		if id == chatID {
			return true
		}
	}
	return false
}

// Add inserts the chat id and reports whether it was newly added
func (r *subscriberRepository) Add(ctx context.Context, chatID string) bool {
	ids := r.doc.Load(ctx)
	for _, id := range ids {
		if id == chatID {
			return false
		}
	}
	ids = append(ids, chatID)
	r.doc.Save(ctx, ids)
	return true
}

// Remove deletes the chat id and reports whether it was present
func (r *subscriberRepository) Remove(ctx context.Context, chatID string) bool {
	ids := r.doc.Load(ctx)
	for i, id := range ids {
		if id == chatID {
			ids = append(ids[:i], ids[i+1:]...)
			r.doc.Save(ctx, ids)
			return true
		}
	}
	return false
}

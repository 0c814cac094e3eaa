package repository

import (
	"context"
	"log"
	"os"
)

// documentRepository is a typed view over one named document in a
// DocumentStore with load-or-default semantics. I/O failures never reach the
// caller: a failed load degrades to the default value (and the document is
// created from it), a failed save is logged and dropped. The caller is the
// owner of the document and always performs whole-document read-modify-write.
type documentRepository[T any] struct {
	store *DocumentStore
	name  string
	def   func() T
}

func newDocumentRepository[T any](store *DocumentStore, name string, def func() T) *documentRepository[T] {
	return &documentRepository[T]{store: store, name: name, def: def}
}

// Load returns the persisted document, or the default when the document is
// absent or unreadable. An absent document is created from the default so
// the first Load also materializes the file.
func (r *documentRepository[T]) Load(ctx context.Context) T {
	var v T
	err := r.store.read(r.name, &v)
	if err == nil {
		return v
	}
	if !os.IsNotExist(err) {
		log.Printf("Failed to load document %s, falling back to default: %v", r.name, err)
	}
	v = r.def()
	if werr := r.store.write(r.name, v); werr != nil {
		log.Printf("Failed to create document %s with default: %v", r.name, werr)
	}
	return v
}

// Save overwrites the document in full. Failure is logged and swallowed;
// the next Load will simply observe stale data.
func (r *documentRepository[T]) Save(ctx context.Context, v T) {
	if err := r.store.write(r.name, v); err != nil {
		log.Printf("Failed to save document %s: %v", r.name, err)
	}
}

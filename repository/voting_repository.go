package repository

import (
	"context"

	"github.com/ulysses-club/odissea/models"
)

type votingRepository struct {
	doc *documentRepository[models.Voting]
}

// NewVotingRepository returns the voting record repository backed by the
// given document store
func NewVotingRepository(store *DocumentStore, name string) VotingRepository {
	return &votingRepository{
		doc: newDocumentRepository(store, name, models.DefaultVoting),
	}
}

func (r *votingRepository) Load(ctx context.Context) models.Voting {
	v := r.doc.Load(ctx)
	if v.Ratings == nil {
		v.Ratings = map[string]int{}
	}
	return v
}

func (r *votingRepository) Save(ctx context.Context, v models.Voting) {
	r.doc.Save(ctx, v)
}

package businessflow

import (
	"context"
	"log"
	"strconv"

	"github.com/ulysses-club/odissea/app/dto"
	"github.com/ulysses-club/odissea/app/services"
	"github.com/ulysses-club/odissea/repository"
)

// SubscriptionFlow defines membership of the weekly-notification list and
// the best-effort broadcast over it
type SubscriptionFlow interface {
	Subscribe(ctx context.Context, chatID int64) (bool, error)
	Unsubscribe(ctx context.Context, chatID int64) (bool, error)
	IsSubscribed(ctx context.Context, chatID int64) bool
	SubscriberCount(ctx context.Context) int
	Broadcast(ctx context.Context, text string) (*dto.BroadcastReport, error)
}

type SubscriptionFlowImpl struct {
	subscriberRepo repository.SubscriberRepository
	messenger      services.Messenger
}

func NewSubscriptionFlow(subscriberRepo repository.SubscriberRepository, messenger services.Messenger) SubscriptionFlow {
	return &SubscriptionFlowImpl{subscriberRepo: subscriberRepo, messenger: messenger}
}

// Subscribe adds the chat to the set and reports whether it was new
func (f *SubscriptionFlowImpl) Subscribe(ctx context.Context, chatID int64) (bool, error) {
	return f.subscriberRepo.Add(ctx, strconv.FormatInt(chatID, 10)), nil
}

// Unsubscribe removes the chat from the set and reports whether it was present
func (f *SubscriptionFlowImpl) Unsubscribe(ctx context.Context, chatID int64) (bool, error) {
	return f.subscriberRepo.Remove(ctx, strconv.FormatInt(chatID, 10)), nil
}

func (f *SubscriptionFlowImpl) IsSubscribed(ctx context.Context, chatID int64) bool {
	return f.subscriberRepo.Contains(ctx, strconv.FormatInt(chatID, 10))
}

func (f *SubscriptionFlowImpl) SubscriberCount(ctx context.Context) int {
	return len(f.subscriberRepo.All(ctx))
}

// Broadcast delivers text to every subscriber. Failures are per recipient
// and never abort the batch; a definitive "blocked/unreachable" signal
// prunes the recipient from the set, transient errors do not.
func (f *SubscriptionFlowImpl) Broadcast(ctx context.Context, text string) (*dto.BroadcastReport, error) {
	if text == "" {
		return nil, NewBusinessError("BROADCAST_TEXT_EMPTY", "Broadcast text is empty", ErrBroadcastTextEmpty)
	}

	report := &dto.BroadcastReport{}
	for _, id := range f.subscriberRepo.All(ctx) {
		chatID, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			log.Printf("Dropping malformed subscriber id %q", id)
			f.subscriberRepo.Remove(ctx, id)
			report.Pruned++
			continue
		}

		if _, err := f.messenger.SendMessage(ctx, chatID, text, nil); err != nil {
			if services.IsRecipientGone(err) {
				log.Printf("Subscriber %s is unreachable, pruning: %v", id, err)
				f.subscriberRepo.Remove(ctx, id)
				report.Pruned++
			} else {
				log.Printf("Failed to deliver broadcast to %s: %v", id, err)
				report.Failed++
			}
			continue
		}
		report.Delivered++
	}
	return report, nil
}

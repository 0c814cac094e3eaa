package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/ulysses-club/odissea/models"
	"github.com/ulysses-club/odissea/utils"
)

// ConversationStore holds the per-chat "awaiting free-text input" state.
// Pop is the only read: it atomically fetches and clears the state, so two
// inbound messages can never both consume the same pending prompt.
type ConversationStore interface {
	Set(ctx context.Context, state models.ConversationState) error
	Pop(ctx context.Context, chatID int64) (*models.ConversationState, error)
	Clear(ctx context.Context, chatID int64) error
}

// MemoryConversationStore is the in-process default
type MemoryConversationStore struct {
	mu     sync.Mutex
	states map[int64]models.ConversationState
	ttl    time.Duration
}

// NewMemoryConversationStore creates an in-memory store. States older than
// ttl are treated as abandoned and dropped on access.
func NewMemoryConversationStore(ttl time.Duration) *MemoryConversationStore {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &MemoryConversationStore{states: make(map[int64]models.ConversationState), ttl: ttl}
}

func (s *MemoryConversationStore) Set(ctx context.Context, state models.ConversationState) error {
	if state.CreatedAt.IsZero() {
		state.CreatedAt = utils.UTCNow()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[state.ChatID] = state
	return nil
}

func (s *MemoryConversationStore) Pop(ctx context.Context, chatID int64) (*models.ConversationState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.states[chatID]
	if !ok {
		return nil, nil
	}
	delete(s.states, chatID)
	if time.Since(state.CreatedAt) > s.ttl {
		return nil, nil
	}
	return &state, nil
}

func (s *MemoryConversationStore) Clear(ctx context.Context, chatID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, chatID)
	return nil
}

// RedisConversationStore keeps conversation state in Redis so pending
// prompts survive a bot restart
type RedisConversationStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisConversationStore creates a Redis-backed store
func NewRedisConversationStore(client *redis.Client, prefix string, ttl time.Duration) *RedisConversationStore {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &RedisConversationStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *RedisConversationStore) key(chatID int64) string {
	return s.prefix + "conversation:" + strconv.FormatInt(chatID, 10)
}

func (s *RedisConversationStore) Set(ctx context.Context, state models.ConversationState) error {
	if state.CreatedAt.IsZero() {
		state.CreatedAt = utils.UTCNow()
	}
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode conversation state: %w", err)
	}
	return s.client.Set(ctx, s.key(state.ChatID), data, s.ttl).Err()
}

func (s *RedisConversationStore) Pop(ctx context.Context, chatID int64) (*models.ConversationState, error) {
	data, err := s.client.GetDel(ctx, s.key(chatID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var state models.ConversationState
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return nil, fmt.Errorf("failed to decode conversation state: %w", err)
	}
	return &state, nil
}

func (s *RedisConversationStore) Clear(ctx context.Context, chatID int64) error {
	return s.client.Del(ctx, s.key(chatID)).Err()
}

package models

import "time"

// ConversationKind identifies what free-text input a chat is expected to
// supply next.
type ConversationKind string

const (
	ConversationAwaitingMeeting   ConversationKind = "awaiting_meeting_input"
	ConversationAwaitingBroadcast ConversationKind = "awaiting_broadcast_text"
	ConversationAwaitingPostEdit  ConversationKind = "awaiting_post_edit"
)

// ConversationState is the short-lived per-chat "waiting for the next
// free-text reply" marker. It replaces ambient one-shot listeners: the state
// is checked and cleared atomically on each inbound text message, so an
// abandoned prompt cannot leak and a second chat's message cannot be
// misrouted to it.
type ConversationState struct {
	ChatID    int64            `json:"chat_id"`
	Kind      ConversationKind `json:"kind"`
	Data      string           `json:"data,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

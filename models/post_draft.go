package models

import "time"

// PostDraft is a staged social-network post awaiting admin confirmation.
// Drafts live in memory only; a process restart discards them.
type PostDraft struct {
	ID          string    `json:"id"`
	AdminChatID int64     `json:"admin_chat_id"`
	Message     string    `json:"message"`
	Attachments []string  `json:"attachments,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

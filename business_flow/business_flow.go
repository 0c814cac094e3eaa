// Package businessflow contains the business logic for the application.
package businessflow

const RequestIDKey = "X-Request-ID"

// ClientMetadata holds the chat-level information attached to every
// admin or member action for logging
type ClientMetadata struct {
	ChatID    int64  `json:"chat_id"`
	Username  string `json:"username,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// NewClientMetadata creates a new ClientMetadata instance
func NewClientMetadata(chatID int64, username string) *ClientMetadata {
	return &ClientMetadata{ChatID: chatID, Username: username}
}

// SetRequestID sets the request ID
func (cm *ClientMetadata) SetRequestID(requestID string) {
	cm.RequestID = requestID
}

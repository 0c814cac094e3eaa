// Package services provides external service integrations: the chat
// transport and the remote mirror clients.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ulysses-club/odissea/app/dto"
	"github.com/ulysses-club/odissea/utils"
)

// Messenger is the chat transport capability. Flows and handlers depend on
// this interface, never on the concrete Bot API client.
type Messenger interface {
	SendMessage(ctx context.Context, chatID int64, text string, opts *MessageOptions) (int, error)
	SendPhoto(ctx context.Context, chatID int64, photoURL, caption string, opts *MessageOptions) (int, error)
	SendDocument(ctx context.Context, chatID int64, filename string, content []byte, caption string) (int, error)
	EditMessageText(ctx context.Context, chatID int64, messageID int, text string, opts *MessageOptions) error
	AnswerCallbackQuery(ctx context.Context, callbackQueryID, text string) error
	SetWebhook(ctx context.Context, url, secret string) error
}

// MessageOptions carries the optional parts of an outgoing message
type MessageOptions struct {
	ParseMode          string
	ReplyMarkup        *dto.InlineKeyboardMarkup
	DisableLinkPreview bool
}

// TelegramError is a structured Bot API failure
type TelegramError struct {
	Code        int
	Description string
}

func (e *TelegramError) Error() string {
	return fmt.Sprintf("telegram: %s (%d)", e.Description, e.Code)
}

// IsRecipientGone reports whether the error is a definitive "this chat is
// unreachable" signal (the user blocked the bot or deleted the account).
// Transient failures must not be treated as gone.
func IsRecipientGone(err error) bool {
	var te *TelegramError
	if !errors.As(err, &te) {
		return false
	}
	if te.Code == http.StatusForbidden {
		return true
	}
	desc := strings.ToLower(te.Description)
	return te.Code == http.StatusBadRequest && strings.Contains(desc, "chat not found")
}

// TelegramClient talks to the Bot API over HTTPS
type TelegramClient struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// NewTelegramClient creates a new Bot API client
func NewTelegramClient(baseURL, token string, timeout time.Duration) *TelegramClient {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &TelegramClient{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Token:      token,
		HTTPClient: &http.Client{Timeout: timeout},
		Timeout:    timeout,
	}
}

type telegramEnvelope struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	ErrorCode   int             `json:"error_code"`
	Description string          `json:"description"`
}

type sendMessageRequest struct {
	ChatID             int64                     `json:"chat_id"`
	Text               string                    `json:"text"`
	ParseMode          string                    `json:"parse_mode,omitempty"`
	ReplyMarkup        *dto.InlineKeyboardMarkup `json:"reply_markup,omitempty"`
	DisableLinkPreview bool                      `json:"disable_web_page_preview,omitempty"`
}

type sendPhotoRequest struct {
	ChatID      int64                     `json:"chat_id"`
	Photo       string                    `json:"photo"`
	Caption     string                    `json:"caption,omitempty"`
	ParseMode   string                    `json:"parse_mode,omitempty"`
	ReplyMarkup *dto.InlineKeyboardMarkup `json:"reply_markup,omitempty"`
}

type editMessageTextRequest struct {
	ChatID      int64                     `json:"chat_id"`
	MessageID   int                       `json:"message_id"`
	Text        string                    `json:"text"`
	ParseMode   string                    `json:"parse_mode,omitempty"`
	ReplyMarkup *dto.InlineKeyboardMarkup `json:"reply_markup,omitempty"`
}

type answerCallbackQueryRequest struct {
	CallbackQueryID string `json:"callback_query_id"`
	Text            string `json:"text,omitempty"`
}

type setWebhookRequest struct {
	URL         string `json:"url"`
	SecretToken string `json:"secret_token,omitempty"`
}

// SendMessage delivers a text message and returns the new message id
func (c *TelegramClient) SendMessage(ctx context.Context, chatID int64, text string, opts *MessageOptions) (int, error) {
	req := sendMessageRequest{ChatID: chatID, Text: text}
	if opts != nil {
		req.ParseMode = opts.ParseMode
		req.ReplyMarkup = opts.ReplyMarkup
		req.DisableLinkPreview = opts.DisableLinkPreview
	}
	var msg dto.Message
	if err := c.call(ctx, "sendMessage", req, &msg); err != nil {
		return 0, err
	}
	return msg.MessageID, nil
}

// SendPhoto delivers a photo by URL and returns the new message id
func (c *TelegramClient) SendPhoto(ctx context.Context, chatID int64, photoURL, caption string, opts *MessageOptions) (int, error) {
	req := sendPhotoRequest{ChatID: chatID, Photo: photoURL, Caption: caption}
	if opts != nil {
		req.ParseMode = opts.ParseMode
		req.ReplyMarkup = opts.ReplyMarkup
	}
	var msg dto.Message
	if err := c.call(ctx, "sendPhoto", req, &msg); err != nil {
		return 0, err
	}
	return msg.MessageID, nil
}

// SendDocument uploads a file as a document message and returns the new
// message id. The Bot API requires multipart form data for raw uploads.
func (c *TelegramClient) SendDocument(ctx context.Context, chatID int64, filename string, content []byte, caption string) (int, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("chat_id", strconv.FormatInt(chatID, 10)); err != nil {
		return 0, err
	}
	if caption != "" {
		if err := w.WriteField("caption", caption); err != nil {
			return 0, err
		}
	}
	part, err := w.CreateFormFile("document", filename)
	if err != nil {
		return 0, err
	}
	if _, err := part.Write(content); err != nil {
		return 0, err
	}
	if err := w.Close(); err != nil {
		return 0, err
	}

	url := fmt.Sprintf("%s/bot%s/sendDocument", c.BaseURL, c.Token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return 0, fmt.Errorf("failed to create sendDocument request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to call sendDocument: %w", err)
	}
	defer resp.Body.Close()

	var env telegramEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return 0, fmt.Errorf("failed to decode sendDocument response: %w", err)
	}
	if !env.OK {
		return 0, &TelegramError{Code: env.ErrorCode, Description: env.Description}
	}
	var msg dto.Message
	if len(env.Result) > 0 {
		if err := json.Unmarshal(env.Result, &msg); err != nil {
			return 0, fmt.Errorf("failed to decode sendDocument result: %w", err)
		}
	}
	return msg.MessageID, nil
}

// EditMessageText replaces the text (and keyboard) of a previously sent message
func (c *TelegramClient) EditMessageText(ctx context.Context, chatID int64, messageID int, text string, opts *MessageOptions) error {
	req := editMessageTextRequest{ChatID: chatID, MessageID: messageID, Text: text}
	if opts != nil {
		req.ParseMode = opts.ParseMode
		req.ReplyMarkup = opts.ReplyMarkup
	}
	return c.call(ctx, "editMessageText", req, nil)
}

// AnswerCallbackQuery acknowledges a button press so the client stops the spinner
func (c *TelegramClient) AnswerCallbackQuery(ctx context.Context, callbackQueryID, text string) error {
	return c.call(ctx, "answerCallbackQuery", answerCallbackQueryRequest{CallbackQueryID: callbackQueryID, Text: text}, nil)
}

// SetWebhook registers the inbound update endpoint with the Bot API
func (c *TelegramClient) SetWebhook(ctx context.Context, url, secret string) error {
	return c.call(ctx, "setWebhook", setWebhookRequest{URL: url, SecretToken: secret}, nil)
}

func (c *TelegramClient) call(ctx context.Context, method string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s request: %w", method, err)
	}

	url := fmt.Sprintf("%s/bot%s/%s", c.BaseURL, c.Token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call %s: %w", method, err)
	}
	defer resp.Body.Close()

	var env telegramEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", method, err)
	}
	if !env.OK {
		return &TelegramError{Code: env.ErrorCode, Description: env.Description}
	}
	if out != nil && len(env.Result) > 0 {
		if err := json.Unmarshal(env.Result, out); err != nil {
			return fmt.Errorf("failed to decode %s result: %w", method, err)
		}
	}
	return nil
}

// MockMessenger implements Messenger for testing
type MockMessenger struct {
	mu           sync.Mutex
	SentMessages []MockSentMessage
	// FailFor maps chat ids to the error every delivery to them returns
	FailFor map[int64]error
}

// MockSentMessage records one delivery attempt
type MockSentMessage struct {
	ChatID   int64
	Text     string
	PhotoURL string
	Options  *MessageOptions
	SentAt   time.Time
}

// NewMockMessenger creates a new mock chat transport
func NewMockMessenger() *MockMessenger {
	return &MockMessenger{FailFor: make(map[int64]error)}
}

func (m *MockMessenger) SendMessage(ctx context.Context, chatID int64, text string, opts *MessageOptions) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.FailFor[chatID]; ok {
		return 0, err
	}
	m.SentMessages = append(m.SentMessages, MockSentMessage{ChatID: chatID, Text: text, Options: opts, SentAt: utils.UTCNow()})
	return len(m.SentMessages), nil
}

func (m *MockMessenger) SendPhoto(ctx context.Context, chatID int64, photoURL, caption string, opts *MessageOptions) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.FailFor[chatID]; ok {
		return 0, err
	}
	m.SentMessages = append(m.SentMessages, MockSentMessage{ChatID: chatID, Text: caption, PhotoURL: photoURL, Options: opts, SentAt: utils.UTCNow()})
	return len(m.SentMessages), nil
}

func (m *MockMessenger) SendDocument(ctx context.Context, chatID int64, filename string, content []byte, caption string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.FailFor[chatID]; ok {
		return 0, err
	}
	m.SentMessages = append(m.SentMessages, MockSentMessage{ChatID: chatID, Text: caption, PhotoURL: filename, SentAt: utils.UTCNow()})
	return len(m.SentMessages), nil
}

func (m *MockMessenger) EditMessageText(ctx context.Context, chatID int64, messageID int, text string, opts *MessageOptions) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SentMessages = append(m.SentMessages, MockSentMessage{ChatID: chatID, Text: text, Options: opts, SentAt: utils.UTCNow()})
	return nil
}

func (m *MockMessenger) AnswerCallbackQuery(ctx context.Context, callbackQueryID, text string) error {
	return nil
}

func (m *MockMessenger) SetWebhook(ctx context.Context, url, secret string) error {
	return nil
}

// GetSentMessages returns a copy of the recorded deliveries
func (m *MockMessenger) GetSentMessages() []MockSentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockSentMessage, len(m.SentMessages))
	copy(out, m.SentMessages)
	return out
}

// ClearSentMessages drops the recorded deliveries
func (m *MockMessenger) ClearSentMessages() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SentMessages = nil
}

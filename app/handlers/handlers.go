// Package handlers contains the chat update dispatch and presentation layer
// of the bot.
package handlers

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/ulysses-club/odissea/app/dto"
	"github.com/ulysses-club/odissea/app/middleware"
	"github.com/ulysses-club/odissea/app/services"
	businessflow "github.com/ulysses-club/odissea/business_flow"
	"github.com/ulysses-club/odissea/config"
)

// BotHandlerInterface receives webhook updates from the chat transport
type BotHandlerInterface interface {
	HandleUpdate(c fiber.Ctx) error
}

// BotHandler dispatches inbound updates to the business flows
type BotHandler struct {
	votingFlow       businessflow.VotingFlow
	meetingFlow      businessflow.MeetingFlow
	archiveFlow      businessflow.ArchiveFlow
	subscriptionFlow businessflow.SubscriptionFlow
	vkPostFlow       businessflow.VKPostFlow
	historyFlow      businessflow.HistoryFlow
	messenger        services.Messenger
	conversations    services.ConversationStore
	admins           *config.AdminList
}

// NewBotHandler creates the update dispatcher
func NewBotHandler(
	votingFlow businessflow.VotingFlow,
	meetingFlow businessflow.MeetingFlow,
	archiveFlow businessflow.ArchiveFlow,
	subscriptionFlow businessflow.SubscriptionFlow,
	vkPostFlow businessflow.VKPostFlow,
	historyFlow businessflow.HistoryFlow,
	messenger services.Messenger,
	conversations services.ConversationStore,
	admins *config.AdminList,
) BotHandlerInterface {
	return &BotHandler{
		votingFlow:       votingFlow,
		meetingFlow:      meetingFlow,
		archiveFlow:      archiveFlow,
		subscriptionFlow: subscriptionFlow,
		vkPostFlow:       vkPostFlow,
		historyFlow:      historyFlow,
		messenger:        messenger,
		conversations:    conversations,
		admins:           admins,
	}
}

func (h *BotHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error:   dto.ErrorDetail{Code: errorCode, Details: details},
	})
}

func (h *BotHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{Success: true, Message: message, Data: data})
}

// HandleUpdate processes one inbound update. Processing errors are reported
// to the originating chat and logged; the webhook itself always answers 200
// so the transport does not redeliver the update forever.
func (h *BotHandler) HandleUpdate(c fiber.Ctx) error {
	var update dto.Update
	if err := c.Bind().Body(&update); err != nil {
		log.Println("Malformed webhook update", err)
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Malformed update", "MALFORMED_UPDATE", nil)
	}

	ctx, cancel := h.createRequestContext(c, 30*time.Second)
	defer cancel()

	switch {
	case update.CallbackQuery != nil:
		middleware.ObserveUpdate("callback")
		h.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil && strings.HasPrefix(update.Message.Text, "/"):
		middleware.ObserveUpdate("command")
		h.handleCommand(ctx, update.Message)
	case update.Message != nil:
		middleware.ObserveUpdate("text")
		h.handleText(ctx, update.Message)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Update processed", nil)
}

func (h *BotHandler) createRequestContext(c fiber.Ctx, timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	ctx = context.WithValue(ctx, businessflow.RequestIDKey, c.Get("X-Request-ID"))
	return ctx, cancel
}

// reply sends a plain text answer to the chat, logging delivery failures
func (h *BotHandler) reply(ctx context.Context, chatID int64, text string, opts *services.MessageOptions) {
	if _, err := h.messenger.SendMessage(ctx, chatID, text, opts); err != nil {
		log.Printf("Failed to send message to chat %d: %v", chatID, err)
	}
}

// requireAdmin checks the allowlist and tells the chat off when it fails
func (h *BotHandler) requireAdmin(ctx context.Context, chatID int64) bool {
	if h.admins.IsAdmin(chatID) {
		return true
	}
	h.reply(ctx, chatID, "Эта команда доступна только администраторам клуба.", nil)
	return false
}

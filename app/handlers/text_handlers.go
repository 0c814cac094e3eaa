package handlers

import (
	"context"
	"log"
	"strings"

	"github.com/ulysses-club/odissea/app/dto"
	"github.com/ulysses-club/odissea/app/services"
	businessflow "github.com/ulysses-club/odissea/business_flow"
	"github.com/ulysses-club/odissea/models"
)

// handleText routes a free-text message through the pending conversation
// state, if any. The state is consumed up front; flows that want another
// attempt after a bad input re-arm it explicitly.
func (h *BotHandler) handleText(ctx context.Context, msg *dto.Message) {
	chatID := msg.Chat.ID

	state, err := h.conversations.Pop(ctx, chatID)
	if err != nil {
		log.Println("Failed to read conversation state", err)
		h.reply(ctx, chatID, "Что-то пошло не так, попробуйте еще раз.", nil)
		return
	}
	if state == nil {
		h.reply(ctx, chatID, "Отправьте /menu, чтобы открыть меню.", nil)
		return
	}

	meta := businessflow.NewClientMetadata(chatID, usernameOf(msg))

	switch state.Kind {
	case models.ConversationAwaitingMeeting:
		h.receiveMeetingInput(ctx, chatID, msg.Text, meta)
	case models.ConversationAwaitingBroadcast:
		h.receiveBroadcastText(ctx, chatID, msg.Text)
	case models.ConversationAwaitingPostEdit:
		h.receivePostEdit(ctx, chatID, msg.Text)
	default:
		log.Printf("Dropping unknown conversation state %q for chat %d", state.Kind, chatID)
		h.reply(ctx, chatID, "Отправьте /menu, чтобы открыть меню.", nil)
	}
}

// receiveMeetingInput applies the pipe-delimited announcement. On a parse or
// validation error the prompt is re-armed so the admin can just resend the
// corrected line.
func (h *BotHandler) receiveMeetingInput(ctx context.Context, chatID int64, text string, meta *businessflow.ClientMetadata) {
	if !h.requireAdmin(ctx, chatID) {
		return
	}
	meeting, err := h.meetingFlow.SetMeetingFromText(ctx, text, meta)
	if err != nil {
		if setErr := h.conversations.Set(ctx, models.ConversationState{
			ChatID: chatID,
			Kind:   models.ConversationAwaitingMeeting,
		}); setErr != nil {
			log.Println("Failed to re-arm conversation state", setErr)
		}
		h.reply(ctx, chatID, err.Error()+"\n\nПоправьте строку и отправьте еще раз.", nil)
		return
	}
	h.reply(ctx, chatID, "Встреча анонсирована:\n\n"+businessflow.FormatMeeting(*meeting), nil)
}

func (h *BotHandler) receiveBroadcastText(ctx context.Context, chatID int64, text string) {
	if !h.requireAdmin(ctx, chatID) {
		return
	}
	text = strings.TrimSpace(text)
	if text == "" {
		h.reply(ctx, chatID, "Текст рассылки пуст, рассылка отменена.", nil)
		return
	}
	h.runBroadcast(ctx, chatID, text)
}

func (h *BotHandler) receivePostEdit(ctx context.Context, chatID int64, text string) {
	if !h.requireAdmin(ctx, chatID) {
		return
	}
	draft, err := h.vkPostFlow.EditDraft(ctx, chatID, text)
	if err != nil {
		h.replyFlowError(ctx, chatID, err)
		return
	}
	h.reply(ctx, chatID, "Черновик поста обновлен:\n\n"+draft.Message,
		&services.MessageOptions{ReplyMarkup: postConfirmKeyboard(), DisableLinkPreview: true})
}

func usernameOf(msg *dto.Message) string {
	if msg.From != nil {
		return msg.From.Username
	}
	return ""
}

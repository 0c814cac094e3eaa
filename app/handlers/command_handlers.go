package handlers

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/ulysses-club/odissea/app/dto"
	"github.com/ulysses-club/odissea/app/middleware"
	"github.com/ulysses-club/odissea/app/services"
	businessflow "github.com/ulysses-club/odissea/business_flow"
	"github.com/ulysses-club/odissea/models"
	"github.com/ulysses-club/odissea/utils"
)

func (h *BotHandler) handleCommand(ctx context.Context, msg *dto.Message) {
	chatID := msg.Chat.ID
	fields := strings.Fields(msg.Text)
	if len(fields) == 0 {
		return
	}
	// Strip the "@botname" suffix used in group chats
	command := strings.SplitN(fields[0], "@", 2)[0]
	args := strings.TrimSpace(strings.TrimPrefix(msg.Text, fields[0]))

	switch command {
	case "/start":
		h.reply(ctx, chatID,
			"Привет! Я бот киноклуба «Одиссея».\nЗдесь можно узнать о следующей встрече, посмотреть историю просмотров и подписаться на напоминания.",
			&services.MessageOptions{ReplyMarkup: mainMenuKeyboard(h.admins.IsAdmin(chatID))})
	case "/menu":
		h.reply(ctx, chatID, "Главное меню:",
			&services.MessageOptions{ReplyMarkup: mainMenuKeyboard(h.admins.IsAdmin(chatID))})
	case "/nextmeeting":
		h.sendMeetingInfo(ctx, chatID)
	case "/history":
		h.reply(ctx, chatID, businessflow.FormatHistory(h.historyFlow.History(ctx), 10), nil)
	case "/subscribe":
		h.showSubscriptionMenu(ctx, chatID)
	case "/checkadmin":
		if h.admins.IsAdmin(chatID) {
			h.reply(ctx, chatID, "Вы администратор клуба.", nil)
		} else {
			h.reply(ctx, chatID, "Вы не администратор.", nil)
		}
	case "/admin":
		if !h.requireAdmin(ctx, chatID) {
			return
		}
		h.reply(ctx, chatID, "Панель администратора:",
			&services.MessageOptions{ReplyMarkup: adminPanelKeyboard()})
	case "/notify":
		if !h.requireAdmin(ctx, chatID) {
			return
		}
		if args == "" {
			h.promptBroadcast(ctx, chatID)
			return
		}
		h.runBroadcast(ctx, chatID, args)
	case "/subscribers":
		if !h.requireAdmin(ctx, chatID) {
			return
		}
		h.reply(ctx, chatID, fmt.Sprintf("Подписчиков на напоминания: %d", h.subscriptionFlow.SubscriberCount(ctx)), nil)
	case "/reload":
		if !h.requireAdmin(ctx, chatID) {
			return
		}
		if err := h.admins.Reload(); err != nil {
			log.Println("Admin list reload failed", err)
			h.reply(ctx, chatID, "Не удалось перечитать список администраторов: "+err.Error(), nil)
			return
		}
		h.reply(ctx, chatID, fmt.Sprintf("Список администраторов обновлен, сейчас в нем %d чат(ов).", h.admins.Count()), nil)
	case "/export":
		if !h.requireAdmin(ctx, chatID) {
			return
		}
		h.exportHistory(ctx, chatID)
	default:
		h.reply(ctx, chatID, "Неизвестная команда. Отправьте /menu, чтобы открыть меню.", nil)
	}
}

// sendMeetingInfo shows the announced meeting, with the poster when one is set
func (h *BotHandler) sendMeetingInfo(ctx context.Context, chatID int64) {
	meeting := h.meetingFlow.CurrentMeeting(ctx)
	text := businessflow.FormatMeeting(meeting)
	if strings.HasPrefix(meeting.Poster, "http") {
		_, err := h.messenger.SendPhoto(ctx, chatID, meeting.Poster, text, nil)
		if err == nil {
			return
		}
		log.Printf("Failed to send poster to chat %d, falling back to text: %v", chatID, err)
	}
	h.reply(ctx, chatID, text, nil)
}

func (h *BotHandler) showSubscriptionMenu(ctx context.Context, chatID int64) {
	subscribed := h.subscriptionFlow.IsSubscribed(ctx, chatID)
	text := "Вы не подписаны на еженедельные напоминания."
	if subscribed {
		text = "Вы подписаны на еженедельные напоминания."
	}
	h.reply(ctx, chatID, text, &services.MessageOptions{ReplyMarkup: subscriptionKeyboard(subscribed)})
}

func (h *BotHandler) promptBroadcast(ctx context.Context, chatID int64) {
	if err := h.conversations.Set(ctx, models.ConversationState{
		ChatID: chatID,
		Kind:   models.ConversationAwaitingBroadcast,
	}); err != nil {
		log.Println("Failed to store conversation state", err)
		h.reply(ctx, chatID, "Не удалось начать рассылку, попробуйте еще раз.", nil)
		return
	}
	h.reply(ctx, chatID, "Отправьте текст рассылки одним сообщением.", nil)
}

func (h *BotHandler) runBroadcast(ctx context.Context, chatID int64, text string) {
	report, err := h.subscriptionFlow.Broadcast(ctx, text)
	if err != nil {
		log.Println("Broadcast failed", err)
		h.reply(ctx, chatID, "Рассылка не выполнена: "+err.Error(), nil)
		return
	}
	middleware.ObserveBroadcast(report.Delivered, report.Failed, report.Pruned)
	h.reply(ctx, chatID, fmt.Sprintf(
		"Рассылка завершена.\nДоставлено: %d\nНе доставлено: %d\nУдалено из подписки: %d",
		report.Delivered, report.Failed, report.Pruned), nil)
}

func (h *BotHandler) exportHistory(ctx context.Context, chatID int64) {
	data, err := h.historyFlow.ExportXLSX(ctx)
	if err != nil {
		log.Println("History export failed", err)
		h.reply(ctx, chatID, "Не удалось сформировать файл экспорта: "+err.Error(), nil)
		return
	}
	filename := "films-" + utils.UTCNowFormat("2006-01-02") + ".xlsx"
	if _, err := h.messenger.SendDocument(ctx, chatID, filename, data, "История просмотров клуба"); err != nil {
		log.Println("Failed to send export document", err)
		h.reply(ctx, chatID, "Не удалось отправить файл экспорта.", nil)
	}
}

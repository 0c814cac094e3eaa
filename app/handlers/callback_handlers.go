package handlers

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/ulysses-club/odissea/app/dto"
	"github.com/ulysses-club/odissea/app/middleware"
	"github.com/ulysses-club/odissea/app/services"
	businessflow "github.com/ulysses-club/odissea/business_flow"
	"github.com/ulysses-club/odissea/models"
	"github.com/ulysses-club/odissea/utils"
)

// handleCallback processes an inline keyboard tap. The callback is answered
// immediately so the client stops showing a spinner, then the action runs.
func (h *BotHandler) handleCallback(ctx context.Context, cq *dto.CallbackQuery) {
	if err := h.messenger.AnswerCallbackQuery(ctx, cq.ID, ""); err != nil {
		log.Println("Failed to answer callback query", err)
	}
	if cq.Message == nil {
		return
	}
	chatID := cq.Message.Chat.ID
	meta := businessflow.NewClientMetadata(chatID, cq.From.Username)

	if score, ok := strings.CutPrefix(cq.Data, cbVotePrefix); ok {
		h.handleVote(ctx, chatID, score, meta)
		return
	}

	switch cq.Data {
	case cbMenuMain:
		h.reply(ctx, chatID, "Главное меню:",
			&services.MessageOptions{ReplyMarkup: mainMenuKeyboard(h.admins.IsAdmin(chatID))})
	case cbMenuMeeting:
		h.sendMeetingInfo(ctx, chatID)
	case cbMenuHistory:
		h.reply(ctx, chatID, businessflow.FormatHistory(h.historyFlow.History(ctx), 10), nil)
	case cbMenuSubscription:
		h.showSubscriptionMenu(ctx, chatID)
	case cbSubscribeOn:
		h.toggleSubscription(ctx, chatID, true)
	case cbSubscribeOff:
		h.toggleSubscription(ctx, chatID, false)
	default:
		h.handleAdminCallback(ctx, chatID, cq.Data, meta)
	}
}

func (h *BotHandler) handleAdminCallback(ctx context.Context, chatID int64, data string, meta *businessflow.ClientMetadata) {
	if !h.requireAdmin(ctx, chatID) {
		return
	}

	switch data {
	case cbAdminPanel:
		h.reply(ctx, chatID, "Панель администратора:",
			&services.MessageOptions{ReplyMarkup: adminPanelKeyboard()})
	case cbAdminOpenRating:
		status, err := h.votingFlow.OpenRating(ctx, meta)
		if err != nil {
			h.replyFlowError(ctx, chatID, err)
			return
		}
		h.reply(ctx, chatID,
			fmt.Sprintf("Голосование по фильму «%s» открыто. Выберите оценку:", status.Film),
			&services.MessageOptions{ReplyMarkup: scoreKeyboard()})
	case cbAdminFinish:
		_, err := h.votingFlow.FinishRating(ctx, meta)
		if err != nil {
			h.replyFlowError(ctx, chatID, err)
			return
		}
		h.reply(ctx, chatID, businessflow.FormatVotingStatus(h.votingFlow.Current(ctx)),
			&services.MessageOptions{ReplyMarkup: archiveRetryKeyboard()})
	case cbAdminClear:
		status, err := h.votingFlow.ClearVotes(ctx, meta)
		if err != nil {
			h.replyFlowError(ctx, chatID, err)
			return
		}
		h.reply(ctx, chatID, fmt.Sprintf("Оценки сброшены. Сейчас записано оценок: %d.", status.ScoreCount), nil)
	case cbAdminArchive:
		h.archiveRound(ctx, chatID, meta)
	case cbAdminAddMeeting:
		h.promptMeetingInput(ctx, chatID)
	case cbAdminNotify:
		h.promptBroadcast(ctx, chatID)
	case cbAdminExport:
		h.exportHistory(ctx, chatID)
	case cbAdminReload:
		if err := h.admins.Reload(); err != nil {
			h.reply(ctx, chatID, "Не удалось перечитать список администраторов: "+err.Error(), nil)
			return
		}
		h.reply(ctx, chatID, fmt.Sprintf("Список администраторов обновлен, сейчас в нем %d чат(ов).", h.admins.Count()), nil)
	case cbVKStage:
		h.stageVKPost(ctx, chatID)
	case cbVKConfirm:
		h.confirmVKPost(ctx, chatID)
	case cbVKEdit:
		h.promptPostEdit(ctx, chatID)
	case cbVKDiscard:
		if err := h.vkPostFlow.DiscardDraft(ctx, chatID); err != nil {
			h.replyFlowError(ctx, chatID, err)
			return
		}
		h.reply(ctx, chatID, "Черновик поста удален.", nil)
	}
}

func (h *BotHandler) handleVote(ctx context.Context, chatID int64, raw string, meta *businessflow.ClientMetadata) {
	if !h.requireAdmin(ctx, chatID) {
		return
	}
	score, err := strconv.Atoi(raw)
	if err != nil {
		h.reply(ctx, chatID, fmt.Sprintf("Оценка должна быть числом от %d до %d.", utils.MinScore, utils.MaxScore), nil)
		return
	}
	status, err := h.votingFlow.RecordScore(ctx, score, meta)
	if err != nil {
		h.replyFlowError(ctx, chatID, err)
		return
	}
	middleware.ObserveScore()
	text := fmt.Sprintf("Оценка %d записана. Всего оценок: %d.", score, status.ScoreCount)
	if status.Average != nil {
		text += fmt.Sprintf(" Средняя: %.1f.", *status.Average)
	}
	h.reply(ctx, chatID, text, &services.MessageOptions{ReplyMarkup: scoreKeyboard()})
}

// archiveRound runs the full archive protocol. On failure the mirrors may be
// ahead of the local state, so the exact error is surfaced together with a
// retry button; the operation is safe to repeat.
func (h *BotHandler) archiveRound(ctx context.Context, chatID int64, meta *businessflow.ClientMetadata) {
	entry, err := h.archiveFlow.ArchiveCurrent(ctx, meta)
	if err != nil {
		middleware.ObserveArchive("failure")
		h.reply(ctx, chatID, "Не удалось сохранить в историю: "+err.Error(),
			&services.MessageOptions{ReplyMarkup: archiveRetryKeyboard()})
		return
	}
	middleware.ObserveArchive("success")
	h.reply(ctx, chatID, fmt.Sprintf(
		"Фильм «%s» сохранен в историю.\nСредняя оценка: %.1f (голосов: %d).\nГолосование и анонс встречи сброшены.",
		entry.Film, entry.Average, entry.Participants), nil)
}

func (h *BotHandler) toggleSubscription(ctx context.Context, chatID int64, on bool) {
	var (
		changed bool
		err     error
	)
	if on {
		changed, err = h.subscriptionFlow.Subscribe(ctx, chatID)
	} else {
		changed, err = h.subscriptionFlow.Unsubscribe(ctx, chatID)
	}
	if err != nil {
		h.replyFlowError(ctx, chatID, err)
		return
	}

	var text string
	switch {
	case on && changed:
		text = "Вы подписались на еженедельные напоминания о встречах."
	case on:
		text = "Вы уже подписаны на напоминания."
	case changed:
		text = "Вы отписались от напоминаний."
	default:
		text = "Вы и не были подписаны на напоминания."
	}
	h.reply(ctx, chatID, text, &services.MessageOptions{ReplyMarkup: subscriptionKeyboard(on)})
}

func (h *BotHandler) promptMeetingInput(ctx context.Context, chatID int64) {
	if err := h.conversations.Set(ctx, models.ConversationState{
		ChatID: chatID,
		Kind:   models.ConversationAwaitingMeeting,
	}); err != nil {
		log.Println("Failed to store conversation state", err)
		h.reply(ctx, chatID, "Не удалось начать ввод анонса, попробуйте еще раз.", nil)
		return
	}
	h.reply(ctx, chatID,
		"Отправьте анонс встречи одной строкой из 11 полей через «|»:\n\n"+
			"дата|время|место|фильм|режиссер|жанр|страна|год|ссылка на постер|номер обсуждения|описание\n\n"+
			"Пример:\n05.09.2026|19:00|Библиотека №3|Сталкер|Андрей Тарковский|драма|СССР|1979|https://example.com/poster.jpg|42|Обсуждаем зону и желания.",
		nil)
}

func (h *BotHandler) stageVKPost(ctx context.Context, chatID int64) {
	draft, err := h.vkPostFlow.StageMeetingPost(ctx, chatID)
	if err != nil {
		h.replyFlowError(ctx, chatID, err)
		return
	}
	h.reply(ctx, chatID, "Черновик поста:\n\n"+draft.Message,
		&services.MessageOptions{ReplyMarkup: postConfirmKeyboard(), DisableLinkPreview: true})
}

func (h *BotHandler) confirmVKPost(ctx context.Context, chatID int64) {
	postID, err := h.vkPostFlow.ConfirmDraft(ctx, chatID)
	if err != nil {
		h.replyFlowError(ctx, chatID, err)
		return
	}
	h.reply(ctx, chatID, fmt.Sprintf("Пост опубликован, id записи: %d.", postID), nil)
}

func (h *BotHandler) promptPostEdit(ctx context.Context, chatID int64) {
	if _, err := h.vkPostFlow.CurrentDraft(ctx, chatID); err != nil {
		h.replyFlowError(ctx, chatID, err)
		return
	}
	if err := h.conversations.Set(ctx, models.ConversationState{
		ChatID: chatID,
		Kind:   models.ConversationAwaitingPostEdit,
	}); err != nil {
		log.Println("Failed to store conversation state", err)
		h.reply(ctx, chatID, "Не удалось начать редактирование, попробуйте еще раз.", nil)
		return
	}
	h.reply(ctx, chatID, "Отправьте новый текст поста одним сообщением.", nil)
}

// replyFlowError turns a business-flow error into a chat answer. Expected
// situations get a human message; anything else surfaces as-is.
func (h *BotHandler) replyFlowError(ctx context.Context, chatID int64, err error) {
	var text string
	switch {
	case businessflow.IsMeetingNotAnnounced(err):
		text = "Следующая встреча еще не анонсирована."
	case businessflow.IsRatingNotOpen(err):
		text = "Голосование не открыто."
	case businessflow.IsNoScoresRecorded(err):
		text = "Еще нет ни одной оценки."
	case businessflow.IsScoreOutOfRange(err):
		text = fmt.Sprintf("Оценка должна быть от %d до %d.", utils.MinScore, utils.MaxScore)
	case businessflow.IsArchiveNotReady(err):
		text = "Архивировать нечего: голосование не завершено."
	case businessflow.IsDraftNotFound(err):
		text = "Черновик поста не найден. Сначала подготовьте пост."
	default:
		log.Println("Flow operation failed", err)
		text = "Операция не выполнена: " + err.Error()
	}
	h.reply(ctx, chatID, text, nil)
}

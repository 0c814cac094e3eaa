package handlers

import (
	"fmt"

	"github.com/ulysses-club/odissea/app/dto"
	"github.com/ulysses-club/odissea/utils"
)

// Callback data identifiers. Kept short: the transport caps callback data
// at 64 bytes.
const (
	cbMenuMain         = "menu:main"
	cbMenuMeeting      = "menu:meeting"
	cbMenuHistory      = "menu:history"
	cbMenuSubscription = "menu:subscription"
	cbSubscribeOn      = "sub:on"
	cbSubscribeOff     = "sub:off"

	cbAdminPanel      = "admin:panel"
	cbAdminOpenRating = "admin:open_rating"
	cbAdminFinish     = "admin:finish"
	cbAdminClear      = "admin:clear"
	cbAdminArchive    = "admin:archive"
	cbAdminAddMeeting = "admin:add_meeting"
	cbAdminNotify     = "admin:notify"
	cbAdminExport     = "admin:export"
	cbAdminReload     = "admin:reload"

	cbVotePrefix = "vote:"

	cbVKStage   = "vk:stage"
	cbVKConfirm = "vk:confirm"
	cbVKEdit    = "vk:edit"
	cbVKDiscard = "vk:discard"
)

func row(buttons ...dto.InlineKeyboardButton) []dto.InlineKeyboardButton {
	return buttons
}

func btn(text, data string) dto.InlineKeyboardButton {
	return dto.InlineKeyboardButton{Text: text, CallbackData: data}
}

func mainMenuKeyboard(isAdmin bool) *dto.InlineKeyboardMarkup {
	rows := [][]dto.InlineKeyboardButton{
		row(btn("🎬 Следующая встреча", cbMenuMeeting)),
		row(btn("📚 История просмотров", cbMenuHistory)),
		row(btn("🔔 Подписка на напоминания", cbMenuSubscription)),
	}
	if isAdmin {
		rows = append(rows, row(btn("⚙️ Панель администратора", cbAdminPanel)))
	}
	return &dto.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func subscriptionKeyboard(subscribed bool) *dto.InlineKeyboardMarkup {
	var toggle dto.InlineKeyboardButton
	if subscribed {
		toggle = btn("🔕 Отписаться", cbSubscribeOff)
	} else {
		toggle = btn("🔔 Подписаться", cbSubscribeOn)
	}
	return &dto.InlineKeyboardMarkup{InlineKeyboard: [][]dto.InlineKeyboardButton{
		row(toggle),
		row(btn("⬅️ Назад", cbMenuMain)),
	}}
}

func adminPanelKeyboard() *dto.InlineKeyboardMarkup {
	return &dto.InlineKeyboardMarkup{InlineKeyboard: [][]dto.InlineKeyboardButton{
		row(btn("▶️ Открыть голосование", cbAdminOpenRating)),
		row(btn("🏁 Завершить голосование", cbAdminFinish), btn("🧹 Сбросить оценки", cbAdminClear)),
		row(btn("💾 Сохранить в историю", cbAdminArchive)),
		row(btn("📝 Добавить встречу", cbAdminAddMeeting), btn("📣 Рассылка", cbAdminNotify)),
		row(btn("📤 Пост в VK", cbVKStage), btn("📊 Экспорт истории", cbAdminExport)),
		row(btn("⬅️ Назад", cbMenuMain)),
	}}
}

func scoreKeyboard() *dto.InlineKeyboardMarkup {
	var top, bottom []dto.InlineKeyboardButton
	for score := utils.MinScore; score <= utils.MaxScore; score++ {
		b := btn(fmt.Sprintf("%d", score), fmt.Sprintf("%s%d", cbVotePrefix, score))
		if score <= 5 {
			top = append(top, b)
		} else {
			bottom = append(bottom, b)
		}
	}
	return &dto.InlineKeyboardMarkup{InlineKeyboard: [][]dto.InlineKeyboardButton{
		top,
		bottom,
		row(btn("🏁 Завершить", cbAdminFinish), btn("💾 В историю", cbAdminArchive)),
	}}
}

func archiveRetryKeyboard() *dto.InlineKeyboardMarkup {
	return &dto.InlineKeyboardMarkup{InlineKeyboard: [][]dto.InlineKeyboardButton{
		row(btn("🔁 Повторить сохранение", cbAdminArchive)),
	}}
}

func postConfirmKeyboard() *dto.InlineKeyboardMarkup {
	return &dto.InlineKeyboardMarkup{InlineKeyboard: [][]dto.InlineKeyboardButton{
		row(btn("✅ Опубликовать", cbVKConfirm)),
		row(btn("✏️ Изменить текст", cbVKEdit), btn("❌ Отменить", cbVKDiscard)),
	}}
}

package businessflow

import (
	"fmt"
	"strings"

	"github.com/ulysses-club/odissea/models"
)

// FormatMeeting renders the upcoming meeting for chat display
func FormatMeeting(m models.Meeting) string {
	var b strings.Builder
	b.WriteString("🎬 Следующая встреча киноклуба\n\n")
	fmt.Fprintf(&b, "Фильм: %s\n", m.Film)
	fmt.Fprintf(&b, "Режиссер: %s\n", m.Director)
	fmt.Fprintf(&b, "Жанр: %s\n", m.Genre)
	fmt.Fprintf(&b, "Страна: %s", m.Country)
	if m.Year > 0 {
		fmt.Fprintf(&b, ", %d", m.Year)
	}
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "📅 Дата: %s\n", m.Date)
	fmt.Fprintf(&b, "🕖 Время: %s\n", m.Time)
	fmt.Fprintf(&b, "📍 Место: %s\n", m.Place)
	if m.DiscussionNumber > 0 {
		fmt.Fprintf(&b, "№ обсуждения: %d\n", m.DiscussionNumber)
	}
	if m.Description != "" {
		fmt.Fprintf(&b, "\n%s\n", m.Description)
	}
	if m.Requirements != "" {
		fmt.Fprintf(&b, "\nЧто взять с собой: %s\n", m.Requirements)
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatMeetingPost renders the meeting as a social-network announcement
func FormatMeetingPost(m models.Meeting) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Киноклуб «Одиссея» приглашает на обсуждение №%d!\n\n", m.DiscussionNumber)
	fmt.Fprintf(&b, "🎬 %s (%s, %d)\n", m.Film, m.Country, m.Year)
	fmt.Fprintf(&b, "Режиссер: %s\n", m.Director)
	fmt.Fprintf(&b, "Жанр: %s\n\n", m.Genre)
	fmt.Fprintf(&b, "📅 %s в %s\n", m.Date, m.Time)
	fmt.Fprintf(&b, "📍 %s\n", m.Place)
	if m.Description != "" {
		fmt.Fprintf(&b, "\n%s\n", m.Description)
	}
	b.WriteString("\nВход свободный, присоединяйтесь!")
	return b.String()
}

// FormatVotingStatus renders the state of the rating round for admins
func FormatVotingStatus(v models.Voting) string {
	if !v.IsOpen() {
		return "Голосование не открыто."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Голосование: %s\n", *v.Film)
	fmt.Fprintf(&b, "Оценок: %d\n", len(v.Ratings))
	if v.Average != nil {
		fmt.Fprintf(&b, "Средняя оценка: %.1f", *v.Average)
	} else {
		b.WriteString("Средняя оценка: —")
	}
	return b.String()
}

// FormatHistoryEntry renders one archived film
func FormatHistoryEntry(e models.HistoryEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🎬 %s", e.Film)
	if e.Year > 0 {
		fmt.Fprintf(&b, " (%d)", e.Year)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Режиссер: %s\n", e.Director)
	fmt.Fprintf(&b, "Оценка клуба: %.1f (голосов: %d)\n", e.Average, e.Participants)
	fmt.Fprintf(&b, "Обсуждение №%d, %s", e.DiscussionNumber, e.Date)
	return b.String()
}

// FormatHistory renders the newest entries, most recent first
func FormatHistory(entries []models.HistoryEntry, limit int) string {
	if len(entries) == 0 {
		return "История пока пуста — ни одного фильма не заархивировано."
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		parts = append(parts, FormatHistoryEntry(e))
	}
	return "📚 История просмотров:\n\n" + strings.Join(parts, "\n\n")
}

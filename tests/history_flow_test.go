package tests

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	businessflow "github.com/ulysses-club/odissea/business_flow"
	"github.com/ulysses-club/odissea/models"
	"github.com/xuri/excelize/v2"
)

func seedHistory(t *testing.T, fx *flowFixture) []models.HistoryEntry {
	t.Helper()
	entries := []models.HistoryEntry{
		{Film: "Солярис", Director: "Андрей Тарковский", Year: 1972, Average: 8.5, Participants: 6, Date: "10.07.2026", DiscussionNumber: 40},
		{Film: "Зеркало", Director: "Андрей Тарковский", Year: 1975, Average: 9.0, Participants: 5, Date: "24.07.2026", DiscussionNumber: 41},
	}
	for _, e := range entries {
		fx.historyRepo.Append(context.Background(), e)
	}
	return entries
}

func TestHistoryNewestFirst(t *testing.T) {
	fx := newFlowFixture(t)
	seeded := seedHistory(t, fx)
	flow := businessflow.NewHistoryFlow(fx.historyRepo)

	got := flow.History(context.Background())
	require.Len(t, got, 2)
	assert.Equal(t, seeded[1], got[0])
	assert.Equal(t, seeded[0], got[1])

	// The stored order is untouched
	assert.Equal(t, seeded, fx.historyRepo.All(context.Background()))
}

func TestExportXLSX(t *testing.T) {
	fx := newFlowFixture(t)
	seeded := seedHistory(t, fx)
	flow := businessflow.NewHistoryFlow(fx.historyRepo)

	data, err := flow.ExportXLSX(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, data)

	wb, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer wb.Close()

	rows, err := wb.GetRows("История")
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "Фильм", rows[0][0])
	assert.Equal(t, "Участников", rows[0][10])
	assert.Equal(t, seeded[0].Film, rows[1][0])
	assert.Equal(t, seeded[1].Film, rows[2][0])
}

func TestFormatHistory(t *testing.T) {
	t.Run("EmptyHistory", func(t *testing.T) {
		assert.Contains(t, businessflow.FormatHistory(nil, 10), "пуста")
	})

	t.Run("AppliesLimit", func(t *testing.T) {
		entries := []models.HistoryEntry{
			{Film: "Солярис", Average: 8.5},
			{Film: "Зеркало", Average: 9.0},
		}
		text := businessflow.FormatHistory(entries, 1)
		assert.Contains(t, text, "Солярис")
		assert.NotContains(t, text, "Зеркало")
	})
}

package businessflow

import (
	"bytes"
	"context"
	"fmt"

	"github.com/ulysses-club/odissea/models"
	"github.com/ulysses-club/odissea/repository"
	"github.com/xuri/excelize/v2"
)

// HistoryFlow exposes the archived film history for display and export
type HistoryFlow interface {
	History(ctx context.Context) []models.HistoryEntry
	ExportXLSX(ctx context.Context) ([]byte, error)
}

type HistoryFlowImpl struct {
	historyRepo repository.HistoryRepository
}

func NewHistoryFlow(historyRepo repository.HistoryRepository) HistoryFlow {
	return &HistoryFlowImpl{historyRepo: historyRepo}
}

// History returns the archive newest first
func (f *HistoryFlowImpl) History(ctx context.Context) []models.HistoryEntry {
	entries := f.historyRepo.All(ctx)
	out := make([]models.HistoryEntry, len(entries))
	for i, e := range entries {
		out[len(entries)-1-i] = e
	}
	return out
}

var xlsxHeader = []string{
	"Фильм", "Режиссер", "Жанр", "Страна", "Год",
	"Оценка", "Номер обсуждения", "Дата", "Постер URL", "Описание", "Участников",
}

// ExportXLSX renders the full history as a spreadsheet workbook, oldest
// first, one row per archived film
func (f *HistoryFlowImpl) ExportXLSX(ctx context.Context) ([]byte, error) {
	wb := excelize.NewFile()
	defer wb.Close()

	const sheet = "История"
	if err := wb.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}

	for col, title := range xlsxHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := wb.SetCellValue(sheet, cell, title); err != nil {
			return nil, err
		}
	}

	for row, e := range f.historyRepo.All(ctx) {
		values := []any{
			e.Film, e.Director, e.Genre, e.Country, e.Year,
			e.Average, e.DiscussionNumber, e.Date, e.Poster, e.Description, e.Participants,
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return nil, err
			}
			if err := wb.SetCellValue(sheet, cell, v); err != nil {
				return nil, err
			}
		}
	}

	var buf bytes.Buffer
	if err := wb.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

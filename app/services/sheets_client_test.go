package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulysses-club/odissea/config"
	"github.com/ulysses-club/odissea/models"
)

type sheetCall struct {
	method  string
	path    string
	payload sheetValuesPayload
}

func newTestSheetsClient(baseURL string) *SheetsClient {
	return NewSheetsClient(config.SheetsConfig{
		APIBaseURL:    baseURL,
		AccessToken:   "test-token",
		SpreadsheetID: "sheet-id",
		SheetName:     "Films",
		Timeout:       time.Second,
	})
}

func TestAppendHistoryEntryWritesHeaderOnBlankSheet(t *testing.T) {
	var calls []sheetCall
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		call := sheetCall{method: r.Method, path: r.URL.Path}
		if r.Method != http.MethodGet {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&call.payload))
		}
		calls = append(calls, call)
		// Blank sheet: the header probe returns no values
		_ = json.NewEncoder(w).Encode(sheetValuesPayload{})
	}))
	defer server.Close()

	client := newTestSheetsClient(server.URL)
	entry := models.HistoryEntry{
		Film: "Сталкер", Director: "Андрей Тарковский", Year: 1979,
		Average: 8.25, Participants: 4, Date: "05.09.2026", DiscussionNumber: 42,
	}
	require.NoError(t, client.AppendHistoryEntry(context.Background(), entry))

	// probe, header write, then append
	require.Len(t, calls, 3)
	assert.Equal(t, http.MethodGet, calls[0].method)
	assert.Equal(t, http.MethodPut, calls[1].method)
	assert.Equal(t, http.MethodPost, calls[2].method)

	require.Len(t, calls[1].payload.Values, 1)
	assert.Equal(t, "Фильм", calls[1].payload.Values[0][0])
	assert.Len(t, calls[1].payload.Values[0], 11)

	require.Len(t, calls[2].payload.Values, 1)
	row := calls[2].payload.Values[0]
	require.Len(t, row, 11)
	assert.Equal(t, "Сталкер", row[0])
	// Averages are written with one decimal
	assert.Equal(t, "8.2", row[5])
}

func TestAppendHistoryEntrySkipsExistingHeader(t *testing.T) {
	var methods []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		methods = append(methods, r.Method)
		if r.Method == http.MethodGet {
			_ = json.NewEncoder(w).Encode(sheetValuesPayload{Values: [][]any{{"Фильм"}}})
			return
		}
		_ = json.NewEncoder(w).Encode(sheetValuesPayload{})
	}))
	defer server.Close()

	client := newTestSheetsClient(server.URL)
	require.NoError(t, client.AppendHistoryEntry(context.Background(), models.HistoryEntry{Film: "Зеркало"}))
	assert.Equal(t, []string{http.MethodGet, http.MethodPost}, methods)
}

func TestAppendHistoryEntryWrapsFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"status":"PERMISSION_DENIED"}}`, http.StatusForbidden)
	}))
	defer server.Close()

	client := newTestSheetsClient(server.URL)
	err := client.AppendHistoryEntry(context.Background(), models.HistoryEntry{Film: "Зеркало"})
	require.Error(t, err)

	var mirrorErr *MirrorError
	require.ErrorAs(t, err, &mirrorErr)
	assert.Equal(t, "spreadsheet", mirrorErr.Target)
	assert.Contains(t, err.Error(), "403")
}

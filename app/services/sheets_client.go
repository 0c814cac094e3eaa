package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ulysses-club/odissea/config"
	"github.com/ulysses-club/odissea/models"
)

// sheetHeaderRow is the fixed 11-column header of the films sheet
var sheetHeaderRow = []any{
	"Фильм", "Режиссер", "Жанр", "Страна", "Год",
	"Оценка", "Номер обсуждения", "Дата", "Постер URL", "Описание", "Участников",
}

// SheetsClient appends archived entries to a spreadsheet. The header row is
// probed and created lazily so a freshly created sheet works without manual
// preparation.
type SheetsClient struct {
	BaseURL       string
	AccessToken   string
	SpreadsheetID string
	SheetName     string
	HTTPClient    *http.Client
	Timeout       time.Duration
}

// NewSheetsClient creates a spreadsheet client from configuration
func NewSheetsClient(cfg config.SheetsConfig) *SheetsClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &SheetsClient{
		BaseURL:       strings.TrimRight(cfg.APIBaseURL, "/"),
		AccessToken:   cfg.AccessToken,
		SpreadsheetID: cfg.SpreadsheetID,
		SheetName:     cfg.SheetName,
		HTTPClient:    &http.Client{Timeout: timeout},
		Timeout:       timeout,
	}
}

type sheetValuesPayload struct {
	Values [][]any `json:"values"`
}

// AppendHistoryEntry writes one archived film as a spreadsheet row,
// creating the header row first when the sheet is still blank
func (c *SheetsClient) AppendHistoryEntry(ctx context.Context, e models.HistoryEntry) error {
	if err := c.ensureHeader(ctx); err != nil {
		return &MirrorError{Target: "spreadsheet", Attempts: 1, Err: err}
	}

	row := []any{
		e.Film, e.Director, e.Genre, e.Country, e.Year,
		formatAverage(e.Average), e.DiscussionNumber, e.Date, e.Poster, e.Description, e.Participants,
	}
	appendURL := fmt.Sprintf("%s/spreadsheets/%s/values/%s:append?valueInputOption=USER_ENTERED",
		c.BaseURL, c.SpreadsheetID, url.PathEscape(c.SheetName+"!A2:K"))
	if err := c.send(ctx, http.MethodPost, appendURL, sheetValuesPayload{Values: [][]any{row}}, nil); err != nil {
		return &MirrorError{Target: "spreadsheet", Attempts: 1, Err: err}
	}
	return nil
}

// ensureHeader probes A1:K1 and writes the header row when it is missing
func (c *SheetsClient) ensureHeader(ctx context.Context) error {
	rangeRef := url.PathEscape(c.SheetName + "!A1:K1")
	getURL := fmt.Sprintf("%s/spreadsheets/%s/values/%s", c.BaseURL, c.SpreadsheetID, rangeRef)

	var current sheetValuesPayload
	if err := c.send(ctx, http.MethodGet, getURL, nil, &current); err != nil {
		return err
	}
	if len(current.Values) > 0 && len(current.Values[0]) > 0 {
		return nil
	}

	putURL := getURL + "?valueInputOption=RAW"
	return c.send(ctx, http.MethodPut, putURL, sheetValuesPayload{Values: [][]any{sheetHeaderRow}}, nil)
}

func (c *SheetsClient) send(ctx context.Context, method, rawURL string, payload, out any) error {
	var body *bytes.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal sheet request: %w", err)
		}
		body = bytes.NewReader(b)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return fmt.Errorf("failed to create sheet request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.AccessToken)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call sheet API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return httpStatusError(method, rawURL, resp)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode sheet response: %w", err)
		}
	}
	return nil
}

func formatAverage(avg float64) string {
	return strconv.FormatFloat(avg, 'f', 1, 64)
}

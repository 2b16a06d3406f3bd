package record

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"certverify/internal/logger"
	"certverify/pkg/models"
)

// SheetsSink appends records to a Google Sheets worksheet, one row per
// record in the fixed field order. The worksheet is expected to exist; its
// header row is written on first append when the sheet is empty.
type SheetsSink struct {
	service       *sheets.Service
	spreadsheetID string
	worksheet     string
	mu            sync.Mutex
	log           zerolog.Logger
}

// NewSheetsSink creates a sink for the spreadsheet referenced by URL.
// Credentials come from GOOGLE_APPLICATION_CREDENTIALS or
// GOOGLE_CREDENTIALS.
func NewSheetsSink(ctx context.Context, sheetURL, worksheet string) (*SheetsSink, error) {
	const op = "NewSheetsSink"

	log := logger.WithComponent("record-sheets")

	spreadsheetID, err := extractSpreadsheetID(sheetURL)
	if err != nil {
		return nil, fmt.Errorf("record: %s failed: %w", op, err)
	}

	var creds []byte
	if credsFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credsFile != "" {
		creds, err = os.ReadFile(credsFile)
		if err != nil {
			return nil, fmt.Errorf("record: %s failed: read credentials file: %w", op, err)
		}
	} else if credsJSON := os.Getenv("GOOGLE_CREDENTIALS"); credsJSON != "" {
		creds = []byte(credsJSON)
	} else {
		return nil, fmt.Errorf("record: %s failed: neither GOOGLE_APPLICATION_CREDENTIALS nor GOOGLE_CREDENTIALS is set", op)
	}

	config, err := google.JWTConfigFromJSON(creds, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("record: %s failed: parse credentials: %w", op, err)
	}

	service, err := sheets.NewService(ctx, option.WithHTTPClient(config.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("record: %s failed: create sheets service: %w", op, err)
	}

	log.Debug().
		Str("spreadsheet_id", spreadsheetID).
		Str("worksheet", worksheet).
		Msg("Sheets sink ready")

	return &SheetsSink{
		service:       service,
		spreadsheetID: spreadsheetID,
		worksheet:     worksheet,
		log:           log,
	}, nil
}

// Append adds one record row to the worksheet.
func (s *SheetsSink) Append(ctx context.Context, record models.Record) error {
	const op = "Append"

	s.mu.Lock()
	defer s.mu.Unlock()

	rows := [][]interface{}{toInterfaceRow(record.Row())}

	if empty, err := s.worksheetEmpty(ctx); err == nil && empty {
		rows = append([][]interface{}{toInterfaceRow(models.FieldNames())}, rows...)
	}

	_, err := s.service.Spreadsheets.Values.Append(
		s.spreadsheetID,
		s.worksheet+"!A:F",
		&sheets.ValueRange{Values: rows},
	).ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("record: %s failed: append to %s: %w", op, s.worksheet, err)
	}

	s.log.Debug().
		Str("worksheet", s.worksheet).
		Msg("Record appended to sheet")

	return nil
}

func (s *SheetsSink) worksheetEmpty(ctx context.Context) (bool, error) {
	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, s.worksheet+"!A1:A1").Context(ctx).Do()
	if err != nil {
		return false, err
	}
	return len(resp.Values) == 0, nil
}

func toInterfaceRow(values []string) []interface{} {
	row := make([]interface{}, len(values))
	for i, v := range values {
		row[i] = v
	}
	return row
}

// spreadsheetIDPattern matches the document ID inside a Sheets URL.
var spreadsheetIDPattern = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9-_]+)`)

func extractSpreadsheetID(sheetURL string) (string, error) {
	if m := spreadsheetIDPattern.FindStringSubmatch(sheetURL); m != nil {
		return m[1], nil
	}
	return "", fmt.Errorf("could not extract spreadsheet ID from URL %q", sheetURL)
}

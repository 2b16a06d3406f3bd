package record

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog"

	"certverify/internal/logger"
	"certverify/pkg/models"
)

// CSVSink appends records to a CSV file. The header row is written only
// when the file does not already exist. Appends are serialized with a
// mutex; the file itself is opened per append so external rotation works.
type CSVSink struct {
	path string
	mu   sync.Mutex
	log  zerolog.Logger
}

// NewCSVSink creates a sink writing to the given path. The file is created
// lazily on first append.
func NewCSVSink(path string) *CSVSink {
	return &CSVSink{
		path: path,
		log:  logger.WithComponent("record-csv"),
	}
}

// Append writes one record row, creating the file with a header row first
// when needed.
func (s *CSVSink) Append(ctx context.Context, record models.Record) error {
	const op = "Append"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("record: %s failed: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, statErr := os.Stat(s.path)
	writeHeader := os.IsNotExist(statErr)

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("record: %s failed: open %s: %w", op, s.path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if writeHeader {
		if err := w.Write(models.FieldNames()); err != nil {
			return fmt.Errorf("record: %s failed: write header: %w", op, err)
		}
	}
	if err := w.Write(record.Row()); err != nil {
		return fmt.Errorf("record: %s failed: write row: %w", op, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("record: %s failed: flush: %w", op, err)
	}

	s.log.Debug().
		Str("path", s.path).
		Bool("header_written", writeHeader).
		Msg("Record appended to CSV log")

	return nil
}

// ReadAll reads the full log back, skipping the header row. A missing file
// yields an empty slice.
func (s *CSVSink) ReadAll(ctx context.Context) ([]models.Record, error) {
	const op = "ReadAll"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("record: %s failed: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []models.Record{}, nil
		}
		return nil, fmt.Errorf("record: %s failed: open %s: %w", op, s.path, err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("record: %s failed: parse %s: %w", op, s.path, err)
	}

	records := make([]models.Record, 0, len(rows))
	for i, row := range rows {
		if i == 0 {
			continue // header
		}
		if len(row) < 6 {
			s.log.Warn().
				Int("row", i+1).
				Int("columns", len(row)).
				Msg("Skipping record row with insufficient columns")
			continue
		}
		records = append(records, models.Record{
			UniversityName: row[0],
			HolderName:     row[1],
			Course:         row[2],
			Grade:          row[3],
			RollNo:         row[4],
			CertificateID:  row[5],
		})
	}
	return records, nil
}

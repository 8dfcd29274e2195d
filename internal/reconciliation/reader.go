package reconciliation

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"billing/internal/logger"
	"billing/pkg/models"
)

// ReadStatement decodes a Windows-1252 encoded, semicolon separated bank export
// and parses it with p.
func ReadStatement(r io.Reader, p Parser) ([]models.PaymentEntry, error) {
	const op = "ReadStatement"

	reader := csv.NewReader(transform.NewReader(r, charmap.Windows1252.NewDecoder()))
	reader.Comma = ';'
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read statement: %w", op, err)
	}

	entries, err := p.ParseStatement(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return entries, nil
}

// RangeReader reads a cell range from a spreadsheet.
type RangeReader interface {
	ReadRange(ctx context.Context, readRange string) ([][]interface{}, error)
}

// SheetReader reads a statement that was pasted into a Google Sheet
type SheetReader struct {
	sheets RangeReader
	parser Parser
	log    zerolog.Logger
}

// NewSheetReader creates a reader over sheets.
func NewSheetReader(sheets RangeReader, parser Parser) *SheetReader {
	return &SheetReader{
		sheets: sheets,
		parser: parser,
		log:    logger.WithComponent("reconciliation-reader"),
	}
}

// ReadStatement reads readRange (e.g. "Bank!A:H") and parses it as a statement.
func (sr *SheetReader) ReadStatement(ctx context.Context, readRange string) ([]models.PaymentEntry, error) {
	const op = "SheetReader.ReadStatement"

	sr.log.Info().Str("range", readRange).Msg("Reading bank statement")

	values, err := sr.sheets.ReadRange(ctx, readRange)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read %s: %w", op, readRange, err)
	}

	rows := make([][]string, len(values))
	for i, row := range values {
		rows[i] = make([]string, len(row))
		for j := range row {
			rows[i][j] = getString(row, j)
		}
	}

	entries, err := sr.parser.ParseStatement(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	sr.log.Info().
		Int("total_rows", len(values)).
		Int("parsed_entries", len(entries)).
		Str("range", readRange).
		Msg("Bank statement read successfully")

	return entries, nil
}

// getString safely extracts a string value from a row slice
func getString(row []interface{}, index int) string {
	if index >= len(row) || row[index] == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprintf("%v", row[index]))
}

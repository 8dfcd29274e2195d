package reconciliation

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"billing/pkg/models"
)

// Statement columns of the Postbank export
const (
	colBookingDate = 0
	colDetails     = 3
	colSender      = 4
	colReceiver    = 5
	colAmount      = 6
)

var dateLayouts = []string{
	"02.01.2006", // DD.MM.YYYY
	"2.1.2006",   // D.M.YYYY
	"02.01.06",   // DD.MM.YY
	"2006-01-02", // ISO format (fallback)
}

var subjectNoise = []string{"Referenz NOTPROVIDED", "Verwendungszweck"}

var amountNoise = strings.NewReplacer(
	"€", "",
	"\x80", "",
	"EUR", "",
	" ", "",
	" ", "",
	".", "",
)

// Parser turns statement rows into payment entries.
type Parser struct {
	Header     []string // Expected header row, compared verbatim
	Places     int32    // Amounts are rounded to this many decimal places
	DateLayout string   // Layout of the booking date, empty tries common German layouts
}

// CheckHeader compares row against the expected header.
func (p Parser) CheckHeader(row []string) error {
	for i, want := range p.Header {
		if i >= len(row) {
			return &HeaderMismatchError{Column: i, Expected: want}
		}
		if row[i] != want {
			return &HeaderMismatchError{Column: i, Expected: want, Got: row[i]}
		}
	}
	if len(row) > len(p.Header) {
		return &HeaderMismatchError{Column: len(p.Header), Got: row[len(p.Header)]}
	}
	return nil
}

// ParseStatement checks the header row and parses every following row. Any
// failure yields no entries at all.
func (p Parser) ParseStatement(rows [][]string) ([]models.PaymentEntry, error) {
	if len(rows) == 0 {
		return nil, ErrEmptyStatement
	}
	if err := p.CheckHeader(rows[0]); err != nil {
		return nil, err
	}

	entries := make([]models.PaymentEntry, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if blank(row) {
			continue
		}
		entry, err := p.ParseRow(row)
		if err != nil {
			var rowErr *RowError
			if errors.As(err, &rowErr) {
				rowErr.Row = i + 2
			}
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// ParseRow parses one data row.
func (p Parser) ParseRow(row []string) (models.PaymentEntry, error) {
	if len(row) <= colAmount {
		return models.PaymentEntry{}, &RowError{
			Field: "row",
			Value: strings.Join(row, ";"),
			Err:   fmt.Errorf("expected at least %d columns, got %d", colAmount+1, len(row)),
		}
	}

	date, err := p.parseDate(row[colBookingDate])
	if err != nil {
		return models.PaymentEntry{}, &RowError{Field: "date", Value: row[colBookingDate], Err: err}
	}

	amount, err := ParseAmount(row[colAmount], p.Places)
	if err != nil {
		return models.PaymentEntry{}, &RowError{Field: "amount", Value: row[colAmount], Err: err}
	}

	return models.PaymentEntry{
		Date:     date,
		Subject:  SanitizeSubject(row[colDetails]),
		Amount:   amount,
		Sender:   strings.TrimSpace(row[colSender]),
		Receiver: strings.TrimSpace(row[colReceiver]),
	}, nil
}

// ParseAmount parses a German formatted amount ("-1.234,56 €") and rounds it to
// places decimal places.
func ParseAmount(value string, places int32) (decimal.Decimal, error) {
	cleaned := amountNoise.Replace(strings.TrimSpace(value))
	cleaned = strings.ReplaceAll(cleaned, ",", ".")

	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Decimal{}, &AmountError{Value: value, Err: err}
	}
	return amount.Round(places), nil
}

// SanitizeSubject strips bank boilerplate from a booking text.
func SanitizeSubject(subject string) string {
	for _, noise := range subjectNoise {
		subject = strings.ReplaceAll(subject, noise, "")
	}
	return strings.Join(strings.Fields(subject), " ")
}

func (p Parser) parseDate(value string) (time.Time, error) {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return time.Time{}, fmt.Errorf("empty date string")
	}

	layouts := dateLayouts
	if p.DateLayout != "" {
		layouts = []string{p.DateLayout}
	}
	for _, layout := range layouts {
		if date, err := time.Parse(layout, cleaned); err == nil {
			return date, nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse date: %s", value)
}

func blank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

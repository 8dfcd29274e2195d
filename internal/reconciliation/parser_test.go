package reconciliation

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billing/internal/config"
)

func testParser() Parser {
	return Parser{Header: config.DefaultStatementHeader, Places: 2}
}

func header() []string {
	return append([]string(nil), config.DefaultStatementHeader...)
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		value string
		want  string
	}{
		{"60,21", "60.21"},
		{"1.234,56 €", "1234.56"},
		{"-12,30", "-12.30"},
		{"48,45\x80", "48.45"},
		{"100 EUR", "100.00"},
		{"1 000,00", "1000.00"},
		{"0,005", "0.01"},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			got, err := ParseAmount(tt.value, 2)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.StringFixed(2))
		})
	}
}

func TestParseAmountInvalid(t *testing.T) {
	for _, value := range []string{"", "abc", "12,3x"} {
		_, err := ParseAmount(value, 2)
		var amountErr *AmountError
		assert.True(t, errors.As(err, &amountErr), "value %q", value)
	}
}

func TestSanitizeSubject(t *testing.T) {
	assert.Equal(t, "Rechnung 1000.2019.10", SanitizeSubject("Verwendungszweck  Rechnung 1000.2019.10 Referenz NOTPROVIDED "))
	assert.Equal(t, "", SanitizeSubject("   "))
}

func TestCheckHeader(t *testing.T) {
	p := testParser()
	require.NoError(t, p.CheckHeader(header()))

	for column := range config.DefaultStatementHeader {
		row := header()
		row[column] = "Anders"

		err := p.CheckHeader(row)
		var mismatch *HeaderMismatchError
		require.True(t, errors.As(err, &mismatch))
		assert.Equal(t, column, mismatch.Column)
		assert.Equal(t, "Anders", mismatch.Got)
		assert.ErrorIs(t, err, ErrHeaderMismatch)
	}

	err := p.CheckHeader(header()[:5])
	assert.ErrorIs(t, err, ErrHeaderMismatch)

	err = p.CheckHeader(append(header(), "Extra"))
	assert.ErrorIs(t, err, ErrHeaderMismatch)
}

func TestParseStatement(t *testing.T) {
	rows := [][]string{
		header(),
		{"01.11.2019", "01.11.2019", "Gutschrift", "Verwendungszweck Rechnung 1000.2019.10", "Beispiel AG", "Beispiel Hosting", "60,21", "1.060,21"},
		{"", "", "", "", "", "", "", ""},
		{"05.11.2019", "05.11.2019", "Lastschrift", "Strom", "Beispiel Hosting", "Stadtwerke", "-1.234,56", "-174,35"},
	}

	entries, err := testParser().ParseStatement(rows)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, time.Date(2019, time.November, 1, 0, 0, 0, 0, time.UTC), entries[0].Date)
	assert.Equal(t, "Rechnung 1000.2019.10", entries[0].Subject)
	assert.Equal(t, "60.21", entries[0].Amount.StringFixed(2))
	assert.Equal(t, "Beispiel AG", entries[0].Sender)
	assert.Equal(t, "Beispiel Hosting", entries[0].Receiver)
	assert.Empty(t, entries[0].CID)

	assert.Equal(t, "-1234.56", entries[1].Amount.StringFixed(2))
	assert.False(t, IsIncoming(entries[1]))
}

func TestParseStatementRejectsWholeStatement(t *testing.T) {
	p := testParser()

	_, err := p.ParseStatement(nil)
	assert.ErrorIs(t, err, ErrEmptyStatement)

	bad := header()
	bad[6] = "Betrag"
	entries, err := p.ParseStatement([][]string{bad, {"01.11.2019", "", "", "x", "a", "b", "1,00", ""}})
	assert.ErrorIs(t, err, ErrHeaderMismatch)
	assert.Nil(t, entries)

	entries, err = p.ParseStatement([][]string{
		header(),
		{"01.11.2019", "", "", "x", "a", "b", "1,00", ""},
		{"02.11.2019", "", "", "y", "a", "b", "zwei", ""},
	})
	assert.Nil(t, entries)
	var rowErr *RowError
	require.True(t, errors.As(err, &rowErr))
	assert.Equal(t, 3, rowErr.Row)
	assert.Equal(t, "amount", rowErr.Field)

	_, err = p.ParseStatement([][]string{header(), {"31.02.2019", "", "", "x", "a", "b", "1,00", ""}})
	require.True(t, errors.As(err, &rowErr))
	assert.Equal(t, "date", rowErr.Field)

	_, err = p.ParseStatement([][]string{header(), {"01.11.2019", "x"}})
	require.True(t, errors.As(err, &rowErr))
	assert.Equal(t, "row", rowErr.Field)
}

func TestParseDateLayout(t *testing.T) {
	p := testParser()
	p.DateLayout = "2006-01-02"

	entry, err := p.ParseRow([]string{"2019-11-01", "", "", "x", "a", "b", "1,00"})
	require.NoError(t, err)
	assert.Equal(t, 2019, entry.Date.Year())

	_, err = p.ParseRow([]string{"01.11.2019", "", "", "x", "a", "b", "1,00"})
	assert.Error(t, err)
}

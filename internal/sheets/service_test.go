package sheets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractSpreadsheetID(t *testing.T) {
	id, err := extractSpreadsheetID("https://docs.google.com/spreadsheets/d/1AbC-d_9xyz/edit#gid=0")
	require.NoError(t, err)
	assert.Equal(t, "1AbC-d_9xyz", id)

	_, err = extractSpreadsheetID("https://example.com/sheet")
	assert.Error(t, err)
}

func TestTableRange(t *testing.T) {
	tests := []struct {
		columns int
		want    string
	}{
		{1, "Salden!A:A"},
		{6, "Salden!A:F"},
		{28, "Salden!A:AB"},
	}
	for _, tt := range tests {
		got, err := tableRange("Salden", tt.columns)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := tableRange("Salden", 0)
	assert.Error(t, err)
}

func TestNewSheetsServiceRequiresCredentials(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	t.Setenv("GOOGLE_CREDENTIALS", "")

	_, err := NewSheetsService(t.Context(), "https://docs.google.com/spreadsheets/d/abc/edit")
	assert.ErrorContains(t, err, "GOOGLE_CREDENTIALS")
}

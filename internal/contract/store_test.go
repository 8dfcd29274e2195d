package contract

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billing/pkg/models"
)

const contract1000 = `cid: "1000"
name: Max Mustermann
company: Beispiel AG
email: max@example.com
start: 2019-06-01
address:
  - Beispiel AG
  - Hauptstr. 1
  - 12345 Berlin
items:
  - description: Webhosting
    price: 50.21
    quantity: 1
  - description: Domain
    price: 5.00
    quantity: 2
`

const contract1001 = `cid: "1001"
name: Mike Murks
company: Murks GmbH
email: mike@example.com
start: 2030-06-01
items:
  - description: Webhosting
    price: 13.37
`

const contract1002 = `cid: "1002"
name: Erika Musterfrau
email: erika@example.com
start: 2019-01-01
end: 2019-11-30
items:
  - description: Server
    price: 39.95
  - description: Backup
    price: 8.50
    initial: 25
`

func writeContracts(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func fixtureStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(writeContracts(t, map[string]string{
		"1000.yaml": contract1000,
		"1001.yaml": contract1001,
		"1002.yaml": contract1002,
	}))
}

func TestListSortedAndNormalized(t *testing.T) {
	store := fixtureStore(t)

	contracts, err := store.List(Filter{})
	require.NoError(t, err)
	require.Len(t, contracts, 3)

	assert.Equal(t, []string{"1000", "1001", "1002"}, []string{contracts[0].ID, contracts[1].ID, contracts[2].ID})
	assert.True(t, contracts[1].Items[0].Quantity.Equal(decimal.NewFromInt(1)), "quantity defaults to 1")
	assert.Equal(t, "60.21", contracts[0].MonthlyTotal().StringFixed(2))
	assert.Equal(t, "Murks GmbH, Mike Murks", contracts[1].DisplayName())
	assert.Equal(t, time.Date(2019, 6, 1, 0, 0, 0, 0, time.UTC), contracts[0].Start)
}

func TestListActiveAt(t *testing.T) {
	store := fixtureStore(t)

	tests := []struct {
		name string
		at   time.Time
		want []string
	}{
		{"before start of 1001", time.Date(2019, 10, 1, 0, 0, 0, 0, time.UTC), []string{"1000", "1002"}},
		{"after end of 1002", time.Date(2019, 12, 1, 0, 0, 0, 0, time.UTC), []string{"1000"}},
		{"before everything", time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC), []string{}},
		{"all running", time.Date(2031, 1, 1, 0, 0, 0, 0, time.UTC), []string{"1000", "1001"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			at := tt.at
			contracts, err := store.List(Filter{ActiveAt: &at})
			require.NoError(t, err)

			ids := make([]string, 0, len(contracts))
			for _, c := range contracts {
				ids = append(ids, c.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestListIDOnly(t *testing.T) {
	store := fixtureStore(t)

	contracts, err := store.List(Filter{IDOnly: "1002"})
	require.NoError(t, err)
	require.Len(t, contracts, 1)
	assert.Equal(t, "1002", contracts[0].ID)
}

func TestScanSkipsInvalid(t *testing.T) {
	store := NewStore(writeContracts(t, map[string]string{
		"1000.yaml": contract1000,
		"1002.yaml": contract1002,
		"2000.yaml": "cid: \"2000\"\nitems: [\n",
		"2001.yaml": "cid: \"2001\"\nstart: 2019-01-01\nitems: []\n",
	}))

	contracts, invalid, err := store.Scan(Filter{})
	require.NoError(t, err)
	require.Len(t, contracts, 2)
	require.Len(t, invalid, 2)
	assert.Equal(t, "2000", invalid[0].ID)
	assert.Equal(t, "2001", invalid[1].ID)

	var fieldErr *models.FieldError
	assert.ErrorAs(t, invalid[1], &fieldErr)

	listed, err := store.List(Filter{})
	require.NoError(t, err)
	assert.Len(t, listed, 2)

	_, _, err = store.Scan(Filter{IDOnly: "2001"})
	assert.ErrorAs(t, err, &fieldErr)
}

func TestGet(t *testing.T) {
	store := fixtureStore(t)

	c, err := store.Get("1000")
	require.NoError(t, err)
	assert.Equal(t, "max@example.com", c.Email)
	assert.Len(t, c.Address, 3)

	_, err = store.Get("4711")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.Get("../1000")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.Get("100*")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInvalidContract(t *testing.T) {
	tests := []struct {
		name  string
		file  string
		field string
	}{
		{"no items", "cid: \"2000\"\nstart: 2019-01-01\nitems: []\n", "items"},
		{"no start", "cid: \"2000\"\nitems:\n  - description: A\n    price: 1\n", "start"},
		{"negative price", "cid: \"2000\"\nstart: 2019-01-01\nitems:\n  - description: A\n    price: -1\n", "items[0].price"},
		{"end before start", "cid: \"2000\"\nstart: 2019-02-01\nend: 2019-01-01\nitems:\n  - description: A\n    price: 1\n", "end"},
		{"pattern in id", "cid: \"2*\"\nstart: 2019-01-01\nitems:\n  - description: A\n    price: 1\n", "cid"},
		{"id mismatch", "cid: \"2001\"\nstart: 2019-01-01\nitems:\n  - description: A\n    price: 1\n", "cid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewStore(writeContracts(t, map[string]string{"2000.yaml": tt.file}))

			_, err := store.Get("2000")
			require.Error(t, err)

			var fieldErr *models.FieldError
			require.ErrorAs(t, err, &fieldErr)
			assert.Equal(t, tt.field, fieldErr.Field)
		})
	}
}

func TestSummarize(t *testing.T) {
	store := fixtureStore(t)
	contracts, err := store.List(Filter{})
	require.NoError(t, err)

	stats := Summarize(contracts, time.Date(2019, 10, 15, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, 2, stats.Active)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, "108.66", stats.Monthly.StringFixed(2))

	stats = Summarize(contracts, time.Date(2020, 1, 15, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, 1, stats.Active)
	assert.Equal(t, "60.21", stats.Monthly.StringFixed(2))
}

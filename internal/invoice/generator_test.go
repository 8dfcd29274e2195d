package invoice

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billing/internal/ledger"
	"billing/pkg/models"
)

var issueDate = time.Date(2020, 1, 3, 10, 0, 0, 0, time.UTC)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func contract1000() *models.Contract {
	return &models.Contract{
		ID:      "1000",
		Name:    "Max Mustermann",
		Company: "Beispiel AG",
		Email:   "max@example.com",
		Address: []string{"Beispiel AG", "Hauptstr. 1", "12345 Berlin"},
		Start:   time.Date(2019, 6, 1, 0, 0, 0, 0, time.UTC),
		Items: []models.Item{
			{Description: "Webhosting", Price: d("50.21"), Quantity: d("1")},
			{Description: "Domain", Price: d("5.00"), Quantity: d("2")},
		},
	}
}

func assertTotalsReconcile(t *testing.T, inv *models.Invoice) {
	t.Helper()
	assert.True(t, inv.TotalNet.Add(inv.TotalVAT).Equal(inv.TotalGross), "net + vat == gross")
	assert.True(t, inv.LineSum().Equal(inv.TotalGross), "gross == sum of subtotals")
}

func TestBuildTotals(t *testing.T) {
	g := NewGenerator(d("19"), "")

	tests := []struct {
		name  string
		lines []Line
		gross string
		net   string
		vat   string
	}{
		{
			name:  "single line",
			lines: []Line{{Description: "A", Price: d("119"), Quantity: d("1")}},
			gross: "119.00", net: "100.00", vat: "19.00",
		},
		{
			name: "per line rounding",
			lines: []Line{
				{Description: "A", Price: d("0.333"), Quantity: d("3")},
				{Description: "B", Price: d("0.005"), Quantity: d("1")},
			},
			gross: "1.01", net: "0.85", vat: "0.16",
		},
		{
			name: "ledger quarter",
			lines: []Line{
				{Description: "A", Price: d("50.21"), Quantity: d("3")},
				{Description: "B", Price: d("5.00"), Quantity: d("6")},
			},
			gross: "180.63", net: "151.79", vat: "28.84",
		},
		{
			name:  "fractional quantity",
			lines: []Line{{Description: "Support", Price: d("85"), Quantity: d("1.25")}},
			gross: "106.25", net: "89.29", vat: "16.96",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv, err := g.Build(contract1000(), "1000.test", tt.lines, time.Time{}, time.Time{}, issueDate)
			require.NoError(t, err)

			assert.Equal(t, tt.gross, inv.TotalGross.StringFixed(2))
			assert.Equal(t, tt.net, inv.TotalNet.StringFixed(2))
			assert.Equal(t, tt.vat, inv.TotalVAT.StringFixed(2))
			assertTotalsReconcile(t, inv)
		})
	}
}

func TestBuildLines(t *testing.T) {
	g := NewGenerator(d("19"), "02.01.2006")

	inv, err := g.Build(contract1000(), "1000.2019.10", []Line{
		{Description: "Webhosting", Price: d("50.21"), Quantity: d("1")},
		{Description: "Domain", Price: d("5.00"), Quantity: d("2")},
	}, time.Date(2019, 10, 1, 0, 0, 0, 0, time.UTC), time.Date(2019, 10, 31, 0, 0, 0, 0, time.UTC), issueDate)
	require.NoError(t, err)

	require.Len(t, inv.Items, 2)
	assert.Equal(t, 1, inv.Items[0].Item)
	assert.Equal(t, 2, inv.Items[1].Item)
	assert.Equal(t, "10.00", inv.Items[1].Subtotal.StringFixed(2))
	assert.Equal(t, "1000", inv.ContractID)
	assert.Equal(t, "03.01.2020", inv.Date)
	assert.Equal(t, "01.10.2019 - 31.10.2019", inv.Period)
	assert.Equal(t, "max@example.com", inv.Email)
	assert.Equal(t, []string{"Beispiel AG", "Hauptstr. 1", "12345 Berlin"}, inv.Address)
	assert.True(t, inv.VAT.Equal(d("19")))
	assert.False(t, inv.Sent)
}

func TestBuildNoLines(t *testing.T) {
	g := NewGenerator(d("19"), "")

	_, err := g.Build(contract1000(), "1000.2019.Q4", nil, time.Time{}, time.Time{}, issueDate)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoBillableLines)

	var noLines *NoBillableLinesError
	require.ErrorAs(t, err, &noLines)
	assert.Equal(t, "1000", noLines.ContractID)
}

func TestBuildRejectsForeignID(t *testing.T) {
	g := NewGenerator(d("19"), "")
	lines := []Line{{Description: "A", Price: d("1"), Quantity: d("1")}}

	for _, id := range []string{"1001.2019.10", "1000", "1000.", "1000.a/b", "1000..x", "1000.2019.*", "1000.[12]"} {
		_, err := g.Build(contract1000(), id, lines, time.Time{}, time.Time{}, issueDate)
		assert.ErrorIs(t, err, ErrInvalidID, id)
	}
}

func TestBuildZeroVAT(t *testing.T) {
	g := NewGenerator(decimal.Zero, "")

	inv, err := g.Build(contract1000(), "1000.x", []Line{{Description: "A", Price: d("10.10"), Quantity: d("1")}}, time.Time{}, time.Time{}, issueDate)
	require.NoError(t, err)
	assert.True(t, inv.TotalNet.Equal(inv.TotalGross))
	assert.True(t, inv.TotalVAT.IsZero())
}

func TestGeneratePeriodLines(t *testing.T) {
	g := NewGenerator(d("19"), "")

	inv, err := g.Generate(contract1000(), PeriodLines{Period: Period{Year: 2019, Month: time.October, Months: 3}}, issueDate)
	require.NoError(t, err)

	assert.Equal(t, "1000.2019.10-2019.12", inv.ID)
	assert.Equal(t, "01.10.2019 - 31.12.2019", inv.Period)
	assert.True(t, inv.Items[0].Quantity.Equal(d("3")))
	assert.True(t, inv.Items[1].Quantity.Equal(d("6")))
	assert.Equal(t, "180.63", inv.TotalGross.StringFixed(2))
	assertTotalsReconcile(t, inv)
}

func TestGenerateLedgerLines(t *testing.T) {
	l := ledger.New(t.TempDir(), "de")
	c := contract1000()
	for _, key := range []string{"2019-10", "2019-11", "2019-12"} {
		_, err := l.BillPeriod(c, key, false)
		require.NoError(t, err)
	}

	g := NewGenerator(d("19"), "")
	inv, err := g.Generate(c, LedgerLines{Source: l, Suffix: "2019.Q4"}, issueDate)
	require.NoError(t, err)

	assert.Equal(t, "1000.2019.Q4", inv.ID)
	require.Len(t, inv.Items, 6)
	assert.Equal(t, "Webhosting Oktober 2019", inv.Items[0].Description)
	assert.Equal(t, "180.63", inv.TotalGross.StringFixed(2))
	assert.Equal(t, "151.79", inv.TotalNet.StringFixed(2))
	assert.Equal(t, "28.84", inv.TotalVAT.StringFixed(2))
	assert.Equal(t, time.Date(2019, 10, 1, 0, 0, 0, 0, time.UTC), inv.PeriodStart)
	assert.Equal(t, time.Date(2019, 12, 31, 0, 0, 0, 0, time.UTC), inv.PeriodEnd)
	assertTotalsReconcile(t, inv)
}

func TestGenerateLedgerLinesEmpty(t *testing.T) {
	g := NewGenerator(d("19"), "")

	_, err := g.Generate(contract1000(), LedgerLines{Source: ledger.New(t.TempDir(), "de"), Suffix: "2019.Q4"}, issueDate)
	assert.ErrorIs(t, err, ErrNoBillableLines)
}

func TestPeriod(t *testing.T) {
	tests := []struct {
		period Period
		suffix string
		end    time.Time
	}{
		{Period{2019, time.October, 1}, "2019.10", time.Date(2019, 10, 31, 0, 0, 0, 0, time.UTC)},
		{Period{2020, time.February, 1}, "2020.02", time.Date(2020, 2, 29, 0, 0, 0, 0, time.UTC)},
		{Period{2019, time.November, 3}, "2019.11-2020.01", time.Date(2020, 1, 31, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.suffix, func(t *testing.T) {
			require.NoError(t, tt.period.Validate())
			assert.Equal(t, tt.suffix, tt.period.Suffix())
			assert.Equal(t, tt.end, tt.period.End())
		})
	}

	assert.ErrorIs(t, Period{2019, 13, 1}.Validate(), ErrInvalidPeriod)
	assert.ErrorIs(t, Period{2019, time.May, 0}.Validate(), ErrInvalidPeriod)
}

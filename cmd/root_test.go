package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billing/internal/config"
)

var contracts = map[string]string{
	"1000.yaml": `cid: "1000"
name: Max Mustermann
company: Beispiel AG
email: max@example.com
start: 2019-06-01
items:
  - description: Webhosting
    price: 50.21
  - description: Domain
    price: 5.00
    quantity: 2
`,
	"1001.yaml": `cid: "1001"
name: Mike Murks
email: mike@example.com
start: 2030-06-01
items:
  - description: Webhosting
    price: 13.37
`,
	"1002.yaml": `cid: "1002"
name: Erika Musterfrau
email: erika@example.com
start: 2019-01-01
end: 2019-11-30
items:
  - description: Server
    price: 39.95
  - description: Backup
    price: 8.50
`,
}

// Windows-1252 encoded Postbank export
const statementCSV = "Buchungsdatum;Wertstellung;Umsatzart;Buchungsdetails;Auftraggeber;Empf\xe4nger;Betrag (\x80);Saldo (\x80)\r\n" +
	"15.01.2020;15.01.2020;Gutschrift;Rechnung 1000.2019.Q4;Beispiel AG;Beispiel Hosting;180,63 \x80;1.180,63 \x80\r\n" +
	"16.01.2020;16.01.2020;Lastschrift;Stromrechnung;Beispiel Hosting;Stadtwerke;-80,00 \x80;1.100,63 \x80\r\n"

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func newWorkspace(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	_, err := execute(t, "init", "--dir", dir)
	require.NoError(t, err)
	for name, body := range contracts {
		require.NoError(t, os.WriteFile(filepath.Join(dir, config.ContractsDirName, name), []byte(body), 0o644))
	}
	return dir
}

func TestInit(t *testing.T) {
	dir := t.TempDir()

	out, err := execute(t, "init", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Created billing.yaml")
	assert.Contains(t, out, "Created templates/invoice_mail.txt")
	assert.FileExists(t, filepath.Join(dir, config.TemplatesDirName, "contract_mail.txt"))
	assert.DirExists(t, filepath.Join(dir, config.BilledItemsDirName))

	out, err = execute(t, "init", "--dir", dir)
	require.NoError(t, err)
	assert.Empty(t, out, "a second init leaves the workspace alone")
}

func TestMissingWorkspace(t *testing.T) {
	_, err := execute(t, "print-stats", "--dir", t.TempDir())
	assert.ErrorIs(t, err, config.ErrConfigNotFound)
}

func TestPrintContracts(t *testing.T) {
	dir := newWorkspace(t)

	out, err := execute(t, "print-contracts", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "1000: Beispiel AG, Max Mustermann 01.06.2019 60.21€\n")
	assert.Contains(t, out, "1002: Erika Musterfrau 01.01.2019 48.45€\n")
}

func TestPrintStats(t *testing.T) {
	dir := newWorkspace(t)

	out, err := execute(t, "print-stats", "--dir", dir)
	require.NoError(t, err)
	assert.Equal(t, "1 active contracts of 3 in total\n60.21€ per month\n", out)
}

func TestBillingCycle(t *testing.T) {
	dir := newWorkspace(t)

	for _, month := range []string{"10", "11", "12"} {
		_, err := execute(t, "bill-items", "2019", month, "--dir", dir)
		require.NoError(t, err)
	}

	out, err := execute(t, "create-billed-invoices", "2019.Q4", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "1000.2019.Q4")
	assert.Contains(t, out, "1002.2019.Q4")
	assert.FileExists(t, filepath.Join(dir, config.InvoicesDirName, "1000", "1000.2019.Q4.yaml"))

	csv := filepath.Join(t.TempDir(), "Umsaetze.csv")
	require.NoError(t, os.WriteFile(csv, []byte(statementCSV), 0o644))

	out, err = execute(t, "import-statement", csv, "--match", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 2 payments")

	out, err = execute(t, "import-statement", csv, "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Nothing new to import, 2 rows already imported")

	out, err = execute(t, "report-customer", "1000", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Invoiced 180.63€, paid 180.63€, balance 0.00€")

	out, err = execute(t, "report-customer", "1002", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Outstanding: 96.90€")

	xlsx := filepath.Join(t.TempDir(), "report.xlsx")
	out, err = execute(t, "export-report", "--xlsx", xlsx, "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote "+xlsx)
	assert.FileExists(t, xlsx)
}

func TestSendInvoicesArguments(t *testing.T) {
	dir := newWorkspace(t)

	_, err := execute(t, "send-invoices", "2019", "--dir", dir)
	assert.ErrorContains(t, err, "give either YEAR MONTH or --suffix")

	_, err = execute(t, "bill-items", "2019", "13", "--dir", dir)
	assert.ErrorContains(t, err, "invalid month")
}

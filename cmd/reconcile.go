package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"billing/internal/invoice"
	"billing/internal/logger"
	"billing/internal/reconciliation"
	"billing/internal/report"
	"billing/internal/sheets"
	"billing/pkg/models"
)

var importStatementCmd = &cobra.Command{
	Use:   "import-statement [CSV-FILE]",
	Short: "Import a bank statement into the payments store",
	Long: `Import the rows of a Postbank CSV export, or of a Google Sheets range, as a new
payment batch. Rows already imported by an earlier batch are skipped. With
--match incoming payments are assigned to contracts by the invoice ids in their
subject.

Reading from Google Sheets requires:
  GOOGLE_APPLICATION_CREDENTIALS - Path to service account JSON file, OR
  GOOGLE_CREDENTIALS - Inline JSON credentials string`,
	Example: `  # Import a CSV export
  billing import-statement Umsaetze.csv --match

  # Import from a sheet
  billing import-statement --sheet-url https://docs.google.com/spreadsheets/d/... --range Bank!A:H`,
	Args: cobra.MaximumNArgs(1),
	RunE: runImportStatement,
}

var matchPaymentsCmd = &cobra.Command{
	Use:   "match-payments",
	Short: "Assign stored unassigned payments to contracts",
	Args:  cobra.NoArgs,
	RunE:  runMatchPayments,
}

var reportCustomerCmd = &cobra.Command{
	Use:   "report-customer CID",
	Short: "Show the invoices, payments and balance of a customer",
	Args:  cobra.ExactArgs(1),
	RunE:  runReportCustomer,
}

var exportReportCmd = &cobra.Command{
	Use:   "export-report",
	Short: "Export balances, invoices and payments",
	Long: `Export the balance of every customer, the invoice register and all payments
to an XLSX workbook and/or a Google Sheets spreadsheet.`,
	Example: `  billing export-report --xlsx report.xlsx
  billing export-report --sheet-url https://docs.google.com/spreadsheets/d/...`,
	Args: cobra.NoArgs,
	RunE: runExportReport,
}

func init() {
	rootCmd.AddCommand(importStatementCmd)
	rootCmd.AddCommand(matchPaymentsCmd)
	rootCmd.AddCommand(reportCustomerCmd)
	rootCmd.AddCommand(exportReportCmd)

	importStatementCmd.Flags().Bool("match", false, "Assign payments to contracts by invoice id")
	importStatementCmd.Flags().String("sheet-url", "", "Read the statement from this spreadsheet")
	importStatementCmd.Flags().String("range", "Bank!A:H", "Sheet range holding the statement")

	reportCustomerCmd.Flags().String("xlsx", "", "Also write the account to this XLSX file")

	exportReportCmd.Flags().String("xlsx", "", "Write the report to this XLSX file")
	exportReportCmd.Flags().String("sheet-url", "", "Write the report to this spreadsheet (default: sheets.url)")
}

func statementParser() reconciliation.Parser {
	return reconciliation.Parser{Header: cfg.StatementHeader, Places: cfg.DecimalPlaces}
}

func runImportStatement(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("import-statement")

	match, _ := cmd.Flags().GetBool("match")
	sheetURL, _ := cmd.Flags().GetString("sheet-url")
	readRange, _ := cmd.Flags().GetString("range")

	ctx, cancel := commandContext(cmd)
	defer cancel()

	var (
		entries []models.PaymentEntry
		source  string
		err     error
	)
	switch {
	case len(args) == 1 && sheetURL == "":
		source = filepath.Base(args[0])
		entries, err = readStatementFile(args[0])
	case len(args) == 0 && sheetURL != "":
		source = readRange
		entries, err = readStatementSheet(ctx, sheetURL, readRange)
	default:
		return fmt.Errorf("give either a CSV file or --sheet-url")
	}
	if err != nil {
		return err
	}

	log.Info().Str("source", source).Int("rows", len(entries)).Msg("Statement read")

	if match {
		invoices, err := invoice.NewStore(cfg.InvoicesDir).ListAll()
		if err != nil {
			return err
		}
		n := reconciliation.NewMatcher().Assign(entries, invoices)
		log.Info().Int("assigned", n).Msg("Payments matched")
	}

	out := cmd.OutOrStdout()
	result, err := reconciliation.NewBatchStore(cfg.PaymentsDir).Import(entries, source)
	if errors.Is(err, reconciliation.ErrNoEntries) {
		fmt.Fprintf(out, "Nothing new to import, %d rows already imported\n", result.Duplicates)
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Imported %d payments as batch %s, skipped %d duplicates\n",
		len(result.Batch.Entries), result.Batch.ID, result.Duplicates)
	return nil
}

func readStatementFile(path string) ([]models.PaymentEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open statement: %w", err)
	}
	defer f.Close()

	return reconciliation.ReadStatement(f, statementParser())
}

func readStatementSheet(ctx context.Context, sheetURL, readRange string) ([]models.PaymentEntry, error) {
	svc, err := sheets.NewSheetsService(ctx, sheetURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets service: %w", err)
	}
	return reconciliation.NewSheetReader(svc, statementParser()).ReadStatement(ctx, readRange)
}

func runMatchPayments(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("match-payments")

	invoices, err := invoice.NewStore(cfg.InvoicesDir).ListAll()
	if err != nil {
		return err
	}
	store := reconciliation.NewBatchStore(cfg.PaymentsDir)
	batches, err := store.All()
	if err != nil && !os.IsNotExist(err) {
		return err
	}

	matcher := reconciliation.NewMatcher()
	total := 0
	for _, batch := range batches {
		n := matcher.Assign(batch.Entries, invoices)
		if n == 0 {
			continue
		}
		if err := store.Save(batch); err != nil {
			return err
		}
		log.Info().Str("batch", batch.ID).Int("assigned", n).Msg("Batch updated")
		total += n
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Assigned %d payments\n", total)
	return nil
}

// loadAccounts reads every invoice and every stored payment.
func loadAccounts() ([]*models.Invoice, []models.PaymentEntry, error) {
	invoices, err := invoice.NewStore(cfg.InvoicesDir).ListAll()
	if err != nil {
		return nil, nil, err
	}
	payments, err := reconciliation.NewBatchStore(cfg.PaymentsDir).Entries()
	if err != nil {
		return nil, nil, err
	}
	return invoices, payments, nil
}

func runReportCustomer(cmd *cobra.Command, args []string) error {
	invoices, payments, err := loadAccounts()
	if err != nil {
		return err
	}

	b := reconciliation.Report(args[0], invoices, payments, cfg.DecimalPlaces)
	out := cmd.OutOrStdout()
	places := cfg.DecimalPlaces

	fmt.Fprintf(out, "Customer %s\n\n", b.CID)
	for _, inv := range b.Invoices {
		sent := ""
		if inv.Sent {
			sent = " (sent)"
		}
		fmt.Fprintf(out, "  %-22s %s %12s€%s\n", inv.ID, inv.Date, inv.TotalGross.StringFixed(places), sent)
	}
	for _, p := range b.Payments {
		fmt.Fprintf(out, "  %-22s %s %12s€\n", "payment", p.Date.Format(cfg.DateFormat), p.Amount.StringFixed(places))
	}
	fmt.Fprintf(out, "\nInvoiced %s€, paid %s€, balance %s€\n",
		b.Invoiced.StringFixed(places), b.Paid.StringFixed(places), b.Balance.StringFixed(places))
	if b.Outstanding() {
		fmt.Fprintf(out, "Outstanding: %s€\n", b.Balance.Neg().StringFixed(places))
	}

	xlsxPath, _ := cmd.Flags().GetString("xlsx")
	if xlsxPath == "" {
		return nil
	}
	if err := report.WriteXLSX(xlsxPath, places, report.Customer(b, cfg.DateFormat)); err != nil {
		return err
	}
	fmt.Fprintf(out, "Wrote %s\n", xlsxPath)
	return nil
}

func runExportReport(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("export-report")

	xlsxPath, _ := cmd.Flags().GetString("xlsx")
	sheetURL, _ := cmd.Flags().GetString("sheet-url")
	if sheetURL == "" {
		sheetURL = cfg.SheetURL
	}
	if xlsxPath == "" && sheetURL == "" {
		return fmt.Errorf("give --xlsx or --sheet-url")
	}

	invoices, payments, err := loadAccounts()
	if err != nil {
		return err
	}
	tables := []report.Table{
		report.Balances(invoices, payments, cfg.DecimalPlaces),
		report.Register(invoices),
		report.Payments(payments, cfg.DateFormat),
	}

	out := cmd.OutOrStdout()
	if xlsxPath != "" {
		if err := report.WriteXLSX(xlsxPath, cfg.DecimalPlaces, tables...); err != nil {
			return err
		}
		fmt.Fprintf(out, "Wrote %s\n", xlsxPath)
	}

	if sheetURL != "" {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		svc, err := sheets.NewSheetsService(ctx, sheetURL)
		if err != nil {
			return fmt.Errorf("failed to initialize Google Sheets service: %w", err)
		}
		if err := report.ExportSheets(ctx, svc, cfg.DecimalPlaces, tables...); err != nil {
			return err
		}
		log.Info().Int("tables", len(tables)).Msg("Report exported to Google Sheets")
		fmt.Fprintf(out, "Exported %d sheets\n", len(tables))
	}
	return nil
}

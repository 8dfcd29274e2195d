package cmd

import (
	"github.com/spf13/cobra"

	"billing/internal/billing"
	"billing/internal/invoice"
	"billing/internal/logger"
)

var billItemsCmd = &cobra.Command{
	Use:   "bill-items YEAR MONTH",
	Short: "Record the items of a month in the billing ledger",
	Long: `Record the recurring items of every contract active on the first of the month
in its billing ledger, plus the one-time setup fees of its first month. A month
that is already in a ledger is never billed twice.`,
	Example: `  # Bill October 2019
  billing bill-items 2019 10

  # Show what would be billed for one contract
  billing bill-items 2019 10 -c 1000 --dry-run`,
	Args: cobra.ExactArgs(2),
	RunE: runBillItems,
}

var createInvoicesCmd = &cobra.Command{
	Use:   "create-invoices YEAR MONTH",
	Short: "Create invoices for a period from the contract items",
	Long: `Create one invoice per active contract covering the given month, or several
months with --months. Existing invoices are kept unless --force is set.`,
	Example: `  billing create-invoices 2019 10
  billing create-invoices 2019 10 --months 3 -c 1000`,
	Args: cobra.ExactArgs(2),
	RunE: runCreateInvoices,
}

var createBilledInvoicesCmd = &cobra.Command{
	Use:   "create-billed-invoices SUFFIX",
	Short: "Create invoices from the unbilled ledger entries",
	Long: `Create one invoice per contract from all ledger entries not yet invoiced. The
invoice id is "<contract>.<SUFFIX>". The consumed entries are stamped with the
invoice id only after the invoice has been saved.`,
	Example: `  billing create-billed-invoices 2019.Q4`,
	Args:    cobra.ExactArgs(1),
	RunE:    runCreateBilledInvoices,
}

func init() {
	rootCmd.AddCommand(billItemsCmd)
	rootCmd.AddCommand(createInvoicesCmd)
	rootCmd.AddCommand(createBilledInvoicesCmd)

	billItemsCmd.Flags().StringP("contract", "c", "", "Only process this contract")
	billItemsCmd.Flags().BoolP("dry-run", "d", false, "Log what would be billed without writing")

	createInvoicesCmd.Flags().StringP("contract", "c", "", "Only process this contract")
	createInvoicesCmd.Flags().IntP("months", "m", 1, "Number of months the invoices cover")
	createInvoicesCmd.Flags().BoolP("force", "f", false, "Overwrite existing invoices")

	createBilledInvoicesCmd.Flags().StringP("contract", "c", "", "Only process this contract")
	createBilledInvoicesCmd.Flags().BoolP("force", "f", false, "Overwrite existing invoices")
}

func runBillItems(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("bill-items")

	only, _ := cmd.Flags().GetString("contract")
	dry, _ := cmd.Flags().GetBool("dry-run")

	year, month, err := parseYearMonth(args[0], args[1])
	if err != nil {
		return err
	}

	engine, err := openEngine()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	log.Info().
		Int("year", year).
		Int("month", int(month)).
		Str("contract", only).
		Bool("dry_run", dry).
		Msg("Billing items")

	run, err := engine.BillItems(ctx, year, month, billing.Filter{IDOnly: only}, dry)
	if err != nil {
		return err
	}
	return printRun(cmd.OutOrStdout(), run)
}

func runCreateInvoices(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("create-invoices")

	only, _ := cmd.Flags().GetString("contract")
	months, _ := cmd.Flags().GetInt("months")
	force, _ := cmd.Flags().GetBool("force")

	year, month, err := parseYearMonth(args[0], args[1])
	if err != nil {
		return err
	}
	period := invoice.Period{Year: year, Month: month, Months: months}
	if err := period.Validate(); err != nil {
		return err
	}

	engine, err := openEngine()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	log.Info().
		Str("period", period.Suffix()).
		Str("contract", only).
		Bool("force", force).
		Msg("Creating invoices")

	run, err := engine.CreateInvoices(ctx, period, billing.Filter{IDOnly: only}, force)
	if err != nil {
		return err
	}
	return printRun(cmd.OutOrStdout(), run)
}

func runCreateBilledInvoices(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("create-billed-invoices")

	only, _ := cmd.Flags().GetString("contract")
	force, _ := cmd.Flags().GetBool("force")

	engine, err := openEngine()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	log.Info().
		Str("suffix", args[0]).
		Str("contract", only).
		Bool("force", force).
		Msg("Creating invoices from ledger")

	run, err := engine.CreateBilledInvoices(ctx, args[0], billing.Filter{IDOnly: only}, force)
	if err != nil {
		return err
	}
	return printRun(cmd.OutOrStdout(), run)
}

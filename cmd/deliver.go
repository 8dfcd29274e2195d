package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"billing/internal/billing"
	"billing/internal/logger"
)

var renderAllCmd = &cobra.Command{
	Use:   "render-all",
	Short: "Render missing invoice and contract PDFs",
	Long: `Render a PDF next to every stored invoice and contract that has none yet.
With --force all documents are rendered again.`,
	Args: cobra.NoArgs,
	RunE: runRenderAll,
}

var sendInvoicesCmd = &cobra.Command{
	Use:   "send-invoices [YEAR MONTH]",
	Short: "Mail the invoices of a month",
	Long: `Mail every invoice of the given month, or of the id suffix given with
--suffix, to its customer. Invoices that were sent before are skipped unless
--force is set. An invoice is only marked sent after the mail was accepted.`,
	Example: `  billing send-invoices 2019 10
  billing send-invoices --suffix 2019.10-2019.12 -c 1000
  billing send-invoices --suffix 2019.Q4`,
	Args: cobra.RangeArgs(0, 2),
	RunE: runSendInvoices,
}

var sendContractCmd = &cobra.Command{
	Use:   "send-contract CID",
	Short: "Mail a rendered contract with its item descriptions",
	Args:  cobra.ExactArgs(1),
	RunE:  runSendContract,
}

func init() {
	rootCmd.AddCommand(renderAllCmd)
	rootCmd.AddCommand(sendInvoicesCmd)
	rootCmd.AddCommand(sendContractCmd)

	renderAllCmd.Flags().BoolP("force", "f", false, "Render existing documents again")

	sendInvoicesCmd.Flags().String("suffix", "", "Invoice id suffix to send instead of YEAR MONTH")
	sendInvoicesCmd.Flags().StringP("contract", "c", "", "Only send to this contract")
	sendInvoicesCmd.Flags().BoolP("force", "f", false, "Send invoices again that were sent before")
}

func runRenderAll(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("render-all")
	force, _ := cmd.Flags().GetBool("force")

	engine, err := openEngine()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	log.Info().Bool("force", force).Msg("Rendering documents")

	invoices, err := engine.RenderInvoices(ctx, force)
	if err != nil {
		return err
	}
	contracts, err := engine.RenderContracts(ctx, force)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	return errors.Join(printRun(out, invoices), printRun(out, contracts))
}

func runSendInvoices(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("send-invoices")

	suffix, _ := cmd.Flags().GetString("suffix")
	only, _ := cmd.Flags().GetString("contract")
	force, _ := cmd.Flags().GetBool("force")

	var sel billing.Selector
	switch {
	case suffix != "" && len(args) == 0:
		sel = billing.Selector{Suffix: suffix}
	case suffix == "" && len(args) == 2:
		year, month, err := parseYearMonth(args[0], args[1])
		if err != nil {
			return err
		}
		sel = billing.MonthSelector(year, int(month))
	default:
		return fmt.Errorf("give either YEAR MONTH or --suffix")
	}

	engine, err := openEngine()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	log.Info().
		Str("suffix", sel.Suffix).
		Str("contract", only).
		Bool("force", force).
		Msg("Sending invoices")

	run, err := engine.SendInvoices(ctx, sel, billing.Filter{IDOnly: only}, force)
	if err != nil {
		return err
	}
	return printRun(cmd.OutOrStdout(), run)
}

func runSendContract(cmd *cobra.Command, args []string) error {
	engine, err := openEngine()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	if err := engine.SendContract(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Sent contract %s\n", args[0])
	return nil
}

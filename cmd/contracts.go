package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"billing/internal/contract"
)

var printContractsCmd = &cobra.Command{
	Use:   "print-contracts",
	Short: "List all contracts",
	Args:  cobra.NoArgs,
	RunE:  runPrintContracts,
}

var printStatsCmd = &cobra.Command{
	Use:   "print-stats",
	Short: "Show the number of active contracts and the monthly revenue",
	Args:  cobra.NoArgs,
	RunE:  runPrintStats,
}

func init() {
	rootCmd.AddCommand(printContractsCmd)
	rootCmd.AddCommand(printStatsCmd)

	printContractsCmd.Flags().Bool("active", false, "Only list contracts active today")
}

func runPrintContracts(cmd *cobra.Command, args []string) error {
	active, _ := cmd.Flags().GetBool("active")

	var filter contract.Filter
	if active {
		now := time.Now()
		filter.ActiveAt = &now
	}
	contracts, err := contract.NewStore(cfg.ContractsDir).List(filter)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, c := range contracts {
		fmt.Fprintf(out, "%s: %s %s %s€\n", c.ID, c.DisplayName(), c.Start.Format(cfg.DateFormat), c.MonthlyTotal().StringFixed(2))
	}
	return nil
}

func runPrintStats(cmd *cobra.Command, args []string) error {
	contracts, err := contract.NewStore(cfg.ContractsDir).List(contract.Filter{})
	if err != nil {
		return err
	}

	stats := contract.Summarize(contracts, time.Now())
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%d active contracts of %d in total\n", stats.Active, stats.Total)
	fmt.Fprintf(out, "%s€ per month\n", stats.Monthly.StringFixed(2))
	return nil
}

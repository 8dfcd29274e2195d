package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"billing/internal/billing"
	"billing/internal/config"
	"billing/internal/logger"
)

var version = "1.0.0"

// skipWorkspace marks commands that run before a workspace exists.
const skipWorkspace = "skip-workspace"

var (
	workDir string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "billing",
	Short: "Billing CLI - Contracts, invoices and payments of a small hosting business",
	Long: `Billing keeps customer contracts, bills their items month by month, creates
and mails invoices, and reconciles bank statements against them.

All data lives in a workspace directory of plain YAML files; run "billing init"
to create one.`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: loadWorkspace,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&workDir, "dir", ".", "Workspace directory")
}

func loadWorkspace(cmd *cobra.Command, args []string) error {
	if _, skip := cmd.Annotations[skipWorkspace]; skip {
		return nil
	}

	c, err := config.Load(workDir)
	if err != nil {
		return err
	}
	if err := logger.Setup(c.GetLoggerConfig()); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if err := c.VerifyPaths(); err != nil {
		return err
	}
	cfg = c

	cmdLog := logger.WithComponent("cmd")
	cmdLog.Debug().
		Str("command", cmd.Name()).
		Str("workspace", c.Dir).
		Msg("Workspace loaded")
	return nil
}

// commandContext is cancelled on SIGINT or SIGTERM. Batch runs stop between
// records, never inside one.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
}

func openEngine() (*billing.Engine, error) {
	engine, err := billing.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open workspace: %w", err)
	}
	return engine, nil
}

// printRun writes one line per outcome and returns the joined failures.
func printRun(w io.Writer, run billing.Run) error {
	for _, o := range run.Outcomes {
		id := o.InvoiceID
		if id == "" {
			id = o.ContractID
		}
		switch {
		case o.Err != nil:
			fmt.Fprintf(w, "%-20s %-14s %v\n", id, o.Status, o.Err)
		case o.Items > 0:
			fmt.Fprintf(w, "%-20s %-14s %d items\n", id, o.Status, o.Items)
		default:
			fmt.Fprintf(w, "%-20s %s\n", id, o.Status)
		}
	}
	return run.Err()
}

func parseYearMonth(yearArg, monthArg string) (int, time.Month, error) {
	year, err := strconv.Atoi(yearArg)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid year %q", yearArg)
	}
	month, err := strconv.Atoi(monthArg)
	if err != nil || month < 1 || month > 12 {
		return 0, 0, fmt.Errorf("invalid month %q, use 1-12", monthArg)
	}
	return year, time.Month(month), nil
}

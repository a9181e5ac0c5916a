package main

import (
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Re-price every active recurring search once and print the report",
	Long: `Run one scanner pass outside the server, for cron jobs or manual checks.
The JSON report is written to stdout. A failed authentication or a failure to
load the searches exits non-zero; per-search failures are in the report.`,
	RunE: runScan,
}

func runScan(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, config, zlog)
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := a.scanner.Run(ctx)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

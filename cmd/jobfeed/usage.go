package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Print the metered LLM usage",
	RunE:  runUsage,
}

func init() {
	rootCmd.AddCommand(usageCmd)
}

func runUsage(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)
	a := mustOpenApp(logger)
	defer a.Close()

	ctx := context.Background()
	m, closeMeter, err := a.meter(ctx)
	if err != nil {
		logger.Error("failed to open usage meter", "backend", a.cfg.Metering.Backend, "error", err)
		os.Exit(1)
	}
	defer closeMeter()

	u, err := m.GetUsage(ctx, a.sess.UserID)
	if err != nil {
		userError("Failed to load usage", err)
		os.Exit(1)
	}
	fmt.Printf("calls: %d\ncost: $%.6f\ninput tokens: %d\noutput tokens: %d\n",
		u.Calls, u.Cost, u.InputTokens, u.OutputTokens)
	return nil
}

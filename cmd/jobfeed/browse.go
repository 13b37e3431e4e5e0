package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/amishk599/jobfeed/internal/feed"
	"github.com/amishk599/jobfeed/internal/tui"
	"github.com/spf13/cobra"
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse the feed interactively (TUI)",
	Long:  "Shows the new, applied and archived tabs. Jobs can be moved between tabs and scanned for their description.",
	RunE:  runBrowse,
}

func init() {
	rootCmd.AddCommand(browseCmd)
}

func runBrowse(cmd *cobra.Command, args []string) error {
	// Log output while the alt-screen is up corrupts the display.
	silentLogger := slog.New(slog.NewTextHandler(io.Discard, nil))
	a, err := openApp(silentLogger)
	if err != nil {
		setupLogger(debug).Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	policy, err := feed.ParseReconcilePolicy(a.cfg.Feed.Reconcile)
	if err != nil {
		return err
	}
	return tui.Run(a.feedService(), a.sess, a.cfg.Feed.PageSize, policy)
}

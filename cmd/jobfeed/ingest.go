package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobfeed/internal/ingest"
	"github.com/amishk599/jobfeed/internal/metering"
	"github.com/amishk599/jobfeed/internal/notifier"
	"github.com/amishk599/jobfeed/internal/store"
)

var ingestDryRun bool

var ingestCmd = &cobra.Command{
	Use:   "ingest FILE",
	Short: "Add scraped jobs to the feed",
	Long: "Reads a JSON array of scraped job records from FILE (or - for stdin), skips known jobs, " +
		"classifies the rest with the advanced matching policy and stores them.",
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestDryRun, "dry-run", false, "classify and log, do not store or send notifications")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)
	a := mustOpenApp(logger)
	defer a.Close()

	var r io.Reader = os.Stdin
	name := "stdin"
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		r, name = f, args[0]
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var m metering.Meter = metering.NopMeter{}
	if !ingestDryRun {
		var closeMeter func()
		var err error
		m, closeMeter, err = a.meter(ctx)
		if err != nil {
			logger.Error("failed to open usage meter", "backend", a.cfg.Metering.Backend, "error", err)
			os.Exit(1)
		}
		defer closeMeter()
	}

	matcher, recorder := a.matcher(m)
	defer recorder.Wait()

	var sink ingest.Sink = a.store
	n := setupNotifier(a.cfg, a.httpClient, logger)
	if ingestDryRun {
		logger.Info("dry-run mode enabled, no jobs will be stored")
		sink = store.NewNopSink()
		n = notifier.NewLogNotifier(logger)
	}

	p := ingest.NewPipeline(sink, matcher, n, a.retrier, logger)
	res, err := p.Run(ctx, a.sess, ingest.NewReaderSource(r, name))
	if err != nil {
		userError("Failed to ingest jobs", err)
		recorder.Wait()
		os.Exit(1)
	}

	fmt.Printf("received %d · new %d · excluded %d · duplicates %d · invalid %d\n",
		res.Received, res.New, res.Excluded, res.Duplicates, res.Invalid)
	return nil
}

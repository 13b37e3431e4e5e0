package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobfeed/internal/model"
)

var statusCmd = &cobra.Command{
	Use:   "status JOB_ID STATUS",
	Short: "Move one job to new, applied or archived",
	Args:  cobra.ExactArgs(2),
	RunE:  runStatus,
}

var (
	moveFrom string
	moveTo   string
)

var moveAllCmd = &cobra.Command{
	Use:   "move-all",
	Short: "Move every job of one status to another",
	RunE:  runMoveAll,
}

func init() {
	moveAllCmd.Flags().StringVar(&moveFrom, "from", "", "source status")
	moveAllCmd.Flags().StringVar(&moveTo, "to", "", "target status")
	_ = moveAllCmd.MarkFlagRequired("from")
	_ = moveAllCmd.MarkFlagRequired("to")
	rootCmd.AddCommand(statusCmd, moveAllCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	to, err := model.ParseStatus(args[1])
	if err != nil {
		return err
	}

	a := mustOpenApp(setupLogger(debug))
	defer a.Close()

	if err := a.feedService().UpdateJobStatus(context.Background(), a.sess, args[0], to); err != nil {
		userError("Failed to update job status", err)
		os.Exit(1)
	}
	fmt.Printf("%s -> %s\n", args[0], to)
	return nil
}

func runMoveAll(cmd *cobra.Command, args []string) error {
	from, err := model.ParseStatus(moveFrom)
	if err != nil {
		return err
	}
	to, err := model.ParseStatus(moveTo)
	if err != nil {
		return err
	}

	a := mustOpenApp(setupLogger(debug))
	defer a.Close()

	n, err := a.feedService().ChangeAllJobsStatus(context.Background(), a.sess, from, to)
	if err != nil {
		userError("Failed to move jobs", err)
		os.Exit(1)
	}
	fmt.Printf("moved %d jobs from %s to %s\n", n, from, to)
	return nil
}

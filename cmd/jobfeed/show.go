package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var showScan bool

var showCmd = &cobra.Command{
	Use:   "show JOB_ID",
	Short: "Print one job",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	showCmd.Flags().BoolVar(&showScan, "scan", false, "scan the posting when the job has no description yet")
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	a := mustOpenApp(setupLogger(debug))
	defer a.Close()

	ctx := context.Background()
	svc := a.feedService()
	job, err := svc.GetJob(ctx, a.sess, args[0])
	if err != nil {
		userError("Failed to load job", err)
		os.Exit(1)
	}
	if showScan && !job.HasDescription() {
		if job, err = svc.ScanJob(ctx, a.sess, job); err != nil {
			userError("Failed to scan job", err)
			os.Exit(1)
		}
	}

	fmt.Printf("%s\n%s · %s\n", job.Title, job.CompanyName, job.Location)
	for _, f := range [][2]string{
		{"Status", string(job.Status)},
		{"Salary", job.Salary},
		{"Type", string(job.JobType)},
		{"Tags", strings.Join(job.Tags, ", ")},
		{"URL", job.ExternalURL},
	} {
		if f[1] != "" {
			fmt.Printf("%-8s %s\n", f[0]+":", f[1])
		}
	}
	if job.HasDescription() {
		fmt.Printf("\n%s\n", job.Description)
	}
	return nil
}

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/amishk599/jobfeed/internal/model"
)

var (
	listStatus string
	listLimit  int
	listAfter  string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print one page of the feed",
	Long:  "Prints one page of jobs in a status, the counters of every tab and the token of the next page.",
	RunE:  runList,
}

func init() {
	listCmd.Flags().StringVar(&listStatus, "status", string(model.StatusNew), "status to list: new, applied or archived")
	listCmd.Flags().IntVar(&listLimit, "limit", 0, "page size (default: feed.page_size)")
	listCmd.Flags().StringVar(&listAfter, "after", "", "continuation token from a previous page")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	a := mustOpenApp(setupLogger(debug))
	defer a.Close()

	status, err := model.ParseStatus(listStatus)
	if err != nil {
		return err
	}
	limit := listLimit
	if limit <= 0 {
		limit = a.cfg.Feed.PageSize
	}

	page, err := a.feedService().ListJobs(context.Background(), a.sess, status, limit, listAfter)
	if err != nil {
		userError("Failed to load jobs", err)
		os.Exit(1)
	}

	fmt.Printf("new %d · applied %d · archived %d\n", page.New, page.Applied, page.Archived)
	if len(page.Jobs) == 0 {
		fmt.Println("(no jobs)")
		return nil
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "TITLE", "COMPANY", "LOCATION", "ADDED")
	for _, j := range page.Jobs {
		t.Row(j.ID, j.Title, j.CompanyName, j.Location, j.CreatedAt.Format("2006-01-02 15:04"))
	}
	fmt.Println(t)

	if page.NextPageToken != "" {
		fmt.Printf("next: %s\n", page.NextPageToken)
	}
	return nil
}

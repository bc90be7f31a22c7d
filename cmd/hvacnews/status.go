package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"hvacnews/internal/domain"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the latest discovery batch status and recent runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		for _, searchType := range []domain.SearchType{domain.SearchSources, domain.SearchManufacturers} {
			st, err := db.CurrentStatus(ctx, searchType)
			if err != nil {
				return err
			}
			if st == nil {
				fmt.Printf("%-14s no batches yet\n", searchType)
				continue
			}
			fmt.Printf("%-14s %s  %d/%d (%d%%)  provider=%s  updated=%s\n",
				searchType, st.Status, st.ProcessedCount, st.TotalCount,
				st.ProgressPercent(), st.Provider, st.UpdatedAt.Format("2006-01-02 15:04:05"))
		}

		runs, err := db.RecentRuns(ctx, 5)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			return nil
		}

		fmt.Println("\nRecent runs:")
		for _, run := range runs {
			state := "running"
			if !run.FinishedAt.IsZero() {
				state = run.Duration().Round(time.Second).String()
			}
			fmt.Printf("  #%-4d %s  news=%d dup=%d failed=%d  $%.4f  %s\n",
				run.ID, run.StartedAt.Format("2006-01-02 15:04"),
				run.NewsFound, run.NewsDuplicates, run.TargetsFailed,
				run.EstimatedCostUSD, state)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

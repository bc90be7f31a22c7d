package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"hvacnews/internal/domain"
	"hvacnews/internal/store"
)

var (
	newsStatus       string
	newsSourceID     int64
	newsManufacturer int64
	newsSentinels    bool
	newsLimit        int
	rankingLimit     int
)

var newsCmd = &cobra.Command{
	Use:   "news",
	Short: "List stored news items, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		filter := store.NewsFilter{
			Status:         domain.NewsStatus(newsStatus),
			SourceID:       newsSourceID,
			ManufacturerID: newsManufacturer,
			Limit:          newsLimit,
		}
		if newsSentinels {
			filter.OnlySentinels = true
		} else {
			filter.ExcludeSentinels = true
		}

		items, err := db.ListNews(cmd.Context(), filter)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			fmt.Println("no news items")
			return nil
		}

		for _, item := range items {
			title := item.Title
			if len(title) > 70 {
				title = title[:67] + "..."
			}
			visible := " "
			if item.IsPublished() {
				visible = "*"
			}
			fmt.Printf("#%-5d %s %-10s %s  langs=%d  %s\n",
				item.ID, visible, item.Status, item.CreatedAt.Format("2006-01-02"),
				len(item.Translations), title)
			if item.SourceURL != "" {
				fmt.Printf("       %s\n", item.SourceURL)
			}
		}
		return nil
	},
}

var rankingCmd = &cobra.Command{
	Use:   "ranking",
	Short: "Show sources ordered by discovery yield",
	RunE: func(cmd *cobra.Command, args []string) error {
		stats, err := db.TopRankedSources(cmd.Context(), rankingLimit)
		if err != nil {
			return err
		}
		if len(stats) == 0 {
			fmt.Println("no statistics yet")
			return nil
		}

		fmt.Printf("%-10s %-7s %-9s %-8s %-8s %-7s %s\n",
			"source", "score", "searches", "found", "success", "30d", "active")
		for _, st := range stats {
			fmt.Printf("%-10d %-7.2f %-9d %-8d %-7.1f%% %-7d %v\n",
				st.SourceID, st.RankingScore, st.TotalSearches, st.TotalNewsFound,
				st.SuccessRate, st.NewsLast30Days, st.IsActive)
		}
		return nil
	},
}

func init() {
	newsCmd.Flags().StringVar(&newsStatus, "status", "", "filter by status (draft, scheduled, published)")
	newsCmd.Flags().Int64Var(&newsSourceID, "source", 0, "filter by source id")
	newsCmd.Flags().Int64Var(&newsManufacturer, "manufacturer", 0, "filter by manufacturer id")
	newsCmd.Flags().BoolVar(&newsSentinels, "sentinels", false, "show only no-news and error records")
	newsCmd.Flags().IntVar(&newsLimit, "limit", 20, "maximum items to list")
	rankingCmd.Flags().IntVar(&rankingLimit, "limit", 20, "maximum sources to list")

	rootCmd.AddCommand(newsCmd)
	rootCmd.AddCommand(rankingCmd)
}

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"hvacnews/internal/discovery"
	"hvacnews/internal/domain"
	"hvacnews/internal/enrich"
	"hvacnews/internal/notify"
	"hvacnews/internal/provider"
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Search all discoverable sources for news",
	Long: `Run one discovery batch over every auto and hybrid source, in id
order, with a single retry pass for failed sources.

Examples:
  hvacnews discover
  hvacnews discover --provider grok
  hvacnews discover --delay 2s`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDiscover(cmd, domain.SearchSources)
	},
}

var discoverManufacturersCmd = &cobra.Command{
	Use:   "discover-manufacturers",
	Short: "Search all manufacturers for news",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDiscover(cmd, domain.SearchManufacturers)
	},
}

func init() {
	rootCmd.AddCommand(discoverCmd)
	rootCmd.AddCommand(discoverManufacturersCmd)

	for _, c := range []*cobra.Command{discoverCmd, discoverManufacturersCmd} {
		c.Flags().String("provider", "", "pin a single provider (grok|anthropic|gemini|openai) instead of the configured chain")
		c.Flags().Duration("delay", 0, "override the delay between targets")
	}
}

func runDiscover(cmd *cobra.Command, searchType domain.SearchType) error {
	ctx := cmd.Context()

	searchCfg, err := db.ActiveConfiguration(ctx)
	if err != nil {
		return err
	}
	if delay, _ := cmd.Flags().GetDuration("delay"); delay > 0 {
		searchCfg.DelayBetweenRequests = delay
	}

	keys := cfg.ProviderKeys()
	var providers []provider.Provider
	if name, _ := cmd.Flags().GetString("provider"); name != "" && name != domain.ProviderAuto {
		p := provider.ByName(name, searchCfg, keys)
		if p == nil {
			return fmt.Errorf("unknown provider %q", name)
		}
		providers = []provider.Provider{p}
	} else {
		providers = provider.Chain(searchCfg, keys)
	}
	if len(providers) == 0 {
		return fmt.Errorf("no providers configured")
	}

	opts := []discovery.Option{}
	if cfg.TelegramToken != "" && cfg.TelegramChatID != "" {
		opts = append(opts, discovery.WithNotifier(notify.NewTelegram(cfg.TelegramToken, cfg.TelegramChatID)))
	}
	if cfg.EnrichDrafts {
		opts = append(opts, discovery.WithEnricher(enrich.New(db)))
	}

	svc := discovery.New(db, searchCfg, providers, opts...)

	var run *domain.DiscoveryRun
	switch searchType {
	case domain.SearchManufacturers:
		run, err = svc.DiscoverAllManufacturers(ctx)
	default:
		run, err = svc.DiscoverAllSources(ctx)
	}
	if err != nil {
		return err
	}

	fmt.Printf("Run %d finished in %s\n", run.ID, run.Duration().Round(time.Second))
	fmt.Printf("  news found:    %d (%d duplicates skipped)\n", run.NewsFound, run.NewsDuplicates)
	fmt.Printf("  targets:       %d processed, %d failed\n", run.TargetsProcessed, run.TargetsFailed)
	fmt.Printf("  requests:      %d (%d in / %d out tokens)\n", run.TotalRequests, run.TotalInputTokens, run.TotalOutputTokens)
	fmt.Printf("  cost:          $%.4f\n", run.EstimatedCostUSD)
	return nil
}

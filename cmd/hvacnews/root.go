// The hvacnews binary drives the news-discovery backend: batch
// discovery over sources and manufacturers, catalog import and batch
// status inspection.
package main

import (
	"encoding/json"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"hvacnews/internal/config"
	"hvacnews/internal/logger"
	"hvacnews/internal/metrics"
	"hvacnews/internal/store"
)

var (
	cfg *config.Config
	db  *store.Store
)

var rootCmd = &cobra.Command{
	Use:   "hvacnews",
	Short: "HVAC news discovery backend",
	Long: `hvacnews discovers industry news with LLM web search over a catalog
of sources and manufacturers and persists multilingual draft records.

Example usage:
  hvacnews discover                      # search all auto/hybrid sources
  hvacnews discover --provider anthropic # pin one provider
  hvacnews discover-manufacturers
  hvacnews import-catalog configs/catalog.yaml
  hvacnews status
  hvacnews news --limit 10
  hvacnews ranking`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if db != nil {
			db.Close()
		}
	},
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func setup() error {
	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err == nil {
		logger.Init()
		logger.Debug("loaded environment from .env")
	} else {
		logger.Init()
	}

	var err error
	cfg, err = config.Load()
	if err != nil {
		return err
	}

	db, err = store.Open(cfg.DatabaseURL)
	if err != nil {
		return err
	}

	if os.Getenv("ENABLE_HTTP_MONITORING") == "true" {
		go startMonitoringServer(cfg.MonitoringPort)
	}
	return nil
}

func startMonitoringServer(port string) {
	http.HandleFunc("/health", healthHandler)
	http.HandleFunc("/metrics", metricsHandler)

	logger.Info("starting monitoring server", "port", port)
	if err := http.ListenAndServe(":"+port, nil); err != nil {
		logger.Error("monitoring server error", "error", err)
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	stats := metrics.Global.GetStats()

	status := "ok"
	if !stats["is_healthy"].(bool) {
		status = "error"
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	response := map[string]interface{}{
		"status":     status,
		"last_run":   stats["last_run_time"],
		"last_error": stats["last_error"],
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func metricsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(metrics.Global.GetStats())
}

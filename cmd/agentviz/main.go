package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/aixgo-dev/agentviz/internal/backend"
	"github.com/aixgo-dev/agentviz/pkg/config"
)

var (
	// Version information (set via ldflags)
	Version = "dev"

	configFile string
	backendURL string
	jsonOutput bool
)

var rootCmd = &cobra.Command{
	Use:           "agentviz <command>",
	Short:         "Live view of a multi-agent orchestration backend",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", getEnv("AGENTVIZ_CONFIG", ""), "config file (YAML)")
	rootCmd.PersistentFlags().StringVar(&backendURL, "backend", "", "orchestrator base URL (overrides config)")

	snapshotCmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")

	rootCmd.AddCommand(serveCmd, snapshotCmd, consoleCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads --config if given, otherwise defaults plus environment,
// then applies flag overrides and validates.
func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if configFile != "" {
		cfg, err = config.LoadConfig(configFile)
	} else {
		cfg, err = config.FromEnv()
	}
	if err != nil {
		return nil, err
	}
	if backendURL != "" {
		cfg.Backend.URL = backendURL
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log.Printf("[agentviz] backend %s, events via %s", cfg.Backend.URL, cfg.Events.Transport)
	return cfg, nil
}

func newBackendClient(cfg *config.Config) *backend.Client {
	return backend.NewClient(backend.Config{
		BaseURL:           cfg.Backend.URL,
		Timeout:           cfg.Backend.Timeout,
		RequestsPerSecond: cfg.Backend.RequestsPerSecond,
		Burst:             cfg.Backend.Burst,
	})
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/hangarhq/aeromesh/config"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "aeromesh",
	Short: "Multi-agent task orchestration for aviation operations",
	Long: `aeromesh runs a fleet of specialized aviation agents (HR, meeting
rooms, supply chain) behind an orchestrator that routes and fans out
requests. Tasks move through an observable lifecycle with progress,
artifacts and per-tenant agent scoping.

Start the HTTP API with "aeromesh serve", or talk to an agent directly
with "aeromesh chat".`,
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to a config file (default: aeromesh.yaml in . or the user config dir)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(agentsCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig resolves the effective configuration, honoring --config.
func loadConfig() (*config.Config, error) {
	if cfgFile != "" {
		return config.LoadFromPath(cfgFile)
	}
	return config.Load()
}

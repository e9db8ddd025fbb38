package main

import (
	"fmt"
	"os"

	"github.com/aescanero/coyote/internal/config"
	"github.com/spf13/cobra"
)

var (
	// Version is set by build flags
	Version   = "dev"
	BuildTime = "unknown"

	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "coyote",
	Short: "Coyote edge service",
	Long: `Coyote is an HTTP edge service with resource endpoints, a configuration
surface and an embedded metrics subsystem.

Start the service:
  coyote

Configuration comes from environment variables:
  COYOTE_API_PORT=8080 STORAGE_BACKEND=redis REDIS_ADDR=redis:6379 coyote`,
	SilenceUsage: true,
	RunE:         runServer,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "coyote %s\n", Version)
		fmt.Fprintf(cmd.OutOrStdout(), "  Build Time: %s\n", BuildTime)
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		data, err := cfg.Render()
		if err != nil {
			return err
		}

		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level override (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
}

// loadConfig reads the environment and applies command line overrides
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	if logLevel != "" {
		cfg.LogLevel = logLevel
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid config: %w", err)
		}
	}

	return cfg, nil
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	clientcmd "github.com/rzbill/logtap/internal/cmd/client"
	serverrun "github.com/rzbill/logtap/internal/cmd/server"
	cfgpkg "github.com/rzbill/logtap/internal/config"
	logpkg "github.com/rzbill/logtap/pkg/log"
)

const version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "logtap",
		Short: "Logtap log relay CLI",
		Long:  "Logtap relays logs from many producers to one consumer. This CLI manages the server and basic operations.",
	}

	serverCmd := &cobra.Command{Use: "server", Short: "Server commands"}
	serverStartCmd := &cobra.Command{
		Use:     "start",
		Short:   "Start the logtap relay server",
		Aliases: []string{"run"},
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			httpAddr, _ := cmd.Flags().GetString("http")
			archiveDir, _ := cmd.Flags().GetString("archive-dir")
			bucketCap, _ := cmd.Flags().GetInt("bucket-capacity")
			logLevel, _ := cmd.Flags().GetString("log-level")
			logFormat, _ := cmd.Flags().GetString("log-format")

			cfg := cfgpkg.Default()
			if configPath != "" {
				loaded, err := cfgpkg.Load(configPath)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				cfg = loaded
			}
			cfgpkg.FromEnv(&cfg)
			if httpAddr != "" {
				cfg.HTTPAddr = httpAddr
			}
			if archiveDir != "" {
				cfg.ArchiveDir = archiveDir
			}
			if bucketCap > 0 {
				cfg.BucketCapacity = bucketCap
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			logger := logpkg.FromEnv(logLevel, logFormat)
			if err := serverrun.Run(ctx, serverrun.Options{
				HTTPAddr: cfg.HTTPAddr,
				Config:   cfg,
				Logger:   logger,
			}); err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			return nil
		},
	}
	serverStartCmd.Flags().String("config", os.Getenv("LOGTAP_CONFIG"), "Config file (JSON or YAML)")
	serverStartCmd.Flags().String("http", "", "HTTP listen address (default from config, :8787)")
	serverStartCmd.Flags().String("archive-dir", os.Getenv("LOGTAP_ARCHIVE_DIR"), "Enable the Pebble archive sink at this directory")
	serverStartCmd.Flags().Int("bucket-capacity", 0, "Events kept per topic bucket (default 500)")
	serverStartCmd.Flags().String("log-level", os.Getenv("LOGTAP_LOG_LEVEL"), "Log level: debug|info|warn|error")
	serverStartCmd.Flags().String("log-format", os.Getenv("LOGTAP_LOG_FORMAT"), "Log format: text|json")
	serverCmd.AddCommand(serverStartCmd)
	rootCmd.AddCommand(serverCmd)

	rootCmd.AddCommand(clientcmd.NewLogsCommand(apiURL))
	rootCmd.AddCommand(clientcmd.NewStatusCommand(apiURL))
	rootCmd.AddCommand(clientcmd.NewMCPCommand(apiURL, version))
	rootCmd.AddCommand(clientcmd.NewArchiveCommand())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func apiURL() string {
	if v := os.Getenv("LOGTAP_SERVER"); v != "" {
		return v
	}
	return "http://127.0.0.1:8787"
}

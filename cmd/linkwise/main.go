package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"linkwise/internal/config"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "linkwise",
		Short:         "Linkwise bookmarks with AI summaries, and Turbo-Do",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "./configs", "directory containing config.yaml")

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "run the link API, auth API and dashboard pages",
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, log, err := setup(configPath, os.Stdout)
				if err != nil {
					return err
				}
				return runServer(cmd.Context(), cfg, log)
			},
		},
		&cobra.Command{
			Use:   "bot",
			Short: "run the Telegram front-end against the link API",
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, log, err := setup(configPath, os.Stdout)
				if err != nil {
					return err
				}
				return runBot(cmd.Context(), cfg, log)
			},
		},
		&cobra.Command{
			Use:   "console",
			Short: "run the interactive terminal front-end against the link API",
			RunE: func(cmd *cobra.Command, args []string) error {
				// Logs go to stderr so they do not interleave with the console screen.
				cfg, log, err := setup(configPath, os.Stderr)
				if err != nil {
					return err
				}
				return runConsole(cmd.Context(), cfg, log)
			},
		},
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setup loads configuration and builds the JSON logger.
func setup(configPath string, out *os.File) (config.Config, *logrus.Logger, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("loading configuration: %w", err)
	}

	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(out)
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", cfg.LogLevel, err)
	}
	log.SetLevel(level)

	log.WithFields(logrus.Fields{
		"config_path": configPath,
		"log_level":   level.String(),
	}).Info("Configuration loaded successfully")
	return cfg, log, nil
}

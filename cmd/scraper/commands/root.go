package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/cristian-franco-ml/Hotel-v2/config"
	"github.com/cristian-franco-ml/Hotel-v2/utils"
)

var (
	configPath string
	logLevel   string

	cfg    config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "scraper",
	Short: "scraper collects hotel room prices, nearby events and price forecasts.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()

		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
		if logLevel != "" {
			cfg.LogLevel = logLevel
		}
		logger = utils.NewLogger(os.Stderr, cfg.LogLevel)
		slog.SetDefault(logger)
		return nil
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "hotelscraper.json5", "Config file; <name>.local.<ext> is merged on top.")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override LOG_LEVEL (debug, info, warn, error).")
}

func ExecuteContext(ctx context.Context) {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// writeOutput picks JSON or CSV from the file extension. csvFn is nil when
// the command has no CSV form.
func writeOutput(path string, v any, csvFn func(string) (int, error)) error {
	if path == "" {
		return nil
	}
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		if csvFn == nil {
			return fmt.Errorf("%s: csv output not supported here", path)
		}
		n, err := csvFn(path)
		if err != nil {
			return err
		}
		logger.Info("csv written", "path", path, "rows", n)
		return nil
	}
	if err := utils.WriteJSON(path, v); err != nil {
		return err
	}
	logger.Info("json written", "path", path)
	return nil
}

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/GetMystAdmin/hot-pot/internal/config"
	"github.com/GetMystAdmin/hot-pot/internal/logger"
	"github.com/GetMystAdmin/hot-pot/internal/update"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	flagConfig  string
	flagEnv     string
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:   "hotpot",
	Short: "Personalized news rendered into the sites you visit",
	Long: `hotpot rewrites a cached copy of a page so its repeated section carries
news posts written for your personality. Pages without a cached copy are
shown live and can be rebuilt from a screenshot.`,
	SilenceUsage: true,
	RunE:         runTUI,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config file")
	rootCmd.PersistentFlags().StringVar(&flagEnv, "env", ".env", "path to a .env file with API credentials")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "also log to stderr")

	versionCmd.Flags().BoolVar(&flagCheckUpdate, "check", false, "Ask GitHub whether a newer release exists")
	rootCmd.AddCommand(versionCmd)
}

var flagCheckUpdate bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "hotpot %s (commit: %s, built: %s)\n", version, commit, date)
		if !flagCheckUpdate {
			return
		}
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		if latest := update.Latest(ctx, version); latest != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "update available: %s\n", latest)
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), "up to date")
		}
	},
}

// loadConfig reads the .env file and the config file, in that order.
func loadConfig() (*config.Config, error) {
	if err := config.LoadEnv(flagEnv); err != nil {
		return nil, err
	}
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (logger.Logger, error) {
	log, err := logger.New(logger.Config{
		Level:      cfg.Log.Level,
		File:       cfg.LogPath(),
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Stderr:     flagVerbose,
	})
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	return log.With(logger.String("version", version)), nil
}

// setup loads config and a logger for commands that need both.
func setup() (*config.Config, logger.Logger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
}

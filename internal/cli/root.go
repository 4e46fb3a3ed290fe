// Package cli defines the command-line interface for kdapps.
package cli

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/codex-k8s/kdapps/internal/config"
	"github.com/codex-k8s/kdapps/internal/logging"
)

// Options stores global CLI options shared between commands.
type Options struct {
	ConfigPath  string
	StoreDir    string
	Owner       string
	CatalogPath string
	LogLevel    logging.Level

	// Config is the effective configuration, resolved before any subcommand runs.
	Config *config.Config
}

// Execute builds the root command, runs it with the provided args and logger, and returns any error.
func Execute(args []string, logger *slog.Logger) error {
	if logger == nil {
		logger = logging.NewLogger(os.Stderr, logging.LevelInfo)
	}

	rootOpts := &Options{LogLevel: logging.LevelInfo}

	rootCmd := newRootCommand(rootOpts, logger)
	rootCmd.SetArgs(args)

	return rootCmd.Execute()
}

// newRootCommand constructs the root cobra.Command with global flags and subcommands.
func newRootCommand(opts *Options, logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "kdapps",
		Short:         "kdapps fills, prices and validates predefined application templates",
		Long:          "kdapps loads predefined application templates with $NAME|default:value|label$ fields, expands their plans with resource and price info, and renders ready-to-run pod documents.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := resolveConfig(cmd, opts)
			if err != nil {
				return err
			}
			level := logging.ParseLevel(cfg.LogLevel)
			opts.LogLevel = level
			opts.Config = cfg
			logger = logging.NewLogger(cmd.ErrOrStderr(), level)
			cmd.SetContext(context.WithValue(cmd.Context(), loggerKey{}, logger))
			logger.Debug("logger initialized", "level", level, "store", cfg.StoreDir, "owner", cfg.Owner)
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to kdapps.yaml (default ./kdapps.yaml when present)")
	cmd.PersistentFlags().StringVar(&opts.StoreDir, "store", "", "Template store directory")
	cmd.PersistentFlags().StringVar(&opts.Owner, "owner", "", "Template owner inside the store")
	cmd.PersistentFlags().StringVar(&opts.CatalogPath, "catalog", "", "Kube type catalog file (.yaml or .toml)")
	cmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		newFieldsCommand(opts),
		newPlansCommand(opts),
		newRenderCommand(opts),
		newValidateCommand(opts),
		newCheckCommand(opts),
		newSaveCommand(opts),
		newListCommand(opts),
		newDeleteCommand(opts),
	)

	return cmd
}

// resolveConfig loads the configuration and applies explicitly set global flags on top of it.
func resolveConfig(cmd *cobra.Command, opts *Options) (*config.Config, error) {
	var base baseEnv
	if err := parseEnv(&base); err != nil {
		return nil, err
	}
	path := opts.ConfigPath
	if !cmd.Flags().Changed("config") && base.ConfigPath != "" {
		path = base.ConfigPath
	}

	cfg, err := config.Load(config.LoadOptions{Path: path})
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("store") {
		cfg.StoreDir = opts.StoreDir
	}
	if cmd.Flags().Changed("owner") {
		cfg.Owner = opts.Owner
	}
	if cmd.Flags().Changed("catalog") {
		cfg.CatalogPath = opts.CatalogPath
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = cmd.Flag("log-level").Value.String()
	}
	return cfg, nil
}

// loggerKey is a private context key used to store a logger in command contexts.
type loggerKey struct{}

// LoggerFromContext extracts a logger from the context or falls back to a default logger.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return logging.NewLogger(os.Stderr, logging.LevelInfo)
	}
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok && l != nil {
		return l
	}
	return logging.NewLogger(os.Stderr, logging.LevelInfo)
}

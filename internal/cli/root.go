package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Daunte502/RNG/internal/config"
	"github.com/Daunte502/RNG/internal/db"
	"github.com/Daunte502/RNG/internal/domain"
)

// RootOptions holds global flags and the state shared by subcommands.
type RootOptions struct {
	ConfigPath string

	Config *config.Config
	Logger *slog.Logger

	// OpenStore is replaced in tests.
	OpenStore func(ctx context.Context, cfg *config.Config, logger *slog.Logger) (domain.UpdateStore, error)
}

func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{OpenStore: openMongoStore})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "elet2415",
		Short:         "Lab device update store",
		Long:          "Records LED/number updates from the ELET2415 lab board in MongoDB and reports on them.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.ConfigPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			opts.Config = cfg
			opts.Logger = newLogger(cfg.Log, cmd.ErrOrStderr())
			slog.SetDefault(opts.Logger)
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to YAML config (env vars override it)")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewRecordCommand(opts))
	cmd.AddCommand(NewFrequencyCommand(opts))
	cmd.AddCommand(NewOnCountCommand(opts))

	return cmd
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	cmd := NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	return 0
}

func openMongoStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (domain.UpdateStore, error) {
	client, err := db.NewMongoConnection(ctx, cfg.Mongo(), logger)
	if err != nil {
		return nil, err
	}
	return db.NewUpdateStore(client, db.WithLogger(logger), db.WithTimeout(cfg.DB.Timeout)), nil
}

func newLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(cfg.Level))); err != nil {
		level = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts))
}

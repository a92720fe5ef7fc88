package main

import (
	"context"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/campusnav/campus-navigator-go/internal/config"
	domerrors "github.com/campusnav/campus-navigator-go/internal/errors"
	"github.com/campusnav/campus-navigator-go/internal/logger"
	"github.com/campusnav/campus-navigator-go/internal/storage"
)

var (
	dbPath  string
	verbose bool
	noColor bool
)

var rootCmd = &cobra.Command{
	Use:   "campusctl",
	Short: "Manage the Campus Navigator dataset",
	Long: `campusctl prepares the dataset the Campus Navigator server answers from.

Seed the building catalog, ingest knowledge text files, publish the result
to R2 for running servers to pick up, or try queries against the local copy.
Configuration is read from CAMPUS_* environment variables and .env.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColor {
			color.NoColor = true
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database path (default: CAMPUS_DATA_DIR/CAMPUS_DB_FILE)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
}

// env bundles what every subcommand needs.
type env struct {
	cfg *config.Config
	log *logger.Logger
	db  *storage.DB
}

// openEnv loads configuration and opens the database. Logs go to stderr so
// stdout stays clean for command output.
func openEnv(ctx context.Context) (*env, error) {
	wrap := domerrors.NewWrapper("campusctl", "open_env")

	cfg, err := config.Load()
	if err != nil {
		return nil, wrap.Wrap(err, "Configuration is invalid, check the CAMPUS_* variables")
	}
	level := cfg.Server.LogLevel
	if verbose {
		level = "debug"
	}
	log := logger.NewWithWriter(level, os.Stderr).WithModule("campusctl")

	path := dbPath
	if path == "" {
		path = cfg.SQLitePath()
		if err := os.MkdirAll(cfg.Data.DataDir, 0o755); err != nil {
			return nil, wrap.Wrapf(err, "Cannot create data directory %s", cfg.Data.DataDir)
		}
	}
	db, err := storage.New(ctx, path)
	if err != nil {
		return nil, wrap.Wrapf(err, "Cannot open database %s", path)
	}
	log.WithField("path", path).Debug("Database opened")
	return &env{cfg: cfg, log: log, db: db}, nil
}

func (e *env) Close() {
	if err := e.db.Close(); err != nil {
		e.log.WithError(err).Warn("Database close error")
	}
}

package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"mediashelf/internal/config"
	"mediashelf/internal/database"
	"mediashelf/internal/utils"
)

// Version is set at build time via ldflags.
var Version = "dev"

var (
	flagConfig string
	flagDebug  bool
)

var (
	cfg     *config.Config
	logger  *utils.Logger
	logFile *os.File
)

var rootCmd = &cobra.Command{
	Use:   "mediashelf",
	Short: "Movie, TV and book catalog backend with a personal library",
	Long:  `mediashelf proxies TMDB and Google Books behind one normalized media API
and keeps a local library of saved items, reviews and tags.

Run without a subcommand to start the HTTP server.`,
	Version:            Version,
	SilenceUsage:       true,
	PersistentPreRunE:  loadConfig,
	PersistentPostRunE: closeLog,
	RunE:               runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "config.yml", "Path to configuration file (.yml or .toml)")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(showCmd)
}

// loadConfig loads the configuration and sets up logging for every command.
// The server logs to stdout; the other commands keep stdout for their output.
func loadConfig(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if flagDebug {
		cfg.App.Debug = true
	}

	var console io.Writer = os.Stderr
	if cmd == cmd.Root() || cmd.Name() == "serve" {
		console = os.Stdout
	}

	if err := os.MkdirAll(cfg.App.DataPath, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	logFile, err = os.OpenFile(filepath.Join(cfg.App.DataPath, "app.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}

	logger = utils.NewLogger(cfg.App.Debug, console, logFile)
	return nil
}

func closeLog(cmd *cobra.Command, args []string) error {
	if logFile != nil {
		return logFile.Close()
	}
	return nil
}

// openDatabase opens the library database and brings its schema up to date.
func openDatabase(ctx context.Context) (*sql.DB, error) {
	db, err := database.NewSQLite(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	if err := database.RunMigrations(ctx, db, logger); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return db, nil
}

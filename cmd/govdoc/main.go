// Package main is the govdoc command line: render documents, allocate and
// check document numbers against a local SQLite database.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"govdoc/internal/core/apperror"
	appctx "govdoc/internal/core/context"
	"govdoc/internal/core/numerator"
	"govdoc/internal/domain/numbering"
	"govdoc/internal/infrastructure/storage/sqlite"
	"govdoc/pkg/logger"
)

var version = "dev"

// Global flags.
var (
	dbPath        string
	logLevel      string
	ministryCode  string
	ministryReset string
)

var rootCmd = &cobra.Command{
	Use:           "govdoc",
	Short:         "Issue official government documents",
	Long:          `Render numbered official documents to PDF and manage their number sequences.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Version:       version,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&dbPath, "db", "", "SQLite database path (default ~/.govdoc/govdoc.db)")
	flags.StringVar(&logLevel, "log-level", "warn", "Log level: debug, info, warn, error")
	flags.StringVar(&ministryCode, "ministry-code", "MT", "Two-letter ministry code")
	flags.StringVar(&ministryReset, "ministry-reset", "year", "Ministry counter reset: year, month or never")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCode(err))
	}
}

// exitCode is 2 for errors caused by the input and 1 otherwise.
func exitCode(err error) int {
	if appErr, ok := apperror.AsAppError(err); ok && appErr.HTTPStatus < 500 {
		return 2
	}
	return 1
}

// commandContext returns a context carrying the CLI logger.
func commandContext(cmd *cobra.Command) context.Context {
	log, err := logger.New(logger.Config{
		Level:       logLevel,
		Development: true,
		OutputPaths: []string{"stderr"},
	})
	if err != nil {
		log = logger.Nop()
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = appctx.EnsureTrace(ctx)
	return logger.WithLogger(ctx, log.WithComponent("cli"))
}

// openStore opens the SQLite database named by --db.
func openStore() (*sqlite.Store, error) {
	store, err := sqlite.NewStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return store, nil
}

// numberingService builds the numbering service over store.
func numberingService(store *sqlite.Store) (*numbering.Service, error) {
	reset, err := numerator.ParseResetPeriod(ministryReset)
	if err != nil {
		return nil, err
	}
	cfg := numerator.DefaultConfig(ministryCode)
	cfg.MinistryReset = reset
	return numbering.NewService(numbering.ServiceConfig{
		Store:  store.Sequences(),
		Config: cfg,
	}), nil
}

// printJSON writes v indented to the command output.
func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

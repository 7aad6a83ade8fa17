package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/JonMunkholm/cardimport/internal/config"
	"github.com/JonMunkholm/cardimport/internal/core"
	"github.com/JonMunkholm/cardimport/internal/database"
	"github.com/JonMunkholm/cardimport/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type importOptions struct {
	file      string
	limit     int
	batchSize int
}

func newImportCmd(lookup config.LookupFunc) *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import new cards from a CSV file",
		Long: "Streams the CSV source into the cards table inside a single transaction.\n" +
			"Cards whose uuid is already stored are skipped. Any error rolls the whole run back.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(lookup, cmd.Flags(), opts)
			if err != nil {
				return withCode(exitUsage, err)
			}
			return runImport(cmd.Context(), cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "Source CSV file (default: IMPORT_FILE)")
	cmd.Flags().IntVarP(&opts.limit, "limit", "l", 0, "Maximum number of source rows to examine")
	cmd.Flags().IntVar(&opts.batchSize, "batch-size", 0, "Cards persisted per flush (default: IMPORT_BATCH_SIZE)")

	return cmd
}

// resolveConfig loads the environment configuration and applies the flags
// that were set explicitly.
func resolveConfig(lookup config.LookupFunc, flags *pflag.FlagSet, opts importOptions) (*config.Config, error) {
	cfg, err := config.LoadFrom(lookup)
	if err != nil {
		return nil, err
	}

	if flags.Changed("file") {
		cfg.Import.File = opts.file
	}
	if flags.Changed("limit") {
		if opts.limit <= 0 {
			return nil, fmt.Errorf("--limit must be a positive integer, got %d", opts.limit)
		}
		cfg.Import.Limit = opts.limit
	}
	if flags.Changed("batch-size") {
		cfg.Import.BatchSize = opts.batchSize
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runImport(ctx context.Context, cfg *config.Config, out, errOut io.Writer) error {
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Debug("configuration loaded", "config", cfg.String())

	if cfg.Import.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Import.Timeout)
		defer cancel()
	}

	// Source problems are reported before the database is touched.
	if err := core.CheckSource(cfg.Import.File); err != nil {
		return reportFailure(errOut, err)
	}

	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		fmt.Fprintf(errOut, "Unable to connect to database: %v\n", err)
		return withCode(exitFailure, err)
	}
	defer pool.Close()

	store := database.New(pool, cfg.Import.Table, database.WithInsertFallback(!cfg.Import.UseCopy))

	importer := core.NewImporter(store, core.ImporterConfig{
		BatchSize:     cfg.Import.BatchSize,
		Limit:         cfg.Import.Limit,
		ReclaimMemory: cfg.Import.ReclaimMemory,
		Build:         core.BuildOptions{UnescapeText: cfg.Import.UnescapeText},
	}, core.WithRunObserver(core.MultiObserver{
		core.LogObserver{},
		core.NewProgressIndicator(out),
	}))

	res, err := importer.Run(ctx, cfg.Import.File)
	if err != nil {
		return reportFailure(errOut, err)
	}

	fmt.Fprintln(out, summary(res))
	return nil
}

// reportFailure prints the coded user message for err and its details.
func reportFailure(errOut io.Writer, err error) error {
	fmt.Fprintln(errOut, core.FormatUserError(err))
	fmt.Fprintf(errOut, "Details: %v\n", err)
	return withCode(exitFailure, err)
}

func summary(res *core.RunResult) string {
	return fmt.Sprintf("Imported %d cards (processed %d) in %.2f seconds.",
		res.Imported, res.Processed, res.Elapsed.Seconds())
}

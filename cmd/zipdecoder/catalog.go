package main

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/jchantrell/zipdecoder/internal/database"
	"github.com/jchantrell/zipdecoder/internal/utils"
	"github.com/spf13/cobra"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog ARCHIVE...",
	Short: "Record archive entries into the SQLite catalog",
	Long: `Catalog reads the central directory of each archive and stores its entries
in the catalog database, replacing any earlier record of the same archive.
Use the query command to inspect the result.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		db, err := database.NewDatabase(database.DefaultDatabaseOptions(cfg.Database))
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer db.Close()

		catalog := database.NewCatalog(db, nil)
		if err := catalog.EnsureSchema(ctx); err != nil {
			return err
		}

		progress := utils.NewProgress(len(args), progressEnabled())
		defer progress.Finish()

		var recorded int64
		for i, path := range args {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("catalog canceled: %w", err)
			}

			reader, err := openArchive(path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}

			entries, err := reader.Entries()
			if err != nil {
				return fmt.Errorf("%s: reading central directory: %w", path, err)
			}

			abs, err := filepath.Abs(path)
			if err != nil {
				abs = path
			}

			if _, err := catalog.RecordArchive(ctx, abs, reader.Size(), entries); err != nil {
				return fmt.Errorf("recording %s: %w", path, err)
			}

			recorded += int64(len(entries))
			progress.Update(i+1, filepath.Base(path))

			if !progress.Enabled() {
				slog.Info("Recorded archive", "archive", abs, "entries", len(entries))
			}
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Archives recorded: %d, entries: %s\n", len(args), utils.Number(recorded))
		fmt.Fprintln(cmd.OutOrStdout(), "Try running: zipdecoder query --tables")

		return nil
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd)
}

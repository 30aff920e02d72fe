package main

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/jchantrell/zipdecoder/internal/database"
	"github.com/spf13/cobra"
)

var queryCmd = &cobra.Command{
	Use:   "query [SQL]",
	Short: "Query the catalog database directly from command line",
	Long: `Query allows you to execute SQL queries against the archive catalog,
list available tables, show table schemas, or print the recorded entries of
one archive.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		listTables, err := cmd.Flags().GetBool("tables")
		if err != nil {
			return fmt.Errorf("failed to get tables flag: %w", err)
		}
		schemaTable, err := cmd.Flags().GetString("schema")
		if err != nil {
			return fmt.Errorf("failed to get schema flag: %w", err)
		}
		entriesOf, err := cmd.Flags().GetString("entries")
		if err != nil {
			return fmt.Errorf("failed to get entries flag: %w", err)
		}

		slog.Debug("Query parameters",
			"database", cfg.Database,
			"list-tables", listTables,
			"schema", schemaTable,
			"entries", entriesOf)

		db, err := database.NewDatabase(database.DefaultDatabaseOptions(cfg.Database))
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer db.Close()

		// Handle --tables flag
		if listTables {
			names, err := db.TableNames(ctx)
			if err != nil {
				return err
			}

			fmt.Fprintln(out, "Available tables:")
			for _, name := range names {
				fmt.Fprintf(out, "  %s\n", name)
			}
			return nil
		}

		// Handle --schema flag
		if schemaTable != "" {
			rows, err := db.Query(ctx, `SELECT name, type, "notnull", pk FROM pragma_table_info(?)`, schemaTable)
			if err != nil {
				return fmt.Errorf("getting schema for table %s: %w", schemaTable, err)
			}
			defer rows.Close()

			fmt.Fprintf(out, "Schema for table '%s':\n", schemaTable)
			fmt.Fprintf(out, "%-20s %-15s %-10s %-10s\n", "Column", "Type", "NotNull", "Primary")
			fmt.Fprintln(out, strings.Repeat("-", 60))

			for rows.Next() {
				var name, dataType string
				var notNull, primaryKey int
				if err := rows.Scan(&name, &dataType, &notNull, &primaryKey); err != nil {
					return fmt.Errorf("scanning schema row: %w", err)
				}

				fmt.Fprintf(out, "%-20s %-15s %-10s %-10s\n", name, dataType, yesNo(notNull), yesNo(primaryKey))
			}

			if err := rows.Err(); err != nil {
				return fmt.Errorf("iterating schema: %w", err)
			}

			return nil
		}

		// Handle --entries flag
		if entriesOf != "" {
			abs, err := filepath.Abs(entriesOf)
			if err != nil {
				abs = entriesOf
			}

			entries, err := database.NewCatalog(db, nil).ListEntries(ctx, abs)
			if err != nil {
				return err
			}

			if len(entries) == 0 {
				return fmt.Errorf("no entries recorded for %s, run: zipdecoder catalog %s", abs, entriesOf)
			}

			for _, e := range entries {
				fmt.Fprintf(out, "%s\t%d\t%d\t%08x\n", e.Name, e.CompressedSize, e.UncompressedSize, e.CRC32)
			}
			return nil
		}

		// Handle SQL query execution
		if len(args) > 0 {
			return printQuery(cmd, db, args[0], out)
		}

		return fmt.Errorf("no query provided, use --tables, --schema <table>, --entries <archive> or pass SQL")
	},
}

func printQuery(cmd *cobra.Command, db *database.Database, query string, out io.Writer) error {
	slog.Debug("Executing SQL query", "query", query)

	rows, err := db.Query(cmd.Context(), query)
	if err != nil {
		return fmt.Errorf("executing query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("getting column names: %w", err)
	}

	fmt.Fprintln(out, strings.Join(columns, "\t"))

	separators := make([]string, len(columns))
	for i, col := range columns {
		separators[i] = strings.Repeat("-", len(col))
	}
	fmt.Fprintln(out, strings.Join(separators, "\t"))

	for rows.Next() {
		values := make([]any, len(columns))
		valuePtrs := make([]any, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return fmt.Errorf("scanning row: %w", err)
		}

		cells := make([]string, len(values))
		for i, val := range values {
			switch v := val.(type) {
			case nil:
				cells[i] = "NULL"
			case []byte:
				cells[i] = string(v)
			default:
				cells[i] = fmt.Sprint(v)
			}
		}
		fmt.Fprintln(out, strings.Join(cells, "\t"))
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating rows: %w", err)
	}

	return nil
}

func yesNo(v int) string {
	if v == 0 {
		return "NO"
	}
	return "YES"
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().Bool("tables", false, "List available tables")
	queryCmd.Flags().String("schema", "", "Show schema for specified table")
	queryCmd.Flags().String("entries", "", "Show recorded entries of the specified archive")
}

package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/jchantrell/zipdecoder/internal/archive"
	"github.com/jchantrell/zipdecoder/internal/export"
	"github.com/jchantrell/zipdecoder/internal/utils"
	"github.com/spf13/cobra"
)

type ExtractionStats struct {
	StartTime time.Time
	EndTime   time.Time
	Entries   int
	Bytes     int64
}

var (
	toStdout bool
)

var extractCmd = &cobra.Command{
	Use:   "extract ARCHIVE [ENTRY...]",
	Short: "Extract entries from an archive",
	Long: `Extract loads the archive into memory and inflates the named entries into
the output directory, recreating their directory structure. With no entry
names every entry in the central directory is extracted.

Use --stdout to write a single entry to standard output instead.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		stats := &ExtractionStats{
			StartTime: time.Now(),
		}

		reader, err := openArchive(args[0])
		if err != nil {
			return err
		}

		names := args[1:]
		exporter := export.NewExporter(reader, cfg.OutputDir, cfg.Workers)

		if toStdout {
			if len(names) != 1 {
				return fmt.Errorf("--stdout needs exactly one entry name, got %d", len(names))
			}
			return exporter.WriteEntry(cmd.OutOrStdout(), names[0])
		}

		entries, err := reader.Entries()
		if err != nil {
			return fmt.Errorf("reading central directory: %w", err)
		}

		sizes := make(map[string]uint32, len(entries))
		for _, e := range entries {
			sizes[e.Name] = e.UncompressedSize
		}

		if len(names) == 0 {
			names = entryNames(entries)
		}

		if len(names) == 0 {
			slog.Info("Archive has no entries", "archive", args[0])
			return nil
		}

		slog.Info("Extracting entries", "archive", args[0], "count", len(names), "output", cfg.OutputDir)

		progress := utils.NewProgress(len(names), progressEnabled())
		err = exporter.ExportEntries(cmd.Context(), names, func(current, total int, description string) {
			progress.Update(current, description)
		})
		progress.Finish()
		if err != nil {
			return fmt.Errorf("extracting entries: %w", err)
		}

		stats.EndTime = time.Now()
		stats.Entries = len(names)
		for _, name := range names {
			stats.Bytes += int64(sizes[name])
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Entries extracted: %s\n", utils.Number(int64(stats.Entries)))
		fmt.Fprintf(out, "Bytes written: %s\n", utils.Bytes(stats.Bytes))
		fmt.Fprintf(out, "Total duration: %s\n", utils.Duration(stats.EndTime.Sub(stats.StartTime)))

		return nil
	},
}

// openArchive loads the archive at path with the configured size limit
func openArchive(path string) (*archive.Reader, error) {
	reader, err := archive.Open(path, &archive.ReaderOptions{
		MaxArchiveSize: cfg.MaxArchiveSize,
	})
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}

	slog.Debug("Archive opened", "path", path, "size", reader.Size(), "trailer_offset", reader.TrailerOffset())

	return reader, nil
}

// entryNames picks every extractable entry, skipping (with a warning) the
// non-empty ones stored with a method other than DEFLATE
func entryNames(entries []archive.Entry) []string {
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && e.UncompressedSize > 0 && e.Method != archive.MethodDeflate {
			slog.Warn("Skipping entry with unsupported compression method", "entry", e.Name, "method", e.Method)
			continue
		}
		names = append(names, e.Name)
	}
	return names
}

func init() {
	rootCmd.AddCommand(extractCmd)
	extractCmd.Flags().BoolVar(&toStdout, "stdout", false, "write a single entry to stdout")
}

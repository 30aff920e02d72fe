package main

import (
	"fmt"
	"strings"

	"github.com/jchantrell/zipdecoder/internal/archive"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list ARCHIVE",
	Short: "List the entries of an archive",
	Long: `List walks the archive's central directory and prints every entry with its
compression method, sizes and modification time.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reader, err := openArchive(args[0])
		if err != nil {
			return err
		}

		entries, err := reader.Entries()
		if err != nil {
			return fmt.Errorf("reading central directory: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%-8s %12s %12s  %-19s  %s\n", "Method", "Compressed", "Size", "Modified", "Name")
		fmt.Fprintln(out, strings.Repeat("-", 80))

		var total int64
		for _, e := range entries {
			fmt.Fprintf(out, "%-8s %12d %12d  %-19s  %s\n",
				methodName(e.Method),
				e.CompressedSize,
				e.UncompressedSize,
				e.Modified.Format("2006-01-02 15:04:05"),
				e.Name)
			total += int64(e.UncompressedSize)
		}

		fmt.Fprintln(out, strings.Repeat("-", 80))
		fmt.Fprintf(out, "%d entries, %d bytes uncompressed\n", len(entries), total)

		return nil
	},
}

func methodName(method uint16) string {
	switch method {
	case archive.MethodStore:
		return "stored"
	case archive.MethodDeflate:
		return "deflate"
	default:
		return fmt.Sprintf("m%d", method)
	}
}

func init() {
	rootCmd.AddCommand(listCmd)
}

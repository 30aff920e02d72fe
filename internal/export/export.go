// Package export writes extracted archive entries to disk.
package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// ErrUnsafePath is returned for entry names that would be written outside the output directory
var ErrUnsafePath = errors.New("entry path escapes output directory")

// EntryLoader defines the interface for extracting entries from an archive
type EntryLoader interface {
	Extract(name string) ([]byte, error)
}

// Exporter handles exporting archive entries to disk
type Exporter struct {
	loader    EntryLoader
	outputDir string
	workers   int
}

// NewExporter creates a new entry exporter. workers bounds how many entries
// are extracted at once; values below 1 mean one per CPU.
func NewExporter(loader EntryLoader, outputDir string, workers int) *Exporter {
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	return &Exporter{
		loader:    loader,
		outputDir: outputDir,
		workers:   workers,
	}
}

// ProgressCallback is called to report export progress
type ProgressCallback func(current int, total int, description string)

// ExportEntries extracts the named entries into the output directory. The
// first failure cancels the remaining work and is returned.
func (e *Exporter) ExportEntries(ctx context.Context, names []string, progressCallback ProgressCallback) error {
	if len(names) == 0 {
		return nil
	}

	// Validate everything up front so nothing is written for a bad request
	for _, name := range names {
		if _, err := e.OutputPath(name); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(e.outputDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	var mu sync.Mutex
	processed := 0
	total := len(names)

	for _, name := range names {
		name := name
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			if err := e.exportEntry(name); err != nil {
				return err
			}

			mu.Lock()
			defer mu.Unlock()
			processed++
			if progressCallback != nil {
				progressCallback(processed, total, name)
			}
			return nil
		})
	}

	return g.Wait()
}

// WriteEntry extracts a single entry and copies it to w
func (e *Exporter) WriteEntry(w io.Writer, name string) error {
	data, err := e.loader.Extract(name)
	if err != nil {
		return fmt.Errorf("loading entry %s: %w", name, err)
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing entry %s: %w", name, err)
	}

	return nil
}

// OutputPath returns where the entry called name is written. Names are
// slash separated and must stay inside the output directory.
func (e *Exporter) OutputPath(name string) (string, error) {
	rel := filepath.FromSlash(strings.TrimSuffix(name, "/"))
	if !filepath.IsLocal(rel) {
		return "", fmt.Errorf("%w: %q", ErrUnsafePath, name)
	}
	return filepath.Join(e.outputDir, rel), nil
}

func (e *Exporter) exportEntry(name string) error {
	outputPath, err := e.OutputPath(name)
	if err != nil {
		return err
	}

	if strings.HasSuffix(name, "/") {
		if err := os.MkdirAll(outputPath, 0755); err != nil {
			return fmt.Errorf("creating directory %s: %w", outputPath, err)
		}
		return nil
	}

	data, err := e.loader.Extract(name)
	if err != nil {
		return fmt.Errorf("loading entry %s: %w", name, err)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", outputPath, err)
	}

	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		return fmt.Errorf("writing file %s: %w", outputPath, err)
	}

	slog.Debug("Exported entry", "entry", name, "output", outputPath, "size", len(data))

	return nil
}

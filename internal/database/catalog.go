package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/jchantrell/zipdecoder/internal/archive"
)

const catalogSchema = `
CREATE TABLE IF NOT EXISTS archives (
	id          INTEGER PRIMARY KEY,
	path        TEXT NOT NULL UNIQUE,
	size        INTEGER NOT NULL,
	entry_count INTEGER NOT NULL,
	recorded_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS entries (
	archive_id          INTEGER NOT NULL REFERENCES archives(id) ON DELETE CASCADE,
	position            INTEGER NOT NULL,
	name                TEXT NOT NULL,
	method              INTEGER NOT NULL,
	flags               INTEGER NOT NULL,
	crc32               INTEGER NOT NULL,
	compressed_size     INTEGER NOT NULL,
	uncompressed_size   INTEGER NOT NULL,
	local_header_offset INTEGER NOT NULL,
	modified            TEXT NOT NULL,
	PRIMARY KEY (archive_id, position)
);
CREATE INDEX IF NOT EXISTS entries_name ON entries(name);
`

const insertEntrySQL = `INSERT INTO entries (
	archive_id, position, name, method, flags, crc32,
	compressed_size, uncompressed_size, local_header_offset, modified
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// Catalog records the central directories of archives
type Catalog struct {
	db        *Database
	batchSize int
}

// CatalogOptions configures catalog writes
type CatalogOptions struct {
	// BatchSize determines how many entries are inserted between progress logs
	BatchSize int
}

// DefaultCatalogOptions returns sensible defaults for catalog writes
func DefaultCatalogOptions() *CatalogOptions {
	return &CatalogOptions{
		BatchSize: 1000,
	}
}

// NewCatalog creates a catalog on top of db
func NewCatalog(db *Database, options *CatalogOptions) *Catalog {
	if options == nil || options.BatchSize < 1 {
		options = DefaultCatalogOptions()
	}

	return &Catalog{
		db:        db,
		batchSize: options.BatchSize,
	}
}

// EnsureSchema creates the catalog tables if they do not exist
func (c *Catalog) EnsureSchema(ctx context.Context) error {
	if _, err := c.db.Exec(ctx, catalogSchema); err != nil {
		return fmt.Errorf("creating catalog schema: %w", err)
	}
	return nil
}

// RecordArchive stores an archive and its entries, replacing anything
// previously recorded for the same path. The replacement is all or nothing:
// on error the previous record is left as it was. It returns the archive id.
func (c *Catalog) RecordArchive(ctx context.Context, path string, size int64, entries []archive.Entry) (int64, error) {
	tx, err := c.db.BeginTx(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback() // Safe to call even after commit

	if _, err := tx.ExecContext(ctx, `DELETE FROM entries WHERE archive_id IN (SELECT id FROM archives WHERE path = ?)`, path); err != nil {
		return 0, fmt.Errorf("removing previous entries for %s: %w", path, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM archives WHERE path = ?`, path); err != nil {
		return 0, fmt.Errorf("removing previous record for %s: %w", path, err)
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO archives (path, size, entry_count, recorded_at) VALUES (?, ?, ?, ?)`,
		path, size, len(entries), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("inserting archive %s: %w", path, err)
	}

	archiveID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading archive id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, insertEntrySQL)
	if err != nil {
		return 0, fmt.Errorf("preparing insert statement: %w", err)
	}
	defer stmt.Close()

	for i := 0; i < len(entries); i += c.batchSize {
		end := min(i+c.batchSize, len(entries))

		if err := insertBatch(ctx, stmt, archiveID, i, entries[i:end]); err != nil {
			return 0, fmt.Errorf("inserting entries %d-%d for %s: %w", i, end-1, path, err)
		}
		slog.Debug("Inserted entry batch", "path", path, "first", i, "last", end-1)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing transaction: %w", err)
	}

	slog.Debug("Recorded archive", "path", path, "archive_id", archiveID, "entries", len(entries))

	return archiveID, nil
}

// insertBatch inserts entries with the prepared insert statement. first is
// the central directory position of batch[0].
func insertBatch(ctx context.Context, stmt *sql.Stmt, archiveID int64, first int, batch []archive.Entry) error {
	for i, e := range batch {
		if _, err := stmt.ExecContext(ctx,
			archiveID,
			first+i,
			e.Name,
			e.Method,
			e.Flags,
			e.CRC32,
			e.CompressedSize,
			e.UncompressedSize,
			e.LocalHeaderOffset,
			e.Modified.UTC().Format(time.RFC3339),
		); err != nil {
			return fmt.Errorf("inserting entry %s: %w", e.Name, err)
		}
	}
	return nil
}

// ListEntries returns the recorded entries of the archive at path in
// central directory order
func (c *Catalog) ListEntries(ctx context.Context, path string) ([]archive.Entry, error) {
	rows, err := c.db.Query(ctx, `
		SELECT e.name, e.method, e.flags, e.crc32, e.compressed_size,
		       e.uncompressed_size, e.local_header_offset, e.modified
		FROM entries e JOIN archives a ON a.id = e.archive_id
		WHERE a.path = ?
		ORDER BY e.position`, path)
	if err != nil {
		return nil, fmt.Errorf("listing entries for %s: %w", path, err)
	}
	defer rows.Close()

	entries := make([]archive.Entry, 0)
	for rows.Next() {
		var e archive.Entry
		var modified string
		if err := rows.Scan(&e.Name, &e.Method, &e.Flags, &e.CRC32, &e.CompressedSize,
			&e.UncompressedSize, &e.LocalHeaderOffset, &modified); err != nil {
			return nil, fmt.Errorf("scanning entry: %w", err)
		}
		e.Modified, err = time.Parse(time.RFC3339, modified)
		if err != nil {
			return nil, fmt.Errorf("parsing modified time of %s: %w", e.Name, err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating entries: %w", err)
	}

	return entries, nil
}

// ArchiveCount returns how many archives are recorded
func (c *Catalog) ArchiveCount(ctx context.Context) (int, error) {
	rows, err := c.db.Query(ctx, `SELECT COUNT(*) FROM archives`)
	if err != nil {
		return 0, fmt.Errorf("counting archives: %w", err)
	}
	defer rows.Close()

	var count int
	if rows.Next() {
		if err := rows.Scan(&count); err != nil {
			return 0, fmt.Errorf("counting archives: %w", err)
		}
	}
	return count, rows.Err()
}

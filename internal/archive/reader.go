// Package archive reads single entries out of a ZIP archive held entirely in
// memory. The archive is loaded once, its end of central directory record is
// located by scanning backwards for the record signature, and entries are
// resolved by walking the central directory and following each match to its
// local file header and raw DEFLATE payload.
package archive

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Reader holds one archive buffer. Load may only succeed once per Reader;
// after that the buffer is never modified, so Resolve, Extract and Entries
// may be called from multiple goroutines.
type Reader struct {
	data          []byte
	trailerOffset int64
	loaded        bool
	maxSize       int64
}

// ReaderOptions configures a Reader
type ReaderOptions struct {
	// MaxArchiveSize caps the number of bytes Load will buffer
	MaxArchiveSize int64
}

// DefaultReaderOptions returns the options used when NewReader is given nil
func DefaultReaderOptions() *ReaderOptions {
	return &ReaderOptions{
		MaxArchiveSize: DefaultMaxArchiveSize,
	}
}

// NewReader creates an empty reader
func NewReader(options *ReaderOptions) *Reader {
	if options == nil {
		options = DefaultReaderOptions()
	}

	maxSize := options.MaxArchiveSize
	if maxSize <= 0 {
		maxSize = DefaultMaxArchiveSize
	}

	return &Reader{
		maxSize: maxSize,
	}
}

// Open is a convenience for NewReader followed by Load
func Open(path string, options *ReaderOptions) (*Reader, error) {
	r := NewReader(options)
	if err := r.Load(path); err != nil {
		return nil, err
	}
	return r, nil
}

// Load reads the whole file at path into memory and locates its end of
// central directory record. A failed Load leaves the reader empty.
func (r *Reader) Load(path string) error {
	if r.loaded {
		return fmt.Errorf("loading %s: %w", path, ErrAlreadyLoaded)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrOpenFailure, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrOpenFailure, err)
	}

	size := info.Size()
	if size < 0 || size > r.maxSize {
		return fmt.Errorf("%w: %s is %d bytes, limit is %d", ErrAllocation, path, size, r.maxSize)
	}

	data := make([]byte, size)
	if _, err := io.ReadFull(f, data); err != nil {
		return fmt.Errorf("%w: reading %s: %w", ErrOpenFailure, path, err)
	}

	if err := r.LoadBytes(data); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}

	return nil
}

// LoadBytes adopts data as the archive buffer. The reader takes ownership of
// data; the caller must not modify it afterwards.
func (r *Reader) LoadBytes(data []byte) error {
	if r.loaded {
		return ErrAlreadyLoaded
	}

	if int64(len(data)) > r.maxSize {
		return fmt.Errorf("%w: %d bytes, limit is %d", ErrAllocation, len(data), r.maxSize)
	}

	trailer, err := findTrailer(data)
	if err != nil {
		return err
	}

	r.data = data
	r.trailerOffset = trailer
	r.loaded = true

	slog.Debug("Archive loaded", "size", len(data), "trailer_offset", trailer)

	return nil
}

// Loaded reports whether the reader holds an archive
func (r *Reader) Loaded() bool {
	return r.loaded
}

// Size returns the length of the archive buffer
func (r *Reader) Size() int64 {
	return int64(len(r.data))
}

// TrailerOffset returns the position of the end of central directory record
func (r *Reader) TrailerOffset() int64 {
	return r.trailerOffset
}

// findTrailer scans backwards from the last possible position for the end of
// central directory signature. The record may be followed by a comment of any
// length, so the last occurrence wins.
func findTrailer(data []byte) (int64, error) {
	if len(data) < 4 {
		return 0, fmt.Errorf("%w: %d bytes is too short", ErrInvalidFormat, len(data))
	}

	for off := len(data) - 4; off >= 0; off-- {
		if binary.LittleEndian.Uint32(data[off:]) == endOfCentralDirectorySignature {
			return int64(off), nil
		}
	}

	return 0, fmt.Errorf("%w: end of central directory signature not found", ErrInvalidFormat)
}

// readRecord decodes a fixed-size little endian record at off
func (r *Reader) readRecord(v any, off int64, n int) error {
	b, err := r.slice(off, int64(n))
	if err != nil {
		return err
	}
	return binary.Read(bytes.NewReader(b), binary.LittleEndian, v)
}

// slice returns data[off:off+n] or ErrCorrupt if that range leaves the buffer
func (r *Reader) slice(off, n int64) ([]byte, error) {
	if off < 0 || n < 0 || off > int64(len(r.data)) || n > int64(len(r.data))-off {
		return nil, fmt.Errorf("%w: %d bytes at offset %d overrun %d byte archive", ErrCorrupt, n, off, len(r.data))
	}
	return r.data[off : off+n], nil
}

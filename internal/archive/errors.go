package archive

import (
	"errors"
	"io/fs"
)

var (
	// ErrAlreadyLoaded is returned when Load is called on a reader that already holds an archive
	ErrAlreadyLoaded = errors.New("archive already loaded")
	// ErrNotLoaded is returned when an entry is requested before Load succeeded
	ErrNotLoaded = errors.New("archive not loaded")
	// ErrOpenFailure wraps the error from opening or reading the archive file
	ErrOpenFailure = errors.New("unable to open archive")
	// ErrAllocation is returned when the archive is too large to buffer
	ErrAllocation = errors.New("unable to allocate archive buffer")
	// ErrInvalidFormat is returned when no end of central directory record exists
	ErrInvalidFormat = errors.New("not a zip archive")
	// ErrNotFound is returned when the central directory has no entry with the requested name
	ErrNotFound = fs.ErrNotExist
	// ErrCorrupt is returned when a header is truncated, misplaced or inconsistent
	ErrCorrupt = errors.New("corrupt zip archive")
	// ErrInflate is returned when an entry's DEFLATE stream cannot be decoded to its stated size
	ErrInflate = errors.New("inflate failed")
	// ErrUnsupported is returned for archive features this reader does not handle
	ErrUnsupported = errors.New("unsupported zip feature")
)

func notFound(name string) error {
	return &fs.PathError{
		Op:   "open",
		Path: name,
		Err:  fs.ErrNotExist,
	}
}

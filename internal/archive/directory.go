package archive

import (
	"encoding/binary"
	"fmt"
	"log/slog"
)

// directoryStart reads the end of central directory record and returns the
// offset of the first central directory header.
func (r *Reader) directoryStart() (int64, error) {
	if !r.loaded {
		return 0, ErrNotLoaded
	}

	var end endOfCentralDirectory
	if err := r.readRecord(&end, r.trailerOffset, endOfCentralDirectoryLen); err != nil {
		return 0, fmt.Errorf("reading end of central directory at offset %d: %w", r.trailerOffset, err)
	}

	if end.DiskNumber != 0 || end.DiskWithCDStart != 0 || end.EntriesOnDisk != end.TotalEntries {
		return 0, fmt.Errorf("%w: multi-disk archive (disk %d, directory on disk %d)", ErrUnsupported, end.DiskNumber, end.DiskWithCDStart)
	}

	if end.CentralDirOffset == uint32Max || end.CentralDirSize == uint32Max || end.TotalEntries == uint16Max {
		return 0, fmt.Errorf("%w: zip64 archive", ErrUnsupported)
	}

	start := int64(end.CentralDirOffset)
	if start > r.trailerOffset {
		return 0, fmt.Errorf("%w: central directory offset %d is past end record at %d", ErrCorrupt, start, r.trailerOffset)
	}

	return start, nil
}

// walk visits central directory headers in order until visit returns true or
// a record without the header signature is reached. It reports whether visit
// stopped the walk. name aliases the archive buffer and must not be retained.
func (r *Reader) walk(visit func(hdr *centralDirectoryHeader, name []byte) bool) (bool, error) {
	pos, err := r.directoryStart()
	if err != nil {
		return false, err
	}

	// trailerOffset <= len(data)-4, so the signature read below stays in bounds
	for pos < r.trailerOffset {
		if binary.LittleEndian.Uint32(r.data[pos:]) != centralDirectorySignature {
			slog.Debug("Central directory ended", "offset", pos)
			return false, nil
		}

		var hdr centralDirectoryHeader
		if err := r.readRecord(&hdr, pos, centralDirectoryLen); err != nil {
			return false, fmt.Errorf("reading central directory header at offset %d: %w", pos, err)
		}

		name, err := r.slice(pos+centralDirectoryLen, int64(hdr.FilenameLength))
		if err != nil {
			return false, fmt.Errorf("reading file name at offset %d: %w", pos+centralDirectoryLen, err)
		}

		if visit(&hdr, name) {
			return true, nil
		}

		pos += centralDirectoryLen +
			int64(hdr.FilenameLength) +
			int64(hdr.ExtraFieldLength) +
			int64(hdr.CommentLength)
	}

	return false, nil
}

// Resolve finds the entry called name and returns where its payload is
// stored. Names are compared byte for byte. An absent entry yields an
// *fs.PathError wrapping ErrNotFound.
func (r *Reader) Resolve(name string) (Location, error) {
	var found centralDirectoryHeader
	ok, err := r.walk(func(hdr *centralDirectoryHeader, entryName []byte) bool {
		if string(entryName) != name {
			return false
		}
		found = *hdr
		return true
	})
	if err != nil {
		return Location{}, fmt.Errorf("resolving %s: %w", name, err)
	}
	if !ok {
		slog.Debug("Entry not found in central directory", "entry", name)
		return Location{}, notFound(name)
	}

	slog.Debug("Found entry in central directory",
		"entry", name,
		"local_header_offset", found.LocalHeaderOffset,
		"compressed_size", found.CompressedSize,
		"uncompressed_size", found.UncompressedSize)

	loc, err := r.readLocalHeader(name, int64(found.LocalHeaderOffset))
	if err != nil {
		return Location{}, fmt.Errorf("resolving %s: %w", name, err)
	}

	return loc, nil
}

// Entries returns every record of the central directory in stored order
func (r *Reader) Entries() ([]Entry, error) {
	entries := make([]Entry, 0)
	_, err := r.walk(func(hdr *centralDirectoryHeader, name []byte) bool {
		entries = append(entries, Entry{
			Name:              string(name),
			Method:            hdr.Method,
			Flags:             hdr.Flags,
			CRC32:             hdr.CRC32,
			CompressedSize:    hdr.CompressedSize,
			UncompressedSize:  hdr.UncompressedSize,
			LocalHeaderOffset: hdr.LocalHeaderOffset,
			Modified:          msDosTimeToTime(hdr.ModifiedDate, hdr.ModifiedTime),
		})
		return false
	})
	if err != nil {
		return nil, fmt.Errorf("listing entries: %w", err)
	}

	return entries, nil
}

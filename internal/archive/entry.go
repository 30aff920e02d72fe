package archive

import (
	"fmt"
	"log/slog"
)

// readLocalHeader reads the local file header at off, checks that it
// belongs to name and returns the location of the payload that follows it.
func (r *Reader) readLocalHeader(name string, off int64) (Location, error) {
	var lfh localFileHeader
	if err := r.readRecord(&lfh, off, localFileHeaderLen); err != nil {
		return Location{}, fmt.Errorf("reading local file header at offset %d: %w", off, err)
	}

	if lfh.Signature != localFileHeaderSignature {
		return Location{}, fmt.Errorf("%w: bad local file header signature %#08x at offset %d", ErrCorrupt, lfh.Signature, off)
	}

	localName, err := r.slice(off+localFileHeaderLen, int64(lfh.FilenameLength))
	if err != nil {
		return Location{}, fmt.Errorf("reading local file name at offset %d: %w", off+localFileHeaderLen, err)
	}
	if string(localName) != name {
		return Location{}, fmt.Errorf("%w: local file header at offset %d names %q", ErrCorrupt, off, localName)
	}

	payload := off + localFileHeaderLen + int64(lfh.FilenameLength) + int64(lfh.ExtraFieldLength)

	return Location{
		Offset:           payload,
		CompressedSize:   lfh.CompressedSize,
		UncompressedSize: lfh.UncompressedSize,
		Method:           lfh.Method,
		Flags:            lfh.Flags,
		CRC32:            lfh.CRC32,
	}, nil
}

// Extract returns the decompressed contents of the entry called name.
// Only DEFLATE entries whose sizes are recorded in the local header can be
// extracted; anything else fails with ErrUnsupported. Empty entries are
// returned as an empty slice regardless of method.
func (r *Reader) Extract(name string) ([]byte, error) {
	loc, err := r.Resolve(name)
	if err != nil {
		return nil, err
	}

	if loc.Flags&flagEncrypted != 0 {
		return nil, fmt.Errorf("extracting %s: %w: encrypted entry", name, ErrUnsupported)
	}
	if loc.Flags&flagDataDescriptor != 0 {
		return nil, fmt.Errorf("extracting %s: %w: sizes deferred to data descriptor", name, ErrUnsupported)
	}
	// nothing to decode, whatever the method
	if loc.CompressedSize == 0 && loc.UncompressedSize == 0 {
		return []byte{}, nil
	}
	if loc.Method != MethodDeflate {
		return nil, fmt.Errorf("extracting %s: %w: compression method %d", name, ErrUnsupported, loc.Method)
	}

	compressed, err := r.slice(loc.Offset, int64(loc.CompressedSize))
	if err != nil {
		return nil, fmt.Errorf("extracting %s: reading payload: %w", name, err)
	}

	slog.Debug("Inflating entry",
		"entry", name,
		"offset", loc.Offset,
		"compressed_size", loc.CompressedSize,
		"uncompressed_size", loc.UncompressedSize)

	data, err := inflateRaw(compressed, int64(loc.UncompressedSize))
	if err != nil {
		return nil, fmt.Errorf("extracting %s: %w", name, err)
	}

	return data, nil
}

// ReadFile is Extract under the name fs.ReadFileFS callers expect
func (r *Reader) ReadFile(name string) ([]byte, error) {
	return r.Extract(name)
}

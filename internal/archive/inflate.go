package archive

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
)

// inflateRaw decodes a headerless DEFLATE stream that must produce exactly
// expected bytes.
func inflateRaw(compressed []byte, expected int64) ([]byte, error) {
	if expected == 0 {
		return []byte{}, nil
	}

	fr := flate.NewReader(bytes.NewReader(compressed))
	defer fr.Close()

	out := make([]byte, expected)
	n, err := io.ReadFull(fr, out)
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: stream ended after %d of %d bytes", ErrInflate, n, expected)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInflate, err)
	}

	// the stream must end exactly here
	var extra [1]byte
	if n, err := fr.Read(extra[:]); n > 0 {
		return nil, fmt.Errorf("%w: stream holds more than %d bytes", ErrInflate, expected)
	} else if err != nil && err != io.EOF {
		return nil, fmt.Errorf("%w: %w", ErrInflate, err)
	}

	return out, nil
}

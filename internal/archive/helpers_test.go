package archive

import (
	"archive/zip"
	"bytes"
	"compress/flate"
	"encoding/binary"
	"hash/crc32"
	"testing"

	"github.com/stretchr/testify/require"
)

type testFile struct {
	name    string
	content []byte
	method  uint16
}

func deflated(name, content string) testFile {
	return testFile{name: name, content: []byte(content), method: zip.Deflate}
}

func deflate(t *testing.T, data []byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	fw, err := flate.NewWriter(&buf, flate.BestCompression)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, fw.Close())
	return buf.Bytes()
}

// buildArchive writes files with sizes and CRC in the local headers, which
// is what zip.Writer.Create does not do (it always uses data descriptors).
func buildArchive(t *testing.T, files ...testFile) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range files {
		payload := f.content
		if f.method == zip.Deflate {
			payload = deflate(t, f.content)
		}

		w, err := zw.CreateRaw(&zip.FileHeader{
			Name:               f.name,
			Method:             f.method,
			CRC32:              crc32.ChecksumIEEE(f.content),
			CompressedSize64:   uint64(len(payload)),
			UncompressedSize64: uint64(len(f.content)),
		})
		require.NoError(t, err)
		_, err = w.Write(payload)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func loadArchive(t *testing.T, data []byte) *Reader {
	t.Helper()

	r := NewReader(nil)
	require.NoError(t, r.LoadBytes(data))
	return r
}

// trailerOf returns the offset of the end record and the central directory
// start it points at.
func trailerOf(t *testing.T, data []byte) (int, int) {
	t.Helper()

	off, err := findTrailer(data)
	require.NoError(t, err)
	cd := binary.LittleEndian.Uint32(data[off+16:])
	return int(off), int(cd)
}

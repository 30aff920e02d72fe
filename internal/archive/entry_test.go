package archive

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"errors"
	"io/fs"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractRoundTrip(t *testing.T) {
	hello := "Hello, World!\n"
	large := strings.Repeat("the quick brown fox jumps over the lazy dog ", 4096)

	r := loadArchive(t, buildArchive(t,
		deflated("readme.md", "# readme"),
		deflated("hello.txt", hello),
		deflated("nested/large.txt", large),
	))

	got, err := r.Extract("hello.txt")
	require.NoError(t, err)
	assert.Equal(t, hello, string(got))

	got, err = r.Extract("nested/large.txt")
	require.NoError(t, err)
	assert.Equal(t, large, string(got))
}

func TestExtractIdempotent(t *testing.T) {
	r := loadArchive(t, buildArchive(t, deflated("hello.txt", "same bytes every time")))

	first, err := r.Extract("hello.txt")
	require.NoError(t, err)
	second, err := r.ReadFile("hello.txt")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestExtractConcurrent(t *testing.T) {
	files := []testFile{
		deflated("a.txt", strings.Repeat("a", 1000)),
		deflated("b.txt", strings.Repeat("b", 2000)),
		deflated("c.txt", strings.Repeat("c", 3000)),
	}
	r := loadArchive(t, buildArchive(t, files...))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		for _, f := range files {
			wg.Add(1)
			go func(f testFile) {
				defer wg.Done()
				got, err := r.Extract(f.name)
				if assert.NoError(t, err) {
					assert.Equal(t, f.content, got)
				}
			}(f)
		}
	}
	wg.Wait()
}

func TestExtractNotFound(t *testing.T) {
	r := loadArchive(t, buildArchive(t, deflated("hello.txt", "hello")))

	_, err := r.Extract("missing.txt")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)

	var pathErr *fs.PathError
	require.True(t, errors.As(err, &pathErr))
	assert.Equal(t, "missing.txt", pathErr.Path)
}

func TestExtractExactMatchOnly(t *testing.T) {
	r := loadArchive(t, buildArchive(t, deflated("hello.txt", "hello")))

	for _, name := range []string{"hello", "ello.txt", "hello.txt.bak", "HELLO.TXT", "/hello.txt", ""} {
		_, err := r.Extract(name)
		assert.ErrorIs(t, err, ErrNotFound, name)
	}
}

func TestExtractEmptyEntry(t *testing.T) {
	r := loadArchive(t, buildArchive(t, deflated("empty.txt", "")))

	got, err := r.Extract("empty.txt")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Len(t, got, 0)
}

func TestExtractEmptyStoredEntry(t *testing.T) {
	r := loadArchive(t, buildArchive(t, testFile{name: "empty.txt", content: nil, method: zip.Store}))

	loc, err := r.Resolve("empty.txt")
	require.NoError(t, err)
	require.Equal(t, MethodStore, loc.Method)

	got, err := r.Extract("empty.txt")
	require.NoError(t, err)
	assert.Equal(t, []byte{}, got)
}

func TestExtractStoredUnsupported(t *testing.T) {
	r := loadArchive(t, buildArchive(t, testFile{name: "raw.bin", content: []byte("raw"), method: zip.Store}))

	_, err := r.Extract("raw.bin")
	assert.ErrorIs(t, err, ErrUnsupported)

	// resolution itself still works
	loc, err := r.Resolve("raw.bin")
	require.NoError(t, err)
	assert.Equal(t, MethodStore, loc.Method)
	assert.Equal(t, uint32(3), loc.UncompressedSize)
}

func TestExtractDataDescriptorUnsupported(t *testing.T) {
	// zip.Writer.Create defers sizes to a data descriptor
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("streamed.txt")
	require.NoError(t, err)
	_, err = w.Write([]byte("streamed content"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	r := loadArchive(t, buf.Bytes())
	_, err = r.Extract("streamed.txt")
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestExtractEncryptedUnsupported(t *testing.T) {
	data := buildArchive(t, deflated("secret.txt", "secret"))
	// general purpose flags of the first local header
	binary.LittleEndian.PutUint16(data[6:], flagEncrypted)

	_, err := loadArchive(t, data).Extract("secret.txt")
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestResolveLocation(t *testing.T) {
	content := "located"
	data := buildArchive(t, deflated("hello.txt", content))

	loc, err := loadArchive(t, data).Resolve("hello.txt")
	require.NoError(t, err)

	assert.Equal(t, int64(localFileHeaderLen+len("hello.txt")), loc.Offset)
	assert.Equal(t, MethodDeflate, loc.Method)
	assert.Equal(t, uint32(len(content)), loc.UncompressedSize)
	assert.Equal(t, uint32(len(deflate(t, []byte(content)))), loc.CompressedSize)
}

func TestExtractCorrupt(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(data []byte, trailer, cd int) []byte
		want   error
	}{
		{
			name: "central directory past end record",
			mutate: func(data []byte, trailer, cd int) []byte {
				binary.LittleEndian.PutUint32(data[trailer+16:], uint32(trailer+1))
				return data
			},
			want: ErrCorrupt,
		},
		{
			name: "truncated end record",
			mutate: func(data []byte, trailer, cd int) []byte {
				return data[:trailer+10]
			},
			want: ErrCorrupt,
		},
		{
			name: "local header offset out of range",
			mutate: func(data []byte, trailer, cd int) []byte {
				binary.LittleEndian.PutUint32(data[cd+42:], uint32(len(data)-4))
				return data
			},
			want: ErrCorrupt,
		},
		{
			name: "local header offset at central directory",
			mutate: func(data []byte, trailer, cd int) []byte {
				binary.LittleEndian.PutUint32(data[cd+42:], uint32(cd))
				return data
			},
			want: ErrCorrupt,
		},
		{
			name: "local name mismatch",
			mutate: func(data []byte, trailer, cd int) []byte {
				data[localFileHeaderLen] = 'j'
				return data
			},
			want: ErrCorrupt,
		},
		{
			name: "name length overruns buffer",
			mutate: func(data []byte, trailer, cd int) []byte {
				binary.LittleEndian.PutUint16(data[cd+28:], 0xfff0)
				return data
			},
			want: ErrCorrupt,
		},
		{
			name: "compressed size overruns buffer",
			mutate: func(data []byte, trailer, cd int) []byte {
				binary.LittleEndian.PutUint32(data[18:], 0x7fffffff)
				return data
			},
			want: ErrCorrupt,
		},
		{
			name: "multi-disk archive",
			mutate: func(data []byte, trailer, cd int) []byte {
				binary.LittleEndian.PutUint16(data[trailer+4:], 1)
				return data
			},
			want: ErrUnsupported,
		},
		{
			name: "zip64 directory offset",
			mutate: func(data []byte, trailer, cd int) []byte {
				binary.LittleEndian.PutUint32(data[trailer+16:], 0xffffffff)
				return data
			},
			want: ErrUnsupported,
		},
		{
			name: "zip64 entry count",
			mutate: func(data []byte, trailer, cd int) []byte {
				binary.LittleEndian.PutUint16(data[trailer+8:], 0xffff)
				binary.LittleEndian.PutUint16(data[trailer+10:], 0xffff)
				return data
			},
			want: ErrUnsupported,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			data := buildArchive(t, deflated("hello.txt", "hello, corrupt world"))
			trailer, cd := trailerOf(t, data)
			data = tc.mutate(data, trailer, cd)

			r := NewReader(nil)
			require.NoError(t, r.LoadBytes(data))

			_, err := r.Extract("hello.txt")
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestExtractWalkEndsAtBadSignature(t *testing.T) {
	data := buildArchive(t, deflated("a.txt", "a"), deflated("hello.txt", "hello"))
	_, cd := trailerOf(t, data)

	// break the second central directory header's signature
	second := cd + centralDirectoryLen + len("a.txt")
	data[second] = 0

	r := loadArchive(t, data)
	_, err := r.Extract("hello.txt")
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := r.Extract("a.txt")
	require.NoError(t, err)
	assert.Equal(t, "a", string(got))
}

func TestExtractInflateErrors(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(data []byte)
	}{
		{
			name: "garbage stream",
			mutate: func(data []byte) {
				payload := localFileHeaderLen + len("hello.txt")
				for i := 0; i < 4; i++ {
					data[payload+i] = 0xff
				}
			},
		},
		{
			name: "declared size too large",
			mutate: func(data []byte) {
				binary.LittleEndian.PutUint32(data[22:], 1000)
			},
		},
		{
			name: "declared size too small",
			mutate: func(data []byte) {
				binary.LittleEndian.PutUint32(data[22:], 3)
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			data := buildArchive(t, deflated("hello.txt", "hello, inflate errors"))
			tc.mutate(data)

			_, err := loadArchive(t, data).Extract("hello.txt")
			assert.ErrorIs(t, err, ErrInflate)
		})
	}
}

func TestInflateRawZeroLength(t *testing.T) {
	got, err := inflateRaw(nil, 0)
	require.NoError(t, err)
	assert.Equal(t, []byte{}, got)
}

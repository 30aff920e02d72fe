package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNumber(t *testing.T) {
	assert.Equal(t, "0", Number(0))
	assert.Equal(t, "999", Number(999))
	assert.Equal(t, "1,000", Number(1000))
	assert.Equal(t, "1,234,567", Number(1234567))
}

func TestDuration(t *testing.T) {
	assert.Equal(t, "0s", Duration(500*time.Millisecond))
	assert.Equal(t, "5.2s", Duration(5200*time.Millisecond))
	assert.Equal(t, "3m5.0s", Duration(3*time.Minute+5*time.Second))
	assert.Equal(t, "2h15m", Duration(2*time.Hour+15*time.Minute))
}

func TestBytes(t *testing.T) {
	assert.Equal(t, "512B", Bytes(512))
	assert.Equal(t, "1.5KiB", Bytes(1536))
	assert.Equal(t, "5.0MiB", Bytes(5*1024*1024))
	assert.Equal(t, "2.0GiB", Bytes(2*1024*1024*1024))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg..", truncate("abcdefghijkl", 9))
	assert.Equal(t, "ab", truncate("abcdef", 2))
}

func TestProgressDisabled(t *testing.T) {
	p := NewProgress(10, false)
	assert.False(t, p.Enabled())

	// no-ops when disabled
	p.Update(5, "entry")
	p.Finish()
}

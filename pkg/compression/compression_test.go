package compression

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var dumpSnippet = []byte(`"Worker-1" #3 daemon
   java.lang.Thread.State: RUNNABLE
        at com.example.Worker.run(Worker.java:12)
`)

func TestGzipCompressor_RoundTrip(t *testing.T) {
	c := NewGzipCompressor(LevelDefault)

	packed, err := c.Compress(dumpSnippet)
	require.NoError(t, err)
	assert.Equal(t, TypeGzip, DetectType(packed))

	unpacked, err := c.Decompress(packed)
	require.NoError(t, err)
	assert.Equal(t, dumpSnippet, unpacked)
}

func TestZstdCompressor_RoundTrip(t *testing.T) {
	c, err := NewZstdCompressor(LevelFastest)
	require.NoError(t, err)
	defer c.Close()

	packed, err := c.Compress(dumpSnippet)
	require.NoError(t, err)
	assert.Equal(t, TypeZstd, DetectType(packed))

	unpacked, err := c.Decompress(packed)
	require.NoError(t, err)
	assert.Equal(t, dumpSnippet, unpacked)
}

func TestDetectType_Plain(t *testing.T) {
	assert.Equal(t, TypeNone, DetectType(dumpSnippet))
	assert.Equal(t, TypeNone, DetectType(nil))
	assert.Equal(t, TypeNone, DetectType([]byte{0x1f}))
}

func TestAutoDecompress(t *testing.T) {
	gz := NewGzipCompressor(LevelBest)
	packed, err := gz.Compress(dumpSnippet)
	require.NoError(t, err)

	unpacked, err := AutoDecompress(packed)
	require.NoError(t, err)
	assert.Equal(t, dumpSnippet, unpacked)

	// Uncompressed data passes through untouched.
	plain, err := AutoDecompress(dumpSnippet)
	require.NoError(t, err)
	assert.Equal(t, dumpSnippet, plain)
}

func TestAutoDecompress_CorruptGzip(t *testing.T) {
	corrupt := []byte{0x1f, 0x8b, 0x00, 0x01, 0x02}
	_, err := AutoDecompress(corrupt)
	assert.Error(t, err)
}

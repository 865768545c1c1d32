package prs

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/project-agonyl/psoquest/internal/psoerr"
)

func TestCompressDecompress_SixteenByteSequence(t *testing.T) {
	src := make([]byte, 16)
	for i := range src {
		src[i] = byte(i)
	}

	compressed := Compress(src)
	got, err := Decompress(compressed)
	require.NoError(t, err)
	assert.Equal(t, src, got)
}

func TestCompressDecompress_RepeatedByteIsCompact(t *testing.T) {
	src := bytes.Repeat([]byte{0xAA}, 1024)

	compressed := Compress(src)
	assert.Less(t, len(compressed), 200, "1024 repeated bytes should compress to well under 200 bytes")

	got, err := Decompress(compressed)
	require.NoError(t, err)
	require.Len(t, got, 1024)
	assert.Equal(t, src, got)
}

func TestRoundTrip_VariousInputs(t *testing.T) {
	cases := [][]byte{
		{0x00, 0x01, 0x02},
		bytes.Repeat([]byte{0x01, 0x02, 0x03}, 100),
		[]byte("the quick brown fox jumps over the lazy dog, the quick brown fox jumps again"),
		bytes.Repeat([]byte{0xFF}, 3),
		func() []byte {
			b := make([]byte, 5000)
			for i := range b {
				b[i] = byte((i * 37) % 251)
			}
			return b
		}(),
	}

	for _, src := range cases {
		compressed := Compress(src)
		got, err := Decompress(compressed)
		require.NoError(t, err)
		assert.Equal(t, src, got)
	}
}

func TestDecompressedSize_MatchesActualDecompressLength(t *testing.T) {
	src := bytes.Repeat([]byte{0x10, 0x20, 0x30}, 400)
	compressed := Compress(src)

	size, err := DecompressedSize(compressed)
	require.NoError(t, err)

	decoded, err := Decompress(compressed)
	require.NoError(t, err)

	assert.Equal(t, len(decoded), size)
	assert.Equal(t, len(src), size)
}

func TestDecompress_EmptyCompressedStreamIsThreeBytes(t *testing.T) {
	compressed := Compress(nil)
	assert.Len(t, compressed, 3, "minimum valid compressed length is 3 bytes")

	got, err := Decompress(compressed)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDecompress_TooShortInputIsMalformed(t *testing.T) {
	_, err := Decompress([]byte{0x00, 0x00})
	require.Error(t, err)
	require.True(t, psoerr.Is(err, psoerr.KindMalformedInput))
}

func TestDecompress_TruncatedStream(t *testing.T) {
	src := bytes.Repeat([]byte{0x01, 0x02, 0x03, 0x04, 0x05}, 50)
	compressed := Compress(src)
	truncated := compressed[:len(compressed)-3]

	_, err := Decompress(truncated)
	require.Error(t, err)
}

func TestDecompressWithLimit_SizeOverflow(t *testing.T) {
	src := bytes.Repeat([]byte{0x42}, 64)
	compressed := Compress(src)

	_, err := DecompressWithLimit(compressed, 8)
	require.Error(t, err)
}

func TestCompress_LongRunExceedingSingleBackrefLength(t *testing.T) {
	src := bytes.Repeat([]byte{0x07}, 5000)
	compressed := Compress(src)
	got, err := Decompress(compressed)
	require.NoError(t, err)
	assert.Equal(t, src, got)
}

func TestCompress_FarBackReference(t *testing.T) {
	src := make([]byte, 0, 9000)
	src = append(src, bytes.Repeat([]byte{0x01}, 10)...)
	src = append(src, bytes.Repeat([]byte{0x02}, 8000)...)
	src = append(src, []byte{0x01, 0x01, 0x01, 0x01, 0x01, 0x01, 0x01, 0x01, 0x01, 0x01}...)

	compressed := Compress(src)
	got, err := Decompress(compressed)
	require.NoError(t, err)
	assert.Equal(t, src, got)
}

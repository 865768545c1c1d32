package prs

import (
	"bytes"
	"testing"
)

func BenchmarkCompress(b *testing.B) {
	src := bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog"), 2000)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Compress(src)
	}
}

func BenchmarkDecompress(b *testing.B) {
	src := bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog"), 2000)
	compressed := Compress(src)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Decompress(compressed)
	}
}

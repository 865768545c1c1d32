// Package prs implements the PRS codec: a byte-oriented LZ77-style
// compressor and decompressor with an interleaved control-bit stream.
// One control byte is reserved ahead of the tokens it governs; each
// subsequent control bit is produced by right-shifting that reserved
// byte and placing the new bit in its high position. Three token forms
// (literal, short back-reference, long back-reference) and one end
// marker make up the stream; emitBackref and the reader's longBackref and
// shortBackref give the exact bit layout of each.
package prs

import (
	"github.com/project-agonyl/psoquest/internal/psoerr"
)

const (
	// maxWindow is the greedy matcher's lookback cap in bytes.
	maxWindow = 0x1FF0
	// maxMatchLen is the longest back-reference this codec will emit in
	// a single token (explicit-length long form caps at 256).
	maxMatchLen = 256
	// defaultOutputLimit guards Decompress against a malformed or
	// adversarial stream that never reaches its end marker.
	defaultOutputLimit = 64 << 20
)

// Compress returns the PRS encoding of src. The result round-trips
// through Decompress for any src with len(src) >= 3; shorter inputs are
// still encoded (literal tokens plus the end marker) but the minimum
// valid compressed stream is 3 bytes, so callers passing len(src) < 3
// should not expect round-trip fidelity guarantees from other
// implementations that reject such streams outright.
//
// Upper bound on the returned length (reached when every byte is a
// literal): len(src) + ((len(src)+2)>>3) + 3.
func Compress(src []byte) []byte {
	w := newBitWriter(len(src) + (len(src) >> 3) + 1 + 2)
	n := len(src)
	x := 0
	for x < n {
		length, offset := findMatch(src, x)
		if length >= 3 {
			emitBackref(w, offset, length)
			x += length
		} else {
			w.putControlBit(1)
			w.putByte(src[x])
			x++
		}
	}
	w.putControlBit(0)
	w.putControlBit(1)
	w.putByte(0)
	w.putByte(0)
	return w.finish()
}

// findMatch searches src backward from x-3 down to max(1, x-maxWindow)
// for the longest match of length >= 3 against the bytes at x, allowing
// the match to read past x (the source region for a back-reference may
// legitimately overlap the not-yet-emitted destination, which is how
// PRS expresses run-length repeats). Returns (0, 0) if no match of
// length >= 3 exists.
func findMatch(src []byte, x int) (length, offset int) {
	winStart := x - maxWindow
	if winStart < 1 {
		winStart = 1
	}
	start := x - 3
	if start < winStart {
		return 0, 0
	}

	bestLen := 0
	bestOff := 0
	for y := start; y >= winStart; y-- {
		l := 0
		limit := len(src) - x
		if limit > maxMatchLen {
			limit = maxMatchLen
		}
		for l < limit && src[y+l] == src[x+l] {
			l++
		}
		if l >= 3 && l > bestLen {
			bestLen = l
			bestOff = y - x
			if bestLen >= maxMatchLen {
				break
			}
		}
	}
	return bestLen, bestOff
}

// emitBackref chooses the shortest encoding that fits the given offset
// (always negative) and length, then writes it.
func emitBackref(w *bitWriter, offset, length int) {
	if offset > -256 && length <= 5 {
		w.putControlBit(0)
		w.putControlBit(0)
		adj := length - 2
		w.putControlBit(byte((adj >> 1) & 1))
		w.putControlBit(byte(adj & 1))
		w.putByte(byte(int8(offset)))
		return
	}

	off13 := uint32(int32(offset)) & 0x1FFF
	if length <= 9 {
		w.putControlBit(0)
		w.putControlBit(1)
		adj := uint32(length-2) & 0x07
		b1 := byte(((off13 << 3) & 0xF8) | adj)
		b2 := byte((off13 >> 5) & 0xFF)
		w.putByte(b1)
		w.putByte(b2)
		return
	}

	w.putControlBit(0)
	w.putControlBit(1)
	b1 := byte((off13 << 3) & 0xF8)
	b2 := byte((off13 >> 5) & 0xFF)
	w.putByte(b1)
	w.putByte(b2)
	w.putByte(byte(length - 1))
}

// Decompress decodes src, returning an error of kind MalformedInput,
// Truncated, or SizeOverflow (against an internal default bound) on
// failure. Use DecompressWithLimit to supply a caller-chosen bound.
func Decompress(src []byte) ([]byte, error) {
	return DecompressWithLimit(src, defaultOutputLimit)
}

// DecompressWithLimit decodes src, failing with KindSizeOverflow if the
// destination would grow past maxOut bytes.
func DecompressWithLimit(src []byte, maxOut int) ([]byte, error) {
	if len(src) < 3 {
		return nil, psoerr.New(psoerr.KindMalformedInput, "prs.Decompress", errShortInput)
	}

	dst := make([]byte, 0, len(src)*2)
	r := reader{src: src}
	for {
		bit, err := r.controlBit()
		if err != nil {
			return nil, err
		}
		if bit == 1 {
			b, err := r.byte_()
			if err != nil {
				return nil, err
			}
			if len(dst)+1 > maxOut {
				return nil, psoerr.New(psoerr.KindSizeOverflow, "prs.Decompress", errOutputBound)
			}
			dst = append(dst, b)
			continue
		}

		bit2, err := r.controlBit()
		if err != nil {
			return nil, err
		}
		if bit2 == 1 {
			offset, length, done, err := r.longBackref()
			if err != nil {
				return nil, err
			}
			if done {
				return dst, nil
			}
			if dst, err = copyBack(dst, offset, length, maxOut); err != nil {
				return nil, err
			}
			continue
		}

		offset, length, err := r.shortBackref()
		if err != nil {
			return nil, err
		}
		if dst, err = copyBack(dst, offset, length, maxOut); err != nil {
			return nil, err
		}
	}
}

// DecompressedSize walks src following the exact state transitions
// Decompress uses, without materializing output, and returns the final
// destination length.
func DecompressedSize(src []byte) (int, error) {
	if len(src) < 3 {
		return 0, psoerr.New(psoerr.KindMalformedInput, "prs.DecompressedSize", errShortInput)
	}

	size := 0
	r := reader{src: src}
	for {
		bit, err := r.controlBit()
		if err != nil {
			return 0, err
		}
		if bit == 1 {
			if _, err := r.byte_(); err != nil {
				return 0, err
			}
			size++
			continue
		}

		bit2, err := r.controlBit()
		if err != nil {
			return 0, err
		}
		if bit2 == 1 {
			_, length, done, err := r.longBackref()
			if err != nil {
				return 0, err
			}
			if done {
				return size, nil
			}
			size += length
			continue
		}

		_, length, err := r.shortBackref()
		if err != nil {
			return 0, err
		}
		size += length
	}
}

func copyBack(dst []byte, offset, length, maxOut int) ([]byte, error) {
	start := len(dst) + offset
	if start < 0 {
		return nil, psoerr.New(psoerr.KindMalformedInput, "prs.Decompress", errBadDisplacement)
	}
	if len(dst)+length > maxOut {
		return nil, psoerr.New(psoerr.KindSizeOverflow, "prs.Decompress", errOutputBound)
	}
	for i := 0; i < length; i++ {
		dst = append(dst, dst[start+i])
	}
	return dst, nil
}

// reader walks the PRS control-bit/data-byte stream. bitsLeft starts at
// 0 (its zero value), forcing an initial control-byte load on the very
// first call to controlBit, per the format's definition; each loaded
// control byte then yields exactly 8 bits, consumed least-significant
// bit first. The next control byte is loaded as soon as the 8th bit has
// been consumed, because bitWriter reserves it right after writing that
// bit, ahead of any data byte that follows.
type reader struct {
	src         []byte
	pos         int
	controlByte byte
	bitsLeft    int
}

func (r *reader) controlBit() (byte, error) {
	if r.bitsLeft == 0 {
		b, err := r.byte_()
		if err != nil {
			return 0, err
		}
		r.controlByte = b
		r.bitsLeft = 8
	}
	bit := r.controlByte & 1
	r.controlByte >>= 1
	r.bitsLeft--
	if r.bitsLeft == 0 {
		b, err := r.byte_()
		if err != nil {
			return 0, err
		}
		r.controlByte = b
		r.bitsLeft = 8
	}
	return bit, nil
}

func (r *reader) byte_() (byte, error) {
	if r.pos >= len(r.src) {
		return 0, psoerr.New(psoerr.KindTruncated, "prs", errTruncated)
	}
	b := r.src[r.pos]
	r.pos++
	return b, nil
}

// longBackref reads a 0,1-prefixed token. done is true when the token is
// the end marker (offset word == 0).
func (r *reader) longBackref() (offset, length int, done bool, err error) {
	b1, err := r.byte_()
	if err != nil {
		return 0, 0, false, err
	}
	b2, err := r.byte_()
	if err != nil {
		return 0, 0, false, err
	}
	combined := uint16(b1) | uint16(b2)<<8
	if combined == 0 {
		return 0, 0, true, nil
	}

	offset = int(int32((uint32(combined) >> 3) | 0xFFFFE000))
	length = int(combined & 0x7)
	if length == 0 {
		b3, err := r.byte_()
		if err != nil {
			return 0, 0, false, err
		}
		length = int(b3) + 1
	} else {
		length += 2
	}
	return offset, length, false, nil
}

func (r *reader) shortBackref() (offset, length int, err error) {
	hi, err := r.controlBit()
	if err != nil {
		return 0, 0, err
	}
	lo, err := r.controlBit()
	if err != nil {
		return 0, 0, err
	}
	length = int(hi)<<1 | int(lo)
	length += 2

	b, err := r.byte_()
	if err != nil {
		return 0, 0, err
	}
	offset = int(b) - 256
	return offset, length, nil
}

// bitWriter accumulates PRS control bits and literal/offset bytes into a
// growing output buffer. A control byte is reserved at the current write
// cursor; each subsequent control bit right-shifts the accumulator and
// places the new bit in bit 7, matching how reader.controlBit consumes
// bits (bit 0 first, then a right shift).
type bitWriter struct {
	out         []byte
	controlPos  int
	controlByte byte
	nbits       int
}

func newBitWriter(sizeHint int) *bitWriter {
	w := &bitWriter{out: make([]byte, 0, sizeHint)}
	w.out = append(w.out, 0)
	w.controlPos = 0
	return w
}

func (w *bitWriter) putControlBit(bit byte) {
	w.controlByte >>= 1
	if bit != 0 {
		w.controlByte |= 0x80
	}
	w.nbits++
	if w.nbits == 8 {
		w.out[w.controlPos] = w.controlByte
		w.controlPos = len(w.out)
		w.out = append(w.out, 0)
		w.controlByte = 0
		w.nbits = 0
	}
}

func (w *bitWriter) putByte(b byte) {
	w.out = append(w.out, b)
}

func (w *bitWriter) finish() []byte {
	if w.nbits == 0 && w.controlPos == len(w.out)-1 {
		return w.out[:w.controlPos]
	}
	// A full (8-bit) control byte naturally aligns its first-written bit
	// to bit 0 after 8 right-shifts-with-insert. A partial trailing byte
	// has its w.nbits written bits still sitting in the top w.nbits
	// positions; shifting right by the unused bit count re-aligns the
	// first-written bit to bit 0 so the reader's bit0-first extraction
	// recovers the same sequence regardless of whether this control
	// byte ever filled up.
	w.controlByte >>= uint(8 - w.nbits)
	w.out[w.controlPos] = w.controlByte
	return w.out
}

var (
	errShortInput      = shortInputErr{}
	errTruncated       = truncatedErr{}
	errOutputBound     = outputBoundErr{}
	errBadDisplacement = badDisplacementErr{}
)

type shortInputErr struct{}

func (shortInputErr) Error() string { return "prs: compressed input shorter than 3 bytes" }

type truncatedErr struct{}

func (truncatedErr) Error() string { return "prs: source exhausted before end marker" }

type outputBoundErr struct{}

func (outputBoundErr) Error() string { return "prs: destination exceeds caller-provided bound" }

type badDisplacementErr struct{}

func (badDisplacementErr) Error() string { return "prs: back-reference displacement before buffer start" }

// Package qst reads and writes the framed .qst container: two fixed
// 60-byte file header records followed by a stream of fixed 1056-byte
// chunk records that interleave the two files' payload data. A download
// (offline) file's payload additionally carries an 8-byte wrapper and
// is stream-encrypted with the cipher package; an online file's payload
// is the compressed bin/dat bytes directly.
package qst

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"

	"github.com/project-agonyl/psoquest/cipher"
	"github.com/project-agonyl/psoquest/internal/psoerr"
)

// Packet identifiers distinguishing header/chunk records and the
// online/download framing variant.
const (
	PktIDHeaderOnline   = 0x44
	PktIDHeaderDownload = 0xA6
	PktIDChunkOnline    = 0x13
	PktIDChunkDownload  = 0xA7
)

// Record sizes.
const (
	HeaderRecordSize = 60
	ChunkRecordSize  = 1056
	ChunkDataSize    = 1024
	WrapperSize      = 8
)

// HeaderRecord is the fixed 60-byte record announcing one file.
type HeaderRecord struct {
	PktID    uint8
	PktFlags uint8
	PktSize  uint16
	Name     [32]byte
	Unused   uint16
	Flags    uint16
	Filename [16]byte
	Size     uint32
}

// ChunkRecord is the fixed 1056-byte record carrying one slice of a
// file's payload. Padding is the portion of the record unaccounted for
// by the format's named fields; it carries no semantics and is zero on
// write.
type ChunkRecord struct {
	PktID    uint8
	PktFlags uint8
	PktSize  uint16
	Filename [16]byte
	Data     [ChunkDataSize]byte
	Size     uint32
	Padding  [8]byte
}

// Wrapper is the 8-byte prefix added to a download file's payload
// before encryption. It is transmitted unencrypted.
type Wrapper struct {
	DecompressedSizePlusWrapper uint32
	CryptKey                    uint32
}

// getBytes serializes v (a fixed-layout record) to little-endian bytes.
func getBytes(v any) []byte {
	var buf bytes.Buffer
	// Fixed-width uint8/16/32 fields and byte arrays encode with no
	// implicit padding, so this never fails for the record types in this
	// package.
	_ = binary.Write(&buf, binary.LittleEndian, v)
	return buf.Bytes()
}

func readBytes(data []byte, v any) error {
	return binary.Read(bytes.NewReader(data), binary.LittleEndian, v)
}

// FileSpec is one logical file (a compressed .bin or .dat, optionally
// already wrapped and encrypted) to be framed into a .qst stream.
type FileSpec struct {
	Name     string // display name carried in the header record
	Filename string // base filename, must fit in 16 bytes
	Payload  []byte
}

func putFixedString(dst []byte, s string) {
	copy(dst, []byte(s))
}

// Write frames files into w as a .qst stream. online selects the packet
// identifiers and therefore whether readers will treat the payloads as
// encrypted download payloads or plain online payloads; Write itself
// never encrypts — callers pass an already-wrapped-and-encrypted
// Payload for a download file.
func Write(w io.Writer, online bool, files []FileSpec) error {
	headerID := uint8(PktIDHeaderOnline)
	chunkID := uint8(PktIDChunkOnline)
	if !online {
		headerID = PktIDHeaderDownload
		chunkID = PktIDChunkDownload
	}

	for _, f := range files {
		h := HeaderRecord{
			PktID:   headerID,
			PktSize: HeaderRecordSize,
			Size:    uint32(len(f.Payload)),
		}
		putFixedString(h.Name[:], f.Name)
		putFixedString(h.Filename[:], f.Filename)
		if _, err := w.Write(getBytes(&h)); err != nil {
			return err
		}
	}

	offsets := make([]int, len(files))
	seq := make([]uint8, len(files))
	remaining := 0
	for _, f := range files {
		if len(f.Payload) > 0 {
			remaining++
		}
	}
	for remaining > 0 {
		for i := range files {
			if offsets[i] >= len(files[i].Payload) {
				continue
			}

			chunkLen := len(files[i].Payload) - offsets[i]
			if chunkLen > ChunkDataSize {
				chunkLen = ChunkDataSize
			}

			c := ChunkRecord{
				PktID:    chunkID,
				PktFlags: seq[i],
				PktSize:  ChunkRecordSize,
				Size:     uint32(chunkLen),
			}
			putFixedString(c.Filename[:], files[i].Filename)
			copy(c.Data[:], files[i].Payload[offsets[i]:offsets[i]+chunkLen])

			if _, err := w.Write(getBytes(&c)); err != nil {
				return err
			}

			offsets[i] += chunkLen
			seq[i]++
			if offsets[i] >= len(files[i].Payload) {
				remaining--
			}
		}
	}

	return nil
}

// ParsedFile is one reassembled file from a parsed .qst stream.
type ParsedFile struct {
	Filename string
	Payload  []byte
}

// Read parses a complete .qst stream from r, reassembling each
// announced file's payload from its interleaved chunks. Online is
// reported true when the stream uses the 0x44/0x13 framing; download
// payloads are returned exactly as reassembled (wrapper included,
// still encrypted) — use UnwrapDownload to decrypt.
func Read(r io.Reader) (files []ParsedFile, online bool, err error) {
	br := bufio.NewReader(r)

	type pending struct {
		size uint32
		buf  []byte
		seen bool
	}
	order := make([]string, 0, 2)
	byName := make(map[string]*pending)
	sawOnline, sawDownload := false, false

	for {
		first, peekErr := br.Peek(1)
		if peekErr == io.EOF {
			break
		}
		if peekErr != nil {
			return nil, false, peekErr
		}

		switch first[0] {
		case PktIDHeaderOnline, PktIDHeaderDownload:
			raw := make([]byte, HeaderRecordSize)
			if _, err := io.ReadFull(br, raw); err != nil {
				return nil, false, psoerr.New(psoerr.KindMalformedInput, "qst.Read", errTruncatedHeader)
			}
			var h HeaderRecord
			if err := readBytes(raw, &h); err != nil {
				return nil, false, err
			}
			if h.PktSize != HeaderRecordSize {
				return nil, false, psoerr.New(psoerr.KindMalformedInput, "qst.Read", errImpossiblePktSize)
			}
			if h.PktID == PktIDHeaderOnline {
				sawOnline = true
			} else {
				sawDownload = true
			}

			name := fixedString(h.Filename[:])
			if _, exists := byName[name]; !exists {
				order = append(order, name)
				byName[name] = &pending{size: h.Size, buf: make([]byte, 0, h.Size), seen: h.Size == 0}
			}

		case PktIDChunkOnline, PktIDChunkDownload:
			raw := make([]byte, ChunkRecordSize)
			if _, err := io.ReadFull(br, raw); err != nil {
				return nil, false, psoerr.New(psoerr.KindTruncated, "qst.Read", errTruncatedChunk)
			}
			var c ChunkRecord
			if err := readBytes(raw, &c); err != nil {
				return nil, false, err
			}
			if c.PktSize != ChunkRecordSize {
				return nil, false, psoerr.New(psoerr.KindMalformedInput, "qst.Read", errImpossiblePktSize)
			}
			if c.Size > ChunkDataSize {
				return nil, false, psoerr.New(psoerr.KindMalformedInput, "qst.Read", errChunkOverflow)
			}

			name := fixedString(c.Filename[:])
			p, ok := byName[name]
			if !ok {
				return nil, false, psoerr.WithPath(psoerr.KindMalformedInput, "qst.Read", name, errUnannouncedFile)
			}
			if uint32(len(p.buf))+uint32(c.Size) > p.size {
				return nil, false, psoerr.WithPath(psoerr.KindMalformedInput, "qst.Read", name, errChunkOverflow)
			}
			p.buf = append(p.buf, c.Data[:c.Size]...)
			if uint32(len(p.buf)) == p.size {
				p.seen = true
			}

		default:
			return nil, false, psoerr.New(psoerr.KindMalformedInput, "qst.Read", errUnknownPktID)
		}
	}

	for _, name := range order {
		p := byName[name]
		if !p.seen {
			return nil, false, psoerr.WithPath(psoerr.KindTruncated, "qst.Read", name, errIncompleteFile)
		}
		files = append(files, ParsedFile{Filename: name, Payload: p.buf})
	}

	if sawOnline == sawDownload {
		// Either both packet families appeared (inconsistent stream) or
		// neither did (an empty stream); in both cases there is no single
		// coherent framing to report.
		return files, false, nil
	}
	return files, sawOnline, nil
}

func fixedString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

// WrapForDownload prepends a Wrapper to payload and encrypts the
// remainder in place with a freshly seeded cipher state, padding
// payload with zero bytes to a multiple of 4 first if needed. It
// returns the combined wrapper+ciphertext bytes ready to frame as a
// download file's Payload.
func WrapForDownload(payload []byte, decompressedSize uint32, cryptKey uint32) []byte {
	padded := payload
	if rem := len(padded) % 4; rem != 0 {
		padded = append(append([]byte{}, padded...), make([]byte, 4-rem)...)
	}

	w := Wrapper{DecompressedSizePlusWrapper: decompressedSize + WrapperSize, CryptKey: cryptKey}
	out := make([]byte, 0, WrapperSize+len(padded))
	out = append(out, getBytes(&w)...)
	out = append(out, padded...)

	state := cipher.CreateKeys(cryptKey)
	_ = cipher.Crypt(state, out[WrapperSize:])
	return out
}

// UnwrapDownload splits a reassembled download payload into its
// Wrapper and the decrypted compressed bin/dat bytes.
func UnwrapDownload(wrapped []byte) (Wrapper, []byte, error) {
	if len(wrapped) < WrapperSize {
		return Wrapper{}, nil, psoerr.New(psoerr.KindTruncated, "qst.UnwrapDownload", errTruncatedWrapper)
	}

	var w Wrapper
	if err := readBytes(wrapped[:WrapperSize], &w); err != nil {
		return Wrapper{}, nil, err
	}

	body := append([]byte{}, wrapped[WrapperSize:]...)
	if len(body)%4 != 0 {
		return Wrapper{}, nil, psoerr.New(psoerr.KindMalformedInput, "qst.UnwrapDownload", errUnalignedPayload)
	}

	state := cipher.CreateKeys(w.CryptKey)
	if err := cipher.Crypt(state, body); err != nil {
		return Wrapper{}, nil, err
	}
	return w, body, nil
}

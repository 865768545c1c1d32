// Package datmodel walks the decompressed .dat quest file: a
// concatenation of typed tables, each a 16-byte header followed by a
// body whose interpretation depends on the header's type tag. The walk
// is tagged-variant dispatch on type, not an inheritance hierarchy —
// each table type gets its own record slice, with unrecognized types
// kept as an opaque body.
package datmodel

import (
	"encoding/binary"
	"errors"
)

// TableType identifies the kind of records a table's body holds.
type TableType uint32

const (
	TableTypeObject         TableType = 1
	TableTypeNPC            TableType = 2
	TableTypeWave           TableType = 3
	TableTypeChallengeSpawn TableType = 4
	TableTypeChallenge      TableType = 5

	// MaxKnownTableType is the highest valid table type; Validate sets
	// BAD_TYPE on any non-sentinel table whose Type exceeds it. Only
	// Object and NPC tables are split into records; every other type
	// keeps its body opaque.
	MaxKnownTableType = TableTypeChallenge
)

const (
	// TableHeaderSize is the fixed width of a table header record.
	TableHeaderSize = 16

	// ObjectRecordSize is the fixed width of one Object table record.
	ObjectRecordSize = 68
	// NPCRecordSize is the fixed width of one NPC table record.
	NPCRecordSize = 72
)

// Sentinel errors.
var (
	// ErrTruncatedTableHeader is returned when fewer than TableHeaderSize
	// bytes remain where a table header was expected.
	ErrTruncatedTableHeader = errors.New("datmodel: truncated table header")

	// ErrTruncatedTableBody is returned when fewer bytes remain than a
	// table header's declared TableBodySize.
	ErrTruncatedTableBody = errors.New("datmodel: truncated table body")
)

// TableHeader is the fixed 16-byte record preceding every table's body.
type TableHeader struct {
	Type          uint32
	TableSize     uint32
	Area          uint32
	TableBodySize uint32
}

// IsSentinel reports whether h is the all-zero end-of-file marker.
func (h TableHeader) IsSentinel() bool {
	return h.Type == 0 && h.TableSize == 0 && h.Area == 0 && h.TableBodySize == 0
}

// Table is one decoded table: its header, its body interpreted as
// fixed-size records when the type is known, and the raw body bytes in
// all cases (so a round-trip Encode reproduces the original bytes even
// for unrecognized or malformed table types).
type Table struct {
	Header  TableHeader
	Objects [][ObjectRecordSize]byte // populated when Header.Type == TableTypeObject
	NPCs    [][NPCRecordSize]byte    // populated when Header.Type == TableTypeNPC
	Body    []byte                   // raw body bytes, always populated
}

// Dat is a decoded .dat file: the tables found before the terminating
// sentinel header, plus whether that sentinel was found exactly at the
// buffer end (the well-formed case) or the walk stopped early because a
// sentinel appeared mid-file.
type Dat struct {
	Tables        []Table
	SentinelAtEnd bool
	TrailingBytes []byte // bytes after a mid-file sentinel, empty when SentinelAtEnd
}

func decodeTableHeader(raw []byte) TableHeader {
	return TableHeader{
		Type:          binary.LittleEndian.Uint32(raw[0:4]),
		TableSize:     binary.LittleEndian.Uint32(raw[4:8]),
		Area:          binary.LittleEndian.Uint32(raw[8:12]),
		TableBodySize: binary.LittleEndian.Uint32(raw[12:16]),
	}
}

func encodeTableHeader(h TableHeader) [TableHeaderSize]byte {
	var raw [TableHeaderSize]byte
	binary.LittleEndian.PutUint32(raw[0:4], h.Type)
	binary.LittleEndian.PutUint32(raw[4:8], h.TableSize)
	binary.LittleEndian.PutUint32(raw[8:12], h.Area)
	binary.LittleEndian.PutUint32(raw[12:16], h.TableBodySize)
	return raw
}

// Decode walks buf from offset 0, decoding one table per iteration until
// it reaches an all-zero sentinel header or runs out of buffer. It does
// not reject malformed tables (bad type, mismatched body size) — that is
// Validate's job — but does return an error if a table header or its
// declared body cannot fit in the remaining bytes, since the walk cannot
// continue past that point.
func Decode(buf []byte) (Dat, error) {
	var d Dat
	offset := 0

	for {
		if offset == len(buf) {
			// Ran out of buffer without ever seeing a sentinel header; the
			// caller's validator will flag this via the EOF-reachability
			// invariant, not this function.
			d.SentinelAtEnd = false
			return d, nil
		}

		if offset+TableHeaderSize > len(buf) {
			return Dat{}, ErrTruncatedTableHeader
		}
		header := decodeTableHeader(buf[offset : offset+TableHeaderSize])
		offset += TableHeaderSize

		if header.IsSentinel() {
			if offset == len(buf) {
				d.SentinelAtEnd = true
				return d, nil
			}
			d.SentinelAtEnd = false
			d.TrailingBytes = buf[offset:]
			return d, nil
		}

		bodySize := int(header.TableBodySize)
		if offset+bodySize > len(buf) {
			return Dat{}, ErrTruncatedTableBody
		}
		body := buf[offset : offset+bodySize]
		offset += bodySize

		table := Table{Header: header, Body: body}
		switch TableType(header.Type) {
		case TableTypeObject:
			table.Objects = splitRecords68(body)
		case TableTypeNPC:
			table.NPCs = splitRecords72(body)
		}
		d.Tables = append(d.Tables, table)
	}
}

func splitRecords68(body []byte) [][ObjectRecordSize]byte {
	n := len(body) / ObjectRecordSize
	out := make([][ObjectRecordSize]byte, n)
	for i := 0; i < n; i++ {
		copy(out[i][:], body[i*ObjectRecordSize:(i+1)*ObjectRecordSize])
	}
	return out
}

func splitRecords72(body []byte) [][NPCRecordSize]byte {
	n := len(body) / NPCRecordSize
	out := make([][NPCRecordSize]byte, n)
	for i := 0; i < n; i++ {
		copy(out[i][:], body[i*NPCRecordSize:(i+1)*NPCRecordSize])
	}
	return out
}

// Encode serializes d back into a byte buffer: each table's header and
// raw body, followed by the all-zero sentinel header.
func Encode(d Dat) []byte {
	size := 0
	for _, t := range d.Tables {
		size += TableHeaderSize + len(t.Body)
	}
	size += TableHeaderSize // sentinel
	size += len(d.TrailingBytes)

	out := make([]byte, 0, size)
	for _, t := range d.Tables {
		h := encodeTableHeader(t.Header)
		out = append(out, h[:]...)
		out = append(out, t.Body...)
	}
	var sentinel [TableHeaderSize]byte
	out = append(out, sentinel[:]...)
	out = append(out, d.TrailingBytes...)
	return out
}

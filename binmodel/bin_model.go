// Package binmodel reads, writes, and validates the decompressed .bin
// quest header: a fixed 468-byte record immediately followed by
// bytecode (object_code). The header carries the quest's identity
// (quest number, episode, download flag) and its three Shift-JIS name
// fields; object_code itself is opaque to this package and is carried
// as a trailing byte slice.
package binmodel

import (
	"encoding/binary"
	"errors"
	"io"

	"github.com/cyberinferno/go-utils/utils"
)

// Format constants.
const (
	HeaderSize            = 468
	NameSize              = 32
	ShortDescriptionSize  = 128
	LongDescriptionSize   = 288
	ReservedFFFFFFFF      = 0xFFFFFFFF
	ExpectedObjectCodeOff = 468
)

// Sentinel errors.
var (
	// ErrTruncatedHeader is returned when fewer than HeaderSize bytes are
	// available to read.
	ErrTruncatedHeader = errors.New("binmodel: truncated header")
)

// Header is the fixed 468-byte decompressed .bin header. Field order and
// widths are the wire layout; round-tripping Read then Write reproduces
// the original bytes exactly, including fields with no known semantics.
type Header struct {
	ObjectCodeOffset          uint32
	FunctionOffsetTableOffset uint32
	BinSize                   uint32
	ReservedFFFFFFFF          uint32
	DownloadFlag              uint8
	Unknown                   uint8
	QuestNumberLow            uint8 // low byte of the quest_number/episode union
	QuestNumberHigh           uint8 // high byte: episode when <= 1, else part of a u16 quest number
	Name                      [NameSize]byte
	ShortDescription          [ShortDescriptionSize]byte
	LongDescription           [LongDescriptionSize]byte
}

// Bin is a parsed .bin file: its header plus the trailing bytecode image.
type Bin struct {
	Header     Header
	ObjectCode []byte
}

// QuestNumberAsBytePair interprets the identifier field as
// {quest_number: u8, episode: u8}, the layout used by most producers.
func (h *Header) QuestNumberAsBytePair() (questNumber, episode uint8) {
	return h.QuestNumberLow, h.QuestNumberHigh
}

// QuestNumberAsWord interprets the identifier field as a single u16
// quest_number, the layout used by some producers when the episode byte
// would otherwise exceed 1.
func (h *Header) QuestNumberAsWord() uint16 {
	return uint16(h.QuestNumberLow) | uint16(h.QuestNumberHigh)<<8
}

// SetQuestNumberAsWord overwrites the identifier field with a u16
// quest_number, clearing the byte-pair interpretation.
func (h *Header) SetQuestNumberAsWord(n uint16) {
	h.QuestNumberLow = uint8(n)
	h.QuestNumberHigh = uint8(n >> 8)
}

// Read parses a Header from exactly HeaderSize bytes at the front of r,
// then reads the remainder of r as ObjectCode.
func Read(r io.Reader) (Bin, error) {
	var raw [HeaderSize]byte
	if _, err := io.ReadFull(r, raw[:]); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return Bin{}, ErrTruncatedHeader
		}
		return Bin{}, err
	}

	h := decodeHeader(raw[:])

	objectCode, err := io.ReadAll(r)
	if err != nil {
		return Bin{}, err
	}

	return Bin{Header: h, ObjectCode: objectCode}, nil
}

// ReadHeader parses just the fixed header, ignoring any trailing bytes.
func ReadHeader(raw []byte) (Header, error) {
	if len(raw) < HeaderSize {
		return Header{}, ErrTruncatedHeader
	}
	return decodeHeader(raw), nil
}

func decodeHeader(raw []byte) Header {
	var h Header
	h.ObjectCodeOffset = binary.LittleEndian.Uint32(raw[0:4])
	h.FunctionOffsetTableOffset = binary.LittleEndian.Uint32(raw[4:8])
	h.BinSize = binary.LittleEndian.Uint32(raw[8:12])
	h.ReservedFFFFFFFF = binary.LittleEndian.Uint32(raw[12:16])
	h.DownloadFlag = raw[16]
	h.Unknown = raw[17]
	h.QuestNumberLow = raw[18]
	h.QuestNumberHigh = raw[19]
	copy(h.Name[:], raw[20:20+NameSize])
	copy(h.ShortDescription[:], raw[20+NameSize:20+NameSize+ShortDescriptionSize])
	copy(h.LongDescription[:], raw[20+NameSize+ShortDescriptionSize:HeaderSize])
	return h
}

// Write serializes b to w: the fixed header followed by ObjectCode.
func Write(w io.Writer, b Bin) error {
	raw := encodeHeader(b.Header)
	if _, err := w.Write(raw[:]); err != nil {
		return err
	}
	if len(b.ObjectCode) > 0 {
		if _, err := w.Write(b.ObjectCode); err != nil {
			return err
		}
	}
	return nil
}

func encodeHeader(h Header) [HeaderSize]byte {
	var raw [HeaderSize]byte
	binary.LittleEndian.PutUint32(raw[0:4], h.ObjectCodeOffset)
	binary.LittleEndian.PutUint32(raw[4:8], h.FunctionOffsetTableOffset)
	binary.LittleEndian.PutUint32(raw[8:12], h.BinSize)
	binary.LittleEndian.PutUint32(raw[12:16], h.ReservedFFFFFFFF)
	raw[16] = h.DownloadFlag
	raw[17] = h.Unknown
	raw[18] = h.QuestNumberLow
	raw[19] = h.QuestNumberHigh
	copy(raw[20:20+NameSize], h.Name[:])
	copy(raw[20+NameSize:20+NameSize+ShortDescriptionSize], h.ShortDescription[:])
	copy(raw[20+NameSize+ShortDescriptionSize:HeaderSize], h.LongDescription[:])
	return raw
}

// DecompressedLen returns the total length this Bin would serialize to.
func (b Bin) DecompressedLen() int {
	return HeaderSize + len(b.ObjectCode)
}

// GetName returns the quest name as a string, trimmed at its first NUL.
func (h *Header) GetName() string {
	return utils.ReadStringFromBytes(h.Name[:])
}

// SetName overwrites Name with s, truncated or zero-padded to NameSize.
func (h *Header) SetName(s string) {
	copy(h.Name[:], utils.MakeFixedLengthStringBytes(s, NameSize))
}

// GetShortDescription returns the short description as a string, trimmed
// at its first NUL.
func (h *Header) GetShortDescription() string {
	return utils.ReadStringFromBytes(h.ShortDescription[:])
}

// SetShortDescription overwrites ShortDescription with s.
func (h *Header) SetShortDescription(s string) {
	copy(h.ShortDescription[:], utils.MakeFixedLengthStringBytes(s, ShortDescriptionSize))
}

// GetLongDescription returns the long description as a string, trimmed
// at its first NUL.
func (h *Header) GetLongDescription() string {
	return utils.ReadStringFromBytes(h.LongDescription[:])
}

// SetLongDescription overwrites LongDescription with s.
func (h *Header) SetLongDescription(s string) {
	copy(h.LongDescription[:], utils.MakeFixedLengthStringBytes(s, LongDescriptionSize))
}

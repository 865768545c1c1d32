package binmodel

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validHeader() Header {
	var h Header
	h.ObjectCodeOffset = ExpectedObjectCodeOff
	h.FunctionOffsetTableOffset = 600
	h.ReservedFFFFFFFF = ReservedFFFFFFFF
	h.DownloadFlag = 0
	h.QuestNumberLow = 1
	h.QuestNumberHigh = 0
	copy(h.Name[:], []byte("Test Quest"))
	copy(h.ShortDescription[:], []byte("A short description"))
	copy(h.LongDescription[:], []byte("A longer description body"))
	return h
}

func TestReadWrite_RoundTrip(t *testing.T) {
	h := validHeader()
	objectCode := bytes.Repeat([]byte{0x60}, 132)
	h.BinSize = uint32(HeaderSize + len(objectCode))

	b := Bin{Header: h, ObjectCode: objectCode}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, b))
	assert.Equal(t, HeaderSize+len(objectCode), buf.Len())

	got, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, b, got)
}

func TestRead_TruncatedHeader(t *testing.T) {
	_, err := Read(bytes.NewReader(make([]byte, HeaderSize-1)))
	require.ErrorIs(t, err, ErrTruncatedHeader)
}

func TestQuestNumber_BytePairAndWord(t *testing.T) {
	h := validHeader()
	h.QuestNumberLow = 0x34
	h.QuestNumberHigh = 0x12

	qn, ep := h.QuestNumberAsBytePair()
	assert.Equal(t, uint8(0x34), qn)
	assert.Equal(t, uint8(0x12), ep)
	assert.Equal(t, uint16(0x1234), h.QuestNumberAsWord())

	h.SetQuestNumberAsWord(0xABCD)
	assert.Equal(t, uint8(0xCD), h.QuestNumberLow)
	assert.Equal(t, uint8(0xAB), h.QuestNumberHigh)
}

func TestNameAccessors_RoundTrip(t *testing.T) {
	h := validHeader()
	h.SetName("Forest Trial")
	h.SetShortDescription("Defeat the boss")
	h.SetLongDescription("A longer quest description for the briefing screen")

	assert.Equal(t, "Forest Trial", h.GetName())
	assert.Equal(t, "Defeat the boss", h.GetShortDescription())
	assert.Equal(t, "A longer quest description for the briefing screen", h.GetLongDescription())
}

func TestReadHeader_IgnoresTrailingBytes(t *testing.T) {
	h := validHeader()
	raw := encodeHeader(h)
	full := append(raw[:], []byte{1, 2, 3}...)

	got, err := ReadHeader(full)
	require.NoError(t, err)
	assert.Equal(t, h, got)
}

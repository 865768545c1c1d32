package datmodel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func objectTable(area uint32, numRecords int) []byte {
	body := make([]byte, numRecords*ObjectRecordSize)
	for i := range body {
		body[i] = byte(i)
	}
	h := TableHeader{Type: uint32(TableTypeObject), TableSize: uint32(len(body) - TableHeaderSize), Area: area, TableBodySize: uint32(len(body))}
	raw := encodeTableHeader(h)
	return append(raw[:], body...)
}

func sentinelHeader() []byte {
	var raw [TableHeaderSize]byte
	return raw[:]
}

func TestDecode_SingleObjectTableThenSentinel(t *testing.T) {
	buf := append(objectTable(1, 3), sentinelHeader()...)

	d, err := Decode(buf)
	require.NoError(t, err)
	assert.True(t, d.SentinelAtEnd)
	require.Len(t, d.Tables, 1)
	assert.Equal(t, uint32(TableTypeObject), d.Tables[0].Header.Type)
	assert.Len(t, d.Tables[0].Objects, 3)
}

func TestDecode_NPCTableSplitsRecords(t *testing.T) {
	body := make([]byte, NPCRecordSize*2)
	h := TableHeader{Type: uint32(TableTypeNPC), TableSize: uint32(len(body) - TableHeaderSize), TableBodySize: uint32(len(body))}
	raw := encodeTableHeader(h)
	buf := append(raw[:], body...)
	buf = append(buf, sentinelHeader()...)

	d, err := Decode(buf)
	require.NoError(t, err)
	assert.Len(t, d.Tables[0].NPCs, 2)
}

func TestDecodeEncode_RoundTrip(t *testing.T) {
	buf := append(objectTable(2, 5), sentinelHeader()...)

	d, err := Decode(buf)
	require.NoError(t, err)

	out := Encode(d)
	assert.Equal(t, buf, out)
}

func TestDecode_MidfileSentinelStopsWalk(t *testing.T) {
	buf := append(objectTable(1, 1), sentinelHeader()...)
	buf = append(buf, []byte{0xDE, 0xAD, 0xBE, 0xEF}...)

	d, err := Decode(buf)
	require.NoError(t, err)
	assert.False(t, d.SentinelAtEnd)
	assert.Equal(t, []byte{0xDE, 0xAD, 0xBE, 0xEF}, d.TrailingBytes)
}

func TestDecode_TruncatedHeader(t *testing.T) {
	_, err := Decode(make([]byte, 10))
	require.ErrorIs(t, err, ErrTruncatedTableHeader)
}

func TestDecode_TruncatedBody(t *testing.T) {
	h := TableHeader{Type: uint32(TableTypeObject), TableBodySize: 1000}
	raw := encodeTableHeader(h)
	_, err := Decode(raw[:])
	require.ErrorIs(t, err, ErrTruncatedTableBody)
}

func TestValidate_CleanFile(t *testing.T) {
	buf := append(objectTable(1, 2), sentinelHeader()...)
	f := Validate(buf)
	assert.True(t, f.Has(FlagEOFEmptyTable))
	assert.False(t, f.Has(FlagBadType))
	assert.False(t, f.Has(FlagTableBodySizeMismatch))
}

func TestValidate_BadType(t *testing.T) {
	h := TableHeader{Type: 99, TableSize: 16, TableBodySize: 0}
	raw := encodeTableHeader(h)
	buf := append(raw[:], sentinelHeader()...)

	f := Validate(buf)
	assert.True(t, f.Has(FlagBadType))
}

func TestValidate_TableBodySizeMismatch(t *testing.T) {
	h := TableHeader{Type: uint32(TableTypeObject), TableSize: 999, TableBodySize: uint32(ObjectRecordSize)}
	raw := encodeTableHeader(h)
	buf := append(raw[:], make([]byte, ObjectRecordSize)...)
	buf = append(buf, sentinelHeader()...)

	f := Validate(buf)
	assert.True(t, f.Has(FlagTableBodySizeMismatch))
}

func TestValidate_MidfileSentinelAndRecovery(t *testing.T) {
	buf := append(objectTable(1, 1), sentinelHeader()...)
	buf = append(buf, []byte{1, 2, 3, 4}...)

	f := Validate(buf)
	assert.True(t, f.Has(FlagEmptyTableMidfile))
	assert.False(t, f.Has(FlagEOFEmptyTable))

	recovered, cleared := Recover(buf, f)
	assert.True(t, cleared.Has(FlagEmptyTableMidfile))
	assert.Less(t, len(recovered), len(buf))

	f2 := Validate(recovered)
	assert.False(t, f2.Has(FlagEmptyTableMidfile))
	assert.True(t, f2.Has(FlagEOFEmptyTable))
}

func TestValidate_MissingSentinel(t *testing.T) {
	buf := objectTable(1, 2)

	f := Validate(buf)
	assert.True(t, f.Has(FlagMissingSentinel))
	assert.False(t, f.Has(FlagEOFEmptyTable))
	assert.False(t, f.Has(FlagEmptyTableMidfile))

	recovered, cleared := Recover(buf, f)
	assert.Equal(t, Flag(0), cleared)
	assert.Equal(t, buf, recovered)
}

func TestRecover_NoOpWhenFlagAbsent(t *testing.T) {
	buf := append(objectTable(1, 1), sentinelHeader()...)
	recovered, cleared := Recover(buf, Flag(0))
	assert.Equal(t, buf, recovered)
	assert.Equal(t, Flag(0), cleared)
}

func TestFlag_String(t *testing.T) {
	assert.Equal(t, "none", Flag(0).String())
	assert.Equal(t, "BAD_TYPE,EOF_EMPTY_TABLE", (FlagBadType | FlagEOFEmptyTable).String())
}

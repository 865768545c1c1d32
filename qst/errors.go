package qst

import "errors"

var (
	errTruncatedHeader   = errors.New("qst: truncated header record")
	errTruncatedChunk    = errors.New("qst: truncated chunk record")
	errTruncatedWrapper  = errors.New("qst: truncated download wrapper")
	errImpossiblePktSize = errors.New("qst: impossible pkt_size for record type")
	errUnknownPktID      = errors.New("qst: unknown pkt_id")
	errUnannouncedFile   = errors.New("qst: chunk references a filename with no header record")
	errChunkOverflow     = errors.New("qst: chunk data exceeds the file's declared size")
	errIncompleteFile    = errors.New("qst: stream ended before file reached its declared size")
	errUnalignedPayload  = errors.New("qst: download payload length is not a multiple of 4")
)

// Package pipeline composes the codec and model packages into the five
// named high-level quest operations: producing an info report, and
// converting a quest among raw bin/dat, PRS-compressed bin/dat, online
// QST, and offline (download) QST. Every operation is a pure function
// over byte buffers — no operation touches a filesystem or network
// socket; that is left to the caller (the CLI driver or any other
// collaborator).
package pipeline

import (
	"bytes"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/project-agonyl/psoquest/binmodel"
	"github.com/project-agonyl/psoquest/datmodel"
	"github.com/project-agonyl/psoquest/internal/psoerr"
	"github.com/project-agonyl/psoquest/prs"
	"github.com/project-agonyl/psoquest/qst"
)

// Quest is the normalized in-memory form every pipeline operation works
// from: decompressed bin and dat buffers plus the base filenames used
// when framing a QST.
type Quest struct {
	Bin         []byte
	Dat         []byte
	BinFilename string
	DatFilename string
}

// Format selects a pipeline conversion target.
type Format int

const (
	FormatRawBinDat Format = iota
	FormatPRSBinDat
	FormatOnlineQST
	FormatOfflineQST
)

// LoadRawBinDat wraps an already-decompressed bin/dat pair with no
// further processing.
func LoadRawBinDat(bin, dat []byte, binFilename, datFilename string) Quest {
	return Quest{Bin: bin, Dat: dat, BinFilename: binFilename, DatFilename: datFilename}
}

// LoadPRSBinDat decompresses a PRS-compressed bin/dat pair.
func LoadPRSBinDat(binCompressed, datCompressed []byte, binFilename, datFilename string) (Quest, error) {
	bin, err := prs.Decompress(binCompressed)
	if err != nil {
		return Quest{}, psoerr.WithPath(psoerr.KindMalformedInput, "pipeline.LoadPRSBinDat", binFilename, err)
	}
	dat, err := prs.Decompress(datCompressed)
	if err != nil {
		return Quest{}, psoerr.WithPath(psoerr.KindMalformedInput, "pipeline.LoadPRSBinDat", datFilename, err)
	}
	return Quest{Bin: bin, Dat: dat, BinFilename: binFilename, DatFilename: datFilename}, nil
}

// LoadQST parses a .qst stream (online or offline, detected automatically)
// and decompresses its two payloads into a normalized Quest.
func LoadQST(r io.Reader) (Quest, error) {
	files, online, err := qst.Read(r)
	if err != nil {
		return Quest{}, err
	}
	if len(files) != 2 {
		return Quest{}, psoerr.New(psoerr.KindMalformedInput, "pipeline.LoadQST", errWantTwoFiles)
	}

	bin, dat, binName, datName, err := splitByExtension(files)
	if err != nil {
		return Quest{}, err
	}

	if !online {
		_, bin, err = qst.UnwrapDownload(bin)
		if err != nil {
			return Quest{}, err
		}
		_, dat, err = qst.UnwrapDownload(dat)
		if err != nil {
			return Quest{}, err
		}
	}

	return LoadPRSBinDat(bin, dat, binName, datName)
}

func splitByExtension(files []qst.ParsedFile) (bin, dat []byte, binName, datName string, err error) {
	for _, f := range files {
		switch extensionOf(f.Filename) {
		case "bin":
			bin, binName = f.Payload, f.Filename
		case "dat":
			dat, datName = f.Payload, f.Filename
		}
	}
	if bin == nil || dat == nil {
		return nil, nil, "", "", psoerr.New(psoerr.KindMalformedInput, "pipeline.LoadQST", errWantBinAndDat)
	}
	return bin, dat, binName, datName, nil
}

func extensionOf(filename string) string {
	for i := len(filename) - 1; i >= 0; i-- {
		if filename[i] == '.' {
			return filename[i+1:]
		}
	}
	return ""
}

// ValidationResult is what ValidateAndRecover produces: the (possibly
// recovered) Quest, the parsed models, and the final flag sets; an
// unrecovered flag is the caller's signal to surface ValidationFailed.
type ValidationResult struct {
	Quest    Quest
	Bin      binmodel.Bin
	Dat      datmodel.Dat
	BinFlags binmodel.Flag
	DatFlags datmodel.Flag
}

// hasUnrecoveredFailures reports whether binFlags or datFlags still carry
// a flag after recovery that is not purely informational. EOF_EMPTY_TABLE
// is expected on every well-formed .dat file and never counts as a
// failure; every other flag, including the new MISSING_SENTINEL, does.
func hasUnrecoveredFailures(binFlags binmodel.Flag, datFlags datmodel.Flag) bool {
	return binFlags != 0 || (datFlags&^datmodel.FlagEOFEmptyTable) != 0
}

// ValidateAndRecover implements the propagation policy of §7: codec
// primitives fail fast, but this pipeline stage catches validator flags,
// applies recovery, and only the flags that survive re-validation are
// the caller's concern. When any do, it returns the fully populated
// ValidationResult alongside a non-nil KindValidationFailed error, so
// callers that need the recovered bytes regardless (info, convert) can
// still use the result while treating the error as the pass/fail signal.
func ValidateAndRecover(q Quest) (ValidationResult, error) {
	bin, err := binmodel.Read(bytes.NewReader(q.Bin))
	if err != nil {
		return ValidationResult{}, psoerr.WithPath(psoerr.KindMalformedInput, "pipeline.ValidateAndRecover", q.BinFilename, err)
	}

	binFlags := binmodel.Validate(bin)
	if binFlags != 0 {
		recoveredBin, cleared := binmodel.Recover(bin, binFlags)
		bin = recoveredBin
		binFlags = binmodel.Validate(bin) &^ cleared
	}

	dat, err := datmodel.Decode(q.Dat)
	if err != nil {
		return ValidationResult{}, psoerr.WithPath(psoerr.KindMalformedInput, "pipeline.ValidateAndRecover", q.DatFilename, err)
	}

	datFlags := datmodel.Validate(q.Dat)
	recoveredDatBytes := q.Dat
	if datFlags != 0 {
		var cleared datmodel.Flag
		recoveredDatBytes, cleared = datmodel.Recover(q.Dat, datFlags)
		if cleared != 0 {
			dat, err = datmodel.Decode(recoveredDatBytes)
			if err != nil {
				return ValidationResult{}, err
			}
			datFlags = datmodel.Validate(recoveredDatBytes) &^ cleared
		}
	}

	var binBuf bytes.Buffer
	if err := binmodel.Write(&binBuf, bin); err != nil {
		return ValidationResult{}, err
	}

	result := ValidationResult{
		Quest:    Quest{Bin: binBuf.Bytes(), Dat: recoveredDatBytes, BinFilename: q.BinFilename, DatFilename: q.DatFilename},
		Bin:      bin,
		Dat:      dat,
		BinFlags: binFlags,
		DatFlags: datFlags,
	}

	if hasUnrecoveredFailures(binFlags, datFlags) {
		path := q.BinFilename
		if binFlags == 0 {
			path = q.DatFilename
		}
		return result, psoerr.WithPath(psoerr.KindValidationFailed, "pipeline.ValidateAndRecover", path,
			fmt.Errorf("bin flags %s, dat flags %s", binFlags, datFlags))
	}
	return result, nil
}

// setDownloadFlag returns a copy of bin with its header's DownloadFlag
// set to flag.
func setDownloadFlag(bin []byte, flag uint8) ([]byte, error) {
	b, err := binmodel.Read(bytes.NewReader(bin))
	if err != nil {
		return nil, err
	}
	b.Header.DownloadFlag = flag

	var out bytes.Buffer
	if err := binmodel.Write(&out, b); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// ConvertToRawBinDat validates and recovers q, then normalizes it to
// decompressed (bin, dat) with download_flag cleared. Per the
// propagation policy in §7, it returns a non-nil KindValidationFailed
// error (alongside the converted bytes) when a validator flag survived
// recovery.
func ConvertToRawBinDat(q Quest) (bin, dat []byte, err error) {
	result, err := ValidateAndRecover(q)
	if err != nil && !psoerr.Is(err, psoerr.KindValidationFailed) {
		return nil, nil, err
	}
	validationErr := err

	bin, convErr := setDownloadFlag(result.Quest.Bin, 0)
	if convErr != nil {
		return nil, nil, convErr
	}
	return bin, result.Quest.Dat, validationErr
}

// ConvertToPRSBinDat normalizes q and PRS-compresses both payloads, with
// download_flag cleared. See ConvertToRawBinDat for the validation error
// propagation rule.
func ConvertToPRSBinDat(q Quest) (binCompressed, datCompressed []byte, err error) {
	bin, dat, err := ConvertToRawBinDat(q)
	if err != nil && !psoerr.Is(err, psoerr.KindValidationFailed) {
		return nil, nil, err
	}
	return prs.Compress(bin), prs.Compress(dat), err
}

// ConvertToOnlineQST normalizes q, compresses both payloads, clears
// download_flag, and frames them as an online (0x44/0x13) QST stream. See
// ConvertToRawBinDat for the validation error propagation rule.
func ConvertToOnlineQST(w io.Writer, q Quest) error {
	binCompressed, datCompressed, err := ConvertToPRSBinDat(q)
	if err != nil && !psoerr.Is(err, psoerr.KindValidationFailed) {
		return err
	}
	validationErr := err

	files := []qst.FileSpec{
		{Filename: q.BinFilename, Payload: binCompressed},
		{Filename: q.DatFilename, Payload: datCompressed},
	}
	if writeErr := qst.Write(w, true, files); writeErr != nil {
		return writeErr
	}
	return validationErr
}

// ConvertToOfflineQST normalizes q, sets download_flag, compresses both
// payloads, wraps and encrypts them under a fresh random key each, and
// frames them as a download (0xA6/0xA7) QST stream. See ConvertToRawBinDat
// for the validation error propagation rule.
func ConvertToOfflineQST(w io.Writer, q Quest) error {
	result, err := ValidateAndRecover(q)
	if err != nil && !psoerr.Is(err, psoerr.KindValidationFailed) {
		return err
	}
	validationErr := err

	bin, convErr := setDownloadFlag(result.Quest.Bin, 1)
	if convErr != nil {
		return convErr
	}
	dat := result.Quest.Dat

	binCompressed := prs.Compress(bin)
	datCompressed := prs.Compress(dat)

	binKey, err := randomUint32()
	if err != nil {
		return err
	}
	datKey, err := randomUint32()
	if err != nil {
		return err
	}

	wrappedBin := qst.WrapForDownload(binCompressed, uint32(len(bin)), binKey)
	wrappedDat := qst.WrapForDownload(datCompressed, uint32(len(dat)), datKey)

	files := []qst.FileSpec{
		{Filename: q.BinFilename, Payload: wrappedBin},
		{Filename: q.DatFilename, Payload: wrappedDat},
	}
	if writeErr := qst.Write(w, false, files); writeErr != nil {
		return writeErr
	}
	return validationErr
}

func randomUint32() (uint32, error) {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0, psoerr.New(psoerr.KindIoError, "pipeline.randomUint32", err)
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

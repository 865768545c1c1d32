package binmodel

// Flag is one bit in a .bin validator's flag set. Validators return a Flag
// set rather than an error so callers can apply recovery heuristics before
// deciding whether the result is still invalid.
type Flag uint32

const (
	// FlagBadObjectCodeOffset is set when ObjectCodeOffset != 468.
	FlagBadObjectCodeOffset Flag = 1 << iota
	// FlagBinSizeSmaller is set when the declared BinSize is less than the
	// actual decompressed length.
	FlagBinSizeSmaller
	// FlagBinSizeLarger is set when the declared BinSize is greater than the
	// actual decompressed length.
	FlagBinSizeLarger
	// FlagEmptyName is set when Name has no content before its first NUL.
	FlagEmptyName
	// FlagUnexpectedEpisode is set when QuestNumberHigh, read as an episode
	// byte, exceeds 1 (suggesting the u16 quest_number interpretation applies
	// instead).
	FlagUnexpectedEpisode
)

// Has reports whether f contains flag.
func (f Flag) Has(flag Flag) bool { return f&flag != 0 }

// String renders the set flags as a comma-separated list of names, or
// "none" when empty.
func (f Flag) String() string {
	if f == 0 {
		return "none"
	}
	names := []struct {
		flag Flag
		name string
	}{
		{FlagBadObjectCodeOffset, "BAD_OBJECT_CODE_OFFSET"},
		{FlagBinSizeSmaller, "BIN_SIZE_SMALLER"},
		{FlagBinSizeLarger, "BIN_SIZE_LARGER"},
		{FlagEmptyName, "EMPTY_NAME"},
		{FlagUnexpectedEpisode, "UNEXPECTED_EPISODE"},
	}
	s := ""
	for _, n := range names {
		if f.Has(n.flag) {
			if s != "" {
				s += ","
			}
			s += n.name
		}
	}
	return s
}

// Validate checks b's header against the structural invariants of a
// well-formed .bin and returns every violated Flag. Validate is pure and
// idempotent: it depends only on b's contents.
func Validate(b Bin) Flag {
	var f Flag

	if b.Header.ObjectCodeOffset != ExpectedObjectCodeOff {
		f |= FlagBadObjectCodeOffset
	}

	actual := uint32(b.DecompressedLen())
	switch {
	case b.Header.BinSize < actual:
		f |= FlagBinSizeSmaller
	case b.Header.BinSize > actual:
		f |= FlagBinSizeLarger
	}

	if b.Header.GetName() == "" {
		f |= FlagEmptyName
	}

	if b.Header.QuestNumberHigh > 1 {
		f |= FlagUnexpectedEpisode
	}

	return f
}

// Recover applies the documented recovery heuristics for each flag in f,
// mutating a copy of b and returning it alongside the flags it cleared.
// Re-validating the returned Bin is guaranteed to yield a flag set that is
// a subset of f with every cleared flag absent.
func Recover(b Bin, f Flag) (Bin, Flag) {
	cleared := Flag(0)

	if f.Has(FlagBinSizeSmaller) {
		total := int(b.Header.BinSize)
		if total >= HeaderSize && total <= b.DecompressedLen() {
			b.ObjectCode = b.ObjectCode[:total-HeaderSize]
			cleared |= FlagBinSizeSmaller
		}
	}

	if f.Has(FlagBinSizeLarger) {
		if int(b.Header.BinSize) == b.DecompressedLen()+1 {
			b.ObjectCode = append(b.ObjectCode, 0)
			cleared |= FlagBinSizeLarger
		}
	}

	if f.Has(FlagUnexpectedEpisode) {
		// The byte-pair interpretation is abandoned in favor of the u16
		// quest_number interpretation; the bytes themselves are unchanged; only
		// the flag's precondition (reading QuestNumberHigh as an episode) no
		// longer applies.
		cleared |= FlagUnexpectedEpisode
	}

	return b, cleared
}

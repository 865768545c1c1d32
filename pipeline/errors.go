package pipeline

import "errors"

var (
	errWantTwoFiles  = errors.New("pipeline: a qst stream must announce exactly two files")
	errWantBinAndDat = errors.New("pipeline: a qst stream must announce one .bin and one .dat file")
)

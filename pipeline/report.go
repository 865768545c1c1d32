package pipeline

import (
	"github.com/project-agonyl/psoquest/areas"
	"github.com/project-agonyl/psoquest/binmodel"
	"github.com/project-agonyl/psoquest/datmodel"
	"github.com/project-agonyl/psoquest/internal/psoerr"
	"github.com/project-agonyl/psoquest/sjis"
)

// TableSummary describes one decoded .dat table for a Report.
type TableSummary struct {
	Type        uint32
	Area        uint32
	AreaName    string
	RecordCount int
}

// Report is the structured result of the info operation: the .bin
// header fields, the .dat table listing, and every validator flag that
// recovery did not clear.
type Report struct {
	Name                  string
	ShortDescription      string
	LongDescription       string
	QuestNumberBytePair   uint8
	EpisodeBytePair       uint8
	QuestNumberWord       uint16
	DownloadFlag          uint8
	BinFlags              binmodel.Flag
	Tables                []TableSummary
	DatFlags              datmodel.Flag
	DatSentinelFoundAtEnd bool
}

// HasUnrecoveredFailures reports whether Report carries any flag that is
// not purely informational (EOF_EMPTY_TABLE is expected on every
// well-formed file and never counts as a failure).
func (r Report) HasUnrecoveredFailures() bool {
	return hasUnrecoveredFailures(r.BinFlags, r.DatFlags)
}

// episodeFromQuestHeader infers the episode used for area-name lookup from
// the bin header's episode byte; UNEXPECTED_EPISODE callers should
// already have chosen an interpretation before calling Info.
func episodeFromQuestHeader(h binmodel.Header) areas.Episode {
	if h.QuestNumberHigh == 1 {
		return areas.EpisodeII
	}
	return areas.EpisodeI
}

// Info parses q into its structural models, applies validation and
// recovery, and returns a structured report of the result. The returned
// Report's flags are what remained after recovery, per the propagation
// policy in §7: only these should drive a caller's pass/fail decision.
// Info itself returns a non-nil KindValidationFailed error in that case,
// alongside the fully populated Report, so callers can still inspect what
// failed.
func Info(q Quest) (Report, error) {
	result, err := ValidateAndRecover(q)
	if err != nil && !psoerr.Is(err, psoerr.KindValidationFailed) {
		return Report{}, err
	}

	episode := episodeFromQuestHeader(result.Bin.Header)

	name, nameErr := sjis.ToUTF8(result.Bin.Header.Name[:])
	if nameErr != nil {
		return Report{}, psoerr.WithPath(psoerr.KindMalformedInput, "pipeline.Info", q.BinFilename, nameErr)
	}
	shortDesc, shortErr := sjis.ToUTF8(result.Bin.Header.ShortDescription[:])
	if shortErr != nil {
		return Report{}, psoerr.WithPath(psoerr.KindMalformedInput, "pipeline.Info", q.BinFilename, shortErr)
	}
	longDesc, longErr := sjis.ToUTF8(result.Bin.Header.LongDescription[:])
	if longErr != nil {
		return Report{}, psoerr.WithPath(psoerr.KindMalformedInput, "pipeline.Info", q.BinFilename, longErr)
	}

	report := Report{
		Name:                  name,
		ShortDescription:      shortDesc,
		LongDescription:       longDesc,
		DownloadFlag:          result.Bin.Header.DownloadFlag,
		BinFlags:              result.BinFlags,
		DatFlags:              result.DatFlags,
		DatSentinelFoundAtEnd: result.Dat.SentinelAtEnd,
	}
	report.QuestNumberBytePair, report.EpisodeBytePair = result.Bin.Header.QuestNumberAsBytePair()
	report.QuestNumberWord = result.Bin.Header.QuestNumberAsWord()

	for _, table := range result.Dat.Tables {
		count := 0
		switch datmodel.TableType(table.Header.Type) {
		case datmodel.TableTypeObject:
			count = len(table.Objects)
		case datmodel.TableTypeNPC:
			count = len(table.NPCs)
		default:
			count = 1
		}
		report.Tables = append(report.Tables, TableSummary{
			Type:        table.Header.Type,
			Area:        table.Header.Area,
			AreaName:    areas.Name(episode, uint8(table.Header.Area)),
			RecordCount: count,
		})
	}

	return report, err
}

package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/project-agonyl/psoquest/internal/psoerr"
	"github.com/project-agonyl/psoquest/pipeline"
)

var infoCmd = &cobra.Command{
	Use:   "info <bin> <dat> | <qst>",
	Short: "Print a structured report for a quest (bin/dat pair or qst)",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runInfo,
}

func runInfo(cmd *cobra.Command, args []string) error {
	q, err := loadQuest(args)
	if err != nil {
		return err
	}

	report, err := pipeline.Info(q)
	if err != nil && !psoerr.Is(err, psoerr.KindValidationFailed) {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(report); encErr != nil {
			return encErr
		}
		return err
	}

	printReport(report)
	if report.HasUnrecoveredFailures() {
		log.Warn().
			Str("bin_flags", report.BinFlags.String()).
			Str("dat_flags", report.DatFlags.String()).
			Msg("validation flags survived recovery")
	}
	return err
}

func printReport(r pipeline.Report) {
	fmt.Printf("name:              %s\n", r.Name)
	fmt.Printf("short description: %s\n", r.ShortDescription)
	fmt.Printf("quest number (u8):  %d  episode (u8): %d\n", r.QuestNumberBytePair, r.EpisodeBytePair)
	fmt.Printf("quest number (u16): %d\n", r.QuestNumberWord)
	fmt.Printf("download flag:      %d\n", r.DownloadFlag)
	fmt.Printf("bin flags:          %s\n", r.BinFlags)
	fmt.Printf("dat flags:          %s\n", r.DatFlags)
	fmt.Printf("tables (%d):\n", len(r.Tables))
	for _, table := range r.Tables {
		fmt.Printf("  type=%d area=%d (%s) records=%d\n", table.Type, table.Area, table.AreaName, table.RecordCount)
	}
}

// loadQuest dispatches on file extension: a single .qst argument, or a
// bin/dat pair in either order.
func loadQuest(args []string) (pipeline.Quest, error) {
	if len(args) == 1 {
		if !strings.EqualFold(filepath.Ext(args[0]), ".qst") {
			return pipeline.Quest{}, fmt.Errorf("single input %q must be a .qst file", args[0])
		}
		f, err := os.Open(args[0])
		if err != nil {
			return pipeline.Quest{}, err
		}
		defer f.Close()
		return pipeline.LoadQST(f)
	}

	binPath, datPath, err := orderBinDat(args[0], args[1])
	if err != nil {
		return pipeline.Quest{}, err
	}

	binBytes, err := os.ReadFile(binPath)
	if err != nil {
		return pipeline.Quest{}, err
	}
	datBytes, err := os.ReadFile(datPath)
	if err != nil {
		return pipeline.Quest{}, err
	}

	return pipeline.LoadPRSBinDat(binBytes, datBytes, filepath.Base(binPath), filepath.Base(datPath))
}

func orderBinDat(a, b string) (bin, dat string, err error) {
	extA, extB := strings.ToLower(filepath.Ext(a)), strings.ToLower(filepath.Ext(b))
	switch {
	case extA == ".bin" && extB == ".dat":
		return a, b, nil
	case extA == ".dat" && extB == ".bin":
		return b, a, nil
	default:
		return "", "", fmt.Errorf("expected one .bin and one .dat file, got %q and %q", a, b)
	}
}

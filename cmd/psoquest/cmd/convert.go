package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/project-agonyl/psoquest/internal/psoerr"
	"github.com/project-agonyl/psoquest/pipeline"
)

var toFormat string

var convertCmd = &cobra.Command{
	Use:   "convert <inputs...> <outputs...>",
	Short: "Convert a quest between raw_bindat, prs_bindat, online_qst, and offline_qst",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runConvert,
}

func init() {
	convertCmd.Flags().StringVar(&toFormat, "to", "", "target format: raw_bindat, prs_bindat, online_qst, offline_qst")
	_ = convertCmd.MarkFlagRequired("to")
}

func runConvert(cmd *cobra.Command, args []string) error {
	format, err := parseFormat(toFormat)
	if err != nil {
		return err
	}

	outputCount := 1
	if format == pipeline.FormatRawBinDat || format == pipeline.FormatPRSBinDat {
		outputCount = 2
	}
	if len(args) <= outputCount {
		return fmt.Errorf("expected inputs followed by %d output path(s)", outputCount)
	}

	inputs := args[:len(args)-outputCount]
	outputs := args[len(args)-outputCount:]

	q, err := loadQuest(inputs)
	if err != nil {
		return err
	}

	writeErr := writeOutputs(format, q, outputs)
	if writeErr != nil && psoerr.Is(writeErr, psoerr.KindValidationFailed) {
		log.Warn().Msg("validation flags survived recovery; converted anyway")
	}
	return writeErr
}

func parseFormat(s string) (pipeline.Format, error) {
	switch s {
	case "raw_bindat":
		return pipeline.FormatRawBinDat, nil
	case "prs_bindat":
		return pipeline.FormatPRSBinDat, nil
	case "online_qst":
		return pipeline.FormatOnlineQST, nil
	case "offline_qst":
		return pipeline.FormatOfflineQST, nil
	default:
		return 0, fmt.Errorf("unknown format %q", s)
	}
}

func writeOutputs(format pipeline.Format, q pipeline.Quest, outputs []string) error {
	switch format {
	case pipeline.FormatRawBinDat:
		bin, dat, err := pipeline.ConvertToRawBinDat(q)
		if err != nil && !psoerr.Is(err, psoerr.KindValidationFailed) {
			return err
		}
		if writeErr := writePair(outputs, bin, dat); writeErr != nil {
			return writeErr
		}
		return err

	case pipeline.FormatPRSBinDat:
		bin, dat, err := pipeline.ConvertToPRSBinDat(q)
		if err != nil && !psoerr.Is(err, psoerr.KindValidationFailed) {
			return err
		}
		if writeErr := writePair(outputs, bin, dat); writeErr != nil {
			return writeErr
		}
		return err

	case pipeline.FormatOnlineQST:
		f, err := os.Create(outputs[0])
		if err != nil {
			return err
		}
		defer f.Close()
		return pipeline.ConvertToOnlineQST(f, q)

	case pipeline.FormatOfflineQST:
		f, err := os.Create(outputs[0])
		if err != nil {
			return err
		}
		defer f.Close()
		return pipeline.ConvertToOfflineQST(f, q)

	default:
		return fmt.Errorf("unhandled format %v", format)
	}
}

func writePair(outputs []string, bin, dat []byte) error {
	binPath, datPath, err := orderBinDat(outputs[0], outputs[1])
	if err != nil {
		return err
	}
	if err := os.WriteFile(binPath, bin, 0o644); err != nil {
		return err
	}
	return os.WriteFile(datPath, dat, 0o644)
}

// Command psoquest is the reference driver for the quest-format
// toolkit: it exposes info and convert as cobra subcommands, wiring the
// pipeline package to file I/O and standard output.
package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/project-agonyl/psoquest/cmd/psoquest/cmd"
)

func main() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})

	if err := cmd.Execute(); err != nil {
		log.Error().Err(err).Msg("psoquest failed")
		os.Exit(1)
	}
}

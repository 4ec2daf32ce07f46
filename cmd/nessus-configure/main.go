package main

import (
	"os"

	"github.com/rs/zerolog/log"
)

// fatalExitCode is returned for every fatal failure: readiness timeout,
// configuration error, dialogue failure, or link failure.
const fatalExitCode = 3

func main() {
	if err := Execute(); err != nil {
		log.Error().Err(err).Msg("Scanner configuration failed")
		os.Exit(fatalExitCode)
	}
}

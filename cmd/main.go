// Command compliance-gateway runs the authenticated proxy in front of the
// compliance API.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

func main() {
	// A local .env is a development convenience; absence is not an error.
	_ = godotenv.Load()

	configPath := flag.String("config", "", "path to YAML config file (optional)")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	log := setupLogging(*debug)

	if err := run(*configPath, log); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func setupLogging(debug bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	return zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
}

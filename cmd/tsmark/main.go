package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/beam-cloud/tsmark/pkg/commands"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Use:     "tsmark",
	Short:   "Embed and recover named payloads in MPEG transport streams",
	Version: version,
}

func main() {
	// Setup logging
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	rootCmd.AddCommand(commands.EmbedCmd)
	rootCmd.AddCommand(commands.ExtractCmd)
	rootCmd.AddCommand(commands.ListCmd)
	rootCmd.AddCommand(commands.StoreCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

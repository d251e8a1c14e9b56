package commands

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/beam-cloud/tsmark/pkg/metrics"
	"github.com/beam-cloud/tsmark/pkg/tsmark"
)

type ExtractCmdOptions struct {
	InputPath  string
	OutputPath string
	Names      []string
	Verbose    bool
}

var extractOpts = &ExtractCmdOptions{}

var ExtractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract embedded payloads from a transport stream",
	RunE:  runExtract,
}

func init() {
	ExtractCmd.Flags().StringVarP(&extractOpts.InputPath, "input", "i", "", "Input transport stream")
	ExtractCmd.Flags().StringVarP(&extractOpts.OutputPath, "output", "o", ".", "Output directory for extracted entries")
	ExtractCmd.Flags().StringArrayVarP(&extractOpts.Names, "name", "n", nil, "Entry name to extract (repeatable; default all)")
	ExtractCmd.Flags().BoolVarP(&extractOpts.Verbose, "verbose", "v", false, "Verbose output")
	ExtractCmd.MarkFlagRequired("input")
}

func runExtract(cmd *cobra.Command, args []string) error {
	if extractOpts.Verbose {
		tsmark.SetLogLevel("debug")
	}

	entries, err := tsmark.Extract(cmd.Context(), tsmark.ExtractOptions{
		InputPath:  extractOpts.InputPath,
		OutputPath: extractOpts.OutputPath,
		Names:      extractOpts.Names,
	})
	if err != nil {
		return err
	}

	if extractOpts.Verbose {
		metrics.LogSummary()
	}

	log.Info().Msgf("extracted %d entries", len(entries))
	return nil
}

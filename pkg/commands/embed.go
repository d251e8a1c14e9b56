// Package commands defines the tsmark CLI commands.
package commands

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/beam-cloud/tsmark/pkg/metrics"
	"github.com/beam-cloud/tsmark/pkg/tsmark"
)

type EmbedCmdOptions struct {
	InputPath  string
	OutputPath string
	Files      []string
	Verbose    bool
}

var embedOpts = &EmbedCmdOptions{}

var EmbedCmd = &cobra.Command{
	Use:   "embed",
	Short: "Embed named payloads into a transport stream",
	RunE:  runEmbed,
}

func init() {
	EmbedCmd.Flags().StringVarP(&embedOpts.InputPath, "input", "i", "", "Input transport stream (optional; omit for an empty base stream)")
	EmbedCmd.Flags().StringVarP(&embedOpts.OutputPath, "output", "o", "", "Output transport stream")
	EmbedCmd.Flags().StringArrayVarP(&embedOpts.Files, "add", "a", nil, "Entry to embed, as name=path (repeatable)")
	EmbedCmd.Flags().BoolVarP(&embedOpts.Verbose, "verbose", "v", false, "Verbose output")
	EmbedCmd.MarkFlagRequired("output")
	EmbedCmd.MarkFlagRequired("add")
}

func runEmbed(cmd *cobra.Command, args []string) error {
	if embedOpts.Verbose {
		tsmark.SetLogLevel("debug")
	}

	files := make([]tsmark.FileMapping, 0, len(embedOpts.Files))
	for _, arg := range embedOpts.Files {
		name, path, found := strings.Cut(arg, "=")
		if !found || name == "" || path == "" {
			return fmt.Errorf("invalid --add value %q: expected name=path", arg)
		}
		files = append(files, tsmark.FileMapping{Name: name, Path: path})
	}

	err := tsmark.Embed(cmd.Context(), tsmark.EmbedOptions{
		InputPath:  embedOpts.InputPath,
		OutputPath: embedOpts.OutputPath,
		Files:      files,
	})
	if err != nil {
		return err
	}

	if embedOpts.Verbose {
		metrics.LogSummary()
	}

	log.Info().Msg("done")
	return nil
}

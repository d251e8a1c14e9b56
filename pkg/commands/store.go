package commands

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/beam-cloud/tsmark/pkg/tsmark"
)

var StoreCmd = &cobra.Command{
	Use:   "store",
	Short: "Store a marked transport stream in remote storage",
}

type StoreS3CmdOptions struct {
	InputPath string
	Bucket    string
	Key       string
}

var storeS3Opts = &StoreS3CmdOptions{}

var StoreS3Cmd = &cobra.Command{
	Use:   "s3",
	Short: "Upload a marked transport stream to an S3 bucket",
	RunE:  runStoreS3,
}

func init() {
	StoreCmd.AddCommand(StoreS3Cmd)

	StoreS3Cmd.Flags().StringVarP(&storeS3Opts.InputPath, "input", "i", "", "Input transport stream path")
	StoreS3Cmd.Flags().StringVarP(&storeS3Opts.Bucket, "bucket", "b", "", "S3 bucket name")
	StoreS3Cmd.Flags().StringVarP(&storeS3Opts.Key, "key", "k", "", "S3 object key (default: input base name)")

	StoreS3Cmd.MarkFlagRequired("input")
	StoreS3Cmd.MarkFlagRequired("bucket")
}

func runStoreS3(cmd *cobra.Command, args []string) error {
	err := tsmark.StoreS3(cmd.Context(), tsmark.StoreS3Options{
		InputPath: storeS3Opts.InputPath,
		Bucket:    storeS3Opts.Bucket,
		Key:       storeS3Opts.Key,
	})
	if err != nil {
		return err
	}

	log.Info().Msg("done")
	return nil
}

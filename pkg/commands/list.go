package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/beam-cloud/tsmark/pkg/tsmark"
)

type ListCmdOptions struct {
	InputPath string
}

var listOpts = &ListCmdOptions{}

var ListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the entries a transport stream carries",
	RunE:  runList,
}

func init() {
	ListCmd.Flags().StringVarP(&listOpts.InputPath, "input", "i", "", "Input transport stream")
	ListCmd.MarkFlagRequired("input")
}

func runList(cmd *cobra.Command, args []string) error {
	infos, err := tsmark.List(cmd.Context(), tsmark.ListOptions{
		InputPath: listOpts.InputPath,
	})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSIZE")
	for _, info := range infos {
		fmt.Fprintf(w, "%s\t%d\n", info.Name, info.Size)
	}
	return w.Flush()
}

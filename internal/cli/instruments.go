package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"psych-assessment-service/internal/catalog"
)

// NewInstrumentsCmd prints the catalog.
func NewInstrumentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "instruments",
		Short: "List the available assessment instruments",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printInstruments(cmd.OutOrStdout())
		},
	}
}

func printInstruments(out io.Writer) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tQUESTIONS\tTITLE")
	for _, kind := range catalog.Kinds() {
		inst, err := catalog.Get(kind)
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\n", inst.Kind, inst.QuestionCount(), inst.Title)
	}
	return tw.Flush()
}

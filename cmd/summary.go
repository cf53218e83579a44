package cmd

import (
	"io"

	"github.com/jaffee/commandeer"
	"github.com/spf13/cobra"
	"github.com/spindash/spindash/report"
)

// SummaryMain is wrapped by NewSummaryCommand and only exported for testing
// purposes.
var SummaryMain *report.Main

// NewSummaryCommand returns a new cobra command wrapping SummaryMain.
func NewSummaryCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	var err error
	SummaryMain = report.NewMain()
	summaryCommand := &cobra.Command{
		Use:   "summary",
		Short: "summary - print a quick overview of processed artifacts",
		Long: `Reads the summary artifact from a processed artifact directory
and prints listening totals, the date range, session stats and the top
artists to the terminal.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return SummaryMain.Run()
		},
	}
	flags := summaryCommand.Flags()
	err = commandeer.Flags(flags, SummaryMain)
	if err != nil {
		panic(err)
	}
	return summaryCommand
}

func init() {
	subcommandFns["summary"] = NewSummaryCommand
}

package cmd

import (
	"io"
	"log"
	"time"

	"github.com/jaffee/commandeer"
	"github.com/spf13/cobra"
	"github.com/spindash/spindash/merge"
)

// MergeMain is wrapped by NewMergeCommand and only exported for testing
// purposes.
var MergeMain *merge.Main

// NewMergeCommand returns a new cobra command wrapping MergeMain.
func NewMergeCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	var err error
	MergeMain = merge.NewMain()
	mergeCommand := &cobra.Command{
		Use:   "merge",
		Short: "merge - collect a multi-file export into one merged log",
		Long: `Scans a data directory for export files of either flavor,
drops invalid and duplicate records, and writes a single merged log file
with a metadata block. With a seen index configured, re-merging overlapping
exports stays idempotent across runs.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			start := time.Now()
			err = MergeMain.Run()
			if err != nil {
				return err
			}
			log.Println("Done: ", time.Since(start))
			return nil
		},
	}
	flags := mergeCommand.Flags()
	err = commandeer.Flags(flags, MergeMain)
	if err != nil {
		panic(err)
	}
	return mergeCommand
}

func init() {
	subcommandFns["merge"] = NewMergeCommand
}

package cmd

import (
	"io"
	"log"
	"time"

	"github.com/jaffee/commandeer"
	"github.com/spf13/cobra"
	"github.com/spindash/spindash/file"
)

// RunMain is wrapped by NewRunCommand and only exported for testing purposes.
var RunMain *file.Main

// NewRunCommand returns a new cobra command wrapping RunMain.
func NewRunCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	var err error
	RunMain = file.NewMain()
	runCommand := &cobra.Command{
		Use:   "run",
		Short: "run - process a local export into dashboard artifacts",
		Long: `Reads a streaming export file (or a directory of export files),
runs the normalize/filter/dedupe/aggregate pipeline, and writes one artifact
file per dashboard concern into the output directory.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			start := time.Now()
			err = RunMain.Run()
			if err != nil {
				return err
			}
			log.Println("Done: ", time.Since(start))
			return nil
		},
	}
	flags := runCommand.Flags()
	err = commandeer.Flags(flags, RunMain)
	if err != nil {
		panic(err)
	}
	return runCommand
}

func init() {
	subcommandFns["run"] = NewRunCommand
}

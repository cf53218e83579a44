package cmd

import (
	"io"
	"log"
	"time"

	"github.com/jaffee/commandeer"
	"github.com/spf13/cobra"
	"github.com/spindash/spindash/sanitize"
)

// SanitizeMain is wrapped by NewSanitizeCommand and only exported for testing
// purposes.
var SanitizeMain *sanitize.Main

// NewSanitizeCommand returns a new cobra command wrapping SanitizeMain.
func NewSanitizeCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	var err error
	SanitizeMain = sanitize.NewMain()
	sanitizeCommand := &cobra.Command{
		Use:   "sanitize",
		Short: "sanitize - redact an export for publication",
		Long: `Copies every JSON file of an export into the output directory
with sensitive fields removed and sensitive string patterns replaced by
placeholder tags, then writes a report of what was redacted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			start := time.Now()
			err = SanitizeMain.Run()
			if err != nil {
				return err
			}
			log.Println("Done: ", time.Since(start))
			return nil
		},
	}
	flags := sanitizeCommand.Flags()
	err = commandeer.Flags(flags, SanitizeMain)
	if err != nil {
		panic(err)
	}
	return sanitizeCommand
}

func init() {
	subcommandFns["sanitize"] = NewSanitizeCommand
}

// Package languagescmder provides the languages command.
package languagescmder

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/lingo/pkg/cliui"
	"github.com/papercomputeco/lingo/pkg/languages"
)

const languagesLongDesc string = `List the languages offered for translation.

Either the code or the name can be passed to --from, --to and --lang.`

const languagesShortDesc string = "List supported languages"

func NewLanguagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: languagesShortDesc,
		Long:  languagesLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.OutOrStdout())
		},
	}
}

func run(out io.Writer) error {
	all := languages.All()

	width := 0
	for _, l := range all {
		width = max(width, len(l.Code))
	}

	for _, l := range all {
		cliui.KeyValue(out, l.Code, l.Name, width)
	}
	return nil
}

package taskcmder

import (
	"github.com/spf13/cobra"

	"github.com/papercomputeco/lingo/pkg/config"
	"github.com/papercomputeco/lingo/pkg/languages"
	"github.com/papercomputeco/lingo/pkg/prompt"
)

type translateCommander struct {
	taskCommander

	source string
	target string
}

const translateLongDesc string = `Translate text with a local Ollama model.

Text is taken from the arguments or, when there are none, from stdin.
The translation is streamed to stdout as it is generated. Press Ctrl-C
to stop early and keep what was generated so far.

Languages may be given as codes or names (see "lingo languages").
Unknown names are passed to the model as written.

Examples:
  lingo translate "Good morning"
  lingo translate --from es --to en "Hola, ¿cómo estás?"
  cat notes.txt | lingo translate --to French
  lingo translate --watch draft.txt --to de
  lingo translate --relay http://localhost:8090 "Hello"`

const translateShortDesc string = "Translate text between languages"

var translateFlagKeys = []string{
	config.FlagServer,
	config.FlagModel,
	config.FlagRelayTarget,
	config.FlagSource,
	config.FlagTarget,
}

func NewTranslateCmd() *cobra.Command {
	cmder := &translateCommander{}

	cmd := &cobra.Command{
		Use:   "translate [text...]",
		Short: translateShortDesc,
		Long:  translateLongDesc,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			targets := cmder.sharedKeys()
			targets[config.FlagSource] = &cmder.source
			targets[config.FlagTarget] = &cmder.target
			return loadConfig(cmd, translateFlagKeys, targets)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd, args, cmder.prompt)
		},
	}

	cmder.addFlags(cmd)
	config.AddStringFlag(cmd, config.Flags, config.FlagSource, &cmder.source)
	config.AddStringFlag(cmd, config.Flags, config.FlagTarget, &cmder.target)

	return cmd
}

func (c *translateCommander) prompt(text string) string {
	return prompt.BuildTranslationPrompt(text, languages.Name(c.source), languages.Name(c.target))
}

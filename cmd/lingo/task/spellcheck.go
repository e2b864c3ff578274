package taskcmder

import (
	"github.com/spf13/cobra"

	"github.com/papercomputeco/lingo/pkg/config"
	"github.com/papercomputeco/lingo/pkg/languages"
	"github.com/papercomputeco/lingo/pkg/prompt"
)

type spellcheckCommander struct {
	taskCommander

	language string
}

const spellcheckLongDesc string = `Correct spelling, grammar and punctuation with a local Ollama model.

The text keeps its meaning, tone and line breaks and is never translated.
Without --lang the model detects the input language.

Examples:
  lingo spellcheck "He go to school"
  lingo spellcheck --lang fr < lettre.txt
  lingo spellcheck --watch README.md`

const spellcheckShortDesc string = "Correct spelling and grammar"

var spellcheckFlagKeys = []string{
	config.FlagServer,
	config.FlagModel,
	config.FlagRelayTarget,
	config.FlagLanguage,
}

func NewSpellcheckCmd() *cobra.Command {
	cmder := &spellcheckCommander{}

	cmd := &cobra.Command{
		Use:   "spellcheck [text...]",
		Short: spellcheckShortDesc,
		Long:  spellcheckLongDesc,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			targets := cmder.sharedKeys()
			targets[config.FlagLanguage] = &cmder.language
			return loadConfig(cmd, spellcheckFlagKeys, targets)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd, args, cmder.prompt)
		},
	}

	cmder.addFlags(cmd)
	config.AddStringFlag(cmd, config.Flags, config.FlagLanguage, &cmder.language)

	return cmd
}

func (c *spellcheckCommander) prompt(text string) string {
	hint := ""
	if c.language != "" {
		hint = languages.Name(c.language)
	}
	return prompt.BuildSpellcheckPrompt(text, hint)
}

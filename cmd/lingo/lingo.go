// Package lingocmder
package lingocmder

import (
	"github.com/spf13/cobra"

	configcmder "github.com/papercomputeco/lingo/cmd/lingo/config"
	languagescmder "github.com/papercomputeco/lingo/cmd/lingo/languages"
	modelscmder "github.com/papercomputeco/lingo/cmd/lingo/models"
	servecmder "github.com/papercomputeco/lingo/cmd/lingo/serve"
	taskcmder "github.com/papercomputeco/lingo/cmd/lingo/task"
	versioncmder "github.com/papercomputeco/lingo/cmd/version"
)

const lingoLongDesc string = `lingo translates and spellchecks text with a local Ollama model,
streaming the result as it is generated.

  lingo translate "Hello there" --to French
  echo "Teh quick brwon fox" | lingo spellcheck
  lingo translate --watch notes.txt --to German

Run a relay that other machines (or MCP clients) can use:
  lingo serve
  lingo translate --relay http://relay-host:8090 "Bonjour"`

const lingoShortDesc string = "lingo - local translation and spellcheck"

func NewLingoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "lingo",
		Short:         lingoShortDesc,
		Long:          lingoLongDesc,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to .lingo/ config directory")

	cmd.AddCommand(taskcmder.NewTranslateCmd())
	cmd.AddCommand(taskcmder.NewSpellcheckCmd())
	cmd.AddCommand(modelscmder.NewModelsCmd())
	cmd.AddCommand(languagescmder.NewLanguagesCmd())
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}

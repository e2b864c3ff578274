// Package configcmder provides the config command for managing persistent
// lingo configuration stored in the .lingo/ directory.
package configcmder

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/lingo/pkg/cliui"
	"github.com/papercomputeco/lingo/pkg/config"
)

const configLongDesc string = `Manage persistent lingo configuration.

Configuration is stored as config.toml in the .lingo/ directory (or
$LINGO_HOME) and provides default values for command flags. CLI flags and
LINGO_* environment variables take precedence over config file values.

Keys use dotted notation matching the TOML section structure:
  server.url, server.model,
  relay.listen, relay.upstream, relay.log_file, relay.journal_file,
  relay.disable_mcp, client.relay_target,
  translate.source, translate.target, spellcheck.language

Examples:
  lingo config set server.url http://gpu-box:11434
  lingo config set translate.target French
  lingo config get server.model
  lingo config list`

const configShortDesc string = "Manage persistent lingo configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}

func validateKey(key string) error {
	if !config.IsValidConfigKey(key) {
		return fmt.Errorf("unknown config key: %q\n\nValid keys: %s",
			key, strings.Join(config.ValidConfigKeys(), ", "))
	}
	return nil
}

func completeKeys(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return config.ValidConfigKeys(), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}

func printTarget(w io.Writer, cfger *config.Configer) {
	if target := cfger.GetTarget(); target != "" {
		fmt.Fprintf(w, "\n  %s %s\n\n",
			cliui.KeyStyle.Render("Config file:"),
			cliui.DimStyle.Render(target),
		)
		return
	}
	fmt.Fprintf(w, "\n  %s\n\n", cliui.DimStyle.Render("No config file found. Using defaults."))
}

package config

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag is the single source of truth for a CLI flag.
// Commands reference flags by registry key rather than hard-coding names,
// shorthands, defaults, and descriptions inline. This prevents flag drift
// when the same logical flag appears on multiple commands (e.g., --model
// on "lingo translate", "lingo spellcheck" and "lingo models").
type Flag struct {
	// Name is the long flag name (e.g. "server").
	Name string

	// Shorthand is the one-letter short flag (e.g. "s"). Empty for no shorthand.
	Shorthand string

	// ViperKey is the dotted config key this flag maps to (e.g. "server.url").
	ViperKey string

	// Description is the help text shown in --help output.
	Description string
}

// FlagSet is a mapping of flag names to Flag structs that hold their name,
// shorthand, viper key, etc.
type FlagSet map[string]Flag

// Flag registry keys.
// Use these constants when calling AddStringFlag, AddBoolFlag,
// and BindRegisteredFlags to avoid typos or drift from one command to another.
const (
	FlagServer      = "server"
	FlagModel       = "model"
	FlagRelayTarget = "relay"
	FlagSource      = "from"
	FlagTarget      = "to"
	FlagLanguage    = "lang"
	FlagListen      = "listen"
	FlagUpstream    = "upstream"
	FlagLogFile     = "log-file"
	FlagJournalFile = "journal-file"
	FlagDisableMCP  = "disable-mcp"
)

// Flags is the registry shared by every lingo command.
var Flags = FlagSet{
	FlagServer:      {Name: "server", Shorthand: "s", ViperKey: "server.url", Description: "Ollama server URL"},
	FlagModel:       {Name: "model", Shorthand: "m", ViperKey: "server.model", Description: "Model used for generation (defaults to the first listed model)"},
	FlagRelayTarget: {Name: "relay", Shorthand: "r", ViperKey: "client.relay_target", Description: "lingo relay URL; empty talks to the server directly"},
	FlagSource:      {Name: "from", Shorthand: "f", ViperKey: "translate.source", Description: "Source language (code or name)"},
	FlagTarget:      {Name: "to", Shorthand: "t", ViperKey: "translate.target", Description: "Target language (code or name)"},
	FlagLanguage:    {Name: "lang", Shorthand: "l", ViperKey: "spellcheck.language", Description: "Input language hint; empty lets the model detect it"},
	FlagListen:      {Name: "listen", Shorthand: "l", ViperKey: "relay.listen", Description: "Address for the relay to listen on"},
	FlagUpstream:    {Name: "upstream", Shorthand: "u", ViperKey: "relay.upstream", Description: "Default Ollama server the relay forwards to"},
	FlagLogFile:     {Name: "log-file", ViperKey: "relay.log_file", Description: "Also write JSON relay logs to this file"},
	FlagJournalFile: {Name: "journal-file", ViperKey: "relay.journal_file", Description: "Append a JSON metadata line per relayed generation to this file"},
	FlagDisableMCP:  {Name: "disable-mcp", ViperKey: "relay.disable_mcp", Description: "Do not mount the MCP server on /mcp"},
}

// AddStringFlag registers a string flag on cmd from the given FlagSet.
// The flag's name, shorthand, default, and description all come from the
// FlagSet entry so they cannot drift across commands.
func AddStringFlag(cmd *cobra.Command, fs FlagSet, key string, target *string) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaultString(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().StringVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().StringVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddBoolFlag registers a bool flag on cmd from the given FlagSet.
func AddBoolFlag(cmd *cobra.Command, fs FlagSet, key string, target *bool) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaultBool(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().BoolVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().BoolVar(target, def.Name, defaultVal, def.Description)
	}
}

// BindRegisteredFlags binds already-registered flags to viper using definitions
// from the given FlagSet. Call this in PreRunE after InitViper to connect flags
// to the viper precedence chain (flag > env > config file > default).
func BindRegisteredFlags(v *viper.Viper, cmd *cobra.Command, fs FlagSet, registryKeys []string) {
	for _, registryKey := range registryKeys {
		def, ok := fs[registryKey]
		if !ok {
			continue
		}

		f := cmd.Flags().Lookup(def.Name)
		if f == nil {
			continue
		}

		_ = v.BindPFlag(def.ViperKey, f)
	}
}

func defaultString(viperKey string) string {
	v := viper.New()
	setViperDefaults(v)
	return v.GetString(viperKey)
}

func defaultBool(viperKey string) bool {
	v := viper.New()
	setViperDefaults(v)
	return v.GetBool(viperKey)
}

// LoadViper initializes viper for the command's --config-dir and binds the
// given registry flags. Call it from PreRunE, then read resolved values with
// v.GetString(Flags[key].ViperKey).
func LoadViper(cmd *cobra.Command, fs FlagSet, registryKeys []string) (*viper.Viper, error) {
	configDir, _ := cmd.Flags().GetString("config-dir")
	v, err := InitViper(configDir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	BindRegisteredFlags(v, cmd, fs, registryKeys)
	return v, nil
}

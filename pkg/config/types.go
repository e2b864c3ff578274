package config

// Config represents the persistent lingo configuration stored as config.toml
// in the .lingo/ directory. The TOML layout uses sections for logical grouping.
type Config struct {
	Version    int              `toml:"version"`
	Server     ServerConfig     `toml:"server"`
	Relay      RelayConfig      `toml:"relay"`
	Client     ClientConfig     `toml:"client"`
	Translate  TranslateConfig  `toml:"translate"`
	Spellcheck SpellcheckConfig `toml:"spellcheck"`
}

// ServerConfig is the language-model server that generation requests target.
// An empty Model means the first model the server lists is used.
type ServerConfig struct {
	URL   string `toml:"url,omitempty"`
	Model string `toml:"model,omitempty"`
}

// RelayConfig holds settings for the forwarding relay (lingo serve).
type RelayConfig struct {
	Listen      string `toml:"listen,omitempty"`
	Upstream    string `toml:"upstream,omitempty"`
	LogFile     string `toml:"log_file,omitempty"`
	JournalFile string `toml:"journal_file,omitempty"`
	DisableMCP  bool   `toml:"disable_mcp,omitempty"`
}

// ClientConfig holds settings for CLI commands that generate text.
// When RelayTarget is empty the CLI talks to the server directly.
type ClientConfig struct {
	RelayTarget string `toml:"relay_target,omitempty"`
}

// TranslateConfig holds the default language pair for lingo translate.
type TranslateConfig struct {
	Source string `toml:"source,omitempty"`
	Target string `toml:"target,omitempty"`
}

// SpellcheckConfig holds the default language hint for lingo spellcheck.
// Empty means the model detects the language.
type SpellcheckConfig struct {
	Language string `toml:"language,omitempty"`
}

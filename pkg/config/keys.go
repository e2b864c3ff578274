package config

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/papercomputeco/lingo/pkg/languages"
)

// configKey is one user-facing dotted key (as used by "lingo config" and
// viper) bound to a field of Config.
type configKey struct {
	name string
	get  func(c *Config) string
	set  func(c *Config, v string) error
}

// configKeys lists every supported key in TOML section order.
var configKeys = []configKey{
	{"server.url", func(c *Config) string { return c.Server.URL }, setURL(func(c *Config) *string { return &c.Server.URL }, false)},
	{"server.model", func(c *Config) string { return c.Server.Model }, setString(func(c *Config) *string { return &c.Server.Model })},
	{"relay.listen", func(c *Config) string { return c.Relay.Listen }, setString(func(c *Config) *string { return &c.Relay.Listen })},
	{"relay.upstream", func(c *Config) string { return c.Relay.Upstream }, setURL(func(c *Config) *string { return &c.Relay.Upstream }, false)},
	{"relay.log_file", func(c *Config) string { return c.Relay.LogFile }, setString(func(c *Config) *string { return &c.Relay.LogFile })},
	{"relay.journal_file", func(c *Config) string { return c.Relay.JournalFile }, setString(func(c *Config) *string { return &c.Relay.JournalFile })},
	{"relay.disable_mcp", func(c *Config) string { return strconv.FormatBool(c.Relay.DisableMCP) }, setBool(func(c *Config) *bool { return &c.Relay.DisableMCP })},
	{"client.relay_target", func(c *Config) string { return c.Client.RelayTarget }, setURL(func(c *Config) *string { return &c.Client.RelayTarget }, true)},
	{"translate.source", func(c *Config) string { return c.Translate.Source }, setLanguage(func(c *Config) *string { return &c.Translate.Source }, false)},
	{"translate.target", func(c *Config) string { return c.Translate.Target }, setLanguage(func(c *Config) *string { return &c.Translate.Target }, false)},
	{"spellcheck.language", func(c *Config) string { return c.Spellcheck.Language }, setLanguage(func(c *Config) *string { return &c.Spellcheck.Language }, true)},
}

func lookupKey(name string) (configKey, bool) {
	for _, k := range configKeys {
		if k.name == name {
			return k, true
		}
	}
	return configKey{}, false
}

func setString(field func(*Config) *string) func(*Config, string) error {
	return func(c *Config, v string) error {
		*field(c) = v
		return nil
	}
}

func setBool(field func(*Config) *bool) func(*Config, string) error {
	return func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid boolean %q: %w", v, err)
		}
		*field(c) = b
		return nil
	}
}

// setURL accepts absolute http(s) URLs. optional also allows "".
func setURL(field func(*Config) *string, optional bool) func(*Config, string) error {
	return func(c *Config, v string) error {
		if v == "" && optional {
			*field(c) = ""
			return nil
		}
		u, err := url.Parse(v)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("invalid URL %q: want http://host[:port]", v)
		}
		*field(c) = v
		return nil
	}
}

// setLanguage stores the catalogue name for a code or name, so config.toml
// always holds what prompts use. optional also allows "".
func setLanguage(field func(*Config) *string, optional bool) func(*Config, string) error {
	return func(c *Config, v string) error {
		if v == "" && optional {
			*field(c) = ""
			return nil
		}
		lang, ok := languages.Lookup(v)
		if !ok {
			return fmt.Errorf("unknown language %q (see \"lingo languages\")", v)
		}
		*field(c) = lang.Name
		return nil
	}
}

package config

const (
	defaultServerURL   = "http://localhost:11434"
	defaultRelayListen = ":8090"

	defaultTranslateSource = "English"
	defaultTranslateTarget = "Spanish"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Server: ServerConfig{
			URL: defaultServerURL,
		},
		Relay: RelayConfig{
			Listen:   defaultRelayListen,
			Upstream: defaultServerURL,
		},
		Translate: TranslateConfig{
			Source: defaultTranslateSource,
			Target: defaultTranslateTarget,
		},
	}
}

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/spf13/viper"

	"github.com/papercomputeco/lingo/pkg/dotdir"
)

// EnvPrefix is the prefix for environment overrides, e.g. LINGO_SERVER_URL.
const EnvPrefix = "LINGO"

// InitViper returns a viper instance resolving, from highest to lowest:
// bound CLI flags (see BindRegisteredFlags), LINGO_* environment variables,
// config.toml in the .lingo/ directory for configDir, and NewDefaultConfig().
func InitViper(configDir string) (*viper.Viper, error) {
	path, err := dotdir.NewManager().File(configDir, configFile)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	v := viper.New()
	setViperDefaults(v)

	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	// server.url -> LINGO_SERVER_URL
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// setViperDefaults registers every config key's default under its dotted
// name, so defaults.go stays the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()
	v.SetDefault("version", d.Version)
	for _, k := range configKeys {
		v.SetDefault(k.name, k.get(d))
	}
}

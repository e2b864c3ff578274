package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/papercomputeco/lingo/pkg/dotdir"
)

const (
	configFile = "config.toml"

	// CurrentV is the config.toml schema version this build reads and writes.
	CurrentV = 0
)

// Configer reads and writes config.toml in a resolved .lingo/ directory.
type Configer struct {
	path string
}

// NewConfiger resolves config.toml inside the .lingo/ directory chosen by
// dotdir. override, when set, names the directory explicitly.
func NewConfiger(override string) (*Configer, error) {
	path, err := dotdir.NewManager().File(override, configFile)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return &Configer{path: path}, nil
}

// ValidConfigKeys returns every supported key in TOML section order.
func ValidConfigKeys() []string {
	names := make([]string, len(configKeys))
	for i, k := range configKeys {
		names[i] = k.name
	}
	return names
}

func IsValidConfigKey(key string) bool {
	_, ok := lookupKey(key)
	return ok
}

// GetTarget returns the path of config.toml, which may not exist yet.
func (c *Configer) GetTarget() string {
	return c.path
}

// LoadConfig reads config.toml over NewDefaultConfig(). A missing file
// yields the defaults.
func (c *Configer) LoadConfig() (*Config, error) {
	data, err := os.ReadFile(c.path)
	if errors.Is(err, os.ErrNotExist) {
		return NewDefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return ParseConfigTOML(data)
}

// SaveConfig writes cfg to config.toml. The file is replaced atomically so
// a concurrent reader sees either the old or the new content.
func (c *Configer) SaveConfig(cfg *Config) error {
	if cfg == nil {
		return errors.New("cannot save nil config")
	}

	tmp, err := os.CreateTemp(filepath.Dir(c.path), ".config-*.toml")
	if err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := toml.NewEncoder(tmp).Encode(cfg); err != nil {
		tmp.Close()
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("writing config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	if err := os.Rename(tmp.Name(), c.path); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// SetConfigValue validates value for key and saves it.
func (c *Configer) SetConfigValue(key, value string) error {
	k, ok := lookupKey(key)
	if !ok {
		return fmt.Errorf("unknown config key: %q", key)
	}

	cfg, err := c.LoadConfig()
	if err != nil {
		return err
	}
	if err := k.set(cfg, value); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return c.SaveConfig(cfg)
}

// GetConfigValue returns the effective value of key: the file's value, or
// the default when the file leaves it unset.
func (c *Configer) GetConfigValue(key string) (string, error) {
	k, ok := lookupKey(key)
	if !ok {
		return "", fmt.Errorf("unknown config key: %q", key)
	}

	cfg, err := c.LoadConfig()
	if err != nil {
		return "", err
	}
	return k.get(cfg), nil
}

// ParseConfigTOML decodes data over NewDefaultConfig(). Unknown keys and
// versions other than CurrentV are errors.
func ParseConfigTOML(data []byte) (*Config, error) {
	cfg := NewDefaultConfig()
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing config TOML: %w", err)
	}

	if cfg.Version != CurrentV {
		return nil, fmt.Errorf("unsupported config version %d (expected %d)", cfg.Version, CurrentV)
	}

	if keys := unknownKeys(md); len(keys) > 0 {
		return nil, fmt.Errorf("unknown keys in config: %s", strings.Join(keys, ", "))
	}
	return cfg, nil
}

// unknownKeys lists the undecoded keys, leaving out tables whose own
// keys are listed.
func unknownKeys(md toml.MetaData) []string {
	undecoded := md.Undecoded()
	var keys []string
	for _, k := range undecoded {
		if md.Type(k...) == "Hash" && hasChild(undecoded, k) {
			continue
		}
		keys = append(keys, k.String())
	}
	return keys
}

func hasChild(keys []toml.Key, parent toml.Key) bool {
	for _, k := range keys {
		if len(k) > len(parent) && slices.Equal(k[:len(parent)], parent) {
			return true
		}
	}
	return false
}

package config_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/lingo/pkg/config"
)

var _ = Describe("Configer", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "config-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	writeConfig := func(data string) {
		err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)
		Expect(err).NotTo(HaveOccurred())
	}

	Describe("NewConfiger", func() {
		It("targets config.toml inside the override directory", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(c.GetTarget()).To(HaveSuffix(filepath.Join(filepath.Base(tmpDir), "config.toml")))
		})
	})

	Describe("LoadConfig", func() {
		It("returns default config when no config file exists", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg).To(Equal(config.NewDefaultConfig()))
		})

		It("loads all config fields", func() {
			writeConfig(`version = 0

[server]
url = "http://gpu-box:11434"
model = "llama3.2"

[relay]
listen = ":9999"
upstream = "http://gpu-box:11434"
log_file = "/tmp/relay.log"
disable_mcp = true

[client]
relay_target = "http://localhost:9999"

[translate]
source = "German"
target = "French"

[spellcheck]
language = "English"
`)

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Server.URL).To(Equal("http://gpu-box:11434"))
			Expect(cfg.Server.Model).To(Equal("llama3.2"))
			Expect(cfg.Relay.Listen).To(Equal(":9999"))
			Expect(cfg.Relay.Upstream).To(Equal("http://gpu-box:11434"))
			Expect(cfg.Relay.LogFile).To(Equal("/tmp/relay.log"))
			Expect(cfg.Relay.DisableMCP).To(BeTrue())
			Expect(cfg.Client.RelayTarget).To(Equal("http://localhost:9999"))
			Expect(cfg.Translate.Source).To(Equal("German"))
			Expect(cfg.Translate.Target).To(Equal("French"))
			Expect(cfg.Spellcheck.Language).To(Equal("English"))
		})

		It("fills in defaults for unset fields in a partial config", func() {
			writeConfig(`[server]
model = "mistral"
`)

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())

			defaults := config.NewDefaultConfig()
			Expect(cfg.Server.Model).To(Equal("mistral"))
			Expect(cfg.Server.URL).To(Equal(defaults.Server.URL))
			Expect(cfg.Relay.Listen).To(Equal(defaults.Relay.Listen))
			Expect(cfg.Translate.Target).To(Equal(defaults.Translate.Target))
		})

		It("returns error for malformed TOML", func() {
			writeConfig("not valid toml [[[")

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := c.LoadConfig()
			Expect(err).To(HaveOccurred())
			Expect(cfg).To(BeNil())
		})

		It("returns error for unsupported config version", func() {
			writeConfig("version = 99\n")

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := c.LoadConfig()
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("unsupported config version"))
			Expect(cfg).To(BeNil())
		})
	})

	Describe("SaveConfig", func() {
		It("persists config to disk", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg := config.NewDefaultConfig()
			cfg.Server.Model = "qwen2.5"
			Expect(c.SaveConfig(cfg)).To(Succeed())

			info, err := os.Stat(filepath.Join(tmpDir, "config.toml"))
			Expect(err).NotTo(HaveOccurred())
			Expect(info.Mode().Perm()).To(Equal(os.FileMode(0o600)))

			loaded, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.Server.Model).To(Equal("qwen2.5"))

			entries, err := os.ReadDir(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(HaveLen(1), "temporary files are cleaned up")
		})

		It("returns error for nil config", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			Expect(c.SaveConfig(nil)).To(HaveOccurred())
		})
	})

	Describe("SetConfigValue", func() {
		It("sets a string config key", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			Expect(c.SetConfigValue("server.model", "llama3.2")).To(Succeed())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Server.Model).To(Equal("llama3.2"))
		})

		It("sets a bool config key", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			Expect(c.SetConfigValue("relay.disable_mcp", "true")).To(Succeed())

			value, err := c.GetConfigValue("relay.disable_mcp")
			Expect(err).NotTo(HaveOccurred())
			Expect(value).To(Equal("true"))
		})

		It("returns error for invalid bool value", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			err = c.SetConfigValue("relay.disable_mcp", "sometimes")
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("relay.disable_mcp"))
		})

		It("rejects URLs without an http scheme and host", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			Expect(c.SetConfigValue("server.url", "localhost:11434")).To(MatchError(ContainSubstring("server.url: invalid URL")))
			Expect(c.SetConfigValue("relay.upstream", "ftp://box")).To(HaveOccurred())
			Expect(c.SetConfigValue("client.relay_target", "")).To(Succeed())
		})

		It("stores the catalogue name for language codes", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			Expect(c.SetConfigValue("translate.target", "ja")).To(Succeed())
			value, err := c.GetConfigValue("translate.target")
			Expect(err).NotTo(HaveOccurred())
			Expect(value).To(Equal("Japanese"))

			Expect(c.SetConfigValue("translate.source", "Klingon")).To(MatchError(ContainSubstring(`unknown language "Klingon"`)))
			Expect(c.SetConfigValue("spellcheck.language", "")).To(Succeed())
		})

		It("returns error for unknown key", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			err = c.SetConfigValue("proxy.upstream", "x")
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("unknown config key"))
		})

		It("preserves existing values when setting a new key", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			Expect(c.SetConfigValue("translate.target", "Japanese")).To(Succeed())
			Expect(c.SetConfigValue("server.url", "http://remote:11434")).To(Succeed())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Translate.Target).To(Equal("Japanese"))
			Expect(cfg.Server.URL).To(Equal("http://remote:11434"))
		})
	})

	Describe("GetConfigValue", func() {
		It("returns default value when no config file exists", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			value, err := c.GetConfigValue("server.url")
			Expect(err).NotTo(HaveOccurred())
			Expect(value).To(Equal("http://localhost:11434"))
		})

		It("returns empty string for key with no default", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			value, err := c.GetConfigValue("server.model")
			Expect(err).NotTo(HaveOccurred())
			Expect(value).To(BeEmpty())
		})

		It("returns error for unknown key", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			_, err = c.GetConfigValue("nope")
			Expect(err).To(HaveOccurred())
		})
	})
})

var _ = Describe("ValidConfigKeys", func() {
	It("returns keys in section order", func() {
		keys := config.ValidConfigKeys()
		Expect(keys).To(HaveLen(11))
		Expect(keys[0]).To(Equal("server.url"))
		Expect(keys[len(keys)-1]).To(Equal("spellcheck.language"))
	})

	It("only returns valid keys", func() {
		for _, k := range config.ValidConfigKeys() {
			Expect(config.IsValidConfigKey(k)).To(BeTrue(), k)
		}
		Expect(config.IsValidConfigKey("storage.sqlite_path")).To(BeFalse())
	})
})

var _ = Describe("ParseConfigTOML", func() {
	It("returns the defaults for empty input", func() {
		cfg, err := config.ParseConfigTOML([]byte(""))
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg).To(Equal(config.NewDefaultConfig()))
	})

	It("rejects keys it does not know", func() {
		_, err := config.ParseConfigTOML([]byte("[proxy]\nprovider = \"anthropic\"\n"))
		Expect(err).To(MatchError("unknown keys in config: proxy.provider"))
	})

	It("names an unknown table only when it is empty", func() {
		_, err := config.ParseConfigTOML([]byte("[extra]\n[server]\ncolour = \"red\"\n"))
		Expect(err).To(MatchError("unknown keys in config: extra, server.colour"))
	})

	It("returns error for invalid TOML", func() {
		_, err := config.ParseConfigTOML([]byte("[[["))
		Expect(err).To(HaveOccurred())
	})
})

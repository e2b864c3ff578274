package config_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/lingo/pkg/config"
)

var _ = Describe("InitViper", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "viper-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	It("returns viper with defaults when no config file exists", func() {
		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		defaults := config.NewDefaultConfig()
		Expect(v.GetString("server.url")).To(Equal(defaults.Server.URL))
		Expect(v.GetString("relay.listen")).To(Equal(defaults.Relay.Listen))
		Expect(v.GetString("translate.source")).To(Equal(defaults.Translate.Source))
		Expect(v.GetBool("relay.disable_mcp")).To(BeFalse())
	})

	It("reads config file values over defaults", func() {
		data := `[server]
url = "http://gpu-box:11434"
`
		Expect(os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)).To(Succeed())

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(v.GetString("server.url")).To(Equal("http://gpu-box:11434"))
		Expect(v.GetString("relay.listen")).To(Equal(config.NewDefaultConfig().Relay.Listen))
	})

	It("env vars take precedence over config file values", func() {
		data := `[server]
model = "mistral"
`
		Expect(os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)).To(Succeed())
		GinkgoT().Setenv("LINGO_SERVER_MODEL", "llama3.2")

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(v.GetString("server.model")).To(Equal("llama3.2"))
	})
})

var _ = Describe("Flag registry", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "bindflag-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	It("binds cobra flags to viper keys", func() {
		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cmd := &cobra.Command{Use: "test"}
		var target string
		config.AddStringFlag(cmd, config.Flags, config.FlagTarget, &target)
		Expect(cmd.Flags().Set("to", "Korean")).To(Succeed())

		config.BindRegisteredFlags(v, cmd, config.Flags, []string{config.FlagTarget})
		Expect(v.GetString("translate.target")).To(Equal("Korean"))
	})

	It("falls through to config when flag not set", func() {
		data := `[relay]
listen = ":5555"
`
		Expect(os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)).To(Succeed())

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cmd := &cobra.Command{Use: "test"}
		var listen string
		config.AddStringFlag(cmd, config.Flags, config.FlagListen, &listen)

		config.BindRegisteredFlags(v, cmd, config.Flags, []string{config.FlagListen})
		Expect(v.GetString("relay.listen")).To(Equal(":5555"))
	})

	It("skips bindings for nonexistent registry keys", func() {
		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cmd := &cobra.Command{Use: "test"}
		config.BindRegisteredFlags(v, cmd, config.Flags, []string{"nonexistent"})
		Expect(v.GetString("server.url")).To(Equal(config.NewDefaultConfig().Server.URL))
	})

	It("pulls name, shorthand, default and description from the registry", func() {
		cmd := &cobra.Command{Use: "test"}
		var server string
		config.AddStringFlag(cmd, config.Flags, config.FlagServer, &server)

		f := cmd.Flags().Lookup("server")
		Expect(f).NotTo(BeNil())
		Expect(f.Shorthand).To(Equal("s"))
		Expect(f.Usage).To(Equal("Ollama server URL"))
		Expect(f.DefValue).To(Equal("http://localhost:11434"))
	})

	It("registers bool flags", func() {
		cmd := &cobra.Command{Use: "test"}
		var disable bool
		config.AddBoolFlag(cmd, config.Flags, config.FlagDisableMCP, &disable)

		f := cmd.Flags().Lookup("disable-mcp")
		Expect(f).NotTo(BeNil())
		Expect(f.DefValue).To(Equal("false"))
	})

	It("loads viper from the command's --config-dir", func() {
		data := `[spellcheck]
language = "fr"
`
		Expect(os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)).To(Succeed())

		cmd := &cobra.Command{Use: "test"}
		cmd.Flags().String("config-dir", tmpDir, "")
		var lang, model string
		config.AddStringFlag(cmd, config.Flags, config.FlagLanguage, &lang)
		config.AddStringFlag(cmd, config.Flags, config.FlagModel, &model)
		Expect(cmd.Flags().Set("model", "gemma3")).To(Succeed())

		v, err := config.LoadViper(cmd, config.Flags, []string{config.FlagLanguage, config.FlagModel})
		Expect(err).NotTo(HaveOccurred())
		Expect(v.GetString("spellcheck.language")).To(Equal("fr"))
		Expect(v.GetString("server.model")).To(Equal("gemma3"))
	})
})

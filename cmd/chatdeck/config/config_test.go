package configcmder_test

import (
	"bytes"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	configcmder "github.com/papercomputeco/chatdeck/cmd/chatdeck/config"
	"github.com/papercomputeco/chatdeck/pkg/config"
)

var _ = Describe("NewConfigCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := configcmder.NewConfigCmd()
		Expect(cmd.Use).To(Equal("config"))
	})

	It("has set, get, and list subcommands", func() {
		cmd := configcmder.NewConfigCmd()
		cmds := cmd.Commands()
		subcommands := make([]string, 0, len(cmds))
		for _, sub := range cmds {
			subcommands = append(subcommands, sub.Name())
		}
		Expect(subcommands).To(ContainElements("set", "get", "list"))
	})
})

var _ = Describe("Config command execution", func() {
	var (
		tmpDir  string
		origDir string
		out     *bytes.Buffer
	)

	execute := func(args ...string) error {
		cmd := configcmder.NewConfigCmd()
		cmd.SetOut(out)
		cmd.SetErr(out)
		cmd.SetArgs(args)
		return cmd.Execute()
	}

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "chatdeck-config-test-*")
		Expect(err).NotTo(HaveOccurred())

		origDir, err = os.Getwd()
		Expect(err).NotTo(HaveOccurred())

		// Create a local .chatdeck dir so the manager picks it up
		err = os.MkdirAll(filepath.Join(tmpDir, ".chatdeck"), 0o755)
		Expect(err).NotTo(HaveOccurred())

		err = os.Chdir(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		out = &bytes.Buffer{}
	})

	AfterEach(func() {
		err := os.Chdir(origDir)
		Expect(err).NotTo(HaveOccurred())
		os.RemoveAll(tmpDir)
	})

	Describe("set subcommand", func() {
		It("writes a normalized base URL", func() {
			Expect(execute("set", "backend.base_url", "https://agent.example.com/api/")).To(Succeed())

			data, err := os.ReadFile(filepath.Join(tmpDir, ".chatdeck", "config.toml"))
			Expect(err).NotTo(HaveOccurred())

			cfg, err := config.ParseConfigTOML(data)
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Backend.BaseURL).To(Equal("https://agent.example.com/api"))
			Expect(out.String()).To(ContainSubstring("https://agent.example.com/api"))
		})

		It("rejects non-http base URLs", func() {
			Expect(execute("set", "backend.base_url", "ftp://example.com")).NotTo(Succeed())
		})

		It("rejects unknown keys", func() {
			err := execute("set", "invalid_key", "value")
			Expect(err).To(MatchError(ContainSubstring("unknown config key")))
		})

		It("requires exactly two arguments", func() {
			Expect(execute("set", "backend.timeout")).NotTo(Succeed())
			Expect(execute("set")).NotTo(Succeed())
		})

		It("rejects invalid uint values", func() {
			Expect(execute("set", "dashboard.days", "not-a-number")).NotTo(Succeed())
		})

		It("rejects invalid durations", func() {
			Expect(execute("set", "backend.timeout", "soon")).NotTo(Succeed())
		})
	})

	Describe("get subcommand", func() {
		It("gets a previously set value", func() {
			Expect(execute("set", "dashboard.days", "30")).To(Succeed())
			out.Reset()

			Expect(execute("get", "dashboard.days")).To(Succeed())
			Expect(out.String()).To(ContainSubstring("30"))
		})

		It("reports unset keys", func() {
			Expect(execute("get", "backend.base_url")).To(Succeed())
			Expect(out.String()).To(ContainSubstring("<not set>"))
		})

		It("rejects unknown keys", func() {
			Expect(execute("get", "invalid_key")).NotTo(Succeed())
		})

		It("requires exactly one argument", func() {
			Expect(execute("get")).NotTo(Succeed())
		})
	})

	Describe("list subcommand", func() {
		It("lists every key with defaults when no config exists", func() {
			Expect(execute("list")).To(Succeed())
			for _, key := range config.ValidConfigKeys() {
				Expect(out.String()).To(ContainSubstring(key))
			}
			Expect(out.String()).To(ContainSubstring(`"127.0.0.1:8888"`))
		})

		It("shows values that were set", func() {
			Expect(execute("set", "client.rate_limit", "2.5")).To(Succeed())
			out.Reset()

			Expect(execute("list")).To(Succeed())
			Expect(out.String()).To(ContainSubstring(`"2.5"`))
		})

		It("rejects any arguments", func() {
			Expect(execute("list", "extra")).NotTo(Succeed())
		})
	})
})

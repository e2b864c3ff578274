package mcp_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"sync"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/lingo/pkg/generation"
	"github.com/papercomputeco/lingo/pkg/logger"
	"github.com/papercomputeco/lingo/pkg/ollama"
	"github.com/papercomputeco/lingo/relay/mcp"
)

type recordingStreamer struct {
	mu       sync.Mutex
	requests []generation.Request
	body     string
	err      error
}

func (r *recordingStreamer) Stream(_ context.Context, req generation.Request) (io.ReadCloser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, req)
	if r.err != nil {
		return nil, r.err
	}
	return io.NopCloser(strings.NewReader(r.body)), nil
}

func (r *recordingStreamer) last() generation.Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.requests[len(r.requests)-1]
}

type staticLister struct {
	names []string
	err   error
	calls int
}

func (l *staticLister) Tags(_ context.Context, _ string) (*ollama.TagsResponse, error) {
	l.calls++
	if l.err != nil {
		return nil, l.err
	}
	tags := &ollama.TagsResponse{}
	for _, n := range l.names {
		tags.Models = append(tags.Models, ollama.Model{Name: n})
	}
	return tags, nil
}

func textOf(res *sdkmcp.CallToolResult) string {
	Expect(res.Content).NotTo(BeEmpty())
	tc, ok := res.Content[0].(*sdkmcp.TextContent)
	Expect(ok).To(BeTrue())
	return tc.Text
}

var _ = Describe("MCP Server", func() {
	var (
		ctx      context.Context
		streamer *recordingStreamer
		lister   *staticLister
		cfg      mcp.Config
	)

	BeforeEach(func() {
		ctx = context.Background()
		streamer = &recordingStreamer{body: `{"response":"Ho"}` + "\n" + `{"response":"la"}` + "\n" + `{"done":true}` + "\n"}
		lister = &staticLister{names: []string{"llama3.2:latest", "mistral:7b"}}
		cfg = mcp.Config{
			Streamer:       streamer,
			Lister:         lister,
			ServerURL:      "http://ollama:11434",
			SourceLanguage: "English",
			TargetLanguage: "Spanish",
			Logger:         logger.Nop(),
		}
	})

	connect := func(c mcp.Config) *sdkmcp.ClientSession {
		server, err := mcp.NewServer(c)
		Expect(err).NotTo(HaveOccurred())

		serverTransport, clientTransport := sdkmcp.NewInMemoryTransports()
		_, err = server.MCPServer().Connect(ctx, serverTransport, nil)
		Expect(err).NotTo(HaveOccurred())

		client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test", Version: "v0"}, nil)
		cs, err := client.Connect(ctx, clientTransport, nil)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() { _ = cs.Close() })
		return cs
	}

	call := func(cs *sdkmcp.ClientSession, name string, args map[string]any) *sdkmcp.CallToolResult {
		res, err := cs.CallTool(ctx, &sdkmcp.CallToolParams{Name: name, Arguments: args})
		Expect(err).NotTo(HaveOccurred())
		return res
	}

	Describe("NewServer", func() {
		It("returns an error when the streamer is nil", func() {
			cfg.Streamer = nil
			_, err := mcp.NewServer(cfg)
			Expect(err).To(MatchError(ContainSubstring("streamer is required")))
		})

		It("returns an error when the lister is nil", func() {
			cfg.Lister = nil
			_, err := mcp.NewServer(cfg)
			Expect(err).To(MatchError(ContainSubstring("model lister is required")))
		})

		It("returns an error when logger is nil", func() {
			cfg.Logger = nil
			_, err := mcp.NewServer(cfg)
			Expect(err).To(MatchError(ContainSubstring("logger is required")))
		})

		It("builds an empty server in noop mode", func() {
			server, err := mcp.NewServer(mcp.Config{Noop: true})
			Expect(err).NotTo(HaveOccurred())
			Expect(server.Handler()).NotTo(BeNil())
		})

		It("registers the lingo tools", func() {
			cs := connect(cfg)
			res, err := cs.ListTools(ctx, nil)
			Expect(err).NotTo(HaveOccurred())

			var names []string
			for _, t := range res.Tools {
				names = append(names, t.Name)
			}
			Expect(names).To(ConsistOf("translate", "spellcheck", "list_languages", "list_models"))
		})
	})

	Describe("translate", func() {
		It("translates with the configured defaults and the first listed model", func() {
			cs := connect(cfg)
			res := call(cs, "translate", map[string]any{"text": "Hello"})
			Expect(res.IsError).To(BeFalse())

			var out mcp.GenerationOutput
			Expect(json.Unmarshal([]byte(textOf(res)), &out)).To(Succeed())
			Expect(out).To(Equal(mcp.GenerationOutput{Model: "llama3.2:latest", Text: "Hola"}))

			req := streamer.last()
			Expect(req.ServerURL).To(Equal("http://ollama:11434"))
			Expect(req.Prompt).To(ContainSubstring("from English to Spanish"))
			Expect(req.Prompt).To(HaveSuffix("Hello"))
		})

		It("resolves language codes and honours an explicit model", func() {
			cs := connect(cfg)
			res := call(cs, "translate", map[string]any{
				"text":            "Bonjour",
				"source_language": "fr",
				"target_language": "de",
				"model":           "mistral:7b",
			})
			Expect(res.IsError).To(BeFalse())

			req := streamer.last()
			Expect(req.Model).To(Equal("mistral:7b"))
			Expect(req.Prompt).To(ContainSubstring("from French to German"))
			Expect(lister.calls).To(BeZero())
		})

		It("uses the configured model without listing", func() {
			cfg.Model = "qwen2.5"
			cs := connect(cfg)
			res := call(cs, "translate", map[string]any{"text": "Hello"})
			Expect(res.IsError).To(BeFalse())
			Expect(streamer.last().Model).To(Equal("qwen2.5"))
			Expect(lister.calls).To(BeZero())
		})

		It("rejects blank text", func() {
			cs := connect(cfg)
			res := call(cs, "translate", map[string]any{"text": "  "})
			Expect(res.IsError).To(BeTrue())
			Expect(textOf(res)).To(Equal("text is required"))
		})

		It("reports the no-model message when the server lists nothing", func() {
			lister.names = nil
			cs := connect(cfg)
			res := call(cs, "translate", map[string]any{"text": "Hello"})
			Expect(res.IsError).To(BeTrue())
			Expect(textOf(res)).To(Equal(generation.NoModelMessage))
		})

		It("reports stream failures", func() {
			streamer.err = &ollama.StatusError{StatusCode: 404, Message: "Ollama error: model not found"}
			cs := connect(cfg)
			res := call(cs, "translate", map[string]any{"text": "Hello"})
			Expect(res.IsError).To(BeTrue())
			Expect(textOf(res)).To(Equal("Ollama error: model not found"))
		})

		It("reports listing failures", func() {
			lister.err = errors.New("connection refused")
			cs := connect(cfg)
			res := call(cs, "translate", map[string]any{"text": "Hello"})
			Expect(res.IsError).To(BeTrue())
			Expect(textOf(res)).To(ContainSubstring("connection refused"))
		})
	})

	Describe("spellcheck", func() {
		It("builds a spellcheck prompt with the language hint", func() {
			streamer.body = `{"response":"I have a question."}` + "\n"
			cs := connect(cfg)
			res := call(cs, "spellcheck", map[string]any{"text": "I has a qestion.", "language": "en"})
			Expect(res.IsError).To(BeFalse())

			var out mcp.GenerationOutput
			Expect(json.Unmarshal([]byte(textOf(res)), &out)).To(Succeed())
			Expect(out.Text).To(Equal("I have a question."))
			Expect(streamer.last().Prompt).To(ContainSubstring("English"))
		})
	})

	Describe("list_languages", func() {
		It("returns the catalogue", func() {
			cs := connect(cfg)
			res := call(cs, "list_languages", map[string]any{})
			Expect(res.IsError).To(BeFalse())

			var out mcp.ListLanguagesOutput
			Expect(json.Unmarshal([]byte(textOf(res)), &out)).To(Succeed())
			Expect(out.Languages).To(HaveLen(20))
			Expect(out.Languages[0].Name).To(Equal("English"))
		})
	})

	Describe("list_models", func() {
		It("returns the server's models", func() {
			cs := connect(cfg)
			res := call(cs, "list_models", map[string]any{})
			Expect(res.IsError).To(BeFalse())

			var out mcp.ListModelsOutput
			Expect(json.Unmarshal([]byte(textOf(res)), &out)).To(Succeed())
			Expect(out.Models).To(Equal([]string{"llama3.2:latest", "mistral:7b"}))
		})
	})
})

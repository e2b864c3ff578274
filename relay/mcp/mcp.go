// Package mcp provides an MCP (Model Context Protocol) server exposing lingo's
// translation and spell-checking as tools.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/lingo/pkg/generation"
	"github.com/papercomputeco/lingo/pkg/ollama"
	"github.com/papercomputeco/lingo/pkg/utils"
)

// ModelLister lists the models available on a server.
type ModelLister interface {
	Tags(ctx context.Context, serverURL string) (*ollama.TagsResponse, error)
}

type Config struct {
	// Streamer opens generation streams, usually an *ollama.Client.
	Streamer generation.Streamer

	// Lister resolves a model when neither the call nor Model names one.
	Lister ModelLister

	// ServerURL is the Ollama server tool calls generate against.
	ServerURL string

	// Model is the default model. Empty means the first listed model.
	Model string

	// SourceLanguage and TargetLanguage are the translate defaults.
	SourceLanguage string
	TargetLanguage string

	// Noop for empty MCP server
	Noop bool

	Logger *slog.Logger
}

type Server struct {
	config    Config
	mcpServer *mcp.Server
	handler   *mcp.StreamableHTTPHandler
}

// NewServer creates a new MCP server with the lingo tools.
func NewServer(c Config) (*Server, error) {
	s := &Server{
		config: c,
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "lingo",
			Version: utils.Version,
		},
		&mcp.ServerOptions{},
	)
	s.mcpServer = mcpServer
	s.handler = newHandler(mcpServer)

	if c.Noop {
		return s, nil
	}

	if c.Streamer == nil {
		return nil, errors.New("streamer is required")
	}
	if c.Lister == nil {
		return nil, errors.New("model lister is required")
	}
	if c.Logger == nil {
		return nil, errors.New("logger is required")
	}

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        translateToolName,
		Description: translateDescription,
	}, s.handleTranslate)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        spellcheckToolName,
		Description: spellcheckDescription,
	}, s.handleSpellcheck)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        listLanguagesToolName,
		Description: listLanguagesDescription,
	}, s.handleListLanguages)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        listModelsToolName,
		Description: listModelsDescription,
	}, s.handleListModels)

	return s, nil
}

func newHandler(server *mcp.Server) *mcp.StreamableHTTPHandler {
	return mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server {
			return server
		},
		&mcp.StreamableHTTPOptions{
			Stateless: true,
		},
	)
}

// Handler returns the HTTP handler for the MCP server.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// MCPServer returns the underlying server, for in-process transports.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcpServer
}

// resolveModel picks the model for a call: the explicit one, then the
// configured default, then the first model the server lists.
func (s *Server) resolveModel(ctx context.Context, explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if s.config.Model != "" {
		return s.config.Model, nil
	}

	tags, err := s.config.Lister.Tags(ctx, s.config.ServerURL)
	if err != nil {
		return "", err
	}
	return ollama.ResolveModel("", tags.Names()), nil
}

// generate runs one prompt to completion and returns the generated text.
func (s *Server) generate(ctx context.Context, model, prompt string) (string, error) {
	session := generation.NewSession(s.config.Streamer, generation.WithLogger(s.config.Logger))
	session.Generate(ctx, generation.Request{
		ServerURL: s.config.ServerURL,
		Model:     model,
		Prompt:    prompt,
	})

	state, err := session.Wait(ctx)
	if err != nil {
		return "", fmt.Errorf("generation interrupted: %w", err)
	}
	if failure := state.Failure(); failure != nil {
		return "", failure
	}
	return state.Output, nil
}

func errorResult(format string, args ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf(format, args...)},
		},
	}
}

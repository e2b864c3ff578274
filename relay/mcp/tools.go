package mcp

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/lingo/pkg/languages"
	"github.com/papercomputeco/lingo/pkg/prompt"
)

var (
	translateToolName    = "translate"
	translateDescription = "Translate text between languages with a local Ollama model. Returns only the translated text."

	spellcheckToolName    = "spellcheck"
	spellcheckDescription = "Correct spelling and grammar in text with a local Ollama model, keeping its meaning and style."

	listLanguagesToolName    = "list_languages"
	listLanguagesDescription = "List the languages lingo offers for translation."

	listModelsToolName    = "list_models"
	listModelsDescription = "List the models available on the configured Ollama server."
)

// TranslateInput represents the input arguments for the translate tool.
type TranslateInput struct {
	Text           string `json:"text" jsonschema:"the text to translate"`
	SourceLanguage string `json:"source_language,omitempty" jsonschema:"language of the text, as a code or name (default from configuration)"`
	TargetLanguage string `json:"target_language,omitempty" jsonschema:"language to translate into, as a code or name (default from configuration)"`
	Model          string `json:"model,omitempty" jsonschema:"Ollama model to use (default from configuration or the first listed model)"`
}

// SpellcheckInput represents the input arguments for the spellcheck tool.
type SpellcheckInput struct {
	Text     string `json:"text" jsonschema:"the text to correct"`
	Language string `json:"language,omitempty" jsonschema:"language hint; omit to let the model detect it"`
	Model    string `json:"model,omitempty" jsonschema:"Ollama model to use (default from configuration or the first listed model)"`
}

// GenerationOutput is the output of the translate and spellcheck tools.
type GenerationOutput struct {
	Model string `json:"model"`
	Text  string `json:"text"`
}

// ListLanguagesInput takes no arguments.
type ListLanguagesInput struct{}

// ListLanguagesOutput represents the output of the list_languages tool.
type ListLanguagesOutput struct {
	Languages []languages.Language `json:"languages"`
}

// ListModelsInput takes no arguments.
type ListModelsInput struct{}

// ListModelsOutput represents the output of the list_models tool.
type ListModelsOutput struct {
	Models []string `json:"models"`
}

func (s *Server) handleTranslate(ctx context.Context, _ *mcp.CallToolRequest, input TranslateInput) (*mcp.CallToolResult, GenerationOutput, error) {
	if strings.TrimSpace(input.Text) == "" {
		return errorResult("text is required"), GenerationOutput{}, nil
	}

	source := firstNonEmpty(input.SourceLanguage, s.config.SourceLanguage)
	target := firstNonEmpty(input.TargetLanguage, s.config.TargetLanguage)

	s.config.Logger.Debug("MCP translate request",
		"source", source,
		"target", target,
		"chars", len(input.Text),
	)

	p := prompt.BuildTranslationPrompt(input.Text, languages.Name(source), languages.Name(target))
	return s.runGeneration(ctx, input.Model, p)
}

func (s *Server) handleSpellcheck(ctx context.Context, _ *mcp.CallToolRequest, input SpellcheckInput) (*mcp.CallToolResult, GenerationOutput, error) {
	if strings.TrimSpace(input.Text) == "" {
		return errorResult("text is required"), GenerationOutput{}, nil
	}

	hint := ""
	if input.Language != "" {
		hint = languages.Name(input.Language)
	}

	s.config.Logger.Debug("MCP spellcheck request",
		"language", hint,
		"chars", len(input.Text),
	)

	return s.runGeneration(ctx, input.Model, prompt.BuildSpellcheckPrompt(input.Text, hint))
}

func (s *Server) runGeneration(ctx context.Context, explicitModel, p string) (*mcp.CallToolResult, GenerationOutput, error) {
	model, err := s.resolveModel(ctx, explicitModel)
	if err != nil {
		s.config.Logger.Error("failed to list models", "error", err)
		return errorResult("Failed to list models: %v", err), GenerationOutput{}, nil
	}

	text, err := s.generate(ctx, model, p)
	if err != nil {
		s.config.Logger.Error("MCP generation failed", "model", model, "error", err)
		return errorResult("%v", err), GenerationOutput{}, nil
	}

	return jsonResult(s, GenerationOutput{Model: model, Text: text})
}

func (s *Server) handleListLanguages(_ context.Context, _ *mcp.CallToolRequest, _ ListLanguagesInput) (*mcp.CallToolResult, ListLanguagesOutput, error) {
	return jsonResult(s, ListLanguagesOutput{Languages: languages.All()})
}

func (s *Server) handleListModels(ctx context.Context, _ *mcp.CallToolRequest, _ ListModelsInput) (*mcp.CallToolResult, ListModelsOutput, error) {
	tags, err := s.config.Lister.Tags(ctx, s.config.ServerURL)
	if err != nil {
		s.config.Logger.Error("failed to list models", "error", err)
		return errorResult("Failed to list models: %v", err), ListModelsOutput{Models: []string{}}, nil
	}
	return jsonResult(s, ListModelsOutput{Models: tags.Names()})
}

// jsonResult returns output both as structured content and as serialized
// JSON text for clients that only read text content.
func jsonResult[T any](s *Server, output T) (*mcp.CallToolResult, T, error) {
	jsonBytes, err := json.Marshal(output)
	if err != nil {
		s.config.Logger.Error("failed to marshal tool output", "error", err)
		var zero T
		return errorResult("Failed to serialize results: %v", err), zero, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}, output, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

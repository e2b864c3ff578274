package relay

import "io"

// Config is the relay server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8090")
	ListenAddr string

	// UpstreamURL is the Ollama server used when a request names none
	// (e.g., "http://localhost:11434")
	UpstreamURL string

	// Model is the default model for MCP tool calls. Relayed generate
	// requests always carry their own model.
	Model string

	// SourceLanguage and TargetLanguage are the MCP translate defaults.
	SourceLanguage string
	TargetLanguage string

	// DisableMCP leaves /mcp unmounted.
	DisableMCP bool

	// Journal, when set, receives one JSON line per relayed generation.
	Journal io.Writer
}

package ollama

import (
	"fmt"
	"time"
)

// GenerateRequest is the body of POST /api/generate.
type GenerateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

// TagsResponse is the body of GET /api/tags.
type TagsResponse struct {
	Models []Model `json:"models"`
}

// Names returns the model names in listing order.
func (t *TagsResponse) Names() []string {
	names := make([]string, 0, len(t.Models))
	for _, m := range t.Models {
		names = append(names, m.Name)
	}
	return names
}

// Model is one locally available model.
type Model struct {
	Name       string       `json:"name"`
	Model      string       `json:"model,omitempty"`
	ModifiedAt time.Time    `json:"modified_at"`
	Size       int64        `json:"size"`
	Digest     string       `json:"digest,omitempty"`
	Details    ModelDetails `json:"details"`
}

// ModelDetails describes a model's family and quantization.
type ModelDetails struct {
	Family            string `json:"family,omitempty"`
	ParameterSize     string `json:"parameter_size,omitempty"`
	QuantizationLevel string `json:"quantization_level,omitempty"`
}

// ErrorResponse is the JSON error body shared by Ollama and the lingo relay.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusError is a non-success HTTP response. Message is fit for display.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return e.Message
}

// UnreachableError is a transport failure talking to an Ollama server.
type UnreachableError struct {
	URL string
	Err error
}

func (e *UnreachableError) Error() string {
	return fmt.Sprintf("Cannot reach Ollama at %s: %v", e.URL, e.Err)
}

func (e *UnreachableError) Unwrap() error {
	return e.Err
}

// Package generation runs streaming text generation against a language-model
// server and exposes the accumulating output as observable state.
//
// A Session owns at most one in-flight generation. Starting a new one cancels
// the previous one, and results that arrive for a superseded generation are
// discarded rather than written over newer output.
package generation

import (
	"context"
	"errors"
	"io"
)

// NoModelMessage is the state message reported when a request names no model.
const NoModelMessage = "No model selected. Please configure a model in settings."

// ErrNoModel is returned by State.Failure for a request that named no model.
var ErrNoModel = errors.New("no model selected")

// Request is a single generation request. Server and model are plain
// parameters supplied by the caller at call time.
type Request struct {
	ServerURL string `json:"serverUrl"`
	Model     string `json:"model"`
	Prompt    string `json:"prompt"`
}

// Status is the lifecycle position of a Session.
type Status int

const (
	StatusIdle Status = iota
	StatusInFlight
	StatusSucceeded
	StatusFailed
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusInFlight:
		return "in-flight"
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// State is a snapshot of a Session.
type State struct {
	// Output is the text accumulated so far. It only grows while a
	// generation is in flight.
	Output string

	Status Status

	// Err is the human-readable failure message. Empty unless Status is
	// StatusFailed.
	Err string
}

// Failure returns the failure as a *FailureError, or nil when the state is
// not StatusFailed.
func (s State) Failure() error {
	if s.Status != StatusFailed {
		return nil
	}
	return &FailureError{Message: s.Err}
}

// FailureError carries the message of a failed generation.
type FailureError struct {
	Message string
}

func (e *FailureError) Error() string {
	return e.Message
}

// Is matches ErrNoModel for configuration failures.
func (e *FailureError) Is(target error) bool {
	return target == ErrNoModel && e.Message == NoModelMessage
}

// Streamer opens the newline-delimited JSON byte stream for a request.
// Implementations return an error whose message is fit for display when the
// request cannot be opened or the server answers with a non-success status.
type Streamer interface {
	Stream(ctx context.Context, req Request) (io.ReadCloser, error)
}

// StreamerFunc adapts a function to the Streamer interface.
type StreamerFunc func(ctx context.Context, req Request) (io.ReadCloser, error)

func (f StreamerFunc) Stream(ctx context.Context, req Request) (io.ReadCloser, error) {
	return f(ctx, req)
}

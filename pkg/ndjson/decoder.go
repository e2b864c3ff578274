// Package ndjson decodes newline-delimited JSON streams, such as the
// generation stream emitted by Ollama, one record at a time as bytes arrive.
package ndjson

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
)

const (
	defaultReadSize    = 32 * 1024
	defaultMaxLineSize = 4 * 1024 * 1024
)

// ErrLineTooLong is returned when a single line grows past the decoder's
// maximum line size without a terminating newline.
var ErrLineTooLong = errors.New("ndjson: line too long")

// Record is one decoded line of a generation stream. Unknown fields are
// ignored; Raw always holds the line as it was received.
type Record struct {
	// Response is the next fragment of generated text. May be empty.
	Response string `json:"response"`

	// Done is nil when the line carries no "done" field.
	Done *bool `json:"done,omitempty"`

	DoneReason string `json:"done_reason,omitempty"`

	// Error is set when the upstream reports a failure mid-stream.
	Error string `json:"error,omitempty"`

	Raw json.RawMessage `json:"-"`
}

// IsDone reports whether the record carries "done": true.
func (r *Record) IsDone() bool {
	return r.Done != nil && *r.Done
}

// Decoder reads Records from a byte stream. Lines are split on the '\n' byte
// before any text decoding, so a read boundary that falls inside a multi-byte
// UTF-8 sequence never corrupts a character. Blank lines and lines that are
// not valid JSON objects are skipped.
//
// A Decoder is bound to a single stream and is not safe for concurrent use.
type Decoder struct {
	src     io.Reader
	tee     io.Writer
	onSkip  func(line []byte, err error)
	maxLine int

	buf   []byte
	chunk []byte
	eof   bool
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithTee writes every byte read from the source to w, verbatim and in
// order, before it is decoded.
func WithTee(w io.Writer) Option {
	return func(d *Decoder) {
		d.tee = w
	}
}

// WithSkipHook registers fn to observe lines dropped because they failed to
// parse.
func WithSkipHook(fn func(line []byte, err error)) Option {
	return func(d *Decoder) {
		d.onSkip = fn
	}
}

// WithMaxLineSize bounds how large a single unterminated line may grow.
func WithMaxLineSize(n int) Option {
	return func(d *Decoder) {
		if n > 0 {
			d.maxLine = n
		}
	}
}

// NewDecoder returns a Decoder reading from src.
func NewDecoder(src io.Reader, opts ...Option) *Decoder {
	d := &Decoder{
		src:     src,
		maxLine: defaultMaxLineSize,
		chunk:   make([]byte, defaultReadSize),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Next returns the next Record in arrival order. It blocks until a complete
// line is available. Next returns nil, nil once the source is exhausted;
// whatever remains in the buffer at that point is decoded as a final line.
//
// Read errors other than io.EOF are returned unchanged and any partial line
// is discarded.
func (d *Decoder) Next() (*Record, error) {
	for {
		if i := bytes.IndexByte(d.buf, '\n'); i >= 0 {
			line := d.buf[:i]
			d.buf = d.buf[i+1:]
			if rec := d.decode(line); rec != nil {
				return rec, nil
			}
			continue
		}

		if d.eof {
			if len(d.buf) == 0 {
				return nil, nil
			}
			line := d.buf
			d.buf = nil
			if rec := d.decode(line); rec != nil {
				return rec, nil
			}
			continue
		}

		if err := d.fill(); err != nil {
			return nil, err
		}
	}
}

// fill performs one read from the source into the buffer.
func (d *Decoder) fill() error {
	n, err := d.src.Read(d.chunk)
	if n > 0 {
		if d.tee != nil {
			if _, werr := d.tee.Write(d.chunk[:n]); werr != nil {
				return werr
			}
		}
		d.buf = append(d.buf, d.chunk[:n]...)
		if len(d.buf) > d.maxLine && bytes.IndexByte(d.buf, '\n') < 0 {
			return ErrLineTooLong
		}
	}

	switch {
	case errors.Is(err, io.EOF):
		d.eof = true
		return nil
	case err != nil:
		d.buf = nil
		return err
	}
	return nil
}

// decode parses a single line, returning nil for lines that are skipped.
func (d *Decoder) decode(line []byte) *Record {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return nil
	}

	rec := &Record{}
	if err := json.Unmarshal(line, rec); err != nil {
		if d.onSkip != nil {
			d.onSkip(line, err)
		}
		return nil
	}

	rec.Raw = append(json.RawMessage(nil), line...)
	return rec
}

package cliui

import (
	"io"
	"strings"
	"sync"

	"github.com/papercomputeco/lingo/pkg/generation"
)

// StreamPrinter writes a generation's output to w as it grows. Register
// Observe with generation.WithObserver.
type StreamPrinter struct {
	mu      sync.Mutex
	w       io.Writer
	printed string
}

// NewStreamPrinter creates a StreamPrinter writing to w.
func NewStreamPrinter(w io.Writer) *StreamPrinter {
	return &StreamPrinter{w: w}
}

// Observe prints whatever st.Output adds to what was already printed. When
// the output no longer extends the printed text, a new generation has
// started and printing restarts on a fresh line.
func (p *StreamPrinter) Observe(st generation.State) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !strings.HasPrefix(st.Output, p.printed) {
		if p.printed != "" {
			_, _ = io.WriteString(p.w, "\n")
		}
		p.printed = ""
	}

	if delta := st.Output[len(p.printed):]; delta != "" {
		_, _ = io.WriteString(p.w, delta)
		p.printed = st.Output
	}
}

// Printed returns the text written so far for the current generation.
func (p *StreamPrinter) Printed() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.printed
}

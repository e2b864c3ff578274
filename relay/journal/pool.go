// Package journal provides an asynchronous worker pool that appends one JSON
// line of metadata per relayed generation to a journal writer. Prompts and
// generated text are never recorded.
//
// The pool keeps journal writes off the relay's streaming path so that the
// client-relay-upstream exchange is never slowed by disk I/O.
package journal

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sync"
	"time"
)

var (
	defaultNumWorkers uint = 2
	defaultQueueSize  uint = 256
)

// Entry is one relayed generation as recorded in the journal.
type Entry struct {
	Time        time.Time     `json:"time"`
	RequestID   string        `json:"request_id"`
	ServerURL   string        `json:"server_url"`
	Model       string        `json:"model"`
	PromptChars int           `json:"prompt_chars"`
	OutputChars int           `json:"output_chars"`
	DoneReason  string        `json:"done_reason,omitempty"`
	Chunks      int           `json:"chunks"`
	Bytes       int64         `json:"bytes"`
	Duration    time.Duration `json:"duration_ns"`

	// Interrupted is set when the client or upstream went away before the
	// stream ended.
	Interrupted bool `json:"interrupted,omitempty"`
}

// Config is the configuration options for the journal pool.
type Config struct {
	// Writer receives one JSON line per entry. Writes are serialized.
	Writer io.Writer

	// NumWorkers is the number of background workers in the pool.
	NumWorkers uint

	// QueueSize is the capacity of the buffered entry channel (defaults to 256).
	QueueSize uint

	Logger *slog.Logger
}

// Pool encodes journal entries asynchronously.
type Pool struct {
	config *Config
	queue  chan Entry
	wg     sync.WaitGroup
	logger *slog.Logger

	writeMu sync.Mutex
}

// NewPool creates a new Pool and starts its worker goroutines.
func NewPool(c *Config) (*Pool, error) {
	if c.Writer == nil {
		return nil, fmt.Errorf("journal writer is required")
	}
	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}
	if c.QueueSize == 0 {
		c.QueueSize = defaultQueueSize
	}
	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}

	p := &Pool{
		config: c,
		queue:  make(chan Entry, c.QueueSize),
		logger: c.Logger,
	}

	p.wg.Add(int(c.NumWorkers))
	for i := range c.NumWorkers {
		go p.worker(i)
	}

	return p, nil
}

// Enqueue submits an entry for writing.
// Returns false if the queue is full, in which case the entry is dropped.
func (p *Pool) Enqueue(e Entry) bool {
	select {
	case p.queue <- e:
		p.logger.Debug("journal entry queued",
			"request_id", e.RequestID,
			"model", e.Model,
		)
		return true
	default:
		p.logger.Error("journal queue full, entry dropped",
			"request_id", e.RequestID,
			"model", e.Model,
		)
		return false
	}
}

// Close stops the workers and waits for queued entries to be written.
// Call it after the relay HTTP server has stopped.
func (p *Pool) Close() {
	close(p.queue)
	p.wg.Wait()
}

func (p *Pool) worker(id uint) {
	defer p.wg.Done()
	p.logger.Debug("journal worker started", "worker_id", id)

	for e := range p.queue {
		p.write(e)
	}

	p.logger.Debug("journal worker stopped", "worker_id", id)
}

func (p *Pool) write(e Entry) {
	line, err := json.Marshal(e)
	if err != nil {
		p.logger.Error("encoding journal entry", "request_id", e.RequestID, "error", err)
		return
	}
	line = append(line, '\n')

	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	if _, err := p.config.Writer.Write(line); err != nil {
		p.logger.Error("writing journal entry", "request_id", e.RequestID, "error", err)
	}
}

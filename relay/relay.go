// Package relay provides the lingo relay: an HTTP server that forwards
// generation and model listing requests to an Ollama server chosen per
// request, streaming generated output back to the client unchanged.
package relay

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/papercomputeco/lingo/pkg/ndjson"
	"github.com/papercomputeco/lingo/pkg/ollama"
	"github.com/papercomputeco/lingo/pkg/relayclient"
	"github.com/papercomputeco/lingo/relay/header"
	"github.com/papercomputeco/lingo/relay/journal"
	"github.com/papercomputeco/lingo/relay/mcp"
	"github.com/papercomputeco/lingo/relay/metrics"
)

const (
	routeGenerate = "generate"
	routeTags     = "tags"

	requestIDKey = "requestid"
)

// Relay forwards client requests to Ollama. It keeps no per-session state;
// every request names (or defaults) its own server.
type Relay struct {
	config        Config
	logger        *slog.Logger
	ollama        *ollama.Client
	server        *fiber.App
	headerHandler *header.Handler
	registry      *prometheus.Registry
	metrics       *metrics.Metrics
	journal       *journal.Pool
	mcpServer     *mcp.Server

	// streams tracks relay goroutines still writing to clients so that Close
	// can drain them before the journal shuts down.
	streams sync.WaitGroup
}

// generateBody is the client request body of the generate route. ollamaUrl
// is accepted as an alias of serverUrl.
type generateBody struct {
	ServerURL string `json:"serverUrl"`
	OllamaURL string `json:"ollamaUrl"`
	Model     string `json:"model"`
	Prompt    string `json:"prompt"`
}

// New creates a new Relay.
func New(config Config, logger *slog.Logger, client *ollama.Client) (*Relay, error) {
	if logger == nil {
		return nil, errors.New("logger is required")
	}
	if client == nil {
		client = ollama.NewClient()
	}

	app := fiber.New(fiber.Config{
		// Disable startup message for cleaner logs
		DisableStartupMessage: true,
	})

	registry := prometheus.NewRegistry()

	r := &Relay{
		config:        config,
		logger:        logger,
		ollama:        client,
		server:        app,
		headerHandler: header.NewHandler(),
		registry:      registry,
		metrics:       metrics.New(registry),
	}

	if config.Journal != nil {
		jp, err := journal.NewPool(&journal.Config{
			Writer: config.Journal,
			Logger: logger,
		})
		if err != nil {
			return nil, err
		}
		r.journal = jp
	}

	app.Use(recover.New())
	app.Use(r.requestID)

	app.Get("/ping", handlePing)
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler(registry)))
	app.Post(relayclient.GeneratePath, r.observe(routeGenerate, r.handleGenerate))
	app.Get(relayclient.TagsPath, r.observe(routeTags, r.handleTags))

	if !config.DisableMCP {
		mcpServer, err := mcp.NewServer(mcp.Config{
			Streamer:       client,
			Lister:         client,
			ServerURL:      config.UpstreamURL,
			Model:          config.Model,
			SourceLanguage: config.SourceLanguage,
			TargetLanguage: config.TargetLanguage,
			Logger:         logger,
		})
		if err != nil {
			return nil, err
		}
		r.mcpServer = mcpServer
		app.All("/mcp", adaptor.HTTPHandler(mcpServer.Handler()))
	}

	return r, nil
}

// Run starts the relay server on the configured listening address.
func (r *Relay) Run() error {
	r.logger.Info("starting relay server",
		"listen", r.config.ListenAddr,
		"upstream", r.config.UpstreamURL,
		"mcp", !r.config.DisableMCP,
	)

	return r.server.Listen(r.config.ListenAddr)
}

// RunWithListener starts the relay server using the provided listener.
func (r *Relay) RunWithListener(listener net.Listener) error {
	r.logger.Info("starting relay server",
		"listen", listener.Addr().String(),
		"upstream", r.config.UpstreamURL,
		"mcp", !r.config.DisableMCP,
	)

	return r.server.Listener(listener)
}

// Close gracefully shuts down the relay, waits for in-flight streams and
// drains the journal.
func (r *Relay) Close() error {
	err := r.server.Shutdown()
	r.streams.Wait()
	if r.journal != nil {
		r.journal.Close()
	}
	return err
}

func handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// requestID tags each request with an id, reusing the client's when given.
// The id is also set on the request so it is forwarded upstream.
func (r *Relay) requestID(c *fiber.Ctx) error {
	id := c.Get(header.RequestIDHeader)
	if id == "" {
		id = uuid.NewString()
		c.Request().Header.Set(header.RequestIDHeader, id)
	}
	c.Locals(requestIDKey, id)
	c.Set(header.RequestIDHeader, id)
	return c.Next()
}

func requestIDOf(c *fiber.Ctx) string {
	id, _ := c.Locals(requestIDKey).(string)
	return id
}

// observe records request count and handler latency for route.
func (r *Relay) observe(route string, h fiber.Handler) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := h(c)
		code := c.Response().StatusCode()
		r.metrics.Requests.WithLabelValues(route, strconv.Itoa(code)).Inc()
		r.metrics.Duration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		return err
	}
}

// handleGenerate forwards a generation request to Ollama and streams the
// NDJSON response back byte for byte.
func (r *Relay) handleGenerate(c *fiber.Ctx) error {
	startTime := time.Now()
	reqID := requestIDOf(c)

	var body generateBody
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ollama.ErrorResponse{Error: "Invalid request body"})
	}
	if body.Model == "" || body.Prompt == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ollama.ErrorResponse{Error: "model and prompt are required"})
	}

	serverURL := firstNonEmpty(body.ServerURL, body.OllamaURL, r.config.UpstreamURL)

	r.logger.Debug("forwarding generate request",
		"request_id", reqID,
		"server_url", serverURL,
		"model", body.Model,
		"prompt_chars", len(body.Prompt),
	)

	// Use context.Background() instead of c.Context() because fasthttp recycles
	// its RequestCtx after the handler returns, while the stream keeps reading
	// the upstream body from a separate goroutine. A client disconnect
	// surfaces as a pipe write error, which closes the upstream body.
	resp, err := r.ollama.OpenStream(context.Background(), serverURL, body.Model, body.Prompt, r.headerHandler.UpstreamHeaders(c))
	if err != nil {
		return r.upstreamFailure(c, err)
	}

	if resp.StatusCode != http.StatusOK {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		resp.Body.Close()
		r.metrics.UpstreamErrors.WithLabelValues(metrics.ReasonStatus).Inc()
		r.logger.Warn("upstream returned error",
			"request_id", reqID,
			"status", resp.StatusCode,
			"body", string(text),
		)
		return c.Status(resp.StatusCode).JSON(ollama.ErrorResponse{
			Error: "Ollama error: " + strings.TrimSpace(string(text)),
		})
	}

	r.headerHandler.SetClientResponseHeaders(c, resp)
	c.Set(fiber.HeaderContentType, header.NDJSONContentType)

	// io.Pipe gives per-chunk flushing: pw.Write blocks until fasthttp's
	// chunked body writer has consumed the bytes and flushed them to the
	// socket.
	pr, pw := io.Pipe()
	info := streamInfo{
		requestID:   reqID,
		serverURL:   serverURL,
		model:       body.Model,
		promptChars: len(body.Prompt),
		start:       startTime,
	}

	r.streams.Add(1)
	go r.relayStream(resp, pw, info)

	// Unknown size (-1) makes fasthttp use chunked transfer encoding.
	c.Context().Response.SetBodyStream(pr, -1)

	return nil
}

type streamInfo struct {
	requestID   string
	serverURL   string
	model       string
	promptChars int
	start       time.Time
}

// countingWriter counts bytes successfully written to w.
type countingWriter struct {
	w io.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}

// relayStream copies the upstream body to pw verbatim while decoding it
// record by record for logs, metrics and the journal.
func (r *Relay) relayStream(resp *http.Response, pw *io.PipeWriter, info streamInfo) {
	defer r.streams.Done()
	defer resp.Body.Close()

	r.metrics.ActiveStreams.Inc()
	defer r.metrics.ActiveStreams.Dec()

	out := &countingWriter{w: pw}
	dec := ndjson.NewDecoder(resp.Body,
		ndjson.WithTee(out),
		ndjson.WithSkipHook(func(line []byte, err error) {
			r.logger.Debug("relayed unparsable line",
				"request_id", info.requestID,
				"bytes", len(line),
				"error", err,
			)
		}),
	)

	var (
		outputChars int
		chunks      int
		doneReason  string
		interrupted bool
	)

	for {
		rec, err := dec.Next()
		if errors.Is(err, ndjson.ErrLineTooLong) {
			// Stop decoding but keep relaying.
			r.logger.Warn("stream line too long, relaying without decoding", "request_id", info.requestID)
			_, err = io.Copy(out, resp.Body)
		}
		if err != nil {
			interrupted = true
			r.metrics.UpstreamErrors.WithLabelValues(metrics.ReasonRead).Inc()
			r.logger.Error("error relaying stream",
				"request_id", info.requestID,
				"error", err,
			)
			pw.CloseWithError(err)
			break
		}
		if rec == nil {
			pw.Close()
			break
		}

		chunks++
		outputChars += len(rec.Response)
		if rec.Error != "" {
			r.logger.Warn("upstream reported error mid-stream",
				"request_id", info.requestID,
				"error", rec.Error,
			)
		}
		if rec.IsDone() {
			doneReason = rec.DoneReason
		}
	}

	r.metrics.StreamChunks.Add(float64(chunks))
	r.metrics.StreamBytes.Add(float64(out.n))

	duration := time.Since(info.start)
	r.logger.Info("stream relayed",
		"request_id", info.requestID,
		"model", info.model,
		"chunks", chunks,
		"bytes", out.n,
		"done_reason", doneReason,
		"interrupted", interrupted,
		"duration", duration,
	)

	if r.journal != nil {
		r.journal.Enqueue(journal.Entry{
			Time:        info.start,
			RequestID:   info.requestID,
			ServerURL:   info.serverURL,
			Model:       info.model,
			PromptChars: info.promptChars,
			OutputChars: outputChars,
			DoneReason:  doneReason,
			Chunks:      chunks,
			Bytes:       out.n,
			Duration:    duration,
			Interrupted: interrupted,
		})
	}
}

// handleTags forwards a model listing request and passes the JSON body
// through unchanged.
func (r *Relay) handleTags(c *fiber.Ctx) error {
	serverURL := firstNonEmpty(c.Query("serverUrl"), c.Query("ollamaUrl"), r.config.UpstreamURL)

	raw, err := r.ollama.TagsRaw(c.UserContext(), serverURL)
	if err != nil {
		return r.upstreamFailure(c, err)
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(raw)
}

// upstreamFailure maps an upstream error to the client response:
// unreachable servers are 503, upstream statuses are passed through and
// anything else is a 502.
func (r *Relay) upstreamFailure(c *fiber.Ctx, err error) error {
	reqID := requestIDOf(c)

	var unreachable *ollama.UnreachableError
	if errors.As(err, &unreachable) {
		r.metrics.UpstreamErrors.WithLabelValues(metrics.ReasonUnreachable).Inc()
		r.logger.Warn("upstream unreachable", "request_id", reqID, "url", unreachable.URL, "error", unreachable.Err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(ollama.ErrorResponse{Error: err.Error()})
	}

	var statusErr *ollama.StatusError
	if errors.As(err, &statusErr) {
		r.metrics.UpstreamErrors.WithLabelValues(metrics.ReasonStatus).Inc()
		r.logger.Warn("upstream returned error", "request_id", reqID, "status", statusErr.StatusCode)
		return c.Status(statusErr.StatusCode).JSON(ollama.ErrorResponse{Error: statusErr.Message})
	}

	r.logger.Error("upstream request failed", "request_id", reqID, "error", err)
	return c.Status(fiber.StatusBadGateway).JSON(ollama.ErrorResponse{Error: err.Error()})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// Package header filters headers crossing the lingo relay.
//
// The relay sits between a client and an Ollama server:
//
//	Client <--> Relay <--> Ollama
//
// Each leg negotiates connection reuse, compression and framing on its own,
// and the relay rebuilds the upstream body, so several headers must not be
// copied across.
package header

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
)

const (
	// RequestIDHeader carries the per-request correlation id.
	RequestIDHeader = "X-Request-Id"

	// NDJSONContentType is the content type of relayed generation streams.
	NDJSONContentType = "application/x-ndjson"
)

// Handler manages headers between relay connections.
type Handler struct{}

// NewHandler creates a new header Handler.
func NewHandler() *Handler {
	return &Handler{}
}

// skipRequest is the set of client request headers (client --> relay --> upstream)
// that are not forwarded to Ollama.
var skipRequest = map[string]struct{}{
	// Hop-by-hop.
	"Connection":        {},
	"Transfer-Encoding": {},

	// Rewritten by Go's http.Transport for the upstream URL.
	"Host": {},

	// Stripped so that Go's http.Transport negotiates gzip itself and
	// transparently decompresses the upstream response.
	"Accept-Encoding": {},

	// The relay re-encodes the body as an Ollama generate request, so the
	// client's framing does not describe it.
	"Content-Length": {},
	"Content-Type":   {},
}

// skipResponse is the set of upstream response headers (client <-- relay <-- upstream)
// that are not copied back to the client.
var skipResponse = map[string]struct{}{
	// Hop-by-hop. fasthttp frames the client response itself.
	"Connection":        {},
	"Transfer-Encoding": {},

	// The relay reads a decompressed body, so upstream encoding and length
	// no longer describe what the client receives.
	"Content-Encoding": {},
	"Content-Length":   {},
}

// UpstreamHeaders returns the client request headers that may be forwarded
// to Ollama, such as Authorization for servers behind an auth proxy.
func (h *Handler) UpstreamHeaders(c *fiber.Ctx) http.Header {
	out := http.Header{}
	c.Request().Header.VisitAll(func(key, value []byte) {
		k := http.CanonicalHeaderKey(string(key))
		if _, skip := skipRequest[k]; !skip {
			out.Add(k, string(value))
		}
	})
	return out
}

// SetClientResponseHeaders copies upstream response headers to the Fiber
// context, filtering headers the relay must not forward back to the client.
func (h *Handler) SetClientResponseHeaders(c *fiber.Ctx, resp *http.Response) {
	for k, v := range resp.Header {
		if _, skip := skipResponse[k]; !skip {
			c.Set(k, strings.Join(v, ", "))
		}
	}
}

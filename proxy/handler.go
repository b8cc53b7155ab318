package proxy

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"cliplink/logger"
)

// passthroughHeaders is the fixed set of upstream response headers mirrored
// back to the client. Nothing else crosses the proxy.
var passthroughHeaders = []string{
	"Content-Type",
	"Content-Length",
	"Content-Range",
	"Accept-Ranges",
	"Content-Disposition",
	"Cache-Control",
	"ETag",
	"Last-Modified",
}

// Handler is the streaming media proxy. It forwards GET/HEAD fetches to
// allow-listed upstream hosts, propagating the client's Range header so
// media elements can seek, and streams the upstream body back without
// buffering. Stateless per request.
type Handler struct {
	allowlist *Allowlist
	origin    string // CORS allow-origin; empty means "*"
	client    *http.Client
}

// NewHandler creates a proxy handler. A nil client gets a default with a
// bounded timeout; redirects are followed.
func NewHandler(allowlist *Allowlist, origin string, client *http.Client) *Handler {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &Handler{
		allowlist: allowlist,
		origin:    origin,
		client:    client,
	}
}

func (h *Handler) applyCORS(w http.ResponseWriter) {
	origin := h.origin
	if origin == "" {
		origin = "*"
	}
	w.Header().Set("Access-Control-Allow-Origin", origin)
	w.Header().Set("Access-Control-Allow-Methods", "GET, HEAD, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Range, Content-Type, Authorization")
	w.Header().Set("Access-Control-Expose-Headers", "Content-Length, Content-Range, Accept-Ranges, Content-Type")
	if origin != "*" {
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Vary", "Origin")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// ServeHTTP implements the per-request state machine: method gate, url
// parameter validation, scheme check, allow-list check, then a forwarded
// fetch whose status, curated headers, and body are mirrored to the client.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.applyCORS(w)

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	target := r.URL.Query().Get("url")
	if target == "" {
		writeError(w, http.StatusBadRequest, "Missing url parameter")
		return
	}

	parsed, err := url.Parse(target)
	if err != nil || !parsed.IsAbs() || parsed.Host == "" {
		writeError(w, http.StatusBadRequest, "Invalid url parameter")
		return
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		writeError(w, http.StatusBadRequest, "Unsupported protocol")
		return
	}

	if !h.allowlist.AllowedURL(parsed) {
		// Generic message only; the rule that rejected the host is not
		// echoed back.
		writeError(w, http.StatusForbidden, "Proxy host not allowed")
		return
	}

	upstreamReq, err := http.NewRequestWithContext(r.Context(), r.Method, parsed.String(), nil)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid url parameter")
		return
	}
	// Only Range crosses to the upstream. Cookies and auth on the inbound
	// request must not leak to arbitrary hosts.
	if rangeHeader := r.Header.Get("Range"); rangeHeader != "" {
		upstreamReq.Header.Set("Range", rangeHeader)
	}

	resp, err := h.client.Do(upstreamReq)
	if err != nil {
		logger.Warn("proxy upstream fetch failed",
			logger.String("host", parsed.Host),
			logger.ErrorField(err))
		writeError(w, http.StatusBadGateway, "Upstream fetch failed")
		return
	}
	if resp.Body == nil {
		writeError(w, http.StatusBadGateway, "Upstream response missing body")
		return
	}
	defer resp.Body.Close()

	for _, header := range passthroughHeaders {
		if value := resp.Header.Get(header); value != "" {
			w.Header().Set(header, value)
		}
	}

	w.WriteHeader(resp.StatusCode)

	// Stream as the upstream delivers; the whole payload is never held in
	// memory. A broken client connection shows up as a copy error and is
	// logged at debug only, it is routine for media seeks.
	if _, err := io.Copy(w, resp.Body); err != nil {
		logger.Debug("proxy stream interrupted",
			logger.String("host", parsed.Host),
			logger.ErrorField(err))
	}
}

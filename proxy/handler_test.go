package proxy

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	err := json.Unmarshal(rec.Body.Bytes(), &body)
	assert.NoError(t, err)
	return body["error"]
}

func proxyRequest(h *Handler, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/proxy?url="+url.QueryEscape(target), nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandler_MissingURLParameter(t *testing.T) {
	h := NewHandler(NewAllowlist(nil, EmptyAllowAll), "", nil)

	req := httptest.NewRequest(http.MethodGet, "/proxy", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Missing url parameter", decodeError(t, rec))
}

func TestHandler_InvalidURLParameter(t *testing.T) {
	h := NewHandler(NewAllowlist(nil, EmptyAllowAll), "", nil)

	rec := proxyRequest(h, "not a url")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid url parameter", decodeError(t, rec))
}

func TestHandler_UnsupportedProtocol(t *testing.T) {
	h := NewHandler(NewAllowlist(nil, EmptyAllowAll), "", nil)

	for _, target := range []string{"ftp://example.com/x", "file:///etc/passwd"} {
		rec := proxyRequest(h, target)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "target=%s", target)
		assert.Equal(t, "Unsupported protocol", decodeError(t, rec))
	}
}

func TestHandler_HostNotAllowedInProduction(t *testing.T) {
	// Empty allow-list with production defaults denies everything.
	h := NewHandler(NewAllowlist(nil, EmptyDenyAll), "", nil)

	rec := proxyRequest(h, "https://evil.internal/x")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Proxy host not allowed", decodeError(t, rec))
}

func TestHandler_MethodNotAllowed(t *testing.T) {
	h := NewHandler(NewAllowlist(nil, EmptyAllowAll), "", nil)

	req := httptest.NewRequest(http.MethodPost, "/proxy?url=https%3A%2F%2Fexample.com", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandler_OptionsShortCircuits(t *testing.T) {
	h := NewHandler(NewAllowlist(nil, EmptyDenyAll), "https://app.example", nil)

	req := httptest.NewRequest(http.MethodOptions, "/proxy", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.example", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	assert.Equal(t, "Origin", rec.Header().Get("Vary"))
}

func TestHandler_RangePassthrough(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "bytes=100-199", r.Header.Get("Range"))
		assert.Empty(t, r.Header.Get("Cookie"))
		assert.Empty(t, r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "audio/mpeg")
		w.Header().Set("Content-Range", "bytes 100-199/5000")
		w.Header().Set("Accept-Ranges", "bytes")
		w.Header().Set("X-Internal-Secret", "nope")
		w.WriteHeader(http.StatusPartialContent)
		w.Write(make([]byte, 100))
	}))
	defer upstream.Close()

	h := NewHandler(NewAllowlist(nil, EmptyAllowAll), "", nil)

	req := httptest.NewRequest(http.MethodGet, "/proxy?url="+url.QueryEscape(upstream.URL+"/clip.mp3"), nil)
	req.Header.Set("Range", "bytes=100-199")
	req.Header.Set("Cookie", "session=secret")
	req.Header.Set("Authorization", "Bearer secret")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusPartialContent, rec.Code)
	assert.Equal(t, "bytes 100-199/5000", rec.Header().Get("Content-Range"))
	assert.Equal(t, "audio/mpeg", rec.Header().Get("Content-Type"))
	assert.Equal(t, "bytes", rec.Header().Get("Accept-Ranges"))
	assert.Empty(t, rec.Header().Get("X-Internal-Secret"))
	assert.Equal(t, 100, rec.Body.Len())
}

func TestHandler_MirrorsUpstreamStatus(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer upstream.Close()

	h := NewHandler(NewAllowlist(nil, EmptyAllowAll), "", nil)

	rec := proxyRequest(h, upstream.URL+"/missing.mp3")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_UpstreamFetchFailed(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	upstream.Close() // nothing listens anymore

	h := NewHandler(NewAllowlist(nil, EmptyAllowAll), "", nil)

	rec := proxyRequest(h, upstream.URL+"/clip.mp3")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "Upstream fetch failed", decodeError(t, rec))
}

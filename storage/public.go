package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"cliplink/model"
)

// ErrSessionNotFound marks an id with no stored document: it never existed
// or was garbage-collected.
var ErrSessionNotFound = errors.New("session not found or expired")

// PublicReader loads session documents over anonymous HTTP GET against the
// public storage base URL, the same path watch pages use. No caching, no
// locking; every load is a fresh fetch.
type PublicReader struct {
	baseURL string
	client  *http.Client
}

// NewPublicReader creates a reader against the given public base URL. A nil
// client gets a default with a bounded timeout.
func NewPublicReader(baseURL string, client *http.Client) *PublicReader {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &PublicReader{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  client,
	}
}

// LoadSession fetches and parses videos/{id}.json. A non-2xx response maps
// to ErrSessionNotFound; a malformed body is a distinct parse failure.
func (r *PublicReader) LoadSession(ctx context.Context, id string) (*model.Session, error) {
	url := r.baseURL + "/" + SessionObjectKey(id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build session request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch session %s: %w", id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, ErrSessionNotFound
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read session %s: %w", id, err)
	}

	session, err := model.ParseSession(data)
	if err != nil {
		return nil, fmt.Errorf("parse session %s: %w", id, err)
	}
	return session, nil
}

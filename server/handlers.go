package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strings"

	"cliplink/cache"
	"cliplink/config"
	"cliplink/logger"
	"cliplink/model"
	"cliplink/storage"

	"github.com/gorilla/mux"
)

// SessionLoader is the read side of the session store; storage.PublicReader
// implements it against the public blob URL.
type SessionLoader interface {
	LoadSession(ctx context.Context, id string) (*model.Session, error)
}

// audioDataURLPattern is the strict shape the upload endpoint accepts:
// a base64 data URI with an audio media type.
var audioDataURLPattern = regexp.MustCompile(`(?i)^data:(audio/[a-z0-9.+-]+);base64,(.+)$`)

// APIHandler handles the session save, mix upload, and session read endpoints.
type APIHandler struct {
	store        storage.SessionStore
	loader       SessionLoader
	sessionCache *cache.SessionCache
	cfg          *config.Config
}

// NewAPIHandler creates the API handler. loader and sessionCache are
// optional; without a loader the session read endpoint reports not found.
func NewAPIHandler(store storage.SessionStore, loader SessionLoader, sessionCache *cache.SessionCache, cfg *config.Config) *APIHandler {
	return &APIHandler{
		store:        store,
		loader:       loader,
		sessionCache: sessionCache,
		cfg:          cfg,
	}
}

func respondWithJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, status int, message string) {
	respondWithJSON(w, status, map[string]string{"error": message})
}

// saveRequest is the save endpoint's body. Besides the full session shape it
// accepts the home-page shorthand: one url string holding comma- or
// newline-separated links, from which kind and tracks are derived.
type saveRequest struct {
	ID          string            `json:"id"`
	Kind        model.SessionKind `json:"kind"`
	Tracks      []model.Track     `json:"tracks"`
	Title       string            `json:"title"`
	Author      string            `json:"author"`
	Description string            `json:"description"`
	MixURL      string            `json:"mixUrl"`
	VideoURL    string            `json:"videoUrl"`
	LoopEnabled bool              `json:"loopEnabled"`
	Zoom        float64           `json:"zoom"`

	// Shorthand fields.
	URL      string   `json:"url"`
	Filename string   `json:"filename"`
	Volume   *float64 `json:"volume"`
	Loop     bool     `json:"loop"`
}

var linkSeparators = regexp.MustCompile(`[\n,]+`)

// splitLinks splits a comma- or newline-separated batch of URLs.
func splitLinks(value string) []string {
	var out []string
	for _, link := range linkSeparators.Split(value, -1) {
		link = strings.TrimSpace(link)
		if link != "" {
			out = append(out, link)
		}
	}
	return out
}

// sessionFromRequest builds the session document to persist, generating an
// id when the client did not pick one.
func sessionFromRequest(req *saveRequest) (*model.Session, error) {
	id := strings.TrimSpace(req.ID)
	if id == "" {
		id = model.NewSessionID()
	}

	session := &model.Session{
		ID:          id,
		Kind:        req.Kind,
		Tracks:      req.Tracks,
		Title:       req.Title,
		Author:      req.Author,
		Description: req.Description,
		MixURL:      req.MixURL,
		VideoURL:    req.VideoURL,
		LoopEnabled: req.LoopEnabled,
		Zoom:        req.Zoom,
	}

	if len(session.Tracks) == 0 && req.URL != "" {
		links := splitLinks(req.URL)
		volume := 1.0
		if req.Volume != nil {
			volume = *req.Volume
		}
		for _, link := range links {
			session.Tracks = append(session.Tracks, model.Track{
				SourceURL:   link,
				Volume:      volume,
				Title:       req.Filename,
				Description: req.Description,
			})
		}
		if session.Kind == "" {
			if len(links) == 1 {
				session.Kind = model.KindSingle
			} else {
				session.Kind = model.KindMulti
			}
		}
		session.LoopEnabled = session.LoopEnabled || req.Loop
		if session.Title == "" {
			session.Title = req.Filename
		}
	}

	if err := session.Validate(); err != nil {
		return nil, err
	}
	return session, nil
}

// SaveSessionHandler persists a session document and returns its id and
// public URL. A save with an existing id overwrites the stored document.
func (h *APIHandler) SaveSessionHandler(w http.ResponseWriter, r *http.Request) {
	var req saveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	session, err := sessionFromRequest(&req)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Missing or invalid session data: "+err.Error())
		return
	}

	url, err := h.store.SaveSession(r.Context(), session)
	if err != nil {
		logger.Error("session save failed",
			logger.String("id", session.ID),
			logger.ErrorField(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to save session")
		return
	}

	h.sessionCache.Invalidate(r.Context(), session.ID)

	respondWithJSON(w, http.StatusOK, map[string]string{
		"id":  session.ID,
		"url": url,
	})
}

// UploadAudioHandler stores a rendered mixdown delivered as a base64 audio
// data URI and returns the public URL of the stored file.
func (h *APIHandler) UploadAudioHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID      string `json:"id"`
		DataURL string `json:"dataUrl"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ID == "" || req.DataURL == "" {
		respondWithError(w, http.StatusBadRequest, "Missing audio data or ID")
		return
	}

	match := audioDataURLPattern.FindStringSubmatch(req.DataURL)
	if match == nil {
		respondWithError(w, http.StatusBadRequest, "Invalid audio payload")
		return
	}

	contentType := strings.ToLower(match[1])
	data, err := base64.StdEncoding.DecodeString(match[2])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid audio payload")
		return
	}

	url, err := h.store.SaveMix(r.Context(), req.ID, contentType, data)
	if err != nil {
		logger.Error("mix upload failed",
			logger.String("id", req.ID),
			logger.ErrorField(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to upload audio mix")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"url": url})
}

// GetSessionHandler serves a session document by id: cache first, then the
// public store. 404 means the id never existed or was garbage-collected.
func (h *APIHandler) GetSessionHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "Missing session id")
		return
	}

	if session := h.sessionCache.GetSession(r.Context(), id); session != nil {
		respondWithJSON(w, http.StatusOK, session)
		return
	}

	if h.loader == nil {
		respondWithError(w, http.StatusNotFound, "Session not found or expired")
		return
	}

	session, err := h.loader.LoadSession(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			respondWithError(w, http.StatusNotFound, "Session not found or expired")
			return
		}
		logger.Error("session load failed",
			logger.String("id", id),
			logger.ErrorField(err))
		respondWithError(w, http.StatusBadGateway, "Failed to load session")
		return
	}

	h.sessionCache.SetSession(r.Context(), session)
	respondWithJSON(w, http.StatusOK, session)
}

package server

import (
	"context"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"cliplink/cache"
	"cliplink/config"
	"cliplink/logger"
	"cliplink/proxy"
	"cliplink/storage"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// Start initializes dependencies and runs the HTTP server until interrupted.
func Start(cfg *config.Config) {
	server := &http.Server{
		Addr:         cfg.ServerAddr,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // streaming proxy responses can outlive any fixed write deadline
		IdleTimeout:  120 * time.Second,
	}

	store, err := storage.NewStore(cfg)
	if err != nil {
		logger.Fatal("failed to initialize storage", logger.ErrorField(err))
	}

	// Redis is an optimization, not a dependency: without it every watch
	// load is a direct storage read.
	var sessionCache *cache.SessionCache
	if redisClient, err := cache.ConnectRedis(cfg); err != nil {
		logger.Warn("redis unavailable, session cache disabled", logger.ErrorField(err))
	} else {
		sessionCache = cache.NewSessionCache(redisClient, 0)
		defer redisClient.Close()
	}

	emptyMode := proxy.EmptyAllowAll
	if cfg.IsProduction() {
		emptyMode = proxy.EmptyDenyAll
	}
	allowlist := proxy.NewAllowlist(cfg.ProxyAllowedHosts, emptyMode)
	proxyHandler := proxy.NewHandler(allowlist, cfg.AllowedOrigin, nil)

	reader := storage.NewPublicReader(store.PublicURL(""), nil)
	apiHandler := NewAPIHandler(store, reader, sessionCache, cfg)

	router := mux.NewRouter()
	router.Use(requestIDMiddleware)
	router.Use(corsMiddleware(cfg.AllowedOrigin))

	router.Handle("/proxy", proxyHandler).Methods(http.MethodGet, http.MethodHead, http.MethodOptions)

	router.HandleFunc("/api/save", apiHandler.SaveSessionHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/upload-audio", apiHandler.UploadAudioHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/sessions/{id}", apiHandler.GetSessionHandler).Methods(http.MethodGet)

	// Object passthrough for deployments whose bucket has no public URL:
	// serves videos/{id}.json and mixes/{id}.{ext} straight from storage.
	router.PathPrefix("/videos/").HandlerFunc(objectHandler(store, "application/json"))
	router.PathPrefix("/mixes/").HandlerFunc(objectHandler(store, "audio/wav"))

	server.Handler = router

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("server starting",
			logger.String("addr", cfg.ServerAddr),
			logger.String("env", cfg.AppEnv))

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", logger.ErrorField(err))
		}
	}()

	<-stop
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", logger.ErrorField(err))
	}

	logger.Info("server stopped")
}

// corsMiddleware applies the CORS policy shared by the API endpoints. The
// proxy handler shapes its own CORS response.
func corsMiddleware(origin string) mux.MiddlewareFunc {
	if origin == "" {
		origin = "*"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS, HEAD")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Range")
			w.Header().Set("Access-Control-Expose-Headers", "Content-Length, Content-Range, Accept-Ranges, Content-Type")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// requestIDMiddleware tags every request with an id for log correlation.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", requestID)

		logger.Debug("request",
			logger.String("requestId", requestID),
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path))

		next.ServeHTTP(w, r)
	})
}

// objectHandler serves bucket objects under the request path, mirroring the
// public blob layout.
func objectHandler(store *storage.Store, defaultContentType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		objectKey := strings.TrimPrefix(r.URL.Path, "/")

		ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
		defer cancel()

		object, err := store.GetObject(ctx, objectKey)
		if err != nil {
			respondWithError(w, http.StatusNotFound, "Session not found or expired")
			return
		}
		defer object.Close()

		contentType := defaultContentType
		if strings.HasSuffix(objectKey, ".json") {
			contentType = "application/json"
		} else if strings.HasSuffix(objectKey, ".wav") {
			contentType = "audio/wav"
		}

		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Cache-Control", "public, max-age=60")

		if _, err := io.Copy(w, object); err != nil {
			logger.Warn("error serving object",
				logger.String("key", objectKey),
				logger.ErrorField(err))
		}
	}
}

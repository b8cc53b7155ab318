package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"cliplink/config"
	"cliplink/logger"
	"cliplink/model"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// SessionStore is the write side of the session blob store. Saves are full
// overwrites with no retry; a retried save with the same id simply replaces
// the document.
type SessionStore interface {
	SaveSession(ctx context.Context, session *model.Session) (string, error)
	SaveMix(ctx context.Context, id, contentType string, data []byte) (string, error)
}

// Store keeps session documents and rendered mixes as objects in a MinIO
// bucket: videos/{id}.json and mixes/{id}.{ext}.
type Store struct {
	client     *minio.Client
	bucket     string
	publicBase string
}

// SessionObjectKey returns the bucket key of a session document.
func SessionObjectKey(id string) string {
	return fmt.Sprintf("videos/%s.json", id)
}

// MixObjectKey returns the bucket key of a rendered mix.
func MixObjectKey(id, ext string) string {
	return fmt.Sprintf("mixes/%s.%s", id, ext)
}

// NewStore connects to MinIO and ensures the bucket exists.
func NewStore(cfg *config.Config) (*Store, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.MinioRegion,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		err = client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{
			Region: cfg.MinioRegion,
		})
		if err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
		logger.Info("created storage bucket", logger.String("bucket", cfg.MinioBucket))
	}

	publicBase := strings.TrimSuffix(cfg.StoragePublicBaseURL, "/")
	if publicBase == "" {
		scheme := "http"
		if cfg.MinioUseSSL {
			scheme = "https"
		}
		publicBase = fmt.Sprintf("%s://%s/%s", scheme, cfg.MinioEndpoint, cfg.MinioBucket)
	}

	return &Store{
		client:     client,
		bucket:     cfg.MinioBucket,
		publicBase: publicBase,
	}, nil
}

// PublicURL returns the anonymously reachable URL of an object.
func (s *Store) PublicURL(objectKey string) string {
	return s.publicBase + "/" + objectKey
}

// SaveSession serializes the session and writes it under videos/{id}.json,
// returning the public URL of the stored document.
func (s *Store) SaveSession(ctx context.Context, session *model.Session) (string, error) {
	data, err := session.Marshal()
	if err != nil {
		return "", fmt.Errorf("encode session: %w", err)
	}

	key := SessionObjectKey(session.ID)
	_, err = s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("store session %s: %w", session.ID, err)
	}

	logger.Info("session saved",
		logger.String("id", session.ID),
		logger.String("kind", string(session.Kind)),
		logger.Int("tracks", len(session.Tracks)))
	return s.PublicURL(key), nil
}

// SaveMix writes a rendered mixdown payload under mixes/{id}.{ext} and
// returns its public URL.
func (s *Store) SaveMix(ctx context.Context, id, contentType string, data []byte) (string, error) {
	ext := "audio"
	if strings.Contains(contentType, "wav") {
		ext = "wav"
	}

	key := MixObjectKey(id, ext)
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("store mix %s: %w", id, err)
	}

	logger.Info("mix saved",
		logger.String("id", id),
		logger.String("contentType", contentType),
		logger.Int("bytes", len(data)))
	return s.PublicURL(key), nil
}

// GetObject opens an object for reading; used by the server's passthrough
// routes for deployments without a public bucket URL.
func (s *Store) GetObject(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	object, err := s.client.GetObject(ctx, s.bucket, objectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	// GetObject is lazy; a Stat forces the error for missing keys.
	if _, err := object.Stat(); err != nil {
		object.Close()
		return nil, err
	}
	return object, nil
}

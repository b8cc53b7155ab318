package cache

import (
	"context"
	"time"

	"cliplink/logger"
	"cliplink/model"

	"github.com/go-redis/redis/v8"
)

const sessionKeyPrefix = "cliplink:session:"

// SessionCache is a read-through Redis cache for session documents on the
// watch path. Cache trouble never fails a request; callers fall back to a
// direct storage read.
type SessionCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionCache creates a cache with the given TTL. A zero ttl defaults
// to ten minutes.
func NewSessionCache(client *redis.Client, ttl time.Duration) *SessionCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &SessionCache{client: client, ttl: ttl}
}

// GetSession returns the cached document for id, or nil on a miss.
func (c *SessionCache) GetSession(ctx context.Context, id string) *model.Session {
	if c == nil || c.client == nil {
		return nil
	}

	data, err := c.client.Get(ctx, sessionKeyPrefix+id).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.Warn("session cache read failed",
				logger.String("id", id),
				logger.ErrorField(err))
		}
		return nil
	}

	session, err := model.ParseSession(data)
	if err != nil {
		// A stale or corrupt entry is dropped, not surfaced.
		c.client.Del(ctx, sessionKeyPrefix+id)
		return nil
	}
	return session
}

// SetSession stores the document for id with the cache TTL.
func (c *SessionCache) SetSession(ctx context.Context, session *model.Session) {
	if c == nil || c.client == nil || session == nil {
		return
	}

	data, err := session.Marshal()
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, sessionKeyPrefix+session.ID, data, c.ttl).Err(); err != nil {
		logger.Warn("session cache write failed",
			logger.String("id", session.ID),
			logger.ErrorField(err))
	}
}

// Invalidate drops the cached document for id, called after a save
// overwrites the stored object.
func (c *SessionCache) Invalidate(ctx context.Context, id string) {
	if c == nil || c.client == nil {
		return
	}
	c.client.Del(ctx, sessionKeyPrefix+id)
}

// Package cache stores laid out scenes in Redis.  The detection pipeline is
// deterministic so a scene is keyed by the image content together with the
// view geometry and orientation it was laid out for.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/shelfvision/go-shelfdetect"
	"go.uber.org/zap"
	"strings"
	"time"
)

// DefaultTTL is used when no expiry is given
const DefaultTTL = 10 * time.Minute

// SceneCache caches scenes in Redis.  A nil client disables caching, every
// lookup then misses and every store is a no-op.
type SceneCache struct {
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
	log       *zap.Logger
}

// New returns a scene cache.  If ttl is 0 it defaults to DefaultTTL, if
// namespace is empty it uses "scenes".
func New(rdb *redis.Client, ttl time.Duration, namespace string, log *zap.Logger) *SceneCache {

	if ttl <= 0 {
		ttl = DefaultTTL
	}

	if namespace == "" {
		namespace = "scenes"
	}

	if log == nil {
		log = zap.NewNop()
	}

	return &SceneCache{
		rdb:       rdb,
		ttl:       ttl,
		namespace: safe(namespace),
		log:       log,
	}
}

// ImageHash returns the hex sha256 of the image bytes
func ImageHash(image []byte) string {
	sum := sha256.Sum256(image)
	return hex.EncodeToString(sum[:])
}

// Key returns the cache key of an image, identified by its ImageHash, laid
// out over a view
func (c *SceneCache) Key(imageHash string, viewWidth, viewHeight float32, orientation int) string {
	return fmt.Sprintf("%s:%s:%gx%g:%d", c.namespace, imageHash, viewWidth, viewHeight,
		orientation)
}

// Get returns the cached scene for key.  Misses, Redis failures and corrupt
// entries all report false.
func (c *SceneCache) Get(ctx context.Context, key string) (*shelfdetect.Scene, bool) {

	if c.rdb == nil {
		return nil, false
	}

	b, err := c.rdb.Get(ctx, key).Bytes()

	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn("scene cache lookup failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}

	var scene shelfdetect.Scene

	if err := json.Unmarshal(b, &scene); err != nil {
		c.log.Warn("dropping corrupt scene cache entry", zap.String("key", key), zap.Error(err))
		_ = c.rdb.Del(ctx, key).Err()
		return nil, false
	}

	return &scene, true
}

// Set stores a scene under key
func (c *SceneCache) Set(ctx context.Context, key string, scene *shelfdetect.Scene) error {

	if c.rdb == nil {
		return nil
	}

	b, err := json.Marshal(scene)

	if err != nil {
		return errors.Wrap(err, "error encoding scene")
	}

	if err := c.rdb.Set(ctx, key, b, c.ttl).Err(); err != nil {
		return errors.Wrap(err, "error caching scene")
	}

	return nil
}

// safe escapes characters that are problematic for Redis keys
func safe(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, ":", "_")
	return s
}

// Package cache keeps detector output in Redis so that re-running the same
// document does not call the model again. Only detector output is stored;
// redacted text and reports are always recomputed.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"universal-redaction/internal/config"
	"universal-redaction/internal/redaction"
)

// KeyDetections prefixes every cached detector result.
const KeyDetections = "detections"

const opTimeout = 2 * time.Second

// RDB is the shared Redis client. Nil means caching is disabled.
var RDB *redis.Client

// InitRedis connects to config.AppConfig.RedisURL. Caching stays disabled when
// the URL is empty, cannot be parsed or the server does not answer.
func InitRedis() {
	url := config.GetRedisURL()
	if url == "" {
		log.Println("[cache] REDIS_URL not set, detection cache disabled")
		return
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		log.Printf("[cache] Invalid REDIS_URL: %v (detection cache disabled)", err)
		return
	}

	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("[cache] Redis unreachable: %v (detection cache disabled)", err)
		_ = client.Close()
		return
	}

	RDB = client
	log.Printf("[cache] Connected to Redis at %s", opts.Addr)
}

// Enabled reports whether a Redis client is configured.
func Enabled() bool {
	return RDB != nil
}

// DetectionKey builds the cache key for a document analysed by a given
// provider and model. The document itself is only present as a hash.
func DetectionKey(provider, model, text string) string {
	sum := sha256.Sum256([]byte(text))
	return KeyDetections + ":" + provider + ":" + model + ":" + hex.EncodeToString(sum[:])
}

// GetDetections returns the cached detector output for key.
// The boolean is false on a miss or when caching is disabled.
func GetDetections(ctx context.Context, key string) ([]redaction.Detection, bool) {
	if RDB == nil {
		return nil, false
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	raw, err := RDB.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("[cache] Get failed: %v", err)
		}
		return nil, false
	}

	var dets []redaction.Detection
	if err := json.Unmarshal(raw, &dets); err != nil {
		log.Printf("[cache] Dropping undecodable entry: %v", err)
		RDB.Del(ctx, key)
		return nil, false
	}
	return dets, true
}

// SetDetections stores detector output under key for ttl.
func SetDetections(ctx context.Context, key string, dets []redaction.Detection, ttl time.Duration) error {
	if RDB == nil {
		return nil
	}
	if dets == nil {
		dets = []redaction.Detection{}
	}

	raw, err := json.Marshal(dets)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	return RDB.Set(ctx, key, raw, ttl).Err()
}

// ClearCache deletes every key under the given prefix and returns how many
// keys were removed.
func ClearCache(prefix string) (int, error) {
	if RDB == nil {
		return 0, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var keys []string
	iter := RDB.Scan(ctx, 0, prefix+":*", 500).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return 0, err
	}
	if len(keys) == 0 {
		return 0, nil
	}

	n, err := RDB.Del(ctx, keys...).Result()
	return int(n), err
}

// Ping checks the Redis connection. It succeeds trivially when caching is disabled.
func Ping(ctx context.Context) error {
	if RDB == nil {
		return nil
	}
	return RDB.Ping(ctx).Err()
}

package utils

import (
	"context"       // Context for Redis operations
	"crypto/sha256" // Token digests; raw tokens never become Redis keys
	"encoding/hex"  // Digest encoding
	"encoding/json" // JSON encoding/decoding
	"time"          // Time durations

	"github.com/redis/go-redis/v9" // Redis client
)

// GetCache retrieves a value from Redis and unmarshals it into dest
func GetCache(ctx context.Context, rdb *redis.Client, key string, dest any) (bool, error) {
	val, err := rdb.Get(ctx, key).Result() // Get value from Redis
	if err == redis.Nil {
		return false, nil // Key does not exist
	} else if err != nil {
		return false, err // Other Redis error
	}
	return true, json.Unmarshal([]byte(val), dest) // Unmarshal JSON into dest
}

// SetCache sets a value in Redis with a specified TTL
func SetCache(ctx context.Context, rdb *redis.Client, key string, value any, ttl time.Duration) error {
	b, err := json.Marshal(value) // Marshal value to JSON
	if err != nil {
		return err // Return error if marshaling fails
	}
	return rdb.Set(ctx, key, b, ttl).Err() // Set value in Redis with TTL
}

// DeleteCache deletes a key from Redis
func DeleteCache(ctx context.Context, rdb *redis.Client, key string) error {
	return rdb.Del(ctx, key).Err() // Delete key from Redis
}

// denyKey derives the Redis key for a revoked token
func denyKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "jwt:denied:" + hex.EncodeToString(sum[:])
}

// DenyToken marks a token as revoked until it would have expired anyway
func DenyToken(ctx context.Context, rdb *redis.Client, token string) error {
	return rdb.Set(ctx, denyKey(token), "1", TokenTTL).Err()
}

// IsTokenDenied reports whether a token has been revoked by logout
func IsTokenDenied(ctx context.Context, rdb *redis.Client, token string) (bool, error) {
	_, err := rdb.Get(ctx, denyKey(token)).Result()
	if err == redis.Nil {
		return false, nil // Not revoked
	} else if err != nil {
		return false, err // Other Redis error
	}
	return true, nil
}

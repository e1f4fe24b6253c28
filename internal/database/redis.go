package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jo-service/marketplace-backend/internal/config"
	"github.com/redis/go-redis/v9"
)

// Redis is nil when REDIS_ADDR is not configured; every helper below
// degrades to a no-op in that case.
var Redis *redis.Client
var Ctx = context.Background()

func InitRedis() {
	if config.AppConfig.RedisAddr == "" {
		log.Println("REDIS_ADDR not set. Token revocation and shared presence are disabled.")
		return
	}

	Redis = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       0,
	})

	_, err := Redis.Ping(Ctx).Result()
	if err != nil {
		log.Printf("Warning: Failed to connect to Redis: %v. Token revocation and shared presence will be unavailable.", err)
	} else {
		log.Println("Connected to Redis successfully")
	}
}

// Token revocation

func blacklistKey(jti string) string {
	return fmt.Sprintf("token_blacklist:%s", jti)
}

// BlacklistToken revokes a token id until its natural expiry
func BlacklistToken(jti string, ttl time.Duration) error {
	if Redis == nil || jti == "" {
		return nil
	}
	if ttl <= 0 {
		return nil
	}
	return Redis.Set(Ctx, blacklistKey(jti), "1", ttl).Err()
}

// IsTokenBlacklisted reports whether jti was revoked. Lookup failures are
// treated as not revoked.
func IsTokenBlacklisted(jti string) bool {
	if Redis == nil || jti == "" {
		return false
	}
	n, err := Redis.Exists(Ctx, blacklistKey(jti)).Result()
	if err != nil {
		return false
	}
	return n > 0
}

// Rate Limiting
func CheckRateLimit(key string, limit int, duration time.Duration) (bool, error) {
	if Redis == nil {
		return true, nil
	}
	key = fmt.Sprintf("rate_limit:%s", key)
	count, err := Redis.Incr(Ctx, key).Result()
	if err != nil {
		return false, err
	}

	if count == 1 {
		Redis.Expire(Ctx, key, duration)
	}

	if count > int64(limit) {
		return false, nil
	}
	return true, nil
}

// internal/db/redis.go
package db

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisDB struct {
	Client *redis.Client
}

func NewRedisDB(redisURL string) (*RedisDB, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Println("[Redis] Connected to Redis")
	return &RedisDB{Client: client}, nil
}

func (r *RedisDB) Close() {
	if r.Client != nil {
		r.Client.Close()
		log.Println("[Redis] Connection closed")
	}
}

// AcquireSweepLock takes a short-lived advisory lock so only one instance
// runs the expiry sweep at a time. The sweep itself is idempotent, the lock
// just avoids redundant work when several instances share one database.
func (r *RedisDB) AcquireSweepLock(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	return r.Client.SetNX(ctx, "lock:"+name, time.Now().Unix(), ttl).Result()
}

// ReleaseSweepLock drops the advisory lock early once a sweep finishes.
func (r *RedisDB) ReleaseSweepLock(ctx context.Context, name string) error {
	return r.Client.Del(ctx, "lock:"+name).Err()
}

package common

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// NewRedisClient builds the shared client for the sync task stream and the
// report token store. Connection settings come from REDIS_* env vars, matching
// the PG_* convention of the database layer.
func NewRedisClient() *redis.Client {
	host := envOr("REDIS_HOST", "localhost")
	port := envOr("REDIS_PORT", "6379")
	password := os.Getenv("REDIS_PASSWORD")

	db := 0
	if raw := os.Getenv("REDIS_DB"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			log.Printf("[Redis] Ignoring invalid REDIS_DB %q: %v", raw, err)
		} else {
			db = parsed
		}
	}

	addr := fmt.Sprintf("%s:%s", host, port)
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		// Return the client anyway; the pool reconnects on later use and the
		// health endpoint reports the state.
		log.Printf("[Redis] Failed to ping %s: %v", addr, err)
		return client
	}

	log.Printf("[Redis] Connected to %s (db=%d)", addr, db)
	return client
}

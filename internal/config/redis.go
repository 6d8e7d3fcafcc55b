package config

// Redis backs the Mirror ("local bookings"), the local payment ledger
// ("local payments"), rate limiting and response caching.  If the server
// cannot be reached at startup NewRedisClient returns nil and callers fall
// back to in-process stores.

import (
	"context"
	"crypto/tls"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// StoreConfig names the Redis keys of the local collections and the order
// in which ledger sources are consulted.
type StoreConfig struct {
	MirrorKey     string
	LedgerKey     string
	LedgerSources []string
}

// LoadStoreConfig reads MIRROR_KEY, LEDGER_KEY and LEDGER_SOURCES.  The
// source order matters: the correlator takes the first matching payment.
func LoadStoreConfig() StoreConfig {
	return StoreConfig{
		MirrorKey:     getenv("MIRROR_KEY", "bookings:local"),
		LedgerKey:     getenv("LEDGER_KEY", "payments:local"),
		LedgerSources: splitList(getenv("LEDGER_SOURCES", "remote,mysql,redis")),
	}
}

// NewRedisClient instantiates a Redis client using environment variables.
// Supported variables are:
//
//	REDIS_HOST and REDIS_PORT – hostname and port of the Redis server
//	REDIS_ADDR – host:port shorthand (used when host/port are not both set)
//	REDIS_PASSWORD – optional password
//	REDIS_DB – database number (default 0)
//	REDIS_TLS – enable TLS when "true" or "1"
//
// The returned client is nil if a connection cannot be established.
func NewRedisClient() *redis.Client {
	host := os.Getenv("REDIS_HOST")
	port := os.Getenv("REDIS_PORT")
	addr := os.Getenv("REDIS_ADDR")
	if host != "" && port != "" {
		addr = host + ":" + port
	}
	if addr == "" {
		addr = "localhost:6379"
	}
	dbNum := 0
	if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
		if n, err := strconv.Atoi(dbStr); err == nil {
			dbNum = n
		}
	}
	var tlsConf *tls.Config
	if v := os.Getenv("REDIS_TLS"); strings.EqualFold(v, "true") || v == "1" {
		tlsConf = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(&redis.Options{
		Addr:      addr,
		Password:  os.Getenv("REDIS_PASSWORD"),
		DB:        dbNum,
		TLSConfig: tlsConf,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil
	}
	return client
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

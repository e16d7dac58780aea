package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Liad-hossain/test-voice-export/config"
	"github.com/redis/go-redis/v9"
)

// ConnectRedis establishes the connection backing the run lock.
//
//nolint:ireturn // returning redis.UniversalClient keeps the lock adapter independent of the client flavour.
func ConnectRedis(ctx context.Context, cfg config.RunLockConfig, logger *slog.Logger) (redis.UniversalClient, error) {
	opts, addrDesc, err := redisOptions(cfg)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)

	// Verify connection
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if pingErr := client.Ping(pingCtx).Err(); pingErr != nil {
		if closeErr := client.Close(); closeErr != nil {
			pingErr = errors.Join(pingErr, fmt.Errorf("close redis client: %w", closeErr))
		}
		return nil, fmt.Errorf("ping redis: %w", pingErr)
	}

	if logger != nil {
		logger.InfoContext(ctx, "redis connected", "addr", addrDesc, "db", opts.DB)
	}
	return client, nil
}

// redisOptions accepts either a redis:// URL or a bare host:port address.
// The returned description never carries credentials.
func redisOptions(cfg config.RunLockConfig) (*redis.Options, string, error) {
	uri := strings.TrimSpace(cfg.RedisURI)
	if uri == "" {
		return nil, "", errors.New("redis run lock requires RUN_LOCK_REDIS_URI")
	}

	if isRedisURL(uri) {
		opt, err := redis.ParseURL(uri)
		if err != nil {
			return nil, "", fmt.Errorf("parse redis url: %w", err)
		}
		if opt.Password == "" {
			opt.Password = cfg.Password
		}
		if opt.DB == 0 {
			opt.DB = cfg.DB
		}
		return opt, opt.Addr, nil
	}

	if i := strings.LastIndex(uri, "@"); i > -1 {
		uri = uri[i+1:]
	}
	return &redis.Options{
		Addr:     uri,
		Password: cfg.Password,
		DB:       cfg.DB,
	}, uri, nil
}

func isRedisURL(value string) bool {
	return strings.HasPrefix(value, "redis://") || strings.HasPrefix(value, "rediss://")
}

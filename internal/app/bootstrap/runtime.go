package bootstrap

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/devdanielvaldez/autoclinic-bot/internal/config"
	"github.com/devdanielvaldez/autoclinic-bot/internal/conversation"
	"github.com/devdanielvaldez/autoclinic-bot/internal/session"
	"github.com/devdanielvaldez/autoclinic-bot/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		return nil
	}
	return client
}

// BuildSessionStore picks the session backend named by SESSION_BACKEND and
// optionally fronts it with the in-process read cache.
func BuildSessionStore(cfg *appconfig.Config, redisClient *redis.Client, dynamoClient *dynamodb.Client, logger *logging.Logger) (session.Store, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	var store session.Store
	switch cfg.SessionBackend {
	case "redis", "":
		if redisClient == nil {
			return nil, fmt.Errorf("bootstrap: redis session backend requires REDIS_ADDR")
		}
		store = session.NewRedisStore(redisClient)
	case "dynamodb":
		if dynamoClient == nil {
			return nil, fmt.Errorf("bootstrap: dynamodb session backend requires an aws client")
		}
		store = session.NewDynamoStore(dynamoClient, cfg.SessionsTable, logger)
	case "memory":
		logger.Warn("using in-memory session store; state is lost on restart")
		return session.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("bootstrap: unknown session backend %q", cfg.SessionBackend)
	}

	logger.Info("session store ready", "backend", cfg.SessionBackend, "cached", cfg.SessionCacheEnabled, "cache_ttl", cfg.SessionCacheTTL)
	if cfg.SessionCacheEnabled {
		return session.NewCachedStore(store, cfg.SessionCacheTTL), nil
	}
	return store, nil
}

// BuildWindow returns the Redis context window when Redis is available and
// the in-process window otherwise.
func BuildWindow(cfg *appconfig.Config, redisClient *redis.Client) conversation.Window {
	size := conversation.DefaultWindowSize
	if cfg != nil && cfg.ContextWindowSize > 0 {
		size = cfg.ContextWindowSize
	}
	if redisClient == nil || cfg == nil || cfg.SessionBackend == "memory" {
		return conversation.NewMemoryWindow(size)
	}
	return conversation.NewRedisWindow(redisClient, size, cfg.ContextWindowTTL)
}

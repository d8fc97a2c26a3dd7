package cache

import (
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/bizledger/backend/internal/infrastructure/config"
)

// NewStore builds the configured cache backend.
func NewStore(cfg config.CacheConfig, client *redis.Client, logger *zap.Logger) (Store, error) {
	switch cfg.Backend {
	case "memory":
		return NewMemoryStore(
			WithMemoryLogger(logger),
			WithSweepInterval(cfg.SweepEvery),
		), nil
	case "redis":
		if client == nil {
			return nil, fmt.Errorf("cache backend %q requires a redis client", cfg.Backend)
		}
		return NewRedisStore(client, logger), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

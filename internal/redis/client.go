package redis

import (
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

type Config struct {
	Host     string
	Port     string
	Password string
	DB       int
}

var (
	client     *redis.Client
	clientOnce sync.Once
)

// Initialize creates the global Redis client singleton. Safe to call more
// than once; only the first call takes effect.
func Initialize(cfg Config) {
	clientOnce.Do(func() {
		client = NewClient(cfg)
	})
}

// GetClient returns the singleton Redis client. Panics if Initialize has not
// been called.
func GetClient() *redis.Client {
	if client == nil {
		panic("redis client not initialized. Call Initialize() first")
	}
	return client
}

// NewClient creates a standalone client (use for testing/multiple instances).
func NewClient(cfg Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

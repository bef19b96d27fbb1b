package config

import (
	"os"
	"strconv"
	"sync"
)

var (
	redisOnce   sync.Once
	redisConfig *RedisConfig
)

// RedisConfig covers both the asynq task queue and the tool history store.
type RedisConfig struct {
	Addr string
	DB   int
}

func GetRedisConfig() *RedisConfig {
	redisOnce.Do(func() {
		loadDotEnv()

		cfg := &RedisConfig{
			Addr: "localhost:6379",
			DB:   0,
		}
		if v := os.Getenv("REDIS_ADDR"); v != "" {
			cfg.Addr = v
		}
		if v := os.Getenv("REDIS_DB"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				cfg.DB = n
			}
		}
		redisConfig = cfg
	})
	return redisConfig
}

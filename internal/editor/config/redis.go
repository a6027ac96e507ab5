package config

import (
	"fmt"
	"time"
)

// RedisConfig настройки Redis шлюза.
type RedisConfig struct {
	Host      string        `yaml:"host" env:"NOTETAKER_REDIS_HOST" env-default:"localhost"`
	Port      int           `yaml:"port" env:"NOTETAKER_REDIS_PORT" env-default:"6379"`
	Password  string        `yaml:"password" env:"NOTETAKER_REDIS_PASSWORD" env-default:""`
	DB        int           `yaml:"db" env:"NOTETAKER_REDIS_DB" env-default:"0"`
	PoolSize  int           `yaml:"pool_size" env:"NOTETAKER_REDIS_POOL_SIZE" env-default:"10"`
	Timeout   time.Duration `yaml:"timeout" env:"NOTETAKER_REDIS_TIMEOUT" env-default:"3s"`
	KeyPrefix string        `yaml:"key_prefix" env:"NOTETAKER_REDIS_KEY_PREFIX" env-default:"notetaker"`
}

// GetAddress возвращает адрес Redis в формате host:port.
func (c *RedisConfig) GetAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

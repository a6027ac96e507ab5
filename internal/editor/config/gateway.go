package config

import (
	"errors"
	"time"
)

// Поддерживаемые реализации шлюза.
const (
	GatewayGraphQL  = "graphql"
	GatewayRedis    = "redis"
	GatewayPostgres = "postgres"
)

// Ошибки валидации.
var (
	ErrUnknownGateway  = errors.New("unknown gateway kind")
	ErrMissingEndpoint = errors.New("graphql endpoint is required")
)

// GatewayConfig выбор шлюза и общий таймаут запросов.
type GatewayConfig struct {
	Kind           string        `yaml:"kind" env:"NOTETAKER_GATEWAY_KIND" env-default:"graphql"`
	RequestTimeout time.Duration `yaml:"request_timeout" env:"NOTETAKER_REQUEST_TIMEOUT" env-default:"10s"`
	StrictSeed     bool          `yaml:"strict_seed" env:"NOTETAKER_STRICT_SEED" env-default:"false"`
}

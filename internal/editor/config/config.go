// Package config содержит конфигурацию клиента заметок.
package config

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	pkgconfig "notetaker/pkg/config"
	"notetaker/pkg/logger"
)

// ServiceName имя сервиса в логах.
const ServiceName = "notetaker"

const (
	LogConfigLoaded     = "notetaker configuration"
	ErrFailedLoadConfig = "failed to load notetaker configuration"
	ErrInvalidConfig    = "invalid notetaker configuration"
)

// Config полная конфигурация клиента.
type Config struct {
	Gateway  GatewayConfig  `yaml:"gateway"`
	GraphQL  GraphQLConfig  `yaml:"graphql"`
	Redis    RedisConfig    `yaml:"redis"`
	Postgres PostgresConfig `yaml:"postgres"`
	HTTP     HTTPConfig     `yaml:"http"`
	Logging  LoggingConfig  `yaml:"logging"`
	Shutdown ShutdownConfig `yaml:"shutdown"`
}

// Load загружает конфигурацию из deploy/.env (если есть) и окружения.
func Load(ctx context.Context) (*Config, error) {
	return LoadFrom(ctx, pkgconfig.DefaultEnvPath)
}

// LoadFrom загружает конфигурацию из указанного .env файла и окружения.
func LoadFrom(ctx context.Context, envPath string) (*Config, error) {
	cfg, err := pkgconfig.Load[Config](ctx, ServiceName, envPath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrFailedLoadConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrInvalidConfig, err)
	}

	logger.Log(ctx).Info(ctx, LogConfigLoaded,
		zap.String("gateway_kind", cfg.Gateway.Kind),
		zap.Duration("request_timeout", cfg.Gateway.RequestTimeout),
		zap.String("http_address", cfg.HTTP.GetAddress()),
		zap.String("log_level", cfg.Logging.Level),
		zap.String("log_mode", cfg.Logging.Mode),
		zap.Int("shutdown_timeout_seconds", cfg.Shutdown.Timeout))

	return cfg, nil
}

// Validate проверяет согласованность секций.
func (c *Config) Validate() error {
	switch c.Gateway.Kind {
	case GatewayGraphQL:
		if c.GraphQL.Endpoint == "" {
			return ErrMissingEndpoint
		}
	case GatewayRedis, GatewayPostgres:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownGateway, c.Gateway.Kind)
	}
	return nil
}

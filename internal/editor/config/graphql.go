package config

import "time"

// GraphQLConfig настройки размещенного GraphQL API.
type GraphQLConfig struct {
	Endpoint         string        `yaml:"endpoint" env:"NOTETAKER_GRAPHQL_ENDPOINT"`
	RealtimeEndpoint string        `yaml:"realtime_endpoint" env:"NOTETAKER_GRAPHQL_REALTIME_ENDPOINT"`
	APIKey           string        `yaml:"api_key" env:"NOTETAKER_GRAPHQL_API_KEY"`
	Token            string        `yaml:"token" env:"NOTETAKER_GRAPHQL_TOKEN"`
	ConnectTimeout   time.Duration `yaml:"connect_timeout" env:"NOTETAKER_GRAPHQL_CONNECT_TIMEOUT" env-default:"10s"`
	WriteTimeout     time.Duration `yaml:"write_timeout" env:"NOTETAKER_GRAPHQL_WRITE_TIMEOUT" env-default:"5s"`
}

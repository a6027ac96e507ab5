package config

import "fmt"

// PostgresConfig настройки Postgres шлюза.
type PostgresConfig struct {
	Host     string `yaml:"host" env:"NOTETAKER_POSTGRES_HOST" env-default:"localhost"`
	Port     int    `yaml:"port" env:"NOTETAKER_POSTGRES_PORT" env-default:"5432"`
	User     string `yaml:"user" env:"NOTETAKER_POSTGRES_USER" env-default:"postgres"`
	Password string `yaml:"password" env:"NOTETAKER_POSTGRES_PASSWORD" env-default:"postgres"`
	Database string `yaml:"database" env:"NOTETAKER_POSTGRES_DB" env-default:"notes"`
	MinConn  int    `yaml:"min_conn" env:"NOTETAKER_POSTGRES_MIN_CONN" env-default:"1"`
	MaxConn  int    `yaml:"max_conn" env:"NOTETAKER_POSTGRES_MAX_CONN" env-default:"10"`
	Migrate  bool   `yaml:"migrate" env:"NOTETAKER_POSTGRES_MIGRATE" env-default:"true"`
}

// GetDSN возвращает строку подключения для pgx.
func (p *PostgresConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		p.Host, p.Port, p.User, p.Password, p.Database)
}

// GetConnectionURL возвращает URL для миграций.
func (p *PostgresConfig) GetConnectionURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		p.User, p.Password, p.Host, p.Port, p.Database)
}

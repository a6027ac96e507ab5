package config

import "notetaker/pkg/logger"

// LoggingConfig настройки логирования.
type LoggingConfig struct {
	Level string `yaml:"level" env:"NOTETAKER_LOGGER_LEVEL" env-default:"info"`
	Mode  string `yaml:"mode" env:"NOTETAKER_LOGGER_MODE" env-default:"development"`
}

// GetEnvironment переводит режим в logger.Environment.
func (l *LoggingConfig) GetEnvironment() logger.Environment {
	if l.Mode == "production" {
		return logger.Production
	}
	return logger.Development
}

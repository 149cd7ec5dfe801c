// Package config provides configuration management for scriptd.
package config

import (
	"fmt"
	"time"
)

// Config is the global configuration for scriptd.
type Config struct {
	// App is the application configuration.
	App AppConfig `mapstructure:"app" validate:"required"`

	// Log is the logging configuration.
	Log LogConfig `mapstructure:"log" validate:"required"`

	// Bus is the multicast pool configuration.
	Bus BusConfig `mapstructure:"bus"`

	// Server is the introspection HTTP server configuration.
	Server ServerConfig `mapstructure:"server"`

	// Metrics is the observability configuration.
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// AppConfig holds application metadata and settings.
type AppConfig struct {
	// Name is the application name.
	Name string `mapstructure:"name" validate:"required"`

	// Environment is the runtime environment (development, staging, production).
	Environment string `mapstructure:"environment" validate:"oneof=development staging production"`

	// Debug enables debug mode with verbose logging.
	Debug bool `mapstructure:"debug"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`

	// Format is the log output format (json or text).
	Format string `mapstructure:"format" validate:"oneof=json text"`

	// Output is the log destination: stdout, stderr, or a file path.
	Output string `mapstructure:"output"`
}

// BusConfig holds multicast pool settings.
type BusConfig struct {
	// Bridge configures the optional cross-process Redis bridge.
	Bridge BridgeConfig `mapstructure:"bridge"`
}

// BridgeConfig holds the Redis Pub/Sub bridge settings.
type BridgeConfig struct {
	// Enabled turns the bridge on.
	Enabled bool `mapstructure:"enabled"`

	// Addr is the Redis server address.
	Addr string `mapstructure:"addr"`

	// Password is the optional Redis password.
	Password string `mapstructure:"password"`

	// DB is the Redis database number.
	DB int `mapstructure:"db" validate:"min=0"`

	// Channel is the Pub/Sub channel carrying bridged messages.
	Channel string `mapstructure:"channel"`
}

// ServerConfig holds the introspection HTTP server settings.
type ServerConfig struct {
	// Enabled turns the server on.
	Enabled bool `mapstructure:"enabled"`

	// Host is the bind address.
	Host string `mapstructure:"host"`

	// Port is the HTTP port.
	Port int `mapstructure:"port" validate:"min=1,max=65535"`

	// ReadTimeout bounds request reads.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`

	// WriteTimeout bounds response writes.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`

	// IdleTimeout bounds idle keep-alive connections.
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`
}

// MetricsConfig holds observability settings.
type MetricsConfig struct {
	// Enabled turns metrics collection on.
	Enabled bool `mapstructure:"enabled"`

	// Path is the metrics exposition path on the introspection server.
	Path string `mapstructure:"path"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// String returns a string representation of the config.
func (c *Config) String() string {
	return fmt.Sprintf("Config{App: %s, Server: :%d, Env: %s}",
		c.App.Name, c.Server.Port, c.App.Environment)
}

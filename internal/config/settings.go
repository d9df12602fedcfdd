package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/viper"
)

// Store drivers understood by the app wiring.
const (
	DriverMySQL  = "mysql"
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

type ServerConfig struct {
	Port int `mapstructure:"port"`
	// BackendURL is the base URL clients use to reach this API.
	BackendURL string `mapstructure:"backend_url"`
}

func (s ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

type DBConfig struct {
	Driver   string `mapstructure:"driver"`
	URL      string `mapstructure:"url"`
	PoolSize int    `mapstructure:"pool_size"`
}

type MQTTConfig struct {
	Broker         string        `mapstructure:"broker"`
	ClientID       string        `mapstructure:"client_id"`
	PublishTimeout time.Duration `mapstructure:"publish_timeout"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

type Settings struct {
	Server ServerConfig `mapstructure:"server"`
	DB     DBConfig     `mapstructure:"database"`
	MQTT   MQTTConfig   `mapstructure:"mqtt"`
	Env    string       `mapstructure:"env"`
	Debug  bool         `mapstructure:"debug"`
}

// env var names match the existing deployment manifests
var envBindings = map[string]string{
	"env":                  "ENV",
	"debug":                "DEBUG",
	"server.port":          "PORT",
	"server.backend_url":   "BACKEND_URL",
	"database.driver":      "DB_DRIVER",
	"database.url":         "DB_CONNECTION_URL",
	"database.pool_size":   "DB_POOL_SIZE",
	"mqtt.broker":          "MQTT_BROKER",
	"mqtt.client_id":       "MQTT_CLIENT_ID",
	"mqtt.publish_timeout": "MQTT_PUBLISH_TIMEOUT",
	"mqtt.connect_timeout": "MQTT_CONNECT_TIMEOUT",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "dev")
	v.SetDefault("debug", false)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.backend_url", "http://localhost:8080")
	v.SetDefault("database.driver", DriverMySQL)
	v.SetDefault("database.url", "")
	v.SetDefault("database.pool_size", 10)
	v.SetDefault("mqtt.broker", "tcp://test.mosquitto.org:1883")
	v.SetDefault("mqtt.client_id", "")
	v.SetDefault("mqtt.publish_timeout", 2*time.Second)
	v.SetDefault("mqtt.connect_timeout", 5*time.Second)
}

// Load reads settings from an optional config_<env>.yaml in the working
// directory, then lets environment variables override.
func Load() (*Settings, error) {
	return LoadFrom(".")
}

// LoadFrom is Load with an explicit config directory.
func LoadFrom(dir string) (*Settings, error) {
	v := viper.New()
	setDefaults(v)
	// MQTT_BROKER="" selects the log-only publisher
	v.AllowEmptyEnv(true)
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	v.SetConfigName("config_" + genEnv(v))
	v.AddConfigPath(dir)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if settings.MQTT.ClientID == "" {
		settings.MQTT.ClientID = "humidhub-" + uuid.NewString()[:8]
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	return &settings, nil
}

// Validate checks the settings needed to start the process.
func (s *Settings) Validate() error {
	switch s.DB.Driver {
	case DriverMySQL, DriverRedis:
		if s.DB.URL == "" {
			return fmt.Errorf("database url is required for driver %q", s.DB.Driver)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown database driver %q", s.DB.Driver)
	}
	if s.Server.Port <= 0 || s.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", s.Server.Port)
	}
	if s.MQTT.PublishTimeout <= 0 {
		return errors.New("mqtt publish timeout must be positive")
	}
	return nil
}

func genEnv(v *viper.Viper) string {
	env := v.GetString("env")
	if env == "" {
		return "dev"
	}
	return env
}

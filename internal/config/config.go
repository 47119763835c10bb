package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel string  `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort string  `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	BaseURL  string  `yaml:"base-url" env:"BASE_URL" env-default:""`
	Rooms    Rooms   `yaml:"rooms"`
	Redis    Redis   `yaml:"redis"`
	Journal  Journal `yaml:"journal"`
}

type Rooms struct {
	CodeLength int `yaml:"code-length" env:"ROOMS_CODE_LENGTH" env-default:"4"`
	// creator or random
	Pairing       string        `yaml:"pairing" env:"ROOMS_PAIRING" env-default:"creator"`
	IdleTimeout   time.Duration `yaml:"idle-timeout" env:"ROOMS_IDLE_TIMEOUT" env-default:"0s"`
	SweepInterval time.Duration `yaml:"sweep-interval" env:"ROOMS_SWEEP_INTERVAL" env-default:"1m"`
}

type Redis struct {
	Enabled bool   `yaml:"enabled" env:"REDIS_ENABLED" env-default:"false"`
	Host    string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port    string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
}

type Journal struct {
	MaxEvents int           `yaml:"max-events" env:"JOURNAL_MAX_EVENTS" env-default:"200"`
	TTL       time.Duration `yaml:"ttl" env:"JOURNAL_TTL" env-default:"168h"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(err)
	}

	return config
}

// Load reads path, or only the environment when path is empty.
func Load(path string) (*Config, error) {
	config := &Config{}

	if path == "" {
		if err := cleanenv.ReadEnv(config); err != nil {
			return nil, fmt.Errorf("unable to read config from env: %w", err)
		}
	} else if err := cleanenv.ReadConfig(path, config); err != nil {
		return nil, fmt.Errorf("unable to load config file: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return config, nil
}

func (that *Config) validate() error {
	if that.Rooms.CodeLength < 1 || that.Rooms.CodeLength > 9 {
		return fmt.Errorf("rooms.code-length must be between 1 and 9, got %d", that.Rooms.CodeLength)
	}

	if that.Rooms.IdleTimeout < 0 {
		return fmt.Errorf("rooms.idle-timeout must not be negative, got %s", that.Rooms.IdleTimeout)
	}

	if that.Rooms.IdleTimeout > 0 && that.Rooms.SweepInterval <= 0 {
		return fmt.Errorf("rooms.sweep-interval must be positive when idle-timeout is set, got %s", that.Rooms.SweepInterval)
	}

	return nil
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}

// SweepEnabled reports whether idle rooms are removed in the background.
func (that *Rooms) SweepEnabled() bool {
	return that.IdleTimeout > 0
}

package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Database
		Global
	}

	HTTP struct {
		Addr string
	}
	Database struct {
		URL string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
)

// Load reads configuration from LIBRARY_-prefixed environment variables.
func Load() (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("LIBRARY")
	v.AutomaticEnv()

	v.SetDefault("SERVER_ADDR", ":8080")
	v.SetDefault("SHUTDOWN_TIMEOUT_SECONDS", 10)

	cfg := Config{
		HTTP: HTTP{
			Addr: v.GetString("SERVER_ADDR"),
		},
		Database: Database{
			URL: v.GetString("DATABASE_URL"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_SECONDS"),
		},
	}

	if cfg.Database.URL == "" {
		return Config{}, fmt.Errorf("LIBRARY_DATABASE_URL is required")
	}
	return cfg, nil
}

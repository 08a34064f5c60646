/*
Package config loads server configuration from the environment.

PURPOSE:
  All knobs come from STICKERCRM_* environment variables, with a .env file
  picked up in development. Defaults suit a single-desk local install.

VARIABLES:
  STICKERCRM_PORT       HTTP port (default 8080)
  STICKERCRM_DB_PATH    SQLite database path (default stickercrm.db,
                        ":memory:" for throwaway runs)
  STICKERCRM_LOG_LEVEL  logrus level (default info)
*/
package config

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port     int    `envconfig:"PORT" default:"8080"`
	DBPath   string `envconfig:"DB_PATH" default:"stickercrm.db"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// Load reads configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("stickercrm", &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

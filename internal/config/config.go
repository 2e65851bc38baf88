// Package config loads CLI settings from an optional candh.yaml and CANDH_
// environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Keys understood in candh.yaml. Environment overrides use the CANDH_
// prefix with dots replaced by underscores, e.g. CANDH_HISTORY_DB.
const (
	KeyHistoryDB      = "history.db"
	KeyHistoryActor   = "history.actor"
	KeyEngineLocation = "engine.location"
	KeyOutputFormat   = "output.format"
)

// Config holds the resolved settings.
type Config struct {
	HistoryDB string
	Actor     string
	Location  string
	Format    string
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		Actor:    "system",
		Location: "UTC",
		Format:   "text",
	}
}

// Load reads settings. An explicit path must exist; with an empty path a
// candh.yaml in dir is used when present. Environment variables override
// file values.
func Load(path, dir string) (Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetEnvPrefix("CANDH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range []string{KeyHistoryDB, KeyHistoryActor, KeyEngineLocation, KeyOutputFormat} {
		if err := v.BindEnv(key); err != nil {
			return cfg, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("candh")
		v.SetConfigType("yaml")
		v.AddConfigPath(dir)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
	}

	if v.IsSet(KeyHistoryDB) {
		cfg.HistoryDB = v.GetString(KeyHistoryDB)
	}
	if v.IsSet(KeyHistoryActor) {
		cfg.Actor = v.GetString(KeyHistoryActor)
	}
	if v.IsSet(KeyEngineLocation) {
		cfg.Location = v.GetString(KeyEngineLocation)
	}
	if v.IsSet(KeyOutputFormat) {
		cfg.Format = v.GetString(KeyOutputFormat)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the format and location values.
func (c Config) Validate() error {
	if c.Format != "text" && c.Format != "json" {
		return fmt.Errorf("%s: must be text or json, got %q", KeyOutputFormat, c.Format)
	}
	if _, err := c.Loc(); err != nil {
		return err
	}
	return nil
}

// Loc resolves the engine location.
func (c Config) Loc() (*time.Location, error) {
	if c.Location == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Location)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", KeyEngineLocation, err)
	}
	return loc, nil
}

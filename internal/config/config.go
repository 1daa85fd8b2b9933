package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config defines the application configuration structure
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Dhan        DhanConfig        `mapstructure:"dhan"`
	Flattrade   FlattradeConfig   `mapstructure:"flattrade"`
	Instruments InstrumentsConfig `mapstructure:"instruments"`
	Log         LogConfig         `mapstructure:"log"`

	// Source describes where the configuration came from, for startup logging
	Source string `mapstructure:"-"`
}

// ServerConfig defines the HTTP listener configuration
type ServerConfig struct {
	Port           int    `mapstructure:"port"`
	FrontendOrigin string `mapstructure:"frontend_origin"`
}

// DhanConfig defines the Dhan broker configuration
type DhanConfig struct {
	APIToken string `mapstructure:"api_token"`
	ClientID string `mapstructure:"client_id"`
	BaseURL  string `mapstructure:"base_url"`
}

// FlattradeConfig defines the Flattrade broker configuration
type FlattradeConfig struct {
	ClientID  string `mapstructure:"client_id"`
	APIKey    string `mapstructure:"api_key"`
	APISecret string `mapstructure:"api_secret"`
	AuthURL   string `mapstructure:"auth_url"`
}

// InstrumentsConfig defines where the security master lives and how it is refreshed
type InstrumentsConfig struct {
	MasterPath      string `mapstructure:"master_path"`
	MasterURL       string `mapstructure:"master_url"`
	RefreshSchedule string `mapstructure:"refresh_schedule"`
	ParquetDir      string `mapstructure:"parquet_dir"`
}

// LogConfig defines logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// envBindings maps nested config keys to the environment variables the relay has always read
var envBindings = map[string]string{
	"server.port":                  "PORT",
	"server.frontend_origin":       "FRONTEND_ORIGIN",
	"dhan.api_token":               "DHAN_API_TOKEN",
	"dhan.client_id":               "DHAN_CLIENT_ID",
	"dhan.base_url":                "DHAN_BASE_URL",
	"flattrade.client_id":          "FLATTRADE_CLIENT_ID",
	"flattrade.api_key":            "FLATTRADE_API_KEY",
	"flattrade.api_secret":         "FLATTRADE_API_SECRET",
	"flattrade.auth_url":           "FLATTRADE_AUTH_URL",
	"instruments.master_path":      "SCRIP_MASTER_PATH",
	"instruments.master_url":       "SCRIP_MASTER_URL",
	"instruments.refresh_schedule": "SCRIP_MASTER_REFRESH",
	"instruments.parquet_dir":      "PARQUET_DIR",
	"log.level":                    "LOG_LEVEL",
	"log.pretty":                   "LOG_PRETTY",
}

// LoadConfig loads configuration from file and overrides with environment variables.
// A .env file in the working directory is loaded first; variables already set win.
func LoadConfig(path string) (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return Config{}, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	source := "environment"
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		var pathErr *fs.PathError
		if !errors.As(err, &notFound) && !errors.As(err, &pathErr) {
			return Config{}, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	} else {
		source = v.ConfigFileUsed() + " + environment"
	}

	// Environment variables take precedence over config file values
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("error unmarshaling config: %w", err)
	}

	applyDefaults(&config)
	config.Source = source

	return config, nil
}

// MissingCredentials lists the broker credentials the glue routes need but are unset
func (c Config) MissingCredentials() []string {
	var missing []string
	if c.Dhan.APIToken == "" {
		missing = append(missing, "DHAN_API_TOKEN")
	}
	if c.Dhan.ClientID == "" {
		missing = append(missing, "DHAN_CLIENT_ID")
	}
	if c.Flattrade.ClientID == "" {
		missing = append(missing, "FLATTRADE_CLIENT_ID")
	}
	if c.Flattrade.APIKey == "" {
		missing = append(missing, "FLATTRADE_API_KEY")
	}
	if c.Flattrade.APISecret == "" {
		missing = append(missing, "FLATTRADE_API_SECRET")
	}
	return missing
}

// applyDefaults sets default values for any config values not set from file or environment
func applyDefaults(config *Config) {
	if config.Server.Port == 0 {
		config.Server.Port = 3000
	}
	if config.Server.FrontendOrigin == "" {
		config.Server.FrontendOrigin = "http://localhost:5173"
	}

	if config.Dhan.BaseURL == "" {
		config.Dhan.BaseURL = "https://api.dhan.co"
	}
	if config.Flattrade.AuthURL == "" {
		config.Flattrade.AuthURL = "https://authapi.flattrade.in"
	}

	if config.Instruments.MasterPath == "" {
		config.Instruments.MasterPath = "./api-scrip-master.csv"
	}
	if config.Instruments.MasterURL == "" {
		config.Instruments.MasterURL = "https://images.dhan.co/api-data/api-scrip-master.csv"
	}
	if config.Instruments.ParquetDir == "" {
		config.Instruments.ParquetDir = "./parquet_data"
	}

	if config.Log.Level == "" {
		config.Log.Level = "info"
	}
}

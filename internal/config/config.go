// Package config loads application configuration from config.yml, a .env
// file, and environment variables, in increasing order of precedence.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/Arcaz22/Productivity-Tracker/internal/database"
	"github.com/Arcaz22/Productivity-Tracker/internal/keycloak"
	"github.com/Arcaz22/Productivity-Tracker/internal/logger"
	"github.com/Arcaz22/Productivity-Tracker/internal/observability"
	"github.com/Arcaz22/Productivity-Tracker/internal/server"
	"github.com/Arcaz22/Productivity-Tracker/internal/server/middleware"
)

// App holds application-level settings.
type App struct {
	// Name is the service name used in logs and telemetry.
	Name string `yaml:"name" mapstructure:"name"`

	// Debug exposes internal error detail in 5xx responses and enables
	// verbose denial logging. Never enable in production.
	Debug bool `yaml:"debug" mapstructure:"debug"`
}

// Config is the root configuration.
type Config struct {
	App       App                   `yaml:"app" mapstructure:"app"`
	Server    server.Config         `yaml:"server" mapstructure:"server"`
	Keycloak  keycloak.Config       `yaml:"keycloak" mapstructure:"keycloak"`
	Database  database.Config       `yaml:"database" mapstructure:"database"`
	Logging   logger.Config         `yaml:"logging" mapstructure:"logging"`
	CORS      middleware.CORSConfig `yaml:"cors" mapstructure:"cors"`
	Telemetry observability.Config  `yaml:"telemetry" mapstructure:"telemetry"`
}

// Load reads configuration. An empty path searches the working directory
// for config.yml and .env.
func Load(path string) (*Config, error) {
	v := viper.New()

	// .env first so AutomaticEnv sees its variables.
	if envFile := findFile(".env"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			fmt.Fprintf(os.Stderr, "config: failed to load %s: %v\n", envFile, err)
		}
	}

	setDefaults(v)

	configFile := path
	if configFile == "" {
		configFile = findFile("config.yml")
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", configFile, err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "productivity-tracker"
	}
	c.Server.ApplyDefaults()
	c.Keycloak.ApplyDefaults()
	c.Database.ApplyDefaults()
	c.Logging.ApplyDefaults()
	c.CORS.ApplyDefaults()
	c.Telemetry.ApplyDefaults()
	if c.Telemetry.ServiceName == "" {
		c.Telemetry.ServiceName = c.App.Name
	}
}

func (c *Config) validate() error {
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if err := c.Keycloak.Validate(); err != nil {
		return err
	}
	if err := c.Database.Validate(); err != nil {
		return err
	}
	return c.Logging.Validate()
}

// setDefaults registers every key so AutomaticEnv can resolve it from the
// environment (KEYCLOAK_SERVER_URL binds to keycloak.server_url, and so
// on).
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "")
	v.SetDefault("app.debug", false)

	v.SetDefault("server.host", "")
	v.SetDefault("server.port", 0)
	v.SetDefault("server.read_timeout", 0)
	v.SetDefault("server.write_timeout", 0)
	v.SetDefault("server.idle_timeout", 0)

	v.SetDefault("keycloak.server_url", "")
	v.SetDefault("keycloak.realm", "")
	v.SetDefault("keycloak.client_id", "")
	v.SetDefault("keycloak.client_secret", "")
	v.SetDefault("keycloak.admin_username", "")
	v.SetDefault("keycloak.admin_password", "")
	v.SetDefault("keycloak.use_service_account", true)
	v.SetDefault("keycloak.timeout", 0)

	v.SetDefault("database.dsn", "")
	v.SetDefault("database.max_open_conns", 0)
	v.SetDefault("database.max_idle_conns", 0)
	v.SetDefault("database.conn_max_lifetime", "")
	v.SetDefault("database.max_retries", 0)
	v.SetDefault("database.log_level", "")
	v.SetDefault("database.slow_query_threshold", "")

	v.SetDefault("logging.level", "")
	v.SetDefault("logging.format", "")
	v.SetDefault("logging.output", "")
	v.SetDefault("logging.no_color", false)
	v.SetDefault("logging.timestamp", true)
	v.SetDefault("logging.caller", false)

	v.SetDefault("cors.allowed_origins", []string{})
	v.SetDefault("cors.allowed_methods", []string{})
	v.SetDefault("cors.allowed_headers", []string{})
	v.SetDefault("cors.allow_credentials", false)

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "")
	v.SetDefault("telemetry.service_version", "")
	v.SetDefault("telemetry.environment", "")
	v.SetDefault("telemetry.endpoint", "")
	v.SetDefault("telemetry.insecure", true)
	v.SetDefault("telemetry.sample_rate", 1.0)
	v.SetDefault("telemetry.metric_interval", "")
}

// findFile searches the working directory and its two parents.
func findFile(name string) string {
	for _, prefix := range []string{".", "..", "../.."} {
		candidate := prefix + "/" + name
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

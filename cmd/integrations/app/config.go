package app

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/agentstation/integrations/internal/server"
	"github.com/agentstation/integrations/pkg/constants"
	"github.com/agentstation/integrations/pkg/errors"
)

const configFileName = constants.DefaultConfigName + ".yaml"

// Config holds the application configuration loaded from config files,
// environment variables and .env files.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool
	Format  string

	// Config file
	ConfigFile string

	// Catalog and store
	RepositoryPath     string
	UseEmbeddedCatalog bool
	Store              string
	IndexCacheTTL      time.Duration

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogOutput string

	// Server defaults, overridable by serve flags
	Server server.Config
}

// LoadConfig loads configuration from all sources in order of precedence:
//  1. Command-line flags (handled by cobra)
//  2. Environment variables (INTEGRATIONS_ prefix)
//  3. .env files
//  4. Config file (~/.integrations.yaml)
//  5. Defaults
func LoadConfig() (*Config, error) {
	loadEnvFiles()
	return loadConfig(os.Getenv("INTEGRATIONS_CONFIG"))
}

// loadConfig builds a Config reading configFile, or searching $HOME and the
// working directory when it is empty.
func loadConfig(configFile string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("integrations")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.NewConfigError("config", "read "+configFile, err)
		}
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(constants.DefaultConfigName)
		// A missing config file is fine; defaults and env still apply.
		_ = v.ReadInConfig()
	}

	srv := server.DefaultConfig()
	srv.Host = v.GetString("server.host")
	srv.Port = v.GetInt("server.port")
	srv.PathPrefix = v.GetString("server.prefix")
	srv.CORSEnabled = v.GetBool("server.cors")
	srv.CORSOrigins = v.GetStringSlice("server.cors_origins")
	srv.AuthEnabled = v.GetBool("server.auth")
	srv.AuthHeader = v.GetString("server.auth_header")
	srv.APIKey = v.GetString("api_key")
	srv.RateLimit = v.GetInt("server.rate_limit")
	srv.CacheTTL = v.GetDuration("server.cache_ttl")
	srv.MetricsEnabled = v.GetBool("server.metrics")

	config := &Config{
		Verbose: v.GetBool("verbose"),
		Quiet:   v.GetBool("quiet"),
		NoColor: v.GetBool("no_color"),
		Format:  v.GetString("format"),

		ConfigFile: v.ConfigFileUsed(),

		RepositoryPath:     v.GetString("repository_path"),
		UseEmbeddedCatalog: v.GetBool("use_embedded_catalog"),
		Store:              v.GetString("store"),
		IndexCacheTTL:      v.GetDuration("index_cache_ttl"),

		LogLevel:  getEnvOrDefault("LOG_LEVEL", v.GetString("log_level")),
		LogFormat: getEnvOrDefault("LOG_FORMAT", v.GetString("log_format")),
		LogOutput: getEnvOrDefault("LOG_OUTPUT", v.GetString("log_output")),

		Server: srv,
	}

	return config, nil
}

func setDefaults(v *viper.Viper) {
	srv := server.DefaultConfig()

	v.SetDefault("use_embedded_catalog", true)
	v.SetDefault("store", constants.DefaultStoreDSN)
	v.SetDefault("index_cache_ttl", constants.CacheTTL)
	v.SetDefault("log_format", "auto")
	v.SetDefault("log_output", "stderr")

	v.SetDefault("server.host", srv.Host)
	v.SetDefault("server.port", srv.Port)
	v.SetDefault("server.prefix", srv.PathPrefix)
	v.SetDefault("server.cors", srv.CORSEnabled)
	v.SetDefault("server.cors_origins", srv.CORSOrigins)
	v.SetDefault("server.auth", srv.AuthEnabled)
	v.SetDefault("server.auth_header", srv.AuthHeader)
	v.SetDefault("server.rate_limit", srv.RateLimit)
	v.SetDefault("server.cache_ttl", srv.CacheTTL)
	v.SetDefault("server.metrics", srv.MetricsEnabled)
}

// UpdateFromFlags applies parsed global flags so they take precedence over
// the config file and environment.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, format, logLevel string) {
	c.Verbose = verbose
	c.Quiet = quiet
	c.NoColor = noColor
	if format != "" {
		c.Format = format
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
}

// loadEnvFiles loads .env files; .env.local does not override values
// already set by .env or the process environment.
func loadEnvFiles() {
	for _, envFile := range []string{".env", ".env.local"} {
		_ = godotenv.Load(envFile)
	}
}

// getEnvOrDefault returns the environment variable value or the default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// Package serve provides the serve command, which runs the integrations
// HTTP API.
package serve

import (
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentstation/integrations/cmd/application"
	"github.com/agentstation/integrations/internal/server"
	"github.com/agentstation/integrations/pkg/errors"
)

// NewCommand creates the serve command. defaults returns the configured
// server settings; flags given on the command line override them.
func NewCommand(app application.Application, defaults func() server.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"server"},
		GroupID: "core",
		Short:   "Start the integrations REST API server",
		Long: `Start the REST API for the integrations repository and instance store.

Features:
  - Template routes under <prefix>/repository
  - Instance routes under <prefix>/store
  - Response caching, flushed on writes and catalog file changes
  - Rate limiting per client IP
  - API key authentication (optional)
  - CORS support
  - Prometheus metrics at /metrics
  - Graceful shutdown with connection draining`,
		Example: `  # Start on default port 8080
  integrations serve

  # Serve a filesystem catalog and reload on change
  integrations serve --repository ./catalog

  # Require an API key
  INTEGRATIONS_API_KEY=secret integrations serve --auth`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := parseConfig(cmd, defaults(), app.RepositoryPath())
			if err != nil {
				return err
			}
			return run(cmd, app, cfg)
		},
	}

	d := defaults()
	cmd.Flags().Int("port", d.Port, "Server port")
	cmd.Flags().String("host", d.Host, "Bind address")
	cmd.Flags().Bool("cors", d.CORSEnabled, "Enable CORS")
	cmd.Flags().StringSlice("cors-origins", d.CORSOrigins, "Allowed CORS origins (comma-separated, default all)")
	cmd.Flags().Bool("auth", d.AuthEnabled, "Enable API key authentication (key from INTEGRATIONS_API_KEY)")
	cmd.Flags().String("auth-header", d.AuthHeader, "Authentication header name")
	cmd.Flags().Int("rate-limit", d.RateLimit, "Requests per minute per IP (0 to disable)")
	cmd.Flags().Duration("cache-ttl", d.CacheTTL, "Response cache TTL")
	cmd.Flags().Duration("read-timeout", d.ReadTimeout, "HTTP read timeout")
	cmd.Flags().Duration("write-timeout", d.WriteTimeout, "HTTP write timeout")
	cmd.Flags().Duration("idle-timeout", d.IdleTimeout, "HTTP idle timeout")
	cmd.Flags().Bool("metrics", d.MetricsEnabled, "Enable the /metrics endpoint")
	cmd.Flags().String("prefix", d.PathPrefix, "API path prefix")
	cmd.Flags().Bool("watch", true, "Flush the response cache when the filesystem catalog changes")

	return cmd
}

func run(cmd *cobra.Command, app application.Application, cfg server.Config) error {
	logger := app.Logger()
	m, err := app.Manager()
	if err != nil {
		return err
	}

	logger.Info().
		Int("port", cfg.Port).
		Str("host", cfg.Host).
		Str("prefix", cfg.PathPrefix).
		Bool("cors", cfg.CORSEnabled).
		Bool("auth", cfg.AuthEnabled).
		Int("rate_limit", cfg.RateLimit).
		Dur("cache_ttl", cfg.CacheTTL).
		Str("watch", cfg.WatchPath).
		Msg("Starting API server")

	srv, err := server.New(m, cfg, logger)
	if err != nil {
		return err
	}
	return srv.ListenAndServe(cmd.Context())
}

// parseConfig applies the flags given on the command line over base.
// HTTP_PORT and HTTP_HOST override both. The filesystem catalog at
// repositoryPath is watched unless --watch=false.
func parseConfig(cmd *cobra.Command, base server.Config, repositoryPath string) (server.Config, error) {
	cfg := base
	flags := cmd.Flags()
	if flags.Changed("port") {
		cfg.Port = mustGetInt(cmd, "port")
	}
	if flags.Changed("host") {
		cfg.Host = mustGetString(cmd, "host")
	}
	if flags.Changed("cors") {
		cfg.CORSEnabled = mustGetBool(cmd, "cors")
	}
	if flags.Changed("cors-origins") {
		cfg.CORSOrigins = mustGetStringSlice(cmd, "cors-origins")
	}
	if flags.Changed("auth") {
		cfg.AuthEnabled = mustGetBool(cmd, "auth")
	}
	if flags.Changed("auth-header") {
		cfg.AuthHeader = mustGetString(cmd, "auth-header")
	}
	if flags.Changed("rate-limit") {
		cfg.RateLimit = mustGetInt(cmd, "rate-limit")
	}
	if flags.Changed("cache-ttl") {
		cfg.CacheTTL = mustGetDuration(cmd, "cache-ttl")
	}
	if flags.Changed("read-timeout") {
		cfg.ReadTimeout = mustGetDuration(cmd, "read-timeout")
	}
	if flags.Changed("write-timeout") {
		cfg.WriteTimeout = mustGetDuration(cmd, "write-timeout")
	}
	if flags.Changed("idle-timeout") {
		cfg.IdleTimeout = mustGetDuration(cmd, "idle-timeout")
	}
	if flags.Changed("metrics") {
		cfg.MetricsEnabled = mustGetBool(cmd, "metrics")
	}
	if flags.Changed("prefix") {
		cfg.PathPrefix = mustGetString(cmd, "prefix")
	}
	cfg.WatchPath = ""
	if mustGetBool(cmd, "watch") {
		cfg.WatchPath = repositoryPath
	}

	if envPort := os.Getenv("HTTP_PORT"); envPort != "" {
		port, err := parsePort(envPort)
		if err != nil {
			return cfg, err
		}
		cfg.Port = port
	}
	if envHost := os.Getenv("HTTP_HOST"); envHost != "" {
		cfg.Host = envHost
	}
	return cfg, nil
}

func parsePort(s string) (int, error) {
	port, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.NewValidationError("port", s, "invalid port number")
	}
	if port < 1 || port > 65535 {
		return 0, errors.NewValidationError("port", port, "port out of range")
	}
	return port, nil
}

// Flags read below are defined in NewCommand, so lookup errors are
// programming errors.

func mustGetInt(cmd *cobra.Command, name string) int {
	v, err := cmd.Flags().GetInt(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return v
}

func mustGetString(cmd *cobra.Command, name string) string {
	v, err := cmd.Flags().GetString(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return v
}

func mustGetBool(cmd *cobra.Command, name string) bool {
	v, err := cmd.Flags().GetBool(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return v
}

func mustGetStringSlice(cmd *cobra.Command, name string) []string {
	v, err := cmd.Flags().GetStringSlice(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return v
}

func mustGetDuration(cmd *cobra.Command, name string) time.Duration {
	v, err := cmd.Flags().GetDuration(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return v
}

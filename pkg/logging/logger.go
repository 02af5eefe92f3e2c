// Package logging provides structured logging for the integrations repository
// using zerolog.
//
// Library code takes its logger from the context and tags it with the
// integration, adaptor, instance or operation it works on:
//
//	ctx = logging.WithIntegration(ctx, "nginx")
//	logging.FromContext(ctx).Warn().Err(err).Msg("Skipping adaptor")
//
// A context without a logger falls back to the package default, which the
// CLI replaces with the logger built from its configuration.
package logging

import (
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var defaultLogger atomic.Pointer[zerolog.Logger]

func init() {
	// Levels are set per logger from Config.
	zerolog.SetGlobalLevel(zerolog.TraceLevel)
	SetDefault(NewLoggerFromConfig(DefaultConfig()))
}

// Default returns the default logger.
func Default() *zerolog.Logger {
	return defaultLogger.Load()
}

// SetDefault replaces the default logger, and zerolog's global logger with it.
func SetDefault(logger zerolog.Logger) {
	defaultLogger.Store(&logger)
	log.Logger = logger
}

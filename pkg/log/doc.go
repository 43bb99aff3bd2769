/*
Package log provides structured logging for Mend, built on zerolog.

The package wraps a single global zerolog logger configured once at daemon
startup. JSON output is the default for production; console output with
colors is available for interactive use. Helpers attach the fields the rest
of the codebase keys on: component, service, and error_id.

# Usage

	log.Init(log.Config{Level: log.InfoLevel, JSONOutput: true})

	log.Info("daemon starting")
	log.Errorf("archive open: %v", err)

	logger := log.WithComponent("engine")
	logger.Warn().Str("error_id", id).Msg("attempt budget exhausted")

WithComponent, WithService, and WithErrorID return child loggers carrying
the field, so hot paths bind once and reuse.

# Levels

debug, info, warn, error. Unknown level strings fall back to info. Fatal
logs and exits; it belongs in main, nowhere else.

# See Also

  - cmd/mend for where Init is called with configured level and format
*/
package log

// Package logging wraps log/slog into the hub's structured logger.
//
// Output format, destination and level come from the logging section of
// config.yaml; every entry carries service and version fields. JSON is
// the production format, text is for development.
//
// Usage:
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger.Info("starting service", "port", 8080)
//
// Never log secrets, tokens or passwords; truncate anything sensitive
// before it reaches a log field.
package logging

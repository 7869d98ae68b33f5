// Package logger provides structured logging for ssogate using zerolog.
//
// Loggers are plain values passed to the components that need them; a
// package-level logger exists only for the command entry points.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.NewDefault("ssogate").WithComponent("jwks")
//	log.Info("key set fetched", logger.Fields("url", u, "keys", n))
package logger

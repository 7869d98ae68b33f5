// Package config loads service configuration from a YAML file, a .env file
// and the process environment using Viper.
//
// Environment variables override file values. A variable such as
// AUTH_GOOGLE_CLIENT_ID is bound to every plausible nested key
// (auth.google.client_id, auth.google_client_id, ...) so callers do not
// register keys by hand.
//
// # Usage
//
//	var cfg Config
//	if err := config.LoadConfig("ssogate", &cfg); err != nil { ... }
package config

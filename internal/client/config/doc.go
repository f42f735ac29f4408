// Package config loads runtime configuration for the Kenala client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional config file selected with --config (JSON, YAML or TOML).
//  3. Environment variables prefixed with KENALA_, e.g. KENALA_SERVER_URL.
//  4. Command-line flags registered by RegisterFlags.
//
// Later sources win. Durations accept Go duration strings such as "3s".
//
// Example YAML file:
//
//	server_url: https://api.kenala.app
//	online_check_interval: 5s
//	database_driver: sqlite
//	database_dsn: /home/me/.config/kenala/kenala.db
//	s3_bucket: kenala-journals
package config

// Package config loads runtime configuration for the certportal client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   base URL of the REST API
//	-t int      request timeout (seconds)
//	-s string   path of the local session database
//	-l string   log level (debug, info, warn, error)
//
// # JSON schema
//
// The JSON loader uses timex.Duration for the timeout, so it can be either
// a string like "15s" or integer nanoseconds. Absent keys keep the value
// from the previous stage:
//
//	{
//	  "server_base_url": "https://portal.example.org/api",
//	  "request_timeout": "15s",
//	  "storage_path": "session.db",
//	  "log_level": "debug"
//	}
package config

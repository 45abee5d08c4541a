// Package config loads runtime configuration for the fintrack terminal client.
//
// Sources, later ones winning:
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or -config.
//  3. Environment: FINTRACK_AUTH_ADDR, FINTRACK_CLIENT_DB, FINTRACK_REQUEST_TIMEOUT.
//  4. Flags: -a, -db, -t.
//
// JSON example:
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:4002",
//	  "db_path": "fintrack.db",
//	  "request_timeout": "15s"
//	}
package config

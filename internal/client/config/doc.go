// Package config loads runtime configuration for the MaunaVault CLI.
//
// Sources, in increasing precedence:
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//
//  2. Optional JSON file selected with -c or -config.
//
//  3. Environment variables (MAUNA_SERVER_ADDR, MAUNA_DB_PATH,
//     MAUNA_REQUEST_TIMEOUT, MAUNA_KDF_ITERATIONS, MAUNA_RETRY_ATTEMPTS,
//     MAUNA_RETRY_BACKOFF, MAUNA_LOG_LEVEL).
//
//  4. Command-line flags:
//
//     -a string   address:port of the backend gRPC endpoint
//     -f string   path of the local SQLite database
//     -t int      request timeout (seconds)
//     -k int      PBKDF2 iterations for new salts
//     -r int      password change rollback attempts
//
// # JSON schema
//
// Durations are strings like "15s" or integer nanoseconds:
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:3200",
//	  "database_path": "maunavault.db",
//	  "request_timeout": "15s",
//	  "kdf_iterations": 310000,
//	  "retry_attempts": 3,
//	  "retry_backoff": "500ms",
//	  "log_level": "error"
//	}
package config

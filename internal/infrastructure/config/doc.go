// Package config provides 12-factor configuration management for the molx backend.
//
// Configuration is loaded from environment variables with defaults.
// CLI flags in cmd/server can override environment variables.
//
// Configuration Sections:
//   - Server: HTTP server settings (port, host)
//   - Storage: key-value backend for the persisted viewer session
//   - Viewer: session record key and upload limits
//   - Logging: log level and output format
//   - RateLimit: per-IP rate limiting
//
// Environment Variables:
//   - PORT, HOST
//   - STORAGE_DRIVER (memory|sqlite|redis|file), SQLITE_PATH, STORAGE_DIR
//   - REDIS_ADDR, REDIS_PASSWORD, REDIS_DB
//   - SESSION_KEY, MAX_UPLOAD_BYTES
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
package config

// Package config provides 12-factor configuration management for navcore.
//
// Configuration is loaded from environment variables with defaults. A TOML
// file may be layered on top with LoadFile; cmd/server reads its path from
// NAVCORE_CONFIG.
//
// Configuration Sections:
//   - Server: HTTP server settings (port, host)
//   - Logging: Log level and output format
//   - RateLimit: Per-IP rate limiting for the introspection API
//   - Storage: bbolt snapshot store location and breaker threshold
//   - Stream: Per-subscriber buffer of the navigation event stream
//
// Environment Variables:
//   - PORT, HOST
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
//   - STORAGE_PATH, STORAGE_ENABLED, STORAGE_BREAKER_FAILURES
//   - STREAM_BUFFER
package config

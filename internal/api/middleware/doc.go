// Package middleware provides the HTTP middleware stack for the molx backend.
//
// Middleware stack includes:
//   - CORS: cross-origin access for the viewer front end
//   - RateLimit: per-IP token bucket rate limiting
//   - Recovery: panic recovery with a JSON error body
//   - RequestLogger: one zap line per request
//
// Rate Limiting:
//   - Per-IP tracking with idle cleanup
//   - Token bucket algorithm (golang.org/x/time/rate)
//   - Configurable RPS and burst capacity
//   - Global rate limiting option
//
// Example Usage:
//
//	router.Use(middleware.Recovery(logger))
//	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
//	router.Use(middleware.RateLimit(middleware.RateLimitFromConfig(cfg.RateLimit)))
package middleware

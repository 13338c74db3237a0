/*
Package monitoring provides Prometheus metrics for the molx backend.

# Overview

Each Metrics value owns a private registry, so tests can build as many
collectors as they like without duplicate-registration panics.

# Features

- HTTP request metrics (count, latency) labelled by route template
- File intake accept/reject counters
- Viewer lifecycle: live handles, init outcomes, init latency, change events
- Session persistence operations and snapshot sizes
- Storage backend errors
- WebSocket connections and messages

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

A nil *Metrics is accepted everywhere and records nothing.
*/
package monitoring

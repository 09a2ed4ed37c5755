/*
Package monitoring provides Prometheus metrics for navcore.

# Overview

Each Metrics value owns a private prometheus.Registry, so creating several
collectors (one per dispatcher, one per test) never collides on metric names.
All recording methods accept a nil receiver; components take an optional
*Metrics and call it unconditionally.

# Metrics

  - navcore_navigations_total{type,mode,outcome}
  - navcore_guard_duration_seconds{type,mode}
  - navcore_guard_vetoes_total{type,mode}
  - navcore_open_view_models{type}
  - navcore_callbacks_pending, navcore_callbacks_resolved_total{kind}
  - navcore_sessions_saved_total, navcore_sessions_restored_total
  - navcore_http_requests_total, navcore_http_request_duration_seconds
  - navcore_ws_connections, navcore_ws_messages_total{result}

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
*/
package monitoring

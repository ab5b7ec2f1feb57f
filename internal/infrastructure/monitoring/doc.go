/*
Package monitoring provides metrics collection for the editor client and the
workspace server.

# Overview

Collectors are registered on an injected Prometheus registry with promauto,
so tests and embedded sessions can use a private registry. Every recording
method is nil-safe: a component built without metrics simply records
nothing.

# Metrics

  - Channel requests by event and outcome, request latency, retries,
    reconnects and frames
  - Editor tabs open, superseded fetches, saves by outcome, decoration
    recomputes, layout save/restore
  - Workspace HTTP requests, WebSocket connections and messages
  - Process uptime

# Usage

	reg := prometheus.NewRegistry()
	metrics := monitoring.NewMetrics(reg)

	// Add middleware to Gin router
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	// Time a channel request
	timer := monitoring.NewTimer(metrics, "getFile")
	// ... wait for the ack ...
	timer.Stop(monitoring.OutcomeOK)
*/
package monitoring

// Command workspace runs the reference workspace service: an in-memory
// sandbox store served over the websocket sync channel, with REST
// inspection endpoints and Prometheus metrics.
//
// Configuration comes from defaults, the TOML file named by EDITOR_CONFIG
// and the environment, in that order. Flags override the result.
//
// Usage:
//
//	# Serve ./demo as sandbox "demo" on port 4000
//	./workspace -seed ./demo -sandbox demo -port 4000
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main

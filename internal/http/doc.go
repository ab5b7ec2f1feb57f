// Package http provides the REST handlers of the workspace server.
//
// Endpoints:
//   - Health: / and /health
//   - Sandboxes: /sandboxes/:sandbox/tree, /sandboxes/:sandbox/file?id=
//
// The editor itself talks to the workspace over the websocket channel;
// these endpoints exist for health checks and inspection.
package http

// Package server assembles the workspace server: the gin router with its
// middleware, the REST handlers, the metrics endpoint and the websocket
// sync channel. Requests and socket messages are traced when tracing is
// enabled.
package server

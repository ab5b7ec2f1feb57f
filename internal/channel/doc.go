/*
Package channel implements the editor's remote sync channel: one websocket
connection to the workspace service per editor session.

# Protocol

Frames are JSON objects (see package types). A Request sends an "emit"
frame carrying a fresh request id and waits for the "ack" or "error" frame
with the same id. Emit sends an "emit" frame without id. The service
pushes "event" frames such as "loaded" at any time.

# Delivery

Replies and event handlers run through the configured Executor, normally
the session's event loop. Every Reply is called exactly once:

  - with the ack args
  - with *RemoteError when the service answers with an error frame
  - with ErrTimeout when no ack arrived after RequestRetries re-sends,
    each waiting RequestTimeout
  - with ErrDisconnected when the connection closed first

Acks that arrive after their request finished are dropped.

# Connection lifecycle

Connect is a no-op while connected. Handlers registered with On for
types.EventConnect and types.EventDisconnect observe the lifecycle. After
an unexpected close the client reconnects with exponential backoff when
Reconnect is set; Disconnect never reconnects.

Outbound frames are size-checked, rate limited and written through a
circuit breaker, so a dead peer fails fast instead of stalling the session.
*/
package channel

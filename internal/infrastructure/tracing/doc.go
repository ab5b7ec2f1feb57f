/*
Package tracing records lightweight spans for work done by the workspace
server and writes them to the structured log.

A trace groups the spans of one unit of work: an HTTP request, or every
message of one websocket connection. Trace context travels in the
X-Trace-ID and X-Span-ID headers, so a client that sets them on the
websocket upgrade sees its own trace id on every message span.

# Usage

	tracer := tracing.New("workspace", 1024, logger)
	defer tracer.Close()

	router.Use(tracing.Middleware(tracer))

	span, ctx := tracer.Start(ctx, "ws getFile")
	span.Tag("request_id", reqID)
	if err != nil {
		span.Fail(err)
	}
	tracer.Finish(span)

Spans are handed to a buffered collector; when the buffer is full they are
dropped and counted rather than blocking the caller. A nil *Tracer is valid
and records nothing.
*/
package tracing

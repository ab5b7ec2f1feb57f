package tracing

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// Middleware opens a span per HTTP request and returns its ids in the
// response headers. Websocket upgrades are skipped; the socket handler
// traces each message instead.
func Middleware(tracer *Tracer) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tracer == nil || c.IsWebsocket() {
			c.Next()
			return
		}

		name := c.FullPath()
		if name == "" {
			name = "unmatched"
		}
		ctx := Extract(c.Request.Context(), c.Request.Header)
		span, ctx := tracer.Start(ctx, c.Request.Method+" "+name)
		span.Tag("http.method", c.Request.Method)
		span.Tag("http.path", c.Request.URL.Path)
		c.Request = c.Request.WithContext(ctx)
		Inject(ctx, c.Writer.Header())

		c.Next()

		span.Status = c.Writer.Status()
		span.Tag("http.status", strconv.Itoa(span.Status))
		if len(c.Errors) > 0 {
			span.Fail(c.Errors.Last())
		}
		tracer.Finish(span)
	}
}

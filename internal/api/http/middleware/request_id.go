package middleware

import (
	"log"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mindmesh/mindmesh-client/internal/auth"
	"github.com/mindmesh/mindmesh-client/internal/logging"
)

// maxRequestIDLength bounds ids accepted from clients.
const maxRequestIDLength = 128

// RequestIDMiddleware ensures every request has a stable request ID.
// - Reads X-Request-Id header if present
// - Otherwise generates a new one
// - Stores it in the gin context and in the request context (logging.RequestID)
// - Echoes it back in response header X-Request-Id
// - Logs request details once handlers ran, including the session when one was resolved
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := strings.TrimSpace(c.GetHeader("X-Request-Id"))
		if rid == "" || len(rid) > maxRequestIDLength {
			rid = strings.ReplaceAll(uuid.NewString(), "-", "")
		}

		c.Set("request_id", rid)
		c.Request = c.Request.WithContext(logging.WithRequestID(c.Request.Context(), rid))
		c.Writer.Header().Set("X-Request-Id", rid)

		start := time.Now()
		c.Next()

		sid := auth.SessionID(c)
		if len(sid) > 8 {
			sid = sid[:8]
		}
		if sid == "" {
			sid = "-"
		}

		log.Printf(
			"[req] id=%s method=%s path=%s status=%d latency=%s session=%s",
			rid,
			c.Request.Method,
			c.Request.URL.Path,
			c.Writer.Status(),
			time.Since(start),
			sid,
		)
	}
}

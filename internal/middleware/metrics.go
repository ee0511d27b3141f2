package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/temcen/cinematch/internal/metrics"
)

// Metrics records request counts and latency by route template, so
// /api/v1/movies/155/similar and /api/v1/movies/603/similar share a series.
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		m.ObserveRequest(c.Request.Method, endpoint, c.Writer.Status(), time.Since(start))
	}
}

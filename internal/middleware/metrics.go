package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/investorportal/pkg/metrics"
)

// unmatchedRoute labels requests that hit no registered route so probing
// clients cannot grow the latency series without bound.
const unmatchedRoute = "<unmatched>"

// Metrics observes latency per route template and tracks in-flight requests.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		metrics.RequestsInFlight.Inc()
		start := time.Now()
		defer func() {
			metrics.RequestsInFlight.Dec()
			path := c.FullPath()
			if path == "" {
				path = unmatchedRoute
			}
			metrics.APILatency.
				WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).
				Observe(time.Since(start).Seconds())
		}()

		c.Next()
	}
}

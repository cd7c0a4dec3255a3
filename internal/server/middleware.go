package server

import (
	"strconv"

	"github.com/bamahomes/sigiyoro/internal/ratelimit"
	"github.com/bamahomes/sigiyoro/pkg/log"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// rateLimit throttles a public endpoint per client IP. A missing or disabled
// limiter lets everything through.
func (s *Server) rateLimit(endpoint string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.limiter.Enabled() {
			c.Next()
			return
		}

		result, err := s.allow(c, endpoint)
		if err != nil {
			// The limiter failing must not take the endpoint down.
			log.L(c.Request.Context()).Warn("rate limiter unavailable", zap.String("endpoint", endpoint), zap.Error(err))
			c.Next()
			return
		}
		if !result.Allowed {
			s.obsMetrics.RecordRateLimitDenied(endpoint)
			if result.RetryAfter > 0 {
				c.Header("Retry-After", strconv.Itoa(int(result.RetryAfter.Seconds()+1)))
			}
			AbortWithError(c, ErrRateLimited)
			return
		}
		c.Next()
	}
}

func (s *Server) allow(c *gin.Context, endpoint string) (*ratelimit.Result, error) {
	if endpoint == "verify" {
		return s.limiter.AllowVerify(c.Request.Context(), c.ClientIP())
	}
	return s.limiter.AllowIngest(c.Request.Context(), c.ClientIP())
}

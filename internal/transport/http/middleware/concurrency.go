package middleware

import (
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/semaphore"

	resp "catalog-api/internal/transport/http/response"
)

// ConcurrencyLimit 限制同时在处理的请求数（保护 DB 连接池与 bcrypt 的 CPU）。
// 不排队：拿不到名额立即 503，并计入 http_busy_rejections_total。
func ConcurrencyLimit(limit int64) gin.HandlerFunc {
	sem := semaphore.NewWeighted(limit)
	return func(c *gin.Context) {
		if !sem.TryAcquire(1) {
			busyRejections.Inc()
			abort(c, resp.CodeUnavailable, "server busy")
			return
		}
		inFlight.Inc()
		defer func() {
			inFlight.Dec()
			sem.Release(1)
		}()
		c.Next()
	}
}

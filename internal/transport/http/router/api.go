package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"catalog-api/internal/core/auth"
	"catalog-api/internal/core/server"
	"catalog-api/internal/feature/author"
	"catalog-api/internal/feature/book"
	"catalog-api/internal/feature/user"
	"catalog-api/internal/service"
	"catalog-api/internal/transport/http/ez"
	mdw "catalog-api/internal/transport/http/middleware"
)

type Limits struct {
	RPS          float64
	Burst        int
	PerIPRPS     float64
	PerIPBurst   int
	MaxInFlight  int64
	MaxBodyBytes int64
	Timeout      time.Duration
}

func (l Limits) withDefaults() Limits {
	if l.RPS <= 0 {
		l.RPS, l.Burst = 200, 400
	}
	if l.PerIPRPS <= 0 {
		l.PerIPRPS, l.PerIPBurst = 50, 100
	}
	if l.MaxInFlight <= 0 {
		l.MaxInFlight = 300
	}
	if l.MaxBodyBytes <= 0 {
		l.MaxBodyBytes = 1 << 20
	}
	if l.Timeout <= 0 {
		l.Timeout = 10 * time.Second
	}
	return l
}

type Deps struct {
	Log         *zap.Logger
	JWT         *auth.JWTer
	Users       *service.UserService
	Catalog     *service.CatalogService
	Limits      Limits
	CORSOrigins []string
}

func NewAPIEngine(d Deps) *gin.Engine {
	l := d.Log
	if l == nil {
		l = zap.NewNop()
	}
	lim := d.Limits.withDefaults()

	r := server.NewRouter(l, d.CORSOrigins)
	r.Use(
		mdw.RequestID(),
		mdw.RateLimit(rate.Limit(lim.RPS), lim.Burst),
		mdw.RateLimitPerIP(rate.Limit(lim.PerIPRPS), lim.PerIPBurst, 10*time.Minute),
		mdw.ConcurrencyLimit(lim.MaxInFlight),
		mdw.MaxBodyBytes(lim.MaxBodyBytes),
		mdw.Timeout(lim.Timeout),
		mdw.Metrics(),
		mdw.AccessLog(l),
	)

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": 1}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	var reg Registry
	reg.Register(
		user.New(d.Users),
		author.New(d.Catalog),
		book.New(d.Catalog),
	)
	reg.MountAll(ez.New(r.Group("/api/v1"), l, d.JWT))
	return r
}

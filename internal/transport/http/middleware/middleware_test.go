package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/time/rate"

	"catalog-api/internal/core/auth"
)

func init() { gin.SetMode(gin.TestMode) }

func gated(p auth.Policy, j *auth.JWTer) *gin.Engine {
	r := gin.New()
	r.Use(RequestID())
	h := append(Gate(p, j, nil), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"uid": ClaimsFrom(c).UID})
	})
	r.GET("/users/:id", h...)
	return r
}

func get(r http.Handler, path, authz string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestGate_PublicHasNoHandlers(t *testing.T) {
	assert.Empty(t, Gate(auth.Public, nil, nil))
	assert.Len(t, Gate(auth.AdminOnly, auth.NewJWTer("s", "i", 0), nil), 2)
}

func TestGate_AdminOrSelf(t *testing.T) {
	j := auth.NewJWTer("mw-test", "catalog-api", time.Hour)
	r := gated(auth.AdminOrSelf("id"), j)

	self, err := j.Issue("u1", "standard")
	require.NoError(t, err)
	admin, err := j.Issue("a1", "admin")
	require.NoError(t, err)

	tests := []struct {
		name  string
		path  string
		authz string
		want  int
	}{
		{"no header", "/users/u1", "", http.StatusUnauthorized},
		{"wrong scheme", "/users/u1", "Basic " + self, http.StatusUnauthorized},
		{"empty bearer", "/users/u1", "Bearer ", http.StatusUnauthorized},
		{"garbage", "/users/u1", "Bearer x.y.z", http.StatusUnauthorized},
		{"self", "/users/u1", "Bearer " + self, http.StatusOK},
		{"other", "/users/u2", "Bearer " + self, http.StatusForbidden},
		{"admin on other", "/users/u2", "Bearer " + admin, http.StatusOK},
		{"scheme is case-insensitive", "/users/u1", "bearer " + self, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, get(r, tt.path, tt.authz).Code)
		})
	}
}

func TestAuthorize_WithoutAuthenticateIsUnauthorized(t *testing.T) {
	r := gin.New()
	r.GET("/x", Authorize(auth.Authenticated), func(c *gin.Context) { c.Status(http.StatusOK) })
	assert.Equal(t, http.StatusUnauthorized, get(r, "/x", "").Code)
}

func TestRateLimitPerIP(t *testing.T) {
	r := gin.New()
	r.Use(RateLimitPerIP(rate.Every(time.Hour), 2, time.Minute))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, get(r, "/x", "").Code)
	assert.Equal(t, http.StatusOK, get(r, "/x", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, get(r, "/x", "").Code)
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/x", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(KeyRequestID)) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(KeyRequestID, "rid-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "rid-123", w.Body.String())
	assert.Equal(t, "rid-123", w.Header().Get(KeyRequestID))

	w = get(r, "/x", "")
	assert.NotEmpty(t, w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(KeyRequestID, "evil\" injected=1")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.NotEqual(t, "evil\" injected=1", w.Body.String())
	assert.Len(t, w.Body.String(), 36)
}

func TestAccessLog_LevelsAndIdentity(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	j := auth.NewJWTer("mw-test", "catalog-api", time.Hour)

	r := gin.New()
	r.Use(RequestID(), AccessLog(zap.New(core)))
	r.GET("/users/:id", append(Gate(auth.AdminOrSelf("id"), j, nil), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})...)
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	tok, err := j.Issue("u1", "standard")
	require.NoError(t, err)
	get(r, "/users/u1?token=leak&page=2", "Bearer "+tok)
	get(r, "/users/u2", "Bearer "+tok)
	get(r, "/boom", "")

	entries := logs.All()
	require.Len(t, entries, 3)

	ok := entries[0].ContextMap()
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "u1", ok["uid"])
	assert.Equal(t, "standard", ok["role"])
	assert.Equal(t, "/users/:id", ok["path"])
	assert.Equal(t, map[string][]string{"token": {"****"}, "page": {"2"}}, ok["query"])

	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.EqualValues(t, http.StatusForbidden, entries[1].ContextMap()["status"])

	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
	assert.NotContains(t, entries[2].ContextMap(), "uid")
}

func TestConcurrencyLimit_RejectsWhenFull(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})

	r := gin.New()
	r.Use(ConcurrencyLimit(1))
	r.GET("/slow", func(c *gin.Context) {
		close(entered)
		<-release
		c.Status(http.StatusOK)
	})

	done := make(chan int)
	go func() { done <- get(r, "/slow", "").Code }()
	<-entered

	assert.Equal(t, http.StatusServiceUnavailable, get(r, "/slow", "").Code)
	close(release)
	assert.Equal(t, http.StatusOK, <-done)
}

package ez

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog-api/internal/core/auth"
	"catalog-api/internal/domain"
)

type echoIn struct {
	Name string `json:"name" binding:"required,notblank,max=5"`
}

func newEngine(t *testing.T) (*gin.Engine, *auth.JWTer) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	j := auth.NewJWTer("ez-test", "catalog-api", time.Hour)
	e := New(r.Group("/v1"), nil, j)

	RegisterAction(e, Action[echoIn, gin.H]{
		Method: http.MethodPost,
		Path:   "/echo",
		Binder: BindJSON,
		Status: http.StatusCreated,
		Handler: func(c *gin.Context, in *echoIn) (gin.H, error) {
			return gin.H{"name": in.Name}, nil
		},
	})
	RegisterAction(e, Action[struct{}, string]{
		Method: http.MethodGet,
		Path:   "/admin",
		Binder: BindNone,
		Policy: auth.AdminOnly,
		Msg:    "welcome",
		Handler: func(c *gin.Context, _ *struct{}) (string, error) {
			return "ok", nil
		},
	})
	RegisterAction(e, Action[struct{}, string]{
		Method: http.MethodGet,
		Path:   "/missing",
		Binder: BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (string, error) {
			return "", domain.NotFound("thing")
		},
	})
	return r, j
}

func serve(r http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRegisterAction_BindingAndStatus(t *testing.T) {
	r, _ := newEngine(t)

	w := serve(r, http.MethodPost, "/v1/echo", "", `{"name":"ada"}`)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"code":0,"msg":"OK","data":{"name":"ada"}}`, w.Body.String())

	w = serve(r, http.MethodPost, "/v1/echo", "", `{"name":"   "}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"code":400,"msg":"validation failed","data":{"fields":{"name":"must not be blank"}}}`, w.Body.String())

	w = serve(r, http.MethodPost, "/v1/echo", "", `{"name":"too-long"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "must be at most 5 characters")

	w = serve(r, http.MethodPost, "/v1/echo", "", `{`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid request body")
}

func TestRegisterAction_PolicyGate(t *testing.T) {
	r, j := newEngine(t)

	w := serve(r, http.MethodGet, "/v1/admin", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	std, err := j.Issue("u1", domain.RoleStandard)
	require.NoError(t, err)
	w = serve(r, http.MethodGet, "/v1/admin", std, "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	adm, err := j.Issue("u2", domain.RoleAdmin)
	require.NoError(t, err)
	w = serve(r, http.MethodGet, "/v1/admin", adm, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"code":0,"msg":"welcome","data":"ok"}`, w.Body.String())
}

func TestRegisterAction_DomainErrorMapped(t *testing.T) {
	r, _ := newEngine(t)
	w := serve(r, http.MethodGet, "/v1/missing", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"code":404,"msg":"thing not found","data":{}}`, w.Body.String())
}

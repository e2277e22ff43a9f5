package ez

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"catalog-api/internal/core/auth"
	mdw "catalog-api/internal/transport/http/middleware"
	resp "catalog-api/internal/transport/http/response"
)

// EZ 路由分组 + 注册动作时需要的公共依赖
type EZ struct {
	g   *gin.RouterGroup
	log *zap.Logger
	jwt *auth.JWTer
}

func New(g *gin.RouterGroup, l *zap.Logger, jwter *auth.JWTer) EZ {
	if l == nil {
		l = zap.NewNop()
	}
	SetupValidator()
	return EZ{g: g, log: l, jwt: jwter}
}

// 绑定方式
type Binder string

const (
	BindJSON  Binder = "json"  // 从 JSON 绑定
	BindQuery Binder = "query" // 从 URL ?a=b 绑定
	BindNone  Binder = "none"  // 不绑定，自己从 c.Param 取
)

// Action 一个路由 = 方法 + 路径 + 访问策略 + 处理函数。I 入参，O 出参
type Action[I any, O any] struct {
	Method  string
	Path    string
	Binder  Binder
	Policy  auth.Policy // 零值即 Public
	Status  int         // 成功状态码，默认 200
	Msg     string      // 成功提示，默认 "OK"
	Handler func(c *gin.Context, in *I) (O, error)
}

// RegisterAction 注册动作：Gate(认证+授权) → 绑定 → Handler → 统一响应
func RegisterAction[I any, O any](e EZ, a Action[I, O]) {
	h := func(c *gin.Context) {
		var in I
		var err error
		switch a.Binder {
		case BindJSON:
			err = c.ShouldBindJSON(&in)
		case BindQuery:
			err = c.ShouldBindQuery(&in)
		}
		if err != nil {
			e.fail(c, bindError(err))
			return
		}

		out, err := a.Handler(c, &in)
		if err != nil {
			e.fail(c, err)
			return
		}

		status := a.Status
		if status == 0 {
			status = http.StatusOK
		}
		if a.Msg != "" {
			c.JSON(status, resp.Message(a.Msg, out))
			return
		}
		c.JSON(status, resp.OK(out))
	}

	chain := append(mdw.Gate(a.Policy, e.jwt, e.log), h)
	method := strings.ToUpper(a.Method)
	if method == "" {
		method = http.MethodPost
	}
	e.g.Handle(method, a.Path, chain...)
}

func (e EZ) fail(c *gin.Context, err error) {
	ae := FromError(err)
	if ae.Code >= http.StatusInternalServerError {
		e.log.Error("request failed",
			zap.String("rid", c.GetString(mdw.KeyRequestID)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(ae.Err),
		)
	}
	if len(ae.Fields) > 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, resp.Invalid(ae.Msg, ae.Fields))
		return
	}
	c.AbortWithStatusJSON(resp.HTTPStatus(ae.Code), resp.Error(ae.Code, ae.Msg))
}

// Page 列表分页参数；超出范围的值由 service 层收敛
type Page struct {
	Offset int `form:"offset" binding:"omitempty,min=0"`
	Limit  int `form:"limit"  binding:"omitempty,min=0,max=100"`
}

type List[T any] struct {
	Total int64 `json:"total"`
	Items []T   `json:"items"`
}

func NewList[T any](items []T, total int64) List[T] {
	if items == nil {
		items = []T{}
	}
	return List[T]{Total: total, Items: items}
}

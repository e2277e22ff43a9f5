package user

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"catalog-api/internal/core/auth"
	"catalog-api/internal/domain"
	"catalog-api/internal/service"
	"catalog-api/internal/transport/http/ez"
	mdw "catalog-api/internal/transport/http/middleware"
)

// Module 用户注册/登录与账号管理
type Module struct{ svc *service.UserService }

func New(svc *service.UserService) *Module { return &Module{svc: svc} }

func (m *Module) Priority() int { return 10 }

type registerIn struct {
	Email    string `json:"email"    binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,notblank,max=72"`
	Role     string `json:"role"     binding:"omitempty,oneof=admin standard"`
}

// loginIn 不给 password 加 max：超长密码交给 Hasher.Verify 判为不匹配，
// 返回与密码错误相同的 401，避免泄露长度规则
type loginIn struct {
	Email    string `json:"email"    binding:"required"`
	Password string `json:"password" binding:"required"`
}

type listIn struct {
	ez.Page
	Q string `form:"q"`
}

type updateIn struct {
	Email    *string `json:"email"    binding:"omitempty,email,max=255"`
	Password *string `json:"password" binding:"omitempty,notblank,max=72"`
	Role     *string `json:"role"     binding:"omitempty,oneof=admin standard"`
}

type idOut struct {
	ID string `json:"id"`
}

type tokenOut struct {
	Token string `json:"token"`
}

func (m *Module) MountAPI(e ez.EZ) {
	ez.RegisterAction(e, ez.Action[registerIn, idOut]{
		Method: http.MethodPost,
		Path:   "/users/register",
		Binder: ez.BindJSON,
		Policy: auth.Public,
		Status: http.StatusCreated,
		Handler: func(c *gin.Context, in *registerIn) (idOut, error) {
			u, err := m.svc.Register(c.Request.Context(), in.Email, in.Password, in.Role)
			if err != nil {
				return idOut{}, err
			}
			return idOut{ID: u.ID}, nil
		},
	})

	ez.RegisterAction(e, ez.Action[loginIn, tokenOut]{
		Method: http.MethodPost,
		Path:   "/users/login",
		Binder: ez.BindJSON,
		Policy: auth.Public,
		Handler: func(c *gin.Context, in *loginIn) (tokenOut, error) {
			tok, _, err := m.svc.Login(c.Request.Context(), in.Email, in.Password)
			if err != nil {
				return tokenOut{}, err
			}
			return tokenOut{Token: tok}, nil
		},
	})

	ez.RegisterAction(e, ez.Action[struct{}, *domain.User]{
		Method: http.MethodGet,
		Path:   "/users/profile",
		Binder: ez.BindNone,
		Policy: auth.Authenticated,
		Handler: func(c *gin.Context, _ *struct{}) (*domain.User, error) {
			return m.svc.Get(c.Request.Context(), mdw.ClaimsFrom(c).UID)
		},
	})

	ez.RegisterAction(e, ez.Action[listIn, ez.List[domain.User]]{
		Method: http.MethodGet,
		Path:   "/users",
		Binder: ez.BindQuery,
		Policy: auth.AdminOnly,
		Handler: func(c *gin.Context, in *listIn) (ez.List[domain.User], error) {
			users, total, err := m.svc.List(c.Request.Context(), in.Q, in.Offset, in.Limit)
			if err != nil {
				return ez.List[domain.User]{}, err
			}
			return ez.NewList(users, total), nil
		},
	})

	ez.RegisterAction(e, ez.Action[struct{}, *domain.User]{
		Method: http.MethodGet,
		Path:   "/users/:id",
		Binder: ez.BindNone,
		Policy: auth.AdminOrSelf("id"),
		Handler: func(c *gin.Context, _ *struct{}) (*domain.User, error) {
			return m.svc.Get(c.Request.Context(), c.Param("id"))
		},
	})

	ez.RegisterAction(e, ez.Action[updateIn, *domain.User]{
		Method: http.MethodPut,
		Path:   "/users/:id",
		Binder: ez.BindJSON,
		Policy: auth.AdminOrSelf("id"),
		Handler: func(c *gin.Context, in *updateIn) (*domain.User, error) {
			isAdmin := mdw.ClaimsFrom(c).Role == domain.RoleAdmin
			return m.svc.Update(c.Request.Context(), c.Param("id"), service.UserPatch{
				Email:    in.Email,
				Password: in.Password,
				Role:     in.Role,
			}, isAdmin)
		},
	})

	ez.RegisterAction(e, ez.Action[struct{}, idOut]{
		Method: http.MethodDelete,
		Path:   "/users/:id",
		Binder: ez.BindNone,
		Policy: auth.AdminOnly,
		Msg:    "user deleted",
		Handler: func(c *gin.Context, _ *struct{}) (idOut, error) {
			id := c.Param("id")
			if err := m.svc.Delete(c.Request.Context(), id); err != nil {
				return idOut{}, err
			}
			return idOut{ID: id}, nil
		},
	})
}

package author

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"catalog-api/internal/core/auth"
	"catalog-api/internal/domain"
	"catalog-api/internal/service"
	"catalog-api/internal/transport/http/ez"
)

type Module struct{ svc *service.CatalogService }

func New(svc *service.CatalogService) *Module { return &Module{svc: svc} }

func (m *Module) Priority() int { return 20 }

type createIn struct {
	Name      string `json:"name"      binding:"required,notblank,max=255"`
	Biography string `json:"biography" binding:"omitempty,max=10000"`
}

type updateIn struct {
	Name      *string `json:"name"      binding:"omitempty,notblank,max=255"`
	Biography *string `json:"biography" binding:"omitempty,max=10000"`
}

type listIn struct {
	ez.Page
	Q string `form:"q"`
}

type deleteOut struct {
	ID           string `json:"id"`
	BooksDeleted int64  `json:"books_deleted"`
}

func (m *Module) MountAPI(e ez.EZ) {
	ez.RegisterAction(e, ez.Action[listIn, ez.List[domain.Author]]{
		Method: http.MethodGet,
		Path:   "/authors",
		Binder: ez.BindQuery,
		Policy: auth.Authenticated,
		Handler: func(c *gin.Context, in *listIn) (ez.List[domain.Author], error) {
			items, total, err := m.svc.ListAuthors(c.Request.Context(), in.Q, in.Offset, in.Limit)
			if err != nil {
				return ez.List[domain.Author]{}, err
			}
			return ez.NewList(items, total), nil
		},
	})

	ez.RegisterAction(e, ez.Action[createIn, *domain.Author]{
		Method: http.MethodPost,
		Path:   "/authors",
		Binder: ez.BindJSON,
		Policy: auth.Authenticated,
		Status: http.StatusCreated,
		Handler: func(c *gin.Context, in *createIn) (*domain.Author, error) {
			return m.svc.CreateAuthor(c.Request.Context(), in.Name, in.Biography)
		},
	})

	ez.RegisterAction(e, ez.Action[struct{}, *domain.AuthorDetail]{
		Method: http.MethodGet,
		Path:   "/authors/:id",
		Binder: ez.BindNone,
		Policy: auth.Authenticated,
		Handler: func(c *gin.Context, _ *struct{}) (*domain.AuthorDetail, error) {
			return m.svc.GetAuthor(c.Request.Context(), c.Param("id"))
		},
	})

	ez.RegisterAction(e, ez.Action[updateIn, *domain.Author]{
		Method: http.MethodPut,
		Path:   "/authors/:id",
		Binder: ez.BindJSON,
		Policy: auth.Authenticated,
		Handler: func(c *gin.Context, in *updateIn) (*domain.Author, error) {
			return m.svc.UpdateAuthor(c.Request.Context(), c.Param("id"), service.AuthorPatch{
				Name:      in.Name,
				Biography: in.Biography,
			})
		},
	})

	// 删除作者会在同一事务里删掉其全部图书
	ez.RegisterAction(e, ez.Action[struct{}, deleteOut]{
		Method: http.MethodDelete,
		Path:   "/authors/:id",
		Binder: ez.BindNone,
		Policy: auth.Authenticated,
		Msg:    "author and its books deleted",
		Handler: func(c *gin.Context, _ *struct{}) (deleteOut, error) {
			id := c.Param("id")
			n, err := m.svc.DeleteAuthor(c.Request.Context(), id)
			if err != nil {
				return deleteOut{}, err
			}
			return deleteOut{ID: id, BooksDeleted: n}, nil
		},
	})
}

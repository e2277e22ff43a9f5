package book

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

func (m *Module) Priority() int { return 30 }

type createIn struct {
	Title    string `json:"title"     binding:"required,notblank,min=3,max=255"`
	Year     int    `json:"year"      binding:"required,min=1000,max=9999"`
	Genre    string `json:"genre"     binding:"omitempty,max=100"`
	AuthorID string `json:"author_id" binding:"required,notblank"`
}

type updateIn struct {
	Title    *string `json:"title"     binding:"omitempty,notblank,min=3,max=255"`
	Year     *int    `json:"year"      binding:"omitempty,min=1000,max=9999"`
	Genre    *string `json:"genre"     binding:"omitempty,max=100"`
	AuthorID *string `json:"author_id" binding:"omitempty,notblank"`
}

type listIn struct {
	ez.Page
	AuthorID string `form:"author_id"`
	Genre    string `form:"genre"`
}

type idOut struct {
	ID string `json:"id"`
}

func (m *Module) MountAPI(e ez.EZ) {
	ez.RegisterAction(e, ez.Action[listIn, ez.List[domain.Book]]{
		Method: http.MethodGet,
		Path:   "/books",
		Binder: ez.BindQuery,
		Policy: auth.Authenticated,
		Handler: func(c *gin.Context, in *listIn) (ez.List[domain.Book], error) {
			f := domain.BookFilter{AuthorID: in.AuthorID, Genre: in.Genre}
			items, total, err := m.svc.ListBooks(c.Request.Context(), f, in.Offset, in.Limit)
			if err != nil {
				return ez.List[domain.Book]{}, err
			}
			return ez.NewList(items, total), nil
		},
	})

	ez.RegisterAction(e, ez.Action[createIn, *domain.Book]{
		Method: http.MethodPost,
		Path:   "/books",
		Binder: ez.BindJSON,
		Policy: auth.Authenticated,
		Status: http.StatusCreated,
		Handler: func(c *gin.Context, in *createIn) (*domain.Book, error) {
			return m.svc.CreateBook(c.Request.Context(), service.BookInput{
				Title:    in.Title,
				Year:     in.Year,
				Genre:    in.Genre,
				AuthorID: in.AuthorID,
			})
		},
	})

	ez.RegisterAction(e, ez.Action[struct{}, *domain.Book]{
		Method: http.MethodGet,
		Path:   "/books/:id",
		Binder: ez.BindNone,
		Policy: auth.Authenticated,
		Handler: func(c *gin.Context, _ *struct{}) (*domain.Book, error) {
			return m.svc.GetBook(c.Request.Context(), c.Param("id"))
		},
	})

	ez.RegisterAction(e, ez.Action[updateIn, *domain.Book]{
		Method: http.MethodPut,
		Path:   "/books/:id",
		Binder: ez.BindJSON,
		Policy: auth.Authenticated,
		Handler: func(c *gin.Context, in *updateIn) (*domain.Book, error) {
			return m.svc.UpdateBook(c.Request.Context(), c.Param("id"), service.BookPatch{
				Title:    in.Title,
				Year:     in.Year,
				Genre:    in.Genre,
				AuthorID: in.AuthorID,
			})
		},
	})

	ez.RegisterAction(e, ez.Action[struct{}, idOut]{
		Method: http.MethodDelete,
		Path:   "/books/:id",
		Binder: ez.BindNone,
		Policy: auth.Authenticated,
		Msg:    "book deleted",
		Handler: func(c *gin.Context, _ *struct{}) (idOut, error) {
			id := c.Param("id")
			if err := m.svc.DeleteBook(c.Request.Context(), id); err != nil {
				return idOut{}, err
			}
			return idOut{ID: id}, nil
		},
	})
}

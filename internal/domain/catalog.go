package domain

import (
	"context"
	"time"
)

type Author struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Biography string    `gorm:"type:text" json:"biography"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Author) TableName() string { return "authors" }

// AuthorDetail is an author together with every book referencing it.
type AuthorDetail struct {
	Author
	Books []Book `json:"books"`
}

type Book struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	Year      int       `gorm:"not null" json:"year"`
	Genre     string    `gorm:"size:100" json:"genre"`
	AuthorID  string    `gorm:"size:36;not null;index" json:"author_id"`
	Author    *Author   `gorm:"foreignKey:AuthorID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"author,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Book) TableName() string { return "books" }

type BookFilter struct {
	AuthorID string
	Genre    string
}

// AuthorRepository 查不到时返回 (nil, nil)
type AuthorRepository interface {
	Create(ctx context.Context, a *Author) error
	FindByID(ctx context.Context, id string) (*Author, error)
	// FindByIDForUpdate locks the row until the surrounding transaction ends.
	FindByIDForUpdate(ctx context.Context, id string) (*Author, error)
	FindDetail(ctx context.Context, id string) (*AuthorDetail, error)
	List(ctx context.Context, q string, offset, limit int) ([]Author, int64, error)
	Update(ctx context.Context, a *Author) error
	Delete(ctx context.Context, id string) (int64, error)
}

// BookRepository 查不到时返回 (nil, nil)
type BookRepository interface {
	Create(ctx context.Context, b *Book) error
	FindByID(ctx context.Context, id string) (*Book, error)
	List(ctx context.Context, f BookFilter, offset, limit int) ([]Book, int64, error)
	Update(ctx context.Context, b *Book) error
	Delete(ctx context.Context, id string) (int64, error)
	DeleteByAuthor(ctx context.Context, authorID string) (int64, error)
}

// CatalogStore groups the author and book repositories so that both can be
// driven from a single transaction.
type CatalogStore interface {
	Authors() AuthorRepository
	Books() BookRepository
	WithinTx(ctx context.Context, fn func(tx CatalogStore) error) error
}

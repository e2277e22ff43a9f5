package repo

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"catalog-api/internal/domain"
)

// Catalog implements domain.CatalogStore on top of one *gorm.DB, which is
// either the pool or an open transaction.
type Catalog struct{ db *gorm.DB }

func NewCatalog(db *gorm.DB) *Catalog { return &Catalog{db: db} }

var _ domain.CatalogStore = (*Catalog)(nil)

func (c *Catalog) Authors() domain.AuthorRepository { return &AuthorRepo{db: c.db} }
func (c *Catalog) Books() domain.BookRepository     { return &BookRepo{db: c.db} }

// WithinTx runs fn in a single transaction; any error returned by fn rolls
// back every write made through tx.
func (c *Catalog) WithinTx(ctx context.Context, fn func(tx domain.CatalogStore) error) error {
	return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Catalog{db: tx})
	})
}

/* ---------- authors ---------- */

type AuthorRepo struct{ db *gorm.DB }

func (r *AuthorRepo) Create(ctx context.Context, a *domain.Author) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(a).Error)
}

func (r *AuthorRepo) FindByID(ctx context.Context, id string) (*domain.Author, error) {
	return r.first(r.db.WithContext(ctx), id)
}

func (r *AuthorRepo) FindByIDForUpdate(ctx context.Context, id string) (*domain.Author, error) {
	return r.first(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *AuthorRepo) FindDetail(ctx context.Context, id string) (*domain.AuthorDetail, error) {
	a, err := r.FindByID(ctx, id)
	if err != nil || a == nil {
		return nil, err
	}
	books := []domain.Book{}
	if err := r.db.WithContext(ctx).Where("author_id = ?", id).Order("year").Order("title").Find(&books).Error; err != nil {
		return nil, err
	}
	return &domain.AuthorDetail{Author: *a, Books: books}, nil
}

func (r *AuthorRepo) first(q *gorm.DB, id string) (*domain.Author, error) {
	var a domain.Author
	err := q.First(&a, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AuthorRepo) List(ctx context.Context, q string, offset, limit int) ([]domain.Author, int64, error) {
	tx := r.db.WithContext(ctx).Model(&domain.Author{})
	if s := strings.TrimSpace(q); s != "" {
		tx = tx.Where("name LIKE ?", "%"+s+"%")
	}
	tx = tx.Session(&gorm.Session{}) // count 与分页查询各自克隆 Statement
	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	items := make([]domain.Author, 0, limit)
	if err := tx.Order("name").Order("id").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *AuthorRepo) Update(ctx context.Context, a *domain.Author) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Save(a).Error)
}

func (r *AuthorRepo) Delete(ctx context.Context, id string) (int64, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Author{})
	return res.RowsAffected, res.Error
}

/* ---------- books ---------- */

type BookRepo struct{ db *gorm.DB }

func (r *BookRepo) Create(ctx context.Context, b *domain.Book) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(b).Error)
}

func (r *BookRepo) FindByID(ctx context.Context, id string) (*domain.Book, error) {
	var b domain.Book
	err := r.db.WithContext(ctx).Preload("Author").First(&b, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BookRepo) List(ctx context.Context, f domain.BookFilter, offset, limit int) ([]domain.Book, int64, error) {
	tx := r.db.WithContext(ctx).Model(&domain.Book{})
	if f.AuthorID != "" {
		tx = tx.Where("author_id = ?", f.AuthorID)
	}
	if f.Genre != "" {
		tx = tx.Where("genre = ?", f.Genre)
	}
	tx = tx.Session(&gorm.Session{}) // count 与分页查询各自克隆 Statement
	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	items := make([]domain.Book, 0, limit)
	if err := tx.Preload("Author").Order("title").Order("id").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *BookRepo) Update(ctx context.Context, b *domain.Book) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Save(b).Error)
}

func (r *BookRepo) Delete(ctx context.Context, id string) (int64, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Book{})
	return res.RowsAffected, res.Error
}

func (r *BookRepo) DeleteByAuthor(ctx context.Context, authorID string) (int64, error) {
	res := r.db.WithContext(ctx).Where("author_id = ?", authorID).Delete(&domain.Book{})
	return res.RowsAffected, res.Error
}

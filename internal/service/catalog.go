package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"catalog-api/internal/core/cache"
	"catalog-api/internal/domain"
	"catalog-api/pkg/utils"
)

const authorCacheTTL = 5 * time.Minute

type CatalogService struct {
	store domain.CatalogStore
	cache *cache.Cache // 可为 nil：不走缓存
	log   *zap.Logger
}

func NewCatalogService(store domain.CatalogStore, c *cache.Cache, l *zap.Logger) *CatalogService {
	if l == nil {
		l = zap.NewNop()
	}
	return &CatalogService{store: store, cache: c, log: l}
}

type AuthorPatch struct {
	Name      *string
	Biography *string
}

type BookInput struct {
	Title    string
	Year     int
	Genre    string
	AuthorID string
}

type BookPatch struct {
	Title    *string
	Year     *int
	Genre    *string
	AuthorID *string
}

func authorKey(id string) string { return "catalog:author:" + id }

/* ---------- authors ---------- */

func (s *CatalogService) CreateAuthor(ctx context.Context, name, biography string) (*domain.Author, error) {
	a := &domain.Author{ID: utils.NewID(), Name: strings.TrimSpace(name), Biography: biography}
	if err := validateAuthor(a); err != nil {
		return nil, err
	}
	if err := s.store.Authors().Create(ctx, a); err != nil {
		return nil, fmt.Errorf("create author: %w", err)
	}
	return a, nil
}

// GetAuthor 返回作者及其全部图书；配置了 redis 时走读穿缓存
func (s *CatalogService) GetAuthor(ctx context.Context, id string) (*domain.AuthorDetail, error) {
	load := func(ctx context.Context) (*domain.AuthorDetail, error) {
		d, err := s.store.Authors().FindDetail(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("find author: %w", err)
		}
		if d == nil {
			return nil, domain.NotFound("author")
		}
		return d, nil
	}
	if s.cache == nil {
		return load(ctx)
	}
	return cache.GetOrLoadJSON(s.cache, ctx, authorKey(id), authorCacheTTL, load)
}

func (s *CatalogService) ListAuthors(ctx context.Context, q string, offset, limit int) ([]domain.Author, int64, error) {
	offset, limit = page(offset, limit)
	items, total, err := s.store.Authors().List(ctx, q, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list authors: %w", err)
	}
	return items, total, nil
}

func (s *CatalogService) UpdateAuthor(ctx context.Context, id string, p AuthorPatch) (*domain.Author, error) {
	a, err := s.store.Authors().FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find author: %w", err)
	}
	if a == nil {
		return nil, domain.NotFound("author")
	}
	if p.Name != nil {
		a.Name = strings.TrimSpace(*p.Name)
	}
	if p.Biography != nil {
		a.Biography = *p.Biography
	}
	if err := validateAuthor(a); err != nil {
		return nil, err
	}
	if err := s.store.Authors().Update(ctx, a); err != nil {
		return nil, fmt.Errorf("update author: %w", err)
	}
	s.invalidate(ctx, a.ID)
	return a, nil
}

// DeleteAuthor 先删该作者的全部图书，再删作者本身；两步同处一个事务，
// 任一步失败整体回滚，不会留下悬空的 author_id。返回删除的图书数。
func (s *CatalogService) DeleteAuthor(ctx context.Context, id string) (int64, error) {
	var removed int64
	err := s.store.WithinTx(ctx, func(tx domain.CatalogStore) error {
		a, err := tx.Authors().FindByIDForUpdate(ctx, id)
		if err != nil {
			return fmt.Errorf("find author: %w", err)
		}
		if a == nil {
			return domain.NotFound("author")
		}
		n, err := tx.Books().DeleteByAuthor(ctx, id)
		if err != nil {
			return fmt.Errorf("delete books of author: %w", err)
		}
		deleted, err := tx.Authors().Delete(ctx, id)
		if err != nil {
			return fmt.Errorf("delete author: %w", err)
		}
		if deleted != 1 {
			return fmt.Errorf("delete author: %d rows affected", deleted)
		}
		removed = n
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.invalidate(ctx, id)
	return removed, nil
}

/* ---------- books ---------- */

func (s *CatalogService) CreateBook(ctx context.Context, in BookInput) (*domain.Book, error) {
	b := &domain.Book{
		ID:       utils.NewID(),
		Title:    strings.TrimSpace(in.Title),
		Year:     in.Year,
		Genre:    strings.TrimSpace(in.Genre),
		AuthorID: in.AuthorID,
	}
	if err := validateBook(b); err != nil {
		return nil, err
	}
	author, err := s.requireAuthor(ctx, b.AuthorID)
	if err != nil {
		return nil, err
	}
	if err := s.store.Books().Create(ctx, b); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NotFound("author")
		}
		return nil, fmt.Errorf("create book: %w", err)
	}
	b.Author = author
	s.invalidate(ctx, b.AuthorID)
	return b, nil
}

func (s *CatalogService) GetBook(ctx context.Context, id string) (*domain.Book, error) {
	b, err := s.store.Books().FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find book: %w", err)
	}
	if b == nil {
		return nil, domain.NotFound("book")
	}
	return b, nil
}

func (s *CatalogService) ListBooks(ctx context.Context, f domain.BookFilter, offset, limit int) ([]domain.Book, int64, error) {
	offset, limit = page(offset, limit)
	items, total, err := s.store.Books().List(ctx, f, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list books: %w", err)
	}
	return items, total, nil
}

func (s *CatalogService) UpdateBook(ctx context.Context, id string, p BookPatch) (*domain.Book, error) {
	b, err := s.GetBook(ctx, id)
	if err != nil {
		return nil, err
	}
	prevAuthor := b.AuthorID
	if p.Title != nil {
		b.Title = strings.TrimSpace(*p.Title)
	}
	if p.Year != nil {
		b.Year = *p.Year
	}
	if p.Genre != nil {
		b.Genre = strings.TrimSpace(*p.Genre)
	}
	if p.AuthorID != nil {
		b.AuthorID = *p.AuthorID
	}
	if err := validateBook(b); err != nil {
		return nil, err
	}
	if b.AuthorID != prevAuthor {
		author, err := s.requireAuthor(ctx, b.AuthorID)
		if err != nil {
			return nil, err
		}
		b.Author = author
	}
	if err := s.store.Books().Update(ctx, b); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NotFound("author")
		}
		return nil, fmt.Errorf("update book: %w", err)
	}
	s.invalidate(ctx, prevAuthor, b.AuthorID)
	return b, nil
}

func (s *CatalogService) DeleteBook(ctx context.Context, id string) error {
	b, err := s.GetBook(ctx, id)
	if err != nil {
		return err
	}
	n, err := s.store.Books().Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	if n == 0 {
		return domain.NotFound("book")
	}
	s.invalidate(ctx, b.AuthorID)
	return nil
}

func (s *CatalogService) requireAuthor(ctx context.Context, id string) (*domain.Author, error) {
	a, err := s.store.Authors().FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find author: %w", err)
	}
	if a == nil {
		return nil, domain.NotFound("author")
	}
	return a, nil
}

func (s *CatalogService) invalidate(ctx context.Context, authorIDs ...string) {
	if s.cache == nil {
		return
	}
	keys := make([]string, 0, len(authorIDs))
	for _, id := range authorIDs {
		keys = append(keys, authorKey(id))
	}
	if err := s.cache.Invalidate(ctx, keys...); err != nil {
		s.log.Warn("author cache invalidation failed", zap.Strings("keys", keys), zap.Error(err))
	}
}

func validateAuthor(a *domain.Author) error {
	n := utf8.RuneCountInString(a.Name)
	if n == 0 {
		return domain.E(domain.ErrInvalidInput, "name must not be empty")
	}
	if n > 255 {
		return domain.E(domain.ErrInvalidInput, "name must be at most 255 characters")
	}
	return nil
}

func validateBook(b *domain.Book) error {
	if n := utf8.RuneCountInString(b.Title); n < 3 || n > 255 {
		return domain.E(domain.ErrInvalidInput, "title must be between 3 and 255 characters")
	}
	if b.Year < 1000 || b.Year > 9999 {
		return domain.E(domain.ErrInvalidInput, "year must be between 1000 and 9999")
	}
	if utf8.RuneCountInString(b.Genre) > 100 {
		return domain.E(domain.ErrInvalidInput, "genre must be at most 100 characters")
	}
	if strings.TrimSpace(b.AuthorID) == "" {
		return domain.E(domain.ErrInvalidInput, "author_id is required")
	}
	return nil
}

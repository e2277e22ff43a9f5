package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"catalog-api/internal/core/auth"
	"catalog-api/internal/domain"
	"catalog-api/pkg/utils"
)

type UserService struct {
	users  domain.UserRepository
	hasher *auth.Hasher
	tokens *auth.JWTer

	dummyOnce sync.Once
	dummyHash string
}

func NewUserService(users domain.UserRepository, hasher *auth.Hasher, tokens *auth.JWTer) *UserService {
	return &UserService{users: users, hasher: hasher, tokens: tokens}
}

type UserPatch struct {
	Email    *string
	Password *string
	Role     *string
}

func normalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// HTTP 层已做完整格式校验，这里只挡住 CLI/seed 进来的明显脏数据
func plausibleEmail(s string) bool {
	at := strings.LastIndexByte(s, '@')
	return at > 0 && at < len(s)-1 && !strings.ContainsAny(s, " \t\r\n")
}

// Register 创建用户；密码在写入边界显式派生，明文不落库
func (s *UserService) Register(ctx context.Context, email, password, role string) (*domain.User, error) {
	email = normalizeEmail(email)
	if !plausibleEmail(email) {
		return nil, domain.E(domain.ErrInvalidInput, "a valid email is required")
	}
	if role == "" {
		role = domain.RoleStandard
	}
	if !domain.IsValidRole(role) {
		return nil, domain.E(domain.ErrInvalidInput, "unknown role")
	}

	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	if existing != nil {
		return nil, domain.E(domain.ErrConflict, "email already in use")
	}

	hash, err := s.derive(password)
	if err != nil {
		return nil, err
	}
	u := &domain.User{ID: utils.NewID(), Email: email, PasswordHash: hash, Role: role}
	if err := s.users.Create(ctx, u); err != nil {
		// 并发注册同一邮箱：唯一索引兜底
		if errors.Is(err, domain.ErrConflict) {
			return nil, domain.E(domain.ErrConflict, "email already in use")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// Login 邮箱不存在与密码错误返回同一个错误
func (s *UserService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	u, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return "", nil, fmt.Errorf("find user by email: %w", err)
	}
	if u == nil {
		// 仍然跑一次 bcrypt，让“邮箱不存在”与“密码错误”耗时一致
		s.hasher.Verify(password, s.dummy())
		return "", nil, domain.ErrInvalidCredentials
	}
	if !s.hasher.Verify(password, u.PasswordHash) {
		return "", nil, domain.ErrInvalidCredentials
	}
	tok, err := s.tokens.Issue(u.ID, u.Role)
	if err != nil {
		return "", nil, fmt.Errorf("issue token: %w", err)
	}
	return tok, u, nil
}

func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if u == nil {
		return nil, domain.NotFound("user")
	}
	return u, nil
}

func (s *UserService) List(ctx context.Context, q string, offset, limit int) ([]domain.User, int64, error) {
	offset, limit = page(offset, limit)
	users, total, err := s.users.List(ctx, q, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	return users, total, nil
}

// Update 只有管理员可以修改角色；密码仅在提供新值时重新派生
func (s *UserService) Update(ctx context.Context, id string, p UserPatch, actorIsAdmin bool) (*domain.User, error) {
	if p.Role != nil && !actorIsAdmin {
		return nil, domain.E(domain.ErrForbidden, "only administrators can change roles")
	}
	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if p.Email != nil {
		email := normalizeEmail(*p.Email)
		if !plausibleEmail(email) {
			return nil, domain.E(domain.ErrInvalidInput, "a valid email is required")
		}
		if email != u.Email {
			other, err := s.users.FindByEmail(ctx, email)
			if err != nil {
				return nil, fmt.Errorf("find user by email: %w", err)
			}
			if other != nil {
				return nil, domain.E(domain.ErrConflict, "email already in use")
			}
			u.Email = email
		}
	}
	if p.Password != nil {
		hash, err := s.derive(*p.Password)
		if err != nil {
			return nil, err
		}
		u.PasswordHash = hash
	}
	if p.Role != nil {
		if !domain.IsValidRole(*p.Role) {
			return nil, domain.E(domain.ErrInvalidInput, "unknown role")
		}
		u.Role = *p.Role
	}

	if err := s.users.Update(ctx, u); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, domain.E(domain.ErrConflict, "email already in use")
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	return u, nil
}

func (s *UserService) Delete(ctx context.Context, id string) error {
	n, err := s.users.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if n == 0 {
		return domain.NotFound("user")
	}
	return nil
}

func (s *UserService) derive(password string) (string, error) {
	hash, err := s.hasher.Derive(password)
	switch {
	case errors.Is(err, auth.ErrEmptySecret), errors.Is(err, auth.ErrSecretTooLong):
		return "", domain.E(domain.ErrInvalidInput, err.Error())
	case err != nil:
		return "", fmt.Errorf("derive credential: %w", err)
	}
	return hash, nil
}

func (s *UserService) dummy() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.hasher.Derive("timing-equalizer")
	})
	return s.dummyHash
}

// page 规范分页参数：limit 默认 20，上限 100
func page(offset, limit int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return offset, limit
}

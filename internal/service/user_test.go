package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"catalog-api/internal/core/auth"
	"catalog-api/internal/domain"
	"catalog-api/internal/repo"
)

func newUserService(t *testing.T) (*UserService, *auth.JWTer) {
	t.Helper()
	j := auth.NewJWTer("test-secret", "catalog-api", time.Hour)
	return NewUserService(repo.NewUserRepo(openDB(t)), auth.NewHasher(bcrypt.MinCost), j), j
}

func TestRegister(t *testing.T) {
	s, _ := newUserService(t)
	ctx := context.Background()

	u, err := s.Register(ctx, " User@Example.com ", "pw1", "")
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", u.Email)
	assert.Equal(t, domain.RoleStandard, u.Role)
	assert.NotEqual(t, "pw1", u.PasswordHash)
	assert.NotEmpty(t, u.ID)

	_, err = s.Register(ctx, "user@example.com", "other", "")
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.EqualError(t, err, "email already in use")

	_, err = s.Register(ctx, "x@example.com", "", "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = s.Register(ctx, "y@example.com", "pw", "root")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	admin, err := s.Register(ctx, "admin@example.com", "pw2", domain.RoleAdmin)
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin())
}

func TestLogin(t *testing.T) {
	s, j := newUserService(t)
	ctx := context.Background()
	u, err := s.Register(ctx, "user@example.com", "pw1", "")
	require.NoError(t, err)

	tok, got, err := s.Login(ctx, "USER@example.com", "pw1")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	c, err := j.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, u.ID, c.UID)
	assert.Equal(t, domain.RoleStandard, c.Role)

	_, _, errWrongPw := s.Login(ctx, "user@example.com", "nope")
	_, _, errUnknown := s.Login(ctx, "ghost@example.com", "pw1")
	assert.ErrorIs(t, errWrongPw, domain.ErrInvalidCredentials)
	assert.ErrorIs(t, errUnknown, domain.ErrInvalidCredentials)
	assert.Equal(t, errWrongPw.Error(), errUnknown.Error())
}

func TestLogin_PrefixOfLongPasswordIsNotEnough(t *testing.T) {
	s, _ := newUserService(t)
	ctx := context.Background()
	pw := strings.Repeat("a", 72)
	_, err := s.Register(ctx, "long@example.com", pw, "")
	require.NoError(t, err)

	_, _, err = s.Login(ctx, "long@example.com", pw)
	require.NoError(t, err)

	tok, _, err := s.Login(ctx, "long@example.com", pw+"-NOT-THE-PASSWORD")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	assert.Empty(t, tok)

	_, err = s.Register(ctx, "longer@example.com", pw+"b", "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestUpdate(t *testing.T) {
	s, _ := newUserService(t)
	ctx := context.Background()
	u, err := s.Register(ctx, "user@example.com", "pw1", "")
	require.NoError(t, err)
	_, err = s.Register(ctx, "taken@example.com", "pw", "")
	require.NoError(t, err)
	oldHash := u.PasswordHash

	role := domain.RoleAdmin
	_, err = s.Update(ctx, u.ID, UserPatch{Role: &role}, false)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	taken := "taken@example.com"
	_, err = s.Update(ctx, u.ID, UserPatch{Email: &taken}, false)
	assert.ErrorIs(t, err, domain.ErrConflict)

	email := "renamed@example.com"
	got, err := s.Update(ctx, u.ID, UserPatch{Email: &email}, false)
	require.NoError(t, err)
	assert.Equal(t, email, got.Email)
	assert.Equal(t, oldHash, got.PasswordHash, "hash untouched when password not supplied")

	pw := "new-secret"
	got, err = s.Update(ctx, u.ID, UserPatch{Password: &pw}, false)
	require.NoError(t, err)
	assert.NotEqual(t, oldHash, got.PasswordHash)
	_, _, err = s.Login(ctx, email, "pw1")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	_, _, err = s.Login(ctx, email, pw)
	assert.NoError(t, err)

	got, err = s.Update(ctx, u.ID, UserPatch{Role: &role}, true)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, got.Role)

	_, err = s.Update(ctx, "missing", UserPatch{Email: &email}, true)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteAndList(t *testing.T) {
	s, _ := newUserService(t)
	ctx := context.Background()
	u, err := s.Register(ctx, "user@example.com", "pw1", "")
	require.NoError(t, err)
	_, err = s.Register(ctx, "admin@example.com", "pw2", domain.RoleAdmin)
	require.NoError(t, err)

	users, total, err := s.List(ctx, "", -5, 1000)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, users, 2)

	require.NoError(t, s.Delete(ctx, u.ID))
	assert.ErrorIs(t, s.Delete(ctx, u.ID), domain.ErrNotFound)
	_, err = s.Get(ctx, u.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSeedUsers(t *testing.T) {
	s, _ := newUserService(t)
	ctx := context.Background()
	_, err := s.Register(ctx, "existing@example.com", "pw", "")
	require.NoError(t, err)

	file := `
users:
  - email: root@example.com
    password: s3cret
    role: admin
  - email: existing@example.com
    password: whatever
  - email: reader@example.com
    password: r3ader
`
	res, err := s.SeedUsers(ctx, strings.NewReader(file))
	require.NoError(t, err)
	assert.Equal(t, SeedResult{Created: 2, Skipped: 1}, res)

	_, root, err := s.Login(ctx, "root@example.com", "s3cret")
	require.NoError(t, err)
	assert.True(t, root.IsAdmin())

	_, err = s.SeedUsers(ctx, strings.NewReader("users:\n  - email: bad@example.com\n    password: pw\n    role: owner\n"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = s.SeedUsers(ctx, strings.NewReader("users: [unclosed"))
	assert.Error(t, err)
}

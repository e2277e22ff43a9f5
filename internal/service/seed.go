package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"catalog-api/internal/domain"
)

type seedFile struct {
	Users []struct {
		Email    string `yaml:"email"`
		Password string `yaml:"password"`
		Role     string `yaml:"role"`
	} `yaml:"users"`
}

type SeedResult struct {
	Created int
	Skipped int
}

// SeedUsers 从 yaml 批量建账号；邮箱已存在的跳过，其余错误立即返回
func (s *UserService) SeedUsers(ctx context.Context, r io.Reader) (SeedResult, error) {
	var res SeedResult
	var f seedFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return res, fmt.Errorf("decode seed file: %w", err)
	}
	for i, u := range f.Users {
		_, err := s.Register(ctx, u.Email, u.Password, u.Role)
		switch {
		case err == nil:
			res.Created++
		case errors.Is(err, domain.ErrConflict):
			res.Skipped++
		default:
			return res, fmt.Errorf("seed user #%d (%s): %w", i+1, u.Email, err)
		}
	}
	return res, nil
}

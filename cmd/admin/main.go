// Command admin 运维用命令行：迁移表结构、创建管理员、批量导入账号
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/term"
	"gorm.io/gorm"

	"catalog-api/internal/core/auth"
	"catalog-api/internal/core/config"
	"catalog-api/internal/core/database"
	"catalog-api/internal/core/logger"
	"catalog-api/internal/domain"
	"catalog-api/internal/repo"
	"catalog-api/internal/service"
)

// readPassword 便于在非终端环境替换
var readPassword = term.ReadPassword

const usage = `usage: admin <command> [flags]

commands:
  migrate                         create or update tables
  create-admin -email <addr>      create an administrator (password prompted)
  seed -file users.yaml           create users listed in a yaml file
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	_ = godotenv.Load()
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log, cleanup := logger.New(cfg.Log.Level, cfg.Log.JSON)
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := run(ctx, cfg, log, os.Args[1], os.Args[2:]); err != nil {
		log.Error("admin command failed", zap.String("cmd", os.Args[1]), zap.Error(err))
		cleanup()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger, cmd string, args []string) error {
	switch cmd {
	case "migrate":
		db, err := openDB(cfg, log)
		if err != nil {
			return err
		}
		defer closeDB(db)
		if err := database.Migrate(db); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		log.Info("migrate done")
		return nil

	case "create-admin":
		fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
		email := fs.String("email", "", "administrator email")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if *email == "" {
			return errors.New("-email is required")
		}
		pw, err := promptPassword(os.Stdout)
		if err != nil {
			return err
		}
		svc, closeFn, err := userService(cfg, log)
		if err != nil {
			return err
		}
		defer closeFn()
		u, err := svc.Register(ctx, *email, pw, domain.RoleAdmin)
		if err != nil {
			return err
		}
		log.Info("administrator created", zap.String("id", u.ID), zap.String("email", u.Email))
		return nil

	case "seed":
		fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
		file := fs.String("file", "users.yaml", "seed file")
		if err := fs.Parse(args); err != nil {
			return err
		}
		f, err := os.Open(*file)
		if err != nil {
			return err
		}
		defer f.Close()
		svc, closeFn, err := userService(cfg, log)
		if err != nil {
			return err
		}
		defer closeFn()
		res, err := svc.SeedUsers(ctx, f)
		if err != nil {
			return err
		}
		log.Info("seed done", zap.String("file", *file), zap.Int("created", res.Created), zap.Int("skipped", res.Skipped))
		return nil

	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// openDB 测试里可替换，用来拿到底层连接池
var openDB = func(cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	return database.NewGorm(database.Opts{
		Driver:             cfg.DB.Driver,
		DSN:                cfg.DB.DSN,
		Username:           cfg.DB.Username,
		Password:           cfg.DB.Password,
		MaxOpenConns:       cfg.DB.MaxOpenConns,
		MaxIdleConns:       cfg.DB.MaxIdleConns,
		ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
		LogLevel:           cfg.DB.LogLevel,
		Log:                log,
	})
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// userService 返回的 close 负责释放连接池
func userService(cfg *config.Config, log *zap.Logger) (*service.UserService, func(), error) {
	db, err := openDB(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	if err := database.Migrate(db); err != nil {
		closeDB(db)
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}
	jwter := auth.NewJWTer(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.TTL())
	svc := service.NewUserService(repo.NewUserRepo(db), auth.NewHasher(cfg.Auth.BcryptCost), jwter)
	return svc, func() { closeDB(db) }, nil
}

// promptPassword 终端下不回显读两次；管道输入时读一行
func promptPassword(w io.Writer) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", err
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	fmt.Fprint(w, "Password: ")
	first, err := readPassword(fd)
	fmt.Fprintln(w)
	if err != nil {
		return "", err
	}
	fmt.Fprint(w, "Repeat password: ")
	second, err := readPassword(fd)
	fmt.Fprintln(w)
	if err != nil {
		return "", err
	}
	if string(first) != string(second) {
		return "", errors.New("passwords do not match")
	}
	return string(first), nil
}

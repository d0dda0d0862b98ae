package app

import (
	"context"
	"fmt"

	"github.com/bitfantasy/ips-logistics/internal/config"
	"github.com/bitfantasy/ips-logistics/internal/logistics/repository"
	"github.com/bitfantasy/ips-logistics/internal/logistics/service"
	"github.com/bitfantasy/ips-logistics/internal/logistics/sse"
	"github.com/bitfantasy/ips-logistics/internal/shared/mailer"
	"github.com/bitfantasy/ips-logistics/internal/shared/security"
	"github.com/bitfantasy/ips-logistics/internal/shared/storage"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// App 进程级依赖
type App struct {
	DB       *gorm.DB
	Redis    *redis.Client
	Hub      *sse.Hub
	Services *service.Services
	Logger   *zap.Logger
}

// New 组装服务。未配置 Redis 时令牌存在进程内存，未配置 MinIO 时不归档导入文件，
// 未配置 SMTP 时邮件只写日志。
func New(ctx context.Context, cfg *config.Config, db *gorm.DB, logger *zap.Logger) (*App, error) {
	a := &App{DB: db, Hub: sse.NewHub(logger), Logger: logger}

	var store security.TokenStore
	if cfg.Redis.Host != "" {
		a.Redis = redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		if err := a.Redis.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		store = security.NewRedisTokenStore(a.Redis)
	} else {
		logger.Warn("Redis not configured, refresh and reset tokens are kept in memory")
		store = security.NewMemoryTokenStore()
	}

	if cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}
	tokens := security.NewTokenManager(security.TokenOptions{
		Secret:        cfg.JWT.Secret,
		Issuer:        cfg.JWT.Issuer,
		AccessExpire:  cfg.JWT.AccessTokenExpire,
		RefreshExpire: cfg.JWT.RefreshTokenExpire,
		ResetExpire:   cfg.JWT.ResetTokenExpire,
	}, store)

	var m mailer.Mailer
	if cfg.Mail.Host != "" {
		m = mailer.NewSMTPMailer(mailer.SMTPConfig{
			Host:     cfg.Mail.Host,
			Port:     cfg.Mail.Port,
			User:     cfg.Mail.User,
			Password: cfg.Mail.Password,
			From:     cfg.Mail.From,
		})
	} else {
		m = mailer.NewLogMailer(logger)
	}

	deps := service.Dependencies{
		Hasher:   security.NewBcryptHasher(cfg.Security.BcryptCost),
		Tokens:   tokens,
		Mailer:   m,
		Hub:      a.Hub,
		Logger:   logger,
		ResetURL: cfg.Mail.ResetURL,
	}
	if cfg.MinIO.Endpoint != "" {
		archive, err := storage.NewArchive(ctx, storage.Options{
			Endpoint:  cfg.MinIO.Endpoint,
			AccessKey: cfg.MinIO.AccessKey,
			SecretKey: cfg.MinIO.SecretKey,
			Bucket:    cfg.MinIO.Bucket,
			UseSSL:    cfg.MinIO.UseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to init object storage: %w", err)
		}
		deps.Archive = archive
	}

	a.Services = service.NewServices(repository.NewRepositories(db), deps)
	return a, nil
}

// Close 释放外部连接
func (a *App) Close() {
	if a.Redis != nil {
		a.Redis.Close()
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		sqlDB.Close()
	}
}

package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/bitfantasy/ips-logistics/internal/logistics/entity"
	"github.com/bitfantasy/ips-logistics/internal/logistics/repository"
	"github.com/bitfantasy/ips-logistics/internal/shared/security"
)

// Authenticator 校验凭证，失败返回 ErrInvalidCredentials
type Authenticator interface {
	Authenticate(ctx context.Context, mail, password string) (*entity.User, error)
}

// PasswordAuthenticator 基于本地用户表和密码哈希的凭证校验
type PasswordAuthenticator struct {
	users  *repository.UserRepository
	hasher security.PasswordHasher
}

func NewPasswordAuthenticator(users *repository.UserRepository, hasher security.PasswordHasher) *PasswordAuthenticator {
	return &PasswordAuthenticator{users: users, hasher: hasher}
}

func (a *PasswordAuthenticator) Authenticate(ctx context.Context, mail, password string) (*entity.User, error) {
	mail = normalizeMail(mail)
	if mail == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	user, err := a.users.FindByMail(ctx, mail)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if err := a.hasher.Compare(user.Password, password); err != nil {
		if errors.Is(err, security.ErrPasswordMismatch) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	return user, nil
}

// AuthService 登录与令牌刷新
type AuthService struct {
	authenticator Authenticator
	tokens        *security.TokenManager
	users         *repository.UserRepository
}

func NewAuthService(authenticator Authenticator, tokens *security.TokenManager, users *repository.UserRepository) *AuthService {
	return &AuthService{authenticator: authenticator, tokens: tokens, users: users}
}

// LoginResult 登录结果
type LoginResult struct {
	*security.TokenPair
	Role string       `json:"role"`
	User *entity.User `json:"user"`
}

// Login 凭证正确返回令牌，否则返回 ErrInvalidCredentials
func (s *AuthService) Login(ctx context.Context, mail, password string) (*LoginResult, error) {
	user, err := s.authenticator.Authenticate(ctx, mail, password)
	if err != nil {
		return nil, err
	}
	return s.issue(ctx, user)
}

// Refresh 使用刷新令牌换取新的令牌对，旧刷新令牌作废
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*LoginResult, error) {
	userID, err := s.tokens.ConsumeRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, security.ErrInvalidToken) {
			return nil, &Error{kind: ErrInvalidCredentials, msg: "刷新令牌无效或已过期"}
		}
		return nil, fmt.Errorf("consume refresh token: %w", err)
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &Error{kind: ErrInvalidCredentials, msg: "用户不存在"}
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return s.issue(ctx, user)
}

// Me 当前登录用户
func (s *AuthService) Me(ctx context.Context, userID string) (*entity.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, lookupErr(err, "用户 %s 不存在", userID)
	}
	return user, nil
}

func (s *AuthService) issue(ctx context.Context, user *entity.User) (*LoginResult, error) {
	pair, err := s.tokens.IssuePair(ctx, security.Subject{
		UserID: user.ID,
		Name:   user.Name,
		Email:  user.MailAddress(),
		Role:   user.Role,
	})
	if err != nil {
		return nil, err
	}
	return &LoginResult{TokenPair: pair, Role: user.Role, User: user}, nil
}

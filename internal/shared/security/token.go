package security

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

const (
	tokenTypeRefresh = "refresh"
	tokenTypeReset   = "reset"

	refreshKeyPrefix = "token:refresh:"
	resetKeyPrefix   = "token:reset:"
)

// Subject 签发 token 的用户信息
type Subject struct {
	UserID string
	Name   string
	Email  string
	Role   string
}

// TokenPair 访问令牌与刷新令牌
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

type TokenOptions struct {
	Secret        string
	Issuer        string
	AccessExpire  time.Duration
	RefreshExpire time.Duration
	ResetExpire   time.Duration
}

// TokenManager HS256 令牌签发与校验
type TokenManager struct {
	opts  TokenOptions
	store TokenStore
}

func NewTokenManager(opts TokenOptions, store TokenStore) *TokenManager {
	return &TokenManager{opts: opts, store: store}
}

// ResetExpire 重置令牌有效期
func (m *TokenManager) ResetExpire() time.Duration {
	return m.opts.ResetExpire
}

// IssuePair 签发访问令牌和刷新令牌，刷新令牌 jti 写入 store
func (m *TokenManager) IssuePair(ctx context.Context, sub Subject) (*TokenPair, error) {
	now := time.Now()

	accessClaims := jwt.MapClaims{
		"sub":   sub.UserID,
		"uid":   sub.UserID,
		"name":  sub.Name,
		"email": sub.Email,
		"roles": []string{sub.Role},
		"iss":   m.opts.Issuer,
		"iat":   now.Unix(),
		"exp":   now.Add(m.opts.AccessExpire).Unix(),
		"jti":   uuid.New().String(),
	}
	accessToken, err := m.sign(accessClaims)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	refreshJti := uuid.New().String()
	refreshClaims := jwt.MapClaims{
		"sub":  sub.UserID,
		"type": tokenTypeRefresh,
		"iss":  m.opts.Issuer,
		"iat":  now.Unix(),
		"exp":  now.Add(m.opts.RefreshExpire).Unix(),
		"jti":  refreshJti,
	}
	refreshToken, err := m.sign(refreshClaims)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}

	if err := m.store.Save(ctx, refreshKeyPrefix+refreshJti, sub.UserID, m.opts.RefreshExpire); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(m.opts.AccessExpire.Seconds()),
	}, nil
}

// ConsumeRefreshToken 校验刷新令牌并作废，返回用户ID
func (m *TokenManager) ConsumeRefreshToken(ctx context.Context, token string) (string, error) {
	return m.consume(ctx, token, tokenTypeRefresh, refreshKeyPrefix)
}

// IssueResetToken 签发一次性重置密码令牌
func (m *TokenManager) IssueResetToken(ctx context.Context, userID string) (string, error) {
	now := time.Now()
	jti := uuid.New().String()
	claims := jwt.MapClaims{
		"sub":  userID,
		"type": tokenTypeReset,
		"iss":  m.opts.Issuer,
		"iat":  now.Unix(),
		"exp":  now.Add(m.opts.ResetExpire).Unix(),
		"jti":  jti,
	}
	token, err := m.sign(claims)
	if err != nil {
		return "", fmt.Errorf("sign reset token: %w", err)
	}
	if err := m.store.Save(ctx, resetKeyPrefix+jti, userID, m.opts.ResetExpire); err != nil {
		return "", fmt.Errorf("store reset token: %w", err)
	}
	return token, nil
}

// ConsumeResetToken 校验重置令牌并作废，返回用户ID
func (m *TokenManager) ConsumeResetToken(ctx context.Context, token string) (string, error) {
	return m.consume(ctx, token, tokenTypeReset, resetKeyPrefix)
}

func (m *TokenManager) consume(ctx context.Context, tokenString, tokenType, prefix string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		return []byte(m.opts.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", ErrInvalidToken
	}
	if claims["type"] != tokenType {
		return "", fmt.Errorf("%w: unexpected token type", ErrInvalidToken)
	}
	jti, ok := claims["jti"].(string)
	if !ok || jti == "" {
		return "", fmt.Errorf("%w: missing jti", ErrInvalidToken)
	}

	userID, err := m.store.Take(ctx, prefix+jti)
	if err != nil {
		if errors.Is(err, ErrTokenNotFound) {
			return "", fmt.Errorf("%w: token already used or expired", ErrInvalidToken)
		}
		return "", err
	}
	return userID, nil
}

func (m *TokenManager) sign(claims jwt.MapClaims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(m.opts.Secret))
}

package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/bitfantasy/ips-logistics/internal/logistics/repository"
	"github.com/bitfantasy/ips-logistics/internal/shared/security"
)

// ResetRequestedMessage 无论邮箱是否存在都返回同样的提示
const ResetRequestedMessage = "If the email exists, a reset link has been sent."

// PasswordResetService 忘记密码与重置
type PasswordResetService struct {
	users    *repository.UserRepository
	hasher   security.PasswordHasher
	tokens   *security.TokenManager
	mail     *mailDispatcher
	resetURL string
}

func NewPasswordResetService(users *repository.UserRepository, hasher security.PasswordHasher, tokens *security.TokenManager, mail *mailDispatcher, resetURL string) *PasswordResetService {
	return &PasswordResetService{users: users, hasher: hasher, tokens: tokens, mail: mail, resetURL: resetURL}
}

// ForgotPassword 邮箱存在时签发一次性重置令牌并异步发送链接
func (s *PasswordResetService) ForgotPassword(ctx context.Context, mail string) (string, error) {
	mail = normalizeMail(mail)
	if mail == "" {
		return "", validationf("邮箱不能为空")
	}

	user, err := s.users.FindByMail(ctx, mail)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ResetRequestedMessage, nil
		}
		return "", fmt.Errorf("find user: %w", err)
	}

	token, err := s.tokens.IssueResetToken(ctx, user.ID)
	if err != nil {
		return "", err
	}

	s.mail.dispatch(mail, "Password reset",
		fmt.Sprintf("Hello %s,\n\nuse the link below to reset your password. It expires in %s.\n\n%s\n",
			user.Name, humanDuration(s.tokens.ResetExpire()), s.resetLink(token)))
	return ResetRequestedMessage, nil
}

// ResetPassword 校验并作废重置令牌，更新密码
func (s *PasswordResetService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if newPassword == "" {
		return validationf("新密码不能为空")
	}
	userID, err := s.tokens.ConsumeResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, security.ErrInvalidToken) {
			return validationf("重置链接无效或已过期")
		}
		return fmt.Errorf("consume reset token: %w", err)
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return lookupErr(err, "用户 %s 不存在", userID)
	}
	hashed, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	user.Password = hashed
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

func (s *PasswordResetService) resetLink(token string) string {
	if s.resetURL == "" {
		return token
	}
	return s.resetURL + "?token=" + url.QueryEscape(token)
}

// humanDuration 邮件里的有效期文案
func humanDuration(d time.Duration) string {
	switch {
	case d >= time.Hour && d%time.Hour == 0:
		return plural(int(d/time.Hour), "hour")
	case d >= time.Minute:
		return plural(int(d.Round(time.Minute)/time.Minute), "minute")
	default:
		return plural(int(d.Round(time.Second)/time.Second), "second")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

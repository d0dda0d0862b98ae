package service

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/bitfantasy/ips-logistics/internal/logistics/entity"
	"github.com/bitfantasy/ips-logistics/internal/logistics/repository"
	"github.com/bitfantasy/ips-logistics/internal/logistics/testutil"
	"github.com/bitfantasy/ips-logistics/internal/shared/security"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func TestRegisterHashesPasswordAndSendsWelcome(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()

	u, err := env.svc.User.Register(ctx, RegisterReq{
		Name:     "Alice",
		Mail:     " Alice@Example.com ",
		Phone:    "123",
		Password: "p@ss",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", u.MailAddress())
	assert.Equal(t, entity.RoleWorker, u.Role)
	assert.NotEqual(t, "p@ss", u.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.Password), []byte("p@ss")))

	mail := env.mailer.wait(t)
	assert.Equal(t, "alice@example.com", mail.to)
	assert.Contains(t, mail.body, "Alice")

	_, err = env.svc.User.Register(ctx, RegisterReq{Name: "Alice 2", Mail: "ALICE@example.com", Password: "x"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.svc.User.Register(ctx, RegisterReq{Name: " ", Password: "x"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestRegisterAllRollsBackOnFailure(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()

	_, err := env.svc.User.RegisterAll(ctx, []RegisterReq{
		{Name: "Bob", Mail: "bob@example.com", Password: "x", Role: "driver"},
		{Name: "Bob Again", Mail: "bob@example.com", Password: "y"},
	})
	assert.ErrorIs(t, err, ErrValidation)

	users, err := env.svc.User.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)
	env.mailer.assertNone(t)

	created, err := env.svc.User.RegisterAll(ctx, []RegisterReq{
		{Name: "Bob", Mail: "bob@example.com", Password: "x", Role: "DRIVER"},
		{Name: "Carol", Password: "y", Role: "head"},
	})
	require.NoError(t, err)
	require.Len(t, created, 2)
	assert.Equal(t, entity.RoleDriver, created[0].Role)
	assert.Nil(t, created[1].Mail)
}

func TestUpdateUserAppliesOnlyProvidedFields(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()

	testutil.SeedUser(t, env.db, "u1", "Dave", "dave@example.com", entity.RoleWorker)
	testutil.SeedUser(t, env.db, "u2", "Erin", "erin@example.com", entity.RoleWorker)

	updated, err := env.svc.User.Update(ctx, "u1", UpdateUserReq{Phone: "555"})
	require.NoError(t, err)
	assert.Equal(t, "Dave", updated.Name)
	assert.Equal(t, "555", updated.Phone)
	assert.Equal(t, "dave@example.com", updated.MailAddress())
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(updated.Password), []byte("secret")))

	updated, err = env.svc.User.Update(ctx, "u1", UpdateUserReq{Password: "changed", Role: "Driver"})
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(updated.Password), []byte("changed")))
	assert.Equal(t, entity.RoleDriver, updated.Role)

	_, err = env.svc.User.Update(ctx, "u1", UpdateUserReq{Mail: "erin@example.com"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.svc.User.Update(ctx, "missing", UpdateUserReq{Name: "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteAndListDrivers(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()

	testutil.SeedUser(t, env.db, "d1", "Frank", "", "Driver")
	testutil.SeedUser(t, env.db, "d2", "Gina", "", entity.RoleDriver)
	testutil.SeedUser(t, env.db, "w1", "Hank", "", entity.RoleWorker)

	drivers, err := env.svc.User.ListDrivers(ctx)
	require.NoError(t, err)
	assert.Len(t, drivers, 2)

	require.NoError(t, env.svc.User.Delete(ctx, "d1"))
	assert.ErrorIs(t, env.svc.User.Delete(ctx, "d1"), ErrNotFound)

	_, err = env.svc.User.Get(ctx, "d1")
	assert.ErrorIs(t, err, ErrNotFound)

	drivers, err = env.svc.User.ListDrivers(ctx)
	require.NoError(t, err)
	assert.Len(t, drivers, 1)
}

func TestLoginAndRefresh(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()

	testutil.SeedUser(t, env.db, "h1", "Ivy", "ivy@example.com", entity.RoleHead)

	_, err := env.svc.Auth.Login(ctx, "ivy@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = env.svc.Auth.Login(ctx, "nobody@example.com", "secret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = env.svc.Auth.Login(ctx, "", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	result, err := env.svc.Auth.Login(ctx, "IVY@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, entity.RoleHead, result.Role)
	assert.NotEmpty(t, result.AccessToken)
	assert.NotEmpty(t, result.RefreshToken)
	assert.Equal(t, "h1", result.User.ID)

	refreshed, err := env.svc.Auth.Refresh(ctx, result.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, result.RefreshToken, refreshed.RefreshToken)

	// 刷新令牌只能使用一次
	_, err = env.svc.Auth.Refresh(ctx, result.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = env.svc.Auth.Refresh(ctx, result.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	me, err := env.svc.Auth.Me(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, "Ivy", me.Name)
}

func TestPasswordResetFlow(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()

	testutil.SeedUser(t, env.db, "u1", "Jack", "jack@example.com", entity.RoleWorker)

	msg, err := env.svc.PasswordReset.ForgotPassword(ctx, "unknown@example.com")
	require.NoError(t, err)
	assert.Equal(t, ResetRequestedMessage, msg)
	env.mailer.assertNone(t)

	msg, err = env.svc.PasswordReset.ForgotPassword(ctx, "Jack@example.com")
	require.NoError(t, err)
	assert.Equal(t, ResetRequestedMessage, msg)

	mail := env.mailer.wait(t)
	assert.Equal(t, "jack@example.com", mail.to)
	assert.Contains(t, mail.body, "It expires in 15 minutes.")
	idx := strings.Index(mail.body, "https://ips.example.com/reset?token=")
	require.GreaterOrEqual(t, idx, 0)
	link := strings.TrimSpace(mail.body[idx:])
	parsed, err := url.Parse(link)
	require.NoError(t, err)
	token := parsed.Query().Get("token")
	require.NotEmpty(t, token)

	require.NoError(t, env.svc.PasswordReset.ResetPassword(ctx, token, "brand-new"))
	assert.ErrorIs(t, env.svc.PasswordReset.ResetPassword(ctx, token, "again"), ErrValidation)

	_, err = env.svc.Auth.Login(ctx, "jack@example.com", "secret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = env.svc.Auth.Login(ctx, "jack@example.com", "brand-new")
	assert.NoError(t, err)

	assert.ErrorIs(t, env.svc.PasswordReset.ResetPassword(ctx, "garbage", "x"), ErrValidation)
}

func TestPasswordResetMailUsesConfiguredExpiry(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	testutil.SeedUser(t, env.db, "u1", "Jack", "jack@example.com", entity.RoleWorker)

	tokens := security.NewTokenManager(security.TokenOptions{
		Secret:      testutil.JWTSecret,
		ResetExpire: 2 * time.Hour,
	}, security.NewMemoryTokenStore())
	svc := NewPasswordResetService(repository.NewRepositories(env.db).User, security.NewBcryptHasher(bcrypt.MinCost),
		tokens, &mailDispatcher{mailer: env.mailer, logger: zap.NewNop()}, "")

	_, err := svc.ForgotPassword(ctx, "jack@example.com")
	require.NoError(t, err)
	mail := env.mailer.wait(t)
	assert.Contains(t, mail.body, "It expires in 2 hours.")
	assert.NotContains(t, mail.body, "15 minutes")
}

func TestHumanDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{15 * time.Minute, "15 minutes"},
		{time.Minute, "1 minute"},
		{time.Hour, "1 hour"},
		{24 * time.Hour, "24 hours"},
		{90 * time.Minute, "90 minutes"},
		{30 * time.Second, "30 seconds"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, humanDuration(tt.in), tt.in.String())
	}
}

package app

import (
	"context"
	"testing"

	"github.com/bitfantasy/ips-logistics/internal/config"
	"github.com/bitfantasy/ips-logistics/internal/logistics/service"
	"github.com/bitfantasy/ips-logistics/internal/logistics/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig() *config.Config {
	return &config.Config{
		JWT:      config.JWTConfig{Secret: "s", Issuer: "ips"},
		Security: config.SecurityConfig{BcryptCost: 4},
	}
}

func TestNewWithoutExternalServices(t *testing.T) {
	db := testutil.SetupTestDB(t)
	a, err := New(context.Background(), testConfig(), db, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, a.Redis)
	require.NotNil(t, a.Services)

	u, err := a.Services.User.Register(context.Background(), service.RegisterReq{Name: "Ops", Password: "pw", Role: "dev"})
	require.NoError(t, err)
	assert.Equal(t, "dev", u.Role)
}

func TestNewRequiresJWTSecret(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testConfig()
	cfg.JWT.Secret = ""
	_, err := New(context.Background(), cfg, db, zap.NewNop())
	assert.Error(t, err)
}

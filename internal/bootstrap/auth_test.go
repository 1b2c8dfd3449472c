package bootstrap

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NHSDigital/eps-prescription-tracker-ui-sub002/config"
	apperrors "github.com/NHSDigital/eps-prescription-tracker-ui-sub002/internal/errors"
)

func testAppConfig() config.AppConfig {
	return config.AppConfig{
		Auth: config.CIS2Config{
			Issuer:           "https://idp.example",
			ClientID:         "tracker-ui",
			TokenEndpoint:    "https://idp.example/token",
			JWKSEndpoint:     "https://idp.example/jwks",
			UserInfoEndpoint: "https://idp.example/userinfo",
			ProviderTag:      "cis2",
		},
	}
}

func TestBuildAuthCore(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	core, err := BuildAuthCore(testAppConfig(), nil, logger)
	require.NoError(t, err)
	assert.NotNil(t, core.Auth)
	assert.NotNil(t, core.Arbiter)
}

func TestBuildAuthCore_MissingIssuer(t *testing.T) {
	cfg := testAppConfig()
	cfg.Auth.Issuer = ""

	_, err := BuildAuthCore(cfg, nil, nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsConfiguration(err))
}

func TestBuildAuthCore_InvalidPrivateKey(t *testing.T) {
	cfg := testAppConfig()
	cfg.Auth.PrivateKey = "not a pem block"
	cfg.Auth.KeyID = "key-1"

	_, err := BuildAuthCore(cfg, nil, nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsConfiguration(err))
}

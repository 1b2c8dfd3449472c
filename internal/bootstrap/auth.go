package bootstrap

import (
	"log/slog"

	goredis "github.com/redis/go-redis/v9"

	"github.com/NHSDigital/eps-prescription-tracker-ui-sub002/config"
	"github.com/NHSDigital/eps-prescription-tracker-ui-sub002/internal/adapters/oidc"
	redisadapter "github.com/NHSDigital/eps-prescription-tracker-ui-sub002/internal/adapters/redis"
	apperrors "github.com/NHSDigital/eps-prescription-tracker-ui-sub002/internal/errors"
	"github.com/NHSDigital/eps-prescription-tracker-ui-sub002/internal/ports"
	"github.com/NHSDigital/eps-prescription-tracker-ui-sub002/internal/service"
)

// AuthCore bundles the constructed services the HTTP surface needs.
type AuthCore struct {
	Auth    *service.AuthService
	Arbiter *service.SessionArbiter
}

// BuildAuthCore constructs the provider and store adapters and wires the
// token exchange and session arbitration services on top of them.
func BuildAuthCore(cfg config.AppConfig, client goredis.UniversalClient, logger *slog.Logger) (*AuthCore, error) {
	provider, err := oidc.NewProvider(oidc.ProviderConfig{
		Issuer:           cfg.Auth.Issuer,
		ClientID:         cfg.Auth.ClientID,
		TokenEndpoint:    cfg.Auth.TokenEndpoint,
		JWKSEndpoint:     cfg.Auth.JWKSEndpoint,
		UserInfoEndpoint: cfg.Auth.UserInfoEndpoint,
	})
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeConfiguration, "build identity provider")
	}

	var signer ports.AssertionSigner
	if cfg.Auth.UsesSignedAssertion() {
		s, signErr := oidc.NewAssertionSigner(oidc.AssertionSignerConfig{
			ClientID:      cfg.Auth.ClientID,
			KeyID:         cfg.Auth.KeyID,
			PrivateKeyPEM: []byte(cfg.Auth.PrivateKey),
		})
		if signErr != nil {
			return nil, apperrors.Wrap(signErr, apperrors.ErrCodeConfiguration, "build assertion signer")
		}
		signer = s
	}

	sessions := redisadapter.NewSessionStoreWithTTL(client, cfg.Redis.RecordTTL)

	return &AuthCore{
		Auth: service.NewAuthService(service.AuthServiceOptions{
			Provider:        provider,
			Sessions:        sessions,
			Signer:          signer,
			Logger:          logger,
			ProviderTag:     cfg.Auth.ProviderTag,
			TokenEndpoint:   cfg.Auth.TokenEndpoint,
			FreshnessWindow: cfg.Session.FreshnessWindow,
		}),
		Arbiter: service.NewSessionArbiter(service.SessionArbiterOptions{
			Sessions: sessions,
			Logger:   logger,
		}),
	}, nil
}

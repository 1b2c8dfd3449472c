package config

import (
	apperrors "github.com/NHSDigital/eps-prescription-tracker-ui-sub002/internal/errors"
)

// CIS2Config contains the CIS2 identity provider configuration.
// All endpoints are taken from the environment rather than OIDC discovery so
// the deployment pins exactly which hosts the service talks to.
type CIS2Config struct {
	Issuer           string `env:"ISSUER"`
	ClientID         string `env:"CLIENT_ID"`
	TokenEndpoint    string `env:"TOKEN_ENDPOINT"`
	JWKSEndpoint     string `env:"JWKS_ENDPOINT"`
	UserInfoEndpoint string `env:"USERINFO_ENDPOINT"`

	// PrivateKey is the PEM-encoded RSA key for private_key_jwt client
	// authentication. When empty the token request body is forwarded
	// unchanged and the client supplies its own secret.
	PrivateKey string `env:"PRIVATE_KEY"`

	// KeyID is the kid header for signed client assertions. Required when
	// PrivateKey is set.
	KeyID string `env:"KEY_ID"`

	// ProviderTag prefixes the subject claim to form store usernames.
	ProviderTag string `env:"PROVIDER_TAG" envDefault:"cis2"`
}

// UsesSignedAssertion reports whether token requests are rewritten to use
// private_key_jwt client authentication.
func (c CIS2Config) UsesSignedAssertion() bool {
	return c.PrivateKey != ""
}

// Validate checks that every value the provider adapter needs is present.
func (c CIS2Config) Validate() error {
	required := map[string]string{
		"CIS2_ISSUER":            c.Issuer,
		"CIS2_CLIENT_ID":         c.ClientID,
		"CIS2_TOKEN_ENDPOINT":    c.TokenEndpoint,
		"CIS2_JWKS_ENDPOINT":     c.JWKSEndpoint,
		"CIS2_USERINFO_ENDPOINT": c.UserInfoEndpoint,
	}
	for name, value := range required {
		if value == "" {
			return apperrors.Configurationf("missing required environment variable %s", name)
		}
	}
	if c.UsesSignedAssertion() && c.KeyID == "" {
		return apperrors.Configuration("CIS2_KEY_ID is required when CIS2_PRIVATE_KEY is set")
	}
	return nil
}

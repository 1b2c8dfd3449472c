package oidc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"

	domainauth "github.com/NHSDigital/eps-prescription-tracker-ui-sub002/internal/domain/auth"
	"github.com/NHSDigital/eps-prescription-tracker-ui-sub002/internal/ports"
)

// maxUpstreamBodyBytes bounds how much of a provider response is buffered.
const maxUpstreamBodyBytes = 1 << 20

// Provider implements ports.IdentityProvider against a CIS2-shaped OIDC
// provider with explicitly configured endpoints (no discovery fetch).
type Provider struct {
	tokenEndpoint    string
	userInfoEndpoint string
	httpClient       *http.Client
	requestTimeout   time.Duration

	verifier *gooidc.IDTokenVerifier
}

// ProviderConfig holds configuration for the identity provider adapter.
type ProviderConfig struct {
	Issuer           string
	ClientID         string
	TokenEndpoint    string
	JWKSEndpoint     string
	UserInfoEndpoint string
	// RequestTimeout bounds each outbound provider call. Defaults to 10s.
	RequestTimeout time.Duration
	// HTTPClient is optional and defaults to a client with a 30s timeout.
	HTTPClient *http.Client
}

// NewProvider constructs the adapter and its remote-JWKS verifier. The key
// set is fetched lazily and cached by kid, so construction does no I/O.
func NewProvider(cfg ProviderConfig) (*Provider, error) {
	if cfg.Issuer == "" {
		return nil, errors.New("issuer is required")
	}
	if cfg.ClientID == "" {
		return nil, errors.New("client ID is required")
	}
	if cfg.TokenEndpoint == "" {
		return nil, errors.New("token endpoint is required")
	}
	if cfg.JWKSEndpoint == "" {
		return nil, errors.New("JWKS endpoint is required")
	}
	if cfg.UserInfoEndpoint == "" {
		return nil, errors.New("userinfo endpoint is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	ctx := gooidc.ClientContext(context.Background(), httpClient)
	keySet := gooidc.NewRemoteKeySet(ctx, cfg.JWKSEndpoint)
	verifier := gooidc.NewVerifier(cfg.Issuer, keySet, &gooidc.Config{
		ClientID:             cfg.ClientID,
		SupportedSigningAlgs: []string{gooidc.RS256, gooidc.RS512},
	})

	return &Provider{
		tokenEndpoint:    cfg.TokenEndpoint,
		userInfoEndpoint: cfg.UserInfoEndpoint,
		httpClient:       httpClient,
		requestTimeout:   timeout,
		verifier:         verifier,
	}, nil
}

// ForwardTokenRequest POSTs the form body to the token endpoint and returns
// the upstream response whatever its status. Only transport-level faults are
// errors; a non-2xx reply is the caller's to interpret.
func (p *Provider) ForwardTokenRequest(ctx context.Context, body url.Values) (ports.UpstreamResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, p.requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.tokenEndpoint, strings.NewReader(body.Encode()))
	if err != nil {
		return ports.UpstreamResponse{}, fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return ports.UpstreamResponse{}, fmt.Errorf("post token request: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxUpstreamBodyBytes))
	if err != nil {
		return ports.UpstreamResponse{}, fmt.Errorf("read token response: %w", err)
	}

	return ports.UpstreamResponse{
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
		Body:       payload,
	}, nil
}

// VerifyIDToken verifies signature, issuer, audience, and expiry against the
// provider's published keys and decodes the claims this core needs.
func (p *Provider) VerifyIDToken(ctx context.Context, rawIDToken string) (ports.IDTokenClaims, error) {
	if rawIDToken == "" {
		return ports.IDTokenClaims{}, errors.New("id token is empty")
	}

	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return ports.IDTokenClaims{}, fmt.Errorf("verify id token: %w", err)
	}

	var claims struct {
		SelectedRoleID string `json:"selected_roleid"`
	}
	if claimsErr := idToken.Claims(&claims); claimsErr != nil {
		return ports.IDTokenClaims{}, fmt.Errorf("decode id token claims: %w", claimsErr)
	}

	return ports.IDTokenClaims{
		Subject:        idToken.Subject,
		SelectedRoleID: claims.SelectedRoleID,
	}, nil
}

// FetchUserInfo retrieves the userinfo payload with the access token and maps
// it to domain shape.
func (p *Provider) FetchUserInfo(ctx context.Context, accessToken string) (domainauth.UserClaims, error) {
	if accessToken == "" {
		return domainauth.UserClaims{}, errors.New("access token is empty")
	}

	ctx, cancel := context.WithTimeout(ctx, p.requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoEndpoint, nil)
	if err != nil {
		return domainauth.UserClaims{}, fmt.Errorf("build userinfo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return domainauth.UserClaims{}, fmt.Errorf("get userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return domainauth.UserClaims{}, fmt.Errorf("userinfo endpoint returned status %d", resp.StatusCode)
	}

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxUpstreamBodyBytes))
	if err != nil {
		return domainauth.UserClaims{}, fmt.Errorf("read userinfo response: %w", err)
	}

	return decodeUserInfo(payload)
}

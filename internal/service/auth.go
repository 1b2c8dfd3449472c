package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/url"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	domainauth "github.com/NHSDigital/eps-prescription-tracker-ui-sub002/internal/domain/auth"
	"github.com/NHSDigital/eps-prescription-tracker-ui-sub002/internal/domain/rbac"
	apperrors "github.com/NHSDigital/eps-prescription-tracker-ui-sub002/internal/errors"
	"github.com/NHSDigital/eps-prescription-tracker-ui-sub002/internal/ports"
)

const (
	clientAssertionType = "urn:ietf:params:oauth:client-assertion-type:jwt-bearer"

	// A canonical session younger than this is considered live, and a new
	// login for the same user is parked for explicit arbitration instead of
	// silently replacing it.
	defaultFreshnessWindow = 15 * time.Minute
)

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	Provider ports.IdentityProvider
	Sessions ports.SessionStore
	Logger   *slog.Logger

	// Signer is optional. When set, the proxied token request is rewritten to
	// use private_key_jwt client authentication; when nil the request body is
	// forwarded as the client sent it (shared-secret mode).
	Signer ports.AssertionSigner

	// ProviderTag prefixes the identity provider subject to form the store
	// username, e.g. "cis2" yields "cis2_9449304130".
	ProviderTag string

	// TokenEndpoint is the audience claim for signed client assertions.
	TokenEndpoint string

	// FreshnessWindow overrides the default live-session window.
	FreshnessWindow time.Duration

	// Now overrides the clock. Tests only.
	Now func() time.Time
}

// AuthService proxies the OIDC token exchange and establishes session records.
type AuthService struct {
	provider  ports.IdentityProvider
	sessions  ports.SessionStore
	signer    ports.AssertionSigner
	log       *slog.Logger
	tag       string
	audience  string
	freshness time.Duration
	now       func() time.Time
}

// NewAuthService constructs a new AuthService.
func NewAuthService(opts AuthServiceOptions) *AuthService {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.FreshnessWindow <= 0 {
		opts.FreshnessWindow = defaultFreshnessWindow
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &AuthService{
		provider:  opts.Provider,
		sessions:  opts.Sessions,
		signer:    opts.Signer,
		log:       opts.Logger,
		tag:       opts.ProviderTag,
		audience:  opts.TokenEndpoint,
		freshness: opts.FreshnessWindow,
		now:       opts.Now,
	}
}

// ExchangeResult carries the verbatim upstream token response plus the session
// bookkeeping the exchange produced. Upstream is always populated when the
// identity provider answered, even with a non-2xx status, so the transport
// layer can relay it unchanged.
type ExchangeResult struct {
	Upstream  ports.UpstreamResponse
	Username  string
	SessionID string

	// PendingArbitration is true when a live session already existed for the
	// user and the new record was parked in the session-management table.
	PendingArbitration bool
}

type tokenResponse struct {
	AccessToken string      `json:"access_token"`
	IDToken     string      `json:"id_token"`
	ExpiresIn   json.Number `json:"expires_in"`
}

// ExchangeToken proxies a token request body to the identity provider,
// verifies the returned ID token, classifies the user's roles from the
// userinfo endpoint and persists a session record. rawBody is the
// x-www-form-urlencoded body exactly as the client sent it.
func (s *AuthService) ExchangeToken(ctx context.Context, rawBody string) (*ExchangeResult, error) {
	values, err := url.ParseQuery(rawBody)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeValidation, "parse token request body")
	}

	if s.signer != nil {
		assertion, signErr := s.signer.Sign(s.audience)
		if signErr != nil {
			return nil, apperrors.Wrap(signErr, apperrors.ErrCodeConfiguration, "sign client assertion")
		}
		values.Del("client_secret")
		values.Set("client_assertion_type", clientAssertionType)
		values.Set("client_assertion", assertion)
	}

	upstream, err := s.provider.ForwardTokenRequest(ctx, values)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeUpstreamAuth, "forward token request")
	}
	if upstream.StatusCode < 200 || upstream.StatusCode > 299 {
		return &ExchangeResult{Upstream: upstream},
			apperrors.UpstreamAuth(upstream.StatusCode, "token endpoint rejected request")
	}

	var tok tokenResponse
	if err := json.Unmarshal(upstream.Body, &tok); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeUpstreamAuth, "decode token response")
	}
	if tok.AccessToken == "" || tok.IDToken == "" {
		return nil, apperrors.UpstreamAuth(0, "token response missing access_token or id_token")
	}

	// The signature check and the userinfo fetch only need the tokens, so
	// both provider round trips run concurrently.
	var (
		idClaims   ports.IDTokenClaims
		userClaims domainauth.UserClaims
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		claims, verifyErr := s.provider.VerifyIDToken(gctx, tok.IDToken)
		if verifyErr != nil {
			return apperrors.Wrap(verifyErr, apperrors.ErrCodeUpstreamAuth, "verify id token")
		}
		idClaims = claims
		return nil
	})
	g.Go(func() error {
		claims, infoErr := s.provider.FetchUserInfo(gctx, tok.AccessToken)
		if infoErr != nil {
			return apperrors.Wrap(infoErr, apperrors.ErrCodeUpstreamAuth, "fetch userinfo")
		}
		userClaims = claims
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if idClaims.Subject == "" {
		return nil, apperrors.UpstreamAuth(0, "id token missing subject")
	}
	username := s.tag + "_" + idClaims.Subject

	selectedRoleID := idClaims.SelectedRoleID
	if selectedRoleID == "" {
		selectedRoleID = userClaims.SelectedRoleID
	}

	_, acceptedActivities := rbac.AcceptedCodes()
	info := rbac.Classify(userClaims.Roles, selectedRoleID, acceptedActivities)
	info.UserDetails = domainauth.UserDetails{
		FamilyName: userClaims.FamilyName,
		GivenName:  userClaims.GivenName,
	}

	now := s.now()
	record := domainauth.SessionRecord{
		Username:         username,
		SessionID:        uuid.NewString(),
		CIS2AccessToken:  tok.AccessToken,
		CIS2IDToken:      tok.IDToken,
		CIS2ExpiresIn:    tok.ExpiresIn.String(),
		LastActivityTime: now.UnixMilli(),
		UserInfo:         info,
	}

	table := ports.TableTokenMapping
	pending := false
	existing, err := s.sessions.Get(ctx, ports.TableTokenMapping, username)
	switch {
	case err == nil:
		if existing.FreshWithin(s.freshness, now) {
			table = ports.TableSessionManagement
			pending = true
		}
	case errors.Is(err, ports.ErrNotFound):
		// first login, no arbitration needed
	default:
		return nil, apperrors.Wrap(err, apperrors.ErrCodeStore, "read token mapping")
	}

	if err := s.sessions.Put(ctx, table, record); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeStore, "persist session record")
	}

	s.log.Info("token exchange complete",
		"username", username,
		"pending_arbitration", pending)

	return &ExchangeResult{
		Upstream:           upstream,
		Username:           username,
		SessionID:          record.SessionID,
		PendingArbitration: pending,
	}, nil
}

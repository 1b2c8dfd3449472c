package ports

// Package ports defines interfaces (hexagonal ports) for auth-related behavior.
// Implementations live in internal/adapters; orchestration in internal/service.

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	domainauth "github.com/NHSDigital/eps-prescription-tracker-ui-sub002/internal/domain/auth"
)

// Table identifies one of the two logical session tables.
type Table string

const (
	// TableTokenMapping holds the canonical record for an active session.
	TableTokenMapping Table = "token-mapping"
	// TableSessionManagement holds records pending arbitration after a
	// concurrent login was detected.
	TableSessionManagement Table = "session-management"
)

// ErrNotFound is returned when no record exists for a username.
var ErrNotFound = errors.New("session record not found")

// ErrOwnershipConflict is returned by conditional writes when the stored
// session id no longer matches the expected one.
var ErrOwnershipConflict = errors.New("session ownership changed")

// SessionStore persists and retrieves per-username session records.
// Operations are idempotent at the record level and never retried here;
// retries, if any, are the caller's responsibility.
type SessionStore interface {
	Get(ctx context.Context, table Table, username string) (domainauth.SessionRecord, error)
	Put(ctx context.Context, table Table, record domainauth.SessionRecord) error

	// PutIfSessionID writes the record only while the stored record's
	// session id still equals expectedSessionID (or no record exists when
	// expectedSessionID is empty). Returns ErrOwnershipConflict otherwise.
	PutIfSessionID(ctx context.Context, table Table, record domainauth.SessionRecord, expectedSessionID string) error

	Delete(ctx context.Context, table Table, username string) error
}

// AssertionSigner produces the signed client-assertion JWT used to
// authenticate this relying party to the identity provider's token endpoint.
type AssertionSigner interface {
	Sign(audience string) (string, error)
}

// UpstreamResponse is the identity provider's token-endpoint reply, carried
// verbatim so the boundary can forward status, headers, and body unchanged.
type UpstreamResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// IDTokenClaims are the verified claims this core needs from the ID token.
type IDTokenClaims struct {
	Subject        string
	SelectedRoleID string
}

// IdentityProvider talks to the upstream OIDC provider.
type IdentityProvider interface {
	// ForwardTokenRequest POSTs the (rewritten) form body to the token
	// endpoint and returns the upstream response regardless of status.
	ForwardTokenRequest(ctx context.Context, body url.Values) (UpstreamResponse, error)

	// VerifyIDToken checks the token signature against the provider's
	// published keys and returns the decoded claims.
	VerifyIDToken(ctx context.Context, rawIDToken string) (IDTokenClaims, error)

	// FetchUserInfo retrieves and decodes the userinfo payload.
	FetchUserInfo(ctx context.Context, accessToken string) (domainauth.UserClaims, error)
}

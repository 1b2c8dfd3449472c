package auth

// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"net/url"
	"sync"

	domainauth "github.com/NHSDigital/eps-prescription-tracker-ui-sub002/internal/domain/auth"
	"github.com/NHSDigital/eps-prescription-tracker-ui-sub002/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.SessionStore     = (*MemorySessionStore)(nil)
	_ ports.IdentityProvider = (*MockIdentityProvider)(nil)
	_ ports.AssertionSigner  = (*MockAssertionSigner)(nil)
)

// MemorySessionStore is an in-memory ports.SessionStore keyed by table and
// username. Safe for concurrent use.
type MemorySessionStore struct {
	mu      sync.Mutex
	records map[ports.Table]map[string]domainauth.SessionRecord

	// Optional fault injection, applied to every operation when set.
	Err error
}

// NewMemorySessionStore creates an empty in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		records: map[ports.Table]map[string]domainauth.SessionRecord{
			ports.TableTokenMapping:      {},
			ports.TableSessionManagement: {},
		},
	}
}

func (m *MemorySessionStore) Get(_ context.Context, table ports.Table, username string) (domainauth.SessionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return domainauth.SessionRecord{}, m.Err
	}
	rec, ok := m.records[table][username]
	if !ok {
		return domainauth.SessionRecord{}, ports.ErrNotFound
	}
	return rec, nil
}

func (m *MemorySessionStore) Put(_ context.Context, table ports.Table, record domainauth.SessionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.records[table][record.Username] = record
	return nil
}

func (m *MemorySessionStore) PutIfSessionID(_ context.Context, table ports.Table, record domainauth.SessionRecord, expectedSessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	stored, ok := m.records[table][record.Username]
	if !ok {
		if expectedSessionID != "" {
			return ports.ErrOwnershipConflict
		}
	} else if stored.SessionID != expectedSessionID {
		return ports.ErrOwnershipConflict
	}
	m.records[table][record.Username] = record
	return nil
}

func (m *MemorySessionStore) Delete(_ context.Context, table ports.Table, username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	delete(m.records[table], username)
	return nil
}

// Seed places a record directly into a table, bypassing fault injection.
func (m *MemorySessionStore) Seed(table ports.Table, record domainauth.SessionRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[table][record.Username] = record
}

// Record returns a stored record and whether it exists, bypassing fault injection.
func (m *MemorySessionStore) Record(table ports.Table, username string) (domainauth.SessionRecord, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[table][username]
	return rec, ok
}

// MockIdentityProvider simulates the upstream OIDC provider with
// deterministic defaults and optional per-call overrides.
type MockIdentityProvider struct {
	ForwardFunc  func(ctx context.Context, body url.Values) (ports.UpstreamResponse, error)
	VerifyFunc   func(ctx context.Context, rawIDToken string) (ports.IDTokenClaims, error)
	UserInfoFunc func(ctx context.Context, accessToken string) (domainauth.UserClaims, error)

	// LastForwardedBody records the most recent body passed to
	// ForwardTokenRequest for assertion-rewrite assertions.
	LastForwardedBody url.Values
}

// NewMockIdentityProvider creates a provider returning a successful exchange
// for a single default user.
func NewMockIdentityProvider() *MockIdentityProvider {
	return &MockIdentityProvider{}
}

func (m *MockIdentityProvider) ForwardTokenRequest(ctx context.Context, body url.Values) (ports.UpstreamResponse, error) {
	m.LastForwardedBody = body
	if m.ForwardFunc != nil {
		return m.ForwardFunc(ctx, body)
	}
	return ports.UpstreamResponse{
		StatusCode: 200,
		Body:       []byte(`{"access_token":"mock-access","id_token":"mock-id","expires_in":3600}`),
	}, nil
}

func (m *MockIdentityProvider) VerifyIDToken(ctx context.Context, rawIDToken string) (ports.IDTokenClaims, error) {
	if m.VerifyFunc != nil {
		return m.VerifyFunc(ctx, rawIDToken)
	}
	return ports.IDTokenClaims{Subject: "9449304130", SelectedRoleID: "role-1"}, nil
}

func (m *MockIdentityProvider) FetchUserInfo(ctx context.Context, accessToken string) (domainauth.UserClaims, error) {
	if m.UserInfoFunc != nil {
		return m.UserInfoFunc(ctx, accessToken)
	}
	return domainauth.UserClaims{
		Subject:        "9449304130",
		FamilyName:     "User",
		GivenName:      "Primary",
		SelectedRoleID: "role-1",
		Roles: []domainauth.RoleClaim{
			{RoleID: "role-1", RoleName: "Pharmacist", OrgCode: "FA565", ActivityCodes: []string{"B0570"}},
		},
	}, nil
}

// MockAssertionSigner returns a fixed assertion string.
type MockAssertionSigner struct {
	SignFunc  func(audience string) (string, error)
	Assertion string
}

func (m *MockAssertionSigner) Sign(audience string) (string, error) {
	if m.SignFunc != nil {
		return m.SignFunc(audience)
	}
	if m.Assertion != "" {
		return m.Assertion, nil
	}
	return "mock-client-assertion", nil
}

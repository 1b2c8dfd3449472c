package auth

// Package auth contains domain-level types for authentication and sessions.
// It is pure and free of framework/adapter concerns.

import "time"

// RoleClaim is a single role entry as asserted by the identity provider's
// userinfo payload. It is transient: decoded per request and never persisted
// verbatim.
type RoleClaim struct {
	RoleName      string   `json:"role_name"`
	RoleID        string   `json:"person_roleid"`
	OrgCode       string   `json:"org_code"`
	OrgName       string   `json:"org_name"`
	SiteName      string   `json:"site_name"`
	SiteAddress   string   `json:"site_address"`
	ActivityCodes []string `json:"activity_codes"`
}

// Identifying reports whether the claim carries any of the four identifying
// fields. Claims with none of them are dropped during classification.
func (c RoleClaim) Identifying() bool {
	return c.RoleName != "" || c.RoleID != "" || c.OrgCode != "" || c.OrgName != ""
}

// RoleDetails is the subset of a RoleClaim kept after classification and
// persisted on the session record. Optional fields are empty strings and
// omitted from JSON.
type RoleDetails struct {
	RoleName    string `json:"role_name,omitempty"`
	RoleID      string `json:"role_id,omitempty"`
	OrgCode     string `json:"org_code,omitempty"`
	OrgName     string `json:"org_name,omitempty"`
	SiteName    string `json:"site_name,omitempty"`
	SiteAddress string `json:"site_address,omitempty"`
}

// UserDetails carries the user's name as reported by the identity provider.
type UserDetails struct {
	FamilyName string `json:"family_name"`
	GivenName  string `json:"given_name"`
}

// TrackerUserInfo is the classified role view cached on the session record
// and projected read-only to the UI.
//
// CurrentlySelectedRole has two distinct "no selection" states: nil means the
// selection was never set (omitted from JSON), a pointer to the zero value
// means it was explicitly cleared (marshals as {}). A non-zero value may only
// reference a role present in RolesWithAccess.
type TrackerUserInfo struct {
	RolesWithAccess       []RoleDetails `json:"roles_with_access"`
	RolesWithoutAccess    []RoleDetails `json:"roles_without_access"`
	CurrentlySelectedRole *RoleDetails  `json:"currently_selected_role,omitempty"`
	UserDetails           UserDetails   `json:"user_details"`
}

// SelectionCleared reports whether the selected role was explicitly cleared
// (as opposed to never set).
func (t TrackerUserInfo) SelectionCleared() bool {
	return t.CurrentlySelectedRole != nil && *t.CurrentlySelectedRole == RoleDetails{}
}

// UserClaims is the decoded userinfo payload from the identity provider,
// mapped to domain shape at the I/O boundary. Missing fields are valid and
// stay zero-valued.
type UserClaims struct {
	Subject        string
	FamilyName     string
	GivenName      string
	SelectedRoleID string
	Roles          []RoleClaim
}

// SessionRecord is the single persisted row per username. It tracks the
// currently owning browser session, the CIS2 tokens from the last exchange,
// and the cached role classification.
type SessionRecord struct {
	Username         string          `json:"username"`
	SessionID        string          `json:"sessionId"`
	CIS2AccessToken  string          `json:"cis2AccessToken"`
	CIS2IDToken      string          `json:"cis2IdToken"`
	CIS2ExpiresIn    string          `json:"cis2ExpiresIn"`
	LastActivityTime int64           `json:"lastActivityTime"` // epoch millis
	UserInfo         TrackerUserInfo `json:"userInfo"`
}

// FreshWithin reports whether the record's last activity falls inside the
// given window relative to now. A fresh record routes a concurrent login to
// the session-management table instead of overwriting the active session.
func (r SessionRecord) FreshWithin(window time.Duration, now time.Time) bool {
	last := time.UnixMilli(r.LastActivityTime)
	return now.Sub(last) <= window
}

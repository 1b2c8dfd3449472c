package httpx

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/NHSDigital/eps-prescription-tracker-ui-sub002/internal/domain/auth"
	mockauth "github.com/NHSDigital/eps-prescription-tracker-ui-sub002/internal/mocks/auth"
	"github.com/NHSDigital/eps-prescription-tracker-ui-sub002/internal/ports"
	"github.com/NHSDigital/eps-prescription-tracker-ui-sub002/internal/service"
)

func newUserInfoHandlers(t *testing.T) (*mockauth.MemorySessionStore, *UserInfoHandlers) {
	t.Helper()
	store := mockauth.NewMemorySessionStore()
	arbiter := service.NewSessionArbiter(service.SessionArbiterOptions{
		Sessions: store,
		Logger:   testLogger(),
	})
	return store, &UserInfoHandlers{Svc: arbiter, Logger: testLogger()}
}

func TestUserInfoHandlers_Get(t *testing.T) {
	store, handlers := newUserInfoHandlers(t)
	store.Seed(ports.TableTokenMapping, domainauth.SessionRecord{
		Username:  testUsername,
		SessionID: "session-a",
		UserInfo: domainauth.TrackerUserInfo{
			RolesWithAccess: []domainauth.RoleDetails{
				{RoleID: "role-1", RoleName: "Pharmacist", OrgCode: "FA565"},
			},
			RolesWithoutAccess:    []domainauth.RoleDetails{},
			CurrentlySelectedRole: &domainauth.RoleDetails{RoleID: "role-1", RoleName: "Pharmacist", OrgCode: "FA565"},
			UserDetails:           domainauth.UserDetails{FamilyName: "User", GivenName: "Primary"},
		},
	})

	w := httptest.NewRecorder()
	r := sessionRequest(http.MethodGet, "/tracker-user-info", "", testUsername, "session-a")

	handlers.Get(w, r)

	require.Equal(t, http.StatusOK, w.Code)

	var payload struct {
		UserInfo domainauth.TrackerUserInfo `json:"userInfo"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	require.Len(t, payload.UserInfo.RolesWithAccess, 1)
	assert.Equal(t, "Pharmacist", payload.UserInfo.RolesWithAccess[0].RoleName)
	require.NotNil(t, payload.UserInfo.CurrentlySelectedRole)
	assert.Equal(t, "role-1", payload.UserInfo.CurrentlySelectedRole.RoleID)
	assert.Equal(t, "User", payload.UserInfo.UserDetails.FamilyName)
}

func TestUserInfoHandlers_Get_OmitsUnsetSelection(t *testing.T) {
	store, handlers := newUserInfoHandlers(t)
	store.Seed(ports.TableTokenMapping, domainauth.SessionRecord{
		Username:  testUsername,
		SessionID: "session-a",
	})

	w := httptest.NewRecorder()
	r := sessionRequest(http.MethodGet, "/tracker-user-info", "", testUsername, "session-a")

	handlers.Get(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "currently_selected_role")
}

func TestUserInfoHandlers_Get_StaleSession(t *testing.T) {
	store, handlers := newUserInfoHandlers(t)
	store.Seed(ports.TableTokenMapping, domainauth.SessionRecord{
		Username:  testUsername,
		SessionID: "session-a",
	})

	w := httptest.NewRecorder()
	r := sessionRequest(http.MethodGet, "/tracker-user-info", "", testUsername, "session-b")

	handlers.Get(w, r)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), `"restartLogin":true`)
}

func TestUserInfoHandlers_Get_NoRecord(t *testing.T) {
	_, handlers := newUserInfoHandlers(t)

	w := httptest.NewRecorder()
	r := sessionRequest(http.MethodGet, "/tracker-user-info", "", testUsername, "session-a")

	handlers.Get(w, r)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

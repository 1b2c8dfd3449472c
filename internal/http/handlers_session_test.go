package httpx

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/NHSDigital/eps-prescription-tracker-ui-sub002/internal/domain/auth"
	mockauth "github.com/NHSDigital/eps-prescription-tracker-ui-sub002/internal/mocks/auth"
	"github.com/NHSDigital/eps-prescription-tracker-ui-sub002/internal/ports"
	"github.com/NHSDigital/eps-prescription-tracker-ui-sub002/internal/service"
)

const testUsername = "cis2_9449304130"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newSessionHandlers(t *testing.T) (*mockauth.MemorySessionStore, *SessionHandlers) {
	t.Helper()
	store := mockauth.NewMemorySessionStore()
	arbiter := service.NewSessionArbiter(service.SessionArbiterOptions{
		Sessions: store,
		Logger:   testLogger(),
	})
	return store, &SessionHandlers{Svc: arbiter, Logger: testLogger()}
}

// sessionRequest builds a request carrying the authorizer identity context.
func sessionRequest(method, path, body, username, sessionID string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	r := httptest.NewRequest(method, path, reader)
	ctx := SetAuthInContext(r.Context(), AuthContext{Username: username, SessionID: sessionID})
	return r.WithContext(ctx)
}

func TestSessionHandlers_Post_SetSessionAccepted(t *testing.T) {
	store, handlers := newSessionHandlers(t)
	store.Seed(ports.TableTokenMapping, domainauth.SessionRecord{
		Username:  testUsername,
		SessionID: "session-a",
	})

	w := httptest.NewRecorder()
	r := sessionRequest(http.MethodPost, "/session", `{"action":"Set-Session"}`, testUsername, "session-a")

	handlers.Post(w, r)

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.JSONEq(t, `{"message":"Session set","status":"Active"}`, w.Body.String())
}

func TestSessionHandlers_Post_MismatchedSessionID(t *testing.T) {
	store, handlers := newSessionHandlers(t)
	store.Seed(ports.TableTokenMapping, domainauth.SessionRecord{
		Username:  testUsername,
		SessionID: "session-a",
	})

	w := httptest.NewRecorder()
	r := sessionRequest(http.MethodPost, "/session", `{"action":"Set-Session"}`, testUsername, "session-b")

	handlers.Post(w, r)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t,
		`{"message":"Session expired or invalid. Please log in again.","restartLogin":true}`,
		w.Body.String())
}

func TestSessionHandlers_Post_NoRecord(t *testing.T) {
	_, handlers := newSessionHandlers(t)

	w := httptest.NewRecorder()
	r := sessionRequest(http.MethodPost, "/session", `{"action":"Set-Session"}`, testUsername, "anything")

	handlers.Post(w, r)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), `"restartLogin":true`)
}

func TestSessionHandlers_Post_MissingAction(t *testing.T) {
	_, handlers := newSessionHandlers(t)

	for name, body := range map[string]string{
		"empty object":   `{}`,
		"unknown action": `{"action":"Refresh"}`,
	} {
		t.Run(name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := sessionRequest(http.MethodPost, "/session", body, testUsername, "session-a")

			handlers.Post(w, r)

			assert.Equal(t, http.StatusInternalServerError, w.Code)
			assert.JSONEq(t, `{"message":"No action specified"}`, w.Body.String())
		})
	}
}

func TestSessionHandlers_Post_MalformedJSON(t *testing.T) {
	_, handlers := newSessionHandlers(t)

	w := httptest.NewRecorder()
	r := sessionRequest(http.MethodPost, "/session", `{"action":`, testUsername, "session-a")

	handlers.Post(w, r)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"message":"A system error has occurred"}`, w.Body.String())
}

func TestSessionHandlers_Post_StoreFault(t *testing.T) {
	store, handlers := newSessionHandlers(t)
	store.Seed(ports.TableTokenMapping, domainauth.SessionRecord{
		Username:  testUsername,
		SessionID: "session-a",
	})
	store.Err = assert.AnError

	w := httptest.NewRecorder()
	r := sessionRequest(http.MethodPost, "/session", `{"action":"Set-Session"}`, testUsername, "session-a")

	handlers.Post(w, r)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"message":"A system error has occurred"}`, w.Body.String())
}

func TestSessionHandlers_Post_PromotesParkedRecord(t *testing.T) {
	store, handlers := newSessionHandlers(t)
	store.Seed(ports.TableTokenMapping, domainauth.SessionRecord{
		Username:  testUsername,
		SessionID: "old-device",
	})
	store.Seed(ports.TableSessionManagement, domainauth.SessionRecord{
		Username:  testUsername,
		SessionID: "new-tab",
	})

	w := httptest.NewRecorder()
	r := sessionRequest(http.MethodPost, "/session", `{"action":"Set-Session"}`, testUsername, "new-tab")

	handlers.Post(w, r)

	require.Equal(t, http.StatusAccepted, w.Code)
	canonical, ok := store.Record(ports.TableTokenMapping, testUsername)
	require.True(t, ok)
	assert.Equal(t, "new-tab", canonical.SessionID)
}

func TestSessionHandlers_PostNew(t *testing.T) {
	store, handlers := newSessionHandlers(t)
	store.Seed(ports.TableTokenMapping, domainauth.SessionRecord{
		Username:  testUsername,
		SessionID: "session-a",
	})

	w := httptest.NewRecorder()
	r := sessionRequest(http.MethodPost, "/session/new", "", testUsername, "session-a")

	handlers.PostNew(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	newID := w.Header().Get(HeaderSessionID)
	assert.NotEmpty(t, newID)
	assert.NotEqual(t, "session-a", newID)

	canonical, _ := store.Record(ports.TableTokenMapping, testUsername)
	assert.Equal(t, newID, canonical.SessionID)
}

func TestSessionHandlers_PostNew_NoRecord(t *testing.T) {
	_, handlers := newSessionHandlers(t)

	w := httptest.NewRecorder()
	r := sessionRequest(http.MethodPost, "/session/new", "", testUsername, "whatever")

	handlers.PostNew(w, r)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), `"restartLogin":true`)
}

func TestSessionHandlers_Delete(t *testing.T) {
	store, handlers := newSessionHandlers(t)
	store.Seed(ports.TableTokenMapping, domainauth.SessionRecord{Username: testUsername, SessionID: "a"})
	store.Seed(ports.TableSessionManagement, domainauth.SessionRecord{Username: testUsername, SessionID: "b"})

	w := httptest.NewRecorder()
	r := sessionRequest(http.MethodDelete, "/session", "", testUsername, "a")

	handlers.Delete(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	_, inPrimary := store.Record(ports.TableTokenMapping, testUsername)
	_, inParked := store.Record(ports.TableSessionManagement, testUsername)
	assert.False(t, inPrimary)
	assert.False(t, inParked)
}

func TestSessionHandlers_Delete_StoreFault(t *testing.T) {
	store, handlers := newSessionHandlers(t)
	store.Err = assert.AnError

	w := httptest.NewRecorder()
	r := sessionRequest(http.MethodDelete, "/session", "", testUsername, "a")

	handlers.Delete(w, r)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"message":"A system error has occurred"}`, w.Body.String())
}

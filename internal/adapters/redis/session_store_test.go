package redis

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/NHSDigital/eps-prescription-tracker-ui-sub002/internal/domain/auth"
	"github.com/NHSDigital/eps-prescription-tracker-ui-sub002/internal/ports"
	"github.com/NHSDigital/eps-prescription-tracker-ui-sub002/internal/testutil"
)

// setupTestRedis creates a Redis client for testing.
// Tests will be skipped if Redis is not available.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	return testutil.SetupTestRedis(t)
}

func sampleRecord(username, sessionID string) domainauth.SessionRecord {
	return domainauth.SessionRecord{
		Username:         username,
		SessionID:        sessionID,
		CIS2AccessToken:  "access-token",
		CIS2IDToken:      "id-token",
		CIS2ExpiresIn:    "3600",
		LastActivityTime: time.Now().UnixMilli(),
		UserInfo: domainauth.TrackerUserInfo{
			RolesWithAccess:    []domainauth.RoleDetails{{RoleID: "r1", RoleName: "Pharmacist"}},
			RolesWithoutAccess: []domainauth.RoleDetails{},
			UserDetails:        domainauth.UserDetails{FamilyName: "Userq", GivenName: "Primary"},
		},
	}
}

func TestSessionStore_PutAndGet(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewSessionStore(client)
	ctx := context.Background()

	rec := sampleRecord("cis2_u1", "sess-a")
	require.NoError(t, store.Put(ctx, ports.TableTokenMapping, rec))

	got, err := store.Get(ctx, ports.TableTokenMapping, "cis2_u1")
	require.NoError(t, err)
	assert.Equal(t, rec.SessionID, got.SessionID)
	assert.Equal(t, rec.CIS2AccessToken, got.CIS2AccessToken)
	assert.Equal(t, rec.UserInfo.RolesWithAccess, got.UserInfo.RolesWithAccess)
}

func TestSessionStore_TablesAreIsolated(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewSessionStore(client)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, ports.TableSessionManagement, sampleRecord("cis2_u1", "pending")))

	_, err := store.Get(ctx, ports.TableTokenMapping, "cis2_u1")
	assert.ErrorIs(t, err, ports.ErrNotFound)

	got, err := store.Get(ctx, ports.TableSessionManagement, "cis2_u1")
	require.NoError(t, err)
	assert.Equal(t, "pending", got.SessionID)
}

func TestSessionStore_GetAbsent(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewSessionStore(client)

	_, err := store.Get(context.Background(), ports.TableTokenMapping, "nobody")
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestSessionStore_PutIsIdempotent(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewSessionStore(client)
	ctx := context.Background()

	rec := sampleRecord("cis2_u1", "sess-a")
	require.NoError(t, store.Put(ctx, ports.TableTokenMapping, rec))
	require.NoError(t, store.Put(ctx, ports.TableTokenMapping, rec))

	got, err := store.Get(ctx, ports.TableTokenMapping, "cis2_u1")
	require.NoError(t, err)
	assert.Equal(t, rec.SessionID, got.SessionID)
}

func TestSessionStore_Delete(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewSessionStore(client)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, ports.TableTokenMapping, sampleRecord("cis2_u1", "sess-a")))
	require.NoError(t, store.Delete(ctx, ports.TableTokenMapping, "cis2_u1"))

	_, err := store.Get(ctx, ports.TableTokenMapping, "cis2_u1")
	assert.ErrorIs(t, err, ports.ErrNotFound)

	// Deleting an absent record is a no-op.
	assert.NoError(t, store.Delete(ctx, ports.TableTokenMapping, "cis2_u1"))
}

func TestSessionStore_PutIfSessionID_Matching(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewSessionStore(client)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, ports.TableTokenMapping, sampleRecord("cis2_u1", "sess-a")))

	updated := sampleRecord("cis2_u1", "sess-b")
	require.NoError(t, store.PutIfSessionID(ctx, ports.TableTokenMapping, updated, "sess-a"))

	got, err := store.Get(ctx, ports.TableTokenMapping, "cis2_u1")
	require.NoError(t, err)
	assert.Equal(t, "sess-b", got.SessionID)
}

func TestSessionStore_PutIfSessionID_Mismatch(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewSessionStore(client)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, ports.TableTokenMapping, sampleRecord("cis2_u1", "sess-a")))

	err := store.PutIfSessionID(ctx, ports.TableTokenMapping, sampleRecord("cis2_u1", "sess-c"), "stale")
	assert.ErrorIs(t, err, ports.ErrOwnershipConflict)

	// The stored record is untouched.
	got, getErr := store.Get(ctx, ports.TableTokenMapping, "cis2_u1")
	require.NoError(t, getErr)
	assert.Equal(t, "sess-a", got.SessionID)
}

func TestSessionStore_PutIfSessionID_AbsentRecord(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewSessionStore(client)
	ctx := context.Background()

	// Empty expectation means "no prior owner": allowed when absent.
	require.NoError(t, store.PutIfSessionID(ctx, ports.TableTokenMapping, sampleRecord("cis2_new", "sess-a"), ""))

	// Non-empty expectation against an absent record conflicts.
	err := store.PutIfSessionID(ctx, ports.TableTokenMapping, sampleRecord("cis2_other", "sess-a"), "sess-z")
	assert.ErrorIs(t, err, ports.ErrOwnershipConflict)
}

func TestSessionStore_EmptyUsernameRejected(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewSessionStore(client)
	ctx := context.Background()

	_, err := store.Get(ctx, ports.TableTokenMapping, "")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ports.ErrNotFound)

	assert.Error(t, store.Put(ctx, ports.TableTokenMapping, domainauth.SessionRecord{}))
	assert.Error(t, store.Delete(ctx, ports.TableTokenMapping, ""))
}

func TestSessionStore_UnknownTable(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewSessionStore(client)

	_, err := store.Get(context.Background(), ports.Table("bogus"), "cis2_u1")
	assert.Error(t, err)
}

package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	domainauth "github.com/NHSDigital/eps-prescription-tracker-ui-sub002/internal/domain/auth"
	apperrors "github.com/NHSDigital/eps-prescription-tracker-ui-sub002/internal/errors"
	"github.com/NHSDigital/eps-prescription-tracker-ui-sub002/internal/ports"
)

// SessionStatus is the outcome of a session arbitration request.
type SessionStatus string

// SessionStatusActive means the claimed session now owns the canonical record.
const SessionStatusActive SessionStatus = "Active"

// SessionArbiterOptions groups dependencies for SessionArbiter.
type SessionArbiterOptions struct {
	Sessions ports.SessionStore
	Logger   *slog.Logger

	// Now overrides the clock. Tests only.
	Now func() time.Time
}

// SessionArbiter resolves which browser session owns a user's canonical
// record. A login that found a live session parked its record in the
// session-management table; the arbiter promotes or discards it based on the
// user's explicit choice.
type SessionArbiter struct {
	sessions ports.SessionStore
	log      *slog.Logger
	now      func() time.Time
}

// NewSessionArbiter constructs a new SessionArbiter.
func NewSessionArbiter(opts SessionArbiterOptions) *SessionArbiter {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &SessionArbiter{
		sessions: opts.Sessions,
		log:      opts.Logger,
		now:      opts.Now,
	}
}

// SetSessionResult reports the outcome of a successful SetSession call.
type SetSessionResult struct {
	Status SessionStatus
}

// SetSession confirms that the caller's claimed session id matches a stored
// record and, if the record was parked in the session-management table,
// promotes it to the canonical token-mapping table. A claimed id that matches
// no stored record means another tab took over; the caller must log in again.
func (a *SessionArbiter) SetSession(ctx context.Context, username, claimedSessionID string) (*SetSessionResult, error) {
	if username == "" || claimedSessionID == "" {
		return nil, apperrors.Internal("missing auth context")
	}

	pending := true
	rec, err := a.sessions.Get(ctx, ports.TableSessionManagement, username)
	if errors.Is(err, ports.ErrNotFound) {
		pending = false
		rec, err = a.sessions.Get(ctx, ports.TableTokenMapping, username)
	}
	if errors.Is(err, ports.ErrNotFound) {
		return nil, apperrors.SessionExpired("no session record for user")
	}
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeStore, "read session record")
	}
	if rec.SessionID != claimedSessionID {
		return nil, apperrors.SessionExpired("claimed session id does not match stored record")
	}

	rec.LastActivityTime = a.now().UnixMilli()

	if pending {
		// Promote keyed on the canonical record we observed, so two racing
		// promotions for the same user cannot both win.
		current, getErr := a.sessions.Get(ctx, ports.TableTokenMapping, username)
		expected := ""
		if getErr == nil {
			expected = current.SessionID
		} else if !errors.Is(getErr, ports.ErrNotFound) {
			return nil, apperrors.Wrap(getErr, apperrors.ErrCodeStore, "read token mapping")
		}
		if putErr := a.sessions.PutIfSessionID(ctx, ports.TableTokenMapping, rec, expected); putErr != nil {
			if errors.Is(putErr, ports.ErrOwnershipConflict) {
				return nil, apperrors.SessionExpired("session was taken over by another login")
			}
			return nil, apperrors.Wrap(putErr, apperrors.ErrCodeStore, "promote session record")
		}
		if delErr := a.sessions.Delete(ctx, ports.TableSessionManagement, username); delErr != nil {
			// The promoted record is authoritative; a stale parked copy only
			// costs an extra mismatch on its next use.
			a.log.Warn("failed to clear parked session record",
				"username", username, "error", delErr)
		}
	} else {
		if putErr := a.sessions.PutIfSessionID(ctx, ports.TableTokenMapping, rec, claimedSessionID); putErr != nil {
			if errors.Is(putErr, ports.ErrOwnershipConflict) {
				return nil, apperrors.SessionExpired("session was taken over by another login")
			}
			return nil, apperrors.Wrap(putErr, apperrors.ErrCodeStore, "refresh session record")
		}
	}

	a.log.Info("session confirmed", "username", username, "promoted", pending)
	return &SetSessionResult{Status: SessionStatusActive}, nil
}

// NewSessionResult reports the fresh session id minted by StartNewSession.
type NewSessionResult struct {
	SessionID string
}

// StartNewSession mints a fresh session id for the user and writes it into
// the canonical record, invalidating the id held by every other tab or
// device. The record's tokens come from the caller's parked login when one
// exists, otherwise the canonical record is re-keyed in place.
func (a *SessionArbiter) StartNewSession(ctx context.Context, username string) (*NewSessionResult, error) {
	if username == "" {
		return nil, apperrors.Internal("missing auth context")
	}

	parked := true
	rec, err := a.sessions.Get(ctx, ports.TableSessionManagement, username)
	if errors.Is(err, ports.ErrNotFound) {
		parked = false
		rec, err = a.sessions.Get(ctx, ports.TableTokenMapping, username)
	}
	if errors.Is(err, ports.ErrNotFound) {
		return nil, apperrors.SessionExpired("no session record for user")
	}
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeStore, "read session record")
	}

	rec.SessionID = uuid.NewString()
	rec.LastActivityTime = a.now().UnixMilli()

	// Deliberate takeover: overwrite whichever session currently owns the
	// canonical record.
	if err := a.sessions.Put(ctx, ports.TableTokenMapping, rec); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeStore, "write canonical session record")
	}
	if parked {
		if delErr := a.sessions.Delete(ctx, ports.TableSessionManagement, username); delErr != nil {
			a.log.Warn("failed to clear parked session record",
				"username", username, "error", delErr)
		}
	}

	a.log.Info("new session started", "username", username)
	return &NewSessionResult{SessionID: rec.SessionID}, nil
}

// Logout removes the user's records from both tables. Deleting an absent
// record is a no-op; the call fails only when both deletes report a store
// fault, so a logout still succeeds when one table is unreachable.
func (a *SessionArbiter) Logout(ctx context.Context, username string) error {
	if username == "" {
		return apperrors.Internal("missing auth context")
	}

	primaryErr := a.sessions.Delete(ctx, ports.TableTokenMapping, username)
	parkedErr := a.sessions.Delete(ctx, ports.TableSessionManagement, username)
	if primaryErr != nil && parkedErr != nil {
		return apperrors.Wrap(errors.Join(primaryErr, parkedErr), apperrors.ErrCodeStore, "clear session records")
	}
	if primaryErr != nil || parkedErr != nil {
		a.log.Warn("partial logout, one table delete failed",
			"username", username,
			"primary_error", primaryErr,
			"parked_error", parkedErr)
	}

	a.log.Info("logged out", "username", username)
	return nil
}

// UserInfo returns the cached role classification for an authenticated user.
// The claimed session id must match the canonical record; a mismatch means
// another login took over and the caller must re-authenticate.
func (a *SessionArbiter) UserInfo(ctx context.Context, username, claimedSessionID string) (domainauth.TrackerUserInfo, error) {
	var zero domainauth.TrackerUserInfo
	if username == "" || claimedSessionID == "" {
		return zero, apperrors.Internal("missing auth context")
	}

	rec, err := a.sessions.Get(ctx, ports.TableTokenMapping, username)
	if errors.Is(err, ports.ErrNotFound) {
		return zero, apperrors.SessionExpired("no session record for user")
	}
	if err != nil {
		return zero, apperrors.Wrap(err, apperrors.ErrCodeStore, "read session record")
	}
	if rec.SessionID != claimedSessionID {
		return zero, apperrors.SessionExpired("claimed session id does not match stored record")
	}
	return rec.UserInfo, nil
}

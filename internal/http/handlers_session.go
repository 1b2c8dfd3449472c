package httpx

import (
	"log/slog"
	"net/http"

	apperrors "github.com/NHSDigital/eps-prescription-tracker-ui-sub002/internal/errors"
	"github.com/NHSDigital/eps-prescription-tracker-ui-sub002/internal/service"
)

// actionSetSession is the only action the session endpoint currently accepts.
const actionSetSession = "Set-Session"

// SessionHandlers provides HTTP handlers for session arbitration.
type SessionHandlers struct {
	Svc    *service.SessionArbiter
	Logger *slog.Logger
}

type sessionActionRequest struct {
	Action string `json:"action"`
}

// Post handles POST /session. The caller confirms ownership of the session
// id it holds; a parked login gets promoted to the canonical record.
func (h *SessionHandlers) Post(w http.ResponseWriter, r *http.Request) {
	var req sessionActionRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if req.Action != actionSetSession {
		WriteJSON(w, http.StatusInternalServerError, map[string]string{"message": msgNoAction})
		return
	}

	auth := AuthFromContext(r.Context())
	res, err := h.Svc.SetSession(r.Context(), auth.Username, auth.SessionID)
	if err != nil {
		h.writeSessionError(w, "Set-Session", auth.Username, err)
		return
	}

	WriteJSON(w, http.StatusAccepted, map[string]string{
		"message": "Session set",
		"status":  string(res.Status),
	})
}

// PostNew handles POST /session/new: the user explicitly evicts whichever
// other tab or device currently owns the session.
func (h *SessionHandlers) PostNew(w http.ResponseWriter, r *http.Request) {
	auth := AuthFromContext(r.Context())
	res, err := h.Svc.StartNewSession(r.Context(), auth.Username)
	if err != nil {
		h.writeSessionError(w, "start-new-session", auth.Username, err)
		return
	}

	w.Header().Set(HeaderSessionID, res.SessionID)
	WriteJSON(w, http.StatusOK, map[string]string{
		"message": "New session started",
		"status":  string(service.SessionStatusActive),
	})
}

// Delete handles DELETE /session (logout).
func (h *SessionHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	auth := AuthFromContext(r.Context())
	if err := h.Svc.Logout(r.Context(), auth.Username); err != nil {
		h.writeSessionError(w, "logout", auth.Username, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

// writeSessionError maps arbiter errors onto the fixed wire shapes. Internal
// detail is logged here and never leaves the process.
func (h *SessionHandlers) writeSessionError(w http.ResponseWriter, action, username string, err error) {
	h.Logger.Error("session action failed",
		slog.String("action", action),
		slog.String("username", username),
		slog.String("code", string(apperrors.GetCode(err))),
		slog.Any("error", err))

	if apperrors.IsSessionExpired(err) {
		writeSessionExpired(w)
		return
	}
	writeSystemError(w)
}

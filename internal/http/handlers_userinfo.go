package httpx

import (
	"log/slog"
	"net/http"

	apperrors "github.com/NHSDigital/eps-prescription-tracker-ui-sub002/internal/errors"
	"github.com/NHSDigital/eps-prescription-tracker-ui-sub002/internal/service"
)

// UserInfoHandlers serves the cached role classification to the UI.
type UserInfoHandlers struct {
	Svc    *service.SessionArbiter
	Logger *slog.Logger
}

// Get handles GET /tracker-user-info. The projection is read-only: roles are
// classified once during the token exchange and served from the session
// record afterwards.
func (h *UserInfoHandlers) Get(w http.ResponseWriter, r *http.Request) {
	auth := AuthFromContext(r.Context())
	info, err := h.Svc.UserInfo(r.Context(), auth.Username, auth.SessionID)
	if err != nil {
		h.Logger.Error("tracker user info failed",
			slog.String("username", auth.Username),
			slog.String("code", string(apperrors.GetCode(err))),
			slog.Any("error", err))
		if apperrors.IsSessionExpired(err) {
			writeSessionExpired(w)
			return
		}
		writeSystemError(w)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"userInfo": info})
}

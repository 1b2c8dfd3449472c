// Package httpx provides the HTTP surface for the prescription tracker
// authentication service.
package httpx

import (
	"io"
	"log/slog"
	"net/http"

	apperrors "github.com/NHSDigital/eps-prescription-tracker-ui-sub002/internal/errors"
	"github.com/NHSDigital/eps-prescription-tracker-ui-sub002/internal/service"
)

// Session identity is minted server-side during the exchange and handed to
// the browser out of band from the upstream token body, which is relayed
// verbatim.
const (
	HeaderSessionID          = "X-Session-Id"
	HeaderPendingArbitration = "X-Pending-Arbitration"
)

const maxTokenRequestBytes = 64 << 10

// TokenHandlers proxies the OAuth token exchange to the identity provider.
type TokenHandlers struct {
	Svc    *service.AuthService
	Logger *slog.Logger
}

// Exchange handles POST /oauth2/token. The upstream response is relayed to
// the client unchanged: its status code, headers and JSON body. Session
// bookkeeping rides on response headers.
func (h *TokenHandlers) Exchange(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxTokenRequestBytes))
	if err != nil {
		h.Logger.Error("read token request body", slog.Any("error", err))
		writeSystemError(w)
		return
	}

	res, err := h.Svc.ExchangeToken(r.Context(), string(body))
	if err != nil {
		h.Logger.Error("token exchange failed",
			slog.String("code", string(apperrors.GetCode(err))),
			slog.Any("error", err))
		// An upstream rejection still carries the provider's response, which
		// the client needs to see verbatim.
		if res != nil {
			relayUpstream(w, res)
			return
		}
		writeSystemError(w)
		return
	}

	w.Header().Set(HeaderSessionID, res.SessionID)
	if res.PendingArbitration {
		w.Header().Set(HeaderPendingArbitration, "true")
	}
	relayUpstream(w, res)
}

func relayUpstream(w http.ResponseWriter, res *service.ExchangeResult) {
	for key, values := range res.Upstream.Header {
		for _, v := range values {
			w.Header().Add(key, v)
		}
	}
	w.WriteHeader(res.Upstream.StatusCode)
	if _, err := w.Write(res.Upstream.Body); err != nil {
		// Nothing more to do if the client connection is gone.
		return
	}
}

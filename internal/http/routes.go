package httpx

import (
	"log/slog"
	"net/http"

	"github.com/NHSDigital/eps-prescription-tracker-ui-sub002/internal/observability/metrics"
	"github.com/NHSDigital/eps-prescription-tracker-ui-sub002/internal/service"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Auth    *service.AuthService
	Arbiter *service.SessionArbiter
	Metrics *metrics.HTTP
	Logger  *slog.Logger
}

// NewRouter creates and configures the HTTP router.
func NewRouter(services RouterServices) http.Handler {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()

	tokenHandlers := &TokenHandlers{Svc: services.Auth, Logger: logger}
	sessionHandlers := &SessionHandlers{Svc: services.Arbiter, Logger: logger}
	userInfoHandlers := &UserInfoHandlers{Svc: services.Arbiter, Logger: logger}

	mux.Handle("POST /oauth2/token", http.HandlerFunc(tokenHandlers.Exchange))

	requireAuth := RequireAuthContext(logger)
	mux.Handle("POST /session", requireAuth(http.HandlerFunc(sessionHandlers.Post)))
	mux.Handle("POST /session/new", requireAuth(http.HandlerFunc(sessionHandlers.PostNew)))
	mux.Handle("DELETE /session", requireAuth(http.HandlerFunc(sessionHandlers.Delete)))
	mux.Handle("GET /tracker-user-info", requireAuth(http.HandlerFunc(userInfoHandlers.Get)))

	mux.Handle("GET /health", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /health", http.HandlerFunc(healthHandler))
	if services.Metrics != nil {
		mux.Handle("GET /metrics", services.Metrics.Handler())
	}

	var handler http.Handler = mux
	handler = AuthorizerContext()(handler)
	if services.Metrics != nil {
		handler = services.Metrics.Instrument(handler)
	}
	handler = Logging(logger)(handler)
	handler = Recover(logger)(handler)
	return handler
}

package router

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/baechuer/nippou-service/internal/domain"
	"github.com/baechuer/nippou-service/internal/transport/http/docs"
	"github.com/baechuer/nippou-service/internal/transport/http/middleware"
	"github.com/baechuer/nippou-service/internal/transport/http/response"
)

type HealthHandler interface {
	Healthz(w http.ResponseWriter, r *http.Request)
	Readyz(w http.ResponseWriter, r *http.Request)
}

type AuthHandler interface {
	Register(w http.ResponseWriter, r *http.Request)
	Verify(w http.ResponseWriter, r *http.Request)
	Login(w http.ResponseWriter, r *http.Request)
	Me(w http.ResponseWriter, r *http.Request)
	Logout(w http.ResponseWriter, r *http.Request)

	// Password reset
	ForgotPassword(w http.ResponseWriter, r *http.Request)
	VerifyResetToken(w http.ResponseWriter, r *http.Request)
	ResetPassword(w http.ResponseWriter, r *http.Request)
}

type ReportHandler interface {
	List(w http.ResponseWriter, r *http.Request)
	Create(w http.ResponseWriter, r *http.Request)
	Update(w http.ResponseWriter, r *http.Request)
	Delete(w http.ResponseWriter, r *http.Request)
}

type Options struct {
	ServiceName string
	CORSOrigins []string
	HSTS        bool
	Tracing     bool

	// PublicURL and Version are advertised by the API document.
	PublicURL string
	Version   string

	// Global per-IP limit, enforced in process.
	RLEnabled bool
	RLLimit   int
	RLWindow  time.Duration
}

type Deps struct {
	Health  HealthHandler
	Auth    AuthHandler
	Reports ReportHandler

	// Session resolves the cookie into the request context. Optional.
	Session func(http.Handler) http.Handler
	// Limiter backs the per-route limits on credential endpoints. Optional.
	Limiter middleware.RateLimiter

	Options Options
}

// authRouteLimits caps credential endpoints per client per minute.
var authRouteLimits = map[string]int{
	"register":        5,
	"login":           10,
	"forgot_password": 5,
	"reset_password":  10,
}

func New(deps Deps) (http.Handler, error) {
	if deps.Health == nil {
		return nil, fmt.Errorf("nil Health handler")
	}
	if deps.Auth == nil {
		return nil, fmt.Errorf("nil Auth handler")
	}
	if deps.Reports == nil {
		return nil, fmt.Errorf("nil Reports handler")
	}
	opts := deps.Options
	if opts.ServiceName == "" {
		opts.ServiceName = "nippou"
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	if opts.Tracing {
		r.Use(middleware.Tracing(opts.ServiceName))
	}
	r.Use(middleware.Metrics)
	r.Use(middleware.AccessLog)
	r.Use(middleware.SecurityHeaders(opts.HSTS))
	if len(opts.CORSOrigins) > 0 {
		r.Use(middleware.CORS(opts.CORSOrigins))
	}
	if deps.Session != nil {
		r.Use(deps.Session)
	}
	if opts.RLEnabled && opts.RLLimit > 0 {
		r.Use(httprate.Limit(
			opts.RLLimit,
			opts.RLWindow,
			httprate.WithKeyFuncs(httprate.KeyByIP),
			httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
				response.WriteError(w, r, domain.ErrRateLimited("global"))
			}),
		))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.WriteError(w, r, domain.New(domain.KindNotFound, "route_not_found", "route not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		response.WriteJSON(w, http.StatusMethodNotAllowed, response.ErrorBody{Error: response.ErrorPayload{
			Code:      "method_not_allowed",
			Message:   "method not allowed",
			RequestID: response.RequestIDFromContext(r),
		}})
	})

	r.Get("/healthz", deps.Health.Healthz)
	r.Get("/readyz", deps.Health.Readyz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	limit := func(route string) func(http.Handler) http.Handler {
		return middleware.RateLimitFixedWindow(deps.Limiter, middleware.FixedWindowConfig{
			RouteKey: route,
			Limit:    authRouteLimits[route],
			Window:   time.Minute,
		}, response.WriteError)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/docs/openapi.json", docs.Handler(opts.PublicURL, opts.Version))

		r.Route("/auth", func(r chi.Router) {
			r.With(limit("register")).Post("/register", deps.Auth.Register)
			r.Get("/verify", deps.Auth.Verify) // ?token=...
			r.With(limit("login")).Post("/login", deps.Auth.Login)
			r.Get("/me", deps.Auth.Me)
			r.Post("/logout", deps.Auth.Logout)

			// --- Password reset ---
			r.With(limit("forgot_password")).Post("/forgot-password", deps.Auth.ForgotPassword)
			r.Get("/verify-reset-token", deps.Auth.VerifyResetToken) // ?token=...
			r.With(limit("reset_password")).Post("/reset-password", deps.Auth.ResetPassword)
		})

		r.Route("/reports", func(r chi.Router) {
			r.Get("/", deps.Reports.List)
			r.Post("/", deps.Reports.Create)
			r.Put("/{id}", deps.Reports.Update)
			r.Delete("/{id}", deps.Reports.Delete)
		})
	})

	return r, nil
}

// package server contains middleware & handlers for the KOPIS sync admin service
package server

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/kopisync/internal/shared"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
// Common middleware includes logging, authentication, CORS, rate limiting, etc.
type Middleware func(http.Handler) http.Handler

// Handler defines the interface for HTTP request handlers in the sync service.
// Implementations handle specific endpoints (manual sync, health).
type Handler interface {
	http.Handler      // ServeHTTP handles the HTTP request and writes the response
	Routes() []string // Routes returns the path patterns this handler serves
}

// Router defines the interface for HTTP routing and middleware management.
// Implementations register handlers, apply middleware, and configure the HTTP server.
type Router interface {
	Use(middleware ...Middleware)                     // Use adds middleware to the router's middleware stack
	Handle(method, path string, handler http.Handler) // Handle registers a handler for the specified method and path
	Handler(handler Handler)                          // Handler registers a custom Handler implementation
	ServeHTTP(w http.ResponseWriter, r *http.Request) // ServeHTTP implements http.Handler for the entire router
}

// Opts configures [New].
type Opts struct {
	Config  shared.ServerConfig
	Trigger Triggerer
	DB      *sql.DB
	Logger  *log.Logger
}

// New builds the admin HTTP server.
//
// Metrics and health routes are public; the sync route sits behind [RequireAdmin].
func New(opts Opts) *http.Server {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	logger := shared.WithLogger(opts.Logger, "component", "http")

	public := NewBasicRouter()
	public.Use(RequestLogger(logger))
	public.Handle(http.MethodGet, "/metrics", promhttp.Handler())
	public.Handler(NewHealthHandler(opts.DB))

	if opts.Config.AdminJWTSecret == "" {
		logger.Warn("admin_jwt_secret is empty, /kopis/sync is unauthenticated")
	}
	admin := NewBasicRouter()
	admin.Use(RequestLogger(logger), RequireAdmin(opts.Config.AdminJWTSecret))
	admin.Handler(NewSyncHandler(opts.Trigger, logger))
	public.Mount("/kopis/", admin)

	return &http.Server{
		Addr:              opts.Config.Addr(),
		Handler:           public,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

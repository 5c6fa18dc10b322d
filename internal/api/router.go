package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/marketplace-admin/console/internal/api/handler"
	"github.com/marketplace-admin/console/internal/api/middleware"
	"github.com/marketplace-admin/console/internal/core/domain"
	"github.com/marketplace-admin/console/internal/core/ports"
)

// CSRF cookie and header names follow the Django convention the dashboard
// client expects.
const (
	CSRFCookie = "csrftoken"
	CSRFHeader = "X-CSRFToken"
)

// Deps wires the router to its services.
type Deps struct {
	Accounts  ports.AccountService
	Directory ports.DirectoryService
	// Checks feed the readiness probe, keyed by dependency name.
	Checks map[string]handler.CheckFunc

	BasePath      string
	SessionTTL    time.Duration
	SecureCookies bool

	Log zerolog.Logger
	// Registerer and Gatherer default to the prometheus globals.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	if d.BasePath == "" {
		d.BasePath = "/api"
	}
	if d.Registerer == nil {
		d.Registerer = prometheus.DefaultRegisterer
	}
	if d.Gatherer == nil {
		d.Gatherer = prometheus.DefaultGatherer
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "mockapi",
		Registerer: d.Registerer,
	}))

	// --- Health probes, metrics and docs (no session, no CSRF) ---
	health := handler.NewHealthHandler(d.Checks)
	e.GET("/health", health.Liveness)
	e.GET("/health/ready", health.Readiness)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: d.Gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- API ---
	api := e.Group(d.BasePath)
	api.Use(echomiddleware.CSRFWithConfig(echomiddleware.CSRFConfig{
		TokenLookup:    "header:" + CSRFHeader,
		CookieName:     CSRFCookie,
		CookiePath:     "/",
		CookieSecure:   d.SecureCookies,
		CookieSameSite: http.SameSiteLaxMode,
		ContextKey:     handler.CSRFContextKey,
	}))
	api.Use(middleware.Session(d.Accounts, d.Log))

	auth := handler.NewAuthHandler(d.Accounts, d.Directory, handler.CookieConfig{
		TTL:    d.SessionTTL,
		Secure: d.SecureCookies,
	})
	api.GET("/auth-status/", auth.Status)
	api.POST("/login/", auth.Login)
	api.POST("/logout/", auth.Logout)
	api.GET("/csrf-token/", auth.CSRFToken)

	users := handler.NewUserHandler(d.Directory)
	g := api.Group("/users", middleware.RequireSession(), middleware.RequireUserType(domain.UserTypeAdmin))
	g.GET("/", users.List)
	g.POST("/", users.Create)
	g.GET("/stats/", users.Stats)
	for _, t := range domain.UserTypes {
		if seg, ok := t.ScopedSegment(); ok {
			g.GET("/"+seg+"/", users.Scoped(t))
		}
	}
	g.GET("/:id/", users.Get)
	g.PATCH("/:id/", users.Update)
	g.DELETE("/:id/", users.Delete)
	g.POST("/:id/suspend/", users.Suspend)
	g.POST("/:id/activate/", users.Activate)

	return e
}

// requestLogger emits one zerolog line per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}

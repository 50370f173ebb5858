// Package router wires handlers and middleware onto an echo instance.
package router

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/iliyamo/pet-buddy/internal/handler"
	"github.com/iliyamo/pet-buddy/internal/metrics"
	"github.com/iliyamo/pet-buddy/internal/middleware"
	"github.com/iliyamo/pet-buddy/internal/service"
)

// New returns an echo instance with the error envelope, validator and the
// global middleware chain installed.
func New(log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handler.NewHTTPErrorHandler(log)
	e.Validator = handler.NewValidator()

	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(log))
	e.Use(metrics.HTTPMiddleware())
	return e
}

// RegisterRoutes registers the probes and the metrics endpoint.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", handler.Ready(db))
	e.GET("/metrics", metrics.Handler())
}

// RegisterAuth registers registration and login under /api/auth. limit
// throttles credential endpoints.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, limit echo.MiddlewareFunc) {
	limit = orNoop(limit)
	g := e.Group("/api/auth")
	g.POST("/register", a.Register, limit)
	g.POST("/login", a.Login, limit)
	g.GET("/me", a.Me, middleware.JWTAuth(jwtSecret))
}

type Handlers struct {
	Bookings *handler.BookingHandler
	Postings *handler.PostingHandler
	Dogs     *handler.DogHandler
	Sitters  *handler.SitterHandler
	Chat     *handler.ChatHandler
}

type Options struct {
	JWTSecret string
	// AuthRequired puts every write behind a valid access token. Reads stay
	// public either way.
	AuthRequired bool
	// Cache wraps the sitter directory. Posting listings are never cached:
	// a closed posting must drop out of the very next listing.
	Cache echo.MiddlewareFunc
	// RateLimit throttles writes.
	RateLimit echo.MiddlewareFunc
}

// RegisterAPI registers the marketplace endpoints under /api. A bearer token,
// when sent, is always verified so handlers can default ids to the caller.
func RegisterAPI(e *echo.Echo, h Handlers, opts Options) {
	api := e.Group("/api", middleware.OptionalJWT(opts.JWTSecret))
	opts.Cache = orNoop(opts.Cache)
	opts.RateLimit = orNoop(opts.RateLimit)

	write := []echo.MiddlewareFunc{opts.RateLimit}
	sitterOnly := []echo.MiddlewareFunc{opts.RateLimit}
	if opts.AuthRequired {
		write = append(write, middleware.JWTAuth(opts.JWTSecret))
		sitterOnly = append(sitterOnly, middleware.JWTAuth(opts.JWTSecret), middleware.RequireRole(service.RoleSitter))
	}

	api.POST("/sitters", h.Sitters.Create, write...)
	api.GET("/sitters", h.Sitters.List, opts.Cache)
	api.GET("/sitters/:userId", h.Sitters.Get)

	api.GET("/dogs/user/:userId", h.Dogs.ListByOwner)
	api.POST("/dogs", h.Dogs.Create, write...)
	api.DELETE("/dogs/:dogId", h.Dogs.Delete, write...)

	api.GET("/jobs", h.Postings.ListJobs)
	api.POST("/jobs", h.Postings.CreateJob, write...)
	api.DELETE("/jobs/:jobId", h.Postings.DeleteJob, write...)
	api.POST("/jobs/:jobId/close", h.Postings.CloseJob, write...)

	api.GET("/sitter-postings", h.Postings.ListSitterPostings)
	api.POST("/sitter-postings", h.Postings.CreateSitterPosting, sitterOnly...)
	api.POST("/sitter-postings/:postId/close", h.Postings.CloseSitterPosting, sitterOnly...)

	api.POST("/bookings", h.Bookings.Create, write...)
	api.GET("/bookings/owner/:ownerId", h.Bookings.ListForOwner)
	api.GET("/bookings/sitter/:sitterId", h.Bookings.ListForSitter)
	api.PATCH("/bookings/:bookingId/status", h.Bookings.UpdateStatus, write...)

	api.GET("/conversations/:conversationId/messages", h.Chat.History)
	api.POST("/conversations/:conversationId/messages", h.Chat.Post, write...)
}

func orNoop(m echo.MiddlewareFunc) echo.MiddlewareFunc {
	if m != nil {
		return m
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
}

package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/zenithx/internal/models"
	"github.com/desertthunder/zenithx/internal/repositories"
	"github.com/desertthunder/zenithx/internal/services"
	"github.com/desertthunder/zenithx/internal/shared"
	"github.com/go-chi/chi/v5/middleware"
)

// GatewayOpts holds the dependencies of the gateway.
type GatewayOpts struct {
	Provider       services.Provider
	PageSize       int
	Store          repositories.DocumentStore
	Auth           *Authenticator
	Logger         *log.Logger
	CORSOrigin     string
	MaxBodyBytes   int64
	RequestTimeout time.Duration
}

// NewGateway builds the gateway: search, document and health endpoints behind the shared middleware stack.
//
// A missing provider, store or authenticator is rejected with [shared.ErrInvalidConfig].
func NewGateway(opts GatewayOpts) (*BasicRouter, error) {
	switch {
	case opts.Provider == nil:
		return nil, fmt.Errorf("%w: gateway needs a search provider", shared.ErrInvalidConfig)
	case opts.Store == nil:
		return nil, fmt.Errorf("%w: gateway needs a document store", shared.ErrInvalidConfig)
	case opts.Auth == nil:
		return nil, fmt.Errorf("%w: gateway needs an authenticator", shared.ErrInvalidConfig)
	}

	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	logger = shared.WithLogger(logger, "component", "gateway")

	router := NewBasicRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		RequestLogger(logger),
		middleware.Recoverer,
		CORS(opts.CORSOrigin),
		BodyLimit(opts.MaxBodyBytes),
	)
	if opts.RequestTimeout > 0 {
		router.Use(middleware.Timeout(opts.RequestTimeout))
	}

	router.Handle(http.MethodGet, "/health", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, models.StatusResponse{Status: "ok"})
	}))
	router.Handler(NewSearchHandler(opts.Provider, opts.PageSize, logger))
	router.Handler(NewDocumentHandler(opts.Store, logger), RequireAuth(opts.Auth))

	return router, nil
}

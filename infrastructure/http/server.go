package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/payflow/payflow/infrastructure/http/handler"
	"github.com/payflow/payflow/infrastructure/http/middleware"
	"github.com/payflow/payflow/infrastructure/http/response"
)

// ServerConfig represents server configuration
type ServerConfig struct {
	Host                 string
	Port                 string
	ReadTimeout          time.Duration
	WriteTimeout         time.Duration
	IdleTimeout          time.Duration
	CORSEnabled          bool
	CORSAllowedOrigins   []string
	CORSAllowCredentials bool
}

// Server wires the router, middleware chain and http.Server together.
type Server struct {
	server *http.Server
}

func NewServer(
	config ServerConfig,
	authHandler *handler.AuthHandler,
	payoutHandler *handler.PayoutHandler,
	vendorHandler *handler.VendorHandler,
	dashboardHandler *handler.DashboardHandler,
) *Server {
	router := mux.NewRouter()

	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		response.Success(w, http.StatusOK, response.Fields{"status": "ok"})
	}).Methods(http.MethodGet)

	authHandler.RegisterRoutes(router)
	payoutHandler.RegisterRoutes(router)
	vendorHandler.RegisterRoutes(router)
	dashboardHandler.RegisterRoutes(router)

	var root http.Handler = router
	root = middleware.CorrelationIDMiddleware(root)
	if config.CORSEnabled {
		root = middleware.CORSMiddleware(root, config.CORSAllowedOrigins, config.CORSAllowCredentials)
	}

	if config.ReadTimeout == 0 {
		config.ReadTimeout = 15 * time.Second
	}
	if config.WriteTimeout == 0 {
		config.WriteTimeout = 15 * time.Second
	}
	if config.IdleTimeout == 0 {
		config.IdleTimeout = 60 * time.Second
	}

	return &Server{
		server: &http.Server{
			Addr:         config.Host + ":" + config.Port,
			Handler:      root,
			ReadTimeout:  config.ReadTimeout,
			WriteTimeout: config.WriteTimeout,
			IdleTimeout:  config.IdleTimeout,
		},
	}
}

func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"github.com/payflow/payflow/application/usecase"
	"github.com/payflow/payflow/infrastructure/config"
	httpserver "github.com/payflow/payflow/infrastructure/http"
	"github.com/payflow/payflow/infrastructure/http/handler"
	"github.com/payflow/payflow/infrastructure/http/middleware"
	"github.com/payflow/payflow/infrastructure/persistence/postgres"
	"github.com/payflow/payflow/infrastructure/service/jwt"
	"github.com/payflow/payflow/infrastructure/service/logger"
	"github.com/payflow/payflow/infrastructure/service/password"
	"github.com/payflow/payflow/infrastructure/service/ratelimit"
)

var version = "dev"

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("payflow %s\n", version)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
		ServiceName: "payflow",
	})

	ctx := context.Background()

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Error(ctx, "failed to open database", err, nil)
		os.Exit(1)
	}
	defer db.Close()

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		log.Error(ctx, "failed to connect to database", err, nil)
		os.Exit(1)
	}
	log.Info(ctx, "database connection established", nil)

	tokenService, err := jwt.NewJWTService(cfg.JWTSecret, cfg.SessionTTL)
	if err != nil {
		log.Error(ctx, "failed to initialize token service", err, nil)
		os.Exit(1)
	}
	passwordService := password.NewBcryptPasswordService(cfg.BcryptCost)

	loginLimiter, err := ratelimit.NewLoginLimiter(ratelimit.Config{
		Enabled:       cfg.RateLimitEnabled,
		RedisURL:      cfg.RedisURL,
		Attempts:      cfg.RateLimitLoginAttempts,
		Window:        cfg.RateLimitLoginWindow,
		BlockDuration: cfg.RateLimitBlockDuration,
	}, log)
	if err != nil {
		log.Error(ctx, "failed to initialize login limiter", err, nil)
		os.Exit(1)
	}

	userRepo := postgres.NewUserRepository(db)
	vendorRepo := postgres.NewVendorRepository(db)
	payoutRepo := postgres.NewPayoutRepository(db)
	auditRepo := postgres.NewAuditRepository(db)

	authUseCase := usecase.NewAuthUseCase(userRepo, tokenService, passwordService, loginLimiter, log)
	payoutUseCase := usecase.NewPayoutUseCase(payoutRepo, vendorRepo, auditRepo, log)
	vendorUseCase := usecase.NewVendorUseCase(vendorRepo, log)
	dashboardUseCase := usecase.NewDashboardUseCase(payoutRepo, vendorRepo, log)

	authMiddleware := middleware.NewAuthMiddleware(tokenService)
	secureCookie := cfg.Environment == "production"

	authHandler := handler.NewAuthHandler(authUseCase, tokenService, authMiddleware, log, cfg.SessionTTL, secureCookie)
	payoutHandler := handler.NewPayoutHandler(payoutUseCase, authMiddleware, log)
	vendorHandler := handler.NewVendorHandler(vendorUseCase, authMiddleware, log)
	dashboardHandler := handler.NewDashboardHandler(dashboardUseCase, authMiddleware, log)

	server := httpserver.NewServer(httpserver.ServerConfig{
		Host:                 cfg.ServerHost,
		Port:                 cfg.ServerPort,
		CORSEnabled:          cfg.CORSEnabled,
		CORSAllowedOrigins:   cfg.CORSAllowedOrigins,
		CORSAllowCredentials: cfg.CORSAllowCredentials,
	}, authHandler, payoutHandler, vendorHandler, dashboardHandler)

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "server starting", map[string]interface{}{
			"host":    cfg.ServerHost,
			"port":    cfg.ServerPort,
			"version": version,
		})
		errCh <- server.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			log.Error(ctx, "server error", err, nil)
			os.Exit(1)
		}
	case sig := <-quit:
		log.Info(ctx, "shutdown signal received", map[string]interface{}{"signal": sig.String()})

		shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error(ctx, "graceful shutdown failed", err, nil)
			os.Exit(1)
		}
		log.Info(ctx, "server stopped", nil)
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/diagnosis/visitor-register/internal/http/handlers"
	"github.com/diagnosis/visitor-register/internal/http/middleware"
	"github.com/diagnosis/visitor-register/internal/notify"
	"github.com/diagnosis/visitor-register/internal/platform/mailer"
	"github.com/diagnosis/visitor-register/internal/repository"
	"github.com/diagnosis/visitor-register/internal/service"
	"github.com/diagnosis/visitor-register/pkg/config"
	"github.com/diagnosis/visitor-register/pkg/database"
	"github.com/diagnosis/visitor-register/pkg/events"
	"github.com/diagnosis/visitor-register/pkg/logger"
	"github.com/diagnosis/visitor-register/pkg/metrics"
	mw "github.com/diagnosis/visitor-register/pkg/middleware"
)

const serviceName = "visitor-register"

func main() {
	if err := run(); err != nil {
		logger.Error("Visitor register stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to database
	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, pool); err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}
	}

	rdb, err := repository.NewRedisClient(ctx, cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer rdb.Close()

	// Connect to event bus
	eventBus, err := events.NewNATSEventBus(cfg.NATS.URL)
	if err != nil {
		return err
	}
	defer eventBus.Close()

	// Initialize repositories
	visitorRepo := repository.NewVisitorRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	credRepo := repository.NewCredentialRepository(pool)
	rateLimitRepo := repository.NewRateLimitRepository(pool)
	idempotencyStore := repository.NewRedisIdempotencyStore(rdb)

	m := metrics.New(serviceName)
	identity := service.ContextIdentity{}

	// Initialize services
	visitorService := service.NewVisitorService(visitorRepo, userRepo, identity, eventBus, cfg.Visitors,
		service.WithMetrics(m))
	userService := service.NewUserService(userRepo, eventBus)
	authService := service.NewAuthService(credRepo, userRepo, identity, cfg.Auth)

	h := handlers.New(visitorService, userService, authService, identity)

	proxies, err := middleware.ParseTrustedProxies(cfg.Server.TrustedProxies)
	if err != nil {
		return err
	}
	loginLimiter := middleware.NewRateLimiter(rateLimitRepo, middleware.RateLimitConfig{
		Requests: cfg.Auth.LoginRateLimit,
		Window:   cfg.Auth.LoginRateWindow,
		KeyFunc:  middleware.LoginRateLimitKeyFunc(proxies),
	})

	// Setup router
	r := chi.NewRouter()

	r.Use(mw.RequestID)
	r.Use(mw.ServiceName(serviceName))
	r.Use(mw.Logging)
	r.Use(mw.CORS(cfg.Server.AllowedOrigins))
	r.Use(mw.Health)
	r.Use(mw.Metrics(m))

	h.Routes(r, handlers.RouteOptions{
		RequireJWT:     middleware.RequireJWT(cfg.Auth.JWTSecret),
		LoginRateLimit: loginLimiter.Middleware(),
		Idempotency: mw.IdempotencyMiddleware(idempotencyStore, cfg.Redis.IdempotencyTTL, func(r *http.Request) string {
			if claims := middleware.Claims(r); claims != nil {
				return claims.Subject
			}
			return ""
		}),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting visitor register", "port", cfg.Server.Port, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutting down visitor register...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	if cfg.Visitors.NotifyHost {
		notifier := notify.New(eventBus, userRepo,
			mailer.New(cfg.Email.MailerSendKey, cfg.Email.FromName, cfg.Email.FromEmail, cfg.Email.DevMode),
			cfg.NATS.NotifyQueue)
		g.Go(func() error {
			return notifier.Run(ctx)
		})
	}

	g.Go(func() error {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				n, err := rateLimitRepo.CleanupExpired(ctx)
				if err != nil {
					logger.Warn("Rate limit cleanup failed", "error", err)
					continue
				}
				logger.Debug("Rate limit cleanup", "deleted", n)
			}
		}
	})

	return g.Wait()
}

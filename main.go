package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/clearvision/midnight-tickets/config"
	"github.com/clearvision/midnight-tickets/internal/auth"
	"github.com/clearvision/midnight-tickets/internal/consumer"
	"github.com/clearvision/midnight-tickets/internal/handler"
	"github.com/clearvision/midnight-tickets/internal/metrics"
	"github.com/clearvision/midnight-tickets/internal/middleware"
	"github.com/clearvision/midnight-tickets/internal/notify"
	"github.com/clearvision/midnight-tickets/internal/qr"
	"github.com/clearvision/midnight-tickets/internal/ratelimit"
	"github.com/clearvision/midnight-tickets/internal/repository"
	"github.com/clearvision/midnight-tickets/internal/retry"
	"github.com/clearvision/midnight-tickets/internal/service"
	"github.com/clearvision/midnight-tickets/pkg/database"
	"github.com/clearvision/midnight-tickets/pkg/mailer"
	"github.com/clearvision/midnight-tickets/pkg/rabbitmq"
	redisclient "github.com/clearvision/midnight-tickets/pkg/redis"
	"github.com/labstack/echo/v4"
	echoMw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgresDB(cfg.DSN())
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	m := metrics.New(prometheus.DefaultRegisterer)

	// Repositories
	ticketRepo := repository.NewTicketRepository(db)
	emailLogRepo := repository.NewEmailLogRepository(db)

	// Rate limiter: Redis when configured, process memory otherwise
	var limiter ratelimit.Limiter = ratelimit.NewMemory(cfg.RateLimit.Limit, cfg.RateLimit.Window)
	rdb, err := redisclient.New(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error("failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	if rdb != nil {
		defer rdb.Close()
		limiter = ratelimit.NewRedis(rdb, cfg.RateLimit.Limit, cfg.RateLimit.Window)
		logger.Info("rate limiter backed by redis")
	}

	// Email
	var transport mailer.Transport = mailer.LogTransport{Logger: logger.With("component", "mail-transport")}
	if cfg.SMTP.Enabled() {
		smtp, err := mailer.NewSMTP(mailer.Config{
			Host:   cfg.SMTP.Host,
			Port:   cfg.SMTP.Port,
			Secure: cfg.SMTP.Secure,
			User:   cfg.SMTP.User,
			Pass:   cfg.SMTP.Pass,
			From:   cfg.SMTP.FromAddress(),
		})
		if err != nil {
			logger.Error("failed to configure SMTP", "error", err)
			os.Exit(1)
		}
		transport = smtp
	} else {
		logger.Warn("EMAIL_USER/EMAIL_PASS not set, emails will only be logged")
	}
	sender := notify.NewMailer(transport, emailLogRepo, retry.Default(), m)

	deps := service.Deps{
		Tickets:   ticketRepo,
		EmailLogs: emailLogRepo,
		Sender:    sender,
		QR:        qr.New(512),
		Metrics:   m,
	}

	// RabbitMQ is optional: lifecycle events and door scanner check-ins
	var mqConsumer *rabbitmq.Consumer
	if cfg.RabbitURL != "" {
		publisher, err := rabbitmq.NewPublisher(cfg.RabbitURL)
		if err != nil {
			logger.Error("failed to connect to RabbitMQ", "error", err)
			os.Exit(1)
		}
		defer publisher.Close()
		deps.Publisher = publisher

		mqConsumer, err = rabbitmq.NewConsumer(cfg.RabbitURL)
		if err != nil {
			logger.Error("failed to connect to RabbitMQ", "error", err)
			os.Exit(1)
		}
		defer mqConsumer.Close()
	}

	// Service
	ticketSvc := service.NewTicketService(deps, service.Options{
		StrictIDValidation: cfg.StrictIDValidation,
		IDChecksum:         cfg.IDChecksum,
		VerifyURL:          cfg.VerifyURL,
	})

	if mqConsumer != nil {
		msgs, err := mqConsumer.Consume()
		if err != nil {
			logger.Error("failed to start consuming", "error", err)
			os.Exit(1)
		}
		consumer.NewCheckInConsumer(ticketSvc, m).Start(ctx, msgs)
	}

	authSvc := auth.NewService(cfg.Admin.APIKey, cfg.Admin.JWTSecret, cfg.Admin.TokenTTL)
	if cfg.Admin.APIKey == "" {
		logger.Warn("ADMIN_API_KEY not set, admin routes will reject every request")
	}

	// Echo
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = middleware.ErrorHandler
	e.IPExtractor = echo.ExtractIPFromXFFHeader()
	e.Use(echoMw.RequestLoggerWithConfig(echoMw.RequestLoggerConfig{
		LogStatus:   true,
		LogURI:      true,
		LogMethod:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v echoMw.RequestLoggerValues) error {
			attrs := []any{"method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency}
			if v.Error != nil {
				logger.Warn("request", append(attrs, "error", v.Error)...)
				return nil
			}
			logger.Info("request", attrs...)
			return nil
		},
	}))
	e.Use(echoMw.Recover())

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok", "service": "midnight-tickets"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	limit := middleware.RateLimit(limiter, m)
	handler.NewPublicHandler(cfg.Pricing).RegisterRoutes(e)
	handler.NewTicketHandler(ticketSvc).RegisterRoutes(e, limit)
	handler.NewAdminHandler(ticketSvc, authSvc).RegisterRoutes(e, limit)

	go func() {
		logger.Info("ticket service starting", "port", cfg.ServerPort)
		if err := e.Start(":" + cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
	logger.Info("ticket service stopped")
}

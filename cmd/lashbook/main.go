package main

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/lashbook/lashbook/internal/config"
	"github.com/lashbook/lashbook/internal/db"
	"github.com/lashbook/lashbook/internal/email"
	"github.com/lashbook/lashbook/internal/handlers"
	"github.com/lashbook/lashbook/internal/httpx"
	"github.com/lashbook/lashbook/internal/kafkax"
	"github.com/lashbook/lashbook/internal/model"
	"github.com/lashbook/lashbook/internal/notify"
	"github.com/lashbook/lashbook/internal/otelx"
	"github.com/lashbook/lashbook/internal/outbox"
	"github.com/lashbook/lashbook/internal/runtime"
	"github.com/lashbook/lashbook/internal/storage"
	"github.com/lashbook/lashbook/internal/sweep"
	"github.com/lashbook/lashbook/internal/webhook"
)

func main() {
	service := config.String("SERVICE_NAME", "lashbook")
	port, err := config.Port("PORT", "8080")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}
	paystackSecret, err := config.RequiredString("PAYSTACK_SECRET_KEY")
	if err != nil {
		panic(err)
	}

	loc, err := time.LoadLocation(config.String("BUSINESS_TIMEZONE", "Africa/Lagos"))
	if err != nil {
		logger.Error("invalid business timezone", "err", err)
		panic(err)
	}
	settings := model.BookingSettings{
		StartHour:       config.Int("BUSINESS_OPEN_HOUR", 9),
		EndHour:         config.Int("BUSINESS_CLOSE_HOUR", 18),
		IntervalMinutes: config.Int("SLOT_INTERVAL_MINUTES", 30),
		Location:        loc,
	}

	pool, err := db.Open(ctx, dbURL)
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	if err := storage.Migrate(ctx, pool); err != nil {
		logger.Error("schema migration failed", "err", err)
		panic(err)
	}

	appointments := storage.NewAppointmentRepository(pool)
	payments := storage.NewPaymentRepository(pool)
	blackouts := storage.NewBlackoutRepository(pool)
	outboxRepo := outbox.NewRepository(pool)

	sender := email.NewSMTPSender(
		config.String("SMTP_HOST", "localhost"),
		config.String("SMTP_PORT", "1025"),
		config.String("SMTP_FROM", ""),
	)
	snapshots := notify.NewSnapshotStore(notify.DefaultSnapshotTTL)
	go snapshots.Run(ctx)

	notifier := &notify.Notifier{
		Snapshots:    snapshots,
		Mail:         sender,
		AdminEmail:   config.String("ADMIN_NOTIFICATION_EMAIL", ""),
		BusinessName: config.String("BUSINESS_NAME", "LashBook"),
		Location:     loc,
		Logger:       logger,
	}

	processor := &webhook.Processor{
		Appointments: appointments,
		Payments:     payments,
		Notifier:     notifier,
		Logger:       logger,
	}

	kafkaBrokers := config.String("KAFKA_BROKERS", "")
	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   kafkaBrokers,
		PollEvery: 2 * time.Second,
		BatchSize: 50,
	})
	go outboxPublisher.Run(ctx)

	sweeper := &sweep.Sweeper{
		Appointments: appointments,
		TTL:          time.Duration(config.Int("PENDING_TTL_MINUTES", 30)) * time.Minute,
		Every:        10 * time.Minute,
		Logger:       logger,
	}
	go sweeper.Run(ctx)

	appointmentHandler := handlers.NewAppointmentHandler(appointments, outboxRepo, notifier, logger)
	availabilityHandler := handlers.NewAvailabilityHandler(appointments, blackouts, settings, logger)
	webhookHandler := handlers.NewWebhookHandler(paystackSecret, processor, outboxRepo, logger)
	blackoutHandler := handlers.NewBlackoutHandler(blackouts, logger)
	paymentHandler := handlers.NewPaymentHandler(payments, logger)

	checks := []runtime.ReadyCheck{
		{Name: "db", Check: db.ReadyCheck(pool)},
	}
	if kafkaBrokers != "" {
		checks = append(checks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(kafkaBrokers)})
	}
	mux := runtime.NewBaseMuxWithReady(checks...)
	mux.HandleFunc("/api/v1/appointments/slots", availabilityHandler.Slots)
	mux.HandleFunc("/api/v1/appointments/update", appointmentHandler.Update)
	mux.HandleFunc("/api/v1/appointments/get", appointmentHandler.Get)
	mux.HandleFunc("/api/v1/appointments", appointmentHandler.Create)
	mux.HandleFunc("/api/v1/webhooks/paystack", webhookHandler.Paystack)
	mux.HandleFunc("/api/v1/blackouts", blackoutHandler.Handle)
	mux.HandleFunc("/api/v1/payments/get", paymentHandler.Get)

	rateLimit := rateLimitMiddleware(logger)
	httpHandler := httpx.Chain(mux,
		httpx.WithCORS(splitOrigins(config.String("CORS_ALLOWED_ORIGINS", "*"))),
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithBodyLimit(1<<20),
		httpx.WithTimeout(30*time.Second),
		rateLimit,
	)
	httpHandler = otelhttp.NewHandler(httpHandler, service)
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}

func splitOrigins(raw string) []string {
	var origins []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			origins = append(origins, part)
		}
	}
	return origins
}

// rateLimitMiddleware prefers the shared Redis window when REDIS_ADDR is
// set; a single instance falls back to the in-process limiter.
func rateLimitMiddleware(logger *slog.Logger) httpx.Middleware {
	limit := config.Int("RATE_LIMIT_PER_MINUTE", 120)
	if addr := config.String("REDIS_ADDR", ""); addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: addr})
		return httpx.NewRedisRateLimiter(rdb, limit, time.Minute, "lashbook:rl").Middleware(logger, true)
	}
	return httpx.NewRateLimiter(limit, time.Minute).Middleware()
}

package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/termiplan/termiplan/internal/booking"
	"github.com/termiplan/termiplan/internal/handlers"
	"github.com/termiplan/termiplan/internal/notify"
	"github.com/termiplan/termiplan/internal/outbox"
	"github.com/termiplan/termiplan/internal/seed"
	"github.com/termiplan/termiplan/internal/slots"
	"github.com/termiplan/termiplan/internal/storage"
	"github.com/termiplan/termiplan/libs/config"
	"github.com/termiplan/termiplan/libs/db"
	"github.com/termiplan/termiplan/libs/httpx"
	"github.com/termiplan/termiplan/libs/kafkax"
	otelx "github.com/termiplan/termiplan/libs/otel"
	"github.com/termiplan/termiplan/libs/runtime"
)

func main() {
	config.LoadDotenv()
	service := config.String("SERVICE_NAME", "booking-api")
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

	var (
		store      storage.Store
		events     booking.EventSink
		readiness  []runtime.ReadyCheck
		kafkaAddrs = config.String("KAFKA_BROKERS", "")
	)

	if dbURL := config.String("DATABASE_URL", ""); dbURL != "" {
		pool, err := db.Open(ctx, dbURL, db.Options{
			MaxConns: int32(config.Int("DB_MAX_CONNS", 10)),
		})
		if err != nil {
			logger.Error("db connection failed", "err", err)
			panic(err)
		}
		defer pool.Close()
		readiness = append(readiness, runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)})

		if config.Bool("AUTO_MIGRATE", true) {
			if err := storage.Migrate(ctx, pool); err != nil {
				logger.Error("migrations failed", "err", err)
				panic(err)
			}
		}

		store = storage.NewPgStore(pool)

		outboxRepo := outbox.NewRepository(pool)
		events = outboxRepo
		publisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
			Brokers:   kafkaAddrs,
			PollEvery: 2 * time.Second,
			BatchSize: 50,
		})
		go publisher.Run(ctx)
		if kafkaAddrs != "" {
			readiness = append(readiness, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(kafkaAddrs)})
		}
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory store")
		store = storage.NewMemoryStore()
	}

	if config.Bool("SEED", false) {
		if err := seed.Run(ctx, store, logger); err != nil {
			logger.Error("seed failed", "err", err)
			panic(err)
		}
	}

	reserving := booking.NewService(store, notify.NewLogNotifier(logger), events, logger)
	generator := slots.NewGenerator(store)

	middlewares := []httpx.Middleware{
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithBodyLimit(1 << 20),
	}
	limit := config.Int("RATE_LIMIT_PER_MINUTE", 120)
	if redisAddr := config.String("REDIS_ADDR", ""); redisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
		defer rdb.Close()
		limiter := httpx.NewRedisRateLimiter(rdb, limit, time.Minute, service)
		middlewares = append(middlewares, limiter.Middleware(logger, config.Bool("RATE_LIMIT_FAIL_OPEN", true)))
		readiness = append(readiness, runtime.ReadyCheck{Name: "redis", Check: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}})
	} else {
		middlewares = append(middlewares, httpx.NewRateLimiter(limit, time.Minute).Middleware())
	}
	if origins := config.String("CORS_ALLOWED_ORIGINS", ""); origins != "" {
		middlewares = append(middlewares, httpx.WithCORS(httpx.CORSPolicy{
			AllowedOrigins: strings.Split(origins, ","),
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
			AllowedHeaders: []string{"Content-Type", httpx.RequestIDHeader},
		}))
	}

	mux := runtime.NewBaseMux(readiness...)
	api := handlers.New(store, reserving, generator, logger)
	api.Register(mux)

	httpHandler := httpx.Chain(mux, middlewares...)
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

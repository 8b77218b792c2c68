package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	adminhandler "bloodbridge/internal/admin/handler"
	adminservice "bloodbridge/internal/admin/service"
	adminstore "bloodbridge/internal/admin/store"
	donorhandler "bloodbridge/internal/donor/handler"
	donorservice "bloodbridge/internal/donor/service"
	donorstore "bloodbridge/internal/donor/store"
	identityhandler "bloodbridge/internal/identity/handler"
	identityservice "bloodbridge/internal/identity/service"
	identitystore "bloodbridge/internal/identity/store"
	"bloodbridge/internal/identity/store/revocation"
	jwttoken "bloodbridge/internal/jwt_token"
	matchinghandler "bloodbridge/internal/matching/handler"
	matchingservice "bloodbridge/internal/matching/service"
	matchingstore "bloodbridge/internal/matching/store"
	"bloodbridge/internal/platform/config"
	"bloodbridge/internal/platform/httpserver"
	"bloodbridge/internal/platform/logger"
	"bloodbridge/internal/platform/metrics"
	platformmw "bloodbridge/internal/platform/middleware"
	"bloodbridge/internal/platform/postgres"
	platformredis "bloodbridge/internal/platform/redis"
	requesthandler "bloodbridge/internal/request/handler"
	requestservice "bloodbridge/internal/request/service"
	requeststore "bloodbridge/internal/request/store"
	"bloodbridge/pkg/platform/tx"
)

// revocationStore is written on logout and read by the auth middleware.
type revocationStore interface {
	identityservice.RevocationList
	platformmw.TokenRevocationChecker
}

// main wires the stores, services, and HTTP surface together and owns the
// server lifecycle. Business rules live in the internal service packages.
func main() {
	cfg := config.Load()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("postgres connection failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := postgres.EnsureSchema(ctx, db); err != nil {
		log.Error("schema setup failed", "error", err)
		os.Exit(1)
	}

	// Redis is optional. Without it the revocation list lives in memory and
	// logouts do not survive restarts.
	var revocationList revocationStore
	redisClient, err := platformredis.New(ctx, cfg.RedisURL)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		revocationList = revocation.NewRedisTRL(redisClient.Client)
		log.Info("token revocation list backed by redis")
	} else {
		revocationList = revocation.NewMemoryTRL()
		log.Warn("token revocation list is in-memory, logouts reset on restart")
	}

	m := metrics.New()
	tokens := jwttoken.NewService(cfg.JWTSigningKey, "bloodbridge", cfg.TokenTTL)
	jwtValidator := jwttoken.NewMiddlewareAdapter(tokens)
	runner := tx.NewSQLRunner(db)

	identities := identitystore.NewPostgres(db)
	donors := donorstore.NewPostgres(db)
	requests := requeststore.NewPostgres(db)

	identitySvc := identityservice.New(identities, tokens,
		identityservice.WithLogger(log),
		identityservice.WithMetrics(m),
		identityservice.WithRevocationList(revocationList),
	)
	donorSvc := donorservice.New(identities, donors, runner,
		donorservice.WithLogger(log),
		donorservice.WithMetrics(m),
	)
	requestSvc := requestservice.New(requests, donors, identities, runner,
		requestservice.WithLogger(log),
		requestservice.WithMetrics(m),
	)
	matchingSvc := matchingservice.New(matchingstore.NewPostgres(db),
		matchingservice.WithLogger(log),
	)
	adminSvc := adminservice.New(identities, donorSvc, requestSvc,
		adminstore.NewPostgres(db), runner,
		adminservice.WithLogger(log),
	)

	identityH := identityhandler.New(identitySvc, log, jwtValidator, revocationList)
	donorH := donorhandler.New(donorSvc, requestSvc, log, jwtValidator, revocationList)
	requestH := requesthandler.New(requestSvc, log, jwtValidator, revocationList)
	matchingH := matchinghandler.New(matchingSvc, log, jwtValidator)
	adminH := adminhandler.New(adminSvc, log, jwtValidator, revocationList)

	r := chi.NewRouter()
	r.Use(platformmw.RequestID)
	r.Use(platformmw.Recovery(log))
	r.Use(platformmw.Logger(log))
	r.Use(platformmw.Latency(m))
	r.Use(platformmw.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if err := db.PingContext(req.Context()); err != nil {
			http.Error(w, "unhealthy", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			identityH.Register(r)
			donorH.RegisterSignup(r)
		})
		r.Route("/donor", func(r chi.Router) {
			donorH.Register(r)
			matchingH.Register(r)
		})
		r.Route("/blood/request", requestH.Register)
		r.Route("/admin", adminH.Register)
	})

	srv := httpserver.New(cfg.Addr, r)

	go func() {
		log.Info("server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}

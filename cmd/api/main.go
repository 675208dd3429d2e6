package main

import (
	"database/sql"
	"net/http"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	server "github.com/Meliodas1827/Pagsanjan-sub000/internal/adapters/http_server"
	"github.com/Meliodas1827/Pagsanjan-sub000/internal/adapters/observability"
	"github.com/Meliodas1827/Pagsanjan-sub000/internal/adapters/payments"
	redisad "github.com/Meliodas1827/Pagsanjan-sub000/internal/adapters/redis"
	"github.com/Meliodas1827/Pagsanjan-sub000/internal/app"
	"github.com/Meliodas1827/Pagsanjan-sub000/internal/domain"
	"github.com/Meliodas1827/Pagsanjan-sub000/internal/shared"
	mysqlrepo "github.com/Meliodas1827/Pagsanjan-sub000/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	observability.Serve()

	// db
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("database connection ok")

	// deps
	repo := mysqlrepo.New(db)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)

	// Without a payments collaborator the service trusts locally attached
	// proof refs (front desk records them by hand).
	var pay domain.PaymentsClient
	if cfg.PaymentsBase != "" {
		pc, err := payments.New(cfg.PaymentsBase, cfg.PaymentsKey, cfg.PaymentsRPS)
		if err != nil {
			log.Fatal().Err(err).Msg("payments client init failed")
		}
		pay = pc
	}

	locks := app.NewResourceLocks(cfg.LockWait)
	policy := app.Policy{DepositPct: cfg.DepositPct, LimitedPct: cfg.LimitedPct}
	booking := app.NewBookingService(repo, cache, pay, locks, policy)
	availability := app.NewAvailabilityService(repo, repo, cache, cfg.CacheTTL, cfg.LimitedPct)
	catalog := app.NewCatalogService(repo, cache, cfg.CacheTTL)

	// http
	srv := server.New()
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{
		Catalog:      catalog,
		Booking:      booking,
		Availability: availability,
		SubmitRPS:    cfg.SubmitRPS,
	})

	log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux()}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}

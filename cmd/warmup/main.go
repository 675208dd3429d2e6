package main

import (
	"context"
	"database/sql"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"github.com/Meliodas1827/Pagsanjan-sub000/internal/adapters/observability"
	redisad "github.com/Meliodas1827/Pagsanjan-sub000/internal/adapters/redis"
	"github.com/Meliodas1827/Pagsanjan-sub000/internal/app"
	"github.com/Meliodas1827/Pagsanjan-sub000/internal/shared"
	mysqlrepo "github.com/Meliodas1827/Pagsanjan-sub000/internal/storage/mysql"
)

// warmup precomputes availability calendars for the next few months so the
// first guest of the day does not pay the derivation cost. Run from cron
// after nightly restores or cache flushes.
func main() {
	ctx := context.Background()
	cfg := shared.Load()

	// 1) initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	log.Info().
		Int("workers", cfg.WarmupWorkers).
		Int("months", cfg.WarmupMonths).
		Msg("warmup starting")

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	repo := mysqlrepo.New(db)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	if err := cache.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("redis ping failed")
	}

	availability := app.NewAvailabilityService(repo, repo, cache, cfg.CacheTTL, cfg.LimitedPct)

	resources, err := repo.ListResources(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("list resources failed")
	}

	months := make([]string, 0, cfg.WarmupMonths)
	now := time.Now().UTC()
	for i := 0; i < cfg.WarmupMonths; i++ {
		months = append(months, now.AddDate(0, i, 0).Format("2006-01"))
	}

	sem := semaphore.NewWeighted(int64(cfg.WarmupWorkers))
	var wg sync.WaitGroup

	for _, res := range resources {
		for _, ym := range months {
			// acquire before launching the goroutine; release inside it
			if err := sem.Acquire(ctx, int64(1)); err != nil {
				log.Fatal().Err(err).Msg("semaphore acquire failed")
			}

			wg.Add(1)
			go func(resourceID int64, ym string) {
				defer wg.Done()
				defer sem.Release(int64(1))

				if _, err := availability.Month(ctx, resourceID, ym); err != nil {
					log.Warn().Int64("id", resourceID).Str("month", ym).Err(err).Msg("warmup failed")
					return
				}
				log.Info().Int64("id", resourceID).Str("month", ym).Msg("warmup ok")
			}(res.ID, ym)
		}
	}

	wg.Wait()
	log.Info().Msg("warmup completed")
}

package shared

import (
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv        string
	HTTPAddr      string
	MetricsAddr   string
	MySQLDSN      string
	RedisAddr     string
	RedisDB       int
	RedisPass     string
	PaymentsBase  string
	PaymentsKey   string
	PaymentsRPS   int
	CacheTTL      time.Duration
	LockWait      time.Duration
	DepositPct    float64
	LimitedPct    float64
	SubmitRPS     float64
	WarmupWorkers int
	WarmupMonths  int
}

func Load() Config {
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	atof := func(k string, def float64) float64 {
		if v := os.Getenv(k); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				return f
			}
		}
		return def
	}
	c := Config{
		AppEnv:        env("APP_ENV", "prod"),
		HTTPAddr:      env("HTTP_ADDR", ":8080"),
		MetricsAddr:   env("METRICS_ADDR", ":9100"),
		MySQLDSN:      env("MYSQL_DSN", "root:root@tcp(localhost:3306)/pagsanjan?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:     env("REDIS_ADDR", "localhost:6379"),
		RedisDB:       atoi("REDIS_DB", 0),
		RedisPass:     env("REDIS_PASSWORD", ""),
		PaymentsBase:  env("PAYMENTS_BASE_URL", ""),
		PaymentsKey:   env("PAYMENTS_API_KEY", ""),
		PaymentsRPS:   atoi("PAYMENTS_RPS", 5),
		CacheTTL:      time.Duration(atoi("CACHE_TTL_SECONDS", 900)) * time.Second,
		LockWait:      time.Duration(atoi("LOCK_WAIT_MS", 3000)) * time.Millisecond,
		DepositPct:    atof("DEPOSIT_PERCENT", 0.5),
		LimitedPct:    atof("LIMITED_THRESHOLD_PCT", 0.2),
		SubmitRPS:     atof("SUBMIT_RPS", 2),
		WarmupWorkers: atoi("WARMUP_WORKERS", 8),
		WarmupMonths:  atoi("WARMUP_MONTHS", 3),
	}
	if c.PaymentsBase != "" && c.PaymentsKey == "" {
		log.Warn().Msg("PAYMENTS_API_KEY is empty")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"farewatch/cfg"
	"farewatch/internal/flight"
	"farewatch/internal/store"
	"farewatch/internal/tracking"
	"farewatch/pkg/amadeus"
	"farewatch/pkg/cache"
	"farewatch/pkg/clock"
	"farewatch/pkg/db"
	"farewatch/pkg/idgen"
	"farewatch/pkg/logger"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// app holds every long-lived dependency shared by serve and scan.
type app struct {
	sql      *db.SQLClient
	redis    *cache.RedisCache
	cache    cache.Cache
	registry *prometheus.Registry
	gateway  *amadeus.Client
	store    *store.PostgresStore
	clock    clock.Clock

	flights  *flight.Service
	tracking *tracking.Service
	scanner  *tracking.Scanner
}

func newApp(ctx context.Context, config *cfg.Config, log logger.Client) (*app, error) {
	a := &app{clock: clock.NewRealClock(), registry: prometheus.NewRegistry()}
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// ============
	// Postgres
	// ============
	sqlClient, err := db.NewSQLClient(ctx, "postgres", db.PostgresConfig(config.Postgres).DSN(), db.PoolConfig{
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 30 * time.Minute,
	})
	if err != nil {
		return nil, err
	}
	a.sql = sqlClient

	ids, err := idgen.NewSnowflake(config.SnowflakeNodeID)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.store = store.NewPostgresStore(sqlClient, ids)

	// ============
	// Cache
	// ============
	if addr := config.RedisAddr(); addr != "" {
		a.redis = cache.NewRedisCache(cache.RedisConfig{Addr: addr, Password: config.RedisConfig.Password})
		if err := a.redis.Ping(ctx); err != nil {
			a.Close()
			return nil, fmt.Errorf("redis ping %s: %w", addr, err)
		}
		a.cache = a.redis
	} else {
		log.Warn("redis_not_configured_using_memory_cache")
		a.cache = cache.NewMemory()
	}

	// ============
	// External Service
	// ============
	httpClient := &http.Client{Timeout: config.Amadeus.Timeout}
	a.gateway = amadeus.NewClient(httpClient, amadeus.Config{
		BaseURL:      config.Amadeus.BaseURL,
		ClientID:     config.Amadeus.ClientID,
		ClientSecret: config.Amadeus.ClientSecret,
		MaxRPS:       config.Amadeus.MaxRPS,
	}, log)

	// ============
	// Internal Service
	// ============
	a.flights = flight.NewService(a.gateway, a.cache, config.CacheTTLMinutes, flight.LabelsFor(config.LabelLocale), log)

	metrics := tracking.NewMetrics(a.registry)
	evaluator := tracking.NewAlertEvaluator(a.store, a.store, a.clock, metrics, log)
	a.scanner = tracking.NewScanner(a.store, a.store, a.gateway, evaluator, tracking.ScannerConfig{
		Concurrency: config.Scanner.Concurrency,
		Adults:      config.Scanner.Adults,
	}, a.clock, metrics, log)
	a.tracking = tracking.NewService(a.store, a.clock, log)

	return a, nil
}

func (a *app) ping(ctx context.Context) error {
	var errs []error
	if err := a.sql.DB().PingContext(ctx); err != nil {
		errs = append(errs, fmt.Errorf("postgres: %w", err))
	}
	if a.redis != nil {
		if err := a.redis.Ping(ctx); err != nil {
			errs = append(errs, fmt.Errorf("redis: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (a *app) Close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.sql != nil {
		_ = a.sql.Close()
	}
}

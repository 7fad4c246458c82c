package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-scheduling/internal/api"
	"github.com/hackgods/clinic-scheduling/internal/config"
	"github.com/hackgods/clinic-scheduling/internal/db"
	"github.com/hackgods/clinic-scheduling/internal/events"
	"github.com/hackgods/clinic-scheduling/internal/ids"
	"github.com/hackgods/clinic-scheduling/internal/logging"
	"github.com/hackgods/clinic-scheduling/internal/metrics"
	redisclient "github.com/hackgods/clinic-scheduling/internal/redis"
	"github.com/hackgods/clinic-scheduling/internal/scheduling"
	"github.com/hackgods/clinic-scheduling/internal/telemetry"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := zerolog.New(os.Stderr)
		bootLog.Fatal().Err(err).Msg("config load error")
	}

	log := logging.New("clinic-api", cfg.Env, cfg.LogLevel)
	log.Info().Str("env", cfg.Env).Str("http_port", cfg.HTTPPort).Msg("api-server starting up")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := telemetry.SetupTracing(rootCtx, telemetry.Config{
		ServiceName:    "clinic-api",
		ServiceVersion: version,
		Environment:    cfg.Env,
		Exporter:       cfg.Tracing.Exporter,
		OTLPEndpoint:   cfg.Tracing.OTLPEndpoint,
		OTLPInsecure:   cfg.Tracing.OTLPInsecure,
		SampleRatio:    cfg.Tracing.SampleRatio,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("tracing init")
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("tracer shutdown failed")
		}
	}()
	log.Info().Str("exporter", cfg.Tracing.Exporter).Float64("sample_ratio", cfg.Tracing.SampleRatio).Msg("tracing enabled")

	sinks := events.Fanout{events.LogSink{Logger: log.With().Str("component", "events").Logger()}}
	health := api.NewHealthHandler(cfg.Env, version)

	if cfg.PostgresDSN != "" {
		pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
		pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
		if err == nil {
			err = db.EnsureSchema(pgCtx, pgPool)
		}
		cancelPg()
		if err != nil {
			log.Fatal().Err(err).Msg("postgres connection error")
		}
		defer pgPool.Close()

		sinks = append(sinks, events.NewPgJournal(pgPool))
		health.WithDependency("postgres", pgPool.Ping, true)
		log.Info().Msg("connected to Postgres, event journal enabled")
	}

	if cfg.RedisAddr != "" {
		rdb, err := redisclient.NewRedisClient(rootCtx, cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
		if err != nil {
			log.Fatal().Err(err).Msg("redis connection error")
		}
		defer func() {
			if err := rdb.Close(); err != nil {
				log.Error().Err(err).Msg("error closing redis")
			}
		}()

		sinks = append(sinks, events.NewRedisPublisher(rdb, cfg.EventChannel))
		health.WithDependency("redis", redisPing(rdb), false)
		log.Info().Str("channel", cfg.EventChannel).Msg("connected to Redis, event publisher enabled")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	idGen, err := ids.New(cfg.IDStrategy, time.Now)
	if err != nil {
		log.Fatal().Err(err).Msg("id generator")
	}

	sched, err := scheduling.New(scheduling.Options{
		Policy: scheduling.CalendarPolicy{
			Anchor:       cfg.Calendar.Anchor,
			Days:         cfg.Calendar.Days,
			OpenHour:     cfg.Calendar.OpenHour,
			CloseHour:    cfg.Calendar.CloseHour,
			SlotWidth:    cfg.Calendar.SlotWidth,
			SkipWeekends: cfg.Calendar.SkipWeekends,
		},
		IDs:     idGen,
		Sink:    sinks,
		Metrics: metrics.NewSchedulerMetrics(reg),
		Logger:  log.With().Str("component", "scheduler").Logger(),

		TracerProvider: tp,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("scheduler init")
	}
	log.Info().
		Time("anchor", cfg.Calendar.Anchor).
		Int("days", cfg.Calendar.Days).
		Dur("slot_width", cfg.Calendar.SlotWidth).
		Msg("calendar policy loaded")

	srv := &http.Server{
		Addr: ":" + cfg.HTTPPort,
		Handler: api.NewRouter(api.RouterConfig{
			Service:  sched,
			Health:   health,
			Gatherer: reg,
			Logger:   log.With().Str("component", "http").Logger(),
		}),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return rootCtx },
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-rootCtx.Done():
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("http server failed")
		}
	}

	log.Info().Msg("shutting down api-server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

func redisPing(rdb *redis.Client) api.Check {
	return func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	}
}

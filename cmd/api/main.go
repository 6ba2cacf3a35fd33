package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"permits-platform/internal/audit"
	"permits-platform/internal/auth"
	"permits-platform/internal/config"
	"permits-platform/internal/httpapi"
	"permits-platform/internal/identity"
	"permits-platform/internal/metrics"
	"permits-platform/internal/permits"
	"permits-platform/pkg/logger"
	"permits-platform/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.DB.DSN(), utils.PostgresPoolConfig{Name: "primary"})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	dirDB, err := utils.OpenPostgres(rootCtx, "pgx", cfg.Directory.DB.DSN(), utils.PostgresPoolConfig{
		Name:         "directory",
		MaxOpenConns: 10,
		MaxIdleConns: 5,
		ReadOnly:     true,
	})
	if err != nil {
		log.Error("directory postgres init failed", "err", err)
		os.Exit(1)
	}
	defer dirDB.Close()

	var rdb *redis.Client
	if cfg.Photo.Cache == config.PhotoCacheRedis {
		rdb, err = utils.OpenRedis(rootCtx, utils.RedisConfig{
			Addr:     cfg.RedisAddr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Error("redis init failed", "err", err)
			os.Exit(1)
		}
		defer rdb.Close()
	}

	primary := identity.NewPGPrimaryStore(db)
	directory := identity.NewPGDirectoryStore(dirDB, cfg.Directory.CostCenters)
	resolver := identity.NewResolver(primary, directory,
		identity.WithPhotoURLs(identity.StaticPhotoURL{BaseURL: cfg.Photo.BaseURL}),
		identity.WithObserver(m),
		identity.WithLogger(log),
	)

	auditor := audit.NewService(audit.NewPGRepo(db), log)

	authMW := auth.NewMiddleware(authManager, resolver, auth.WithOutcomeObserver(m))
	sessions := auth.NewService(authManager, primary, directory, resolver,
		auth.WithDirectoryLogin(cfg.Directory.LoginEnabled),
		auth.WithEventRecorder(auditor),
		auth.WithLoginObserver(m),
		auth.WithServiceLogger(log),
	)

	photos := identity.NewPhotoLocator(cfg.Photo.BaseURL,
		identity.WithPhotoCache(photoCache(cfg.Photo, rdb, log)),
		identity.WithPhotoLogger(log),
	)

	h := httpapi.Handlers{
		Sessions: sessions,
		Users:    primary,
		Requests: permits.NewRepository(db),
		Photos:   photos,
	}

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))
	r.Use(m.Middleware())

	registerRoutes(r, routeDeps{
		handlers: h,
		authn:    authMW,
		auditor:  auditor,
		metrics:  m,
		health:   healthCheck(db, dirDB, rdb),
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env, "photo_cache", cfg.Photo.Cache)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
}

func photoCache(cfg config.PhotoConfig, rdb *redis.Client, log *slog.Logger) identity.PhotoCache {
	if cfg.Cache == config.PhotoCacheRedis && rdb != nil {
		return identity.NewRedisPhotoCache(rdb, cfg.CacheTTL, log)
	}
	return identity.NewLRUPhotoCache(cfg.CacheSize, cfg.CacheTTL)
}

// healthCheck pings every backing store. Redis is skipped when not configured.
func healthCheck(db, dirDB *sql.DB, rdb *redis.Client) func(ctx context.Context) map[string]error {
	return func(ctx context.Context) map[string]error {
		out := map[string]error{
			"postgres":  utils.HealthCheck(ctx, db, 2*time.Second),
			"directory": utils.HealthCheck(ctx, dirDB, 2*time.Second),
		}
		if rdb != nil {
			out["redis"] = utils.PingRedis(ctx, rdb, time.Second)
		}
		return out
	}
}

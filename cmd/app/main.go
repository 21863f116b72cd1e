package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"promptmatch/internal/config"
	"promptmatch/internal/db"
	"promptmatch/internal/game"
	httpServer "promptmatch/internal/http"
	"promptmatch/internal/http/handlers"
	"promptmatch/internal/http/middleware"
	"promptmatch/internal/logger"
	"promptmatch/internal/migrations"
	"promptmatch/internal/repository"
	"promptmatch/internal/service"
	"promptmatch/internal/store"
	"promptmatch/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	redis "github.com/redis/go-redis/v9"
)

var version = "dev"

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogJSON)

	ctx := context.Background()

	st, err := store.Open(ctx, store.Options{
		Backend:       cfg.StoreBackend,
		RedisAddr:     cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
		RedisDB:       cfg.RedisDB,
		Prefix:        cfg.RedisPrefix,
		TTL:           cfg.MatchTTL,
		NATSURL:       cfg.NATSURL,
	})
	if err != nil {
		logger.Fatal("failed to open store", "backend", cfg.StoreBackend, "error", err)
	}
	defer st.Close()

	var rdb *redis.Client
	if rs, ok := st.(*store.RedisStore); ok {
		rdb = rs.Client()
	}

	// match history is optional
	var (
		history handlers.ResultLister
		dbPing  handlers.Pinger
		results service.ResultRecorder
	)
	if cfg.DatabaseURL != "" {
		pool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Warn("match history disabled", "error", err)
		} else {
			defer pool.Close()
			if err := migrations.Apply(ctx, pool); err != nil {
				logger.Fatal("failed to migrate", "error", err)
			}
			repo := repository.NewMatchResultRepository(pool)
			history, dbPing, results = repo, pool, repo
		}
	}

	sessions := service.NewSessionService(st)
	matches := service.NewMatchService(st, results)
	tokens := service.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)
	hub := ws.NewHub(sessions, matches, cfg.EvalDelay)

	r := gin.Default()
	r.Use(middleware.CORS(cfg.AllowedOrigin))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	httpServer.RegisterRoutes(r, httpServer.Deps{
		Handler:       handlers.NewHandler(sessions, matches, tokens, game.NewFactory(), history),
		Health:        handlers.NewHealthHandler(st, dbPing, version),
		Hub:           hub,
		Tokens:        tokens,
		Redis:         rdb,
		AllowedOrigin: cfg.AllowedOrigin,
		RateLimit:     cfg.APIRateLimit,
		RateWindow:    cfg.APIRateWindow,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.AppPort,
		Handler: r,
	}

	go func() {
		logger.Info("server started", "port", cfg.AppPort, "store", cfg.StoreBackend, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")
	hub.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server exited")
}

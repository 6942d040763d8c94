package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"leadcall-api/internal/agents"
	"leadcall-api/internal/config"
	"leadcall-api/internal/dispatch"
	"leadcall-api/internal/lead"
	"leadcall-api/internal/ratelimit"
	"leadcall-api/pkg/logger"

	"github.com/gin-gonic/gin"
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

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Rate-limit store: in-process by default, Redis-backed when configured
	// so cooldowns survive restarts and span replicas.
	var store ratelimit.Store
	if cfg.RedisEnabled() {
		rdb, err := ratelimit.OpenRedis(rootCtx, ratelimit.RedisConfig{Addr: cfg.RedisAddr()})
		if err != nil {
			log.Error("redis init failed", "err", err)
			os.Exit(1)
		}
		defer rdb.Close()
		store = ratelimit.NewRedisStore(rdb)
	} else {
		store = ratelimit.NewMemoryStore()
	}

	dispatcher, err := dispatch.New(cfg.Dispatch)
	if err != nil {
		log.Error("dispatch init failed", "err", err)
		os.Exit(1)
	}

	deps := appDeps{
		enums:      lead.Enums{Niches: cfg.Agents.Niches, Voices: cfg.Agents.Voices},
		limiter:    ratelimit.NewLimiter(store, cfg.RateLimit.IPCooldown, cfg.RateLimit.PhoneCooldown),
		resolver:   agents.NewResolver(cfg.Agents, cfg.Dispatch.PhoneNumberID),
		dispatcher: dispatcher,
	}

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	registerRoutes(r, deps)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.Dispatch.Timeout + 15*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env, "dispatch_mode", string(cfg.Dispatch.Mode))
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

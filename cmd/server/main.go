package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ytget/ytinfo"
	"github.com/ytget/ytinfo/client"
	"github.com/ytget/ytinfo/internal/api/handlers"
	"github.com/ytget/ytinfo/internal/api/router"
	"github.com/ytget/ytinfo/internal/config"
	"github.com/ytget/ytinfo/internal/jsvm"
	"github.com/ytget/ytinfo/internal/logger"
	"github.com/ytget/ytinfo/youtube/cipher"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.WithComponent(logger.ComponentApp).Error("failed to load configuration", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
	if l, err := logger.CreateLoggerFromConfig(cfg.Logging); err == nil {
		logger.SetGlobalLogger(l)
	}
	log := logger.WithComponent(logger.ComponentApp)

	ev, err := jsvm.New(cfg.Engine.JSEngine, cfg.Engine.JSTimeout)
	if err != nil {
		log.Error("invalid js engine", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
	if !cfg.HTTP.VerifyTLS {
		log.Warn("outbound TLS certificate verification is disabled; set YTINFO_TLS_VERIFY=true to enable")
	}

	cache := cipher.NewProgramCache(cfg.Engine.CacheTTL)
	resolver := ytinfo.New().
		WithClient(client.NewWith(cfg.ClientConfig())).
		WithBaseURL(cfg.Engine.BaseURL).
		WithMimeTypes(cfg.Engine.VideoMime, cfg.Engine.AudioMime).
		WithEvaluator(ev).
		WithProgramCache(cache).
		WithPrefetch(cfg.Engine.Prefetch)

	if cfg.Server.Host == "0.0.0.0" {
		gin.SetMode(gin.ReleaseMode)
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	engine := router.New(ctx,
		router.Options{RateLimitRequests: cfg.API.RateLimitRequests, RateLimitWindow: cfg.API.RateLimitWindow},
		handlers.NewResolveHandler(resolver, cfg.Server.RequestTimeout),
		handlers.NewHealthHandler(version, cache),
	)

	if os.Getenv("YTINFO_PPROF") == "1" {
		startPprofServer(log)
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info("starting server", map[string]interface{}{"addr": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", map[string]interface{}{"error": err.Error()})
			os.Exit(1)
		}
	}()

	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				cache.Cleanup()
			}
		}
	}()

	<-ctx.Done()

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown failed", map[string]interface{}{"error": err.Error()})
	}
	log.Info("server shutdown complete")
}

// startPprofServer exposes the profiling endpoints on :6060.
func startPprofServer(log *logger.ComponentLogger) {
	go func() {
		mux := http.NewServeMux()
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

		log.Info("starting pprof server", map[string]interface{}{"addr": ":6060"})
		if err := http.ListenAndServe(":6060", mux); err != nil {
			log.Warn("pprof server error", map[string]interface{}{"error": err.Error()})
		}
	}()
}

package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/mindmesh/mindmesh-client/config"
	"github.com/mindmesh/mindmesh-client/internal/backend"
	"github.com/mindmesh/mindmesh-client/internal/bootstrap"
	"github.com/mindmesh/mindmesh-client/internal/logging"
)

const serviceName = "mindmesh-client"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	bootstrap.SetGinMode(cfg.App.Environment)
	level, _ := logging.ParseLevel(cfg.App.LogLevel)
	logging.SetLevel(level)

	store, err := bootstrap.OpenStore(ctx, bootstrap.StoreOptions{
		Redis:   cfg.Redis,
		Session: cfg.Session,
	})
	if err != nil {
		log.Fatalf("session store: %v", err)
	}
	defer store.Close()

	client := backend.NewClient(cfg.Backend.BaseURL, backend.Options{
		Timeout:      cfg.Backend.Timeout,
		DecisionPath: cfg.Backend.DecisionPath,
		RateLimit:    cfg.Backend.RateLimit,
		RateBurst:    cfg.Backend.RateBurst,
	})

	r := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName: serviceName,
		Version:     cfg.App.Version,
		Config:      cfg,
		Store:       store,
		Client:      client,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("%s %s listening on :%s (backend %s)", serviceName, cfg.App.Version, cfg.Server.Port, cfg.Backend.BaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
}

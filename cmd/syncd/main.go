// Command syncd runs the studygram sync daemon: it keeps the local cache
// reconciled with the remote document store and serves health and metrics
// endpoints.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"studygram/internal/config"
	"studygram/internal/localstore"
	"studygram/internal/netmon"
	"studygram/internal/observability"
	"studygram/internal/prefs"
	"studygram/internal/remote"
	"studygram/internal/repository"
	"studygram/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
)

func main() {
	log := observability.GlobalLogger

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	db, err := localstore.Open(cfg.CachePath)
	if err != nil {
		log.Error("failed to open local cache", "error", err, "path", cfg.CachePath)
		os.Exit(1)
	}

	pf, err := prefs.Open(cfg.PrefsPath)
	if err != nil {
		log.Error("failed to open preferences", "error", err, "path", cfg.PrefsPath)
		os.Exit(1)
	}

	connectCtx, cancelConnect := context.WithTimeout(context.Background(), cfg.RemoteTimeoutDuration())
	store, err := remote.ConnectMongo(connectCtx, cfg.RemoteURI, cfg.RemoteDBName, cfg.RemoteTimeoutDuration())
	cancelConnect()
	if err != nil {
		log.Error("failed to connect remote store", "error", err, "uri", cfg.RemoteURI)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Disconnect(shutdownCtx); err != nil {
			log.Warn("remote store disconnect failed", "error", err)
		}
	}()

	var monitor netmon.Monitor = netmon.Static(true)
	if cfg.NetProbeAddr != "" {
		pinger := netmon.NewPinger(cfg.NetProbeAddr, 10*time.Second)
		defer pinger.Close()
		monitor = pinger
	}

	client := remote.NewClient(store)
	postStore := localstore.NewPostStore(db)
	postRepo := repository.NewPostRepository(postStore, client, monitor, pf)
	syncer := service.NewSyncer(postRepo, monitor, cfg.SyncInterval())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go syncer.Run(ctx)

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	prom := fiberprometheus.New("studygram_syncd")
	prom.RegisterAt(app, "/metrics")
	app.Use(prom.Middleware)
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":    "ok",
			"online":    monitor.IsAvailable(),
			"cursor_ms": pf.LastSyncTimestamp(),
		})
	})

	go func() {
		log.Info("sync daemon listening", "addr", cfg.MetricsAddr)
		if err := app.Listen(cfg.MetricsAddr); err != nil {
			log.Error("http server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
		log.Warn("http shutdown failed", "error", err)
	}
}

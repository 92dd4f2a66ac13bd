package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/gofiber/fiber/v3"
	fiberlogger "github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/chema-app/chema-core/internal/adapter/backend"
	"github.com/chema-app/chema-core/internal/adapter/localstore"
	"github.com/chema-app/chema-core/internal/adapter/storekit"
	"github.com/chema-app/chema-core/internal/adapter/supabase"
	"github.com/chema-app/chema-core/internal/handler"
	"github.com/chema-app/chema-core/internal/middleware"
	"github.com/chema-app/chema-core/internal/notify"
	"github.com/chema-app/chema-core/internal/port"
	"github.com/chema-app/chema-core/internal/service"
	"github.com/chema-app/chema-core/pkg/config"
)

func main() {
	_ = godotenv.Load() // silently ignore if .env doesn't exist

	cfg := config.Load()

	slog.Info("starting bridge",
		"port", cfg.Port,
		"platform", cfg.Platform,
		"environment", cfg.Environment(),
	)

	cache, err := localstore.Open(cfg.CachePath)
	if err != nil {
		slog.Error("failed to open local cache", "error", err)
		os.Exit(1)
	}
	defer cache.Close()

	// ── Adapters ─────────────────────────────────────────────────────────
	identity := supabase.New(cfg.SupabaseURL, cfg.SupabaseAnonKey, cache)
	backendClient := backend.New(cfg.BackendURL)
	alerts := notify.NewCenter()

	var storeClient port.StoreClient
	var storeBridge *storekit.Bridge
	if cfg.Platform == config.PlatformIOS {
		storeBridge = storekit.NewBridge()
		storeClient = storeBridge
	} else {
		storeClient = storekit.NewDisabled()
	}

	// ── Services ─────────────────────────────────────────────────────────
	session := service.NewSessionService(identity, backendClient, cache)
	reconciler := service.NewReconciler(storeClient, backendClient, session, alerts, cfg.Environment())
	threads := service.NewThreadService(backendClient, backendClient, session, cfg.MessageHistoryLimit)

	var paywall service.Paywall
	if cfg.Platform == config.PlatformIOS {
		paywall = service.NewStorePaywall(reconciler)
	} else {
		paywall = service.NewWebPaywall(backendClient, session)
	}

	ctx := context.Background()
	session.Start(ctx)
	go reconciler.Run(ctx)

	if storeBridge != nil {
		go func() {
			// The shell needs a moment to attach before it can serve
			// store commands.
			initCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
			defer cancel()
			if err := storeClient.InitConnection(initCtx); err != nil {
				slog.Warn("store connection not established", "error", err)
			}
		}()
	}

	// ── Fiber App ────────────────────────────────────────────────────────
	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())

	// ── Public Routes (shell attach surface) ─────────────────────────────
	public := app.Group("/bridge")

	handler.NewAuthHandler(session).Register(public)
	handler.NewSystemHandler(alerts, reconciler, cfg.AppName).Register(public)
	if storeBridge != nil {
		handler.NewStoreHandler(storeBridge).Register(public)
	}

	// ── Protected Routes ─────────────────────────────────────────────────
	protected := app.Group("/bridge", middleware.RequireSession(session))

	handler.NewSubscriptionHandler(paywall, reconciler, backendClient, session).Register(protected)
	handler.NewThreadHandler(threads).Register(protected)
	handler.NewJournalHandler(backendClient).Register(protected)

	// ── Start ────────────────────────────────────────────────────────────
	// Loopback only: the bridge serves the local shell, nothing else.
	addr := "127.0.0.1:" + cfg.Port
	slog.Info("bridge listening", "addr", addr)
	if err := app.Listen(addr); err != nil {
		slog.Error("bridge failed", "error", err)
		os.Exit(1)
	}
}

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/varshaislur/MindLink/internal/app"
	"github.com/varshaislur/MindLink/internal/exec"
	httpx "github.com/varshaislur/MindLink/internal/http"
	"github.com/varshaislur/MindLink/internal/room"
	"github.com/varshaislur/MindLink/internal/store"
	"github.com/varshaislur/MindLink/internal/ws"
)

func main() {
	// Load local .env (dev only)
	_ = godotenv.Load()

	cfg, err := app.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}
	logger := app.NewLogger(cfg.Env)

	// Cancel on SIGINT/SIGTERM
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Execution-run log: postgres when configured, in-memory otherwise
	var runs store.Store = store.NewMemory(256)
	if cfg.PGURL != "" {
		pg, err := store.NewPostgres(ctx, cfg.PGURL, logger)
		if err != nil {
			logger.Error("postgres connect", "err", err)
			log.Fatal(err)
		}
		if err := store.RunMigrations(ctx, pg, logger); err != nil {
			logger.Error("migrations", "err", err)
			log.Fatal(err)
		}
		runs = pg
	}
	defer runs.Close()

	// Optional redis bus for cross-instance fanout
	var bus *ws.RedisBus
	if cfg.RedisAddr != "" {
		bus, err = ws.NewRedisBus(ctx, cfg.RedisAddr, cfg.RedisDB, logger)
		if err != nil {
			logger.Error("redis connect", "err", err)
			log.Fatal(err)
		}
		defer bus.Close()
	}

	// Room registry + relay + session hub
	reg := room.NewRegistry()
	relay := ws.NewRelay(reg, logger)
	hub := ws.NewHub(logger, reg, relay, bus, ws.Options{
		MaxFrameBytes: cfg.WSMaxFrameBytes,
		MsgsPerSecond: cfg.WSMsgsPerSecond,
		MsgBurst:      cfg.WSMsgBurst,
	})
	go hub.Run(ctx)

	// Execution service client
	execc := exec.NewClient(cfg.ExecURL, cfg.ExecTimeout, logger)

	// HTTP + WS router
	router := httpx.NewRouter(cfg, logger, hub, reg, execc, runs)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server
	go func() {
		logger.Info("server.listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server.crash", "err", err)
			cancel()
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	logger.Info("server.shutdown.start")

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	_ = srv.Shutdown(shutdownCtx)

	logger.Info("server.shutdown.complete")
	_ = os.Stdout.Sync()
}

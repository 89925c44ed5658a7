package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kataras/golog"

	"github.com/Divas-Gupta30/support-triage/internal/app"
	"github.com/Divas-Gupta30/support-triage/internal/config"
	"github.com/Divas-Gupta30/support-triage/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		golog.Fatalf("Config: %v", err)
	}
	cfg.ApplyLogging()

	// A failed startup still serves requests; the endpoints then report
	// that the system is not initialized.
	initCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
	components, cleanup, err := app.Build(initCtx, cfg, server.ObserveNode)
	cancel()
	defer cleanup()
	if err != nil {
		golog.Errorf("An error occurred during initialization: %v", err)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: server.NewRouter(components, cfg.RequestTimeout),
	}

	go func() {
		golog.Infof("Support triage service starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			golog.Fatalf("Server failed to start: %v", err)
		}
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	golog.Info("Shutting down gracefully...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		golog.Fatalf("Server forced to shutdown: %v", err)
	}
	golog.Info("Server exited")
}

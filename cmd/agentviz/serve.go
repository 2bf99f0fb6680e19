package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/aixgo-dev/agentviz"
	"github.com/aixgo-dev/agentviz/internal/events"
	tracing "github.com/aixgo-dev/agentviz/internal/observability"
	"github.com/aixgo-dev/agentviz/internal/render"
	"github.com/aixgo-dev/agentviz/internal/transcript"
	"github.com/aixgo-dev/agentviz/pkg/observability"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Follow the backend, print the graph and serve it over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		log.Printf("Starting agentviz v%s", Version)

		if err := tracing.Init(tracing.Config{
			Exporter: cfg.Tracing.Exporter,
			Endpoint: cfg.Tracing.Endpoint,
			Headers:  cfg.Tracing.Headers,
		}); err != nil {
			log.Printf("Warning: Failed to initialize tracing: %v", err)
		}
		observability.InitMetrics()

		client := newBackendClient(cfg)
		sub, err := events.NewSubscriber(cfg)
		if err != nil {
			return err
		}
		store := render.NewStoreEngine()

		viewer, err := agentviz.New(cfg, agentviz.Options{
			Source:     client,
			Engine:     render.Tee{render.NewTextEngine(os.Stdout), store},
			Subscriber: sub,
			Transcript: transcript.New(cfg.Transcript.MaxEntries, os.Stdout),
		})
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		errChan := make(chan error, 2)

		var server *observability.Server
		if cfg.Server.Enabled {
			checker := observability.NewHealthChecker(Version)
			checker.RegisterCheck(observability.BackendCheck(client.Ping))

			routes := viewer.Routes()
			routes["/graph"] = store
			server = observability.NewServer(cfg.Server.Port, checker, routes)
			go func() {
				log.Printf("Starting HTTP server on :%d", cfg.Server.Port)
				if err := server.Start(); err != nil {
					errChan <- fmt.Errorf("HTTP server error: %w", err)
				}
			}()
		}

		go func() { errChan <- viewer.Run(ctx) }()

		select {
		case err = <-errChan:
			if err != nil {
				log.Printf("Error: %v", err)
			}
		case <-ctx.Done():
			log.Println("Shutting down agentviz...")
		}
		stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if server != nil {
			if err := server.Shutdown(shutdownCtx); err != nil {
				log.Printf("HTTP server shutdown error: %v", err)
			}
		}
		if err := tracing.Shutdown(shutdownCtx); err != nil {
			log.Printf("Warning: Failed to shutdown tracing: %v", err)
		}
		return err
	},
}

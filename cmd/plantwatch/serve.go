package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	router "github.com/goliatone/go-router"
	"golang.org/x/sync/errgroup"

	"github.com/plantwatch/go-plantwatch/pkg/log"
	"github.com/plantwatch/go-plantwatch/pkg/plantwatch"
)

const shutdownTimeout = 5 * time.Second

type serveCmd struct {
	Listen    string `help:"Override the listen address."`
	Transport string `default:"stdlib" enum:"stdlib,fiber" help:"HTTP stack: stdlib (SSE or WebSocket events) or fiber (go-router, WebSocket events)."`
}

func (cmd *serveCmd) Run(ctx context.Context, globals *Globals) error {
	cfg, err := globals.load()
	if err != nil {
		return err
	}
	if cmd.Listen != "" {
		cfg.Listen = cmd.Listen
	}
	app, err := plantwatch.New(cfg)
	if err != nil {
		return err
	}
	defer app.Close()
	app.Start()

	logger := log.Default().With("listen", cfg.Listen, "base_path", cfg.BasePath, "transport", cmd.Transport)
	if cfg.Source != "" {
		logger = logger.With("config", cfg.Source)
	}
	logger.Info("plantwatch serving")

	switch cmd.Transport {
	case "fiber":
		return serveFiber(ctx, app, cfg.Listen)
	default:
		return serveStdlib(ctx, app, cfg.Listen)
	}
}

func serveStdlib(ctx context.Context, app *plantwatch.App, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           app.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("plantwatch: serve: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return group.Wait()
}

func serveFiber(ctx context.Context, app *plantwatch.App, addr string) error {
	server := router.NewFiberAdapter()
	var routes router.Router[*fiber.App] = server.Router()
	if err := plantwatch.Register(app, routes); err != nil {
		return fmt.Errorf("plantwatch: register routes: %w", err)
	}
	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return server.Serve(addr)
	})
	group.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return group.Wait()
}

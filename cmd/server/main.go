package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Amxn-2/cyber-feed/internal/factory"
	"github.com/Amxn-2/cyber-feed/internal/handler"
	"github.com/Amxn-2/cyber-feed/internal/util"
)

func main() {
	// Initialize factory (which loads config and initializes all clients)
	f, err := factory.NewFactory()
	if err != nil {
		util.Fatal("Failed to initialize factory", util.ErrorField(err))
	}
	defer f.Close()

	cfg := f.Config()

	// Setup HTTP router with handlers using Chi
	incidentHandler := handler.NewIncidentHandler(f.IncidentService(), util.Get())
	router := handler.NewRouter(incidentHandler, cfg, util.Get())

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Seed the store without blocking startup.
	if cfg.Collector.CollectOnStart {
		go runInitialCollection(f)
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			util.Fatal("Server failed to start", util.ErrorField(err))
		}
	}()

	util.Info("Server started successfully",
		util.String("environment", cfg.Environment),
		util.String("address", server.Addr),
		util.Bool("collect_on_start", cfg.Collector.CollectOnStart),
	)

	waitForShutdown(f, server)
}

func runInitialCollection(f *factory.Factory) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	util.Info("Running initial collection cycle")
	result, err := f.Collector().RunCycle(ctx)
	if err != nil {
		util.Warn("Initial collection cycle skipped", util.ErrorField(err))
		return
	}
	util.Info("Initial collection cycle completed",
		util.Int("items_inserted", result.ItemsInserted),
		util.Int("sources_active", result.SourcesActive),
		util.Duration("duration", result.Duration),
	)
}

func waitForShutdown(f *factory.Factory, server *http.Server) {
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	sig := <-signalChan
	util.Info("Received shutdown signal", util.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		util.Error("Failed to shutdown server gracefully", util.ErrorField(err))
	} else {
		util.Info("Server shutdown completed")
	}
	f.Close()
	util.Sync()
}

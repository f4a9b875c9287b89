package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/rrautos/catalog-client/pkg/catalog"
	"github.com/rrautos/catalog-client/pkg/config"
	"github.com/rrautos/catalog-client/pkg/logging"
	"github.com/rrautos/catalog-client/pkg/sitemap"
)

func main() {
	// Configuration from file (optional) and environment
	cfg, err := config.Load(os.Getenv("CATALOG_CONFIG"))
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	logging.Setup(cfg.LoggerConfig())
	logger := logging.NewLogger(logging.ComponentProxy)

	clientCfg, closeCache, err := cfg.CatalogConfig()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to configure catalog client")
	}
	defer closeCache()

	catalogClient, err := catalog.New(clientCfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create catalog client")
	}
	defer catalogClient.Close()

	builder, err := sitemap.NewBuilder(catalogClient, sitemap.Config{
		SiteURL:   cfg.Sitemap.SiteURL,
		ItemsPath: cfg.Sitemap.ItemsPath,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create sitemap builder")
	}

	srv := &server{
		catalog:  catalogClient,
		sitemap:  builder,
		pageSize: cfg.API.PageSize,
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      2 * time.Minute,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info().
			Str("addr", httpServer.Addr).
			Str("upstream", clientCfg.BaseURL).
			Bool("redis_cache", cfg.Cache.RedisURL != "").
			Msg("Starting catalog proxy server")

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Server failed")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Graceful shutdown failed")
	}
}

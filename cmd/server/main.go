// Package main runs the clipstream API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/clipstream/clipstream/internal/app"
	"github.com/clipstream/clipstream/internal/config"
	"github.com/clipstream/clipstream/internal/httpapi"
	"github.com/clipstream/clipstream/internal/media"
	"github.com/clipstream/clipstream/internal/storage/postgres"
	"github.com/clipstream/clipstream/internal/token"
	"github.com/clipstream/clipstream/pkg/logger"
)

func main() {
	log := logger.NewDefault("server")

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Error("load configuration")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var stores app.Stores
	if cfg.Database.URL != "" {
		db, err := postgres.Open(ctx, cfg.Database.URL)
		if err != nil {
			log.WithError(err).Error("connect to database")
			os.Exit(1)
		}
		defer db.Close()
		if err := postgres.Migrate(db); err != nil {
			log.WithError(err).Error("run migrations")
			os.Exit(1)
		}
		pg := postgres.New(db)
		stores = app.Stores{
			Users:      pg,
			Videos:     pg,
			Comments:   pg,
			Engagement: pg,
			Playlists:  pg,
			Tweets:     pg,
		}
		log.Info("using postgres storage")
	} else {
		log.Warn("DATABASE_URL not set; using in-memory storage")
	}

	var blobs media.BlobStore
	if cfg.Media.Bucket != "" {
		s3Store, err := media.NewS3Store(ctx, cfg.Media.Bucket, cfg.Media.Region)
		if err != nil {
			log.WithError(err).Error("configure media storage")
			os.Exit(1)
		}
		blobs = s3Store
		log.WithField("bucket", cfg.Media.Bucket).Info("using s3 media storage")
	} else {
		log.Warn("MEDIA_BUCKET not set; using in-memory media storage")
	}

	application, err := app.New(token.Config{
		AccessSecret:  cfg.Auth.AccessSecret,
		RefreshSecret: cfg.Auth.RefreshSecret,
		AccessTTL:     cfg.Auth.AccessTTL,
		RefreshTTL:    cfg.Auth.RefreshTTL,
	}, stores, blobs, log)
	if err != nil {
		log.WithError(err).Error("initialise application")
		os.Exit(1)
	}

	router := httpapi.NewRouter(application, cfg.Server, log)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       5 * time.Minute,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("port", cfg.Server.Port).Info("http server listening")
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("http server failed")
			os.Exit(1)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
		os.Exit(1)
	}
	log.Info("server stopped")
}

// Package main runs the ERP API server.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"

	app "github.com/ledgerworks/erp/internal/app"
	"github.com/ledgerworks/erp/internal/app/events"
	"github.com/ledgerworks/erp/internal/app/httpapi"
	"github.com/ledgerworks/erp/internal/app/metrics"
	ledgersvc "github.com/ledgerworks/erp/internal/app/services/ledger"
	"github.com/ledgerworks/erp/internal/app/storage/postgres"
	"github.com/ledgerworks/erp/internal/config"
	"github.com/ledgerworks/erp/internal/logging"
	"github.com/ledgerworks/erp/internal/middleware"
	"github.com/ledgerworks/erp/internal/platform/migrations"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log := logging.New("server", logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stores := app.Stores{}
	if cfg.Database.DSN != "" {
		db, err := sql.Open("postgres", cfg.Database.DSN)
		if err != nil {
			log.WithError(err).Error("open database")
			os.Exit(1)
		}
		db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.Database.ConnLifetime)
		if err := db.PingContext(ctx); err != nil {
			log.WithError(err).Error("ping database")
			os.Exit(1)
		}
		if err := migrations.Apply(ctx, db); err != nil {
			log.WithError(err).Error("apply migrations")
			os.Exit(1)
		}
		defer db.Close()

		store := postgres.New(db)
		stores = app.Stores{
			Chart:         store,
			Transactions:  store,
			Periods:       store,
			Mappings:      store,
			Manufacturing: store,
		}
		log.Info("using postgres storage")
	} else {
		log.Warn("DATABASE_DSN not set; using in-memory storage")
	}

	// A nil *events.Publisher must stay a nil interface for the ledger
	// service's publisher check.
	var publisher ledgersvc.Publisher
	if p := events.NewPublisher(cfg.Events.BrokerList(), cfg.Events.Topic, log); p != nil {
		defer p.Close()
		log.WithField("topic", cfg.Events.Topic).Info("posted-transaction events enabled")
		publisher = p
	}

	application := app.New(stores, publisher, log)

	var handler http.Handler = httpapi.NewHandler(application)
	handler = metrics.InstrumentHandler(handler)
	if cfg.Auth.JWTSecret != "" {
		auth := middleware.NewAuthMiddleware([]byte(cfg.Auth.JWTSecret), log, []string{"/healthz", "/metrics"})
		handler = auth.Handler(handler)
	} else {
		log.Warn("AUTH_JWT_SECRET not set; authentication disabled")
	}
	handler = middleware.NewCORSMiddleware([]string{"*"}).Handler(handler)
	handler = middleware.NewTracingMiddleware(log).Handler(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.WithField("addr", server.Addr).Info("server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("server error")
			cancel()
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		log.WithField("signal", sig.String()).Info("shutting down")
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
	log.Info("server stopped")
}

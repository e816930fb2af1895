package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/damon-houk/ledger-transaction-store/internal/application/service"
	"github.com/damon-houk/ledger-transaction-store/internal/config"
	"github.com/damon-houk/ledger-transaction-store/internal/infrastructure/db"
	"github.com/damon-houk/ledger-transaction-store/internal/infrastructure/db/badgerdb"
	"github.com/damon-houk/ledger-transaction-store/internal/infrastructure/db/postgres"
	"github.com/damon-houk/ledger-transaction-store/internal/infrastructure/events"
	"github.com/damon-houk/ledger-transaction-store/internal/infrastructure/logger"
	"github.com/damon-houk/ledger-transaction-store/internal/infrastructure/tracing"
)

// app is the wired ledger: configuration, backend, store and service
type app struct {
	cfg     *config.Config
	log     logger.Logger
	service *service.TransactionService
	closers []io.Closer
}

// backend is what both connection providers offer
type backend interface {
	db.ConnectionProvider
	db.Transactor
	io.Closer
}

func openApp(ctx context.Context, envFile string, logOut io.Writer) (*app, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, err
	}

	if logOut == nil {
		logOut = os.Stdout
	}
	log := logger.NewJSONLogger(logOut, cfg.LogLevel).WithField("service", "ledger")
	logger.SetDefaultLogger(log)

	var b backend
	switch cfg.Backend {
	case config.BackendPostgres:
		log.Info("Connecting to PostgreSQL", map[string]interface{}{"target": cfg.Database.Redacted()})
		b, err = postgres.Open(ctx, cfg.Database.DSN())
	case config.BackendBadger:
		log.Info("Opening BadgerDB", map[string]interface{}{"path": cfg.Badger.Path})
		if err = os.MkdirAll(cfg.Badger.Path, 0o755); err == nil {
			b, err = badgerdb.Open(cfg.Badger.Path)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s backend: %w", cfg.Backend, err)
	}

	store := db.NewTransactionStore(b, tracing.New(cfg.Trace, log), log)
	a := &app{
		cfg:     cfg,
		log:     log,
		service: service.NewTransactionService(store, b, cfg.ListLimit),
		closers: []io.Closer{b},
	}

	if cfg.Events.Enabled() {
		publisher := events.NewKafkaPublisher(cfg.Events.Brokers, cfg.Events.Topic)
		a.service.WithPublisher(publisher, log.WithField("component", "events"))
		// closed first so pending events flush while the backend is still open
		a.closers = append([]io.Closer{publisher}, a.closers...)
		log.Info("Publishing transaction events", map[string]interface{}{
			"brokers": cfg.Events.Brokers,
			"topic":   publisher.Topic(),
		})
	}

	return a, nil
}

func (a *app) Close() error {
	var errs []error
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			a.log.Error("Error during shutdown", map[string]interface{}{"error": err.Error()})
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

package app

import (
	"aishop/internal/app/broker"
	"aishop/internal/app/config"
	"aishop/internal/app/logger"
	"aishop/internal/app/service/notifier"
	"aishop/internal/app/service/reconciler"
	"aishop/internal/app/session"
	"aishop/internal/app/storage"
	"aishop/internal/app/storage/memory"
	"aishop/internal/app/storage/postgres"
	"context"
	"database/sql"
	"embed"
	"fmt"
	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"
	"sync"
)

type App struct {
	config     config.Config
	logger     logger.Logger
	ledger     storage.LedgerRepository
	wallets    storage.WalletRepository
	session    session.Manager
	notifier   *notifier.Service
	reconciler *reconciler.Service
	closers    []func()
	stopOnce   sync.Once
}

func New(cfg config.Config, logger logger.Logger, e embed.FS) (*App, error) {
	a := &App{
		config:  cfg,
		logger:  logger,
		session: session.NewJWT(cfg.SecretKey, session.WithIssuer("aishop")),
	}

	if err := a.initStorage(e); err != nil {
		a.Stop()
		return nil, err
	}

	publisher, err := a.initPublisher()
	if err != nil {
		a.Stop()
		return nil, err
	}

	a.notifier = notifier.New(publisher,
		notifier.WithLogger(logger),
		notifier.WithQueueSize(cfg.Notify.QueueSize),
		notifier.WithRetry(cfg.Notify.MaxAttempts, cfg.Notify.RetryDelay),
	)
	a.notifier.Start(cfg.Notify.Workers)
	a.closers = append(a.closers, a.notifier.Stop)

	a.reconciler = reconciler.New(a.ledger, a.notifier, cfg.Reconcile.Timeout)

	if cfg.Gateway.APIKey == "" {
		logger.Error().Msg("SEPAY_API_KEY is not set, gateway callbacks will be rejected")
	}

	return a, nil
}

func (a *App) initStorage(e embed.FS) error {
	if a.config.Database.Storage == config.StorageMemory {
		a.logger.Warn().Msg("Using in-memory storage, balances are lost on restart")
		s := memory.New()
		a.ledger, a.wallets = s, s
		return nil
	}

	db, err := sql.Open("postgres", a.config.Database.DSN)
	if err != nil {
		return fmt.Errorf("db open: %w", err)
	}
	a.closers = append(a.closers, func() {
		_ = db.Close()
	})

	if err := db.Ping(); err != nil {
		return fmt.Errorf("db ping: %w", err)
	}

	if err := applyMigrations(e, db, a.logger); err != nil {
		return fmt.Errorf("db migrate: %w", err)
	}

	ledger, err := postgres.NewLedgerRepository(db)
	if err != nil {
		return fmt.Errorf("ledger repository init: %w", err)
	}

	wallets, err := postgres.NewWalletRepository(db)
	if err != nil {
		return fmt.Errorf("wallet repository init: %w", err)
	}

	a.ledger, a.wallets = ledger, wallets
	return nil
}

func (a *App) initPublisher() (notifier.Publisher, error) {
	switch a.config.Notify.Driver {
	case config.NotifyRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     a.config.Redis.Addr,
			Password: a.config.Redis.Password,
			DB:       a.config.Redis.DB,
		})
		a.closers = append(a.closers, func() {
			_ = client.Close()
		})
		if err := client.Ping(context.Background()).Err(); err != nil {
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		return broker.NewRedisPublisher(client, a.config.Redis.Channel), nil

	case config.NotifyAMQP:
		rabbit := broker.NewRabbitMQ(a.config.RabbitMQ.URL)
		if err := rabbit.Connect(); err != nil {
			return nil, err
		}
		a.closers = append(a.closers, rabbit.Close)
		if err := rabbit.DeclareExchange(a.config.RabbitMQ.Exchange); err != nil {
			return nil, err
		}
		return broker.NewRabbitMQPublisher(rabbit.Channel, a.config.RabbitMQ.Exchange), nil
	}

	return broker.NewLogPublisher(a.logger), nil
}

// Stop releases resources in reverse order of acquisition.
func (a *App) Stop() {
	a.stopOnce.Do(func() {
		a.logger.Info().Msg("Shutting down application")
		for i := len(a.closers) - 1; i >= 0; i-- {
			a.closers[i]()
		}
	})
}

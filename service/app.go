package service

import (
	"context"
	"errors"
	"fmt"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/tranvictor/addrscout/bleve"
	"github.com/tranvictor/addrscout/config"
	"github.com/tranvictor/addrscout/extractor"
	"github.com/tranvictor/addrscout/names"
	"github.com/tranvictor/addrscout/origins"
	"github.com/tranvictor/addrscout/resolver"
	"github.com/tranvictor/addrscout/util/kv"
	"github.com/tranvictor/addrscout/util/logging"
)

// App is the assembled pipeline: storage, extraction, resolution, the name
// index and the dispatcher in front of them.
type App struct {
	Config     config.Config
	KV         kv.Store
	Origins    *origins.Store
	Names      *names.Cache
	Index      *bleve.NameIndex
	Extractor  *extractor.Extractor
	Resolver   *resolver.Resolver
	Dispatcher *Dispatcher

	logger *zap.Logger
}

// NewApp wires the pipeline described by cfg. The dispatcher is created but
// not started.
func NewApp(cfg config.Config, logger *zap.Logger, opts ...resolver.Option) (*App, error) {
	logger = logging.OrNop(logger)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	strategy, err := resolver.NewStrategy(cfg.StrategyConfig())
	if err != nil {
		return nil, err
	}
	return NewAppWithStrategy(cfg, strategy, logger, opts...)
}

// NewAppWithStrategy is NewApp with the lookup strategy supplied by the
// caller.
func NewAppWithStrategy(cfg config.Config, strategy resolver.Strategy, logger *zap.Logger, opts ...resolver.Option) (*App, error) {
	logger = logging.OrNop(logger)
	store, err := kv.Open(cfg.Store, cfg.DataDir, logger.Named("kv"))
	if err != nil {
		return nil, fmt.Errorf("opening %s store: %w", cfg.Store, err)
	}
	app := &App{Config: cfg, KV: store, logger: logger}

	app.Names, err = names.New(store, names.WithLRU(cfg.LRUSize))
	if err != nil {
		store.Close()
		return nil, err
	}

	if path := cfg.IndexPath(); path != "" {
		app.Index, err = bleve.Open(path, logger.Named("index"))
	} else {
		app.Index, err = bleve.NewMemOnly(logger.Named("index"))
	}
	if err != nil {
		store.Close()
		return nil, err
	}

	app.Origins = origins.New(store, logger.Named("origins"))
	app.Extractor = extractor.New(app.Origins, extractor.NewSeenURLs(),
		extractor.WithMaxPerOrigin(cfg.MaxPerOrigin),
		extractor.WithLogger(logger),
	)
	resolverOpts := append([]resolver.Option{
		resolver.WithLogger(logger),
		resolver.WithOnResolved(app.indexName),
	}, opts...)
	app.Resolver = resolver.New(app.Origins, app.Names, strategy, resolverOpts...)
	app.Dispatcher = New(app.Extractor, app.Resolver, app.Origins, logger, WithWorkers(cfg.Workers))
	return app, nil
}

func (a *App) indexName(addr ethcommon.Address, name string) {
	if err := a.Index.IndexName(addr, name); err != nil {
		a.logger.Warn("indexing name failed", zap.String("address", addr.Hex()), zap.Error(err))
	}
}

func (a *App) Start(ctx context.Context) {
	a.Dispatcher.Start(ctx)
}

// Close stops the dispatcher, letting queued tasks finish, then closes the
// index and the store.
func (a *App) Close() error {
	a.Dispatcher.Stop()
	return errors.Join(a.Index.Close(), a.KV.Close())
}

func (a *App) Logger() *zap.Logger {
	return a.logger
}

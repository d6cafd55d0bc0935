package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/thisisjab/defscript/entity"
)

type Config struct {
	Sources              map[string]StatementSource
	Processors           map[string]StatementProcessor
	Storage              Storage
	StorageFlushInterval time.Duration
	StorageBufferMaxSize uint
	SourceBufferSize     uint
}

// Engine orchestrates different components such as statement sources (readers), processors and storage.
type Engine struct {
	cfg            Config
	logger         *slog.Logger
	storageManager *storageManager
}

func New(cfg Config, logger *slog.Logger) (*Engine, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Engine{
		cfg:            cfg,
		logger:         logger,
		storageManager: newStorageManager(logger, cfg.Storage, cfg.StorageBufferMaxSize, cfg.StorageFlushInterval),
	}, nil
}

func (c Config) validate() error {
	if len(c.Sources) == 0 {
		return errors.New("no statement sources are configured")
	}

	for name, src := range c.Sources {
		for _, p := range src.ProcessorNames() {
			if _, ok := c.Processors[p]; !ok {
				return fmt.Errorf("source `%s` uses undefined processor `%s`", name, p)
			}
		}
	}

	if c.Storage == nil {
		return errors.New("no storage is configured")
	}

	if c.StorageBufferMaxSize == 0 && c.StorageFlushInterval == 0 {
		return errors.New("buffer max size and storage flush interval cannot both be zero")
	}

	if c.SourceBufferSize == 0 {
		return errors.New("source buffer size cannot be zero")
	}

	return nil
}

// Run connects the storage and evaluates every source until all of them are
// exhausted or ctx is cancelled. Evaluations still buffered at that point are
// flushed before Run returns.
func (e *Engine) Run(ctx context.Context) error {
	if err := e.cfg.Storage.Connect(ctx); err != nil {
		return fmt.Errorf("cannot connect to storage: %w", err)
	}
	defer func() {
		if err := e.cfg.Storage.Close(context.WithoutCancel(ctx)); err != nil {
			e.logger.Error("failed to close storage.", "error", err)
		}
	}()

	// The storage manager outlives ctx so the final flush sees every record.
	storageCtx, stopStorage := context.WithCancel(context.WithoutCancel(ctx))
	defer stopStorage()

	var storageWg sync.WaitGroup
	storageWg.Go(func() { e.storageManager.run(storageCtx) })

	var sourceWg sync.WaitGroup
	for name, src := range e.cfg.Sources {
		sourceWg.Go(func() { e.runSource(ctx, storageCtx, name, src) })
	}

	sourceWg.Wait()
	stopStorage()
	storageWg.Wait()

	e.logger.Info("all sources are done.")

	return ctx.Err()
}

// runSource feeds one source through its own pipeline so that its statements
// are evaluated in the order they were read.
func (e *Engine) runSource(ctx, storageCtx context.Context, name string, src StatementSource) {
	records := make(chan entity.Evaluation, e.cfg.SourceBufferSize)
	p := newPipeline(e.logger, src, e.cfg.Processors)

	go func() {
		defer close(records)

		err := src.Provide(ctx, records)
		if err != nil && !errors.Is(err, context.Canceled) {
			e.logger.Error("statement source failed.", "name", name, "error", err)
		}
	}()

	for record := range records {
		if ctx.Err() != nil {
			// Drain without evaluating so the provider can return.
			continue
		}

		if result, ok := p.handle(record); ok {
			e.storageManager.add(storageCtx, result)
		}
	}

	e.logger.Debug("source finished.", "name", name)
}

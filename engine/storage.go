package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/thisisjab/defscript/entity"
)

// Storage represents a storage interface for the engine.
type Storage interface {
	Connect(ctx context.Context) error
	Close(ctx context.Context) error
	StoreEvaluations(ctx context.Context, evaluations ...entity.Evaluation) error
}

// storageManager buffers evaluations and flushes them to storage.
// Note that you should never disable buffering and scheduled flushing together.
type storageManager struct {
	storage Storage
	logger  *slog.Logger
	buffer  []entity.Evaluation
	mu      sync.Mutex
	wg      sync.WaitGroup

	// bufferMaxSize defines the maximum items that buffer holds before flushing.
	// Setting this to zero will disable size based flushing.
	bufferMaxSize uint

	// flushInterval defines the interval at which buffer will be flushed.
	// Setting flushInterval to 0 will disable scheduled flushing.
	flushInterval time.Duration
}

func newStorageManager(logger *slog.Logger, storage Storage, bufferMaxSize uint, flushInterval time.Duration) *storageManager {
	return &storageManager{
		logger:        logger,
		storage:       storage,
		bufferMaxSize: bufferMaxSize,
		buffer:        make([]entity.Evaluation, 0, bufferMaxSize),
		flushInterval: flushInterval,
	}
}

// run flushes on every tick until ctx is done, then flushes whatever is left
// and waits for in-flight flushes.
func (sm *storageManager) run(ctx context.Context) {
	// A nil channel never fires, which disables the scheduled flush.
	var tick <-chan time.Time

	if sm.flushInterval > 0 {
		ticker := time.NewTicker(sm.flushInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			sm.flush(ctx)
			sm.wg.Wait()
			return
		case <-tick:
			sm.flush(ctx)
		}
	}
}

func (sm *storageManager) flush(ctx context.Context) {
	var toFlush []entity.Evaluation

	sm.mu.Lock()
	if len(sm.buffer) > 0 {
		toFlush = sm.buffer
		sm.buffer = make([]entity.Evaluation, 0, sm.bufferMaxSize)
	}
	sm.mu.Unlock()

	if len(toFlush) > 0 {
		sm.store(ctx, toFlush)
	}
}

// store writes a batch in the background. Batches taken from the buffer are
// written even when ctx is cancelled during shutdown.
func (sm *storageManager) store(ctx context.Context, toFlush []entity.Evaluation) {
	ctx = context.WithoutCancel(ctx)

	sm.wg.Go(func() {
		if err := sm.storage.StoreEvaluations(ctx, toFlush...); err != nil {
			sm.logger.Error("failed to flush evaluations", "count", len(toFlush), "error", err)
			return
		}

		sm.logger.Debug("flushed evaluations successfully", "count", len(toFlush))
	})
}

func (sm *storageManager) add(ctx context.Context, evaluations ...entity.Evaluation) {
	if len(evaluations) == 0 {
		return
	}

	var toFlush []entity.Evaluation

	sm.mu.Lock()
	sm.buffer = append(sm.buffer, evaluations...)

	if sm.bufferMaxSize > 0 && uint(len(sm.buffer)) >= sm.bufferMaxSize {
		toFlush = sm.buffer
		sm.buffer = make([]entity.Evaluation, 0, sm.bufferMaxSize)
	}
	sm.mu.Unlock()

	if toFlush != nil {
		sm.store(ctx, toFlush)
	}
}

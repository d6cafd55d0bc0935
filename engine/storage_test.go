package engine

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/thisisjab/defscript/entity"
)

func TestStorageManagerFlushesOnSize(t *testing.T) {
	st := newMemoryStorage()
	sm := newStorageManager(slog.New(slog.DiscardHandler), st, 2, 0)

	sm.add(context.Background(), entity.Evaluation{Source: "a"})
	if len(st.bySource()["a"]) != 0 {
		t.Fatal("expected buffer not to be flushed before it is full")
	}

	sm.add(context.Background(), entity.Evaluation{Source: "a"})
	sm.wg.Wait()

	if len(st.batches) != 1 || len(st.batches[0]) != 2 {
		t.Fatalf("expected one batch of two, got %v", st.batches)
	}
}

func TestStorageManagerFlushesOnInterval(t *testing.T) {
	st := newMemoryStorage()
	sm := newStorageManager(slog.New(slog.DiscardHandler), st, 0, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sm.run(ctx)
		close(done)
	}()

	sm.add(ctx, entity.Evaluation{Source: "a"})

	select {
	case <-st.stored:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for scheduled flush")
	}

	cancel()
	<-done
}

func TestStorageManagerFinalFlush(t *testing.T) {
	st := newMemoryStorage()
	sm := newStorageManager(slog.New(slog.DiscardHandler), st, 100, 0)

	ctx, cancel := context.WithCancel(context.Background())
	sm.add(ctx, entity.Evaluation{Source: "a"}, entity.Evaluation{Source: "a"})
	cancel()

	// run returns only after the remaining buffer is stored, even though ctx is already done.
	sm.run(ctx)

	if got := len(st.bySource()["a"]); got != 2 {
		t.Fatalf("expected 2 evaluations to be flushed, got %d", got)
	}
}

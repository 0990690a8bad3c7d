package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/Daunte502/RNG/internal/broker"
	"github.com/Daunte502/RNG/internal/domain"
	"github.com/Daunte502/RNG/internal/metrics"
)

// Recorder is the write side of domain.UpdateStore.
type Recorder interface {
	Record(ctx context.Context, update domain.Update) bool
}

type Worker struct {
	store       Recorder
	workerCount int
	logger      *slog.Logger
	metrics     *metrics.Metrics

	recorded atomic.Int64
	failed   atomic.Int64
	invalid  atomic.Int64
}

func NewWorker(store Recorder, workerCount int, logger *slog.Logger, m *metrics.Metrics) *Worker {
	if workerCount < 1 {
		workerCount = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		store:       store,
		workerCount: workerCount,
		logger:      logger,
		metrics:     m,
	}
}

// Start subscribes to mq and runs the workers until ctx is cancelled.
func (w *Worker) Start(ctx context.Context, mq broker.MessageQueue) error {
	if err := mq.Subscribe(); err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	var wg sync.WaitGroup
	for i := range w.workerCount {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			w.run(ctx, workerID, mq)
		}(i)
	}

	wg.Wait()
	return nil
}

func (w *Worker) run(ctx context.Context, workerID int, mq broker.MessageQueue) {
	w.logger.Info("Worker started", "worker", workerID)
	defer w.logger.Info("Worker stopped", "worker", workerID)

	err := mq.Consume(ctx, func(data []byte) error { return w.handle(ctx, data) })
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, broker.ErrQueueClosed) {
		w.logger.Error("Worker subscription error", "worker", workerID, "error", err)
	}
}

func (w *Worker) handle(ctx context.Context, data []byte) error {
	update, err := domain.DecodeUpdate(data)
	if err != nil {
		w.invalid.Add(1)
		w.metrics.MessageHandled("invalid")
		return err
	}

	if !w.store.Record(ctx, update) {
		w.failed.Add(1)
		w.metrics.MessageHandled("failed")
		return nil
	}

	w.recorded.Add(1)
	w.metrics.MessageHandled("recorded")
	return nil
}

type Stats struct {
	Recorded int64 `json:"recorded"`
	Failed   int64 `json:"failed"`
	Invalid  int64 `json:"invalid"`
}

func (w *Worker) Stats() Stats {
	return Stats{
		Recorded: w.recorded.Load(),
		Failed:   w.failed.Load(),
		Invalid:  w.invalid.Load(),
	}
}

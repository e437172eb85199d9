package publisher

import (
	"context"
	"log/slog"
	"time"

	"procurement/internal/audit"
	"procurement/pkg/requestcontext"
)

// Publisher is the stream sink the worker drains into.
type Publisher interface {
	Publish(ctx context.Context, entries []*audit.Entry) error
}

const (
	defaultInterval  = 5 * time.Second
	defaultBatchSize = 100
)

// Worker drains the audit outbox into the stream on a fixed interval. A
// failed publish leaves the batch unmarked so the next tick retries it;
// consumers must tolerate the resulting at-least-once delivery.
type Worker struct {
	outbox    audit.Outbox
	publisher Publisher
	interval  time.Duration
	batchSize int
	log       *slog.Logger
}

func NewWorker(outbox audit.Outbox, publisher Publisher, interval time.Duration, log *slog.Logger) *Worker {
	if interval <= 0 {
		interval = defaultInterval
	}
	if log == nil {
		log = slog.Default()
	}
	return &Worker{
		outbox:    outbox,
		publisher: publisher,
		interval:  interval,
		batchSize: defaultBatchSize,
		log:       log,
	}
}

// Run blocks until ctx is cancelled, draining once per tick.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.Drain(ctx); err != nil {
				w.log.WarnContext(ctx, "audit drain failed", "error", err)
			}
		}
	}
}

// Drain publishes one backlog batch at a time until the outbox is empty.
func (w *Worker) Drain(ctx context.Context) error {
	for {
		entries, err := w.outbox.Unpublished(ctx, w.batchSize)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			return nil
		}
		if err := w.publisher.Publish(ctx, entries); err != nil {
			return err
		}
		ids := make([]int64, len(entries))
		for i, entry := range entries {
			ids[i] = entry.ID
		}
		if err := w.outbox.MarkPublished(ctx, ids, requestcontext.Now(ctx)); err != nil {
			return err
		}
		w.log.DebugContext(ctx, "audit batch published", "count", len(entries))
	}
}

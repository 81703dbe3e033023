package queue

import (
	"context"
	"log/slog"
	"sync"

	"atelier/contexts/content-review/ingestion-service/domain/entities"
	domainerrors "atelier/contexts/content-review/ingestion-service/domain/errors"
)

// JobQueue is the in-process work queue feeding the ingest workers.
// Delivery is at most once: a dequeued job belongs to its worker and is
// never redelivered. Runtime wiring for an external broker replaces this
// the same way messaging does for events.
type JobQueue struct {
	ch     chan entities.IngestionJob
	once   sync.Once
	closed chan struct{}
	logger *slog.Logger
}

func NewJobQueue(capacity int, logger *slog.Logger) *JobQueue {
	if capacity <= 0 {
		capacity = 64
	}
	return &JobQueue{
		ch:     make(chan entities.IngestionJob, capacity),
		closed: make(chan struct{}),
		logger: logger,
	}
}

// Enqueue never blocks; a full queue pushes back on the upload caller
// with ErrQueueFull instead of stalling the request.
func (q *JobQueue) Enqueue(ctx context.Context, job entities.IngestionJob) error {
	select {
	case <-q.closed:
		return domainerrors.ErrQueueClosed
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	select {
	case q.ch <- job:
		if q.logger != nil {
			q.logger.Info("ingestion job queued",
				"event", "ingest_job_queued",
				"module", "internal/platform/queue",
				"layer", "platform",
				"job_id", job.JobID,
				"submission_id", job.SubmissionID,
				"file_count", len(job.Files),
			)
		}
		return nil
	default:
		return domainerrors.ErrQueueFull
	}
}

func (q *JobQueue) Dequeue(ctx context.Context) (entities.IngestionJob, error) {
	select {
	case job := <-q.ch:
		return job, nil
	case <-q.closed:
		// Drain what was queued before close.
		select {
		case job := <-q.ch:
			return job, nil
		default:
			return entities.IngestionJob{}, domainerrors.ErrQueueClosed
		}
	case <-ctx.Done():
		return entities.IngestionJob{}, ctx.Err()
	}
}

func (q *JobQueue) Close() {
	q.once.Do(func() { close(q.closed) })
}

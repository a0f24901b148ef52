package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/joseph-ayodele/romaneio-sheets/internal/ingest"
)

// ErrQueueClosed is returned by Enqueue after Shutdown.
var ErrQueueClosed = errors.New("queue is shutting down")

// Job is one document handed to the queue.
type Job struct {
	Source      ingest.Source
	SubmittedAt time.Time
	Seq         int // assigned by Enqueue, used as the result index
}

// ResultFunc receives each finished document. It is called from worker
// goroutines and must be safe for concurrent use.
type ResultFunc func(Job, DocumentResult)

// Queue feeds a stream of documents (e.g. from a directory watcher) through
// a Processor with a fixed number of workers. Unlike Process, results are
// delivered as they complete.
type Queue struct {
	proc     *Processor
	logger   *slog.Logger
	onResult ResultFunc

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	mu      sync.Mutex
	seq     int
	closed  bool
	done    chan struct{} // closed by Shutdown
	senders sync.WaitGroup
}

type QueueOption func(*Queue)

func WithQueueSize(n int) QueueOption {
	return func(q *Queue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}

func NewQueue(proc *Processor, onResult ResultFunc, opts ...QueueOption) *Queue {
	q := &Queue{
		proc:     proc,
		logger:   proc.logger,
		onResult: onResult,
		ch:       make(chan Job, 256),
		done:     make(chan struct{}),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *Queue) start() {
	q.once.Do(func() {
		for i := 0; i < q.proc.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Debug("pipeline.queue.worker_started", "worker_id", workerID)

				for job := range q.ch {
					res := q.proc.guard(context.Background(), job.Seq, job.Source, func(ctx context.Context, i int) DocumentResult {
						return q.proc.processFile(ctx, i, job.Source)
					})
					if res.Err != nil {
						q.logger.Error("pipeline.queue.failed", "worker_id", workerID, "document", job.Source.Name, "error", res.Err)
					} else {
						q.logger.Info("pipeline.queue.processed",
							"worker_id", workerID,
							"document", job.Source.Name,
							"status", res.Status,
							"notes", len(res.Records),
						)
					}
					if q.onResult != nil {
						q.onResult(job, res)
					}
				}

				q.logger.Debug("pipeline.queue.worker_stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

// Enqueue blocks while the queue is full, until ctx is done or the queue is
// shut down.
func (q *Queue) Enqueue(ctx context.Context, job Job) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		q.logger.Warn("pipeline.queue.rejected", "document", job.Source.Name)
		return ErrQueueClosed
	}
	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now().UTC()
	}
	job.Seq = q.seq
	q.seq++
	q.senders.Add(1)
	q.mu.Unlock()
	defer q.senders.Done()

	select {
	case q.ch <- job:
		q.logger.Debug("pipeline.queue.enqueued", "document", job.Source.Name, "seq", job.Seq)
		return nil
	default:
	}
	q.logger.Warn("pipeline.queue.full", "document", job.Source.Name)
	select {
	case q.ch <- job:
		return nil
	case <-q.done:
		q.logger.Warn("pipeline.queue.rejected", "document", job.Source.Name)
		return ErrQueueClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops accepting jobs and waits for queued ones to drain, or for ctx.
func (q *Queue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.done)
	q.mu.Unlock()
	// blocked senders give up on done; the channel closes once none remain
	q.senders.Wait()
	close(q.ch)

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("pipeline.queue.shutdown_interrupted")
	case <-done:
		q.logger.Info("pipeline.queue.drained")
	}
}

package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

var ErrMailQueueFull = errors.New("mail queue full")

const (
	DefaultMailTimeout   = 15 * time.Second
	DefaultMailWorkers   = 2
	DefaultMailQueueSize = 64
)

type MailJob struct {
	Kind string
	To   string
	Send func(ctx context.Context) error
}

// MailQueue runs mail jobs on a fixed pool of workers. Failures are only
// logged, nothing that enqueues a job ever sees its result.
type MailQueue struct {
	jobs    chan *MailJob
	running atomic.Int32
	pending sync.WaitGroup
	workers int
	timeout time.Duration
	log     *zap.Logger

	mu     sync.RWMutex
	closed bool
}

// NewMailQueue creates a queue holding at most size jobs waiting for one of
// workers. Zero values fall back to the defaults.
func NewMailQueue(size, workers int, timeout time.Duration, log *zap.Logger) *MailQueue {
	if size <= 0 {
		size = DefaultMailQueueSize
	}
	if workers <= 0 {
		workers = DefaultMailWorkers
	}
	if timeout <= 0 {
		timeout = DefaultMailTimeout
	}
	if log == nil {
		log = zap.L()
	}

	log.Debug("Initializing mail queue", zap.Int("size", size), zap.Int("workers", workers))

	return &MailQueue{
		jobs:    make(chan *MailJob, size),
		workers: workers,
		timeout: timeout,
		log:     log,
	}
}

func (q *MailQueue) StartWorkerPool() {
	for range q.workers {
		go q.worker()
	}
}

func (q *MailQueue) worker() {
	for job := range q.jobs {
		q.run(job)
		q.running.Add(-1)
		q.pending.Done()
	}
}

func (q *MailQueue) run(job *MailJob) {
	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	defer cancel()

	err := job.Send(ctx)
	if err != nil && ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		// The send may still complete after this, it is not known to have failed
		q.log.Warn("Email send abandoned after timeout",
			zap.String("kind", job.Kind),
			zap.String("to", job.To),
			zap.Duration("timeout", q.timeout))
		return
	}

	if err != nil {
		q.log.Error("Failed to send email",
			zap.String("kind", job.Kind),
			zap.String("to", job.To),
			zap.Error(err))
		return
	}

	q.log.Debug("Email sent", zap.String("kind", job.Kind), zap.String("to", job.To))
}

func (q *MailQueue) Enqueue(job *MailJob) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return errors.New("mail queue closed")
	}

	q.pending.Add(1)
	q.running.Add(1)

	select {
	case q.jobs <- job:
		return nil
	default:
		q.running.Add(-1)
		q.pending.Done()
		return ErrMailQueueFull
	}
}

// Pending returns the number of jobs queued or being sent
func (q *MailQueue) Pending() int {
	return int(q.running.Load())
}

// Wait blocks until every job enqueued so far has finished
func (q *MailQueue) Wait() {
	q.pending.Wait()
}

// Close stops accepting jobs, lets the workers drain the queue and waits
// for them
func (q *MailQueue) Close() {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.jobs)
	}
	q.mu.Unlock()

	q.pending.Wait()
}

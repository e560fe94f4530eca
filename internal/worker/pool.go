package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"nexogym/internal/infra"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueReceipts = "jobs:receipts"

	jobTypeReceipt = "receipt"

	// MaxJobAttempts counts the first delivery too.
	MaxJobAttempts = 3
)

// Job is the generic envelope for all async tasks.
type Job struct {
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload"`
	Attempts int             `json:"attempts"`
}

// JobProcessor handles the payload of one job type. Returning an error
// wrapped with Permanent skips the remaining retries.
type JobProcessor interface {
	Process(ctx context.Context, payload json.RawMessage) error
}

var errPermanent = errors.New("permanent job failure")

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	return errors.Join(errPermanent, err)
}

func IsPermanent(err error) bool { return errors.Is(err, errPermanent) }

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// EnqueueReceipt schedules the emailed receipt of a committed sale.
func (d *Dispatcher) EnqueueReceipt(ctx context.Context, job ReceiptJob) error {
	return d.enqueue(ctx, QueueReceipts, jobTypeReceipt, job)
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	encoded, err := json.Marshal(Job{Type: jobType, Payload: data})
	if err != nil {
		return err
	}
	return d.rdb.LPush(ctx, queue, encoded).Err()
}

// WorkerHandlers maps each queue to its processor.
type WorkerHandlers struct {
	Receipt JobProcessor
}

// Pool consumes the job queues. requeue and deadLetter default to Redis
// and are swapped in tests.
type Pool struct {
	handlers   *WorkerHandlers
	metrics    *infra.Metrics
	backoff    func(attempt int) time.Duration
	requeue    func(ctx context.Context, queue string, job Job) error
	deadLetter func(ctx context.Context, queue string, job Job, reason string)
}

func newPool(rdb *redis.Client, handlers *WorkerHandlers, metrics *infra.Metrics) *Pool {
	parked := NewDeadLetters(rdb)
	return &Pool{
		handlers: handlers,
		metrics:  metrics,
		backoff:  retryBackoff,
		requeue: func(ctx context.Context, queue string, job Job) error {
			encoded, err := json.Marshal(job)
			if err != nil {
				return err
			}
			return rdb.LPush(ctx, queue, encoded).Err()
		},
		deadLetter: parked.Park,
	}
}

// StartWorkerPool launches numWorkers goroutines consuming the queues.
// Each goroutine blocks on BRPOP, so idle workers cost nothing.
func StartWorkerPool(ctx context.Context, rdb *redis.Client, handlers *WorkerHandlers, metrics *infra.Metrics, numWorkers int) {
	p := newPool(rdb, handlers, metrics)
	for i := 0; i < numWorkers; i++ {
		go p.run(ctx, rdb, i)
	}
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
}

func (p *Pool) run(ctx context.Context, rdb *redis.Client, id int) {
	queues := []string{QueueReceipts}
	failures := 0
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
		}

		// Blocking pop, waits up to 5s then loops to check ctx
		result, err := rdb.BRPop(ctx, 5*time.Second, queues...).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || ctx.Err() != nil {
				failures = 0
				continue
			}
			failures++
			wait := pollBackoff(failures)
			log.Warn().Err(err).Int("worker", id).Dur("retry_in", wait).Msg("queue poll failed")
			select {
			case <-ctx.Done():
			case <-time.After(wait):
			}
			continue
		}
		failures = 0
		if len(result) < 2 {
			continue
		}
		p.processJob(ctx, result[0], result[1])
	}
}

func (p *Pool) processJob(ctx context.Context, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		return
	}

	var proc JobProcessor
	switch job.Type {
	case jobTypeReceipt:
		proc = p.handlers.Receipt
	}
	if proc == nil {
		log.Error().Str("type", job.Type).Str("queue", queue).Msg("no handler for job type")
		return
	}

	err := proc.Process(ctx, job.Payload)
	if err == nil {
		return
	}

	job.Attempts++
	if IsPermanent(err) || job.Attempts >= MaxJobAttempts {
		p.metrics.ReceiptProcessed("dead_lettered")
		p.deadLetter(ctx, queue, job, err.Error())
		return
	}

	wait := p.backoff(job.Attempts)
	log.Warn().
		Err(err).
		Str("type", job.Type).
		Int("attempt", job.Attempts).
		Dur("retry_in", wait).
		Msg("job failed, retrying")

	select {
	case <-ctx.Done():
		return
	case <-time.After(wait):
	}
	if err := p.requeue(ctx, queue, job); err != nil {
		log.Error().Err(err).Str("queue", queue).Msg("failed to requeue job")
	}
}

// retryBackoff doubles from one second: 1s, 2s, 4s…
func retryBackoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return time.Duration(1<<uint(attempt-1)) * time.Second
}

// pollBackoff paces a worker while Redis is unreachable: 500ms doubling per
// consecutive failure, capped at 30s.
func pollBackoff(failures int) time.Duration {
	const (
		base    = 500 * time.Millisecond
		ceiling = 30 * time.Second
	)
	if failures < 1 {
		failures = 1
	}
	if failures > 7 {
		return ceiling
	}
	if d := base << uint(failures-1); d < ceiling {
		return d
	}
	return ceiling
}

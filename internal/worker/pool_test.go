package worker

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"nexogym/internal/infra"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type processorFunc func(ctx context.Context, payload json.RawMessage) error

func (f processorFunc) Process(ctx context.Context, payload json.RawMessage) error { return f(ctx, payload) }

type poolSpy struct {
	requeued     []Job
	deadLettered []Job
	reasons      []string
}

func newTestPool(proc JobProcessor) (*Pool, *poolSpy) {
	spy := &poolSpy{}
	return &Pool{
		handlers: &WorkerHandlers{Receipt: proc},
		metrics:  infra.NewMetrics(),
		backoff:  func(int) time.Duration { return 0 },
		requeue: func(_ context.Context, _ string, job Job) error {
			spy.requeued = append(spy.requeued, job)
			return nil
		},
		deadLetter: func(_ context.Context, _ string, job Job, reason string) {
			spy.deadLettered = append(spy.deadLettered, job)
			spy.reasons = append(spy.reasons, reason)
		},
	}, spy
}

func rawJob(t *testing.T, job Job) string {
	t.Helper()
	b, err := json.Marshal(job)
	require.NoError(t, err)
	return string(b)
}

func TestProcessJob_Success(t *testing.T) {
	var got json.RawMessage
	p, spy := newTestPool(processorFunc(func(_ context.Context, payload json.RawMessage) error {
		got = payload
		return nil
	}))

	p.processJob(context.Background(), QueueReceipts, rawJob(t, Job{Type: jobTypeReceipt, Payload: json.RawMessage(`{"to_email":"a@b.c"}`)}))

	assert.JSONEq(t, `{"to_email":"a@b.c"}`, string(got))
	assert.Empty(t, spy.requeued)
	assert.Empty(t, spy.deadLettered)
}

func TestProcessJob_RetriesThenDeadLetters(t *testing.T) {
	calls := 0
	p, spy := newTestPool(processorFunc(func(context.Context, json.RawMessage) error {
		calls++
		return errors.New("smtp timeout")
	}))

	raw := rawJob(t, Job{Type: jobTypeReceipt, Payload: json.RawMessage(`{}`)})
	for i := 0; i < MaxJobAttempts; i++ {
		p.processJob(context.Background(), QueueReceipts, raw)
		if len(spy.requeued) > 0 {
			raw = rawJob(t, spy.requeued[len(spy.requeued)-1])
		}
	}

	assert.Equal(t, MaxJobAttempts, calls)
	require.Len(t, spy.requeued, MaxJobAttempts-1)
	assert.Equal(t, 1, spy.requeued[0].Attempts)
	assert.Equal(t, 2, spy.requeued[1].Attempts)
	require.Len(t, spy.deadLettered, 1)
	assert.Equal(t, MaxJobAttempts, spy.deadLettered[0].Attempts)
	assert.Equal(t, "smtp timeout", spy.reasons[0])
}

func TestProcessJob_PermanentSkipsRetries(t *testing.T) {
	p, spy := newTestPool(processorFunc(func(context.Context, json.RawMessage) error {
		return Permanent(errors.New("sale not found"))
	}))

	p.processJob(context.Background(), QueueReceipts, rawJob(t, Job{Type: jobTypeReceipt}))

	assert.Empty(t, spy.requeued)
	require.Len(t, spy.deadLettered, 1)
	assert.Equal(t, 1, spy.deadLettered[0].Attempts)
}

func TestProcessJob_UnknownTypeAndGarbageAreDropped(t *testing.T) {
	p, spy := newTestPool(processorFunc(func(context.Context, json.RawMessage) error {
		t.Fatal("processor must not run")
		return nil
	}))

	p.processJob(context.Background(), QueueReceipts, rawJob(t, Job{Type: "invoice"}))
	p.processJob(context.Background(), QueueReceipts, "{not json")

	assert.Empty(t, spy.requeued)
	assert.Empty(t, spy.deadLettered)
}

func TestProcessJob_CancelledContextStopsRetry(t *testing.T) {
	p, spy := newTestPool(processorFunc(func(context.Context, json.RawMessage) error {
		return errors.New("boom")
	}))
	p.backoff = func(int) time.Duration { return time.Hour }
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p.processJob(ctx, QueueReceipts, rawJob(t, Job{Type: jobTypeReceipt}))

	assert.Empty(t, spy.requeued)
}

func TestRetryBackoff(t *testing.T) {
	assert.Equal(t, time.Second, retryBackoff(0))
	assert.Equal(t, time.Second, retryBackoff(1))
	assert.Equal(t, 2*time.Second, retryBackoff(2))
	assert.Equal(t, 4*time.Second, retryBackoff(3))
}

func TestPermanent(t *testing.T) {
	base := errors.New("bad payload")
	err := Permanent(base)

	assert.True(t, IsPermanent(err))
	assert.ErrorIs(t, err, base)
	assert.False(t, IsPermanent(base))
}

func TestPollBackoff(t *testing.T) {
	assert.Equal(t, 500*time.Millisecond, pollBackoff(0))
	assert.Equal(t, 500*time.Millisecond, pollBackoff(1))
	assert.Equal(t, time.Second, pollBackoff(2))
	assert.Equal(t, 4*time.Second, pollBackoff(4))
	assert.Equal(t, 30*time.Second, pollBackoff(7))
	assert.Equal(t, 30*time.Second, pollBackoff(50))
}

// countingHook counts BRPOP calls reaching the client.
type countingHook struct{ pops atomic.Int64 }

func (h *countingHook) DialHook(next redis.DialHook) redis.DialHook { return next }

func (h *countingHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		if cmd.Name() == "brpop" {
			h.pops.Add(1)
		}
		return next(ctx, cmd)
	}
}

func (h *countingHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func TestRun_BacksOffWhileRedisIsDown(t *testing.T) {
	// Grab a free port and close it so every dial is refused.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	rdb := redis.NewClient(&redis.Options{Addr: addr, MaxRetries: -1, DialTimeout: 100 * time.Millisecond})
	t.Cleanup(func() { _ = rdb.Close() })
	hook := &countingHook{}
	rdb.AddHook(hook)

	p, _ := newTestPool(processorFunc(func(context.Context, json.RawMessage) error { return nil }))
	ctx, cancel := context.WithTimeout(context.Background(), 1200*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		p.run(ctx, rdb, 0)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop after cancellation")
	}
	// 0s, 0.5s and 1.5s are the only attempts that fit before the deadline.
	assert.LessOrEqual(t, hook.pops.Load(), int64(3))
	assert.GreaterOrEqual(t, hook.pops.Load(), int64(1))
}

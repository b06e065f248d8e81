package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"medscribe-be/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestQueue(t *testing.T, ledger Ledger, cfg Config) *Queue {
	t.Helper()
	ps := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, watermill.NopLogger{})
	t.Cleanup(func() { _ = ps.Close() })

	q := NewQueue(ps, ps, ledger, cfg, logger.NewNopLogger())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, q.Start(ctx))
	return q
}

type indexPayload struct {
	CaseID string `json:"case_id"`
}

func TestQueueDeliversPayload(t *testing.T) {
	q := newTestQueue(t, NewMemoryLedger(time.Minute), Config{Workers: 2})

	var mu sync.Mutex
	var got []string
	q.Register("index_case", func(ctx context.Context, task Task) error {
		var p indexPayload
		assert.NoError(t, task.Decode(&p))
		mu.Lock()
		got = append(got, p.CaseID)
		mu.Unlock()
		return nil
	})

	ctx := context.Background()
	require.NoError(t, q.Enqueue(ctx, "index_case", "index:c1", indexPayload{CaseID: "c1"}))
	require.NoError(t, q.Enqueue(ctx, "index_case", "index:c2", indexPayload{CaseID: "c2"}))
	q.Wait()

	assert.ElementsMatch(t, []string{"c1", "c2"}, got)
}

func TestQueueSkipsConcurrentDuplicates(t *testing.T) {
	ledger := NewMemoryLedger(time.Minute)
	q := newTestQueue(t, ledger, Config{Workers: 4})

	release := make(chan struct{})
	var runs atomic.Int32
	q.Register("index_case", func(ctx context.Context, task Task) error {
		runs.Add(1)
		<-release
		return nil
	})

	ctx := context.Background()
	for i := 0; i < 4; i++ {
		require.NoError(t, q.Enqueue(ctx, "index_case", "index:c1", indexPayload{CaseID: "c1"}))
	}
	// Give every worker a chance to pick a copy up before the first finishes.
	time.Sleep(100 * time.Millisecond)
	close(release)
	q.Wait()

	assert.Equal(t, int32(1), runs.Load())

	acquired, err := ledger.Acquire(ctx, "index:c1")
	require.NoError(t, err)
	assert.True(t, acquired, "key is released once the task finishes")
}

func TestQueueRetriesAndRecovers(t *testing.T) {
	q := newTestQueue(t, nil, Config{Workers: 1, MaxAttempts: 3})

	var attempts atomic.Int32
	q.Register("flaky", func(ctx context.Context, task Task) error {
		if attempts.Add(1) < 3 {
			return errors.New("transient")
		}
		return nil
	})
	q.Register("boom", func(ctx context.Context, task Task) error {
		panic("handler bug")
	})

	ctx := context.Background()
	require.NoError(t, q.Enqueue(ctx, "flaky", "", nil))
	require.NoError(t, q.Enqueue(ctx, "boom", "", nil))
	require.NoError(t, q.Enqueue(ctx, "unregistered", "", nil))
	q.Wait()

	assert.Equal(t, int32(3), attempts.Load())
}

func TestMemoryLedger(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger(time.Minute)

	ok, err := l.Acquire(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _ = l.Acquire(ctx, "k")
	assert.False(t, ok)

	require.NoError(t, l.Release(ctx, "k"))
	ok, _ = l.Acquire(ctx, "k")
	assert.True(t, ok)
}

func TestEnqueueBeforeStartIsRejected(t *testing.T) {
	ps := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	t.Cleanup(func() { _ = ps.Close() })
	q := NewQueue(ps, ps, nil, Config{}, logger.NewNopLogger())

	err := q.Enqueue(context.Background(), "index_case", "index:c1", indexPayload{CaseID: "c1"})
	assert.ErrorIs(t, err, ErrNotStarted)
	// nothing is pending, so Wait returns immediately
	q.Wait()
}

package queue

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/papersearch/internal/domain/questionsearch"
)

func TestImmediateQueue_DeliversAfterCallerCancels(t *testing.T) {
	var (
		mu   sync.Mutex
		got  []string
		errs []error
	)
	q := NewImmediateQueue(nil)
	q.SetHandler(func(ctx context.Context, name string, payload map[string]any) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, name+":"+payload["reason"].(string))
		errs = append(errs, ctx.Err())
	})

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, q.Enqueue(ctx, questionsearch.JobRebuildIndex, map[string]any{"reason": "manual"}))
	cancel()
	q.wait()

	require.Equal(t, []string{"rebuild_index:manual"}, got)
	require.Equal(t, []error{nil}, errs)
}

func TestImmediateQueue_NoHandler(t *testing.T) {
	q := NewImmediateQueue(nil)
	require.NoError(t, q.Enqueue(context.Background(), "noop", "not a map"))
	q.wait()
}

func TestImmediateQueue_CloseCancelsRunningJobs(t *testing.T) {
	started := make(chan struct{})
	var jobErr error
	q := NewImmediateQueue(func(ctx context.Context, name string, payload map[string]any) {
		close(started)
		<-ctx.Done()
		jobErr = ctx.Err()
	})
	require.NoError(t, q.Enqueue(context.Background(), questionsearch.JobRebuildIndex, map[string]any{}))
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, q.Close(ctx))
	require.ErrorIs(t, jobErr, context.Canceled)

	require.ErrorIs(t, q.Enqueue(context.Background(), questionsearch.JobRebuildIndex, nil), ErrClosed)
}

func TestValkeyQueue_CloseStopsConsumer(t *testing.T) {
	jobs := make(chan string, 1)
	jobs <- `{"name":"rebuild_index","payload":{"jobId":"j1"}}`

	q := NewValkeyQueue(nil, "", slog.New(slog.NewTextHandler(io.Discard, nil)))
	q.pop = func(ctx context.Context) (string, error) {
		select {
		case raw := <-jobs:
			return raw, nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	delivered := make(chan string, 1)
	var jobErr error
	q.SetHandler(func(ctx context.Context, name string, payload map[string]any) {
		delivered <- payload["jobId"].(string)
		<-ctx.Done()
		jobErr = ctx.Err()
	})
	require.Equal(t, "j1", <-delivered)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, q.Close(ctx))
	require.ErrorIs(t, jobErr, context.Canceled)
	require.ErrorIs(t, q.Enqueue(context.Background(), "x", nil), ErrClosed)

	// A closed queue does not start a new consumer.
	q.SetHandler(func(context.Context, string, map[string]any) {})
	require.NoError(t, q.Close(ctx))
}

func TestDecodeJob(t *testing.T) {
	job, err := decodeJob(`{"name":"rebuild_index","payload":{"jobId":"abc"}}`)
	require.NoError(t, err)
	require.Equal(t, "rebuild_index", job.Name)
	require.Equal(t, "abc", job.Payload["jobId"])

	job, err = decodeJob(`{"name":"x"}`)
	require.NoError(t, err)
	require.NotNil(t, job.Payload)

	_, err = decodeJob(`{`)
	require.Error(t, err)
}

package queue

import (
	"context"
	"errors"
	"sync"

	"github.com/yanqian/papersearch/internal/domain/questionsearch"
)

// ErrClosed is returned by Enqueue after Close.
var ErrClosed = errors.New("queue closed")

// HandlerQueue supports setting a handler for job delivery.
type HandlerQueue interface {
	questionsearch.JobQueue
	SetHandler(handler Handler)
	// Close cancels running jobs and waits for them until ctx expires.
	Close(ctx context.Context) error
}

// Handler executes a delivered job.
type Handler func(ctx context.Context, name string, payload map[string]any)

// ImmediateQueue hands jobs to the handler in a goroutine as soon as they are enqueued.
type ImmediateQueue struct {
	mu      sync.RWMutex
	handler Handler
	wg      sync.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc
}

// NewImmediateQueue constructs the queue.
func NewImmediateQueue(handler Handler) *ImmediateQueue {
	ctx, cancel := context.WithCancel(context.Background())
	return &ImmediateQueue{handler: handler, ctx: ctx, cancel: cancel}
}

// SetHandler replaces the handler used for queued jobs.
func (q *ImmediateQueue) SetHandler(handler Handler) {
	q.mu.Lock()
	q.handler = handler
	q.mu.Unlock()
}

// Enqueue invokes the handler asynchronously. The job outlives the caller's request
// context and is cancelled only by Close.
func (q *ImmediateQueue) Enqueue(ctx context.Context, name string, payload any) error {
	if q.ctx.Err() != nil {
		return ErrClosed
	}
	typed, ok := payload.(map[string]any)
	if !ok {
		typed = map[string]any{}
	}
	q.mu.RLock()
	handler := q.handler
	q.mu.RUnlock()
	if handler == nil {
		return nil
	}
	jobCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	stop := context.AfterFunc(q.ctx, cancel)
	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		defer cancel()
		defer stop()
		handler(jobCtx, name, typed)
	}()
	return nil
}

// Close cancels in-flight jobs and waits for them to return.
func (q *ImmediateQueue) Close(ctx context.Context) error {
	q.cancel()
	return waitGroup(ctx, &q.wg)
}

func (q *ImmediateQueue) wait() {
	q.wg.Wait()
}

func waitGroup(ctx context.Context, wg *sync.WaitGroup) error {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

var _ HandlerQueue = (*ImmediateQueue)(nil)

package queue

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/valkey-io/valkey-go"
)

var errNoJob = errors.New("no job popped")

type jobEnvelope struct {
	Name    string         `json:"name"`
	Payload map[string]any `json:"payload"`
}

// ValkeyQueue persists jobs in a Valkey list and delivers them to a handler from a
// single consumer goroutine. It owns the client and closes it on Close.
type ValkeyQueue struct {
	client      valkey.Client
	queueKey    string
	logger      *slog.Logger
	pollTimeout time.Duration
	pop         func(ctx context.Context) (string, error)

	mu      sync.Mutex
	handler Handler
	started bool
	wg      sync.WaitGroup

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// NewValkeyQueue constructs a Valkey-backed queue.
func NewValkeyQueue(client valkey.Client, queueKey string, logger *slog.Logger) *ValkeyQueue {
	if queueKey == "" {
		queueKey = "papersearch:jobs"
	}
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	q := &ValkeyQueue{
		client:      client,
		queueKey:    queueKey,
		logger:      logger.With("component", "queue.valkey"),
		pollTimeout: 5 * time.Second,
		ctx:         ctx,
		cancel:      cancel,
	}
	q.pop = q.brpop
	return q
}

// SetHandler starts the consumer on first use; later calls only swap the handler.
func (q *ValkeyQueue) SetHandler(handler Handler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handler = handler
	if handler == nil || q.started || q.ctx.Err() != nil {
		return
	}
	q.started = true
	q.wg.Add(1)
	go q.consume()
}

// Enqueue pushes a job onto the queue.
func (q *ValkeyQueue) Enqueue(ctx context.Context, name string, payload any) error {
	if q.ctx.Err() != nil {
		return ErrClosed
	}
	typed, ok := payload.(map[string]any)
	if !ok {
		typed = map[string]any{}
	}
	encoded, err := json.Marshal(jobEnvelope{Name: name, Payload: typed})
	if err != nil {
		return err
	}
	cmd := q.client.B().Lpush().Key(q.queueKey).Element(string(encoded)).Build()
	return q.client.Do(ctx, cmd).Error()
}

// Close interrupts the blocking pop and any running job, waits for the consumer to
// exit, then closes the client.
func (q *ValkeyQueue) Close(ctx context.Context) error {
	q.cancel()
	err := waitGroup(ctx, &q.wg)
	q.closeOnce.Do(func() {
		if q.client != nil {
			q.client.Close()
		}
	})
	return err
}

func (q *ValkeyQueue) currentHandler() Handler {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.handler
}

func (q *ValkeyQueue) brpop(ctx context.Context) (string, error) {
	resp := q.client.Do(ctx, q.client.B().Brpop().Key(q.queueKey).Timeout(q.pollTimeout.Seconds()).Build())
	values, err := resp.ToArray()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return "", errNoJob
		}
		return "", err
	}
	if len(values) < 2 {
		return "", errNoJob
	}
	return values[1].ToString()
}

func (q *ValkeyQueue) consume() {
	defer q.wg.Done()
	for {
		raw, err := q.pop(q.ctx)
		if q.ctx.Err() != nil {
			return
		}
		if errors.Is(err, errNoJob) {
			continue
		}
		if err != nil {
			q.logger.Warn("valkey queue pop failed", "error", err)
			select {
			case <-q.ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}
		handler := q.currentHandler()
		if handler == nil {
			continue
		}
		job, err := decodeJob(raw)
		if err != nil {
			q.logger.Warn("valkey queue unmarshal failed", "error", err)
			continue
		}
		handler(q.ctx, job.Name, job.Payload)
	}
}

func decodeJob(raw string) (jobEnvelope, error) {
	var job jobEnvelope
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		return jobEnvelope{}, err
	}
	if job.Payload == nil {
		job.Payload = map[string]any{}
	}
	return job, nil
}

var _ HandlerQueue = (*ValkeyQueue)(nil)

// Package worker runs background tasks off a watermill topic with a bounded
// pool of goroutines.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"medscribe-be/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

const (
	moduleName       = "WORKER"
	metadataTaskType = "task_type"
	metadataTaskKey  = "task_key"
)

var (
	ErrUnknownTask = errors.New("no handler registered for task type")
	// ErrNotStarted is returned by Enqueue before Start has subscribed; the
	// in-process broker would drop the message.
	ErrNotStarted = errors.New("task queue not started")
)

type Task struct {
	ID      string
	Type    string
	Key     string
	Payload []byte
}

// Decode unmarshals the task payload into v.
func (t Task) Decode(v interface{}) error {
	return json.Unmarshal(t.Payload, v)
}

type Handler func(ctx context.Context, task Task) error

type Config struct {
	Topic       string
	Workers     int
	MaxAttempts int
	RetryDelay  time.Duration
}

type Queue struct {
	pub    message.Publisher
	sub    message.Subscriber
	ledger Ledger
	cfg    Config
	logger logger.ILogger

	mu       sync.RWMutex
	handlers map[string]Handler

	started atomic.Bool
	pending sync.WaitGroup
	workers sync.WaitGroup
	jobs    chan *message.Message
}

// NewQueue accepts any watermill pub/sub pair; the gochannel backend serves
// both roles. A nil ledger disables duplicate suppression.
func NewQueue(pub message.Publisher, sub message.Subscriber, ledger Ledger, cfg Config, log logger.ILogger) *Queue {
	if cfg.Topic == "" {
		cfg.Topic = "MEDSCRIBE_TASKS"
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	return &Queue{
		pub:      pub,
		sub:      sub,
		ledger:   ledger,
		cfg:      cfg,
		logger:   log,
		handlers: make(map[string]Handler),
		jobs:     make(chan *message.Message, cfg.Workers),
	}
}

func (q *Queue) Register(taskType string, h Handler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers[taskType] = h
}

func (q *Queue) handler(taskType string) (Handler, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	h, ok := q.handlers[taskType]
	return h, ok
}

// Enqueue publishes a task and returns without waiting for it. An empty key
// means the task is never deduplicated.
func (q *Queue) Enqueue(ctx context.Context, taskType, key string, payload interface{}) error {
	if !q.started.Load() {
		return ErrNotStarted
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", taskType, err)
	}

	msg := message.NewMessage(uuid.NewString(), data)
	msg.Metadata.Set(metadataTaskType, taskType)
	msg.Metadata.Set(metadataTaskKey, key)

	q.pending.Add(1)
	if err := q.pub.Publish(q.cfg.Topic, msg); err != nil {
		q.pending.Done()
		return fmt.Errorf("publish %s: %w", taskType, err)
	}
	return nil
}

// Start subscribes and launches the worker pool. Workers exit when ctx ends.
func (q *Queue) Start(ctx context.Context) error {
	messages, err := q.sub.Subscribe(ctx, q.cfg.Topic)
	if err != nil {
		return err
	}
	q.started.Store(true)

	for i := 0; i < q.cfg.Workers; i++ {
		q.workers.Add(1)
		go func() {
			defer q.workers.Done()
			for msg := range q.jobs {
				q.process(ctx, msg)
			}
		}()
	}

	go func() {
		defer close(q.jobs)
		for msg := range messages {
			// gochannel holds the next message until this one is acked, so
			// acking after the handler would leave one worker busy. The
			// bounded jobs channel applies backpressure instead.
			msg.Ack()
			select {
			case q.jobs <- msg:
			case <-ctx.Done():
				q.pending.Done()
				return
			}
		}
	}()

	q.logger.Info(moduleName, "Worker pool started", map[string]interface{}{
		"topic":   q.cfg.Topic,
		"workers": q.cfg.Workers,
	})
	return nil
}

// Wait blocks until every enqueued task has been handled.
func (q *Queue) Wait() {
	q.pending.Wait()
}

// Stop waits for in-flight workers after the subscription context ends.
func (q *Queue) Stop() {
	q.workers.Wait()
}

func (q *Queue) process(ctx context.Context, msg *message.Message) {
	defer q.pending.Done()

	task := Task{
		ID:      msg.UUID,
		Type:    msg.Metadata.Get(metadataTaskType),
		Key:     msg.Metadata.Get(metadataTaskKey),
		Payload: msg.Payload,
	}
	details := map[string]interface{}{"task_id": task.ID, "task_type": task.Type, "task_key": task.Key}

	h, ok := q.handler(task.Type)
	if !ok {
		details["error"] = ErrUnknownTask.Error()
		q.logger.Error(moduleName, "Dropping task", details)
		return
	}

	if task.Key != "" && q.ledger != nil {
		acquired, err := q.ledger.Acquire(ctx, task.Key)
		if err != nil {
			details["error"] = err.Error()
			q.logger.Warn(moduleName, "Ledger unavailable, running task unguarded", details)
		} else if !acquired {
			q.logger.Info(moduleName, "Task already in flight, skipping duplicate", details)
			return
		} else {
			defer func() {
				if err := q.ledger.Release(context.WithoutCancel(ctx), task.Key); err != nil {
					q.logger.Warn(moduleName, "Failed to release ledger key", map[string]interface{}{
						"task_key": task.Key,
						"error":    err.Error(),
					})
				}
			}()
		}
	}

	var err error
	for attempt := 1; attempt <= q.cfg.MaxAttempts; attempt++ {
		err = q.run(ctx, h, task)
		if err == nil {
			q.logger.Debug(moduleName, "Task completed", details)
			return
		}
		if attempt < q.cfg.MaxAttempts && q.cfg.RetryDelay > 0 {
			select {
			case <-time.After(q.cfg.RetryDelay):
			case <-ctx.Done():
				attempt = q.cfg.MaxAttempts
			}
		}
	}
	details["error"] = err.Error()
	q.logger.Error(moduleName, "Task failed", details)
}

func (q *Queue) run(ctx context.Context, h Handler, task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()
	return h(ctx, task)
}

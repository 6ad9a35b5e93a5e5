package redpanda

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/hirelens/screener/internal/adapter/observability"
	"github.com/hirelens/screener/internal/domain"
)

// Handler processes one screening task.
type Handler func(ctx context.Context, payload domain.ScreenTaskPayload) error

// Consumer polls the screening topic in a consumer group and dispatches
// records to the handler.
type Consumer struct {
	client  *kgo.Client
	handler Handler
	sem     chan struct{}
}

// NewConsumer constructs a group consumer over the screening topic.
func NewConsumer(brokers []string, group string, handler Handler, maxConcurrency int) (*Consumer, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("op=queue.consumer: no seed brokers provided")
	}
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ConsumerGroup(group),
		kgo.ConsumeTopics(TopicScreen),
		kgo.DisableAutoCommit(),
	)
	if err != nil {
		return nil, fmt.Errorf("op=queue.consumer: %w", err)
	}
	if err := createTopicIfNotExists(context.Background(), client, TopicScreen, 1, 1); err != nil {
		slog.Warn("ensure topic failed", slog.String("topic", TopicScreen), slog.Any("error", err))
	}
	return &Consumer{
		client:  client,
		handler: handler,
		sem:     make(chan struct{}, maxConcurrency),
	}, nil
}

// Run polls until the context is cancelled. Each poll's records are handled
// concurrently up to the semaphore's width; offsets are committed only after
// every record in the poll finished, including handler failures: a task
// whose handler errored is logged and skipped rather than redelivered
// forever.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		fetches := c.client.PollFetches(ctx)
		if err := ctx.Err(); err != nil {
			return err
		}
		if errs := fetches.Errors(); len(errs) > 0 {
			for _, fe := range errs {
				if errors.Is(fe.Err, context.Canceled) {
					return fe.Err
				}
				slog.Error("fetch error",
					slog.String("topic", fe.Topic),
					slog.Any("error", fe.Err))
			}
			continue
		}
		c.dispatch(ctx, fetches)
		if err := c.client.CommitUncommittedOffsets(ctx); err != nil {
			slog.Error("commit offsets", slog.Any("error", err))
		}
	}
}

// dispatch fans the poll's records out to handler goroutines, gated by the
// semaphore, and waits for all of them.
func (c *Consumer) dispatch(ctx context.Context, fetches kgo.Fetches) {
	var wg sync.WaitGroup
	fetches.EachRecord(func(record *kgo.Record) {
		c.sem <- struct{}{}
		wg.Add(1)
		go func(record *kgo.Record) {
			defer wg.Done()
			defer func() { <-c.sem }()
			c.processRecord(ctx, record)
		}(record)
	})
	wg.Wait()
}

func (c *Consumer) processRecord(ctx context.Context, record *kgo.Record) {
	var payload domain.ScreenTaskPayload
	if err := json.Unmarshal(record.Value, &payload); err != nil {
		slog.Error("malformed screen task",
			slog.Int64("offset", record.Offset),
			slog.Any("error", err))
		return
	}
	if rid := headerValue(record, "request_id"); rid != "" {
		ctx = observability.ContextWithRequestID(ctx, rid)
	}
	observability.StartProcessingJob("screen")
	if err := c.handler(ctx, payload); err != nil {
		observability.FailJob("screen")
		slog.Error("screen task failed",
			slog.String("task_id", payload.TaskID),
			slog.String("resume_id", payload.ResumeID),
			slog.Any("error", err))
		return
	}
	observability.CompleteJob("screen")
	slog.Info("screen task done", slog.String("task_id", payload.TaskID))
}

func headerValue(record *kgo.Record, key string) string {
	for _, h := range record.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

// Close leaves the group and closes the client.
func (c *Consumer) Close() {
	c.client.Close()
}

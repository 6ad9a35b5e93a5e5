// Package redpanda provides the Kafka-compatible queue used for batch
// screening. One topic carries screening tasks; workers consume them in a
// shared group.
package redpanda

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/oklog/ulid/v2"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/hirelens/screener/internal/adapter/observability"
	"github.com/hirelens/screener/internal/domain"
)

// TopicScreen is the topic carrying batch screening tasks.
const TopicScreen = "screen-jobs"

// Producer wraps a franz-go client and implements domain.Queue.
type Producer struct {
	client *kgo.Client
	topic  string
}

// NewProducer constructs a producer and ensures the topic exists.
func NewProducer(brokers []string) (*Producer, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("op=queue.producer: no seed brokers provided")
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.RequestRetries(10),
		kgo.ProducerBatchMaxBytes(1_000_000),
	)
	if err != nil {
		return nil, fmt.Errorf("op=queue.producer: %w", err)
	}
	if err := createTopicIfNotExists(context.Background(), client, TopicScreen, 1, 1); err != nil {
		// Startup races with other instances; the consumer side retries too.
		slog.Warn("ensure topic failed", slog.String("topic", TopicScreen), slog.Any("error", err))
	}
	return &Producer{client: client, topic: TopicScreen}, nil
}

// EnqueueScreen publishes one screening task and returns its task id.
// The resume id keys the record so tasks for one resume stay ordered.
func (p *Producer) EnqueueScreen(ctx domain.Context, payload domain.ScreenTaskPayload) (string, error) {
	if payload.TaskID == "" {
		payload.TaskID = ulid.Make().String()
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("op=queue.enqueue: marshal: %w", err)
	}
	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(payload.ResumeID),
		Value: b,
		Headers: []kgo.RecordHeader{
			{Key: "task_id", Value: []byte(payload.TaskID)},
			{Key: "request_id", Value: []byte(observability.RequestIDFromContext(ctx))},
		},
	}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return "", fmt.Errorf("op=queue.enqueue: produce: %w", err)
	}
	observability.EnqueueJob("screen")
	slog.Info("screen task enqueued",
		slog.String("task_id", payload.TaskID),
		slog.String("resume_id", payload.ResumeID))
	return payload.TaskID, nil
}

// Close flushes and closes the underlying client.
func (p *Producer) Close() {
	p.client.Close()
}

package event

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/khoahotran/wedding-memories/internal/application/service"
	"github.com/khoahotran/wedding-memories/internal/config"
	"github.com/khoahotran/wedding-memories/pkg/logger"
	"github.com/segmentio/kafka-go"
)

const (
	TopicMemoryEvents   = "memory.events"
	TopicExportRequests = "export.requests"
)

type KafkaProducerClient struct {
	MemoryEventsWriter   *kafka.Writer
	ExportRequestsWriter *kafka.Writer
	logger               logger.Logger
}

var _ service.EventPublisher = (*KafkaProducerClient)(nil)

func NewKafkaProducerClient(cfg config.Config, log logger.Logger) (*KafkaProducerClient, error) {
	brokers := cfg.Kafka.Brokers
	if len(brokers) == 0 {
		return nil, fmt.Errorf("config Kafka brokers not found")
	}

	// writer 'memory.events'
	memoryWriter := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    TopicMemoryEvents,
		Balancer: &kafka.LeastBytes{},
	}

	// writer 'export.requests', keyed by wedding so one wedding's jobs stay ordered
	exportWriter := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    TopicExportRequests,
		Balancer: &kafka.Hash{},
	}

	log.Info("Initialize Kafka Producers successfully.")

	return &KafkaProducerClient{
		MemoryEventsWriter:   memoryWriter,
		ExportRequestsWriter: exportWriter,
		logger:               log,
	}, nil
}

func (c *KafkaProducerClient) PublishMemoryEvent(ctx context.Context, payload service.MemoryEventPayload) error {
	return publish(ctx, c.MemoryEventsWriter, payload.WeddingID, payload)
}

func (c *KafkaProducerClient) PublishExportRequest(ctx context.Context, payload service.ExportRequestPayload) error {
	return publish(ctx, c.ExportRequestsWriter, payload.WeddingID, payload)
}

func publish(ctx context.Context, w *kafka.Writer, key string, payload any) error {
	value, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	err = w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: value,
	})
	if err != nil {
		return fmt.Errorf("failed to write message to %s: %w", w.Topic, err)
	}
	return nil
}

func (c *KafkaProducerClient) Close() {
	if c.MemoryEventsWriter != nil {
		c.MemoryEventsWriter.Close()
	}
	if c.ExportRequestsWriter != nil {
		c.ExportRequestsWriter.Close()
	}
	c.logger.Info("Closed Kafka Producers")
}

package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/foxseedlab/kikitori/internal/events"
	"github.com/segmentio/kafka-go"
)

type KafkaConfig struct {
	Enabled bool
	Brokers []string
	Topic   string
}

type KafkaPublisher struct {
	writer *kafka.Writer
	topic  string
}

func NewKafkaPublisher(cfg KafkaConfig) *KafkaPublisher {
	if !cfg.Enabled || len(cfg.Brokers) == 0 {
		slog.Info("kafka disabled, transcript events are log-only")
		return &KafkaPublisher{topic: cfg.Topic}
	}

	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
		Async:        true,
		Transport:    &kafka.Transport{Dial: dialer.DialFunc},
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				slog.Error("failed to deliver transcript events", "error", err, "topic", cfg.Topic, "messages", len(messages))
			}
		},
	}
	slog.Info("kafka publisher initialized", "brokers", cfg.Brokers, "topic", cfg.Topic)
	return &KafkaPublisher{writer: writer, topic: cfg.Topic}
}

func (p *KafkaPublisher) PublishTranscript(ctx context.Context, event events.TranscriptEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal transcript event: %w", err)
	}
	if p.writer == nil {
		slog.Debug("transcript event (kafka disabled)", "session_id", event.SessionID, "chunk_seq", event.ChunkSeq, "bytes", len(value))
		return nil
	}
	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.SessionID),
		Value: value,
		Time:  event.At,
	}); err != nil {
		return fmt.Errorf("publish transcript event to %s: %w", p.topic, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

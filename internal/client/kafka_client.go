package client

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/Amxn-2/cyber-feed/internal/config"
	"github.com/Amxn-2/cyber-feed/internal/models"
	"github.com/Amxn-2/cyber-feed/internal/util"
)

// KafkaProducer publishes newly ingested incidents for downstream consumers
// (alerting, SIEM export). It is strictly optional: the pipeline ingests
// identically with or without it, and publish failures never fail an item.
type KafkaProducer struct {
	Writer *kafka.Writer
	topic  string
	logger *zap.Logger
}

// NewKafkaProducer builds a producer for the configured topic.
func NewKafkaProducer(cfg *config.Config, logger *zap.Logger) (*KafkaProducer, error) {
	if len(cfg.Kafka.Brokers) == 0 {
		return nil, fmt.Errorf("no kafka brokers configured")
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Kafka.Brokers...),
		Topic:        cfg.Kafka.Topic,
		Balancer:     &kafka.LeastBytes{},
		MaxAttempts:  3,
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}

	util.Info("Kafka producer initialized",
		zap.Strings("brokers", cfg.Kafka.Brokers),
		zap.String("topic", cfg.Kafka.Topic),
	)

	return &KafkaProducer{
		Writer: writer,
		topic:  cfg.Kafka.Topic,
		logger: logger,
	}, nil
}

// PublishIncident writes the incident document as a JSON message keyed by
// fingerprint, so replays of the same incident land in one partition.
func (p *KafkaProducer) PublishIncident(ctx context.Context, incident *models.Incident) error {
	value, err := json.Marshal(incident)
	if err != nil {
		return fmt.Errorf("failed to marshal incident: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(incident.Fingerprint),
		Value: value,
		Headers: []kafka.Header{
			{Key: "category", Value: []byte(incident.Category)},
			{Key: "severity", Value: []byte(incident.Severity)},
		},
	}

	if err := p.Writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write kafka message: %w", err)
	}

	p.logger.Debug("Published incident event",
		zap.String("incident_id", incident.ID),
		zap.String("topic", p.topic),
	)
	return nil
}

// HealthCheck dials the first broker and lists partitions.
func (p *KafkaProducer) HealthCheck(ctx context.Context) error {
	dialer := &kafka.Dialer{
		Timeout:   5 * time.Second,
		DualStack: true,
	}

	addr := p.Writer.Addr.String()
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to connect to kafka broker: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ReadPartitions(); err != nil {
		return fmt.Errorf("failed to read kafka partitions: %w", err)
	}
	return nil
}

// Close flushes and closes the writer.
func (p *KafkaProducer) Close() error {
	if p.Writer != nil {
		if err := p.Writer.Close(); err != nil {
			util.Error("failed to close Kafka producer", zap.Error(err))
			return err
		}
		util.Info("Kafka producer closed")
	}
	return nil
}

package messaging

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/temcen/cinematch/internal/metrics"
)

const (
	// RecommendationServedTopic is the default topic for served recommendations.
	RecommendationServedTopic = "recommendations-served"

	eventTypeRecommendationServed = "recommendation.served"
)

// RecommendationServedEvent describes one answered recommendation request.
type RecommendationServedEvent struct {
	EventID        uuid.UUID `json:"event_id"`
	RequestID      string    `json:"request_id,omitempty"`
	UserID         int64     `json:"user_id"`
	Query          string    `json:"query"`
	MatchedTitle   string    `json:"matched_title"`
	MatchScore     float64   `json:"match_score"`
	Alpha          float64   `json:"alpha"`
	ItemIDs        []int64   `json:"item_ids"`
	Titles         []string  `json:"titles"`
	ColdStartItems int       `json:"cold_start_items"`
	Timestamp      time.Time `json:"timestamp"`
}

// EventPublisher emits recommendation events to downstream consumers.
type EventPublisher interface {
	PublishRecommendationServed(ctx context.Context, event RecommendationServedEvent) error
	Close() error
}

// messageWriter is the part of kafka.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaConfig holds producer settings.
type KafkaConfig struct {
	Brokers      []string
	Topic        string
	Async        bool
	WriteTimeout time.Duration
}

// KafkaPublisher writes events keyed by user ID so one user's events stay
// ordered within a partition.
type KafkaPublisher struct {
	writer       messageWriter
	topic        string
	writeTimeout time.Duration
	logger       *logrus.Logger
	metrics      *metrics.Metrics
}

// NewKafkaPublisher creates a publisher over a kafka.Writer.
func NewKafkaPublisher(cfg KafkaConfig, logger *logrus.Logger, m *metrics.Metrics) (*KafkaPublisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers required")
	}
	topic := cfg.Topic
	if topic == "" {
		topic = RecommendationServedTopic
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		Async:        cfg.Async,
		BatchTimeout: 10 * time.Millisecond,
		BatchSize:    100,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.WithError(err).WithField("messages", len(messages)).Error("Failed to deliver events to Kafka")
			}
		},
	}

	return newKafkaPublisher(writer, topic, cfg.WriteTimeout, logger, m), nil
}

func newKafkaPublisher(writer messageWriter, topic string, writeTimeout time.Duration, logger *logrus.Logger, m *metrics.Metrics) *KafkaPublisher {
	if writeTimeout <= 0 {
		writeTimeout = 10 * time.Second
	}
	return &KafkaPublisher{
		writer:       writer,
		topic:        topic,
		writeTimeout: writeTimeout,
		logger:       logger,
		metrics:      m,
	}
}

// PublishRecommendationServed serialises the event and hands it to the writer.
// A zero EventID or Timestamp is filled in.
func (p *KafkaPublisher) PublishRecommendationServed(ctx context.Context, event RecommendationServedEvent) error {
	if event.EventID == uuid.Nil {
		event.EventID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	message, err := encodeEvent(event)
	if err != nil {
		p.metrics.EventPublished("error")
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, p.writeTimeout)
	defer cancel()

	if err := p.writer.WriteMessages(ctx, message); err != nil {
		p.metrics.EventPublished("error")
		p.logger.WithError(err).WithField("event_id", event.EventID).Error("Failed to publish event to Kafka")
		return fmt.Errorf("failed to write message to Kafka: %w", err)
	}

	p.metrics.EventPublished("ok")
	p.logger.WithFields(logrus.Fields{
		"event_id": event.EventID,
		"user_id":  event.UserID,
		"topic":    p.topic,
	}).Debug("Event published to Kafka")

	return nil
}

func encodeEvent(event RecommendationServedEvent) (kafka.Message, error) {
	value, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to marshal event: %w", err)
	}

	return kafka.Message{
		Key:   []byte(strconv.FormatInt(event.UserID, 10)),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(event.EventID.String())},
			{Key: "event_type", Value: []byte(eventTypeRecommendationServed)},
			{Key: "timestamp", Value: []byte(event.Timestamp.Format(time.RFC3339))},
		},
	}, nil
}

// Close flushes pending messages and closes the writer.
func (p *KafkaPublisher) Close() error {
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close producer: %w", err)
	}
	return nil
}

// NoopPublisher discards events. It is used when Kafka is disabled.
type NoopPublisher struct{}

func (NoopPublisher) PublishRecommendationServed(context.Context, RecommendationServedEvent) error {
	return nil
}

func (NoopPublisher) Close() error {
	return nil
}

// PingBrokers dials the first reachable broker.
func PingBrokers(ctx context.Context, brokers []string) error {
	if len(brokers) == 0 {
		return errors.New("no kafka brokers configured")
	}
	var errs []error
	for _, broker := range brokers {
		conn, err := kafka.DialContext(ctx, "tcp", broker)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		return conn.Close()
	}
	return errors.Join(errs...)
}

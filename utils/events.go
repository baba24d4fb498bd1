package utils

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"lms/config"
	"lms/logger"

	"github.com/segmentio/kafka-go"
)

const (
	EventUserRegistered     = "user.registered"
	EventEnrollmentCreated  = "enrollment.created"
	EventCourseCompleted    = "course.completed"
	EventQuizSubmitted      = "quiz.submitted"
	EventCertificateIssued  = "certificate.issued"
	EventCertificateRevoked = "certificate.revoked"
	EventOrderPaid          = "order.paid"
)

type Event struct {
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurred_at"`
	Data       interface{} `json:"data"`
}

type EventPublisher interface {
	Publish(ctx context.Context, key string, event Event) error
	Close() error
}

var Events EventPublisher = LogPublisher{}

func InitEvents() {
	cfg := config.AppConfig
	if len(cfg.KafkaBrokers) == 0 {
		Events = LogPublisher{}
		return
	}
	Events = NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
	logger.Log.Info().Strs("brokers", cfg.KafkaBrokers).Str("topic", cfg.KafkaTopic).Msg("kafka event publisher enabled")
}

type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
			BatchTimeout:           50 * time.Millisecond,
		},
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, key string, event Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", event.Type, err)
	}
	return p.writer.WriteMessages(ctx, kafka.Message{Key: []byte(key), Value: value})
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// LogPublisher writes events to the debug log.
type LogPublisher struct{}

func (LogPublisher) Publish(_ context.Context, key string, event Event) error {
	logger.Log.Debug().Str("event", event.Type).Str("key", key).Msg("event")
	return nil
}

func (LogPublisher) Close() error { return nil }

// PublishEvent emits an event keyed by entity id in the background.
func PublishEvent(eventType string, id uint, data interface{}) {
	event := Event{Type: eventType, OccurredAt: time.Now().UTC(), Data: data}
	key := strconv.FormatUint(uint64(id), 10)
	Go(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := Events.Publish(ctx, key, event); err != nil {
			logger.Log.Error().Err(err).Str("event", eventType).Str("key", key).Msg("failed to publish event")
		}
	})
}

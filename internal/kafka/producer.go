package kafka

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"venue-booking/internal/config"
	"venue-booking/internal/models"
)

// Producer streams booking lifecycle events. Each topic gets its own writer so
// downstream consumers can subscribe per event type.
type Producer struct {
	created   *kafka.Writer
	confirmed *kafka.Writer
	cancelled *kafka.Writer
}

func NewProducer(cfg config.KafkaConfig) *Producer {
	writer := func(topic string) *kafka.Writer {
		return kafka.NewWriter(kafka.WriterConfig{
			Brokers: cfg.Brokers,
			Topic:   topic,
		})
	}
	return &Producer{
		created:   writer(cfg.Topics.BookingCreated),
		confirmed: writer(cfg.Topics.BookingConfirmed),
		cancelled: writer(cfg.Topics.BookingCancelled),
	}
}

func (p *Producer) publish(w *kafka.Writer, booking models.Booking) error {
	msgBytes, err := json.Marshal(booking)
	if err != nil {
		return err
	}
	return w.WriteMessages(context.Background(),
		kafka.Message{
			Key:   []byte(booking.BookingID),
			Value: msgBytes,
		},
	)
}

// PublishBookingCreated streams the booking creation event to Kafka
func (p *Producer) PublishBookingCreated(booking models.Booking) error {
	return p.publish(p.created, booking)
}

// PublishBookingConfirmed streams the payment confirmation event to Kafka
func (p *Producer) PublishBookingConfirmed(booking models.Booking) error {
	return p.publish(p.confirmed, booking)
}

// PublishBookingCancelled streams the cancellation event to Kafka
func (p *Producer) PublishBookingCancelled(booking models.Booking) error {
	return p.publish(p.cancelled, booking)
}

func (p *Producer) Close() error {
	var firstErr error
	for _, w := range []*kafka.Writer{p.created, p.confirmed, p.cancelled} {
		if err := w.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

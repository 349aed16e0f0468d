package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// Stream archives domain events to Kafka for downstream consumers
// (notifications, analytics). Writes go through a circuit breaker so a dead
// broker does not slow message sends down to its timeout on every call.
type Stream struct {
	writer  *kafka.Writer
	breaker *gobreaker.CircuitBreaker
	log     *zap.SugaredLogger
}

func NewStream(brokers []string, topic string, log *zap.SugaredLogger) *Stream {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 50 * time.Millisecond,
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "kafka-stream",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= 5
		},
	})
	return &Stream{writer: w, breaker: cb, log: log}
}

// Publish is fire-and-forget; failures are logged and counted by the breaker.
func (s *Stream) Publish(ctx context.Context, key, event string, payload any) {
	env, err := NewEnvelope(event, payload)
	if err != nil {
		s.log.Errorw("marshal stream payload", "event", event, "err", err)
		return
	}
	b, _ := json.Marshal(env)
	_, err = s.breaker.Execute(func() (any, error) {
		return nil, s.writer.WriteMessages(ctx, kafka.Message{
			Key:   []byte(key),
			Value: b,
			Time:  time.Now(),
		})
	})
	if err != nil {
		s.log.Warnw("stream publish", "event", event, "err", err)
	}
}

func (s *Stream) Close() error {
	if s.writer == nil {
		return nil
	}
	return s.writer.Close()
}

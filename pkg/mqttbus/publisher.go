package mqttbus

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

// ErrPublishTimeout is returned when the broker does not acknowledge in time.
var ErrPublishTimeout = errors.New("mqtt publish timed out")

// IPublisher publishes payloads to a topic.
type IPublisher interface {
	Publish(topic string, payload any) error
}

// BreakerSettings mirrors the knobs used to trip the publish breaker.
type BreakerSettings struct {
	Name        string
	MaxFailures uint32
	OpenFor     time.Duration
	Interval    time.Duration

	OnStateChange func(name string, from, to gobreaker.State)
}

func NewBreaker(s BreakerSettings) *gobreaker.CircuitBreaker {
	fails := s.MaxFailures
	if fails == 0 {
		fails = 3
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:     s.Name,
		Interval: s.Interval,
		Timeout:  s.OpenFor,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= fails
		},
		OnStateChange: s.OnStateChange,
	})
}

// Publisher sends JSON (or raw string/[]byte) payloads through a circuit breaker
// so a dead broker fails fast instead of stalling callers.
type Publisher struct {
	client  Client
	qos     byte
	timeout time.Duration
	cb      *gobreaker.CircuitBreaker
	logger  *slog.Logger
}

func NewPublisher(client Client, cb *gobreaker.CircuitBreaker, logger *slog.Logger) *Publisher {
	if cb == nil {
		cb = NewBreaker(BreakerSettings{Name: "mqtt-publish", OpenFor: 30 * time.Second})
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{client: client, qos: 1, timeout: 5 * time.Second, cb: cb, logger: logger}
}

func (p *Publisher) Publish(topic string, payload any) error {
	body, err := encode(payload)
	if err != nil {
		return err
	}
	_, err = p.cb.Execute(func() (interface{}, error) {
		token := p.client.Publish(topic, p.qos, false, body)
		if !token.WaitTimeout(p.timeout) {
			return nil, ErrPublishTimeout
		}
		return nil, token.Error()
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	p.logger.Debug("mqtt published", "topic", topic, "bytes", len(body))
	return nil
}

func encode(payload any) ([]byte, error) {
	switch v := payload.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode payload: %w", err)
		}
		return b, nil
	}
}

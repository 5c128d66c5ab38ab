package mqttbus

import (
	"context"
	"log/slog"
	"strings"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Handler processes one message received on topic.
type Handler func(topic string, msg mqtt.Message) error

type IConsumer interface {
	ConsumeMessage(ctx context.Context) error
	SetHandler(h Handler)
}

// Consumer subscribes to a set of topic filters and dispatches to a single handler.
type Consumer struct {
	client  Client
	topics  []string
	handler Handler
	logger  *slog.Logger
}

func NewConsumer(client Client, topics []string, handler Handler, logger *slog.Logger) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{client: client, topics: topics, handler: handler, logger: logger}
}

func (c *Consumer) SetHandler(h Handler) { c.handler = h }

// qosFor picks at-least-once for command topics, at-most-once otherwise.
func qosFor(topic string) byte {
	if strings.Contains(strings.TrimSpace(topic), "/refresh") {
		return 1
	}
	return 0
}

// ConsumeMessage subscribes to every topic and blocks until ctx is cancelled,
// then unsubscribes.
func (c *Consumer) ConsumeMessage(ctx context.Context) error {
	subscribed := make([]string, 0, len(c.topics))
	for _, topic := range c.topics {
		token := c.client.Subscribe(topic, qosFor(topic), func(_ mqtt.Client, msg mqtt.Message) {
			if c.handler == nil {
				c.logger.Warn("no handler set", "topic", msg.Topic())
				return
			}
			if err := c.handler(msg.Topic(), msg); err != nil {
				c.logger.Error("handle message", "topic", msg.Topic(), "err", err)
			}
		})
		if token.Wait() && token.Error() != nil {
			c.logger.Error("subscribe failed", "topic", topic, "err", token.Error())
			continue
		}
		c.logger.Info("subscribed", "topic", topic)
		subscribed = append(subscribed, topic)
	}

	<-ctx.Done()

	if len(subscribed) > 0 {
		c.client.Unsubscribe(subscribed...).Wait()
	}
	return ctx.Err()
}

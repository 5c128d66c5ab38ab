package mqttbus

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Client is the subset of mqtt.Client the bus needs. mqtt.Client satisfies it.
type Client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token
	Unsubscribe(topics ...string) mqtt.Token
	IsConnected() bool
	Disconnect(quiesce uint)
}

type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	ClientID string

	// MaxRetries bounds connection attempts; MaxElapsed bounds their total duration.
	MaxRetries int
	MaxElapsed time.Duration
}

// Enabled reports whether a broker has been configured at all.
func (c Config) Enabled() bool { return c.Host != "" }

func (c Config) Addr() string { return fmt.Sprintf("tcp://%s:%d", c.Host, c.Port) }

// Connect dials the broker with exponential backoff. The connection is closed
// when ctx is cancelled.
func Connect(ctx context.Context, cfg Config, logger *slog.Logger) (mqtt.Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	addr := cfg.Addr()

	opts := mqtt.NewClientOptions()
	opts.AddBroker(addr)
	opts.SetUsername(cfg.User)
	opts.SetPassword(cfg.Password)
	opts.SetClientID(cfg.ClientID)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.Warn("mqtt connection lost", "broker", addr, "err", err)
	})

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = cfg.MaxElapsed
	if bo.MaxElapsedTime <= 0 {
		bo.MaxElapsedTime = 10 * time.Second
	}
	retries := cfg.MaxRetries
	if retries <= 0 {
		retries = 5
	}

	var client mqtt.Client
	err := backoff.Retry(func() error {
		client = mqtt.NewClient(opts)
		if token := client.Connect(); token.Wait() && token.Error() != nil {
			logger.Warn("mqtt connect failed", "broker", addr, "err", token.Error())
			return token.Error()
		}
		return nil
	}, backoff.WithContext(backoff.WithMaxRetries(bo, uint64(retries-1)), ctx))
	if err != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", addr, err)
	}
	logger.Info("mqtt connected", "broker", addr, "client_id", cfg.ClientID)

	go func() {
		<-ctx.Done()
		Close(client, logger)
	}()
	return client, nil
}

// Close disconnects c if it is still connected.
func Close(c Client, logger *slog.Logger) {
	if c == nil || !c.IsConnected() {
		return
	}
	c.Disconnect(250)
	if logger != nil {
		logger.Info("mqtt disconnected")
	}
}

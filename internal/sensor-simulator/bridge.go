package sensor_simulator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strconv"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/LeonardoBeccarini/smartfarm/internal/model/messages"
	"github.com/LeonardoBeccarini/smartfarm/pkg/dedup"
	"github.com/LeonardoBeccarini/smartfarm/pkg/mqttbus"
)

const (
	DefaultSeriesTopic  = "farm/series"
	DefaultRefreshTopic = "farm/refresh"
)

// ErrNoPage is returned for a refresh command that names no page.
var ErrNoPage = errors.New("refresh command names no page")

// Bridge connects page refreshers to the broker: completed refreshes are
// broadcast on {seriesTopic}/{page}, and commands on {refreshTopic}/+ trigger
// refreshes.
type Bridge struct {
	refreshers   map[string]*Refresher
	publisher    mqttbus.IPublisher
	consumer     mqttbus.IConsumer
	deduper      *dedup.Deduper
	seriesTopic  string
	refreshTopic string
	logger       *slog.Logger
}

func NewBridge(publisher mqttbus.IPublisher, consumer mqttbus.IConsumer, seriesTopic, refreshTopic string, logger *slog.Logger) *Bridge {
	if seriesTopic == "" {
		seriesTopic = DefaultSeriesTopic
	}
	if refreshTopic == "" {
		refreshTopic = DefaultRefreshTopic
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{
		refreshers:   map[string]*Refresher{},
		publisher:    publisher,
		consumer:     consumer,
		deduper:      dedup.New(2*time.Minute, 10000),
		seriesTopic:  strings.TrimSuffix(seriesTopic, "/"),
		refreshTopic: strings.TrimSuffix(refreshTopic, "/"),
		logger:       logger,
	}
}

// RefreshFilter is the subscription filter for refresh commands.
func RefreshFilter(refreshTopic string) string {
	if refreshTopic == "" {
		refreshTopic = DefaultRefreshTopic
	}
	return strings.TrimSuffix(refreshTopic, "/") + "/+"
}

// Attach registers r so its refreshes are broadcast and it accepts commands.
// Must be called before Start.
func (b *Bridge) Attach(r *Refresher) {
	b.refreshers[r.Name()] = r
	if b.publisher != nil {
		r.OnRefresh(b.broadcast)
	}
}

// Start consumes refresh commands until ctx is cancelled.
func (b *Bridge) Start(ctx context.Context) error {
	if b.consumer == nil {
		<-ctx.Done()
		return ctx.Err()
	}
	b.consumer.SetHandler(b.handleMessage)
	return b.consumer.ConsumeMessage(ctx)
}

func (b *Bridge) SeriesTopic(page string) string { return b.seriesTopic + "/" + page }

func (b *Bridge) broadcast(res RefreshResult) {
	evt := messages.SeriesRefreshed{
		Page:      res.Name,
		Ticket:    res.Ticket,
		Series:    res.Series,
		Timestamp: res.CompletedAt,
	}
	if err := b.publisher.Publish(b.SeriesTopic(res.Name), evt); err != nil {
		b.logger.Error("broadcast series", "page", res.Name, "err", err)
	}
}

func (b *Bridge) handleMessage(topic string, msg mqtt.Message) error {
	if key := redeliveryKey(topic, msg); key != "" {
		if msg.Duplicate() && b.deduper.Seen(key) {
			b.logger.Debug("redelivered refresh command", "topic", topic, "id", msg.MessageID())
			return nil
		}
		b.deduper.Remember(key)
	}

	var cmd messages.RefreshCommand
	if body := strings.TrimSpace(string(msg.Payload())); body != "" {
		if err := json.Unmarshal(msg.Payload(), &cmd); err != nil {
			return fmt.Errorf("invalid RefreshCommand: %w", err)
		}
	}
	page := cmd.Page
	if page == "" && strings.HasPrefix(topic, b.refreshTopic+"/") {
		page = path.Base(topic)
	}
	if page == "" {
		return ErrNoPage
	}

	r, ok := b.refreshers[page]
	if !ok {
		// other instances may serve pages this one does not
		b.logger.Debug("refresh command for unknown page", "page", page)
		return nil
	}
	p, err := r.Refresh()
	if errors.Is(err, ErrRefreshInProgress) {
		b.logger.Info("refresh already pending", "page", page)
		return nil
	}
	if err != nil {
		return fmt.Errorf("refresh %s: %w", page, err)
	}
	b.logger.Info("refresh requested over mqtt", "page", page, "ticket", p.Ticket())
	return nil
}

// redeliveryKey identifies a QoS>0 delivery so a broker redelivery (DUP set,
// same packet id on the same topic) can be told apart from a new command.
// QoS 0 messages are never redelivered and get no key.
func redeliveryKey(topic string, msg mqtt.Message) string {
	if msg.Qos() == 0 || msg.MessageID() == 0 {
		return ""
	}
	return topic + "#" + strconv.FormatUint(uint64(msg.MessageID()), 10)
}

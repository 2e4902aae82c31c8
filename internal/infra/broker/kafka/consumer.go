package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/IBM/sarama"
)

// Event is a decoded CloudEvents envelope as published by the outbox worker.
type Event struct {
	ID     string
	Type   string
	Source string
	Key    string
	Time   time.Time
	Data   map[string]any
}

// EventSink receives decoded domain events. Returning an error leaves the
// message uncommitted so the group redelivers it.
type EventSink interface {
	Consume(ctx context.Context, evt Event) error
}

// EventFeed subscribes a consumer group to the domain event topics and fans
// the decoded envelopes into a sink. It backs the optional feed mode of the
// service binary, giving operators a live view of booking, payment and
// listing events without a separate tap.
type EventFeed struct {
	group  sarama.ConsumerGroup
	sink   EventSink
	logger *slog.Logger
}

func NewEventFeed(brokers []string, groupID string, cfg *sarama.Config, sink EventSink, logger *slog.Logger) (*EventFeed, error) {
	if cfg == nil {
		cfg = sarama.NewConfig()
	}
	cfg.Version = sarama.V2_5_0_0
	group, err := sarama.NewConsumerGroup(brokers, groupID, cfg)
	if err != nil {
		return nil, err
	}
	return &EventFeed{group: group, sink: sink, logger: logger}, nil
}

func (f *EventFeed) Run(ctx context.Context, topics []string) error {
	handler := feedGroupHandler{sink: f.sink, logger: f.logger}
	for {
		if err := f.group.Consume(ctx, topics, handler); err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func (f *EventFeed) Close() error {
	return f.group.Close()
}

type feedGroupHandler struct {
	sink   EventSink
	logger *slog.Logger
}

func (h feedGroupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h feedGroupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h feedGroupHandler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for message := range claim.Messages() {
		if h.process(sess.Context(), message) {
			sess.MarkMessage(message, "")
		}
	}
	return nil
}

// process decodes one message and hands it to the sink. It reports whether
// the offset may be committed: malformed envelopes are committed and dropped
// so a poison message cannot wedge the partition, sink failures are not.
func (h feedGroupHandler) process(ctx context.Context, msg *sarama.ConsumerMessage) bool {
	evt, err := decodeEvent(msg)
	if err != nil {
		h.log().Warn("dropping malformed event",
			"topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset, "error", err)
		return true
	}
	if err := h.sink.Consume(ctx, evt); err != nil {
		h.log().Error("event sink failed", "type", evt.Type, "id", evt.ID, "error", err)
		return false
	}
	return true
}

func (h feedGroupHandler) log() *slog.Logger {
	if h.logger != nil {
		return h.logger
	}
	return slog.Default()
}

func decodeEvent(msg *sarama.ConsumerMessage) (Event, error) {
	var envelope struct {
		SpecVersion string         `json:"specversion"`
		ID          string         `json:"id"`
		Type        string         `json:"type"`
		Source      string         `json:"source"`
		Time        time.Time      `json:"time"`
		Data        map[string]any `json:"data"`
	}
	if err := json.Unmarshal(msg.Value, &envelope); err != nil {
		return Event{}, err
	}
	if envelope.Type == "" {
		return Event{}, fmt.Errorf("envelope missing type")
	}
	return Event{
		ID:     envelope.ID,
		Type:   envelope.Type,
		Source: envelope.Source,
		Key:    string(msg.Key),
		Time:   envelope.Time,
		Data:   envelope.Data,
	}, nil
}

// LogSink writes every consumed event to the structured log.
type LogSink struct {
	Logger *slog.Logger
}

func (s LogSink) Consume(_ context.Context, evt Event) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	attrs := []any{"type", evt.Type, "id", evt.ID, "key", evt.Key, "source", evt.Source}
	if bookingID, ok := evt.Data["booking_id"].(string); ok {
		attrs = append(attrs, "booking_id", bookingID)
	}
	logger.Info("domain event", attrs...)
	return nil
}

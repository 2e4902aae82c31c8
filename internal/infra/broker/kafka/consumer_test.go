package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/IBM/sarama"
)

type recordingSink struct {
	events []Event
	fail   error
}

func (s *recordingSink) Consume(_ context.Context, evt Event) error {
	if s.fail != nil {
		return s.fail
	}
	s.events = append(s.events, evt)
	return nil
}

func bookingMessage() *sarama.ConsumerMessage {
	return &sarama.ConsumerMessage{
		Topic:     "booking.events.v1",
		Partition: 0,
		Offset:    42,
		Key:       []byte("bkg-1"),
		Value: []byte(`{
			"specversion": "1.0",
			"id": "evt-1",
			"type": "booking.cancelled.v1",
			"source": "app://staymarket",
			"time": "2026-06-01T12:00:00Z",
			"data": {"booking_id": "bkg-1", "refund_percent": 50}
		}`),
	}
}

func TestDecodeEvent(t *testing.T) {
	evt, err := decodeEvent(bookingMessage())
	if err != nil {
		t.Fatalf("decodeEvent: %v", err)
	}
	if evt.Type != "booking.cancelled.v1" {
		t.Fatalf("type = %q", evt.Type)
	}
	if evt.ID != "evt-1" || evt.Key != "bkg-1" || evt.Source != "app://staymarket" {
		t.Fatalf("event = %+v", evt)
	}
	if !evt.Time.Equal(time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)) {
		t.Fatalf("time = %v", evt.Time)
	}
	if evt.Data["booking_id"] != "bkg-1" {
		t.Fatalf("data = %v", evt.Data)
	}
}

func TestDecodeEventRejectsBadEnvelopes(t *testing.T) {
	cases := []struct {
		name  string
		value string
	}{
		{"not json", "not json"},
		{"missing type", `{"specversion":"1.0","id":"evt-1"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			msg := bookingMessage()
			msg.Value = []byte(tc.value)
			if _, err := decodeEvent(msg); err == nil {
				t.Fatal("decodeEvent accepted a bad envelope")
			}
		})
	}
}

func TestFeedProcessDeliversToSink(t *testing.T) {
	sink := &recordingSink{}
	h := feedGroupHandler{sink: sink}

	if !h.process(context.Background(), bookingMessage()) {
		t.Fatal("delivered message must be committed")
	}
	if len(sink.events) != 1 || sink.events[0].Key != "bkg-1" {
		t.Fatalf("sink events = %+v", sink.events)
	}
}

func TestFeedProcessDropsMalformedMessage(t *testing.T) {
	sink := &recordingSink{}
	h := feedGroupHandler{sink: sink}

	msg := bookingMessage()
	msg.Value = []byte("not json")
	if !h.process(context.Background(), msg) {
		t.Fatal("poison message must still be committed")
	}
	if len(sink.events) != 0 {
		t.Fatalf("sink events = %+v, want none", sink.events)
	}
}

func TestFeedProcessRetainsMessageOnSinkError(t *testing.T) {
	sink := &recordingSink{fail: errors.New("downstream unavailable")}
	h := feedGroupHandler{sink: sink}

	if h.process(context.Background(), bookingMessage()) {
		t.Fatal("failed delivery must not be committed")
	}
}

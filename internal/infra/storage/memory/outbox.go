package memory

import (
	"context"
	"sync"

	appoutbox "staymarket/internal/app/outbox"
)

// Outbox buffers event records in memory. Flush hands them to an optional
// sink (the durable outbox store feeding the publisher worker).
type Outbox struct {
	mu      sync.Mutex
	records []appoutbox.EventRecord
	sink    func(ctx context.Context, records []appoutbox.EventRecord) error
}

func NewOutbox() *Outbox {
	return &Outbox{}
}

// NewOutboxWithSink routes flushed records into the provided sink.
func NewOutboxWithSink(sink func(ctx context.Context, records []appoutbox.EventRecord) error) *Outbox {
	return &Outbox{sink: sink}
}

func (o *Outbox) Add(ctx context.Context, record appoutbox.EventRecord) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.records = append(o.records, record)
	return nil
}

func (o *Outbox) Flush(ctx context.Context) error {
	o.mu.Lock()
	records := o.records
	o.records = nil
	o.mu.Unlock()
	if o.sink == nil || len(records) == 0 {
		return nil
	}
	return o.sink(ctx, records)
}

// Pending reports buffered but unflushed records; used in tests.
func (o *Outbox) Pending() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.records)
}

var _ appoutbox.Outbox = (*Outbox)(nil)

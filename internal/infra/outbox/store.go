package outbox

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	appoutbox "staymarket/internal/app/outbox"
)

type documentStatus string

const (
	statusPending documentStatus = "pending"
	statusClaimed documentStatus = "claimed"
	statusSent    documentStatus = "sent"
)

// EventDocument is a durable outbox entry awaiting publication.
type EventDocument struct {
	ID         string
	Name       string
	Aggregate  string
	Payload    []byte
	Headers    map[string]string
	OccurredAt time.Time
	Attempts   int
	NextRetry  time.Time
	LastError  string
	Status     documentStatus
	ClaimedBy  string
}

// Store is the in-memory durable half of the outbox: command middleware
// flushes records in, the worker claims them out one at a time.
type Store struct {
	mu   sync.Mutex
	docs []*EventDocument
}

func NewStore() *Store {
	return &Store{}
}

// Append ingests flushed event records; wired as the transactional outbox
// sink.
func (s *Store) Append(ctx context.Context, records []appoutbox.EventRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, record := range records {
		s.docs = append(s.docs, &EventDocument{
			ID:         uuid.NewString(),
			Name:       record.Name,
			Aggregate:  record.Aggregate,
			Payload:    record.Payload,
			Headers:    record.Headers,
			OccurredAt: record.OccurredAt,
			Status:     statusPending,
		})
	}
	return nil
}

// Claim hands the oldest due pending document to the worker, or nil when
// none is ready.
func (s *Store) Claim(ctx context.Context, workerID string) (*EventDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for _, doc := range s.docs {
		if doc.Status != statusPending {
			continue
		}
		if !doc.NextRetry.IsZero() && doc.NextRetry.After(now) {
			continue
		}
		doc.Status = statusClaimed
		doc.ClaimedBy = workerID
		return doc, nil
	}
	return nil, nil
}

func (s *Store) MarkSent(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, doc := range s.docs {
		if doc.ID == id {
			doc.Status = statusSent
			return nil
		}
	}
	return nil
}

func (s *Store) MarkFailed(ctx context.Context, id string, nextRetry time.Time, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, doc := range s.docs {
		if doc.ID == id {
			doc.Status = statusPending
			doc.Attempts++
			doc.NextRetry = nextRetry
			doc.LastError = reason
			doc.ClaimedBy = ""
			return nil
		}
	}
	return nil
}

// Unsent counts documents still awaiting publication; used in tests.
func (s *Store) Unsent() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, doc := range s.docs {
		if doc.Status != statusSent {
			count++
		}
	}
	return count
}

package policies

import "context"

// Notification is a message addressed to one user.
type Notification struct {
	UserID  string
	Subject string
	Body    string
}

// Notifier delivers booking lifecycle notifications. Delivery failures are
// logged and never fail the command that produced them.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

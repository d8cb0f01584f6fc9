package domain

import (
	"context"
	"time"
)

// DefaultReminderWindow is the look-ahead horizon within which an event
// becomes eligible for a reminder.
const DefaultReminderWindow = 30 * time.Minute

// Recipient is one notification target resolved for a dispatch tick.
type Recipient struct {
	UserID string
	Email  string
	Name   string
}

// RecipientResolver enumerates who should be reminded about an event.
// Implementations are policies; the current one broadcasts to every
// registered user with an email address.
type RecipientResolver interface {
	Resolve(ctx context.Context, event *Event) ([]Recipient, error)
}

// DispatchSummary reports what one dispatch tick did.
type DispatchSummary struct {
	EventsProcessed int
	EmailsSent      int
	EmailsFailed    int
}

// ReminderService runs one dispatch tick: select due events, fan out
// reminder emails, and durably mark each event notified.
type ReminderService interface {
	DispatchDueReminders(ctx context.Context, now time.Time) (DispatchSummary, error)
}

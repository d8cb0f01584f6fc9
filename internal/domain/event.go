package domain

import (
	"context"
	"time"
)

// MaxTitleLength is the longest title accepted on create, update, and import.
const MaxTitleLength = 255

// Event represents a calendar entry owned by a single user.
// swagger:model Event
type Event struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Title       string    `json:"title"`
	Description *string   `json:"description,omitempty"`
	EventTime   time.Time `json:"event_time"`
	Notified    bool      `json:"notified"`
	UniqueID    string    `json:"unique_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewEvent returns a new Event with the given fields. ID is set by the repository on create.
func NewEvent(ownerID, title string, description *string, eventTime time.Time, uniqueID string, createdAt, updatedAt time.Time) *Event {
	return &Event{
		OwnerID:     ownerID,
		Title:       title,
		Description: description,
		EventTime:   eventTime,
		UniqueID:    uniqueID,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}
}

// EventRepository defines the interface for event storage.
//
// CRUD methods take an ownerID and must only touch rows with a matching
// owner; a row owned by someone else is reported as ErrNotFound. The
// dispatch methods (ListDueUnnotified, MarkNotified) operate system-wide.
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id, ownerID string) (*Event, error)
	ListByOwnerID(ctx context.Context, ownerID string) ([]*Event, error)
	ListUpcomingByOwnerID(ctx context.Context, ownerID string, from, to time.Time) ([]*Event, error)
	Update(ctx context.Context, id, ownerID string, title, description *string, eventTime *time.Time) (*Event, error)
	Delete(ctx context.Context, id, ownerID string) error

	// ListDueUnnotified returns events with event_time in (from, to] and
	// notified = false, ordered by event_time ascending.
	ListDueUnnotified(ctx context.Context, from, to time.Time) ([]*Event, error)

	// MarkNotified flips the notified flag to true. The flag is monotonic:
	// an already-notified event is left untouched.
	MarkNotified(ctx context.Context, id string) error

	// BulkInsert commits all events in a single statement.
	BulkInsert(ctx context.Context, events []*Event) error
}

// EventService defines the business logic for owner-scoped event management.
type EventService interface {
	CreateEvent(ctx context.Context, ownerID, title string, description *string, eventTime time.Time) (*Event, error)
	ListEvents(ctx context.Context, ownerID string) ([]*Event, error)
	ListUpcomingEvents(ctx context.Context, ownerID string) ([]*Event, error)
	UpdateEvent(ctx context.Context, eventID, ownerID string, title, description *string, eventTime *time.Time) (*Event, error)
	DeleteEvent(ctx context.Context, eventID, ownerID string) error
}

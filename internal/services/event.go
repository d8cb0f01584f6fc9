package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"eventreminders/internal/domain"
)

type eventService struct {
	eventRepo      domain.EventRepository
	window         time.Duration
	contextTimeout time.Duration
	clock          func() time.Time
}

// NewEventService returns the EventService backed by the given repository.
// window is the look-ahead horizon used by ListUpcomingEvents.
func NewEventService(eventRepo domain.EventRepository, window, timeout time.Duration) domain.EventService {
	return &eventService{
		eventRepo:      eventRepo,
		window:         window,
		contextTimeout: timeout,
		clock:          time.Now,
	}
}

func (s *eventService) CreateEvent(ctx context.Context, ownerID, title string, description *string, eventTime time.Time) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if ownerID == "" {
		return nil, fmt.Errorf("event owner is required")
	}
	if err := validateTitle(title); err != nil {
		return nil, err
	}
	if eventTime.IsZero() {
		return nil, fmt.Errorf("%w: event_time is required", domain.ErrValidation)
	}

	now := s.clock()
	event := domain.NewEvent(ownerID, strings.TrimSpace(title), description, eventTime, newUniqueID(), now, now)
	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	return event, nil
}

func (s *eventService) ListEvents(ctx context.Context, ownerID string) ([]*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	events, err := s.eventRepo.ListByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

// ListUpcomingEvents returns the caller's own events inside the look-ahead window.
func (s *eventService) ListUpcomingEvents(ctx context.Context, ownerID string) ([]*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	now := s.clock()
	events, err := s.eventRepo.ListUpcomingByOwnerID(ctx, ownerID, now, now.Add(s.window))
	if err != nil {
		return nil, fmt.Errorf("list upcoming events: %w", err)
	}
	return events, nil
}

func (s *eventService) UpdateEvent(ctx context.Context, eventID, ownerID string, title, description *string, eventTime *time.Time) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if title != nil {
		trimmed := strings.TrimSpace(*title)
		if err := validateTitle(trimmed); err != nil {
			return nil, err
		}
		title = &trimmed
	}
	event, err := s.eventRepo.Update(ctx, eventID, ownerID, title, description, eventTime)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("update event: %w", err)
	}
	return event, nil
}

func (s *eventService) DeleteEvent(ctx context.Context, eventID, ownerID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := s.eventRepo.Delete(ctx, eventID, ownerID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}

func validateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("%w: title is required", domain.ErrValidation)
	}
	if len(title) > domain.MaxTitleLength {
		return fmt.Errorf("%w: title must be at most %d characters", domain.ErrValidation, domain.MaxTitleLength)
	}
	return nil
}

// newUniqueID generates the externally visible event token. Collisions are
// tolerated by the caller (the token is never used for lookups).
func newUniqueID() string {
	return "event_" + uuid.NewString()
}

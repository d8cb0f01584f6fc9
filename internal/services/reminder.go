package services

import (
	"context"
	"log/slog"
	"time"

	"eventreminders/internal/domain"
)

// eventTimeLabelLayout renders the event time inside the reminder email.
const eventTimeLabelLayout = "January 02, 2006 03:04 PM"

type reminderService struct {
	eventRepo    domain.EventRepository
	resolver     domain.RecipientResolver
	emailService domain.EmailService
	window       time.Duration
	logger       *slog.Logger
}

// NewReminderService returns the dispatcher that drives one reminder tick.
func NewReminderService(
	eventRepo domain.EventRepository,
	resolver domain.RecipientResolver,
	emailService domain.EmailService,
	window time.Duration,
	logger *slog.Logger,
) domain.ReminderService {
	return &reminderService{
		eventRepo:    eventRepo,
		resolver:     resolver,
		emailService: emailService,
		window:       window,
		logger:       logger,
	}
}

// DispatchDueReminders selects events with event_time in (now, now+window]
// that have not been notified, fans a reminder email out to every resolved
// recipient, and marks each event notified after its fan-out completes.
//
// Failures are contained at the granularity they occur: a recipient whose
// send fails does not block the remaining recipients, an event whose
// processing fails does not block the remaining events, and a failed
// notified-flag write leaves the event eligible for the next tick
// (at-least-once delivery).
func (s *reminderService) DispatchDueReminders(ctx context.Context, now time.Time) (domain.DispatchSummary, error) {
	var summary domain.DispatchSummary

	events, err := s.eventRepo.ListDueUnnotified(ctx, now, now.Add(s.window))
	if err != nil {
		return summary, err
	}
	if len(events) == 0 {
		return summary, nil
	}

	for _, event := range events {
		sent, failed := s.dispatchOne(ctx, event)
		summary.EventsProcessed++
		summary.EmailsSent += sent
		summary.EmailsFailed += failed
	}

	s.logger.Info("reminder dispatch tick finished",
		"events", summary.EventsProcessed,
		"sent", summary.EmailsSent,
		"failed", summary.EmailsFailed,
	)
	return summary, nil
}

func (s *reminderService) dispatchOne(ctx context.Context, event *domain.Event) (sent, failed int) {
	recipients, err := s.resolver.Resolve(ctx, event)
	if err != nil {
		// Leave the event un-notified; the next tick retries.
		s.logger.Error("resolve recipients failed", "event_id", event.ID, "err", err)
		return 0, 0
	}

	description := ""
	if event.Description != nil {
		description = *event.Description
	}
	for _, recipient := range recipients {
		data := &domain.EventReminderEmailData{
			Email:          recipient.Email,
			RecipientName:  recipient.Name,
			Title:          event.Title,
			Description:    description,
			EventTimeLabel: event.EventTime.Format(eventTimeLabelLayout),
		}
		if err := s.emailService.SendEventReminder(ctx, data); err != nil {
			s.logger.Error("reminder delivery failed",
				"event_id", event.ID,
				"recipient", recipient.Email,
				"err", err,
			)
			failed++
			continue
		}
		sent++
	}

	// The flag flips after the fan-out attempt regardless of individual
	// delivery failures; retrying failed recipients is not the core's job.
	if err := s.eventRepo.MarkNotified(ctx, event.ID); err != nil {
		s.logger.Error("mark notified failed, event stays eligible", "event_id", event.ID, "err", err)
	}
	return sent, failed
}

package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"eventreminders/internal/domain"
)

// eventTimeLayouts are the accepted event_time formats, tried in order.
// RFC 3339 first, then the formats spreadsheet exports typically produce.
var eventTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
}

type eventImporter struct {
	eventRepo      domain.EventRepository
	contextTimeout time.Duration
	clock          func() time.Time
	logger         *slog.Logger
}

// NewEventImporter returns the CSV import pipeline backed by the given repository.
func NewEventImporter(eventRepo domain.EventRepository, timeout time.Duration, logger *slog.Logger) domain.EventImporter {
	return &eventImporter{
		eventRepo:      eventRepo,
		contextTimeout: timeout,
		clock:          time.Now,
		logger:         logger,
	}
}

// ImportCSV maps rows by header (case-insensitive, order-independent),
// validates each row on its own, skips invalid rows with a recorded reason,
// and commits the valid subset in a single bulk insert. Only a structurally
// invalid file (no header, missing required columns) fails the whole import.
func (s *eventImporter) ImportCSV(ctx context.Context, ownerID string, r io.Reader) (*domain.ImportResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if ownerID == "" {
		return nil, fmt.Errorf("uploader identity is required")
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // row length mismatches are handled per row
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: file is empty", domain.ErrValidation)
		}
		return nil, fmt.Errorf("%w: unreadable header row: %v", domain.ErrValidation, err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"title", "event_time"} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("%w: missing required column %q", domain.ErrValidation, required)
		}
	}

	result := &domain.ImportResult{Rejections: []domain.RowRejection{}}
	now := s.clock()
	var events []*domain.Event

	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			result.Rejections = append(result.Rejections, domain.RowRejection{Line: line, Reason: fmt.Sprintf("unparsable row: %v", err)})
			continue
		}
		event, reason := s.mapRow(ownerID, columns, len(header), row, now)
		if reason != "" {
			result.Rejections = append(result.Rejections, domain.RowRejection{Line: line, Reason: reason})
			continue
		}
		events = append(events, event)
	}

	if err := s.eventRepo.BulkInsert(ctx, events); err != nil {
		return nil, fmt.Errorf("bulk insert: %w", err)
	}
	result.Imported = len(events)
	s.logger.Info("csv import finished",
		"owner_id", ownerID,
		"imported", result.Imported,
		"rejected", len(result.Rejections),
	)
	return result, nil
}

// mapRow turns one CSV row into an Event, or returns the rejection reason.
func (s *eventImporter) mapRow(ownerID string, columns map[string]int, headerLen int, row []string, now time.Time) (*domain.Event, string) {
	if len(row) != headerLen {
		return nil, fmt.Sprintf("row has %d fields, header has %d", len(row), headerLen)
	}

	title := strings.TrimSpace(row[columns["title"]])
	if title == "" {
		return nil, "title is required"
	}
	if len(title) > domain.MaxTitleLength {
		return nil, fmt.Sprintf("title must be at most %d characters", domain.MaxTitleLength)
	}

	eventTime, ok := parseEventTime(row[columns["event_time"]])
	if !ok {
		return nil, "event_time is not a valid date/time"
	}

	var description *string
	if i, ok := columns["description"]; ok {
		if d := strings.TrimSpace(row[i]); d != "" {
			description = &d
		}
	}

	return domain.NewEvent(ownerID, title, description, eventTime, newUniqueID(), now, now), ""
}

func parseEventTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range eventTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

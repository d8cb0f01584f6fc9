package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"eventreminders/internal/domain"
)

type eventRepository struct {
	DB *sql.DB
}

func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{
		DB: db,
	}
}

const eventColumns = "id, owner_id, title, description, event_time, notified, unique_id, created_at, updated_at"

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	query := `
		INSERT INTO events (owner_id, title, description, event_time, notified, unique_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, FALSE, $5, $6, $7)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query,
		e.OwnerID, e.Title, nullString(e.Description), e.EventTime, e.UniqueID, e.CreatedAt, e.UpdatedAt,
	).Scan(&e.ID)
}

func (r *eventRepository) GetByID(ctx context.Context, id, ownerID string) (*domain.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE id = $1 AND owner_id = $2
	`
	e, err := scanEvent(r.DB.QueryRowContext(ctx, query, id, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func (r *eventRepository) ListByOwnerID(ctx context.Context, ownerID string) ([]*domain.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE owner_id = $1
		ORDER BY event_time ASC
	`
	rows, err := r.DB.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	return collectEvents(rows)
}

func (r *eventRepository) ListUpcomingByOwnerID(ctx context.Context, ownerID string, from, to time.Time) ([]*domain.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE owner_id = $1 AND event_time > $2 AND event_time <= $3
		ORDER BY event_time ASC
	`
	rows, err := r.DB.QueryContext(ctx, query, ownerID, from, to)
	if err != nil {
		return nil, err
	}
	return collectEvents(rows)
}

// ListDueUnnotified is the reminder window query: half-open on the left,
// closed on the right, so an event exactly at `from` is excluded and one
// exactly at `to` is included.
func (r *eventRepository) ListDueUnnotified(ctx context.Context, from, to time.Time) ([]*domain.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE event_time > $1 AND event_time <= $2 AND notified = FALSE
		ORDER BY event_time ASC
	`
	rows, err := r.DB.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	return collectEvents(rows)
}

func (r *eventRepository) Update(ctx context.Context, id, ownerID string, title, description *string, eventTime *time.Time) (*domain.Event, error) {
	setClauses := []string{"updated_at = NOW()"}
	args := []interface{}{}
	n := 1
	if title != nil {
		setClauses = append(setClauses, fmt.Sprintf("title = $%d", n))
		args = append(args, *title)
		n++
	}
	if description != nil {
		setClauses = append(setClauses, fmt.Sprintf("description = $%d", n))
		args = append(args, *description)
		n++
	}
	if eventTime != nil {
		setClauses = append(setClauses, fmt.Sprintf("event_time = $%d", n))
		args = append(args, *eventTime)
		n++
	}
	if n == 1 {
		// No fields to update; just fetch current row
		return r.GetByID(ctx, id, ownerID)
	}
	args = append(args, id, ownerID)
	query := fmt.Sprintf(`
		UPDATE events SET %s
		WHERE id = $%d AND owner_id = $%d
		RETURNING `+eventColumns+`
	`, strings.Join(setClauses, ", "), n, n+1)
	e, err := scanEvent(r.DB.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func (r *eventRepository) Delete(ctx context.Context, id, ownerID string) error {
	query := `DELETE FROM events WHERE id = $1 AND owner_id = $2`
	result, err := r.DB.ExecContext(ctx, query, id, ownerID)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// MarkNotified is conditional on notified = FALSE so the flag stays
// monotonic even if two ticks race on the same event.
func (r *eventRepository) MarkNotified(ctx context.Context, id string) error {
	query := `
		UPDATE events SET notified = TRUE, updated_at = NOW()
		WHERE id = $1 AND notified = FALSE
	`
	_, err := r.DB.ExecContext(ctx, query, id)
	return err
}

func (r *eventRepository) BulkInsert(ctx context.Context, events []*domain.Event) error {
	if len(events) == 0 {
		return nil
	}
	placeholders := make([]string, 0, len(events))
	args := make([]interface{}, 0, len(events)*7)
	for i, e := range events {
		base := i * 7
		placeholders = append(placeholders, fmt.Sprintf("($%d, $%d, $%d, $%d, FALSE, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7))
		args = append(args, e.OwnerID, e.Title, nullString(e.Description), e.EventTime, e.UniqueID, e.CreatedAt, e.UpdatedAt)
	}
	query := `
		INSERT INTO events (owner_id, title, description, event_time, notified, unique_id, created_at, updated_at)
		VALUES ` + strings.Join(placeholders, ", ")
	_, err := r.DB.ExecContext(ctx, query, args...)
	return err
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEvent(row rowScanner) (*domain.Event, error) {
	e := &domain.Event{}
	var descNull sql.NullString
	err := row.Scan(
		&e.ID, &e.OwnerID, &e.Title, &descNull, &e.EventTime,
		&e.Notified, &e.UniqueID, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if descNull.Valid {
		e.Description = &descNull.String
	}
	return e, nil
}

func collectEvents(rows *sql.Rows) ([]*domain.Event, error) {
	defer rows.Close()
	events := make([]*domain.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

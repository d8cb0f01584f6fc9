package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventreminders/internal/delivery/http/helpers"
	"eventreminders/internal/delivery/http/middleware"
	"eventreminders/internal/domain"
)

// testLogger is a no-op logger for controller tests so we don't assert on log output.
var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

// fakeEventService implements domain.EventService for handler tests.
type fakeEventService struct {
	createErr       error
	listErr         error
	upcomingErr     error
	updateErr       error
	deleteErr       error
	events          []*domain.Event
	lastCreateOwner string
	lastCreateTitle string
	lastCreateTime  time.Time
	lastUpdateID    string
	lastUpdateOwner string
	lastDeleteID    string
	lastDeleteOwner string
}

func (f *fakeEventService) CreateEvent(ctx context.Context, ownerID, title string, description *string, eventTime time.Time) (*domain.Event, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.lastCreateOwner = ownerID
	f.lastCreateTitle = title
	f.lastCreateTime = eventTime
	return &domain.Event{ID: "ev-1", OwnerID: ownerID, Title: title, Description: description, EventTime: eventTime, UniqueID: "event_x"}, nil
}

func (f *fakeEventService) ListEvents(ctx context.Context, ownerID string) ([]*domain.Event, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.events, nil
}

func (f *fakeEventService) ListUpcomingEvents(ctx context.Context, ownerID string) ([]*domain.Event, error) {
	if f.upcomingErr != nil {
		return nil, f.upcomingErr
	}
	return f.events, nil
}

func (f *fakeEventService) UpdateEvent(ctx context.Context, eventID, ownerID string, title, description *string, eventTime *time.Time) (*domain.Event, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	f.lastUpdateID = eventID
	f.lastUpdateOwner = ownerID
	e := &domain.Event{ID: eventID, OwnerID: ownerID, Title: "Updated"}
	if title != nil {
		e.Title = *title
	}
	return e, nil
}

func (f *fakeEventService) DeleteEvent(ctx context.Context, eventID, ownerID string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.lastDeleteID = eventID
	f.lastDeleteOwner = ownerID
	return nil
}

// fakeImporter implements domain.EventImporter for handler tests.
type fakeImporter struct {
	result    *domain.ImportResult
	err       error
	lastOwner string
	lastBody  string
}

func (f *fakeImporter) ImportCSV(ctx context.Context, ownerID string, r io.Reader) (*domain.ImportResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	body, _ := io.ReadAll(r)
	f.lastOwner = ownerID
	f.lastBody = string(body)
	return f.result, nil
}

func authedRequest(method, target string, body io.Reader, userID string) *http.Request {
	req := httptest.NewRequest(method, target, body)
	if userID != "" {
		req = req.WithContext(middleware.SetUserID(req.Context(), userID))
	}
	return req
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) helpers.APIResponse {
	t.Helper()
	var envelope helpers.APIResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope))
	return envelope
}

func TestEventController_CreateEvent(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		userID     string
		svc        *fakeEventService
		wantStatus int
		wantCode   string
	}{
		{
			name:       "success",
			body:       `{"title":"Standup","event_time":"2025-01-01T09:00:00Z"}`,
			userID:     "user-1",
			svc:        &fakeEventService{},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "missing title",
			body:       `{"event_time":"2025-01-01T09:00:00Z"}`,
			userID:     "user-1",
			svc:        &fakeEventService{},
			wantStatus: http.StatusBadRequest,
			wantCode:   helpers.ErrCodeBadRequest,
		},
		{
			name:       "bad event_time",
			body:       `{"title":"Standup","event_time":"next tuesday"}`,
			userID:     "user-1",
			svc:        &fakeEventService{},
			wantStatus: http.StatusBadRequest,
			wantCode:   helpers.ErrCodeBadRequest,
		},
		{
			name:       "unknown field rejected",
			body:       `{"title":"Standup","event_time":"2025-01-01T09:00:00Z","notified":true}`,
			userID:     "user-1",
			svc:        &fakeEventService{},
			wantStatus: http.StatusBadRequest,
			wantCode:   helpers.ErrCodeBadRequest,
		},
		{
			name:       "no user in context",
			body:       `{"title":"Standup","event_time":"2025-01-01T09:00:00Z"}`,
			svc:        &fakeEventService{},
			wantStatus: http.StatusUnauthorized,
			wantCode:   helpers.ErrCodeUnauthorized,
		},
		{
			name:       "service failure",
			body:       `{"title":"Standup","event_time":"2025-01-01T09:00:00Z"}`,
			userID:     "user-1",
			svc:        &fakeEventService{createErr: errors.New("db down")},
			wantStatus: http.StatusInternalServerError,
			wantCode:   helpers.ErrCodeInternalError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewEventController(testLogger, tt.svc, &fakeImporter{})
			req := authedRequest(http.MethodPost, "http://test/events", strings.NewReader(tt.body), tt.userID)
			rr := httptest.NewRecorder()

			c.CreateEvent(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantCode != "" {
				envelope := decodeEnvelope(t, rr)
				require.NotNil(t, envelope.Error)
				assert.Equal(t, tt.wantCode, envelope.Error.Code)
				return
			}
			assert.Equal(t, "user-1", tt.svc.lastCreateOwner)
			assert.Equal(t, "Standup", tt.svc.lastCreateTitle)
			assert.True(t, tt.svc.lastCreateTime.Equal(time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)))
		})
	}
}

func TestEventController_UpdateEvent_not_found(t *testing.T) {
	svc := &fakeEventService{updateErr: domain.ErrNotFound}
	c := NewEventController(testLogger, svc, &fakeImporter{})

	req := authedRequest(http.MethodPut, "http://test/events/ev-9", strings.NewReader(`{"title":"New"}`), "user-1")
	req.SetPathValue("eventID", "ev-9")
	rr := httptest.NewRecorder()

	c.UpdateEvent(rr, req)

	require.Equal(t, http.StatusNotFound, rr.Code)
	envelope := decodeEnvelope(t, rr)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, helpers.ErrCodeNotFound, envelope.Error.Code)
}

func TestEventController_DeleteEvent(t *testing.T) {
	svc := &fakeEventService{}
	c := NewEventController(testLogger, svc, &fakeImporter{})

	req := authedRequest(http.MethodDelete, "http://test/events/ev-2", nil, "user-1")
	req.SetPathValue("eventID", "ev-2")
	rr := httptest.NewRecorder()

	c.DeleteEvent(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ev-2", svc.lastDeleteID)
	assert.Equal(t, "user-1", svc.lastDeleteOwner)
}

func TestEventController_ListEvents(t *testing.T) {
	svc := &fakeEventService{events: []*domain.Event{
		{ID: "ev-1", OwnerID: "user-1", Title: "Standup"},
		{ID: "ev-2", OwnerID: "user-1", Title: "Review"},
	}}
	c := NewEventController(testLogger, svc, &fakeImporter{})

	req := authedRequest(http.MethodGet, "http://test/events", nil, "user-1")
	rr := httptest.NewRecorder()

	c.ListEvents(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	envelope := decodeEnvelope(t, rr)
	require.Nil(t, envelope.Error)
	items, ok := envelope.Data.([]any)
	require.True(t, ok)
	assert.Len(t, items, 2)
}

func multipartCSV(t *testing.T, field, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile(field, "events.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestEventController_ImportCSV(t *testing.T) {
	csvBody := "title,event_time\nStandup,2025-01-01T09:00:00Z\n"

	t.Run("success", func(t *testing.T) {
		importer := &fakeImporter{result: &domain.ImportResult{
			Imported:   3,
			Rejections: []domain.RowRejection{{Line: 4, Reason: "event_time is not a valid date/time"}},
		}}
		c := NewEventController(testLogger, &fakeEventService{}, importer)

		body, contentType := multipartCSV(t, "csv_file", csvBody)
		req := authedRequest(http.MethodPost, "http://test/events/import", body, "user-1")
		req.Header.Set("Content-Type", contentType)
		rr := httptest.NewRecorder()

		c.ImportCSV(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "user-1", importer.lastOwner)
		assert.Equal(t, csvBody, importer.lastBody)

		envelope := decodeEnvelope(t, rr)
		require.Nil(t, envelope.Error)
		data, ok := envelope.Data.(map[string]any)
		require.True(t, ok)
		assert.Equal(t, float64(3), data["imported"])
		rejections, ok := data["rejections"].([]any)
		require.True(t, ok)
		assert.Len(t, rejections, 1)
	})

	t.Run("missing file field", func(t *testing.T) {
		c := NewEventController(testLogger, &fakeEventService{}, &fakeImporter{})

		body, contentType := multipartCSV(t, "wrong_field", csvBody)
		req := authedRequest(http.MethodPost, "http://test/events/import", body, "user-1")
		req.Header.Set("Content-Type", contentType)
		rr := httptest.NewRecorder()

		c.ImportCSV(rr, req)

		require.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("structural import error", func(t *testing.T) {
		importer := &fakeImporter{err: domain.ErrValidation}
		c := NewEventController(testLogger, &fakeEventService{}, importer)

		body, contentType := multipartCSV(t, "csv_file", "title,description\n")
		req := authedRequest(http.MethodPost, "http://test/events/import", body, "user-1")
		req.Header.Set("Content-Type", contentType)
		rr := httptest.NewRecorder()

		c.ImportCSV(rr, req)

		require.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		c := NewEventController(testLogger, &fakeEventService{}, &fakeImporter{})

		body, contentType := multipartCSV(t, "csv_file", csvBody)
		req := authedRequest(http.MethodPost, "http://test/events/import", body, "")
		req.Header.Set("Content-Type", contentType)
		rr := httptest.NewRecorder()

		c.ImportCSV(rr, req)

		require.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

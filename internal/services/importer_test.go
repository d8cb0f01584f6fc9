package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventreminders/internal/domain"
)

func newTestImporter(repo *fakeEventRepo) domain.EventImporter {
	return NewEventImporter(repo, time.Second, testLogger)
}

func TestEventImporter_mixed_valid_and_invalid_rows(t *testing.T) {
	ctx := context.Background()
	repo := newFakeEventRepo()
	importer := newTestImporter(repo)

	csvBody := strings.Join([]string{
		"title,description,event_time",
		"Standup,daily sync,2025-01-01T09:00:00Z",
		"Review,,not-a-date",
		"Planning,quarterly,2025-01-02 10:00:00",
		"Retro,,also-bad",
		"Demo,show and tell,2025-01-03 14:30",
	}, "\n")

	result, err := importer.ImportCSV(ctx, "user-1", strings.NewReader(csvBody))
	require.NoError(t, err)

	assert.Equal(t, 3, result.Imported)
	require.Len(t, result.Rejections, 2)
	assert.Equal(t, 3, result.Rejections[0].Line)
	assert.Equal(t, 5, result.Rejections[1].Line)
	assert.Contains(t, result.Rejections[0].Reason, "event_time")

	// Exactly the valid rows exist in the store, all owned by the uploader.
	assert.Len(t, repo.byID, 3)
	for _, e := range repo.byID {
		assert.Equal(t, "user-1", e.OwnerID)
		assert.True(t, strings.HasPrefix(e.UniqueID, "event_"))
		assert.False(t, e.Notified)
	}
	assert.Equal(t, 1, repo.bulkCalls, "valid rows commit in a single batch")
}

func TestEventImporter_header_is_case_insensitive_and_order_free(t *testing.T) {
	ctx := context.Background()
	repo := newFakeEventRepo()
	importer := newTestImporter(repo)

	csvBody := strings.Join([]string{
		" Event_Time , TITLE ,description",
		"2025-01-01T09:00:00Z,Standup,daily sync",
	}, "\n")

	result, err := importer.ImportCSV(ctx, "user-1", strings.NewReader(csvBody))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
	assert.Empty(t, result.Rejections)

	for _, e := range repo.byID {
		assert.Equal(t, "Standup", e.Title)
		require.NotNil(t, e.Description)
		assert.Equal(t, "daily sync", *e.Description)
		assert.True(t, e.EventTime.Equal(time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)))
	}
}

func TestEventImporter_header_only_file(t *testing.T) {
	ctx := context.Background()
	repo := newFakeEventRepo()
	importer := newTestImporter(repo)

	result, err := importer.ImportCSV(ctx, "user-1", strings.NewReader("title,description,event_time\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, result.Imported)
	assert.Empty(t, result.Rejections)
	assert.Empty(t, repo.byID)
}

func TestEventImporter_missing_required_column(t *testing.T) {
	ctx := context.Background()
	repo := newFakeEventRepo()
	importer := newTestImporter(repo)

	csvBody := "title,description\nStandup,daily sync\n"
	_, err := importer.ImportCSV(ctx, "user-1", strings.NewReader(csvBody))
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Empty(t, repo.byID, "a structurally invalid file writes nothing")
}

func TestEventImporter_empty_file(t *testing.T) {
	ctx := context.Background()
	importer := newTestImporter(newFakeEventRepo())

	_, err := importer.ImportCSV(ctx, "user-1", strings.NewReader(""))
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestEventImporter_malformed_rows_are_skipped(t *testing.T) {
	ctx := context.Background()
	repo := newFakeEventRepo()
	importer := newTestImporter(repo)

	csvBody := strings.Join([]string{
		"title,description,event_time",
		"TooShort,2025-01-01T09:00:00Z",
		"TooLong,x,2025-01-01T09:00:00Z,extra",
		"JustRight,,2025-01-01T09:00:00Z",
	}, "\n")

	result, err := importer.ImportCSV(ctx, "user-1", strings.NewReader(csvBody))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
	require.Len(t, result.Rejections, 2)
	assert.Contains(t, result.Rejections[0].Reason, "fields")
	assert.Len(t, repo.byID, 1)
}

func TestEventImporter_row_validation(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		row    string
		reason string
	}{
		{name: "blank title", row: " ,desc,2025-01-01T09:00:00Z", reason: "title is required"},
		{name: "title too long", row: strings.Repeat("x", 256) + ",desc,2025-01-01T09:00:00Z", reason: "at most 255"},
		{name: "blank event_time", row: "Standup,desc, ", reason: "event_time"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeEventRepo()
			importer := newTestImporter(repo)
			csvBody := "title,description,event_time\n" + tt.row + "\n"

			result, err := importer.ImportCSV(ctx, "user-1", strings.NewReader(csvBody))
			require.NoError(t, err)
			assert.Equal(t, 0, result.Imported)
			require.Len(t, result.Rejections, 1)
			assert.Contains(t, result.Rejections[0].Reason, tt.reason)
		})
	}
}

func TestEventImporter_bulk_insert_failure(t *testing.T) {
	ctx := context.Background()
	repo := newFakeEventRepo()
	repo.bulkErr = context.DeadlineExceeded
	importer := newTestImporter(repo)

	csvBody := "title,event_time\nStandup,2025-01-01T09:00:00Z\n"
	_, err := importer.ImportCSV(ctx, "user-1", strings.NewReader(csvBody))
	require.Error(t, err)
}

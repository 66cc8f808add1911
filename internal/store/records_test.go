package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "nested", "bookr.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func okRecord() *Record {
	return &Record{
		Source:                  SourceText,
		RawText:                 "dentist tomorrow at 3pm",
		OCRConfidence:           1,
		DatePhrase:              "tomorrow",
		TimePhrase:              "at 3pm",
		Department:              "Dentistry",
		EntitiesConfidence:      0.99,
		NormalizationConfidence: 0.9,
		Status:                  "ok",
		Date:                    "2026-10-15",
		Time:                    "15:00",
		TZ:                      "Asia/Kolkata",
		ReferenceAt:             time.Date(2026, 10, 14, 4, 30, 0, 0, time.UTC),
	}
}

func TestInsertAndGetRecord(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	in := okRecord()
	id, err := db.InsertRecord(ctx, in)
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Equal(t, id, in.ID)

	got, err := db.GetRecord(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, in.RawText, got.RawText)
	assert.Equal(t, in.Department, got.Department)
	assert.Equal(t, "2026-10-15", got.Date)
	assert.Equal(t, "15:00", got.Time)
	assert.Equal(t, 0.99, got.EntitiesConfidence)
	assert.Equal(t, 0.9, got.NormalizationConfidence)
	assert.True(t, in.ReferenceAt.Equal(got.ReferenceAt))
	assert.False(t, got.CreatedAt.IsZero())
	assert.False(t, got.Booked)
}

func TestGetRecord_NotFound(t *testing.T) {
	db := openTestDB(t)

	_, err := db.GetRecord(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetRecent(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	var ids []string
	for i := 0; i < 3; i++ {
		id, err := db.InsertRecord(ctx, okRecord())
		require.NoError(t, err)
		ids = append(ids, id)
	}

	recent, err := db.GetRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, ids[2], recent[0].ID)
	assert.Equal(t, ids[1], recent[1].ID)
}

func TestMarkBooked(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	id, err := db.InsertRecord(ctx, okRecord())
	require.NoError(t, err)

	clarify := &Record{
		Source:      SourceImage,
		RawText:     "see you sometime",
		Status:      "needs_clarification",
		Message:     "Invalid or missing date",
		ReferenceAt: time.Now(),
	}
	clarifyID, err := db.InsertRecord(ctx, clarify)
	require.NoError(t, err)

	require.NoError(t, db.MarkBooked(ctx, id))
	assert.ErrorIs(t, db.MarkBooked(ctx, clarifyID), ErrNotFound)
	assert.ErrorIs(t, db.MarkBooked(ctx, "missing"), ErrNotFound)

	booked, err := db.GetBooked(ctx)
	require.NoError(t, err)
	require.Len(t, booked, 1)
	assert.Equal(t, id, booked[0].ID)
	assert.True(t, booked[0].Booked)

	got, err := db.GetRecord(ctx, clarifyID)
	require.NoError(t, err)
	assert.Equal(t, "Invalid or missing date", got.Message)
	assert.Empty(t, got.Date)
}

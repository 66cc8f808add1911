package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	SourceText  = "text"
	SourceImage = "image"
)

var ErrNotFound = errors.New("record not found")

// Record is one processed appointment request.
type Record struct {
	ID                      string
	Source                  string
	RawText                 string
	OCRConfidence           float64
	DatePhrase              string
	TimePhrase              string
	Department              string
	EntitiesConfidence      float64
	NormalizationConfidence float64
	Status                  string
	Message                 string
	Date                    string
	Time                    string
	TZ                      string
	ReferenceAt             time.Time
	Booked                  bool
	CreatedAt               time.Time
}

const recordColumns = `id, source, raw_text, ocr_confidence, date_phrase, time_phrase, department,
	entities_confidence, normalization_confidence, status, message, date, time, tz, reference_at, booked, created_at`

// InsertRecord stores r, assigning a new ID when r.ID is empty, and returns
// the ID.
func (db *DB) InsertRecord(ctx context.Context, r *Record) (string, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}

	_, err := db.ExecContext(ctx,
		`INSERT INTO records (`+recordColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Source, r.RawText, r.OCRConfidence,
		r.DatePhrase, r.TimePhrase, r.Department, r.EntitiesConfidence, r.NormalizationConfidence,
		r.Status, r.Message, r.Date, r.Time, r.TZ,
		r.ReferenceAt.UTC().Format(time.RFC3339),
		r.Booked,
		r.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return "", fmt.Errorf("inserting record: %w", err)
	}
	return r.ID, nil
}

func (db *DB) GetRecord(ctx context.Context, id string) (*Record, error) {
	records, err := db.queryRecords(ctx,
		`SELECT `+recordColumns+` FROM records WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrNotFound
	}
	return &records[0], nil
}

// GetRecent returns up to limit records, newest first.
func (db *DB) GetRecent(ctx context.Context, limit int) ([]Record, error) {
	return db.queryRecords(ctx,
		`SELECT `+recordColumns+` FROM records ORDER BY rowid DESC LIMIT ?`, limit)
}

// GetBooked returns booked records in the order they were created.
func (db *DB) GetBooked(ctx context.Context) ([]Record, error) {
	return db.queryRecords(ctx,
		`SELECT `+recordColumns+` FROM records WHERE booked = 1 ORDER BY rowid ASC`)
}

// MarkBooked flags an ok record as booked.
func (db *DB) MarkBooked(ctx context.Context, id string) error {
	res, err := db.ExecContext(ctx,
		"UPDATE records SET booked = 1 WHERE id = ? AND status = 'ok'", id)
	if err != nil {
		return fmt.Errorf("marking record booked: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("marking record booked: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("marking record %s booked: %w", id, ErrNotFound)
	}
	return nil
}

func (db *DB) queryRecords(ctx context.Context, query string, args ...any) ([]Record, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		var datePhrase, timePhrase, department, message, date, clock, tz sql.NullString
		var refStr, createdStr string

		if err := rows.Scan(
			&r.ID, &r.Source, &r.RawText, &r.OCRConfidence,
			&datePhrase, &timePhrase, &department, &r.EntitiesConfidence, &r.NormalizationConfidence,
			&r.Status, &message, &date, &clock, &tz,
			&refStr, &r.Booked, &createdStr,
		); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}

		r.DatePhrase = datePhrase.String
		r.TimePhrase = timePhrase.String
		r.Department = department.String
		r.Message = message.String
		r.Date = date.String
		r.Time = clock.String
		r.TZ = tz.String

		if t, err := time.Parse(time.RFC3339, refStr); err == nil {
			r.ReferenceAt = t
		}
		if t, err := time.Parse(time.RFC3339, createdStr); err == nil {
			r.CreatedAt = t
		}

		records = append(records, r)
	}

	return records, rows.Err()
}

// Package store persists personal planner events in a local SQLite file.
// ICS-synced events are never written here; they are re-fetched from their
// feeds on every refresh.
package store

import (
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"weekplan/internal/classify"
	"weekplan/internal/model"
)

//go:embed schema.sql
var schema string

// Store handles database operations for personal events.
type Store struct {
	db *sql.DB
}

// New opens (creating if needed) the database at dbPath and ensures the
// schema exists.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// NewEvent is the input for creating a personal event.
type NewEvent struct {
	Title       string
	Notes       string
	ActionItems string
	AllDay      bool
	Start       time.Time
	End         time.Time
}

// Add inserts a new personal event and returns it in planner form.
func (s *Store) Add(ev NewEvent) (*model.Event, error) {
	id := uuid.New().String()
	now := time.Now()

	_, err := s.db.Exec(
		`INSERT INTO personal_events
		 (id, title, notes, action_items, all_day, start_at, end_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, ev.Title, ev.Notes, ev.ActionItems, ev.AllDay, ev.Start, ev.End, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}

	return &model.Event{
		ID:          id,
		Title:       ev.Title,
		Notes:       ev.Notes,
		ActionItems: ev.ActionItems,
		SourceTag:   classify.LocalTag,
		AllDayHint:  ev.AllDay,
		Start:       ev.Start,
		End:         ev.End,
	}, nil
}

// Get retrieves one personal event by id.
func (s *Store) Get(id string) (*model.Event, error) {
	row := s.db.QueryRow(
		`SELECT id, title, notes, action_items, all_day, start_at, end_at
		 FROM personal_events WHERE id = ?`, id)
	ev, err := scanEvent(row)
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	return ev, nil
}

// ListBetween returns personal events whose span intersects [from, to],
// ordered by start time then id for stable output.
func (s *Store) ListBetween(from, to time.Time) ([]model.Event, error) {
	rows, err := s.db.Query(
		`SELECT id, title, notes, action_items, all_day, start_at, end_at
		 FROM personal_events
		 WHERE end_at >= ? AND start_at <= ?
		 ORDER BY start_at, id`, from, to)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, *ev)
	}
	return events, rows.Err()
}

// Delete removes a personal event. Deleting an unknown id is not an error.
func (s *Store) Delete(id string) error {
	if _, err := s.db.Exec(`DELETE FROM personal_events WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(r rowScanner) (*model.Event, error) {
	var ev model.Event
	if err := r.Scan(&ev.ID, &ev.Title, &ev.Notes, &ev.ActionItems,
		&ev.AllDayHint, &ev.Start, &ev.End); err != nil {
		return nil, err
	}
	ev.SourceTag = classify.LocalTag
	return &ev, nil
}

package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventKind classifies journal entries.
type EventKind string

const (
	EventMode       EventKind = "mode"
	EventDragStart  EventKind = "drag_start"
	EventDragEnd    EventKind = "drag_end"
	EventRightClick EventKind = "right_click"
)

// Event is one journal entry.
type Event struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"session_id"`
	Kind       EventKind `json:"kind"`
	Mode       string    `json:"mode"`
	X          float64   `json:"x"`
	Y          float64   `json:"y"`
	OccurredAt time.Time `json:"occurred_at"`
}

// EventRepository stores journal entries.
type EventRepository struct {
	db *sql.DB
}

// Events returns the event repository for this store.
func (s *Store) Events() *EventRepository {
	return &EventRepository{db: s.db}
}

// InsertBatch writes events in one transaction, assigning IDs to events that
// lack one.
func (r *EventRepository) InsertBatch(events []Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT INTO events (id, session_id, kind, mode, x, y, occurred_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i := range events {
		e := &events[i]
		if e.ID == "" {
			e.ID = uuid.New().String()
		}
		if _, err := stmt.Exec(e.ID, e.SessionID, string(e.Kind), e.Mode, e.X, e.Y, e.OccurredAt); err != nil {
			return fmt.Errorf("insert event %s: %w", e.Kind, err)
		}
	}
	return tx.Commit()
}

// Recent returns up to limit events, newest first. An empty kind matches
// every kind.
func (r *EventRepository) Recent(limit int, kind EventKind) ([]Event, error) {
	rows, err := r.db.Query(
		`SELECT id, session_id, kind, mode, x, y, occurred_at FROM events
		 WHERE (? = '' OR kind = ?)
		 ORDER BY occurred_at DESC LIMIT ?`,
		string(kind), string(kind), limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []Event{}
	for rows.Next() {
		var e Event
		var k string
		if err := rows.Scan(&e.ID, &e.SessionID, &k, &e.Mode, &e.X, &e.Y, &e.OccurredAt); err != nil {
			return nil, err
		}
		e.Kind = EventKind(k)
		events = append(events, e)
	}
	return events, rows.Err()
}

// CountBySession returns how many events of each kind a session recorded.
func (r *EventRepository) CountBySession(sessionID string) (map[EventKind]int, error) {
	rows, err := r.db.Query(
		`SELECT kind, COUNT(*) FROM events WHERE session_id = ? GROUP BY kind`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[EventKind]int)
	for rows.Next() {
		var k string
		var n int
		if err := rows.Scan(&k, &n); err != nil {
			return nil, err
		}
		counts[EventKind(k)] = n
	}
	return counts, rows.Err()
}

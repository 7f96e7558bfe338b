package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Session is one run of the control loop.
type Session struct {
	ID        string          `json:"id"`
	StartedAt time.Time       `json:"started_at"`
	EndedAt   *time.Time      `json:"ended_at,omitempty"`
	Config    json.RawMessage `json:"config"`
}

// SessionRepository records control-loop runs.
type SessionRepository struct {
	db *sql.DB
}

// Sessions returns the session repository for this store.
func (s *Store) Sessions() *SessionRepository {
	return &SessionRepository{db: s.db}
}

// Start inserts a new session carrying a snapshot of the configuration.
func (r *SessionRepository) Start(config json.RawMessage) (*Session, error) {
	if config == nil {
		config = json.RawMessage("{}")
	}
	sess := &Session{
		ID:        uuid.New().String(),
		StartedAt: time.Now(),
		Config:    config,
	}

	_, err := r.db.Exec(
		`INSERT INTO sessions (id, started_at, config) VALUES (?, ?, ?)`,
		sess.ID, sess.StartedAt, string(config),
	)
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// End marks a session finished.
func (r *SessionRepository) End(id string) error {
	result, err := r.db.Exec(`UPDATE sessions SET ended_at = ? WHERE id = ? AND ended_at IS NULL`, time.Now(), id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByID retrieves a session.
func (r *SessionRepository) GetByID(id string) (*Session, error) {
	row := r.db.QueryRow(`SELECT id, started_at, ended_at, config FROM sessions WHERE id = ?`, id)
	sess, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return sess, nil
}

// List returns the most recent sessions first.
func (r *SessionRepository) List(limit int) ([]*Session, error) {
	rows, err := r.db.Query(
		`SELECT id, started_at, ended_at, config FROM sessions ORDER BY started_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (*Session, error) {
	sess := &Session{}
	var ended sql.NullTime
	var config string
	if err := row.Scan(&sess.ID, &sess.StartedAt, &ended, &config); err != nil {
		return nil, err
	}
	if ended.Valid {
		sess.EndedAt = &ended.Time
	}
	sess.Config = json.RawMessage(config)
	return sess, nil
}

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/aretw0/agenda/pkg/domain"
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS conversations (
	session_id TEXT PRIMARY KEY,
	greeted INTEGER NOT NULL DEFAULT 0,
	intent TEXT NOT NULL DEFAULT '',
	pending_date TEXT,
	pending_time TEXT,
	suggested_instant TEXT,
	awaiting_confirmation INTEGER NOT NULL DEFAULT 0,
	last_response TEXT NOT NULL DEFAULT '',
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
`

// Store implements ports.StateStore on a SQLite database, one row per session.
type Store struct {
	db *sql.DB
}

// Open opens the SQLite database at dbPath and creates the table if it doesn't exist.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// A single connection keeps ":memory:" databases coherent and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save upserts the session row.
func (s *Store) Save(ctx context.Context, sessionID string, state *domain.DialogueState) error {
	var pendingDate, pendingTime, suggested sql.NullString
	if state.PendingDate != nil {
		pendingDate = sql.NullString{String: state.PendingDate.String(), Valid: true}
	}
	if state.PendingTime != nil {
		pendingTime = sql.NullString{String: state.PendingTime.String(), Valid: true}
	}
	if state.SuggestedInstant != nil {
		suggested = sql.NullString{String: state.SuggestedInstant.Format(time.RFC3339Nano), Valid: true}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversations
			(session_id, greeted, intent, pending_date, pending_time, suggested_instant, awaiting_confirmation, last_response, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(session_id) DO UPDATE SET
			greeted = excluded.greeted,
			intent = excluded.intent,
			pending_date = excluded.pending_date,
			pending_time = excluded.pending_time,
			suggested_instant = excluded.suggested_instant,
			awaiting_confirmation = excluded.awaiting_confirmation,
			last_response = excluded.last_response,
			updated_at = excluded.updated_at`,
		sessionID, state.Greeted, string(state.Intent), pendingDate, pendingTime, suggested,
		state.AwaitingConfirmation, state.LastResponse, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert conversation: %w", err)
	}
	return nil
}

// Load reads the session row back into a DialogueState.
func (s *Store) Load(ctx context.Context, sessionID string) (*domain.DialogueState, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT greeted, intent, pending_date, pending_time, suggested_instant, awaiting_confirmation, last_response, updated_at
		 FROM conversations WHERE session_id = ?`,
		sessionID,
	)

	var (
		state                               domain.DialogueState
		intent                              string
		pendingDate, pendingTime, suggested sql.NullString
		updatedAt                           sql.NullTime
	)
	err := row.Scan(&state.Greeted, &intent, &pendingDate, &pendingTime, &suggested,
		&state.AwaitingConfirmation, &state.LastResponse, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan conversation: %w", err)
	}

	state.Intent = domain.Intent(intent)
	if updatedAt.Valid {
		state.UpdatedAt = updatedAt.Time
	}
	if pendingDate.Valid {
		d, err := civil.ParseDate(pendingDate.String)
		if err != nil {
			return nil, fmt.Errorf("parse pending_date: %w", err)
		}
		state.PendingDate = &d
	}
	if pendingTime.Valid {
		t, err := civil.ParseTime(pendingTime.String)
		if err != nil {
			return nil, fmt.Errorf("parse pending_time: %w", err)
		}
		state.PendingTime = &t
	}
	if suggested.Valid {
		at, err := time.Parse(time.RFC3339Nano, suggested.String)
		if err != nil {
			return nil, fmt.Errorf("parse suggested_instant: %w", err)
		}
		state.SuggestedInstant = &at
	}
	return &state, nil
}

// Delete removes the session row.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM conversations WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	return nil
}

// List returns every session ID in lexical order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT session_id FROM conversations ORDER BY session_id`)
	if err != nil {
		return nil, fmt.Errorf("query conversations: %w", err)
	}
	defer rows.Close()

	sessions := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan session id: %w", err)
		}
		sessions = append(sessions, id)
	}
	return sessions, rows.Err()
}

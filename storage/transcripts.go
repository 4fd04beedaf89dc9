// Package storage records console runs in a local sqlite database so a
// conversation can be resumed and past answers searched.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"searchpipe/model"
)

// ErrNotFound is returned when a transcript ID is unknown.
var ErrNotFound = errors.New("transcript not found")

// Transcript is one recorded invocation.
type Transcript struct {
	ID        string
	SessionID string
	Pipe      string
	Query     string
	Answer    string
	Status    model.Status
	Error     string
	Citations []model.Citation
	CreatedAt time.Time
	Duration  time.Duration
}

// TranscriptStore persists transcripts.
type TranscriptStore struct {
	db *sql.DB
}

// NewTranscriptStore opens (or creates) transcripts.db under dataDir.
func NewTranscriptStore(dataDir string) (*TranscriptStore, error) {
	dbPath := filepath.Join(dataDir, "transcripts.db")

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &TranscriptStore{db: db}
	if err := store.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return store, nil
}

func (s *TranscriptStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS transcripts (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		pipe TEXT NOT NULL,
		query TEXT NOT NULL,
		answer TEXT NOT NULL,
		status TEXT NOT NULL,
		error TEXT,
		created_at DATETIME NOT NULL,
		duration_ms INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_transcripts_session ON transcripts(session_id, created_at);

	CREATE TABLE IF NOT EXISTS citations (
		transcript_id TEXT NOT NULL REFERENCES transcripts(id) ON DELETE CASCADE,
		idx INTEGER NOT NULL,
		label TEXT NOT NULL,
		url TEXT NOT NULL,
		PRIMARY KEY (transcript_id, idx)
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database.
func (s *TranscriptStore) Close() error {
	return s.db.Close()
}

// Record saves t, assigning an ID and timestamp when they are unset.
func (s *TranscriptStore) Record(ctx context.Context, t *Transcript) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.SessionID == "" {
		t.SessionID = t.ID
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
	INSERT INTO transcripts (id, session_id, pipe, query, answer, status, error, created_at, duration_ms)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		t.ID,
		t.SessionID,
		t.Pipe,
		t.Query,
		t.Answer,
		string(t.Status),
		t.Error,
		t.CreatedAt,
		t.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("insert transcript: %w", err)
	}

	for _, c := range t.Citations {
		url := ""
		if len(c.URLs) > 0 {
			url = c.URLs[0]
		}
		_, err := tx.ExecContext(ctx, `INSERT INTO citations (transcript_id, idx, label, url) VALUES (?, ?, ?, ?)`,
			t.ID, c.Index, c.Label, url)
		if err != nil {
			return fmt.Errorf("insert citation %d: %w", c.Index, err)
		}
	}

	return tx.Commit()
}

const selectTranscript = `
	SELECT id, session_id, pipe, query, answer, status, COALESCE(error, ''), created_at, duration_ms
	FROM transcripts
`

type scanner interface {
	Scan(dest ...any) error
}

func scanTranscript(row scanner) (Transcript, error) {
	var t Transcript
	var status string
	var ms int64
	err := row.Scan(&t.ID, &t.SessionID, &t.Pipe, &t.Query, &t.Answer, &status, &t.Error, &t.CreatedAt, &ms)
	t.Status = model.Status(status)
	t.Duration = time.Duration(ms) * time.Millisecond
	return t, err
}

// Get loads one transcript with its citations.
func (s *TranscriptStore) Get(ctx context.Context, id string) (*Transcript, error) {
	t, err := scanTranscript(s.db.QueryRowContext(ctx, selectTranscript+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT idx, label, url FROM citations WHERE transcript_id = ? ORDER BY idx`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var c model.Citation
		var url string
		if err := rows.Scan(&c.Index, &c.Label, &url); err != nil {
			return nil, err
		}
		c.URLs = []string{url}
		c.Metadata.SourceURL = url
		t.Citations = append(t.Citations, c)
	}
	return &t, rows.Err()
}

// List returns the most recent transcripts, newest first, without citations.
func (s *TranscriptStore) List(ctx context.Context, limit int) ([]Transcript, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.query(ctx, selectTranscript+` ORDER BY created_at DESC LIMIT ?`, limit)
}

// Search finds transcripts whose query or answer contains text, ignoring case.
func (s *TranscriptStore) Search(ctx context.Context, text string) ([]Transcript, error) {
	if strings.TrimSpace(text) == "" {
		return []Transcript{}, nil
	}
	pattern := "%" + strings.ToLower(text) + "%"
	return s.query(ctx, selectTranscript+` WHERE lower(query) LIKE ? OR lower(answer) LIKE ? ORDER BY created_at DESC`, pattern, pattern)
}

// History rebuilds a session's conversation from its successful turns,
// oldest first, ready to prefix the next request.
func (s *TranscriptStore) History(ctx context.Context, sessionID string) ([]model.Message, error) {
	list, err := s.query(ctx, selectTranscript+` WHERE session_id = ? AND status = ? ORDER BY created_at ASC`, sessionID, string(model.StatusDone))
	if err != nil {
		return nil, err
	}

	messages := make([]model.Message, 0, len(list)*2)
	for _, t := range list {
		messages = append(messages, model.UserMessage(t.Query), model.AssistantMessage(t.Answer))
	}
	return messages, nil
}

func (s *TranscriptStore) query(ctx context.Context, q string, args ...any) ([]Transcript, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Transcript
	for rows.Next() {
		t, err := scanTranscript(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

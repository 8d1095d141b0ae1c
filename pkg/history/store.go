package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/ragdesk/ragdesk/internal/models"
	"github.com/ragdesk/ragdesk/internal/types"
)

// Store persists per-session conversation history in SQLite. Each
// session is one row holding the turn list as JSON, replaced whole on
// every write, so a crash leaves either the old or the new history.
// Writes to the same session are serialized by a per-session lock;
// different sessions do not contend.
type Store struct {
	db *sql.DB

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewStore opens (or creates) the conversation database at path.
func NewStore(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}

	// WAL mode keeps concurrent session readers off the writers
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS conversations (
			session_id TEXT PRIMARY KEY,
			data TEXT NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating conversations table: %w", err)
	}

	return &Store{
		db:    db,
		locks: make(map[string]*sync.Mutex),
	}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// sessionLock returns the mutex guarding one session's writes.
func (s *Store) sessionLock(sessionID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[sessionID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[sessionID] = l
	}
	return l
}

// Load returns the stored turns for a session in chronological order,
// or an empty history when the session is unknown.
func (s *Store) Load(ctx context.Context, sessionID string) ([]models.Turn, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session id must not be empty", types.ErrInvalidArgument)
	}

	var data string
	err := s.db.QueryRowContext(ctx,
		"SELECT data FROM conversations WHERE session_id = ?", sessionID,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: loading session %s: %v", types.ErrRetrievalBackend, sessionID, err)
	}

	var turns []models.Turn
	if err := json.Unmarshal([]byte(data), &turns); err != nil {
		return nil, fmt.Errorf("%w: corrupt history for session %s: %v", types.ErrRetrievalBackend, sessionID, err)
	}
	return turns, nil
}

// AppendAndTrim appends turns to a session and keeps only the most
// recent maxTurns entries, discarding older turns first.
func (s *Store) AppendAndTrim(ctx context.Context, sessionID string, turns []models.Turn, maxTurns int) error {
	if sessionID == "" {
		return fmt.Errorf("%w: session id must not be empty", types.ErrInvalidArgument)
	}
	if maxTurns <= 0 {
		return fmt.Errorf("%w: max turns must be positive, got %d", types.ErrInvalidArgument, maxTurns)
	}

	lock := s.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	existing, err := s.Load(ctx, sessionID)
	if err != nil {
		return err
	}

	merged := append(existing, turns...)
	if len(merged) > maxTurns {
		merged = merged[len(merged)-maxTurns:]
	}

	data, err := json.Marshal(merged)
	if err != nil {
		return fmt.Errorf("encoding history for session %s: %w", sessionID, err)
	}

	// Single-row REPLACE commits atomically
	_, err = s.db.ExecContext(ctx,
		"REPLACE INTO conversations (session_id, data) VALUES (?, ?)",
		sessionID, string(data),
	)
	if err != nil {
		return fmt.Errorf("persisting session %s: %w", sessionID, err)
	}
	return nil
}

// Clear deletes a session's history. Clearing an unknown session is a
// no-op.
func (s *Store) Clear(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("%w: session id must not be empty", types.ErrInvalidArgument)
	}

	lock := s.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	_, err := s.db.ExecContext(ctx,
		"DELETE FROM conversations WHERE session_id = ?", sessionID)
	if err != nil {
		return fmt.Errorf("clearing session %s: %w", sessionID, err)
	}
	return nil
}

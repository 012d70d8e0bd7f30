// Package library persists named poses and keyframe sequences in a local
// SQLite database. Poses are stored in their text code form so a row can be
// copied straight out of the database and pasted into any editor.
package library

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure-Go SQLite driver.

	"github.com/phanxgames/poser"
)

// ErrNotFound is returned when no entry has the requested name.
var ErrNotFound = errors.New("library: not found")

// ErrEmptyName is returned when saving an entry without a name.
var ErrEmptyName = errors.New("library: name must not be empty")

const schema = `
CREATE TABLE IF NOT EXISTS poses (
    id         TEXT PRIMARY KEY,
    name       TEXT NOT NULL UNIQUE,
    code       TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS sequences (
    id         TEXT PRIMARY KEY,
    name       TEXT NOT NULL UNIQUE,
    keyframes  TEXT NOT NULL,
    looping    INTEGER NOT NULL DEFAULT 0,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);
`

// Entry is a saved pose.
type Entry struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Decode parses the entry's pose code.
func (e Entry) Decode() (poser.Pose, poser.Proportions, error) {
	return poser.Decode(e.Code)
}

// Sequence is a saved keyframe list.
type Sequence struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Keyframes []poser.Keyframe `json:"keyframes"`
	Loop      bool             `json:"loop"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// Store is a pose library backed by a SQLite database in WAL mode.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (or creates) the library at path, enables WAL mode and busy
// timeout, and creates the schema if it does not exist. Use ":memory:" for
// a throwaway library.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("library: open database: %w", err)
	}

	// SQLite has a single writer; one connection keeps PRAGMAs consistent.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("library: enable WAL mode: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("library: set busy timeout: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("library: create schema: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save stores pose and props under name, replacing any entry with that name.
// The entry keeps its ID and creation time across replacements.
func (s *Store) Save(ctx context.Context, name string, pose poser.Pose, props poser.Proportions) (Entry, error) {
	if name == "" {
		return Entry{}, ErrEmptyName
	}
	now := s.now().UTC()
	code := poser.Encode(pose, props)

	const q = `
		INSERT INTO poses (id, name, code, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET code = excluded.code, updated_at = excluded.updated_at`
	if _, err := s.db.ExecContext(ctx, q, uuid.NewString(), name, code, now.UnixNano(), now.UnixNano()); err != nil {
		return Entry{}, fmt.Errorf("library: save %q: %w", name, err)
	}
	return s.Get(ctx, name)
}

// Get returns the entry saved under name, or ErrNotFound.
func (s *Store) Get(ctx context.Context, name string) (Entry, error) {
	const q = `SELECT id, name, code, created_at, updated_at FROM poses WHERE name = ?`
	e, err := scanEntry(s.db.QueryRowContext(ctx, q, name))
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, fmt.Errorf("%w: pose %q", ErrNotFound, name)
	}
	if err != nil {
		return Entry{}, fmt.Errorf("library: get %q: %w", name, err)
	}
	return e, nil
}

// List returns every saved pose ordered by name.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, code, created_at, updated_at FROM poses ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("library: list: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("library: list: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("library: list: %w", err)
	}
	return out, nil
}

// Delete removes the pose saved under name, or returns ErrNotFound.
func (s *Store) Delete(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM poses WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("library: delete %q: %w", name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: pose %q", ErrNotFound, name)
	}
	return nil
}

// SaveSequence stores keyframes under name, replacing any sequence with that name.
func (s *Store) SaveSequence(ctx context.Context, name string, keyframes []poser.Keyframe, loop bool) (Sequence, error) {
	if name == "" {
		return Sequence{}, ErrEmptyName
	}
	data, err := json.Marshal(keyframes)
	if err != nil {
		return Sequence{}, fmt.Errorf("library: encode keyframes: %w", err)
	}
	now := s.now().UTC().UnixNano()

	const q = `
		INSERT INTO sequences (id, name, keyframes, looping, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET keyframes = excluded.keyframes, looping = excluded.looping, updated_at = excluded.updated_at`
	if _, err := s.db.ExecContext(ctx, q, uuid.NewString(), name, string(data), loop, now, now); err != nil {
		return Sequence{}, fmt.Errorf("library: save sequence %q: %w", name, err)
	}
	return s.GetSequence(ctx, name)
}

// GetSequence returns the sequence saved under name, or ErrNotFound.
func (s *Store) GetSequence(ctx context.Context, name string) (Sequence, error) {
	const q = `SELECT id, name, keyframes, looping, created_at, updated_at FROM sequences WHERE name = ?`
	var (
		seq              Sequence
		data             string
		created, updated int64
	)
	err := s.db.QueryRowContext(ctx, q, name).Scan(&seq.ID, &seq.Name, &data, &seq.Loop, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return Sequence{}, fmt.Errorf("%w: sequence %q", ErrNotFound, name)
	}
	if err != nil {
		return Sequence{}, fmt.Errorf("library: get sequence %q: %w", name, err)
	}
	if err := json.Unmarshal([]byte(data), &seq.Keyframes); err != nil {
		return Sequence{}, fmt.Errorf("library: decode sequence %q: %w", name, err)
	}
	seq.CreatedAt = time.Unix(0, created).UTC()
	seq.UpdatedAt = time.Unix(0, updated).UTC()
	return seq, nil
}

// ListSequences returns the names of every saved sequence, sorted.
func (s *Store) ListSequences(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM sequences ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("library: list sequences: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("library: list sequences: %w", err)
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

// DeleteSequence removes the sequence saved under name, or returns ErrNotFound.
func (s *Store) DeleteSequence(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sequences WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("library: delete sequence %q: %w", name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: sequence %q", ErrNotFound, name)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (Entry, error) {
	var (
		e                Entry
		created, updated int64
	)
	if err := row.Scan(&e.ID, &e.Name, &e.Code, &created, &updated); err != nil {
		return Entry{}, err
	}
	e.CreatedAt = time.Unix(0, created).UTC()
	e.UpdatedAt = time.Unix(0, updated).UTC()
	return e, nil
}

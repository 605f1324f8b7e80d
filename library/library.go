// Package library is the SQLite-backed spellbook: compiled spells
// persisted by name, with their source kept alongside for editing.
package library

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/solenne/incant/pkg/bytecode"
)

// ErrSpellNotFound indicates the requested spell doesn't exist.
var ErrSpellNotFound = errors.New("spell not found")

// Library stores compiled spells in a SQLite database. Programs are
// stored as canonical CBOR blobs next to their source text.
type Library struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens (creating if needed) a spellbook database at path.
func Open(path string) (*Library, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Busy timeout for concurrent access from editor tooling.
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS spells (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL UNIQUE,
		source     TEXT NOT NULL,
		program    BLOB NOT NULL,
		created_at TEXT NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating table: %w", err)
	}

	return &Library{db: db}, nil
}

// Close closes the database connection.
func (l *Library) Close() error {
	return l.db.Close()
}

// Entry is one stored spell, program excluded.
type Entry struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// Save stores a compiled spell under name, replacing any previous spell
// of that name. The returned id identifies this revision.
func (l *Library) Save(name, source string, prog *bytecode.Program) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	blob, err := bytecode.MarshalProgram(prog)
	if err != nil {
		return "", fmt.Errorf("encoding program: %w", err)
	}

	id := uuid.NewString()
	_, err = l.db.Exec(`INSERT INTO spells (id, name, source, program, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			id = excluded.id,
			source = excluded.source,
			program = excluded.program,
			created_at = excluded.created_at`,
		id, name, source, blob, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return "", fmt.Errorf("saving spell %q: %w", name, err)
	}
	return id, nil
}

// Load returns a stored spell's program and source.
func (l *Library) Load(name string) (*bytecode.Program, string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var blob []byte
	var source string
	err := l.db.QueryRow(`SELECT program, source FROM spells WHERE name = ?`, name).
		Scan(&blob, &source)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", ErrSpellNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("loading spell %q: %w", name, err)
	}

	prog, err := bytecode.UnmarshalProgram(blob)
	if err != nil {
		return nil, "", fmt.Errorf("decoding spell %q: %w", name, err)
	}
	return prog, source, nil
}

// List returns every stored spell, newest first.
func (l *Library) List() ([]Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rows, err := l.db.Query(`SELECT id, name, created_at FROM spells ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing spells: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var created string
		if err := rows.Scan(&e.ID, &e.Name, &created); err != nil {
			return nil, fmt.Errorf("scanning spell row: %w", err)
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Delete removes a stored spell.
func (l *Library) Delete(name string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	res, err := l.db.Exec(`DELETE FROM spells WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("deleting spell %q: %w", name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSpellNotFound
	}
	return nil
}

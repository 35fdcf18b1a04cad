package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"github.com/josephlewis42/shellmock/core/mock"

	_ "modernc.org/sqlite"
)

// SQLStore keeps captures and cursors in a SQLite database (modernc.org/sqlite
// driver, CGO-free). Captures are stored as the same JSON documents the file
// store writes, one row each.
type SQLStore struct {
	db *sql.DB
}

var _ Store = (*SQLStore)(nil)

// NewSQLStore opens the database at path, use ":memory:" for an in-memory
// database, and creates the schema.
func NewSQLStore(path string) (*SQLStore, error) {
	p := strings.TrimSpace(path)
	if p == "" {
		return nil, errors.New("empty sqlite path")
	}
	db, err := sql.Open("sqlite", p)
	if err != nil {
		return nil, err
	}
	// Every connection to ":memory:" is a new database.
	db.SetMaxOpenConns(1)
	// busy timeout helps with short overlapping shim invocations
	_, _ = db.Exec("PRAGMA busy_timeout=3000;")

	s := &SQLStore{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLStore) ensureSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS captures(
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			command TEXT NOT NULL,
			record TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_captures_command ON captures(command);`,
		`CREATE TABLE IF NOT EXISTS states(
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			command TEXT NOT NULL,
			match_args TEXT NOT NULL,
			match_stdin TEXT NOT NULL,
			next_idx INTEGER NOT NULL,
			UNIQUE(command, match_args, match_stdin)
		);`,
	}
	for _, q := range stmts {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the database.
func (s *SQLStore) Close() error { return s.db.Close() }

// LoadCaptures implements Store.
func (s *SQLStore) LoadCaptures(command string) ([]mock.Capture, error) {
	rows, err := s.db.Query(`SELECT record FROM captures WHERE command=? ORDER BY id ASC;`, command)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []mock.Capture
	for rows.Next() {
		var record string
		if err := rows.Scan(&record); err != nil {
			return nil, err
		}

		var capture mock.Capture
		if err := json.Unmarshal([]byte(record), &capture); err != nil {
			return nil, &MalformedError{Location: "captures row for " + command, Err: err}
		}
		out = append(out, capture)
	}
	return out, rows.Err()
}

// AppendCapture implements Store.
func (s *SQLStore) AppendCapture(capture mock.Capture) error {
	record, err := json.Marshal(capture)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`INSERT INTO captures(command, record) VALUES(?, ?);`, capture.Command, string(record))
	return err
}

// LoadStates implements Store.
func (s *SQLStore) LoadStates(command string) ([]mock.State, error) {
	rows, err := s.db.Query(`
		SELECT command, match_args, match_stdin, next_idx
		FROM states
		WHERE command=?
		ORDER BY id ASC;`, command)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []mock.State
	for rows.Next() {
		var st mock.State
		if err := rows.Scan(&st.Command, &st.MatchArgs, &st.MatchStdin, &st.NextIdx); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// UpsertState implements Store.
func (s *SQLStore) UpsertState(state mock.State) error {
	_, err := s.db.Exec(`
		INSERT INTO states(command, match_args, match_stdin, next_idx)
		VALUES(?, ?, ?, ?)
		ON CONFLICT(command, match_args, match_stdin) DO UPDATE SET
			next_idx=excluded.next_idx;`,
		state.Command, state.MatchArgs, state.MatchStdin, state.NextIdx)
	return err
}

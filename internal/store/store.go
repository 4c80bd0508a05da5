package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/gradelab/circuit-integrity/go-verifier/internal/netlist"
	"github.com/gradelab/circuit-integrity/go-verifier/internal/policy"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	session_id   TEXT PRIMARY KEY,
	question_id  TEXT,
	policy_json  TEXT NOT NULL,
	created_at   TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS baselines (
	session_id        TEXT PRIMARY KEY,
	descriptors_json  TEXT NOT NULL,
	type_counts_json  TEXT NOT NULL,
	captured_at       TEXT NOT NULL,
	FOREIGN KEY (session_id) REFERENCES sessions(session_id)
);

CREATE TABLE IF NOT EXISTS decision_log (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id    TEXT NOT NULL,
	tick          INTEGER NOT NULL,
	result        TEXT NOT NULL,
	reason        TEXT,
	export_text   TEXT,
	elements_json TEXT,
	created_at    TEXT NOT NULL,
	FOREIGN KEY (session_id) REFERENCES sessions(session_id)
);
`

// #endregion schema

// #region store-struct

// Store persists grading sessions, their captured baselines, and the
// per-tick decision audit trail in SQLite.
type Store struct {
	db *sql.DB
}

// #endregion store-struct

// #region constructor

// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// #endregion constructor

// #region close

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use by other packages (e.g. logging).
func (s *Store) DB() *sql.DB {
	return s.db
}

// #endregion close

// #region sessions

// SessionRow is one persisted grading session.
type SessionRow struct {
	SessionID  string
	QuestionID string
	Policy     policy.Policy
	CreatedAt  time.Time
}

// CreateSession inserts the session row with its attached policy.
func (s *Store) CreateSession(sessionID, questionID string, p policy.Policy) error {
	policyJSON, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal policy: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO sessions (session_id, question_id, policy_json, created_at)
		 VALUES (?, ?, ?, ?)`,
		sessionID, nullIfEmpty(questionID), string(policyJSON),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// GetSession retrieves one session row.
func (s *Store) GetSession(sessionID string) (SessionRow, error) {
	var row SessionRow
	var questionID sql.NullString
	var policyJSON, createdStr string

	err := s.db.QueryRow(
		`SELECT session_id, question_id, policy_json, created_at
		 FROM sessions WHERE session_id = ?`, sessionID,
	).Scan(&row.SessionID, &questionID, &policyJSON, &createdStr)
	if err != nil {
		return SessionRow{}, fmt.Errorf("get session %s: %w", sessionID, err)
	}
	if questionID.Valid {
		row.QuestionID = questionID.String
	}
	if err := json.Unmarshal([]byte(policyJSON), &row.Policy); err != nil {
		return SessionRow{}, fmt.Errorf("unmarshal policy: %w", err)
	}
	row.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
	return row, nil
}

// ListSessions returns the most recent sessions.
func (s *Store) ListSessions(limit int) ([]SessionRow, error) {
	rows, err := s.db.Query(
		`SELECT session_id, question_id, policy_json, created_at
		 FROM sessions ORDER BY created_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []SessionRow
	for rows.Next() {
		var row SessionRow
		var questionID sql.NullString
		var policyJSON, createdStr string
		if err := rows.Scan(&row.SessionID, &questionID, &policyJSON, &createdStr); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		if questionID.Valid {
			row.QuestionID = questionID.String
		}
		if err := json.Unmarshal([]byte(policyJSON), &row.Policy); err != nil {
			return nil, fmt.Errorf("unmarshal policy: %w", err)
		}
		row.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		sessions = append(sessions, row)
	}
	return sessions, rows.Err()
}

// #endregion sessions

// #region baselines

// SaveBaseline persists a captured baseline. A session has exactly one
// baseline; re-saving is an error so tampering by recapture shows up loudly.
func (s *Store) SaveBaseline(sessionID string, b *policy.Baseline) error {
	descJSON, err := json.Marshal(b.Descriptors)
	if err != nil {
		return fmt.Errorf("marshal descriptors: %w", err)
	}
	countsJSON, err := json.Marshal(b.TypeCounts)
	if err != nil {
		return fmt.Errorf("marshal type counts: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO baselines (session_id, descriptors_json, type_counts_json, captured_at)
		 VALUES (?, ?, ?, ?)`,
		sessionID, string(descJSON), string(countsJSON),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert baseline: %w", err)
	}
	return nil
}

// GetBaseline reconstructs a session's baseline, policy included.
// Returns (nil, nil) when the session has not captured one yet.
func (s *Store) GetBaseline(sessionID string) (*policy.Baseline, error) {
	session, err := s.GetSession(sessionID)
	if err != nil {
		return nil, err
	}

	var descJSON, countsJSON string
	err = s.db.QueryRow(
		`SELECT descriptors_json, type_counts_json FROM baselines WHERE session_id = ?`,
		sessionID,
	).Scan(&descJSON, &countsJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get baseline %s: %w", sessionID, err)
	}

	b := &policy.Baseline{Policy: session.Policy}
	if err := json.Unmarshal([]byte(descJSON), &b.Descriptors); err != nil {
		return nil, fmt.Errorf("unmarshal descriptors: %w", err)
	}
	if err := json.Unmarshal([]byte(countsJSON), &b.TypeCounts); err != nil {
		return nil, fmt.Errorf("unmarshal type counts: %w", err)
	}
	return b, nil
}

// #endregion baselines

// #region helpers

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// MarshalElements serializes live element metadata for the decision log.
func MarshalElements(elements []netlist.Element) string {
	type row struct {
		Type  string `json:"type"`
		Posts int    `json:"posts"`
		Label string `json:"label,omitempty"`
	}
	rows := make([]row, len(elements))
	for i, e := range elements {
		rows[i] = row{Type: e.Category(), Posts: e.PostCount(), Label: e.Label()}
	}
	data, _ := json.Marshal(rows)
	return string(data)
}

// #endregion helpers

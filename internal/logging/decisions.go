package logging

import (
	"database/sql"
	"fmt"
	"time"
)

// #region decision-entry

// DecisionEntry is a single row in the decision_log table: the outcome of
// one tick's integrity evaluation, with enough context to replay it.
type DecisionEntry struct {
	SessionID    string
	Tick         int
	Result       string // "pass" | "fail" | "skipped"
	Reason       string
	ExportText   string
	ElementsJSON string
	CreatedAt    time.Time
}

// Decision results as stored in decision_log.result.
const (
	ResultPass    = "pass"
	ResultFail    = "fail"
	ResultSkipped = "skipped" // alignment failure: state was unverifiable
)

// #endregion decision-entry

// #region log-decision

// LogDecision writes a decision entry to the decision_log table.
func LogDecision(db *sql.DB, entry DecisionEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := db.Exec(
		`INSERT INTO decision_log (session_id, tick, result, reason, export_text, elements_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.SessionID,
		entry.Tick,
		entry.Result,
		nullIfEmpty(entry.Reason),
		nullIfEmpty(entry.ExportText),
		nullIfEmpty(entry.ElementsJSON),
		entry.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("log decision: %w", err)
	}
	return nil
}

// #endregion log-decision

// #region list-decisions

// ListDecisions returns a session's decision entries in tick order.
func ListDecisions(db *sql.DB, sessionID string, limit int) ([]DecisionEntry, error) {
	rows, err := db.Query(
		`SELECT session_id, tick, result, reason, export_text, elements_json, created_at
		 FROM decision_log WHERE session_id = ? ORDER BY tick ASC LIMIT ?`,
		sessionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list decisions: %w", err)
	}
	defer rows.Close()

	var entries []DecisionEntry
	for rows.Next() {
		var e DecisionEntry
		var reason, exportText, elementsJSON sql.NullString
		var createdStr string
		if err := rows.Scan(&e.SessionID, &e.Tick, &e.Result, &reason, &exportText, &elementsJSON, &createdStr); err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		if reason.Valid {
			e.Reason = reason.String
		}
		if exportText.Valid {
			e.ExportText = exportText.String
		}
		if elementsJSON.Valid {
			e.ElementsJSON = elementsJSON.String
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// #endregion list-decisions

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers

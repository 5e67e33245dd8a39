// ABOUTME: Activity log store methods for recording dashboard mutations
// ABOUTME: Records which operation ran against which agent and whether it succeeded

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// tsLayout is fixed width so that lexical order in SQLite matches time order.
const tsLayout = "2006-01-02T15:04:05.000000000Z"

// AppendActivity appends a new entry to the activity log.
// Generates ID and Timestamp if not set.
func (s *SQLiteStore) AppendActivity(ctx context.Context, a *Activity) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.Timestamp.IsZero() {
		a.Timestamp = time.Now().UTC()
	}

	var detailJSON *string
	if a.Detail != nil {
		data, err := json.Marshal(a.Detail)
		if err != nil {
			return fmt.Errorf("marshaling activity detail: %w", err)
		}
		str := string(data)
		detailJSON = &str
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO activity_log (activity_id, action, agent_id, ok, error, ts, detail_json)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		a.ID,
		string(a.Action),
		a.AgentID,
		a.OK,
		a.Error,
		a.Timestamp.UTC().Format(tsLayout),
		detailJSON,
	)
	if err != nil {
		return fmt.Errorf("inserting activity: %w", err)
	}

	s.logger.Debug("appended activity", "id", a.ID, "action", a.Action, "agent_id", a.AgentID, "ok", a.OK)
	return nil
}

const activityQuery = `
	SELECT activity_id, action, agent_id, ok, error, ts, detail_json
	FROM activity_log
	WHERE (? = '' OR agent_id = ?)
	ORDER BY ts DESC, rowid DESC
	LIMIT ?
`

// ListActivity returns entries matching the filter, newest first.
func (s *SQLiteStore) ListActivity(ctx context.Context, f ActivityFilter) ([]Activity, error) {
	rows, err := s.db.QueryContext(ctx, activityQuery, f.AgentID, f.AgentID, normalizeActivityLimit(f.Limit))
	if err != nil {
		return nil, fmt.Errorf("querying activity: %w", err)
	}
	defer func() { _ = rows.Close() }()

	entries := []Activity{}
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating activity: %w", err)
	}
	return entries, nil
}

func scanActivity(scanner interface{ Scan(dest ...any) error }) (Activity, error) {
	var a Activity
	var action, ts string
	var detailJSON *string

	if err := scanner.Scan(&a.ID, &action, &a.AgentID, &a.OK, &a.Error, &ts, &detailJSON); err != nil {
		return a, fmt.Errorf("scanning activity: %w", err)
	}
	a.Action = ActivityAction(action)

	var err error
	a.Timestamp, err = time.Parse(tsLayout, ts)
	if err != nil {
		return a, fmt.Errorf("parsing timestamp: %w", err)
	}
	if detailJSON != nil {
		if err := json.Unmarshal([]byte(*detailJSON), &a.Detail); err != nil {
			return a, fmt.Errorf("unmarshaling detail: %w", err)
		}
	}
	return a, nil
}

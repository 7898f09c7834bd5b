// Package report persists mission history in SQLite so completed rounds
// can be reviewed after the arena restarts.
package report

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Store wraps the mission log database.
type Store struct {
	db *sql.DB
}

// MissionRecord is one logged round.
type MissionRecord struct {
	ID          string
	MissionType string
	StartedAt   time.Time
	FinishedAt  *time.Time
	FinalDamage *int
}

// EventRecord is one wire event captured during a round.
type EventRecord struct {
	MissionID string
	Seq       int
	EventType string
	Payload   string
	At        time.Time
}

const schema = `
CREATE TABLE IF NOT EXISTS missions (
	id           TEXT PRIMARY KEY,
	mission_type TEXT NOT NULL,
	started_at   TIMESTAMP NOT NULL,
	finished_at  TIMESTAMP,
	final_damage INTEGER
);
CREATE TABLE IF NOT EXISTS events (
	mission_id TEXT NOT NULL REFERENCES missions(id),
	seq        INTEGER NOT NULL,
	event_type TEXT NOT NULL,
	payload    TEXT NOT NULL,
	at         TIMESTAMP NOT NULL,
	PRIMARY KEY (mission_id, seq)
);
`

// Open creates or opens the mission log at path. ":memory:" keeps it
// in-process, which the tests use.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open mission log: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init mission log schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// BeginMission logs the start of a round and returns its generated ID.
func (s *Store) BeginMission(missionType string) (string, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(
		`INSERT INTO missions (id, mission_type, started_at) VALUES (?, ?, ?)`,
		id, missionType, time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("begin mission: %w", err)
	}
	return id, nil
}

// RecordEvent appends one event to a mission's log. The payload is stored
// as JSON so reports can replay the exact wire traffic.
func (s *Store) RecordEvent(missionID string, seq int, eventType string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode event payload: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO events (mission_id, seq, event_type, payload, at) VALUES (?, ?, ?, ?, ?)`,
		missionID, seq, eventType, string(data), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("record event: %w", err)
	}
	return nil
}

// FinishMission closes out a round with its final damage figure.
func (s *Store) FinishMission(missionID string, finalDamage int) error {
	res, err := s.db.Exec(
		`UPDATE missions SET finished_at = ?, final_damage = ? WHERE id = ?`,
		time.Now().UTC(), finalDamage, missionID)
	if err != nil {
		return fmt.Errorf("finish mission: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish mission: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("finish mission: unknown mission %s", missionID)
	}
	return nil
}

// Mission fetches one round by ID.
func (s *Store) Mission(missionID string) (MissionRecord, error) {
	var rec MissionRecord
	err := s.db.QueryRow(
		`SELECT id, mission_type, started_at, finished_at, final_damage FROM missions WHERE id = ?`,
		missionID).Scan(&rec.ID, &rec.MissionType, &rec.StartedAt, &rec.FinishedAt, &rec.FinalDamage)
	if err != nil {
		return MissionRecord{}, fmt.Errorf("load mission %s: %w", missionID, err)
	}
	return rec, nil
}

// RecentMissions lists the latest rounds, newest first.
func (s *Store) RecentMissions(limit int) ([]MissionRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, mission_type, started_at, finished_at, final_damage
		 FROM missions ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list missions: %w", err)
	}
	defer rows.Close()

	var out []MissionRecord
	for rows.Next() {
		var rec MissionRecord
		if err := rows.Scan(&rec.ID, &rec.MissionType, &rec.StartedAt, &rec.FinishedAt, &rec.FinalDamage); err != nil {
			return nil, fmt.Errorf("scan mission: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// DeleteFinishedBefore removes finished missions older than the cutoff,
// along with their events, and reports how many missions went.
func (s *Store) DeleteFinishedBefore(cutoff time.Time) (int64, error) {
	_, err := s.db.Exec(
		`DELETE FROM events WHERE mission_id IN
		 (SELECT id FROM missions WHERE finished_at IS NOT NULL AND finished_at < ?)`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune events: %w", err)
	}
	res, err := s.db.Exec(
		`DELETE FROM missions WHERE finished_at IS NOT NULL AND finished_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune missions: %w", err)
	}
	return res.RowsAffected()
}

// Events returns a mission's captured wire traffic in emission order.
func (s *Store) Events(missionID string) ([]EventRecord, error) {
	rows, err := s.db.Query(
		`SELECT mission_id, seq, event_type, payload, at
		 FROM events WHERE mission_id = ? ORDER BY seq`, missionID)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var out []EventRecord
	for rows.Next() {
		var rec EventRecord
		if err := rows.Scan(&rec.MissionID, &rec.Seq, &rec.EventType, &rec.Payload, &rec.At); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Package snapshot persists named excitation states to a sqlite file so a
// tuned drive set can be restored across sessions.
package snapshot

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/apertura-data/beamlab/internal/excitation"
)

// Store is a sqlite-backed snapshot archive.
type Store struct {
	*sql.DB
}

// Snapshot is one saved excitation with its bookkeeping.
type Snapshot struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	FreqHz    float64           `json:"freq_hz"`
	CreatedAt time.Time         `json:"created_at"`
	State     *excitation.State `json:"state"`
}

// Open opens (or creates) the snapshot database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %q: %w", pragma, err)
		}
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS snapshots (
			snapshot_id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			freq_hz DOUBLE NOT NULL,
			created_unix_nanos BIGINT NOT NULL,
			state_json TEXT NOT NULL
		);
	`)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db}, nil
}

// Save stores an excitation under a name and returns the snapshot ID. An
// existing snapshot with the same name is replaced.
func (s *Store) Save(name string, freqHz float64, state *excitation.State) (string, error) {
	if name == "" {
		return "", fmt.Errorf("snapshot name must not be empty")
	}
	payload, err := json.Marshal(state)
	if err != nil {
		return "", fmt.Errorf("encode excitation: %w", err)
	}

	id := uuid.NewString()
	_, err = s.Exec(`
		INSERT INTO snapshots (snapshot_id, name, freq_hz, created_unix_nanos, state_json)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			snapshot_id = excluded.snapshot_id,
			freq_hz = excluded.freq_hz,
			created_unix_nanos = excluded.created_unix_nanos,
			state_json = excluded.state_json`,
		id, name, freqHz, time.Now().UnixNano(), string(payload))
	if err != nil {
		return "", fmt.Errorf("save snapshot %q: %w", name, err)
	}
	return id, nil
}

// Load restores a snapshot by name.
func (s *Store) Load(name string) (*Snapshot, error) {
	row := s.QueryRow(`
		SELECT snapshot_id, name, freq_hz, created_unix_nanos, state_json
		FROM snapshots WHERE name = ?`, name)
	snap, err := scanSnapshot(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("no snapshot named %q", name)
	}
	return snap, err
}

// List returns all snapshots, newest first, without their drive payloads.
func (s *Store) List() ([]Snapshot, error) {
	rows, err := s.Query(`
		SELECT snapshot_id, name, freq_hz, created_unix_nanos
		FROM snapshots ORDER BY created_unix_nanos DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snaps []Snapshot
	for rows.Next() {
		var snap Snapshot
		var createdNanos int64
		if err := rows.Scan(&snap.ID, &snap.Name, &snap.FreqHz, &createdNanos); err != nil {
			return nil, err
		}
		snap.CreatedAt = time.Unix(0, createdNanos)
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return snaps, nil
}

// Delete removes a snapshot by name.
func (s *Store) Delete(name string) error {
	res, err := s.Exec(`DELETE FROM snapshots WHERE name = ?`, name)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("no snapshot named %q", name)
	}
	return nil
}

func scanSnapshot(row *sql.Row) (*Snapshot, error) {
	var snap Snapshot
	var createdNanos int64
	var payload string
	if err := row.Scan(&snap.ID, &snap.Name, &snap.FreqHz, &createdNanos, &payload); err != nil {
		return nil, err
	}
	snap.CreatedAt = time.Unix(0, createdNanos)

	var state excitation.State
	if err := json.Unmarshal([]byte(payload), &state); err != nil {
		return nil, fmt.Errorf("decode snapshot %q: %w", snap.Name, err)
	}
	snap.State = &state
	return &snap, nil
}
